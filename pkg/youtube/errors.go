package youtube

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

// Reasons reported by the API that callers commonly branch on.
const (
	ReasonQuotaExceeded    = "quotaExceeded"
	ReasonCommentsDisabled = "commentsDisabled"
	ReasonForbidden        = "forbidden"
	ReasonNotFound         = "notFound"
)

// APIError is returned when an API call fails, either upstream (Status > 0)
// or in transport (Status == 0).
type APIError struct {
	Resource string
	Status   int
	Reason   string
	Message  string
	Err      error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("youtube %s: %s", e.Resource, e.Message)
	}
	if e.Reason != "" {
		return fmt.Sprintf("youtube %s: status %d (%s): %s", e.Resource, e.Status, e.Reason, e.Message)
	}
	return fmt.Sprintf("youtube %s: status %d: %s", e.Resource, e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// newAPIError converts the error returned by googleapi.CheckResponse.
func newAPIError(resource string, err error) *APIError {
	apiErr := &APIError{Resource: resource, Message: err.Error(), Err: err}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		apiErr.Status = gErr.Code
		apiErr.Message = gErr.Message
		if len(gErr.Errors) > 0 {
			apiErr.Reason = gErr.Errors[0].Reason
			if apiErr.Message == "" {
				apiErr.Message = gErr.Errors[0].Message
			}
		}
		if apiErr.Message == "" {
			apiErr.Message = gErr.Body
		}
	}
	return apiErr
}

// HasReason reports whether err is an APIError with the given reason.
func HasReason(err error, reason string) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Reason == reason
	}
	return false
}
