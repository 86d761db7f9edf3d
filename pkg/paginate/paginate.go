// Package paginate follows continuation tokens until a list endpoint is exhausted.
package paginate

import (
	"context"
	"fmt"
)

// MaxPageSize is the largest page the YouTube Data API serves for list calls.
const MaxPageSize = 50

// Page is one response of a paginated endpoint.
type Page[T any] struct {
	Items []T
	// NextToken is empty on the last page.
	NextToken string
}

// PageFunc fetches the page identified by token ("" for the first page).
type PageFunc[T any] func(ctx context.Context, token string) (Page[T], error)

// Stats describes a completed or aborted accumulation.
type Stats struct {
	Requests int
	Items    int
}

// All requests pages until one omits its continuation token and returns every
// item in page order. An error on any page aborts the accumulation; the items
// gathered so far are discarded.
func All[T any](ctx context.Context, fetch PageFunc[T]) ([]T, Stats, error) {
	var (
		items []T
		stats Stats
		token string
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		page, err := fetch(ctx, token)
		stats.Requests++
		if err != nil {
			return nil, stats, fmt.Errorf("page %d: %w", stats.Requests, err)
		}

		items = append(items, page.Items...)
		stats.Items = len(items)

		if page.NextToken == "" {
			return items, stats, nil
		}
		token = page.NextToken
	}
}
