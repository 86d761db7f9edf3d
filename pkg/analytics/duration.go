package analytics

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseISODuration parses the ISO 8601 durations the API reports, such as
// "PT4M13S", "PT1H2M" or "P1DT3H". Years and months are rejected since they
// have no fixed length.
func ParseISODuration(s string) (time.Duration, error) {
	if !strings.HasPrefix(s, "P") || len(s) < 3 {
		return 0, fmt.Errorf("invalid ISO 8601 duration %q", s)
	}

	var (
		total  time.Duration
		inTime bool
		num    strings.Builder
		seen   bool
	)
	for _, r := range s[1:] {
		switch {
		case r == 'T':
			if inTime {
				return 0, fmt.Errorf("invalid ISO 8601 duration %q", s)
			}
			inTime = true
			continue
		case (r >= '0' && r <= '9') || r == '.':
			num.WriteRune(r)
			continue
		}

		if num.Len() == 0 {
			return 0, fmt.Errorf("invalid ISO 8601 duration %q", s)
		}
		n, err := strconv.ParseFloat(num.String(), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid ISO 8601 duration %q: %w", s, err)
		}
		num.Reset()

		var unit time.Duration
		switch {
		case !inTime && r == 'W':
			unit = 7 * 24 * time.Hour
		case !inTime && r == 'D':
			unit = 24 * time.Hour
		case inTime && r == 'H':
			unit = time.Hour
		case inTime && r == 'M':
			unit = time.Minute
		case inTime && r == 'S':
			unit = time.Second
		default:
			return 0, fmt.Errorf("unsupported ISO 8601 duration component %q in %q", r, s)
		}
		total += time.Duration(n * float64(unit))
		seen = true
	}

	if num.Len() > 0 || !seen {
		return 0, fmt.Errorf("invalid ISO 8601 duration %q", s)
	}
	return total, nil
}
