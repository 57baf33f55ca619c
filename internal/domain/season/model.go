package season

import (
	"slices"
	"time"
)

// Year identifies a season by its start year.
type Year = int

// Between lists the years from start to end inclusive.
func Between(start, end int) []Year {
	if end < start {
		return nil
	}
	out := make([]Year, 0, end-start+1)
	for y := start; y <= end; y++ {
		out = append(out, y)
	}
	return out
}

// Dedupe returns the distinct positive years in ascending order.
func Dedupe(years []Year) []Year {
	out := make([]Year, 0, len(years))
	for _, y := range years {
		if y > 0 {
			out = append(out, y)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// FromStartDate extracts the season year from a "2024-08-16" style date.
func FromStartDate(raw string) (Year, bool) {
	if len(raw) < 4 {
		return 0, false
	}
	t, err := time.Parse("2006", raw[:4])
	if err != nil {
		return 0, false
	}
	return t.Year(), true
}
