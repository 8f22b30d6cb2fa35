package service

import (
	"fmt"
	"sort"
)

// Interval is a half-open [Start,End) window in minutes from midnight,
// trainer-local wall clock.
type Interval struct {
	Start int `json:"-"`
	End   int `json:"-"`
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%s,%s)", FormatClock(iv.Start), FormatClock(iv.End))
}

// Contains reports whether [start,end) fits entirely inside the interval.
func (iv Interval) Contains(start, end int) bool {
	return start >= iv.Start && end <= iv.End
}

// ParseClock converts "15:04" to minutes from midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%02d:%02d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid wall-clock time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("wall-clock time out of range: %q", s)
	}
	return h*60 + m, nil
}

// FormatClock converts minutes from midnight back to "15:04".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Merge sorts the intervals and unions overlapping or adjacent ones. The
// result is a minimal sorted non-overlapping cover of the same points.
func Merge(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End < sorted[j].End
		}
		return sorted[i].Start < sorted[j].Start
	})

	merged := []Interval{sorted[0]}
	for _, next := range sorted[1:] {
		current := &merged[len(merged)-1]
		if next.Start <= current.End {
			if next.End > current.End {
				current.End = next.End
			}
			continue
		}
		merged = append(merged, next)
	}

	return merged
}

// Subtract removes [start,end) from every interval. An interval fully
// containing the window splits into two.
func Subtract(intervals []Interval, start, end int) []Interval {
	if end <= start {
		return intervals
	}

	var out []Interval
	for _, iv := range intervals {
		if end <= iv.Start || start >= iv.End {
			out = append(out, iv)
			continue
		}
		if start > iv.Start {
			out = append(out, Interval{Start: iv.Start, End: start})
		}
		if end < iv.End {
			out = append(out, Interval{Start: end, End: iv.End})
		}
	}
	return out
}
