package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday is the single day-of-week representation used across the service,
// aligned with time.Weekday (Sunday = 0). Legacy callers send day names or
// digit strings; ParseWeekday converts those at the boundary.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayNames = [...]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

func (w Weekday) String() string {
	if !w.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

func (w Weekday) Valid() bool {
	return w >= Sunday && w <= Saturday
}

func (w Weekday) Time() time.Weekday {
	return time.Weekday(w)
}

// ParseWeekday accepts full names ("Monday"), three-letter prefixes ("mon"),
// and digit strings ("1"), all case-insensitive.
func ParseWeekday(s string) (Weekday, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("weekday cannot be empty")
	}

	if n, err := strconv.Atoi(trimmed); err == nil {
		w := Weekday(n)
		if !w.Valid() {
			return 0, fmt.Errorf("weekday out of range 0..6: %d", n)
		}
		return w, nil
	}

	lowered := strings.ToLower(trimmed)
	for i, name := range weekdayNames {
		ln := strings.ToLower(name)
		if lowered == ln || (len(lowered) == 3 && strings.HasPrefix(ln, lowered)) {
			return Weekday(i), nil
		}
	}

	return 0, fmt.Errorf("unrecognized weekday: %q", s)
}
