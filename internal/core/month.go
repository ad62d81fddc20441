package core

import (
	"errors"
	"fmt"
	"time"
)

const (
	MonthLayout = "2006-01"
	DateLayout  = "2006-01-02"
)

var ErrInvalidMonth = errors.New("invalid month")

// MonthOf formats t as a zero-padded YYYY-MM cursor. Month scoping is plain
// string-prefix matching, so every producer of a cursor must go through here.
func MonthOf(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// ParseMonth parses a zero-padded YYYY-MM cursor into the first day of that
// month, UTC.
func ParseMonth(month string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, month)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrInvalidMonth, month, err)
	}
	return t, nil
}

// ShiftMonth moves the cursor by delta calendar months. The cursor is
// normalised to day 1 before shifting so the day of month never overflows.
func ShiftMonth(month string, delta int) (string, error) {
	t, err := ParseMonth(month)
	if err != nil {
		return "", err
	}
	return MonthOf(t.AddDate(0, delta, 0)), nil
}

func NextMonth(month string) (string, error) {
	return ShiftMonth(month, 1)
}

func PrevMonth(month string) (string, error) {
	return ShiftMonth(month, -1)
}

// ParseDate parses a YYYY-MM-DD date string, UTC.
func ParseDate(date string) (time.Time, error) {
	return time.Parse(DateLayout, date)
}

// FormatDate is the inverse of ParseDate.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
