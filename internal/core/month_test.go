package core

import (
	"errors"
	"testing"
	"time"
)

func TestMonthOfZeroPads(t *testing.T) {
	cases := []struct {
		t    time.Time
		want string
	}{
		{time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "2024-01"},
		{time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC), "2024-12"},
		{time.Date(987, 3, 1, 0, 0, 0, 0, time.UTC), "0987-03"},
	}
	for _, tc := range cases {
		if got := MonthOf(tc.t); got != tc.want {
			t.Fatalf("MonthOf(%v) = %q, want %q", tc.t, got, tc.want)
		}
	}
}

func TestShiftMonth(t *testing.T) {
	tests := []struct {
		name  string
		month string
		delta int
		want  string
	}{
		{"next within year", "2024-03", 1, "2024-04"},
		{"next across year", "2024-12", 1, "2025-01"},
		{"prev across year", "2024-01", -1, "2023-12"},
		{"from 31-day month", "2024-01", 1, "2024-02"},
		{"into short month", "2023-03", -1, "2023-02"},
		{"zero delta", "2024-07", 0, "2024-07"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ShiftMonth(tt.month, tt.delta)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ShiftMonth(%q, %d) = %q, want %q", tt.month, tt.delta, got, tt.want)
			}
		})
	}
}

func TestNextMonthTwelveTimesIsOneYearLater(t *testing.T) {
	for year := 1999; year <= 2030; year++ {
		for m := 1; m <= 12; m++ {
			start := MonthOf(time.Date(year, time.Month(m), 1, 0, 0, 0, 0, time.UTC))
			cur := start
			for i := 0; i < 12; i++ {
				next, err := NextMonth(cur)
				if err != nil {
					t.Fatalf("NextMonth(%q): %v", cur, err)
				}
				cur = next
			}
			want := MonthOf(time.Date(year+1, time.Month(m), 1, 0, 0, 0, 0, time.UTC))
			if cur != want {
				t.Fatalf("12 x next from %s = %s, want %s", start, cur, want)
			}
			back := cur
			for i := 0; i < 12; i++ {
				back, _ = PrevMonth(back)
			}
			if back != start {
				t.Fatalf("12 x prev from %s = %s, want %s", cur, back, start)
			}
		}
	}
}

func TestParseMonthRejectsUnpadded(t *testing.T) {
	for _, in := range []string{"2024-1", "2024/01", "", "2024-13", "24-01"} {
		if _, err := ParseMonth(in); !errors.Is(err, ErrInvalidMonth) {
			t.Errorf("ParseMonth(%q) err = %v, want ErrInvalidMonth", in, err)
		}
	}
}
