package report

import (
	"testing"
	"time"
)

func TestWeeklyPeriod(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)

	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
	}{
		{
			name:      "anchor day morning",
			now:       time.Date(2024, 1, 3, 10, 30, 0, 0, loc),
			wantStart: time.Date(2024, 1, 3, 0, 0, 0, 0, loc),
		},
		{
			name:      "anchor day midnight",
			now:       time.Date(2024, 1, 3, 0, 0, 0, 0, loc),
			wantStart: time.Date(2024, 1, 3, 0, 0, 0, 0, loc),
		},
		{
			name:      "day before anchor",
			now:       time.Date(2024, 1, 2, 23, 59, 59, 0, loc),
			wantStart: time.Date(2023, 12, 27, 0, 0, 0, 0, loc),
		},
		{
			name:      "last day of window",
			now:       time.Date(2024, 1, 9, 12, 0, 0, 0, loc),
			wantStart: time.Date(2024, 1, 3, 0, 0, 0, 0, loc),
		},
		{
			name:      "sunday",
			now:       time.Date(2024, 3, 10, 8, 0, 0, 0, loc),
			wantStart: time.Date(2024, 3, 6, 0, 0, 0, 0, loc),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			start, end := WeeklyPeriod(tc.now)
			if !start.Equal(tc.wantStart) {
				t.Errorf("start = %v, want %v", start, tc.wantStart)
			}
			if want := tc.wantStart.AddDate(0, 0, 7); !end.Equal(want) {
				t.Errorf("end = %v, want %v", end, want)
			}
		})
	}
}

func TestWeeklyPeriod_Properties(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// Walk two weeks in uneven steps so every weekday and hour is visited.
	for i := 0; i < 14*24; i++ {
		now := base.Add(time.Duration(i)*time.Hour + time.Duration(i%60)*time.Minute)
		start, end := WeeklyPeriod(now)

		if now.Before(start) || !now.Before(end) {
			t.Fatalf("now %v outside [%v, %v)", now, start, end)
		}
		if end.Sub(start) != 7*24*time.Hour {
			t.Fatalf("window length = %v for now %v", end.Sub(start), now)
		}
		if start.Weekday() != time.Wednesday {
			t.Fatalf("start %v is a %v", start, start.Weekday())
		}
		if start.Hour() != 0 || start.Minute() != 0 || start.Second() != 0 {
			t.Fatalf("start %v is not midnight", start)
		}
	}
}

func TestFormatDates(t *testing.T) {
	d := time.Date(2024, 2, 7, 15, 0, 0, 0, time.UTC)
	if got := formatDate(d); got != "07/02/2024" {
		t.Errorf("formatDate = %q", got)
	}
	if got := formatArchiveDate(d); got != "07.02" {
		t.Errorf("formatArchiveDate = %q", got)
	}
}
