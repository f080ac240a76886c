// Package report keeps the weekly ledger of transferred items: it rotates the
// ledger when the week rolls over, classifies and prices every item, and
// renders the ledger as a fixed-width text table.
package report

import (
	"time"

	"github.com/Fantasim/looter/internal/config"
)

// WeeklyPeriod returns the reporting week containing now. Weeks start at
// midnight on the anchor weekday in now's location and span 7 calendar days.
func WeeklyPeriod(now time.Time) (start, end time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	diff := (int(midnight.Weekday()) - int(config.ReportAnchorWeekday) + 7) % 7

	start = midnight.AddDate(0, 0, -diff)
	end = start.AddDate(0, 0, 7)
	return start, end
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

func formatArchiveDate(t time.Time) string {
	return t.Format("02.01")
}
