// Package window plans the monthly date ranges an ingestion run fetches.
package window

import "time"

// ParamLayout is the date format the AMFI portal expects (e.g. 01-Nov-2023).
const ParamLayout = "02-Jan-2006"

// Window is one bounded date range processed as a single ingestion unit.
type Window struct {
	From time.Time
	To   time.Time
}

// FromParam returns the window start formatted for the report endpoint.
func (w Window) FromParam() string { return w.From.Format(ParamLayout) }

// ToParam returns the window end formatted for the report endpoint.
func (w Window) ToParam() string { return w.To.Format(ParamLayout) }

// Plan produces count non-overlapping windows starting at start. Each window
// ends one calendar month after it begins, minus a day; both ends are clamped
// to now so no window reaches into the future. Once the run catches up to
// now, the remaining windows collapse to a single day.
func Plan(start time.Time, count int, now time.Time) []Window {
	today := dateOnly(now)
	from := clamp(dateOnly(start), today)

	windows := make([]Window, 0, count)
	for range count {
		to := clamp(from.AddDate(0, 1, 0).AddDate(0, 0, -1), today)
		windows = append(windows, Window{From: from, To: to})
		from = clamp(from.AddDate(0, 1, 0), today)
	}
	return windows
}

func clamp(d, latest time.Time) time.Time {
	if d.After(latest) {
		return latest
	}
	return d
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
