package report

import "time"

// Period selects the aggregation window of a report.
type Period string

const (
	PeriodDay  Period = "day"
	PeriodWeek Period = "week"
)

// Window returns the [start, now] aggregation range for the period, computed
// from wall-clock now in its location. Day runs from midnight; week from
// Monday 00:00. A record analyzed at 23:59 belongs to that day's report and
// not the next morning's.
func Window(period Period, now time.Time) (start, end time.Time) {
	switch period {
	case PeriodWeek:
		// time.Weekday counts Sunday as 0; shift so Monday starts the week.
		daysSinceMonday := (int(now.Weekday()) + 6) % 7
		monday := now.AddDate(0, 0, -daysSinceMonday)
		start = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, now.Location())
	default:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}
	return start, now
}
