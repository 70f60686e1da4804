package timesheet

import (
	"time"
)

// =============================================================================
// DATE - Calendar day, UTC, no time-of-day component
// =============================================================================

// Date is a calendar day. The wrapped time is always midnight UTC so that
// Date values compare cleanly and can be used in struct keys.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary time to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date { return DateOf(time.Now().UTC()) }

// ParseDate parses an ISO date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }
func (d Date) IsZero() bool           { return d.t.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) Time() time.Time       { return d.t }
func (d Date) String() string        { return d.t.Format("2006-01-02") }

// =============================================================================
// WEEK - Sunday-to-Saturday calendar week
// =============================================================================

// Week is a Sunday-anchored calendar week. End is always Start + 6 days.
type Week struct {
	Start Date
	End   Date
}

// WeekOf returns the Sunday-to-Saturday week containing d.
// Sunday is weekday 0, so the start is d minus its weekday offset.
func WeekOf(d Date) Week {
	start := d.AddDays(-int(d.Weekday()))
	return Week{Start: start, End: start.AddDays(6)}
}

// Days returns the seven days of the week in date order.
func (w Week) Days() []Date {
	days := make([]Date, 7)
	for i := range days {
		days[i] = w.Start.AddDays(i)
	}
	return days
}

// Contains reports whether d falls within [Start, End].
func (w Week) Contains(d Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

func (w Week) String() string {
	return w.Start.String() + ".." + w.End.String()
}

// =============================================================================
// WEEK OPTIONS - Rolling historical window for week selection
// =============================================================================

// DefaultWeekWindow is the number of historical weeks offered for selection.
const DefaultWeekWindow = 52

// WeekOptions produces the selectable weeks for a reference date, most
// recent first. The first option is the week containing the reference date;
// each subsequent option steps back one week. Pure function of its inputs.
func WeekOptions(reference Date, window int) []Week {
	if window <= 0 {
		window = DefaultWeekWindow
	}
	current := WeekOf(reference)
	weeks := make([]Week, window)
	for i := 0; i < window; i++ {
		weeks[i] = Week{
			Start: current.Start.AddDays(-7 * i),
			End:   current.End.AddDays(-7 * i),
		}
	}
	return weeks
}
