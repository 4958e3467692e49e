package calendar

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
)

// Window is a closed range of calendar dates.
type Window struct {
	Start time.Time
	End   time.Time
}

func NewWindow(start, end time.Time) Window {
	return Window{Start: dateOf(start), End: dateOf(end)}
}

func MonthWindow(year int, month time.Month) Window {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: first, End: first.AddDate(0, 1, -1)}
}

// DaysWindow covers n days starting at from.
func DaysWindow(from time.Time, n int) Window {
	start := dateOf(from)
	if n < 1 {
		n = 1
	}
	return Window{Start: start, End: start.AddDate(0, 0, n-1)}
}

func (w Window) Contains(d time.Time) bool {
	d = dateOf(d)
	return !d.Before(w.Start) && !d.After(w.End)
}

func (w Window) empty() bool { return w.End.Before(w.Start) }

// Occurrence is one day on which an event is active.
type Occurrence struct {
	Date       time.Time
	IsMultiDay bool
	IsFirstDay bool
	IsLastDay  bool
}

// DataAnomaly describes a stored event whose fields cannot be expanded as
// written. Expansion still yields a single occurrence on event_date.
type DataAnomaly struct {
	EventID uuid.UUID
	Reason  string
}

func (a *DataAnomaly) Error() string {
	return fmt.Sprintf("event %s: %s", a.EventID, a.Reason)
}

// Expand returns the dates inside w on which ev is active, in ascending
// order. Recurring events repeat from event_date and ignore end_date;
// non-recurring events with end_date after event_date cover every day of
// the span. Malformed records degrade to a single occurrence and report a
// DataAnomaly.
func Expand(ev *Event, w Window) ([]Occurrence, *DataAnomaly) {
	w = NewWindow(w.Start, w.End)
	if w.empty() {
		return nil, nil
	}
	start := dateOf(ev.EventDate)

	if ev.IsRecurring {
		pattern := strVal(ev.RecurringPattern)
		if !validPattern(pattern) {
			return single(start, w), &DataAnomaly{
				EventID: ev.ID,
				Reason:  fmt.Sprintf("unknown recurring pattern %q", pattern),
			}
		}
		return recurring(start, pattern, w), nil
	}

	if ev.EndDate != nil {
		end := dateOf(*ev.EndDate)
		if end.Before(start) {
			return single(start, w), &DataAnomaly{
				EventID: ev.ID,
				Reason: fmt.Sprintf("end_date %s is before event_date %s",
					end.Format(dateLayout), start.Format(dateLayout)),
			}
		}
		if end.After(start) {
			return span(start, end, w), nil
		}
	}

	return single(start, w), nil
}

func validPattern(p string) bool {
	switch p {
	case PatternDaily, PatternWeekly, PatternMonthly:
		return true
	}
	return false
}

func single(d time.Time, w Window) []Occurrence {
	if !w.Contains(d) {
		return nil
	}
	return []Occurrence{{Date: d}}
}

func span(start, end time.Time, w Window) []Occurrence {
	from, to := start, end
	if from.Before(w.Start) {
		from = w.Start
	}
	if to.After(w.End) {
		to = w.End
	}
	var out []Occurrence
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, Occurrence{
			Date:       d,
			IsMultiDay: true,
			IsFirstDay: d.Equal(start),
			IsLastDay:  d.Equal(end),
		})
	}
	return out
}

func recurring(anchor time.Time, pattern string, w Window) []Occurrence {
	if anchor.After(w.End) {
		return nil
	}
	first := firstOnOrAfter(anchor, pattern, w.Start)
	if first.After(w.End) {
		return nil
	}

	opt := rrule.ROption{
		Dtstart:  first,
		Interval: 1,
		Until:    w.End,
	}
	switch pattern {
	case PatternDaily:
		opt.Freq = rrule.DAILY
	case PatternWeekly:
		opt.Freq = rrule.WEEKLY
	case PatternMonthly:
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday, opt.Bysetpos = monthlyByDay(anchor.Day())
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return []Occurrence{{Date: first}}
	}

	dates := r.All()
	out := make([]Occurrence, 0, len(dates))
	for _, d := range dates {
		out = append(out, Occurrence{Date: dateOf(d)})
	}
	return out
}

// monthlyByDay keeps a monthly series on the anchor's day of month,
// falling back to the last day of shorter months: BYMONTHDAY=28..d with
// BYSETPOS=-1 picks the latest of those days the month actually has.
func monthlyByDay(day int) (bymonthday, bysetpos []int) {
	if day <= 28 {
		return []int{day}, nil
	}
	for d := 28; d <= day; d++ {
		bymonthday = append(bymonthday, d)
	}
	return bymonthday, []int{-1}
}

// firstOnOrAfter computes the first occurrence of the series anchored at
// anchor that is not before from, in constant time.
func firstOnOrAfter(anchor time.Time, pattern string, from time.Time) time.Time {
	if !anchor.Before(from) {
		return anchor
	}
	switch pattern {
	case PatternDaily:
		return from
	case PatternWeekly:
		days := daysBetween(anchor, from)
		weeks := (days + 6) / 7
		return anchor.AddDate(0, 0, weeks*7)
	default:
		months := (from.Year()-anchor.Year())*12 + int(from.Month()) - int(anchor.Month())
		d := nthMonthly(anchor, months)
		if d.Before(from) {
			d = nthMonthly(anchor, months+1)
		}
		return d
	}
}

// nthMonthly returns the n-th monthly occurrence after anchor, always
// derived from the anchor so clamped months do not drift the series.
func nthMonthly(anchor time.Time, n int) time.Time {
	first := time.Date(anchor.Year(), anchor.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	day := anchor.Day()
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// daysBetween counts whole days between two UTC midnights. Unix seconds
// are used instead of Sub, whose Duration saturates at about 292 years.
func daysBetween(a, b time.Time) int {
	return int((b.Unix() - a.Unix()) / 86400)
}
