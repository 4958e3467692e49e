package calendar

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DayEvent annotates one occurrence of an event on one day.
type DayEvent struct {
	EventID      uuid.UUID `json:"event_id"`
	EventType    string    `json:"event_type"`
	Title        string    `json:"title"`
	StartTime    *string   `json:"start_time,omitempty"`
	CustomerName *string   `json:"customer_name,omitempty"`
	Status       string    `json:"status"`
	IsMultiDay   bool      `json:"is_multi_day"`
	IsFirstDay   bool      `json:"is_first_day"`
	IsLastDay    bool      `json:"is_last_day"`
}

type DayCell struct {
	Date    string     `json:"date"`
	Day     int        `json:"day"`
	IsToday bool       `json:"is_today"`
	Events  []DayEvent `json:"events"`
}

// Summary counts distinct events and occurrences visible in a month.
type Summary struct {
	Events      int            `json:"events"`
	Occurrences int            `json:"occurrences"`
	ByType      map[string]int `json:"by_type"`
	ByStatus    map[string]int `json:"by_status"`
}

// MonthView is the calendar grid of one representative for one month.
// Days starts with FirstWeekday nil placeholders (0 = Sunday) followed by
// one cell per day of the month.
type MonthView struct {
	RepresentativeID uuid.UUID  `json:"representative_id"`
	Year             int        `json:"year"`
	Month            int        `json:"month"`
	MonthName        string     `json:"month_name"`
	FirstWeekday     int        `json:"first_weekday"`
	DaysInMonth      int        `json:"days_in_month"`
	Days             []*DayCell `json:"days"`
	Summary          Summary    `json:"summary"`
}

// Cells returns the day cells without the leading placeholders.
func (v *MonthView) Cells() []*DayCell {
	return v.Days[v.FirstWeekday:]
}

type UpcomingOccurrence struct {
	Date string `json:"date"`
	DayEvent
}

// Materializer turns fetched events into calendar views. It never fails:
// anomalies reported by Expand are logged and the event is rendered as a
// single occurrence.
type Materializer struct {
	logger zerolog.Logger
}

func NewMaterializer(logger zerolog.Logger) *Materializer {
	return &Materializer{logger: logger}
}

// Month builds the grid. today is compared by calendar date in its own
// location. Events keep the order they were given in within each cell.
func (m *Materializer) Month(repID uuid.UUID, year int, month time.Month, events []*Event, today time.Time) *MonthView {
	w := MonthWindow(year, month)
	n := daysIn(year, month)
	lead := int(w.Start.Weekday())
	todayDate := dateOf(today)

	view := &MonthView{
		RepresentativeID: repID,
		Year:             year,
		Month:            int(month),
		MonthName:        month.String(),
		FirstWeekday:     lead,
		DaysInMonth:      n,
		Days:             make([]*DayCell, lead, lead+n),
		Summary: Summary{
			ByType:   map[string]int{},
			ByStatus: map[string]int{},
		},
	}
	for i := 0; i < n; i++ {
		d := w.Start.AddDate(0, 0, i)
		view.Days = append(view.Days, &DayCell{
			Date:    d.Format(dateLayout),
			Day:     i + 1,
			IsToday: d.Equal(todayDate),
			Events:  []DayEvent{},
		})
	}
	cells := view.Cells()

	for _, ev := range events {
		occs := m.expand(ev, w)
		if len(occs) == 0 {
			continue
		}
		for _, o := range occs {
			cell := cells[o.Date.Day()-1]
			cell.Events = append(cell.Events, annotate(ev, o))
		}
		view.Summary.Events++
		view.Summary.Occurrences += len(occs)
		view.Summary.ByType[ev.EventType]++
		view.Summary.ByStatus[ev.Status]++
	}
	return view
}

// Upcoming lists occurrences inside w in chronological order: by date,
// then start time with all-day entries first, then input order.
func (m *Materializer) Upcoming(events []*Event, w Window) []UpcomingOccurrence {
	type item struct {
		date  time.Time
		start string
		seq   int
		occ   UpcomingOccurrence
	}
	var items []item
	for _, ev := range events {
		for _, o := range m.expand(ev, w) {
			items = append(items, item{
				date:  o.Date,
				start: strVal(ev.StartTime),
				seq:   len(items),
				occ:   UpcomingOccurrence{Date: o.Date.Format(dateLayout), DayEvent: annotate(ev, o)},
			})
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].date.Equal(items[j].date) {
			return items[i].date.Before(items[j].date)
		}
		if items[i].start != items[j].start {
			return items[i].start < items[j].start
		}
		return items[i].seq < items[j].seq
	})

	out := make([]UpcomingOccurrence, len(items))
	for i := range items {
		out[i] = items[i].occ
	}
	return out
}

func (m *Materializer) expand(ev *Event, w Window) []Occurrence {
	occs, anomaly := Expand(ev, w)
	if anomaly != nil {
		m.logger.Warn().
			Str("event_id", anomaly.EventID.String()).
			Str("representative_id", ev.RepresentativeID.String()).
			Str("reason", anomaly.Reason).
			Msg("calendar: rendering event as single occurrence")
	}
	return occs
}

func annotate(ev *Event, o Occurrence) DayEvent {
	return DayEvent{
		EventID:      ev.ID,
		EventType:    ev.EventType,
		Title:        ev.Title,
		StartTime:    ev.StartTime,
		CustomerName: ev.CustomerName,
		Status:       ev.Status,
		IsMultiDay:   o.IsMultiDay,
		IsFirstDay:   o.IsFirstDay,
		IsLastDay:    o.IsLastDay,
	}
}
