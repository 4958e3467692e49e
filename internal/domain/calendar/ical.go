package calendar

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

const icsProductID = "-//medrep//representative calendar//EN"

// ExportICS renders the representative's events touching the month as an
// iCalendar feed. Recurring events carry an RRULE instead of expanded
// instances; events without a start time are all-day.
func (s *Service) ExportICS(ctx context.Context, repID uuid.UUID, year, month int) ([]byte, error) {
	year, month, err := resolveMonth(s.Today(), year, month)
	if err != nil {
		return nil, err
	}
	if err := s.requireRepresentative(ctx, repID); err != nil {
		return nil, err
	}

	w := MonthWindow(year, time.Month(month))
	events, err := s.events.ListForRepresentative(ctx, repID, w)
	if err != nil {
		return nil, err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetName(fmt.Sprintf("Representative %s %04d-%02d", repID, year, month))
	cal.SetTimezoneId(s.loc.String())

	for _, ev := range events {
		// recurring rows are returned regardless of window
		if occs, _ := Expand(ev, w); len(occs) == 0 {
			continue
		}
		s.addVEvent(cal, ev)
	}
	return []byte(cal.Serialize()), nil
}

func (s *Service) addVEvent(cal *ics.Calendar, ev *Event) {
	ve := cal.AddEvent(ev.ID.String() + "@medrep")
	ve.SetDtStampTime(ev.UpdatedAt)
	ve.SetCreatedTime(ev.CreatedAt)
	ve.SetModifiedAt(ev.UpdatedAt)
	ve.SetSummary(ev.Title)
	ve.AddProperty(ics.ComponentPropertyCategories, strings.ToUpper(ev.EventType))
	ve.AddProperty(ics.ComponentPropertyStatus, icsStatus(ev.Status))

	var desc []string
	if ev.Description != nil {
		desc = append(desc, *ev.Description)
	}
	if ev.CustomerName != nil {
		desc = append(desc, "Customer: "+*ev.CustomerName)
	}
	if ev.Notes != nil {
		desc = append(desc, "Notes: "+*ev.Notes)
	}
	if len(desc) > 0 {
		ve.SetDescription(strings.Join(desc, "\n"))
	}
	if ev.Location != nil {
		ve.SetLocation(*ev.Location)
	}

	start := dateOf(ev.EventDate)
	last := start
	if ev.IsMultiDay() {
		last = dateOf(*ev.EndDate)
	}

	if ev.StartTime == nil {
		ve.SetAllDayStartAt(start)
		// DTEND is exclusive for all-day events
		ve.SetAllDayEndAt(last.AddDate(0, 0, 1))
	} else {
		begin := s.at(start, *ev.StartTime)
		end := begin.Add(time.Hour)
		if ev.EndTime != nil {
			if t := s.at(last, *ev.EndTime); t.After(begin) {
				end = t
			}
		}
		ve.SetStartAt(begin)
		ve.SetEndAt(end)
	}

	if rule := rruleFor(ev); rule != "" {
		ve.AddProperty(ics.ComponentPropertyRrule, rule)
	}
}

// at combines a calendar date with an HH:MM clock in the service zone.
func (s *Service) at(date time.Time, clock string) time.Time {
	t, err := time.Parse(timeLayout, clock)
	if err != nil {
		return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.loc)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, s.loc)
}

func icsStatus(status string) string {
	if status == StatusCancelled {
		return string(ics.ObjectStatusCancelled)
	}
	return string(ics.ObjectStatusConfirmed)
}

// rruleFor mirrors the expansion rules, including the month-end fallback.
func rruleFor(ev *Event) string {
	if !ev.IsRecurring {
		return ""
	}
	switch strVal(ev.RecurringPattern) {
	case PatternDaily:
		return "FREQ=DAILY"
	case PatternWeekly:
		return "FREQ=WEEKLY"
	case PatternMonthly:
		days, setpos := monthlyByDay(ev.EventDate.Day())
		parts := make([]string, len(days))
		for i, d := range days {
			parts[i] = strconv.Itoa(d)
		}
		rule := "FREQ=MONTHLY;BYMONTHDAY=" + strings.Join(parts, ",")
		if len(setpos) > 0 {
			rule += ";BYSETPOS=-1"
		}
		return rule
	}
	return ""
}
