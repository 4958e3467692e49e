package calendar

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func newTestMaterializer() (*Materializer, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewMaterializer(zerolog.New(&buf)), &buf
}

func TestMonth_Completeness(t *testing.T) {
	m, _ := newTestMaterializer()
	rep := uuid.New()

	tests := []struct {
		year  int
		month time.Month
		days  int
		lead  int
	}{
		{2025, time.March, 31, 6},    // Saturday
		{2025, time.April, 30, 2},    // Tuesday
		{2025, time.February, 28, 6}, // Saturday
		{2024, time.February, 29, 4}, // Thursday
		{2026, time.February, 28, 0}, // Sunday
	}
	for _, tt := range tests {
		v := m.Month(rep, tt.year, tt.month, nil, day(2000, 1, 1))
		if v.DaysInMonth != tt.days || len(v.Cells()) != tt.days {
			t.Errorf("%d-%02d: expected %d cells, got %d", tt.year, tt.month, tt.days, len(v.Cells()))
		}
		if v.FirstWeekday != tt.lead {
			t.Errorf("%d-%02d: expected %d placeholders, got %d", tt.year, tt.month, tt.lead, v.FirstWeekday)
		}
		for i := 0; i < v.FirstWeekday; i++ {
			if v.Days[i] != nil {
				t.Errorf("%d-%02d: placeholder %d is not nil", tt.year, tt.month, i)
			}
		}
		for i, c := range v.Cells() {
			if c.Day != i+1 {
				t.Errorf("cell %d has day %d", i, c.Day)
			}
			if c.Events == nil {
				t.Errorf("cell %d: events must be an empty list", i)
			}
		}
	}
}

func TestMonth_ScenarioSingleEvent(t *testing.T) {
	m, _ := newTestMaterializer()
	rep := uuid.New()
	ev := singleEvent(day(2025, 3, 10))
	ev.RepresentativeID = rep
	events := []*Event{ev}

	march := m.Month(rep, 2025, time.March, events, day(2025, 3, 1))
	for _, c := range march.Cells() {
		if c.Day == 10 {
			if len(c.Events) != 1 {
				t.Fatalf("expected one occurrence on March 10, got %d", len(c.Events))
			}
			if c.Events[0].IsMultiDay || c.Events[0].EventID != ev.ID {
				t.Errorf("unexpected annotation %+v", c.Events[0])
			}
			continue
		}
		if len(c.Events) != 0 {
			t.Errorf("unexpected occurrences on %s", c.Date)
		}
	}

	april := m.Month(rep, 2025, time.April, events, day(2025, 3, 1))
	for _, c := range april.Cells() {
		if len(c.Events) != 0 {
			t.Errorf("April %d should be empty", c.Day)
		}
	}
	if april.Summary.Events != 0 {
		t.Errorf("expected empty April summary, got %+v", april.Summary)
	}
}

func TestMonth_ScenarioSpan(t *testing.T) {
	m, _ := newTestMaterializer()
	rep := uuid.New()
	ev := spanEvent(day(2025, 3, 28), day(2025, 4, 2))
	events := []*Event{ev}

	march := m.Month(rep, 2025, time.March, events, day(2025, 3, 1)).Cells()
	for d := 28; d <= 31; d++ {
		evs := march[d-1].Events
		if len(evs) != 1 {
			t.Fatalf("March %d: expected one occurrence, got %d", d, len(evs))
		}
		if !evs[0].IsMultiDay || evs[0].IsFirstDay != (d == 28) || evs[0].IsLastDay {
			t.Errorf("March %d: unexpected flags %+v", d, evs[0])
		}
	}

	april := m.Month(rep, 2025, time.April, events, day(2025, 3, 1)).Cells()
	if got := april[0].Events; len(got) != 1 || got[0].IsFirstDay || got[0].IsLastDay {
		t.Errorf("April 1 should be continuing: %+v", got)
	}
	if got := april[1].Events; len(got) != 1 || !got[0].IsLastDay {
		t.Errorf("April 2 should be the last day: %+v", got)
	}
	if len(april[2].Events) != 0 {
		t.Error("April 3 should be empty")
	}
}

func TestMonth_IsToday(t *testing.T) {
	m, _ := newTestMaterializer()
	loc := time.FixedZone("UTC-5", -5*3600)
	// 2025-03-15 02:00 UTC is still March 14 in UTC-5
	today := time.Date(2025, 3, 15, 2, 0, 0, 0, time.UTC).In(loc)

	v := m.Month(uuid.New(), 2025, time.March, nil, today)
	for _, c := range v.Cells() {
		if c.IsToday != (c.Day == 14) {
			t.Errorf("day %d: is_today = %v", c.Day, c.IsToday)
		}
	}

	other := m.Month(uuid.New(), 2025, time.April, nil, today)
	for _, c := range other.Cells() {
		if c.IsToday {
			t.Errorf("April %d flagged today", c.Day)
		}
	}
}

func TestMonth_OverlapsAreKeptInOrder(t *testing.T) {
	m, _ := newTestMaterializer()
	a := singleEvent(day(2025, 5, 6))
	a.Title = "first"
	b := spanEvent(day(2025, 5, 5), day(2025, 5, 7))
	b.Title = "second"
	c := recurringEvent(day(2025, 4, 29), PatternWeekly)
	c.Title = "third"
	c.EventType = TypeCall

	v := m.Month(uuid.New(), 2025, time.May, []*Event{a, b, c}, day(2025, 5, 1))
	cell := v.Cells()[5]
	var titles []string
	for _, e := range cell.Events {
		titles = append(titles, e.Title)
	}
	if strings.Join(titles, ",") != "first,second,third" {
		t.Errorf("unexpected May 6 order: %v", titles)
	}

	s := v.Summary
	if s.Events != 3 {
		t.Errorf("expected 3 distinct events, got %d", s.Events)
	}
	// a: 1, b: 3, c: May 6, 13, 20, 27
	if s.Occurrences != 8 {
		t.Errorf("expected 8 occurrences, got %d", s.Occurrences)
	}
	if s.ByType[TypeMeeting] != 2 || s.ByType[TypeCall] != 1 {
		t.Errorf("unexpected by_type %v", s.ByType)
	}
	if s.ByStatus[StatusScheduled] != 3 {
		t.Errorf("unexpected by_status %v", s.ByStatus)
	}
}

func TestMonth_Idempotent(t *testing.T) {
	m, _ := newTestMaterializer()
	rep := uuid.New()
	events := []*Event{
		singleEvent(day(2025, 3, 10)),
		spanEvent(day(2025, 2, 25), day(2025, 3, 3)),
		recurringEvent(day(2024, 1, 31), PatternMonthly),
		recurringEvent(day(2025, 3, 1), PatternDaily),
	}
	today := day(2025, 3, 12)

	first := m.Month(rep, 2025, time.March, events, today)
	second := m.Month(rep, 2025, time.March, events, today)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("materializing twice produced different views")
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if !bytes.Equal(a, b) {
		t.Error("JSON output differs between runs")
	}
}

func TestMonth_AnomalyIsLogged(t *testing.T) {
	m, buf := newTestMaterializer()
	bad := recurringEvent(day(2025, 3, 10), "yearly")

	v := m.Month(uuid.New(), 2025, time.March, []*Event{bad}, day(2025, 3, 1))
	if len(v.Cells()[9].Events) != 1 {
		t.Fatal("anomalous event should render once on event_date")
	}
	out := buf.String()
	if !strings.Contains(out, bad.ID.String()) || !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("expected warn log with event id, got %s", out)
	}
}

func TestMonth_JSONPlaceholders(t *testing.T) {
	m, _ := newTestMaterializer()
	v := m.Month(uuid.New(), 2025, time.April, nil, day(2025, 4, 1))

	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		MonthName string            `json:"month_name"`
		Days      []json.RawMessage `json:"days"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.MonthName != "April" {
		t.Errorf("expected April, got %s", decoded.MonthName)
	}
	if len(decoded.Days) != 32 {
		t.Fatalf("expected 2 placeholders and 30 days, got %d", len(decoded.Days))
	}
	if string(decoded.Days[0]) != "null" || string(decoded.Days[1]) != "null" {
		t.Errorf("expected null placeholders, got %s %s", decoded.Days[0], decoded.Days[1])
	}
}

func TestUpcoming_Ordering(t *testing.T) {
	m, _ := newTestMaterializer()
	late := singleEvent(day(2025, 3, 11))
	late.StartTime = strPtr("15:00")
	late.Title = "late"
	early := singleEvent(day(2025, 3, 11))
	early.StartTime = strPtr("09:30")
	early.Title = "early"
	allDay := singleEvent(day(2025, 3, 11))
	allDay.Title = "all-day"
	daily := recurringEvent(day(2025, 3, 1), PatternDaily)
	daily.StartTime = strPtr("08:00")
	daily.Title = "standup"

	got := m.Upcoming([]*Event{late, early, allDay, daily}, DaysWindow(day(2025, 3, 10), 2))

	var order []string
	for _, o := range got {
		order = append(order, o.Date+" "+o.Title)
	}
	want := []string{
		"2025-03-10 standup",
		"2025-03-11 all-day",
		"2025-03-11 standup",
		"2025-03-11 early",
		"2025-03-11 late",
	}
	if strings.Join(order, "|") != strings.Join(want, "|") {
		t.Errorf("unexpected order:\n got %v\nwant %v", order, want)
	}
}
