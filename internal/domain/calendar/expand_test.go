package calendar

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dates(occs []Occurrence) []string {
	out := make([]string, len(occs))
	for i, o := range occs {
		out[i] = o.Date.Format(dateLayout)
	}
	return out
}

func sameDates(t *testing.T, got []Occurrence, want ...string) {
	t.Helper()
	g := dates(got)
	if len(g) != len(want) {
		t.Fatalf("expected %d occurrences %v, got %d %v", len(want), want, len(g), g)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("occurrence %d: expected %s, got %s (all: %v)", i, want[i], g[i], g)
		}
	}
}

func singleEvent(d time.Time) *Event {
	return &Event{ID: uuid.New(), Title: "Visit", EventType: TypeMeeting, Status: StatusScheduled, EventDate: d}
}

func spanEvent(start, end time.Time) *Event {
	ev := singleEvent(start)
	ev.EndDate = &end
	return ev
}

func recurringEvent(anchor time.Time, pattern string) *Event {
	ev := singleEvent(anchor)
	ev.IsRecurring = true
	ev.RecurringPattern = strPtr(pattern)
	return ev
}

func TestExpand_SingleDay(t *testing.T) {
	ev := singleEvent(day(2025, 3, 10))

	tests := []struct {
		name string
		w    Window
		want []string
	}{
		{"inside month", MonthWindow(2025, time.March), []string{"2025-03-10"}},
		{"other month", MonthWindow(2025, time.April), nil},
		{"window starts on date", NewWindow(day(2025, 3, 10), day(2025, 3, 20)), []string{"2025-03-10"}},
		{"window ends on date", NewWindow(day(2025, 3, 1), day(2025, 3, 10)), []string{"2025-03-10"}},
		{"window ends before", NewWindow(day(2025, 3, 1), day(2025, 3, 9)), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occs, anomaly := Expand(ev, tt.w)
			if anomaly != nil {
				t.Fatalf("unexpected anomaly: %v", anomaly)
			}
			sameDates(t, occs, tt.want...)
			for _, o := range occs {
				if o.IsMultiDay || o.IsFirstDay || o.IsLastDay {
					t.Errorf("single day occurrence flagged: %+v", o)
				}
			}
		})
	}
}

func TestExpand_EndEqualToStartIsSingleDay(t *testing.T) {
	ev := spanEvent(day(2025, 3, 10), day(2025, 3, 10))
	occs, anomaly := Expand(ev, MonthWindow(2025, time.March))
	if anomaly != nil {
		t.Fatalf("unexpected anomaly: %v", anomaly)
	}
	sameDates(t, occs, "2025-03-10")
	if occs[0].IsMultiDay {
		t.Error("expected single-day occurrence")
	}
}

func TestExpand_SpanAcrossMonths(t *testing.T) {
	ev := spanEvent(day(2025, 3, 28), day(2025, 4, 2))

	march, _ := Expand(ev, MonthWindow(2025, time.March))
	sameDates(t, march, "2025-03-28", "2025-03-29", "2025-03-30", "2025-03-31")
	for i, o := range march {
		if !o.IsMultiDay {
			t.Errorf("%s: expected multi day", o.Date.Format(dateLayout))
		}
		if o.IsFirstDay != (i == 0) {
			t.Errorf("%s: is_first_day = %v", o.Date.Format(dateLayout), o.IsFirstDay)
		}
		if o.IsLastDay {
			t.Errorf("%s: last day lies outside the window", o.Date.Format(dateLayout))
		}
	}

	april, _ := Expand(ev, MonthWindow(2025, time.April))
	sameDates(t, april, "2025-04-01", "2025-04-02")
	if april[0].IsFirstDay || april[0].IsLastDay {
		t.Errorf("April 1 should be continuing: %+v", april[0])
	}
	if !april[1].IsLastDay || april[1].IsFirstDay {
		t.Errorf("April 2 should be last day: %+v", april[1])
	}
}

func TestExpand_SpanEqualsIntersection(t *testing.T) {
	start, end := day(2024, 12, 20), day(2025, 2, 10)
	ev := spanEvent(start, end)

	for m := time.November; m <= time.December; m++ {
		checkSpan(t, ev, MonthWindow(2024, m), start, end)
	}
	for m := time.January; m <= time.March; m++ {
		checkSpan(t, ev, MonthWindow(2025, m), start, end)
	}
}

func checkSpan(t *testing.T, ev *Event, w Window, start, end time.Time) {
	t.Helper()
	occs, _ := Expand(ev, w)

	var want []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if w.Contains(d) {
			want = append(want, d.Format(dateLayout))
		}
	}
	sameDates(t, occs, want...)

	firsts, lasts := 0, 0
	for _, o := range occs {
		if o.IsFirstDay {
			firsts++
			if !o.Date.Equal(start) {
				t.Errorf("is_first_day on %s", o.Date.Format(dateLayout))
			}
		}
		if o.IsLastDay {
			lasts++
			if !o.Date.Equal(end) {
				t.Errorf("is_last_day on %s", o.Date.Format(dateLayout))
			}
		}
	}
	if w.Contains(start) != (firsts == 1) || firsts > 1 {
		t.Errorf("window %s: %d first-day flags", w.Start.Format(dateLayout), firsts)
	}
	if w.Contains(end) != (lasts == 1) || lasts > 1 {
		t.Errorf("window %s: %d last-day flags", w.Start.Format(dateLayout), lasts)
	}
}

func TestExpand_Daily(t *testing.T) {
	ev := recurringEvent(day(2025, 2, 26), PatternDaily)

	occs, anomaly := Expand(ev, NewWindow(day(2025, 2, 1), day(2025, 3, 2)))
	if anomaly != nil {
		t.Fatalf("unexpected anomaly: %v", anomaly)
	}
	sameDates(t, occs, "2025-02-26", "2025-02-27", "2025-02-28", "2025-03-01", "2025-03-02")
}

func TestExpand_DailyFullMonth(t *testing.T) {
	ev := recurringEvent(day(2020, 1, 1), PatternDaily)
	occs, _ := Expand(ev, MonthWindow(2024, time.February))
	if len(occs) != 29 {
		t.Fatalf("expected 29 occurrences in February 2024, got %d", len(occs))
	}
	if !occs[0].Date.Equal(day(2024, 2, 1)) || !occs[28].Date.Equal(day(2024, 2, 29)) {
		t.Errorf("unexpected bounds %v .. %v", occs[0].Date, occs[28].Date)
	}
}

func TestExpand_WeeklyKeepsWeekday(t *testing.T) {
	anchor := day(2025, 1, 7) // Tuesday
	ev := recurringEvent(anchor, PatternWeekly)

	for year := 2025; year <= 2026; year++ {
		for m := time.January; m <= time.December; m++ {
			occs, anomaly := Expand(ev, MonthWindow(year, m))
			if anomaly != nil {
				t.Fatalf("unexpected anomaly: %v", anomaly)
			}
			if len(occs) < 4 || len(occs) > 5 {
				t.Errorf("%d-%02d: expected 4 or 5 occurrences, got %d", year, m, len(occs))
			}
			for _, o := range occs {
				if o.Date.Weekday() != time.Tuesday {
					t.Errorf("%s is a %s", o.Date.Format(dateLayout), o.Date.Weekday())
				}
			}
		}
	}
}

func TestExpand_WeeklyPhaseFromAnchor(t *testing.T) {
	ev := recurringEvent(day(2025, 3, 5), PatternWeekly)
	occs, _ := Expand(ev, NewWindow(day(2025, 3, 13), day(2025, 4, 3)))
	sameDates(t, occs, "2025-03-19", "2025-03-26", "2025-04-02")
}

func TestExpand_MonthlyClampsWithoutDrift(t *testing.T) {
	ev := recurringEvent(day(2025, 1, 31), PatternMonthly)

	tests := []struct {
		year  int
		month time.Month
		want  string
	}{
		{2025, time.January, "2025-01-31"},
		{2025, time.February, "2025-02-28"},
		{2025, time.March, "2025-03-31"},
		{2025, time.April, "2025-04-30"},
		{2025, time.May, "2025-05-31"},
		{2028, time.February, "2028-02-29"},
	}
	for _, tt := range tests {
		occs, anomaly := Expand(ev, MonthWindow(tt.year, tt.month))
		if anomaly != nil {
			t.Fatalf("unexpected anomaly: %v", anomaly)
		}
		sameDates(t, occs, tt.want)
	}
}

func TestExpand_MonthlyMidMonth(t *testing.T) {
	ev := recurringEvent(day(2024, 11, 15), PatternMonthly)
	occs, _ := Expand(ev, NewWindow(day(2025, 1, 1), day(2025, 4, 30)))
	sameDates(t, occs, "2025-01-15", "2025-02-15", "2025-03-15", "2025-04-15")
}

func TestExpand_RecurringBeforeAnchor(t *testing.T) {
	ev := recurringEvent(day(2025, 6, 1), PatternDaily)
	occs, anomaly := Expand(ev, MonthWindow(2025, time.May))
	if anomaly != nil || len(occs) != 0 {
		t.Errorf("expected no occurrences before anchor, got %v %v", dates(occs), anomaly)
	}
}

func TestExpand_RecurringIgnoresEndDate(t *testing.T) {
	ev := recurringEvent(day(2025, 3, 3), PatternWeekly)
	end := day(2025, 3, 4)
	ev.EndDate = &end

	occs, _ := Expand(ev, MonthWindow(2025, time.March))
	sameDates(t, occs, "2025-03-03", "2025-03-10", "2025-03-17", "2025-03-24", "2025-03-31")
	for _, o := range occs {
		if o.IsMultiDay {
			t.Errorf("recurring occurrence flagged multi day: %+v", o)
		}
	}
}

func TestExpand_FarPastAnchor(t *testing.T) {
	tests := []struct {
		name    string
		anchor  time.Time
		pattern string
		want    int
	}{
		{"daily from year 1", day(1, 1, 1), PatternDaily, 31},
		{"weekly from 1900", day(1900, 1, 1), PatternWeekly, 0},
		{"monthly from 1800", day(1800, 5, 31), PatternMonthly, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := recurringEvent(tt.anchor, tt.pattern)
			occs, anomaly := Expand(ev, MonthWindow(2025, time.March))
			if anomaly != nil {
				t.Fatalf("unexpected anomaly: %v", anomaly)
			}
			if tt.want > 0 && len(occs) != tt.want {
				t.Errorf("expected %d occurrences, got %d", tt.want, len(occs))
			}
			if tt.pattern == PatternWeekly {
				for _, o := range occs {
					if o.Date.Weekday() != tt.anchor.Weekday() {
						t.Errorf("%s off phase", o.Date.Format(dateLayout))
					}
				}
				if len(occs) < 4 {
					t.Errorf("expected weekly occurrences, got %v", dates(occs))
				}
			}
			if tt.pattern == PatternMonthly && len(occs) == 1 && occs[0].Date.Day() != 31 {
				t.Errorf("expected March 31, got %s", occs[0].Date.Format(dateLayout))
			}
		})
	}
}

func TestExpand_Anomalies(t *testing.T) {
	bad := recurringEvent(day(2025, 3, 10), "fortnightly")
	occs, anomaly := Expand(bad, MonthWindow(2025, time.March))
	if anomaly == nil || anomaly.EventID != bad.ID {
		t.Fatalf("expected anomaly for unknown pattern, got %v", anomaly)
	}
	sameDates(t, occs, "2025-03-10")

	empty := singleEvent(day(2025, 3, 10))
	empty.IsRecurring = true
	if _, anomaly := Expand(empty, MonthWindow(2025, time.March)); anomaly == nil {
		t.Error("expected anomaly for recurring event without pattern")
	}

	backwards := spanEvent(day(2025, 3, 10), day(2025, 3, 5))
	occs, anomaly = Expand(backwards, MonthWindow(2025, time.March))
	if anomaly == nil {
		t.Fatal("expected anomaly for end_date before event_date")
	}
	sameDates(t, occs, "2025-03-10")
	if occs[0].IsMultiDay {
		t.Error("degraded event must be single day")
	}

}

func TestExpand_FirstDayOfYearOne(t *testing.T) {
	// 0001-01-01 is time.Time's zero value and still a real date.
	ev := singleEvent(day(1, 1, 1))
	occs, anomaly := Expand(ev, MonthWindow(1, time.January))
	if anomaly != nil {
		t.Fatalf("unexpected anomaly: %v", anomaly)
	}
	sameDates(t, occs, "0001-01-01")

	backwards := spanEvent(day(1, 1, 3), day(1, 1, 1))
	occs, anomaly = Expand(backwards, MonthWindow(1, time.January))
	if anomaly == nil {
		t.Fatal("expected anomaly for end_date before event_date")
	}
	sameDates(t, occs, "0001-01-03")
}

func TestExpand_LocalDateIsKept(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	ev := singleEvent(time.Date(2025, 3, 10, 1, 0, 0, 0, loc))
	occs, _ := Expand(ev, MonthWindow(2025, time.March))
	sameDates(t, occs, "2025-03-10")
}

func TestWindow(t *testing.T) {
	w := MonthWindow(2024, time.February)
	if !w.Start.Equal(day(2024, 2, 1)) || !w.End.Equal(day(2024, 2, 29)) {
		t.Errorf("unexpected February 2024 window: %v - %v", w.Start, w.End)
	}
	d := DaysWindow(time.Date(2025, 12, 30, 15, 0, 0, 0, time.UTC), 7)
	if !d.Start.Equal(day(2025, 12, 30)) || !d.End.Equal(day(2026, 1, 5)) {
		t.Errorf("unexpected days window: %v - %v", d.Start, d.End)
	}
	if !d.Contains(day(2026, 1, 5)) || d.Contains(day(2026, 1, 6)) {
		t.Error("window bounds must be inclusive")
	}
}

func TestNthMonthly(t *testing.T) {
	anchor := day(2024, 1, 31)
	tests := []struct {
		n    int
		want time.Time
	}{
		{0, day(2024, 1, 31)},
		{1, day(2024, 2, 29)},
		{2, day(2024, 3, 31)},
		{13, day(2025, 2, 28)},
	}
	for _, tt := range tests {
		if got := nthMonthly(anchor, tt.n); !got.Equal(tt.want) {
			t.Errorf("nthMonthly(%d) = %s, want %s", tt.n, got.Format(dateLayout), tt.want.Format(dateLayout))
		}
	}
}
