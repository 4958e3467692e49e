package calendar

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	TypeMeeting  = "meeting"
	TypeCall     = "call"
	TypeVisit    = "visit"
	TypeTask     = "task"
	TypeTraining = "training"
	TypeOther    = "other"

	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"

	PatternDaily   = "daily"
	PatternWeekly  = "weekly"
	PatternMonthly = "monthly"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Event maps to the events table. One row is owned by exactly one
// representative; creating an event for several representatives writes one
// row each. Dates are calendar dates held as UTC midnight.
type Event struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	RepresentativeID uuid.UUID  `db:"representative_id" json:"representative_id"`
	CustomerID       *uuid.UUID `db:"customer_id" json:"customer_id,omitempty"`
	Title            string     `db:"title" json:"title"`
	Description      *string    `db:"description" json:"description,omitempty"`
	EventType        string     `db:"event_type" json:"event_type"`
	Status           string     `db:"status" json:"status"`
	EventDate        time.Time  `db:"event_date" json:"event_date"`
	EndDate          *time.Time `db:"end_date" json:"end_date,omitempty"`
	StartTime        *string    `db:"start_time" json:"start_time,omitempty"`
	EndTime          *string    `db:"end_time" json:"end_time,omitempty"`
	Location         *string    `db:"location" json:"location,omitempty"`
	Notes            *string    `db:"notes" json:"notes,omitempty"`
	IsRecurring      bool       `db:"is_recurring" json:"is_recurring"`
	RecurringPattern *string    `db:"recurring_pattern" json:"recurring_pattern,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt        *time.Time `db:"deleted_at" json:"-"`

	// CustomerName is joined from customers on read.
	CustomerName *string `db:"customer_name" json:"customer_name,omitempty"`
}

// IsMultiDay reports a non-recurring span longer than one day.
func (e *Event) IsMultiDay() bool {
	return !e.IsRecurring && e.EndDate != nil && dateOf(*e.EndDate).After(dateOf(e.EventDate))
}

// MarshalJSON renders event_date and end_date as plain calendar dates.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	out := struct {
		alias
		EventDate string  `json:"event_date"`
		EndDate   *string `json:"end_date,omitempty"`
	}{alias: alias(e), EventDate: e.EventDate.Format(dateLayout)}
	if e.EndDate != nil {
		s := e.EndDate.Format(dateLayout)
		out.EndDate = &s
	}
	return json.Marshal(out)
}

// dateOf truncates t to midnight UTC of its own calendar date, so a value
// carrying a local zone keeps the local day.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
