package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medrep/medrep/internal/platform/db"
	"github.com/medrep/medrep/internal/platform/middleware"
)

const (
	DefaultUpcomingDays = 7
	MaxUpcomingDays     = 90
)

// EventFields are the writable attributes of an event.
type EventFields struct {
	Title            string     `json:"title" validate:"required,max=255"`
	Description      *string    `json:"description"`
	EventType        string     `json:"event_type" validate:"oneof=meeting call visit task training other"`
	Status           string     `json:"status" validate:"oneof=scheduled completed cancelled"`
	EventDate        string     `json:"event_date" validate:"required,datetime=2006-01-02"`
	EndDate          *string    `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	StartTime        *string    `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime          *string    `json:"end_time" validate:"omitempty,datetime=15:04"`
	Location         *string    `json:"location" validate:"omitempty,max=255"`
	Notes            *string    `json:"notes"`
	IsRecurring      bool       `json:"is_recurring"`
	RecurringPattern *string    `json:"recurring_pattern" validate:"omitempty,oneof=daily weekly monthly"`
	CustomerID       *uuid.UUID `json:"customer_id"`
}

type CreateEventInput struct {
	EventFields
	RepresentativeIDs []uuid.UUID `json:"representative_ids" validate:"required,min=1"`
}

// UpdateEventInput is a partial update; nil fields keep their stored value.
// An empty string clears an optional text field and uuid.Nil clears the
// customer. RepresentativeID may be sent but must match the stored owner.
type UpdateEventInput struct {
	Title            *string    `json:"title"`
	Description      *string    `json:"description"`
	EventType        *string    `json:"event_type"`
	Status           *string    `json:"status"`
	EventDate        *string    `json:"event_date"`
	EndDate          *string    `json:"end_date"`
	StartTime        *string    `json:"start_time"`
	EndTime          *string    `json:"end_time"`
	Location         *string    `json:"location"`
	Notes            *string    `json:"notes"`
	IsRecurring      *bool      `json:"is_recurring"`
	RecurringPattern *string    `json:"recurring_pattern"`
	CustomerID       *uuid.UUID `json:"customer_id"`
	RepresentativeID *uuid.UUID `json:"representative_id"`
}

type Service struct {
	events   EventRepository
	dir      Directory
	tx       db.Transactor
	mat      *Materializer
	validate *validator.Validate
	loc      *time.Location
	now      func() time.Time
	logger   zerolog.Logger
}

// NewService wires the calendar. loc is the zone "today" is computed in;
// now is the clock and defaults to time.Now.
func NewService(events EventRepository, dir Directory, tx db.Transactor, logger zerolog.Logger, loc *time.Location, now func() time.Time) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		events:   events,
		dir:      dir,
		tx:       tx,
		mat:      NewMaterializer(logger),
		validate: newValidator(),
		loc:      loc,
		now:      now,
		logger:   logger,
	}
}

// Today returns the current calendar date in the configured zone.
func (s *Service) Today() time.Time {
	return s.now().In(s.loc)
}

// -- Events --

// CreateEvents writes one event per distinct representative in a single
// transaction. Either every row is created or none.
func (s *Service) CreateEvents(ctx context.Context, in CreateEventInput) ([]*Event, error) {
	normalizeFields(&in.EventFields)
	tmpl, err := s.check(in, in.EventFields)
	if err != nil {
		return nil, err
	}
	repIDs := dedupe(in.RepresentativeIDs)

	var created []*Event
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.checkReferences(ctx, repIDs, tmpl.CustomerID); err != nil {
			return err
		}
		created = make([]*Event, 0, len(repIDs))
		for _, rid := range repIDs {
			e := *tmpl
			e.RepresentativeID = rid
			if err := s.events.Create(ctx, &e); err != nil {
				return fmt.Errorf("create event for representative %s: %w", rid, err)
			}
			created = append(created, &e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("count", len(created)).
		Str("event_date", in.EventDate).
		Bool("is_recurring", tmpl.IsRecurring).
		Msg("calendar: events created")
	return created, nil
}

func (s *Service) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "event", id)
	}
	return e, nil
}

// UpdateEvent merges in onto the stored event and validates the result with
// the same rules as creation.
func (s *Service) UpdateEvent(ctx context.Context, id uuid.UUID, in UpdateEventInput) (*Event, error) {
	var updated *Event
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cur, err := s.events.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "event", id)
		}
		if in.RepresentativeID != nil && *in.RepresentativeID != cur.RepresentativeID {
			return &ValidationError{Fields: map[string]string{"representative_id": "cannot be changed"}}
		}

		f := mergeFields(fieldsOf(cur), in)
		normalizeFields(&f)
		next, err := s.check(f, f)
		if err != nil {
			return err
		}
		if next.CustomerID != nil && (cur.CustomerID == nil || *cur.CustomerID != *next.CustomerID) {
			if err := s.checkReferences(ctx, nil, next.CustomerID); err != nil {
				return err
			}
		}

		next.ID = cur.ID
		next.RepresentativeID = cur.RepresentativeID
		next.CreatedAt = cur.CreatedAt
		if err := s.events.Update(ctx, next); err != nil {
			return notFound(err, "event", id)
		}
		// re-read for the joined customer name
		updated, err = s.events.GetByID(ctx, id)
		return notFound(err, "event", id)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if err := s.events.SoftDelete(ctx, id); err != nil {
		return notFound(err, "event", id)
	}
	s.logger.Info().Str("event_id", id.String()).Msg("calendar: event deleted")
	return nil
}

func (s *Service) ListEvents(ctx context.Context, repID uuid.UUID, limit, offset int) ([]*Event, int, error) {
	if err := s.requireRepresentative(ctx, repID); err != nil {
		return nil, 0, err
	}
	return s.events.ListByRepresentative(ctx, repID, limit, offset)
}

// -- Views --

// MonthCalendar renders the month grid. year and month of 0 select the
// current year and month.
func (s *Service) MonthCalendar(ctx context.Context, repID uuid.UUID, year, month int) (*MonthView, error) {
	today := s.Today()
	year, month, err := resolveMonth(today, year, month)
	if err != nil {
		return nil, err
	}
	if err := s.requireRepresentative(ctx, repID); err != nil {
		return nil, err
	}

	events, err := s.events.ListForRepresentative(ctx, repID, MonthWindow(year, time.Month(month)))
	if err != nil {
		return nil, err
	}
	return s.mat.Month(repID, year, time.Month(month), events, today), nil
}

// Upcoming lists occurrences from today over the next days days.
func (s *Service) Upcoming(ctx context.Context, repID uuid.UUID, days int) ([]UpcomingOccurrence, error) {
	if days == 0 {
		days = DefaultUpcomingDays
	}
	if days < 1 || days > MaxUpcomingDays {
		return nil, &ValidationError{Fields: map[string]string{
			"days": fmt.Sprintf("must be between 1 and %d", MaxUpcomingDays),
		}}
	}
	if err := s.requireRepresentative(ctx, repID); err != nil {
		return nil, err
	}

	w := DaysWindow(s.Today(), days)
	events, err := s.events.ListForRepresentative(ctx, repID, w)
	if err != nil {
		return nil, err
	}
	return s.mat.Upcoming(events, w), nil
}

// -- helpers --

func resolveMonth(today time.Time, year, month int) (int, int, error) {
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = int(today.Month())
	}
	verr := &ValidationError{}
	if year < 1 || year > 9999 {
		verr.add("year", "must be between 1 and 9999")
	}
	if month < 1 || month > 12 {
		verr.add("month", "must be between 1 and 12")
	}
	return year, month, verr.orNil()
}

func (s *Service) requireRepresentative(ctx context.Context, repID uuid.UUID) error {
	ok, err := s.dir.RepresentativeExists(ctx, repID)
	if err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Resource: "representative", ID: repID.String()}
	}
	return nil
}

func (s *Service) checkReferences(ctx context.Context, repIDs []uuid.UUID, customerID *uuid.UUID) error {
	if len(repIDs) > 0 {
		missing, err := s.dir.MissingRepresentatives(ctx, repIDs)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return &NotFoundError{Resource: "representative", ID: missing[0].String()}
		}
	}
	if customerID != nil {
		ok, err := s.dir.CustomerExists(ctx, *customerID)
		if err != nil {
			return err
		}
		if !ok {
			return &NotFoundError{Resource: "customer", ID: customerID.String()}
		}
	}
	return nil
}

// notFound names the missing record when a repository reports ErrNotFound.
func notFound(err error, resource string, id uuid.UUID) error {
	var nf *NotFoundError
	if err == nil || errors.As(err, &nf) || !errors.Is(err, ErrNotFound) {
		return err
	}
	return &NotFoundError{Resource: resource, ID: id.String()}
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func normalizeFields(f *EventFields) {
	f.Title = middleware.SanitizeString(f.Title)
	f.EventType = strings.ToLower(strings.TrimSpace(f.EventType))
	if f.EventType == "" {
		f.EventType = TypeMeeting
	}
	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
	if f.Status == "" {
		f.Status = StatusScheduled
	}
	f.EventDate = strings.TrimSpace(f.EventDate)
	f.Description = optText(f.Description)
	f.Location = optText(f.Location)
	f.Notes = optText(f.Notes)
	f.EndDate = optText(f.EndDate)
	f.StartTime = optClock(f.StartTime)
	f.EndTime = optClock(f.EndTime)
	if f.RecurringPattern != nil {
		f.RecurringPattern = optText(strPtr(strings.ToLower(*f.RecurringPattern)))
	}
	if !f.IsRecurring {
		f.RecurringPattern = nil
	}
	if f.CustomerID != nil && *f.CustomerID == uuid.Nil {
		f.CustomerID = nil
	}
}

func optText(s *string) *string {
	if s == nil {
		return nil
	}
	v := middleware.SanitizeString(*s)
	if v == "" {
		return nil
	}
	return &v
}

// optClock accepts HH:MM and drops the seconds of HH:MM:SS.
func optClock(s *string) *string {
	v := optText(s)
	if v != nil && len(*v) == 8 && (*v)[5] == ':' {
		v = strPtr((*v)[:5])
	}
	return v
}

// check validates v with struct tags, then applies the cross-field rules
// to f and converts it. All failures are reported together.
func (s *Service) check(v interface{}, f EventFields) (*Event, error) {
	verr := &ValidationError{}
	if err := s.validate.Struct(v); err != nil {
		ferr := fieldErrors(err)
		ve, ok := ferr.(*ValidationError)
		if !ok {
			return nil, ferr
		}
		verr = ve
	}
	ev := buildEvent(f, verr)
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return ev, nil
}

func buildEvent(f EventFields, verr *ValidationError) *Event {
	start, startErr := time.Parse(dateLayout, f.EventDate)

	var end *time.Time
	if f.EndDate != nil {
		if d, err := time.Parse(dateLayout, *f.EndDate); err == nil {
			if startErr == nil && d.Before(start) {
				verr.add("end_date", "must be on or after event_date")
			}
			end = &d
		}
	}
	if f.IsRecurring && f.RecurringPattern == nil {
		verr.add("recurring_pattern", "is required when is_recurring is true")
	}

	return &Event{
		CustomerID:       f.CustomerID,
		Title:            f.Title,
		Description:      f.Description,
		EventType:        f.EventType,
		Status:           f.Status,
		EventDate:        start,
		EndDate:          end,
		StartTime:        f.StartTime,
		EndTime:          f.EndTime,
		Location:         f.Location,
		Notes:            f.Notes,
		IsRecurring:      f.IsRecurring,
		RecurringPattern: f.RecurringPattern,
	}
}

func fieldsOf(e *Event) EventFields {
	f := EventFields{
		Title:            e.Title,
		Description:      e.Description,
		EventType:        e.EventType,
		Status:           e.Status,
		EventDate:        e.EventDate.Format(dateLayout),
		StartTime:        e.StartTime,
		EndTime:          e.EndTime,
		Location:         e.Location,
		Notes:            e.Notes,
		IsRecurring:      e.IsRecurring,
		RecurringPattern: e.RecurringPattern,
		CustomerID:       e.CustomerID,
	}
	if e.EndDate != nil {
		f.EndDate = strPtr(e.EndDate.Format(dateLayout))
	}
	return f
}

func mergeFields(f EventFields, in UpdateEventInput) EventFields {
	if in.Title != nil {
		f.Title = *in.Title
	}
	if in.EventType != nil {
		f.EventType = *in.EventType
	}
	if in.Status != nil {
		f.Status = *in.Status
	}
	if in.EventDate != nil {
		f.EventDate = *in.EventDate
	}
	if in.IsRecurring != nil {
		f.IsRecurring = *in.IsRecurring
	}
	if in.Description != nil {
		f.Description = in.Description
	}
	if in.EndDate != nil {
		f.EndDate = in.EndDate
	}
	if in.StartTime != nil {
		f.StartTime = in.StartTime
	}
	if in.EndTime != nil {
		f.EndTime = in.EndTime
	}
	if in.Location != nil {
		f.Location = in.Location
	}
	if in.Notes != nil {
		f.Notes = in.Notes
	}
	if in.RecurringPattern != nil {
		f.RecurringPattern = in.RecurringPattern
	}
	if in.CustomerID != nil {
		f.CustomerID = in.CustomerID
	}
	return f
}
