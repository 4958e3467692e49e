package calendar

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medrep/medrep/internal/platform/db"
)

type eventRepoPG struct{ pool *pgxpool.Pool }

func NewEventRepoPG(pool *pgxpool.Pool) EventRepository { return &eventRepoPG{pool: pool} }

func (r *eventRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const eventCols = `e.id, e.representative_id, e.customer_id, e.title, e.description,
	e.event_type, e.status, e.event_date, e.end_date,
	to_char(e.start_time, 'HH24:MI'), to_char(e.end_time, 'HH24:MI'),
	e.location, e.notes, e.is_recurring, e.recurring_pattern,
	e.created_at, e.updated_at, c.name`

const eventFrom = ` FROM events e
	LEFT JOIN customers c ON c.id = e.customer_id AND c.deleted_at IS NULL`

func (r *eventRepoPG) scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.RepresentativeID, &e.CustomerID, &e.Title, &e.Description,
		&e.EventType, &e.Status, &e.EventDate, &e.EndDate,
		&e.StartTime, &e.EndTime,
		&e.Location, &e.Notes, &e.IsRecurring, &e.RecurringPattern,
		&e.CreatedAt, &e.UpdatedAt, &e.CustomerName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *eventRepoPG) Create(ctx context.Context, e *Event) error {
	e.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO events (id, representative_id, customer_id, title, description,
			event_type, status, event_date, end_date, start_time, end_time,
			location, notes, is_recurring, recurring_pattern)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10::time,$11::time,$12,$13,$14,$15)
		RETURNING created_at, updated_at`,
		e.ID, e.RepresentativeID, e.CustomerID, e.Title, e.Description,
		e.EventType, e.Status, e.EventDate, e.EndDate, e.StartTime, e.EndTime,
		e.Location, e.Notes, e.IsRecurring, e.RecurringPattern,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *eventRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	return r.scanEvent(r.conn(ctx).QueryRow(ctx,
		`SELECT `+eventCols+eventFrom+` WHERE e.id = $1 AND e.deleted_at IS NULL`, id))
}

func (r *eventRepoPG) Update(ctx context.Context, e *Event) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE events SET customer_id=$2, title=$3, description=$4, event_type=$5, status=$6,
			event_date=$7, end_date=$8, start_time=$9::time, end_time=$10::time,
			location=$11, notes=$12, is_recurring=$13, recurring_pattern=$14, updated_at=NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`,
		e.ID, e.CustomerID, e.Title, e.Description, e.EventType, e.Status,
		e.EventDate, e.EndDate, e.StartTime, e.EndTime,
		e.Location, e.Notes, e.IsRecurring, e.RecurringPattern,
	).Scan(&e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

func (r *eventRepoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE events SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *eventRepoPG) ListForRepresentative(ctx context.Context, repID uuid.UUID, w Window) ([]*Event, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+eventCols+eventFrom+`
		WHERE e.representative_id = $1 AND e.deleted_at IS NULL
		  AND (e.is_recurring
		       OR (e.event_date <= $3 AND GREATEST(e.event_date, COALESCE(e.end_date, e.event_date)) >= $2))
		ORDER BY e.event_date, e.start_time NULLS FIRST, e.created_at, e.id`,
		repID, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *eventRepoPG) ListByRepresentative(ctx context.Context, repID uuid.UUID, limit, offset int) ([]*Event, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM events WHERE representative_id = $1 AND deleted_at IS NULL`, repID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+eventCols+eventFrom+`
		WHERE e.representative_id = $1 AND e.deleted_at IS NULL
		ORDER BY e.event_date DESC, e.start_time NULLS FIRST, e.created_at, e.id
		LIMIT $2 OFFSET $3`, repID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	items, err := r.collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *eventRepoPG) collect(rows pgx.Rows) ([]*Event, error) {
	var items []*Event
	for rows.Next() {
		e, err := r.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
