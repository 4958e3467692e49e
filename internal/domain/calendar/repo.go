package calendar

import (
	"context"

	"github.com/google/uuid"
)

type EventRepository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	Update(ctx context.Context, e *Event) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	// ListForRepresentative returns every live event of repID whose span
	// overlaps w, plus all of its recurring events regardless of anchor.
	ListForRepresentative(ctx context.Context, repID uuid.UUID, w Window) ([]*Event, error)
	ListByRepresentative(ctx context.Context, repID uuid.UUID, limit, offset int) ([]*Event, int, error)
}

// Directory resolves the representatives and customers events refer to.
type Directory interface {
	MissingRepresentatives(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	RepresentativeExists(ctx context.Context, id uuid.UUID) (bool, error)
	CustomerExists(ctx context.Context, id uuid.UUID) (bool, error)
}
