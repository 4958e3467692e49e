package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

type RepresentativeRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Representative, error)
	List(ctx context.Context, f RepresentativeFilter, limit, offset int) ([]*Representative, int, error)
	// MissingIDs returns the ids that do not name a live representative.
	MissingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
}

type CustomerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	List(ctx context.Context, f CustomerFilter, limit, offset int) ([]*Customer, int, error)
}
