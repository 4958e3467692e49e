package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Service is the read side of representatives and customers. It also
// answers the reference checks of the calendar.
type Service struct {
	reps      RepresentativeRepository
	customers CustomerRepository
}

func NewService(reps RepresentativeRepository, customers CustomerRepository) *Service {
	return &Service{reps: reps, customers: customers}
}

func (s *Service) GetRepresentative(ctx context.Context, id uuid.UUID) (*Representative, error) {
	return s.reps.GetByID(ctx, id)
}

func (s *Service) ListRepresentatives(ctx context.Context, f RepresentativeFilter, limit, offset int) ([]*Representative, int, error) {
	f.Search = strings.TrimSpace(f.Search)
	return s.reps.List(ctx, f, limit, offset)
}

func (s *Service) GetCustomer(ctx context.Context, id uuid.UUID) (*Customer, error) {
	return s.customers.GetByID(ctx, id)
}

func (s *Service) ListCustomers(ctx context.Context, f CustomerFilter, limit, offset int) ([]*Customer, int, error) {
	f.Search = strings.TrimSpace(f.Search)
	f.CustomerType = strings.ToLower(strings.TrimSpace(f.CustomerType))
	if f.CustomerType != "" && !validCustomerType(f.CustomerType) {
		return nil, 0, fmt.Errorf("invalid customer_type %q", f.CustomerType)
	}
	return s.customers.List(ctx, f, limit, offset)
}

func (s *Service) MissingRepresentatives(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	return s.reps.MissingIDs(ctx, ids)
}

func (s *Service) RepresentativeExists(ctx context.Context, id uuid.UUID) (bool, error) {
	missing, err := s.reps.MissingIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return false, err
	}
	return len(missing) == 0, nil
}

func (s *Service) CustomerExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.customers.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func validCustomerType(t string) bool {
	switch t {
	case CustomerDoctor, CustomerHospital, CustomerPharmacy, CustomerClinic:
		return true
	}
	return false
}
