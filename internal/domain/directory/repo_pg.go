package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medrep/medrep/internal/platform/db"
)

// -- Representative --

type representativeRepoPG struct{ pool *pgxpool.Pool }

func NewRepresentativeRepoPG(pool *pgxpool.Pool) RepresentativeRepository {
	return &representativeRepoPG{pool: pool}
}

func (r *representativeRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const repCols = `id, name, email, phone, territory, active, created_at, updated_at`

func (r *representativeRepoPG) scanRep(row pgx.Row) (*Representative, error) {
	var p Representative
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Territory, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *representativeRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Representative, error) {
	return r.scanRep(r.conn(ctx).QueryRow(ctx,
		`SELECT `+repCols+` FROM representatives WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (r *representativeRepoPG) List(ctx context.Context, f RepresentativeFilter, limit, offset int) ([]*Representative, int, error) {
	where, args := []string{"deleted_at IS NULL"}, []interface{}{}
	if f.Active != nil {
		args = append(args, *f.Active)
		where = append(where, fmt.Sprintf("active = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%[1]d OR territory ILIKE $%[1]d)", len(args)))
	}
	cond := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM representatives`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count representatives: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+repCols+` FROM representatives`+cond+
			fmt.Sprintf(` ORDER BY name, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list representatives: %w", err)
	}
	defer rows.Close()

	var items []*Representative
	for rows.Next() {
		p, err := r.scanRep(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *representativeRepoPG) MissingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT q.id FROM unnest($1::uuid[]) AS q(id)
		WHERE NOT EXISTS (
			SELECT 1 FROM representatives r WHERE r.id = q.id AND r.deleted_at IS NULL)`, strs)
	if err != nil {
		return nil, fmt.Errorf("check representatives: %w", err)
	}
	defer rows.Close()

	var missing []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		missing = append(missing, id)
	}
	return missing, rows.Err()
}

// -- Customer --

type customerRepoPG struct{ pool *pgxpool.Pool }

func NewCustomerRepoPG(pool *pgxpool.Pool) CustomerRepository { return &customerRepoPG{pool: pool} }

func (r *customerRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const customerCols = `id, name, customer_type, specialty, email, phone, address, city, created_at, updated_at`

func (r *customerRepoPG) scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.CustomerType, &c.Specialty, &c.Email, &c.Phone,
		&c.Address, &c.City, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *customerRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	return r.scanCustomer(r.conn(ctx).QueryRow(ctx,
		`SELECT `+customerCols+` FROM customers WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (r *customerRepoPG) List(ctx context.Context, f CustomerFilter, limit, offset int) ([]*Customer, int, error) {
	where, args := []string{"deleted_at IS NULL"}, []interface{}{}
	if f.CustomerType != "" {
		args = append(args, f.CustomerType)
		where = append(where, fmt.Sprintf("customer_type = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%[1]d OR city ILIKE $%[1]d)", len(args)))
	}
	cond := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM customers`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+customerCols+` FROM customers`+cond+
			fmt.Sprintf(` ORDER BY name, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var items []*Customer
	for rows.Next() {
		c, err := r.scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}
