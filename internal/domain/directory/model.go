package directory

import (
	"time"

	"github.com/google/uuid"
)

const (
	CustomerDoctor   = "doctor"
	CustomerHospital = "hospital"
	CustomerPharmacy = "pharmacy"
	CustomerClinic   = "clinic"
)

// Representative is a field representative owning a calendar.
type Representative struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Email     *string    `db:"email" json:"email,omitempty"`
	Phone     *string    `db:"phone" json:"phone,omitempty"`
	Territory *string    `db:"territory" json:"territory,omitempty"`
	Active    bool       `db:"active" json:"active"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// Customer is a doctor, hospital, pharmacy or clinic visited by
// representatives.
type Customer struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	CustomerType string     `db:"customer_type" json:"customer_type"`
	Specialty    *string    `db:"specialty" json:"specialty,omitempty"`
	Email        *string    `db:"email" json:"email,omitempty"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	Address      *string    `db:"address" json:"address,omitempty"`
	City         *string    `db:"city" json:"city,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at" json:"-"`
}

// RepresentativeFilter narrows List. Zero values match everything.
type RepresentativeFilter struct {
	Active *bool
	Search string
}

type CustomerFilter struct {
	CustomerType string
	Search       string
}
