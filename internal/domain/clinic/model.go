package clinic

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("clinic not found")

type Clinic struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organizationId"`
	Name           string    `db:"name" json:"name"`
	City           string    `db:"city" json:"city,omitempty"`
	Phone          string    `db:"phone" json:"phone,omitempty"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

type Filter struct {
	Name   string
	City   *string
	Active *bool
}
