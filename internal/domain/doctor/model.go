package doctor

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("doctor not found")

type Doctor struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	OrganizationID string     `db:"organization_id" json:"organizationId"`
	ClinicID       *uuid.UUID `db:"clinic_id" json:"clinicId,omitempty"`
	FirstName      string     `db:"first_name" json:"firstName"`
	LastName       string     `db:"last_name" json:"lastName"`
	Specialization string     `db:"specialization" json:"specialization,omitempty"`
	LicenseNumber  string     `db:"license_number" json:"licenseNumber"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}

type Filter struct {
	Name           string
	Specialization string
	ClinicID       *uuid.UUID
	LicenseNumber  *string
}
