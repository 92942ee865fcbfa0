package patient

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("patient not found")

type Patient struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	OrganizationID string     `db:"organization_id" json:"organizationId"`
	ClinicID       *uuid.UUID `db:"clinic_id" json:"clinicId,omitempty"`
	FirstName      string     `db:"first_name" json:"firstName"`
	LastName       string     `db:"last_name" json:"lastName"`
	Email          string     `db:"email" json:"email,omitempty"`
	BirthDate      *time.Time `db:"birth_date" json:"birthDate,omitempty"`
	Gender         string     `db:"gender" json:"gender,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}

// Filter holds the optional criteria of the patient listing. Diagnosis
// matches patients with at least one medical record whose diagnosis
// contains the text.
type Filter struct {
	Name      string
	Email     string
	Gender    *string
	ClinicID  *uuid.UUID
	BornFrom  *time.Time
	BornTo    *time.Time
	Diagnosis string
}
