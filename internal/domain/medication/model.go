package medication

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("medication not found")
	ErrUnknownRecord = errors.New("medical record does not exist")
)

// Medication is a drug prescribed during a visit.
type Medication struct {
	ID              uuid.UUID `db:"id" json:"id"`
	OrganizationID  string    `db:"organization_id" json:"organizationId"`
	MedicalRecordID uuid.UUID `db:"medical_record_id" json:"medicalRecordId"`
	Name            string    `db:"name" json:"name"`
	Code            string    `db:"code" json:"code,omitempty"`
	Dosage          string    `db:"dosage" json:"dosage,omitempty"`
	PrescribedAt    time.Time `db:"prescribed_at" json:"prescribedAt"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}

type Filter struct {
	Name            string
	Code            *string
	MedicalRecordID *uuid.UUID
	PrescribedFrom  *time.Time
	PrescribedTo    *time.Time
}
