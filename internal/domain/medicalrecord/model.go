package medicalrecord

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("medical record not found")
	ErrUnknownReference = errors.New("patient or doctor does not exist")
)

type MedicalRecord struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organizationId"`
	PatientID      uuid.UUID `db:"patient_id" json:"patientId"`
	DoctorID       uuid.UUID `db:"doctor_id" json:"doctorId"`
	VisitDate      time.Time `db:"visit_date" json:"visitDate"`
	Diagnosis      string    `db:"diagnosis" json:"diagnosis"`
	Notes          string    `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// Filter holds the optional criteria of the record listing. PatientName and
// DoctorName search the names of the referenced patient and doctor.
type Filter struct {
	PatientID   *uuid.UUID
	DoctorID    *uuid.UUID
	VisitFrom   *time.Time
	VisitTo     *time.Time
	Diagnosis   string
	PatientName string
	DoctorName  string
}
