package medicalrecord

import (
	"context"

	"github.com/google/uuid"

	"github.com/ehr/records/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, r *MedicalRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error)
	Update(ctx context.Context, r *MedicalRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, f Filter, p pagination.Params) ([]*MedicalRecord, int64, error)
	// ParticipantsInOrganization reports whether both the patient and the
	// doctor exist and belong to org.
	ParticipantsInOrganization(ctx context.Context, patientID, doctorID uuid.UUID, org string) (bool, error)
}
