package medication

import (
	"context"

	"github.com/google/uuid"

	"github.com/ehr/records/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medication, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, f Filter, p pagination.Params) ([]*Medication, int64, error)
	RecordInOrganization(ctx context.Context, recordID uuid.UUID, org string) (bool, error)
}
