package doctor

import (
	"context"

	"github.com/google/uuid"

	"github.com/ehr/records/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, f Filter, p pagination.Params) ([]*Doctor, int64, error)
	ClinicInOrganization(ctx context.Context, clinicID uuid.UUID, org string) (bool, error)
}
