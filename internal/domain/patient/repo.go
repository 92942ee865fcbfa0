package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/ehr/records/pkg/pagination"
)

// Repository methods are scoped to the tenant carried by ctx, when resolved.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, f Filter, p pagination.Params) ([]*Patient, int64, error)
	ClinicInOrganization(ctx context.Context, clinicID uuid.UUID, org string) (bool, error)
}
