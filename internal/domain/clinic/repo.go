package clinic

import (
	"context"

	"github.com/google/uuid"

	"github.com/ehr/records/pkg/pagination"
)

// Repository methods are scoped to the tenant carried by ctx, when resolved.
type Repository interface {
	Create(ctx context.Context, c *Clinic) error
	GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error)
	Update(ctx context.Context, c *Clinic) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, f Filter, p pagination.Params) ([]*Clinic, int64, error)
}
