package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/ehr/records/pkg/pagination"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	// GetByExternalID returns ErrNotFound when no record exists.
	GetByExternalID(ctx context.Context, externalID string) (*User, error)
	// Create inserts u unless a record with the same ExternalID exists.
	// It reports whether a row was inserted.
	Create(ctx context.Context, u *User) (bool, error)
	Search(ctx context.Context, f UserFilter, p pagination.Params) ([]*User, int64, error)
}
