package tenant

import (
	"context"
	"errors"
	"strings"

	"github.com/ehr/records/internal/platform/auth"
)

// ErrUnresolved is returned when a request reaches data access without a
// tenant and without the right to work across organizations.
var ErrUnresolved = errors.New("organization could not be resolved")

// Scope returns the tenant that data access must be limited to. A nil
// tenant with a nil error means unscoped access, which is open to admins
// and to callers running outside a request (no cell attached).
func Scope(ctx context.Context) (*string, error) {
	cell := FromContext(ctx)
	if id, ok := cell.Get(); ok {
		return &id, nil
	}
	if cell == nil || auth.PrincipalFromContext(ctx).HasGroup(auth.AdminGroup) {
		return nil, nil
	}
	return nil, ErrUnresolved
}

// Owner picks the organization a new row is stamped with. The resolved
// tenant always wins; requested is only honoured where Scope grants
// unscoped access.
func Owner(ctx context.Context, requested string) (string, error) {
	id, err := Scope(ctx)
	if err != nil {
		return "", err
	}
	if id != nil {
		return *id, nil
	}
	if requested = strings.TrimSpace(requested); requested == "" {
		return "", ErrUnresolved
	}
	return requested, nil
}
