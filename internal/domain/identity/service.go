package identity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/records/internal/platform/metrics"
	"github.com/ehr/records/pkg/pagination"
)

type Service struct {
	users   UserRepository
	metrics *metrics.Metrics
}

func NewService(users UserRepository, m *metrics.Metrics) *Service {
	return &Service{users: users, metrics: m}
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// Me returns the local record of the token subject.
func (s *Service) Me(ctx context.Context, externalID string) (*User, error) {
	return s.users.GetByExternalID(ctx, externalID)
}

func (s *Service) SearchUsers(ctx context.Context, f UserFilter, p pagination.Params) ([]*User, int64, error) {
	defer s.metrics.ObserveList("user", time.Now())
	return s.users.Search(ctx, f, p)
}
