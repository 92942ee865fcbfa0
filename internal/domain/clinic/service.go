package clinic

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/records/internal/platform/metrics"
	"github.com/ehr/records/internal/platform/tenant"
	"github.com/ehr/records/pkg/pagination"
)

var (
	ErrNameRequired   = errors.New("clinic name is required")
	ErrNoOrganization = tenant.ErrUnresolved
)

type Service struct {
	repo    Repository
	metrics *metrics.Metrics
}

func NewService(repo Repository, m *metrics.Metrics) *Service {
	return &Service{repo: repo, metrics: m}
}

func validate(c *Clinic) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return ErrNameRequired
	}
	return nil
}

// Create stamps the clinic with the acting tenant. A body organizationId is
// only honoured for callers allowed to work across organizations.
func (s *Service) Create(ctx context.Context, c *Clinic) error {
	if err := validate(c); err != nil {
		return err
	}
	org, err := tenant.Owner(ctx, c.OrganizationID)
	if err != nil {
		return err
	}
	c.OrganizationID = org
	return s.repo.Create(ctx, c)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	if _, err := tenant.Scope(ctx); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, c *Clinic) error {
	if err := validate(c); err != nil {
		return err
	}
	if _, err := tenant.Scope(ctx); err != nil {
		return err
	}
	return s.repo.Update(ctx, c)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := tenant.Scope(ctx); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Search(ctx context.Context, f Filter, p pagination.Params) ([]*Clinic, int64, error) {
	if _, err := tenant.Scope(ctx); err != nil {
		return nil, 0, err
	}
	defer s.metrics.ObserveList("clinic", time.Now())
	return s.repo.Search(ctx, f, p)
}
