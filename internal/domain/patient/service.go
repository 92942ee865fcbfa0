package patient

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
	ErrNameRequired   = errors.New("first and last name are required")
	ErrBirthInFuture  = errors.New("birth date cannot be in the future")
	ErrUnknownClinic  = errors.New("clinic does not exist")
	ErrNoOrganization = tenant.ErrUnresolved
)

type Service struct {
	repo    Repository
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(repo Repository, m *metrics.Metrics) *Service {
	return &Service{repo: repo, metrics: m, now: time.Now}
}

func (s *Service) validate(p *Patient) error {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Email = strings.TrimSpace(p.Email)
	if p.FirstName == "" || p.LastName == "" {
		return ErrNameRequired
	}
	if p.BirthDate != nil && p.BirthDate.After(s.now()) {
		return ErrBirthInFuture
	}
	return nil
}

// checkClinic rejects a clinic that is missing or owned by another organization.
func (s *Service) checkClinic(ctx context.Context, clinicID *uuid.UUID, org string) error {
	if clinicID == nil {
		return nil
	}
	ok, err := s.repo.ClinicInOrganization(ctx, *clinicID, org)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownClinic
	}
	return nil
}

// Create stamps the patient with the acting tenant. A body organizationId
// is only honoured for callers allowed to work across organizations.
func (s *Service) Create(ctx context.Context, p *Patient) error {
	if err := s.validate(p); err != nil {
		return err
	}
	org, err := tenant.Owner(ctx, p.OrganizationID)
	if err != nil {
		return err
	}
	p.OrganizationID = org
	if err := s.checkClinic(ctx, p.ClinicID, org); err != nil {
		return err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	if _, err := tenant.Scope(ctx); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if err := s.validate(p); err != nil {
		return err
	}
	cur, err := s.Get(ctx, p.ID)
	if err != nil {
		return err
	}
	if err := s.checkClinic(ctx, p.ClinicID, cur.OrganizationID); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := tenant.Scope(ctx); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Search(ctx context.Context, f Filter, p pagination.Params) ([]*Patient, int64, error) {
	if _, err := tenant.Scope(ctx); err != nil {
		return nil, 0, err
	}
	defer s.metrics.ObserveList("patient", time.Now())
	return s.repo.Search(ctx, f, p)
}
