package doctor

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
	ErrNameRequired    = errors.New("first and last name are required")
	ErrLicenseRequired = errors.New("license number is required")
	ErrUnknownClinic   = errors.New("clinic does not exist")
	ErrNoOrganization  = tenant.ErrUnresolved
)

type Service struct {
	repo    Repository
	metrics *metrics.Metrics
}

func NewService(repo Repository, m *metrics.Metrics) *Service {
	return &Service{repo: repo, metrics: m}
}

func validate(d *Doctor) error {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.LicenseNumber = strings.TrimSpace(d.LicenseNumber)
	if d.FirstName == "" || d.LastName == "" {
		return ErrNameRequired
	}
	if d.LicenseNumber == "" {
		return ErrLicenseRequired
	}
	return nil
}

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

func (s *Service) Create(ctx context.Context, d *Doctor) error {
	if err := validate(d); err != nil {
		return err
	}
	org, err := tenant.Owner(ctx, d.OrganizationID)
	if err != nil {
		return err
	}
	d.OrganizationID = org
	if err := s.checkClinic(ctx, d.ClinicID, org); err != nil {
		return err
	}
	return s.repo.Create(ctx, d)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	if _, err := tenant.Scope(ctx); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, d *Doctor) error {
	if err := validate(d); err != nil {
		return err
	}
	cur, err := s.Get(ctx, d.ID)
	if err != nil {
		return err
	}
	if err := s.checkClinic(ctx, d.ClinicID, cur.OrganizationID); err != nil {
		return err
	}
	return s.repo.Update(ctx, d)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := tenant.Scope(ctx); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Search(ctx context.Context, f Filter, p pagination.Params) ([]*Doctor, int64, error) {
	if _, err := tenant.Scope(ctx); err != nil {
		return nil, 0, err
	}
	defer s.metrics.ObserveList("doctor", time.Now())
	return s.repo.Search(ctx, f, p)
}
