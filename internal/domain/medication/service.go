package medication

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
	ErrNameRequired   = errors.New("medication name is required")
	ErrRecordRequired = errors.New("medicalRecordId is required")
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

func (s *Service) Prescribe(ctx context.Context, m *Medication) error {
	m.Name = strings.TrimSpace(m.Name)
	m.Code = strings.TrimSpace(m.Code)
	if m.Name == "" {
		return ErrNameRequired
	}
	if m.MedicalRecordID == uuid.Nil {
		return ErrRecordRequired
	}
	if m.PrescribedAt.IsZero() {
		m.PrescribedAt = s.now().UTC()
	}
	org, err := tenant.Owner(ctx, m.OrganizationID)
	if err != nil {
		return err
	}
	m.OrganizationID = org
	ok, err := s.repo.RecordInOrganization(ctx, m.MedicalRecordID, org)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownRecord
	}
	return s.repo.Create(ctx, m)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Medication, error) {
	if _, err := tenant.Scope(ctx); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := tenant.Scope(ctx); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Search(ctx context.Context, f Filter, p pagination.Params) ([]*Medication, int64, error) {
	if _, err := tenant.Scope(ctx); err != nil {
		return nil, 0, err
	}
	defer s.metrics.ObserveList("medication", time.Now())
	return s.repo.Search(ctx, f, p)
}
