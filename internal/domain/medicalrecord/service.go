package medicalrecord

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
	ErrPatientRequired   = errors.New("patientId is required")
	ErrDoctorRequired    = errors.New("doctorId is required")
	ErrDiagnosisRequired = errors.New("diagnosis is required")
	ErrNoOrganization    = tenant.ErrUnresolved
)

type Service struct {
	repo    Repository
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(repo Repository, m *metrics.Metrics) *Service {
	return &Service{repo: repo, metrics: m, now: time.Now}
}

func (s *Service) validate(m *MedicalRecord) error {
	m.Diagnosis = strings.TrimSpace(m.Diagnosis)
	switch {
	case m.PatientID == uuid.Nil:
		return ErrPatientRequired
	case m.DoctorID == uuid.Nil:
		return ErrDoctorRequired
	case m.Diagnosis == "":
		return ErrDiagnosisRequired
	}
	if m.VisitDate.IsZero() {
		m.VisitDate = s.now().UTC()
	}
	return nil
}

// checkParticipants rejects a patient or doctor outside org.
func (s *Service) checkParticipants(ctx context.Context, m *MedicalRecord, org string) error {
	ok, err := s.repo.ParticipantsInOrganization(ctx, m.PatientID, m.DoctorID, org)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownReference
	}
	return nil
}

func (s *Service) Create(ctx context.Context, m *MedicalRecord) error {
	if err := s.validate(m); err != nil {
		return err
	}
	org, err := tenant.Owner(ctx, m.OrganizationID)
	if err != nil {
		return err
	}
	m.OrganizationID = org
	if err := s.checkParticipants(ctx, m, org); err != nil {
		return err
	}
	return s.repo.Create(ctx, m)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	if _, err := tenant.Scope(ctx); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, m *MedicalRecord) error {
	if err := s.validate(m); err != nil {
		return err
	}
	cur, err := s.Get(ctx, m.ID)
	if err != nil {
		return err
	}
	if err := s.checkParticipants(ctx, m, cur.OrganizationID); err != nil {
		return err
	}
	return s.repo.Update(ctx, m)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := tenant.Scope(ctx); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Search(ctx context.Context, f Filter, p pagination.Params) ([]*MedicalRecord, int64, error) {
	if _, err := tenant.Scope(ctx); err != nil {
		return nil, 0, err
	}
	defer s.metrics.ObserveList("medical_record", time.Now())
	return s.repo.Search(ctx, f, p)
}
