package medicalrecord

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestService_CreateDefaultsVisitDate(t *testing.T) {
	svc, repo := newTestService()
	m := &MedicalRecord{PatientID: repo.own("org-1"), DoctorID: repo.own("org-1"), Diagnosis: " flu "}

	if err := svc.Create(tenantCtx("org-1"), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.VisitDate.Equal(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("expected visit date defaulted to now, got %v", m.VisitDate)
	}
	if m.Diagnosis != "flu" {
		t.Errorf("expected trimmed diagnosis, got %q", m.Diagnosis)
	}
	if m.OrganizationID != "org-1" {
		t.Errorf("expected org-1, got %q", m.OrganizationID)
	}
}

func TestService_CreateValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := tenantCtx("org-1")

	tests := []struct {
		name string
		m    *MedicalRecord
		want error
	}{
		{"no patient", &MedicalRecord{DoctorID: uuid.New(), Diagnosis: "x"}, ErrPatientRequired},
		{"no doctor", &MedicalRecord{PatientID: uuid.New(), Diagnosis: "x"}, ErrDoctorRequired},
		{"no diagnosis", &MedicalRecord{PatientID: uuid.New(), DoctorID: uuid.New(), Diagnosis: "  "}, ErrDiagnosisRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.Create(ctx, tt.m); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestService_ReferencesMustShareTenant(t *testing.T) {
	svc, repo := newTestService()
	ctx := tenantCtx("org-a")
	patient, doctor := repo.own("org-a"), repo.own("org-a")
	foreignPatient, foreignDoctor := repo.own("org-b"), repo.own("org-b")

	tests := []struct {
		name      string
		patientID uuid.UUID
		doctorID  uuid.UUID
	}{
		{"foreign patient", foreignPatient, doctor},
		{"foreign doctor", patient, foreignDoctor},
		{"unknown patient", uuid.New(), doctor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &MedicalRecord{PatientID: tt.patientID, DoctorID: tt.doctorID, Diagnosis: "flu"}
			if err := svc.Create(ctx, m); !errors.Is(err, ErrUnknownReference) {
				t.Errorf("expected ErrUnknownReference, got %v", err)
			}
		})
	}
	if len(repo.records) != 0 {
		t.Fatalf("expected no stored records, got %d", len(repo.records))
	}

	m := &MedicalRecord{PatientID: patient, DoctorID: doctor, Diagnosis: "flu"}
	if err := svc.Create(ctx, m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	upd := &MedicalRecord{ID: m.ID, PatientID: foreignPatient, DoctorID: doctor, Diagnosis: "flu"}
	if err := svc.Update(ctx, upd); !errors.Is(err, ErrUnknownReference) {
		t.Errorf("expected ErrUnknownReference on update, got %v", err)
	}
	if repo.records[m.ID].PatientID != patient {
		t.Error("expected stored record to keep its patient")
	}
}
