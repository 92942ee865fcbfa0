package medicalrecord

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/records/pkg/pagination"
)

func TestHandler_ListFilters(t *testing.T) {
	svc, repo := newTestService()
	h := NewHandler(svc)
	e := echo.New()

	patientID := uuid.New()
	repo.Create(nil, &MedicalRecord{PatientID: patientID, OrganizationID: "org-1"})
	repo.Create(nil, &MedicalRecord{PatientID: uuid.New(), OrganizationID: "org-1"})
	repo.Create(nil, &MedicalRecord{PatientID: patientID, OrganizationID: "org-2"})

	target := "/medical-records?patientId=" + patientID.String() + "&visitFrom=2026-01-01&doctorName=house"
	req := httptest.NewRequest(http.MethodGet, target, nil).WithContext(tenantCtx("org-1"))
	rec := httptest.NewRecorder()
	if err := h.List(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var page pagination.Page[MedicalRecord]
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.TotalElements != 1 {
		t.Errorf("expected 1 record, got %d", page.TotalElements)
	}
	if repo.lastF.DoctorName != "house" || repo.lastF.VisitFrom == nil || repo.lastF.VisitTo != nil {
		t.Errorf("unexpected filter %+v", repo.lastF)
	}
}

func TestHandler_ListVisitToCoversWholeDay(t *testing.T) {
	svc, repo := newTestService()
	h := NewHandler(svc)
	req := httptest.NewRequest(http.MethodGet, "/medical-records?visitTo=2024-03-10", nil).WithContext(tenantCtx("org-1"))
	if err := h.List(echo.New().NewContext(req, httptest.NewRecorder())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	late := time.Date(2024, 3, 10, 18, 30, 0, 0, time.UTC)
	if repo.lastF.VisitTo == nil || repo.lastF.VisitTo.Before(late) {
		t.Fatalf("expected visitTo to include the evening of 2024-03-10, got %v", repo.lastF.VisitTo)
	}
	if !repo.lastF.VisitTo.Before(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected visitTo to stop before 2024-03-11, got %v", repo.lastF.VisitTo)
	}
}

func TestHandler_ListBadPatientID(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc)
	req := httptest.NewRequest(http.MethodGet, "/medical-records?patientId=42", nil)

	var he *echo.HTTPError
	if err := h.List(echo.New().NewContext(req, httptest.NewRecorder())); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestToHTTP(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrUnknownReference, http.StatusUnprocessableEntity},
		{ErrDiagnosisRequired, http.StatusBadRequest},
		{ErrNoOrganization, http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		var he *echo.HTTPError
		if !errors.As(toHTTP(tt.err), &he) || he.Code != tt.want {
			t.Errorf("%v: expected %d, got %v", tt.err, tt.want, he)
		}
	}
}
