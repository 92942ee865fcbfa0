package medicalrecord

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/records/internal/platform/tenant"
	"github.com/ehr/records/pkg/pagination"
)

type mockRepo struct {
	records map[uuid.UUID]*MedicalRecord
	owners  map[uuid.UUID]string
	lastF   Filter
}

func newMockRepo() *mockRepo {
	return &mockRepo{records: make(map[uuid.UUID]*MedicalRecord), owners: make(map[uuid.UUID]string)}
}

// own registers a patient or doctor id as belonging to org.
func (r *mockRepo) own(org string) uuid.UUID {
	id := uuid.New()
	r.owners[id] = org
	return id
}

func (r *mockRepo) ParticipantsInOrganization(_ context.Context, patientID, doctorID uuid.UUID, org string) (bool, error) {
	p, okP := r.owners[patientID]
	d, okD := r.owners[doctorID]
	return okP && okD && p == org && d == org, nil
}

func visible(ctx context.Context, m *MedicalRecord) bool {
	id := tenant.IDFromContext(ctx)
	return id == nil || *id == m.OrganizationID
}

func (r *mockRepo) Create(_ context.Context, m *MedicalRecord) error {
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	r.records[m.ID] = m
	return nil
}

func (r *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	m, ok := r.records[id]
	if !ok || !visible(ctx, m) {
		return nil, ErrNotFound
	}
	return m, nil
}

func (r *mockRepo) Update(ctx context.Context, m *MedicalRecord) error {
	old, ok := r.records[m.ID]
	if !ok || !visible(ctx, old) {
		return ErrNotFound
	}
	m.OrganizationID = old.OrganizationID
	r.records[m.ID] = m
	return nil
}

func (r *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m, ok := r.records[id]
	if !ok || !visible(ctx, m) {
		return ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *mockRepo) Search(ctx context.Context, f Filter, _ pagination.Params) ([]*MedicalRecord, int64, error) {
	r.lastF = f
	var out []*MedicalRecord
	for _, m := range r.records {
		if !visible(ctx, m) {
			continue
		}
		if f.PatientID != nil && m.PatientID != *f.PatientID {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func tenantCtx(org string) context.Context {
	ctx, cell := tenant.WithContext(context.Background())
	cell.Set(org)
	return ctx
}
