package doctor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/records/internal/platform/tenant"
	"github.com/ehr/records/pkg/pagination"
)

type mockRepo struct {
	doctors map[uuid.UUID]*Doctor
	clinics map[uuid.UUID]string
}

func newMockRepo() *mockRepo {
	return &mockRepo{doctors: make(map[uuid.UUID]*Doctor), clinics: make(map[uuid.UUID]string)}
}

func (m *mockRepo) ClinicInOrganization(_ context.Context, clinicID uuid.UUID, org string) (bool, error) {
	owner, ok := m.clinics[clinicID]
	return ok && owner == org, nil
}

func visible(ctx context.Context, d *Doctor) bool {
	id := tenant.IDFromContext(ctx)
	return id == nil || *id == d.OrganizationID
}

func (m *mockRepo) Create(_ context.Context, d *Doctor) error {
	for _, other := range m.doctors {
		if other.OrganizationID == d.OrganizationID && other.LicenseNumber == d.LicenseNumber {
			return ErrDuplicateLicense
		}
	}
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	m.doctors[d.ID] = d
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, ok := m.doctors[id]
	if !ok || !visible(ctx, d) {
		return nil, ErrNotFound
	}
	return d, nil
}

func (m *mockRepo) Update(ctx context.Context, d *Doctor) error {
	old, ok := m.doctors[d.ID]
	if !ok || !visible(ctx, old) {
		return ErrNotFound
	}
	d.OrganizationID = old.OrganizationID
	m.doctors[d.ID] = d
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	d, ok := m.doctors[id]
	if !ok || !visible(ctx, d) {
		return ErrNotFound
	}
	delete(m.doctors, id)
	return nil
}

func (m *mockRepo) Search(ctx context.Context, f Filter, _ pagination.Params) ([]*Doctor, int64, error) {
	var out []*Doctor
	for _, d := range m.doctors {
		if !visible(ctx, d) {
			continue
		}
		if f.LicenseNumber != nil && d.LicenseNumber != *f.LicenseNumber {
			continue
		}
		out = append(out, d)
	}
	return out, int64(len(out)), nil
}

func tenantCtx(org string) context.Context {
	ctx, cell := tenant.WithContext(context.Background())
	cell.Set(org)
	return ctx
}
