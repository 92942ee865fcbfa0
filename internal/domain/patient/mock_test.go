package patient

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/records/internal/platform/auth"
	"github.com/ehr/records/internal/platform/tenant"
	"github.com/ehr/records/pkg/pagination"
)

type mockRepo struct {
	patients map[uuid.UUID]*Patient
	clinics  map[uuid.UUID]string
	lastF    Filter
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[uuid.UUID]*Patient), clinics: make(map[uuid.UUID]string)}
}

func (m *mockRepo) ClinicInOrganization(_ context.Context, clinicID uuid.UUID, org string) (bool, error) {
	owner, ok := m.clinics[clinicID]
	return ok && owner == org, nil
}

func visible(ctx context.Context, p *Patient) bool {
	id := tenant.IDFromContext(ctx)
	return id == nil || *id == p.OrganizationID
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok || !visible(ctx, p) {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) Update(ctx context.Context, p *Patient) error {
	old, ok := m.patients[p.ID]
	if !ok || !visible(ctx, old) {
		return ErrNotFound
	}
	p.OrganizationID = old.OrganizationID
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	p, ok := m.patients[id]
	if !ok || !visible(ctx, p) {
		return ErrNotFound
	}
	delete(m.patients, id)
	return nil
}

func (m *mockRepo) Search(ctx context.Context, f Filter, _ pagination.Params) ([]*Patient, int64, error) {
	m.lastF = f
	var out []*Patient
	for _, p := range m.patients {
		if !visible(ctx, p) {
			continue
		}
		if f.Name != "" && !strings.Contains(strings.ToLower(p.FirstName+" "+p.LastName), strings.ToLower(f.Name)) {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

// callerCtx is a request context for p whose tenant was never resolved.
func callerCtx(p *auth.Principal) context.Context {
	ctx, _ := tenant.WithContext(auth.WithPrincipal(context.Background(), p))
	return ctx
}

func tenantCtx(org string) context.Context {
	ctx, cell := tenant.WithContext(context.Background())
	cell.Set(org)
	return ctx
}
