package clinic

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/records/internal/platform/tenant"
	"github.com/ehr/records/pkg/pagination"
)

type mockRepo struct {
	clinics map[uuid.UUID]*Clinic
}

func newMockRepo() *mockRepo {
	return &mockRepo{clinics: make(map[uuid.UUID]*Clinic)}
}

func visible(ctx context.Context, c *Clinic) bool {
	id := tenant.IDFromContext(ctx)
	return id == nil || *id == c.OrganizationID
}

func (m *mockRepo) Create(_ context.Context, c *Clinic) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	m.clinics[c.ID] = c
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	c, ok := m.clinics[id]
	if !ok || !visible(ctx, c) {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *mockRepo) Update(ctx context.Context, c *Clinic) error {
	old, ok := m.clinics[c.ID]
	if !ok || !visible(ctx, old) {
		return ErrNotFound
	}
	c.OrganizationID = old.OrganizationID
	m.clinics[c.ID] = c
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	c, ok := m.clinics[id]
	if !ok || !visible(ctx, c) {
		return ErrNotFound
	}
	delete(m.clinics, id)
	return nil
}

func (m *mockRepo) Search(ctx context.Context, f Filter, _ pagination.Params) ([]*Clinic, int64, error) {
	var out []*Clinic
	for _, c := range m.clinics {
		if !visible(ctx, c) {
			continue
		}
		if f.Name != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Name)) {
			continue
		}
		if f.Active != nil && c.Active != *f.Active {
			continue
		}
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

// tenantCtx returns a context whose tenant cell holds org.
func tenantCtx(org string) context.Context {
	ctx, cell := tenant.WithContext(context.Background())
	cell.Set(org)
	return ctx
}
