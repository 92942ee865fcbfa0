package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/records/pkg/pagination"
)

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*User // keyed by external id

	getErr    error
	createErr error
	panicOn   bool
	creates   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*User)}
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockUserRepo) GetByExternalID(_ context.Context, externalID string) (*User, error) {
	if m.panicOn {
		panic("boom")
	}
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[externalID]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) Create(_ context.Context, u *User) (bool, error) {
	if m.createErr != nil {
		return false, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if _, ok := m.users[u.ExternalID]; ok {
		return false, nil
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now()
	m.users[u.ExternalID] = u
	return true, nil
}

func (m *mockUserRepo) Search(_ context.Context, f UserFilter, p pagination.Params) ([]*User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*User
	for _, u := range m.users {
		if f.Username != "" && !strings.Contains(strings.ToLower(u.Username), strings.ToLower(f.Username)) {
			continue
		}
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

var errDB = errors.New("connection refused")
