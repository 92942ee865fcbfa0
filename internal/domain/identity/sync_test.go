package identity

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehr/records/internal/platform/auth"
	"github.com/ehr/records/internal/platform/metrics"
)

func newSync(repo UserRepository) (*SyncService, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	return NewSyncService(repo, zerolog.Nop(), m), m
}

func principal(sub string, claims map[string]interface{}, groups ...string) *auth.Principal {
	return &auth.Principal{Authenticated: true, Subject: sub, Claims: claims, Groups: groups}
}

func TestRoleFromGroups(t *testing.T) {
	tests := []struct {
		groups []string
		want   Role
	}{
		{[]string{"admin", "doctor"}, RoleAdmin},
		{[]string{"doctor", "admin"}, RoleAdmin},
		{[]string{"doctor"}, RoleDoctor},
		{[]string{"DOCTOR", "secretary"}, RoleDoctor},
		{[]string{"secretary"}, RoleSecretary},
		{[]string{"nurse"}, RoleUser},
		{nil, RoleUser},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoleFromGroups(tt.groups), "groups %v", tt.groups)
	}
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "user-abcdef12", PlaceholderUsername("abcdef1234567890"))
	assert.Equal(t, "abcdef12@placeholder.local", PlaceholderEmail("abcdef1234567890"))
	assert.Equal(t, "user-abc", PlaceholderUsername("abc"))
}

func TestSync_ProvisionsFromClaims(t *testing.T) {
	repo := newMockUserRepo()
	svc, m := newSync(repo)

	svc.Sync(context.Background(), principal("sub-1", map[string]interface{}{
		"preferred_username": "jdoe",
		"email":              "jdoe@clinic.test",
	}, "doctor"))

	u := repo.users["sub-1"]
	require.NotNil(t, u)
	assert.Equal(t, "jdoe", u.Username)
	assert.Equal(t, "jdoe@clinic.test", u.Email)
	assert.Equal(t, RoleDoctor, u.Role)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdentityProvisioned))
}

func TestSync_PlaceholdersWhenClaimsMissing(t *testing.T) {
	repo := newMockUserRepo()
	svc, _ := newSync(repo)

	svc.Sync(context.Background(), principal("0123456789abcdef", nil))

	u := repo.users["0123456789abcdef"]
	require.NotNil(t, u)
	assert.Equal(t, "user-01234567", u.Username)
	assert.Equal(t, "01234567@placeholder.local", u.Email)
	assert.Equal(t, RoleUser, u.Role)
}

func TestSync_Idempotent(t *testing.T) {
	repo := newMockUserRepo()
	svc, m := newSync(repo)
	p := principal("sub-1", map[string]interface{}{"preferred_username": "first"}, "admin")

	svc.Sync(context.Background(), p)
	p.Claims["preferred_username"] = "changed"
	p.Groups = nil
	svc.Sync(context.Background(), p)

	assert.Len(t, repo.users, 1)
	assert.Equal(t, 1, repo.creates)
	assert.Equal(t, "first", repo.users["sub-1"].Username)
	assert.Equal(t, RoleAdmin, repo.users["sub-1"].Role)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdentityProvisioned))
}

func TestSync_ConcurrentFirstRequests(t *testing.T) {
	repo := newMockUserRepo()
	svc, m := newSync(repo)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Sync(context.Background(), principal("sub-race", nil))
		}()
	}
	wg.Wait()

	assert.Len(t, repo.users, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdentityProvisioned))
	assert.Zero(t, testutil.ToFloat64(m.IdentitySyncFailures))
}

func TestSync_AnonymousAndBlankSubject(t *testing.T) {
	repo := newMockUserRepo()
	svc, _ := newSync(repo)

	svc.Sync(context.Background(), nil)
	svc.Sync(context.Background(), &auth.Principal{})
	svc.Sync(context.Background(), principal("   ", nil))

	assert.Empty(t, repo.users)
	assert.Zero(t, repo.creates)
}

func TestSync_FailOpen(t *testing.T) {
	tests := []struct {
		name string
		repo *mockUserRepo
	}{
		{"lookup error", &mockUserRepo{users: map[string]*User{}, getErr: errDB}},
		{"create error", &mockUserRepo{users: map[string]*User{}, createErr: errDB}},
		{"panic", &mockUserRepo{users: map[string]*User{}, panicOn: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newSync(tt.repo)
			assert.NotPanics(t, func() {
				svc.Sync(context.Background(), principal("sub-1", nil))
			})
			assert.Equal(t, 1.0, testutil.ToFloat64(m.IdentitySyncFailures))
			assert.Empty(t, tt.repo.users)
		})
	}
}

func TestSync_CustomClaims(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewSyncService(repo, zerolog.Nop(), nil, WithClaims("upn", "mail"))

	svc.Sync(context.Background(), principal("sub-1", map[string]interface{}{
		"upn":  "alice",
		"mail": "alice@clinic.test",
	}))

	u := repo.users["sub-1"]
	require.NotNil(t, u)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@clinic.test", u.Email)
}
