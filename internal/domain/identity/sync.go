package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/records/internal/platform/auth"
	"github.com/ehr/records/internal/platform/metrics"
)

const (
	DefaultUsernameClaim = "preferred_username"
	DefaultEmailClaim    = "email"
)

// SyncService provisions a local User the first time an authenticated
// principal is seen. Sync never fails the request: every error is logged
// and counted, and the request proceeds.
type SyncService struct {
	repo          UserRepository
	logger        zerolog.Logger
	metrics       *metrics.Metrics
	usernameClaim string
	emailClaim    string
}

type SyncOption func(*SyncService)

// WithClaims overrides the claims read for the username and email.
func WithClaims(username, email string) SyncOption {
	return func(s *SyncService) {
		if username != "" {
			s.usernameClaim = username
		}
		if email != "" {
			s.emailClaim = email
		}
	}
}

func NewSyncService(repo UserRepository, logger zerolog.Logger, m *metrics.Metrics, opts ...SyncOption) *SyncService {
	s := &SyncService{
		repo:          repo,
		logger:        logger,
		metrics:       m,
		usernameClaim: DefaultUsernameClaim,
		emailClaim:    DefaultEmailClaim,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Sync ensures a User exists for p. It is a no-op for anonymous principals
// and for principals whose record already exists.
func (s *SyncService) Sync(ctx context.Context, p *auth.Principal) {
	if p.Anonymous() {
		return
	}
	if strings.TrimSpace(p.Subject) == "" {
		s.logger.Warn().Msg("authenticated principal without subject; skipping identity sync")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.fail(p.Subject, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := s.ensure(ctx, p); err != nil {
		s.fail(p.Subject, err)
	}
}

func (s *SyncService) ensure(ctx context.Context, p *auth.Principal) error {
	_, err := s.repo.GetByExternalID(ctx, p.Subject)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("lookup: %w", err)
	}

	u := s.userFrom(p)
	created, err := s.repo.Create(ctx, u)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	if !created {
		// A concurrent request for the same subject won the insert.
		return nil
	}

	s.metrics.IncIdentityProvisioned()
	s.logger.Info().
		Str("user_id", u.ID.String()).
		Str("external_id", u.ExternalID).
		Str("role", string(u.Role)).
		Msg("provisioned local user")
	return nil
}

func (s *SyncService) userFrom(p *auth.Principal) *User {
	username := strings.TrimSpace(p.StringClaim(s.usernameClaim))
	if username == "" {
		username = PlaceholderUsername(p.Subject)
	}
	email := strings.TrimSpace(p.StringClaim(s.emailClaim))
	if email == "" {
		email = PlaceholderEmail(p.Subject)
	}
	return &User{
		ExternalID: p.Subject,
		Username:   username,
		Email:      email,
		Role:       RoleFromGroups(p.Groups),
	}
}

func (s *SyncService) fail(subject string, err error) {
	s.metrics.IncIdentitySyncFailure()
	s.logger.Error().Err(err).
		Str("external_id", subject).
		Msg("identity sync failed; continuing request")
}

// Middleware runs Sync for every request after authentication.
func (s *SyncService) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			s.Sync(ctx, auth.PrincipalFromContext(ctx))
			return next(c)
		}
	}
}
