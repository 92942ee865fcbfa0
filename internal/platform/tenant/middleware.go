package tenant

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/records/internal/platform/auth"
	"github.com/ehr/records/internal/platform/metrics"
)

const (
	// DefaultClaim is the token claim naming the caller's organization.
	DefaultClaim = "organization_id"
	// OverrideHeader lets an admin act on another organization.
	OverrideHeader = "X-Tenant-Override"
)

// Middleware attaches a fresh, empty tenant cell to every request and
// clears it once the request is done, so work that outlives the request
// no longer carries its tenant.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cell := WithContext(c.Request().Context())
			defer cell.Clear()
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// AdminOverride pre-sets the tenant from OverrideHeader when the principal is
// an admin. The header is ignored for everyone else.
func AdminOverride(logger zerolog.Logger, m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := strings.TrimSpace(c.Request().Header.Get(OverrideHeader))
			if id == "" {
				return next(c)
			}
			ctx := c.Request().Context()
			p := auth.PrincipalFromContext(ctx)
			cell := FromContext(ctx)
			if cell == nil || !p.HasGroup(auth.AdminGroup) {
				logger.Warn().
					Str("user_id", auth.UserIDFromContext(ctx)).
					Msg("ignoring tenant override from non-admin principal")
				return next(c)
			}
			cell.Set(id)
			m.IncTenantResolved("override")
			logger.Info().
				Str("user_id", p.Subject).
				Str("tenant_id", id).
				Msg("cross-tenant override")
			return next(c)
		}
	}
}

// Resolver fills the tenant cell from the principal's claim.
// Anonymous requests are skipped. A value already in the cell wins.
// A missing or blank claim leaves the cell unset and is only logged.
type Resolver struct {
	claim   string
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewResolver(claim string, logger zerolog.Logger, m *metrics.Metrics) *Resolver {
	if claim == "" {
		claim = DefaultClaim
	}
	return &Resolver{claim: claim, logger: logger, metrics: m}
}

// Resolve applies the resolution rules to the cell in ctx.
func (r *Resolver) Resolve(c echo.Context) {
	ctx := c.Request().Context()
	p := auth.PrincipalFromContext(ctx)
	if p.Anonymous() {
		return
	}
	cell := FromContext(ctx)
	if cell == nil {
		return
	}
	if _, ok := cell.Get(); ok {
		return
	}

	id := p.StringClaim(r.claim)
	if strings.TrimSpace(id) == "" {
		r.metrics.IncTenantClaimMissing()
		r.logger.Warn().
			Str("user_id", p.Subject).
			Str("claim", r.claim).
			Str("path", c.Request().URL.Path).
			Msg("no tenant claim on token; tenant left unset")
		return
	}
	cell.Set(id)
	r.metrics.IncTenantResolved("claim")
}

func (r *Resolver) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r.Resolve(c)
			return next(c)
		}
	}
}

// RequireResolved rejects requests whose tenant is still unset. Admins pass
// so they can work across organizations.
func RequireResolved() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if IDFromContext(ctx) != nil || auth.PrincipalFromContext(ctx).HasGroup(auth.AdminGroup) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden, "tenant could not be resolved")
		}
	}
}
