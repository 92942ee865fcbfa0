package auth

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// DefaultGroupsClaim is the Keycloak location of realm roles.
const DefaultGroupsClaim = "realm_access.roles"

type JWTConfig struct {
	Issuer   string
	Audience string
	JWKSURL  string
	// GroupsClaim is the dotted path to the group/role list in the token.
	GroupsClaim string
	// SigningKey is used for development/testing only
	SigningKey []byte
}

// JWTMiddleware validates bearer tokens and stores the resulting Principal on
// the request context. Requests without an Authorization header continue as
// anonymous; route guards decide whether that is acceptable. A malformed or
// invalid token is rejected with 401.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	groupsClaim := cfg.GroupsClaim
	if groupsClaim == "" {
		groupsClaim = DefaultGroupsClaim
	}

	var keys *KeySet
	algs := []string{"RS256"}
	if len(cfg.SigningKey) > 0 {
		algs = []string{"HS256"}
	} else {
		keys = NewKeySet(cfg.JWKSURL, cfg.Issuer, 0)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(algs),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" || AuthSkipper(c) {
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			keyFunc := func(*jwt.Token) (interface{}, error) { return cfg.SigningKey, nil }
			if keys != nil {
				keyFunc = keys.Keyfunc(c.Request().Context())
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, keyFunc, opts...)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			subject, _ := claims.GetSubject()
			p := &Principal{
				Authenticated: true,
				Subject:       subject,
				Groups:        ClaimStrings(claims, groupsClaim),
				Claims:        claims,
			}
			c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), p)))
			return next(c)
		}
	}
}

// DevAuthMiddleware authenticates every header-less request as an admin of
// the "default" organization. Requests with a token fall through to next
// unchanged.
func DevAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") != "" {
				return next(c)
			}
			p := &Principal{
				Authenticated: true,
				Subject:       "dev-user",
				Groups:        []string{"admin"},
				Claims: map[string]interface{}{
					"sub":                "dev-user",
					"preferred_username": "dev",
					"email":              "dev@localhost",
					"organization_id":    "default",
				},
			}
			c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), p)))
			return next(c)
		}
	}
}
