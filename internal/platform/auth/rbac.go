package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// AdminGroup grants access to every guarded route.
const AdminGroup = "admin"

// RequireRole returns middleware that checks if the principal holds at least
// one of the specified groups. Anonymous requests get 401.
func RequireRole(groups ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFromContext(c.Request().Context())
			if p.Anonymous() {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if p.HasGroup(AdminGroup) {
				return next(c)
			}
			for _, required := range groups {
				if p.HasGroup(required) {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(groups, " or ")))
		}
	}
}
