package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths bypass authentication and rate limiting.
var publicPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// AuthSkipper reports whether the matched route is a public infrastructure
// endpoint.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}
