package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/records/internal/platform/auth"
	"github.com/ehr/records/internal/platform/tenant"
)

const stackSize = 8 << 10

// Recovery turns a handler panic into a 500 and logs it with the request,
// caller and tenant it happened for. http.ErrAbortHandler is re-raised so
// net/http can abort the connection.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if e, ok := r.(error); ok && errors.Is(e, http.ErrAbortHandler) {
					panic(r)
				}

				stack := make([]byte, stackSize)
				stack = stack[:runtime.Stack(stack, false)]

				ctx := c.Request().Context()
				evt := logger.Error().
					Str("request_id", requestID(c)).
					Str("user_id", auth.UserIDFromContext(ctx)).
					Str("panic", fmt.Sprint(r)).
					Bytes("stack", stack)
				if id := tenant.IDFromContext(ctx); id != nil {
					evt = evt.Str("tenant_id", *id)
				}
				evt.Msg("panic recovered")

				err = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
			}()
			return next(c)
		}
	}
}
