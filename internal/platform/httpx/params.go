// Package httpx parses optional typed query parameters for list endpoints.
// An absent parameter yields nil; a malformed one yields a 400 error.
package httpx

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// DateLayout is the accepted format for date-only parameters.
const DateLayout = "2006-01-02"

func badParam(name, want string) error {
	return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s: expected %s", name, want))
}

// StringParam returns nil for an absent or blank parameter.
func StringParam(c echo.Context, name string) *string {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil
	}
	return &v
}

func UUIDParam(c echo.Context, name string) (*uuid.UUID, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, badParam(name, "uuid")
	}
	return &id, nil
}

func BoolParam(c echo.Context, name string) (*bool, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, badParam(name, "boolean")
	}
	return &b, nil
}

// TimeParam accepts RFC 3339 timestamps or plain dates.
func TimeParam(c echo.Context, name string) (*time.Time, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, DateLayout} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, badParam(name, "date (YYYY-MM-DD) or RFC 3339 timestamp")
}

// EndTimeParam is TimeParam for inclusive upper bounds: a plain date means
// the last instant of that day.
func EndTimeParam(c echo.Context, name string) (*time.Time, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(DateLayout, v); err == nil {
		end := t.AddDate(0, 0, 1).Add(-time.Microsecond)
		return &end, nil
	}
	return TimeParam(c, name)
}

// PathUUID parses the :id style path parameter.
func PathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
