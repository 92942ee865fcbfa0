package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/records/internal/platform/auth"
	"github.com/ehr/records/internal/platform/tenant"
)

const apiPrefix = "/api/v1/"

// AuditEntry records who touched which clinical resource, in which tenant.
type AuditEntry struct {
	UserID     string
	TenantID   string
	Override   bool
	Resource   string
	ResourceID string
	Action     string // read, search, create, update, delete
	Method     string
	Path       string
	IPAddress  string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit logs every /api/v1 access after the handler ran. Recorder failures
// are logged and never fail the request.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !strings.HasPrefix(req.URL.Path, apiPrefix) {
				return next(c)
			}

			err := next(c)

			ctx := c.Request().Context()
			resource, id := splitResource(req.URL.Path)
			entry := AuditEntry{
				UserID:     auth.UserIDFromContext(ctx),
				Override:   req.Header.Get(tenant.OverrideHeader) != "",
				Resource:   resource,
				ResourceID: id,
				Action:     action(req.Method, id),
				Method:     req.Method,
				Path:       req.URL.Path,
				IPAddress:  c.RealIP(),
				RequestID:  requestID(c),
				StatusCode: c.Response().Status,
				Timestamp:  time.Now().UTC(),
			}
			if tid := tenant.IDFromContext(ctx); tid != nil {
				entry.TenantID = *tid
			}

			for _, r := range recorders {
				if r == nil {
					continue
				}
				if recErr := r.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).Str("request_id", entry.RequestID).Msg("failed to record audit entry")
				}
			}

			evt := logger.Info()
			if entry.Override {
				evt = logger.Warn()
			}
			evt.
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Str("tenant_id", entry.TenantID).
				Bool("tenant_override", entry.Override).
				Str("resource", entry.Resource).
				Str("resource_id", entry.ResourceID).
				Str("action", entry.Action).
				Int("status", entry.StatusCode).
				Msg("record_access")

			return err
		}
	}
}

// splitResource extracts "patients" and the id from /api/v1/patients/<id>.
// The id is only reported when it is a UUID.
func splitResource(path string) (string, string) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(path, apiPrefix), "/"), "/")
	resource := parts[0]
	if len(parts) > 1 {
		if _, err := uuid.Parse(parts[1]); err == nil {
			return resource, parts[1]
		}
	}
	return resource, ""
}

func action(method, id string) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		if id == "" {
			return "search"
		}
		return "read"
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return strings.ToLower(method)
	}
}
