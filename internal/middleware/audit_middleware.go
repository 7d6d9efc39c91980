package middleware

import (
	"pharmaSupply/business/audit"
	"pharmaSupply/domain"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// AuditRecorder accepts audit records without blocking the request.
type AuditRecorder interface {
	Record(log *domain.AuditLog)
	RecordSecurityEvent(e *domain.SecurityEvent)
}

// Audit records every request under prefix once the handler has finished.
// It must run inside Auth so the user id is known.
func Audit(recorder AuditRecorder, prefix string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := strings.TrimPrefix(c.Request().URL.Path, prefix)
			if audit.ShouldSkip(path) {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			log, event := audit.FromRequest(audit.RequestInfo{
				Method:    c.Request().Method,
				Path:      path,
				Status:    c.Response().Status,
				UserID:    UserID(c),
				IPAddress: c.RealIP(),
				UserAgent: c.Request().UserAgent(),
				Duration:  time.Since(start),
			})
			recorder.Record(log)
			if event != nil {
				recorder.RecordSecurityEvent(event)
			}
			return nil
		}
	}
}
