package audit

import (
	"fmt"
	"net/http"
	"pharmaSupply/domain"
	"strings"
	"time"
)

var resourceNames = map[string]string{
	"users":         "User",
	"orders":        "Order",
	"medicines":     "Medicine",
	"notifications": "Notification",
	"analytics":     "Analytics",
	"settings":      "Setting",
	"invoices":      "Invoice",
	"templates":     "OrderTemplate",
	"reports":       "Report",
	"dashboard":     "Dashboard",
	"auth":          "Authentication",
}

var skippedPrefixes = []string{"/health", "/metrics", "/audit", "/auth/login", "/auth/register"}

// ShouldSkip reports whether a path, relative to the API root, is not audited.
func ShouldSkip(path string) bool {
	for _, p := range skippedPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func ActionFor(method string) domain.AuditAction {
	switch method {
	case http.MethodPost:
		return domain.AuditCreate
	case http.MethodPut, http.MethodPatch:
		return domain.AuditUpdate
	case http.MethodDelete:
		return domain.AuditDelete
	}
	return domain.AuditRead
}

// ResourceFor maps the first path segment to a resource name.
func ResourceFor(path string) string {
	seg := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(seg, '/'); i >= 0 {
		seg = seg[:i]
	}
	if name, ok := resourceNames[seg]; ok {
		return name
	}
	if seg == "" {
		return "Unknown"
	}
	return strings.ToUpper(seg[:1]) + seg[1:]
}

func SeverityFor(action domain.AuditAction, status int) domain.Severity {
	switch {
	case status >= 500:
		return domain.SeverityHigh
	case status >= 400, action == domain.AuditCreate, action == domain.AuditDelete:
		return domain.SeverityMedium
	}
	return domain.SeverityLow
}

// SecurityEventFor returns the event type raised for a response status, if any.
func SecurityEventFor(status int) (string, bool) {
	switch status {
	case http.StatusUnauthorized:
		return domain.SecurityUnauthorizedAccess, true
	case http.StatusForbidden:
		return domain.SecurityForbiddenAccess, true
	}
	return "", false
}

// RequestInfo is what the HTTP layer knows about a finished request.
type RequestInfo struct {
	Method    string
	Path      string
	Status    int
	UserID    string
	IPAddress string
	UserAgent string
	Duration  time.Duration
}

// resourceIDFor returns the segment after the resource name, if any.
func resourceIDFor(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// FromRequest builds the audit record for a request and, for 401/403
// responses, the matching security event.
func FromRequest(r RequestInfo) (*domain.AuditLog, *domain.SecurityEvent) {
	action := ActionFor(r.Method)
	var userID *string
	if r.UserID != "" {
		id := r.UserID
		userID = &id
	}

	log := &domain.AuditLog{
		UserID:      userID,
		Action:      action,
		Resource:    ResourceFor(r.Path),
		ResourceID:  resourceIDFor(r.Path),
		Description: fmt.Sprintf("%s %s", r.Method, r.Path),
		Details: detailsJSON(map[string]any{
			"method":      r.Method,
			"path":        r.Path,
			"status_code": r.Status,
			"duration_ms": r.Duration.Milliseconds(),
		}),
		IPAddress: r.IPAddress,
		UserAgent: r.UserAgent,
		Severity:  SeverityFor(action, r.Status),
	}

	eventType, ok := SecurityEventFor(r.Status)
	if !ok {
		return log, nil
	}
	return log, &domain.SecurityEvent{
		UserID:      userID,
		EventType:   eventType,
		Description: fmt.Sprintf("%s %s returned %d", r.Method, r.Path, r.Status),
		IPAddress:   r.IPAddress,
		UserAgent:   r.UserAgent,
		Severity:    domain.SeverityHigh,
		Metadata:    detailsJSON(map[string]any{"path": r.Path, "status_code": r.Status}),
	}
}
