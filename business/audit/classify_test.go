package audit

import (
	"net/http"
	"pharmaSupply/domain"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionFor(t *testing.T) {
	assert.Equal(t, domain.AuditRead, ActionFor(http.MethodGet))
	assert.Equal(t, domain.AuditCreate, ActionFor(http.MethodPost))
	assert.Equal(t, domain.AuditUpdate, ActionFor(http.MethodPut))
	assert.Equal(t, domain.AuditUpdate, ActionFor(http.MethodPatch))
	assert.Equal(t, domain.AuditDelete, ActionFor(http.MethodDelete))
}

func TestResourceFor(t *testing.T) {
	cases := map[string]string{
		"/orders/123/status": "Order",
		"/templates":         "OrderTemplate",
		"/auth/profile":      "Authentication",
		"/widgets/1":         "Widgets",
		"/":                  "Unknown",
	}
	for path, want := range cases {
		assert.Equal(t, want, ResourceFor(path), path)
	}
}

func TestSeverityFor(t *testing.T) {
	assert.Equal(t, domain.SeverityLow, SeverityFor(domain.AuditRead, 200))
	assert.Equal(t, domain.SeverityMedium, SeverityFor(domain.AuditCreate, 201))
	assert.Equal(t, domain.SeverityMedium, SeverityFor(domain.AuditDelete, 200))
	assert.Equal(t, domain.SeverityMedium, SeverityFor(domain.AuditRead, 404))
	assert.Equal(t, domain.SeverityHigh, SeverityFor(domain.AuditUpdate, 500))
}

func TestShouldSkip(t *testing.T) {
	assert.True(t, ShouldSkip("/health/ready"))
	assert.True(t, ShouldSkip("/audit/logs"))
	assert.True(t, ShouldSkip("/auth/login"))
	assert.True(t, ShouldSkip("/auth/register-admin"))
	assert.False(t, ShouldSkip("/auth/logout"))
	assert.False(t, ShouldSkip("/orders"))
}

func TestSecurityEventFor(t *testing.T) {
	typ, ok := SecurityEventFor(http.StatusUnauthorized)
	assert.True(t, ok)
	assert.Equal(t, domain.SecurityUnauthorizedAccess, typ)

	typ, ok = SecurityEventFor(http.StatusForbidden)
	assert.True(t, ok)
	assert.Equal(t, domain.SecurityForbiddenAccess, typ)

	_, ok = SecurityEventFor(http.StatusNotFound)
	assert.False(t, ok)
}

func TestFromRequest(t *testing.T) {
	log, event := FromRequest(RequestInfo{
		Method:    http.MethodDelete,
		Path:      "/medicines/abc",
		Status:    http.StatusOK,
		UserID:    "u1",
		IPAddress: "10.0.0.1",
	})

	assert.Equal(t, domain.AuditDelete, log.Action)
	assert.Equal(t, "Medicine", log.Resource)
	assert.Equal(t, "abc", log.ResourceID)
	assert.Equal(t, "DELETE /medicines/abc", log.Description)
	assert.Equal(t, domain.SeverityMedium, log.Severity)
	if assert.NotNil(t, log.UserID) {
		assert.Equal(t, "u1", *log.UserID)
	}
	assert.JSONEq(t, `{"method":"DELETE","path":"/medicines/abc","status_code":200,"duration_ms":0}`, string(log.Details))
	assert.Nil(t, event)
}

func TestFromRequest_ForbiddenRaisesSecurityEvent(t *testing.T) {
	log, event := FromRequest(RequestInfo{Method: http.MethodGet, Path: "/users", Status: http.StatusForbidden})

	assert.Nil(t, log.UserID)
	assert.Empty(t, log.ResourceID)
	if assert.NotNil(t, event) {
		assert.Equal(t, domain.SecurityForbiddenAccess, event.EventType)
	}
}
