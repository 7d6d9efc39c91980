package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"pharmaSupply/domain"
	"pharmaSupply/pkg/utils"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSessions struct {
	active map[string]bool
	err    error
}

func (s stubSessions) Validate(ctx context.Context, sessionID, userID string) (bool, error) {
	return s.active[sessionID], s.err
}

type captureRecorder struct {
	logs   []*domain.AuditLog
	events []*domain.SecurityEvent
}

func (r *captureRecorder) Record(log *domain.AuditLog) { r.logs = append(r.logs, log) }
func (r *captureRecorder) RecordSecurityEvent(e *domain.SecurityEvent) { r.events = append(r.events, e) }

var jwtm = utils.NewJWTManager("test-secret-0123456789", 15*time.Minute, time.Hour)

func serve(t *testing.T, e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newEcho(sessions SessionValidator, mws ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	chain := append([]echo.MiddlewareFunc{Auth(jwtm, sessions)}, mws...)
	e.GET("/secure", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"user_id":    UserID(c),
			"role":       string(RoleOf(c)),
			"session_id": SessionID(c),
		})
	}, chain...)
	return e
}

func TestAuth(t *testing.T) {
	sessions := stubSessions{active: map[string]bool{"s1": true}}
	access, err := jwtm.GenerateAccessToken("u1", "PROVIDER", "s1")
	require.NoError(t, err)
	refresh, err := jwtm.GenerateRefreshToken("u1", "PROVIDER", "s1")
	require.NoError(t, err)
	ended, err := jwtm.GenerateAccessToken("u1", "PROVIDER", "s2")
	require.NoError(t, err)

	e := newEcho(sessions)

	rec := serve(t, e, http.MethodGet, "/secure", access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":"u1","role":"PROVIDER","session_id":"s1"}`, rec.Body.String())

	for name, token := range map[string]string{"missing": "", "garbage": "abc", "refresh": refresh, "ended session": ended} {
		rec := serve(t, e, http.MethodGet, "/secure", token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
}

func TestAuth_SessionStoreDown(t *testing.T) {
	access, err := jwtm.GenerateAccessToken("u1", "ADMIN", "s1")
	require.NoError(t, err)

	e := newEcho(stubSessions{err: errors.New("redis down")})
	rec := serve(t, e, http.MethodGet, "/secure", access)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequireCapability(t *testing.T) {
	sessions := stubSessions{active: map[string]bool{"s1": true, "s2": true}}
	provider, _ := jwtm.GenerateAccessToken("u1", "PROVIDER", "s1")
	admin, _ := jwtm.GenerateAccessToken("u2", "ADMIN", "s2")

	e := newEcho(sessions, RequireCapability(domain.CapManageInventory))
	assert.Equal(t, http.StatusForbidden, serve(t, e, http.MethodGet, "/secure", provider).Code)
	assert.Equal(t, http.StatusOK, serve(t, e, http.MethodGet, "/secure", admin).Code)

	e = newEcho(sessions, RequireRoles(domain.RoleProvider))
	assert.Equal(t, http.StatusOK, serve(t, e, http.MethodGet, "/secure", provider).Code)
	assert.Equal(t, http.StatusForbidden, serve(t, e, http.MethodGet, "/secure", admin).Code)
}

func TestAudit_RecordsAfterHandler(t *testing.T) {
	sessions := stubSessions{active: map[string]bool{"s1": true}}
	token, _ := jwtm.GenerateAccessToken("u1", "ADMIN", "s1")
	rec := &captureRecorder{}

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	api := e.Group("/api/v1", Auth(jwtm, sessions), Audit(rec, "/api/v1"))
	api.DELETE("/medicines/:id", func(c echo.Context) error {
		return domain.NewNotFound("Medicine", c.Param("id"))
	})
	api.GET("/audit/logs", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	res := serve(t, e, http.MethodDelete, "/api/v1/medicines/m1", token)
	assert.Equal(t, http.StatusNotFound, res.Code)

	serve(t, e, http.MethodGet, "/api/v1/audit/logs", token)

	require.Len(t, rec.logs, 1)
	log := rec.logs[0]
	assert.Equal(t, domain.AuditDelete, log.Action)
	assert.Equal(t, "Medicine", log.Resource)
	assert.Equal(t, "m1", log.ResourceID)
	assert.Equal(t, domain.SeverityMedium, log.Severity)
	assert.Empty(t, rec.events)
}

func TestErrorHandler_MapsDomainErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.NewValidation("bad"), http.StatusBadRequest},
		{domain.NewNotFound("Order", "1"), http.StatusNotFound},
		{domain.NewConflict("Medicine %s is referenced by orders", "m1"), http.StatusConflict},
		{domain.NewUnauthorized("no"), http.StatusUnauthorized},
		{domain.NewForbidden("no"), http.StatusForbidden},
		{echo.NewHTTPError(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed},
		{errors.New("db exploded"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		ErrorHandler(tc.err, c)
		assert.Equal(t, tc.want, rec.Code, tc.err.Error())
	}
}

func TestRequestID(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	var seen string
	e.GET("/", func(c echo.Context) error {
		seen = RequestIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(echo.HeaderXRequestID))

	rec = serve(t, e, http.MethodGet, "/", "")
	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 36)
}

func TestRateLimit(t *testing.T) {
	e := echo.New()
	e.Use(RateLimit(2, time.Minute))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(t, e, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusOK, serve(t, e, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(t, e, http.MethodGet, "/", "").Code)
}

func TestUUIDParams(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.Use(UUIDParams("id", "userId"))
	reached := 0
	ok := func(c echo.Context) error {
		reached++
		return c.NoContent(http.StatusOK)
	}
	e.GET("/orders/:id", ok)
	e.DELETE("/audit/sessions/user/:userId", ok)
	e.GET("/settings/:key", ok)
	e.DELETE("/audit/sessions/:sessionId", ok)

	rec := serve(t, e, http.MethodGet, "/orders/not-a-uuid", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not-a-uuid")

	assert.Equal(t, http.StatusNotFound, serve(t, e, http.MethodDelete, "/audit/sessions/user/42", "").Code)
	assert.Equal(t, 0, reached)

	assert.Equal(t, http.StatusOK, serve(t, e, http.MethodGet, "/orders/"+uuid.NewString(), "").Code)
	assert.Equal(t, http.StatusOK, serve(t, e, http.MethodGet, "/settings/site_name", "").Code)
	assert.Equal(t, http.StatusOK, serve(t, e, http.MethodDelete, "/audit/sessions/9f86d081884c7d65", "").Code)
	assert.Equal(t, 3, reached)
}
