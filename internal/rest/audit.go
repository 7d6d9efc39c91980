package rest

import (
	"context"
	"net/http"
	"pharmaSupply/domain"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

type AuditService interface {
	ListLogs(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditLog, domain.Pagination, error)
	LogStats(ctx context.Context, from, to *time.Time) (domain.AuditStats, error)
	ListSecurityEvents(ctx context.Context, filter domain.SecurityEventFilter) ([]domain.SecurityEvent, domain.Pagination, error)
	SecurityEventStats(ctx context.Context) (domain.SecurityEventStats, error)
	ResolveSecurityEvent(ctx context.Context, id, resolvedBy string) (domain.SecurityEvent, error)
	ActiveSessions(ctx context.Context, userID string) ([]domain.LoginSession, error)
	TerminateSession(ctx context.Context, sessionID string) error
	TerminateUserSessions(ctx context.Context, userID string) (int, error)
	CleanupExpiredSessions(ctx context.Context) error
}

type AuditHandler struct {
	auditService AuditService
	timeout      time.Duration
}

func NewAuditHandler(auditService AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		timeout:      defaultTimeout,
	}
}

func (h *AuditHandler) ListLogs(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, err := queryID(c, "userId")
	if err != nil {
		return writeError(c, err, "Invalid audit log filter")
	}

	logs, page, err := h.auditService.ListLogs(ctx, domain.AuditFilter{
		UserID:   userID,
		Action:   domain.AuditAction(strings.ToUpper(c.QueryParam("action"))),
		Resource: c.QueryParam("resource"),
		Severity: domain.Severity(strings.ToUpper(c.QueryParam("severity"))),
		Search:   c.QueryParam("search"),
		From:     queryTime(c, "startDate"),
		To:       queryTime(c, "endDate"),
		Page:     pageRequest(c),
	})
	if err != nil {
		return writeError(c, err, "Failed to list audit logs")
	}

	return c.JSON(http.StatusOK, paginated("logs", logs, page))
}

func (h *AuditHandler) LogStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	stats, err := h.auditService.LogStats(ctx, queryTime(c, "startDate"), queryTime(c, "endDate"))
	if err != nil {
		return writeError(c, err, "Failed to get audit log stats")
	}

	return c.JSON(http.StatusOK, stats)
}

func (h *AuditHandler) ListSecurityEvents(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, err := queryID(c, "userId")
	if err != nil {
		return writeError(c, err, "Invalid security event filter")
	}

	events, page, err := h.auditService.ListSecurityEvents(ctx, domain.SecurityEventFilter{
		UserID:    userID,
		EventType: c.QueryParam("eventType"),
		Severity:  domain.Severity(strings.ToUpper(c.QueryParam("severity"))),
		Resolved:  queryBool(c, "resolved"),
		From:      queryTime(c, "startDate"),
		To:        queryTime(c, "endDate"),
		Page:      pageRequest(c),
	})
	if err != nil {
		return writeError(c, err, "Failed to list security events")
	}

	return c.JSON(http.StatusOK, paginated("events", events, page))
}

func (h *AuditHandler) SecurityEventStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	stats, err := h.auditService.SecurityEventStats(ctx)
	if err != nil {
		return writeError(c, err, "Failed to get security event stats")
	}

	return c.JSON(http.StatusOK, stats)
}

func (h *AuditHandler) ResolveSecurityEvent(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, _ := caller(c)
	event, err := h.auditService.ResolveSecurityEvent(ctx, c.Param("id"), userID)
	if err != nil {
		return writeError(c, err, "Failed to resolve security event")
	}

	return c.JSON(http.StatusOK, event)
}

func (h *AuditHandler) ActiveSessions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, err := queryID(c, "userId")
	if err != nil {
		return writeError(c, err, "Invalid session filter")
	}

	sessions, err := h.auditService.ActiveSessions(ctx, userID)
	if err != nil {
		return writeError(c, err, "Failed to list active sessions")
	}

	return c.JSON(http.StatusOK, sessions)
}

func (h *AuditHandler) TerminateSession(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.auditService.TerminateSession(ctx, c.Param("sessionId")); err != nil {
		return writeError(c, err, "Failed to terminate session")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Session terminated successfully",
	})
}

func (h *AuditHandler) TerminateUserSessions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	n, err := h.auditService.TerminateUserSessions(ctx, c.Param("userId"))
	if err != nil {
		return writeError(c, err, "Failed to terminate user sessions")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":    "User sessions terminated successfully",
		"terminated": n,
	})
}

func (h *AuditHandler) CleanupSessions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.auditService.CleanupExpiredSessions(ctx); err != nil {
		return writeError(c, err, "Failed to clean up sessions")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Expired sessions cleaned up successfully",
	})
}
