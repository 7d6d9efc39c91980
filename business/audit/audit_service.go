package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"pharmaSupply/domain"
	"pharmaSupply/pkg/logger"
	"time"

	"gorm.io/datatypes"
)

type AuditRepository interface {
	FindLogs(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditLog, int64, error)
	LogStats(ctx context.Context, from, to *time.Time) (domain.AuditStats, error)
	FindSecurityEvents(ctx context.Context, filter domain.SecurityEventFilter) ([]domain.SecurityEvent, int64, error)
	SecurityEventStats(ctx context.Context) (domain.SecurityEventStats, error)
	ResolveSecurityEvent(ctx context.Context, id, resolvedBy string, at time.Time) (domain.SecurityEvent, error)
	CreateSession(ctx context.Context, s *domain.LoginSession) error
	ActiveSessions(ctx context.Context, userID string, now time.Time) ([]domain.LoginSession, error)
	TerminateSession(ctx context.Context, sessionID string) error
	TerminateUserSessions(ctx context.Context, userID string) ([]string, error)
	ExpireSessions(ctx context.Context, now time.Time) (int64, error)
}

// SessionCache mirrors active sessions for token checks.
type SessionCache interface {
	Delete(ctx context.Context, sessionID string) error
	DeleteUser(ctx context.Context, userID string) error
}

// Sink accepts audit records for asynchronous persistence.
type Sink interface {
	Log(log *domain.AuditLog) bool
	SecurityEvent(e *domain.SecurityEvent) bool
}

type AuditService struct {
	repo  AuditRepository
	cache SessionCache
	sink  Sink
	now   func() time.Time
}

func NewAuditService(repo AuditRepository, cache SessionCache, sink Sink) *AuditService {
	return &AuditService{
		repo:  repo,
		cache: cache,
		sink:  sink,
		now:   time.Now,
	}
}

const (
	defaultAuditLimit = 20
	maxAuditLimit     = 100
)

func detailsJSON(v map[string]any) datatypes.JSON {
	if len(v) == 0 {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func (s *AuditService) Record(log *domain.AuditLog) {
	s.sink.Log(log)
}

func (s *AuditService) RecordSecurityEvent(e *domain.SecurityEvent) {
	s.sink.SecurityEvent(e)
}

func (s *AuditService) LogLogin(userID string, client domain.ClientInfo) {
	s.sink.Log(&domain.AuditLog{
		UserID:      &userID,
		Action:      domain.AuditLogin,
		Resource:    "Authentication",
		Description: "User logged in",
		IPAddress:   client.IPAddress,
		UserAgent:   client.UserAgent,
		Severity:    domain.SeverityLow,
	})
}

func (s *AuditService) LogLogout(userID string, client domain.ClientInfo) {
	s.sink.Log(&domain.AuditLog{
		UserID:      &userID,
		Action:      domain.AuditLogout,
		Resource:    "Authentication",
		Description: "User logged out",
		IPAddress:   client.IPAddress,
		UserAgent:   client.UserAgent,
		Severity:    domain.SeverityLow,
	})
}

func (s *AuditService) LogFailedLogin(email string, client domain.ClientInfo) {
	s.sink.SecurityEvent(&domain.SecurityEvent{
		EventType:   domain.SecurityFailedLogin,
		Description: fmt.Sprintf("Failed login attempt for %s", email),
		IPAddress:   client.IPAddress,
		UserAgent:   client.UserAgent,
		Severity:    domain.SeverityMedium,
		Metadata:    detailsJSON(map[string]any{"email": email}),
	})
}

func (s *AuditService) ListLogs(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditLog, domain.Pagination, error) {
	filter.Page = domain.NormalizePage(filter.Page.Page, filter.Page.Limit, defaultAuditLimit, maxAuditLimit)
	logs, total, err := s.repo.FindLogs(ctx, filter)
	if err != nil {
		logger.Error("Failed to list audit logs", "error", err)
		return nil, domain.Pagination{}, err
	}
	return logs, domain.NewPagination(filter.Page.Page, filter.Page.Limit, total), nil
}

func (s *AuditService) LogStats(ctx context.Context, from, to *time.Time) (domain.AuditStats, error) {
	return s.repo.LogStats(ctx, from, to)
}

func (s *AuditService) ListSecurityEvents(ctx context.Context, filter domain.SecurityEventFilter) ([]domain.SecurityEvent, domain.Pagination, error) {
	filter.Page = domain.NormalizePage(filter.Page.Page, filter.Page.Limit, defaultAuditLimit, maxAuditLimit)
	events, total, err := s.repo.FindSecurityEvents(ctx, filter)
	if err != nil {
		logger.Error("Failed to list security events", "error", err)
		return nil, domain.Pagination{}, err
	}
	return events, domain.NewPagination(filter.Page.Page, filter.Page.Limit, total), nil
}

func (s *AuditService) SecurityEventStats(ctx context.Context) (domain.SecurityEventStats, error) {
	return s.repo.SecurityEventStats(ctx)
}

func (s *AuditService) ResolveSecurityEvent(ctx context.Context, id, resolvedBy string) (domain.SecurityEvent, error) {
	return s.repo.ResolveSecurityEvent(ctx, id, resolvedBy, s.now().UTC())
}

func (s *AuditService) CreateSession(ctx context.Context, session *domain.LoginSession) error {
	if session.LastActivity.IsZero() {
		session.LastActivity = s.now().UTC()
	}
	session.IsActive = true
	return s.repo.CreateSession(ctx, session)
}

func (s *AuditService) ActiveSessions(ctx context.Context, userID string) ([]domain.LoginSession, error) {
	return s.repo.ActiveSessions(ctx, userID, s.now().UTC())
}

func (s *AuditService) TerminateSession(ctx context.Context, sessionID string) error {
	if err := s.repo.TerminateSession(ctx, sessionID); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		logger.Warn("Failed to drop cached session", "session_id", sessionID, "error", err)
	}
	return nil
}

// TerminateUserSessions ends every active session of the user and returns how many.
func (s *AuditService) TerminateUserSessions(ctx context.Context, userID string) (int, error) {
	ids, err := s.repo.TerminateUserSessions(ctx, userID)
	if err != nil {
		logger.Error("Failed to terminate sessions", "user_id", userID, "error", err)
		return 0, err
	}
	if err := s.cache.DeleteUser(ctx, userID); err != nil {
		logger.Warn("Failed to drop cached sessions", "user_id", userID, "error", err)
	}
	return len(ids), nil
}

// CleanupExpiredSessions deactivates sessions past expiry. Cached entries
// expire on their own TTL.
func (s *AuditService) CleanupExpiredSessions(ctx context.Context) error {
	n, err := s.repo.ExpireSessions(ctx, s.now().UTC())
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Info("Expired login sessions", "count", n)
	}
	return nil
}
