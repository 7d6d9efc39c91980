package postgres

import (
	"context"
	"fmt"
	"pharmaSupply/domain"
	"time"

	"gorm.io/gorm"
)

type AuditRepository struct {
	DB *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{
		DB: db,
	}
}

func (r *AuditRepository) CreateLog(ctx context.Context, log *domain.AuditLog) error {
	if err := conn(ctx, r.DB).Create(log).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func applyRange(q *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		q = q.Where("created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("created_at <= ?", *to)
	}
	return q
}

func (r *AuditRepository) FindLogs(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditLog, int64, error) {
	q := conn(ctx, r.DB).Model(&domain.AuditLog{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.Resource != "" {
		q = q.Where("resource = ?", filter.Resource)
	}
	if filter.Severity != "" {
		q = q.Where("severity = ?", filter.Severity)
	}
	if filter.Search != "" {
		q = q.Where("description ILIKE ?", likePattern(filter.Search))
	}
	q = applyRange(q, filter.From, filter.To)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	var out []domain.AuditLog
	err := q.Preload("User").Order("created_at DESC").Scopes(paginate(filter.Page)).Find(&out).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find audit logs: %w", err)
	}
	return out, total, nil
}

func (r *AuditRepository) LogStats(ctx context.Context, from, to *time.Time) (domain.AuditStats, error) {
	var rows []struct {
		Severity domain.Severity
		Count    int64
	}
	q := applyRange(conn(ctx, r.DB).Model(&domain.AuditLog{}), from, to)
	if err := q.Select("severity, COUNT(*) AS count").Group("severity").Scan(&rows).Error; err != nil {
		return domain.AuditStats{}, fmt.Errorf("failed to aggregate audit logs: %w", err)
	}

	stats := domain.AuditStats{BySeverity: make(map[domain.Severity]int64, len(domain.Severities))}
	for _, s := range domain.Severities {
		stats.BySeverity[s] = 0
	}
	for _, rw := range rows {
		stats.BySeverity[rw.Severity] = rw.Count
		stats.Total += rw.Count
	}
	return stats, nil
}

func (r *AuditRepository) CreateSecurityEvent(ctx context.Context, e *domain.SecurityEvent) error {
	if err := conn(ctx, r.DB).Create(e).Error; err != nil {
		return fmt.Errorf("failed to create security event: %w", err)
	}
	return nil
}

func (r *AuditRepository) FindSecurityEvents(ctx context.Context, filter domain.SecurityEventFilter) ([]domain.SecurityEvent, int64, error) {
	q := conn(ctx, r.DB).Model(&domain.SecurityEvent{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.EventType != "" {
		q = q.Where("event_type = ?", filter.EventType)
	}
	if filter.Severity != "" {
		q = q.Where("severity = ?", filter.Severity)
	}
	if filter.Resolved != nil {
		q = q.Where("resolved = ?", *filter.Resolved)
	}
	q = applyRange(q, filter.From, filter.To)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count security events: %w", err)
	}

	var out []domain.SecurityEvent
	err := q.Preload("User").Order("created_at DESC").Scopes(paginate(filter.Page)).Find(&out).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find security events: %w", err)
	}
	return out, total, nil
}

func (r *AuditRepository) SecurityEventStats(ctx context.Context) (domain.SecurityEventStats, error) {
	var stats domain.SecurityEventStats
	err := conn(ctx, r.DB).Model(&domain.SecurityEvent{}).
		Select(`COUNT(*) AS total,
			COUNT(*) FILTER (WHERE NOT resolved) AS unresolved,
			COUNT(*) FILTER (WHERE severity = ?) AS critical,
			COUNT(*) FILTER (WHERE severity = ?) AS high`, domain.SeverityCritical, domain.SeverityHigh).
		Scan(&stats).Error
	if err != nil {
		return domain.SecurityEventStats{}, fmt.Errorf("failed to aggregate security events: %w", err)
	}
	return stats, nil
}

func (r *AuditRepository) ResolveSecurityEvent(ctx context.Context, id, resolvedBy string, at time.Time) (domain.SecurityEvent, error) {
	result := conn(ctx, r.DB).Model(&domain.SecurityEvent{}).Where("id = ?", id).
		Updates(map[string]interface{}{"resolved": true, "resolved_at": at, "resolved_by": resolvedBy})
	if result.Error != nil && !isInvalidText(result.Error) {
		return domain.SecurityEvent{}, fmt.Errorf("failed to resolve security event: %w", result.Error)
	}
	if result.Error != nil || result.RowsAffected == 0 {
		return domain.SecurityEvent{}, domain.NewNotFound("Security event", id)
	}

	var e domain.SecurityEvent
	if err := conn(ctx, r.DB).Where("id = ?", id).First(&e).Error; err != nil {
		return domain.SecurityEvent{}, fmt.Errorf("failed to find security event: %w", err)
	}
	return e, nil
}

func (r *AuditRepository) CreateSession(ctx context.Context, s *domain.LoginSession) error {
	if err := conn(ctx, r.DB).Create(s).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *AuditRepository) ActiveSessions(ctx context.Context, userID string, now time.Time) ([]domain.LoginSession, error) {
	q := conn(ctx, r.DB).Preload("User").Where("is_active = ? AND expires_at > ?", true, now)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	var out []domain.LoginSession
	if err := q.Order("last_activity DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to find sessions: %w", err)
	}
	return out, nil
}

func (r *AuditRepository) TerminateSession(ctx context.Context, sessionID string) error {
	result := conn(ctx, r.DB).Model(&domain.LoginSession{}).
		Where("session_id = ? AND is_active = ?", sessionID, true).
		Update("is_active", false)
	if result.Error != nil && !isInvalidText(result.Error) {
		return fmt.Errorf("failed to terminate session: %w", result.Error)
	}
	if result.Error != nil || result.RowsAffected == 0 {
		return domain.NewNotFound("Session", sessionID)
	}
	return nil
}

// TerminateUserSessions deactivates every active session of the user and
// returns their session ids.
func (r *AuditRepository) TerminateUserSessions(ctx context.Context, userID string) ([]string, error) {
	if !domain.IsID(userID) {
		return nil, nil
	}
	var ids []string
	err := conn(ctx, r.DB).Model(&domain.LoginSession{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Pluck("session_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find sessions: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	err = conn(ctx, r.DB).Model(&domain.LoginSession{}).
		Where("session_id IN ?", ids).Update("is_active", false).Error
	if err != nil {
		return nil, fmt.Errorf("failed to terminate sessions: %w", err)
	}
	return ids, nil
}

// ExpireSessions deactivates sessions past their expiry.
func (r *AuditRepository) ExpireSessions(ctx context.Context, now time.Time) (int64, error) {
	result := conn(ctx, r.DB).Model(&domain.LoginSession{}).
		Where("is_active = ? AND expires_at <= ?", true, now).
		Update("is_active", false)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}
