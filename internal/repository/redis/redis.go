package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"pharmaSupply/domain"
	"time"

	"github.com/redis/go-redis/v9"
)

type SessionData struct {
	SessionID string      `json:"session_id"`
	UserID    string      `json:"user_id"`
	Role      domain.Role `json:"role"`
	IssuedAt  time.Time   `json:"issued_at"`
	ExpiresAt time.Time   `json:"expires_at"`
	IPAddress string      `json:"ip_address,omitempty"`
	UserAgent string      `json:"user_agent,omitempty"`
}

// SessionRepository caches active login sessions so the auth middleware
// can reject revoked tokens without a database round trip.
type SessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{
		client: client,
	}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:id:%s", sessionID)
}

func userSessionsKey(userID string) string {
	return fmt.Sprintf("session:user:%s", userID)
}

func (r *SessionRepository) Store(ctx context.Context, session domain.LoginSession, role domain.Role) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session already expired")
	}

	data := SessionData{
		SessionID: session.SessionID,
		UserID:    session.UserID,
		Role:      role,
		IssuedAt:  time.Now().UTC(),
		ExpiresAt: session.ExpiresAt,
		IPAddress: session.IPAddress,
		UserAgent: session.UserAgent,
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKey(data.SessionID), jsonData, ttl)
	// reverse lookup user -> session ids for terminate-all
	pipe.SAdd(ctx, userSessionsKey(data.UserID), data.SessionID)
	pipe.Expire(ctx, userSessionsKey(data.UserID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store session in Redis: %w", err)
	}

	return nil
}

func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*SessionData, error) {
	val, err := r.client.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.NewNotFound("Session", sessionID)
		}
		return nil, fmt.Errorf("failed to get session from Redis: %w", err)
	}

	var data SessionData
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}

	return &data, nil
}

// Validate reports whether the session is cached and belongs to userID.
func (r *SessionRepository) Validate(ctx context.Context, sessionID, userID string) (bool, error) {
	data, err := r.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return data.UserID == userID, nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	data, err := r.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionKey(sessionID))
	pipe.SRem(ctx, userSessionsKey(data.UserID), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteUser drops every cached session of the user.
func (r *SessionRepository) DeleteUser(ctx context.Context, userID string) error {
	ids, err := r.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userSessionsKey(userID))

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
