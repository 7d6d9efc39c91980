package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"pharmaSupply/domain"
	"pharmaSupply/pkg/logger"
	"pharmaSupply/pkg/utils"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pobyzaarif/goshortcute"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByResetToken(ctx context.Context, token string, now time.Time) (domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	SetRefreshToken(ctx context.Context, id string, token *string) error
	SetResetToken(ctx context.Context, id string, token *string, expiry *time.Time) error
}

type TokenManager interface {
	GenerateAccessToken(userID, role, sessionID string) (string, error)
	GenerateRefreshToken(userID, role, sessionID string) (string, error)
	ParseJWT(token string) (*utils.Claims, error)
}

// SessionCache holds active sessions for the auth middleware.
type SessionCache interface {
	Store(ctx context.Context, session domain.LoginSession, role domain.Role) error
	Validate(ctx context.Context, sessionID, userID string) (bool, error)
}

// AuditTrail persists sessions and login activity.
type AuditTrail interface {
	CreateSession(ctx context.Context, session *domain.LoginSession) error
	TerminateUserSessions(ctx context.Context, userID string) (int, error)
	LogLogin(userID string, client domain.ClientInfo)
	LogLogout(userID string, client domain.ClientInfo)
	LogFailedLogin(email string, client domain.ClientInfo)
}

type Mailer interface {
	SendEmail(ctx context.Context, toName, toEmail, subject, message string) error
}

type authService struct {
	userRepo         UserRepository
	tokens           TokenManager
	sessions         SessionCache
	audit            AuditTrail
	mailer           Mailer
	validate         *validator.Validate
	resetTokenKey    string
	appDeploymentUrl string
	now              func() time.Time
}

const (
	minPasswordLen       = 6
	SubjectResetPassword = "Reset your password"
	EmailBodyResetPass   = `Hello %v,</br></br>Open the link below to choose a new password.</br></br>%v</br></br>The link is valid for %v minutes.`
)

func NewAuthService(
	userRepo UserRepository,
	tokens TokenManager,
	sessions SessionCache,
	audit AuditTrail,
	mailer Mailer,
	resetTokenKey string,
	appDeploymentUrl string,
) *authService {
	return &authService{
		userRepo:         userRepo,
		tokens:           tokens,
		sessions:         sessions,
		audit:            audit,
		mailer:           mailer,
		validate:         validator.New(),
		resetTokenKey:    resetTokenKey,
		appDeploymentUrl: appDeploymentUrl,
		now:              time.Now,
	}
}

func (s *authService) Register(ctx context.Context, in domain.UserInput, role domain.Role, client domain.ClientInfo) (domain.AuthResult, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.AuthResult{}, domain.NewValidation("name is required")
	}
	if err := s.validate.Var(in.Email, "required,email"); err != nil {
		return domain.AuthResult{}, domain.NewValidation("invalid email format")
	}
	if len(in.Password) < minPasswordLen {
		return domain.AuthResult{}, domain.NewValidation("password must be at least %d characters", minPasswordLen)
	}

	if _, err := s.userRepo.FindByEmail(ctx, in.Email); err == nil {
		return domain.AuthResult{}, fmt.Errorf("email %s %w", in.Email, domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.AuthResult{}, err
	}

	passwordHash, err := utils.HashPassword(in.Password)
	if err != nil {
		logger.Error("Failed to hash password", "error", err)
		return domain.AuthResult{}, errors.New("failed to hash password")
	}

	user := domain.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(passwordHash),
		Role:     role,
	}
	if err := s.userRepo.Create(ctx, &user); err != nil {
		logger.Error("Failed to create new user", "error", err)
		return domain.AuthResult{}, err
	}

	tokens, err := s.startSession(ctx, user, client)
	if err != nil {
		return domain.AuthResult{}, err
	}

	user.Password = ""
	return domain.AuthResult{AuthTokens: tokens, User: user}, nil
}

func (s *authService) Login(ctx context.Context, email, password string, client domain.ClientInfo) (domain.AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Error("Failed to find user", "error", err)
		return domain.AuthResult{}, err
	}

	if err != nil || !utils.CheckPassword(password, user.Password) {
		logger.Warn("Invalid user credentials", "email", email, "ip", client.IPAddress)
		s.audit.LogFailedLogin(email, client)
		return domain.AuthResult{}, domain.NewUnauthorized("Invalid credentials")
	}

	tokens, err := s.startSession(ctx, user, client)
	if err != nil {
		return domain.AuthResult{}, err
	}

	s.audit.LogLogin(user.ID, client)

	user.Password = ""
	return domain.AuthResult{AuthTokens: tokens, User: user}, nil
}

// startSession opens a login session and issues a token pair bound to it.
func (s *authService) startSession(ctx context.Context, user domain.User, client domain.ClientInfo) (domain.AuthTokens, error) {
	sessionID, err := utils.RandomHex(32)
	if err != nil {
		return domain.AuthTokens{}, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := s.now().UTC()
	session := domain.LoginSession{
		UserID:       user.ID,
		SessionID:    sessionID,
		IPAddress:    client.IPAddress,
		UserAgent:    client.UserAgent,
		ExpiresAt:    now.Add(domain.SessionTTL),
		LastActivity: now,
	}
	if err := s.audit.CreateSession(ctx, &session); err != nil {
		logger.Error("Failed to create login session", "user_id", user.ID, "error", err)
		return domain.AuthTokens{}, err
	}
	if err := s.sessions.Store(ctx, session, user.Role); err != nil {
		logger.Error("Failed to cache login session", "user_id", user.ID, "error", err)
		return domain.AuthTokens{}, err
	}

	return s.issueTokens(ctx, user, sessionID)
}

func (s *authService) issueTokens(ctx context.Context, user domain.User, sessionID string) (domain.AuthTokens, error) {
	access, err := s.tokens.GenerateAccessToken(user.ID, string(user.Role), sessionID)
	if err != nil {
		logger.Error("Failed to generate token", "error", err)
		return domain.AuthTokens{}, errors.New("failed to generate token")
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.ID, string(user.Role), sessionID)
	if err != nil {
		logger.Error("Failed to generate token", "error", err)
		return domain.AuthTokens{}, errors.New("failed to generate token")
	}

	if err := s.userRepo.SetRefreshToken(ctx, user.ID, &refresh); err != nil {
		logger.Error("Failed to store refresh token", "user_id", user.ID, "error", err)
		return domain.AuthTokens{}, err
	}

	return domain.AuthTokens{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh rotates both tokens when the presented refresh token is the one on record.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (domain.AuthTokens, error) {
	invalid := domain.NewUnauthorized("Invalid refresh token")

	claims, err := s.tokens.ParseJWT(refreshToken)
	if err != nil || claims.TokenType != utils.TokenTypeRefresh {
		return domain.AuthTokens{}, invalid
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.AuthTokens{}, invalid
		}
		return domain.AuthTokens{}, err
	}
	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return domain.AuthTokens{}, invalid
	}

	active, err := s.sessions.Validate(ctx, claims.SessionID, user.ID)
	if err != nil {
		return domain.AuthTokens{}, err
	}
	if !active {
		return domain.AuthTokens{}, domain.NewUnauthorized("Session expired")
	}

	return s.issueTokens(ctx, user, claims.SessionID)
}

func (s *authService) Profile(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	user.Password = ""
	return user, nil
}

// ForgotPassword mails a reset link when the email is registered. It never
// reveals whether it is.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	expAt := s.now().Add(domain.ResetTokenTTL)
	resetCode := fmt.Sprintf("%v|%v", user.Email, expAt.Unix())
	resetCodeEncrypt, err := goshortcute.AESCBCEncrypt([]byte(resetCode), []byte(s.resetTokenKey))
	if err != nil {
		logger.Error("Failed to encrypt reset token", "error", err)
		return errors.New("failed to create reset token")
	}
	token := goshortcute.StringtoBase64Encode(resetCodeEncrypt)

	if err := s.userRepo.SetResetToken(ctx, user.ID, &token, &expAt); err != nil {
		logger.Error("Failed to store reset token", "user_id", user.ID, "error", err)
		return err
	}

	link := s.appDeploymentUrl + "/reset-password?token=" + url.QueryEscape(token)
	body := fmt.Sprintf(EmailBodyResetPass, user.Name, link, int(domain.ResetTokenTTL.Minutes()))
	if err := s.mailer.SendEmail(ctx, user.Name, user.Email, SubjectResetPassword, body); err != nil {
		logger.Warn("Failed to send reset email", "user_id", user.ID, "error", err)
	}

	return nil
}

func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	invalid := domain.NewValidation("Invalid or expired reset token")

	if len(newPassword) < minPasswordLen {
		return domain.NewValidation("password must be at least %d characters", minPasswordLen)
	}

	strDecode := goshortcute.StringtoBase64Decode(token)
	resetCode, err := goshortcute.AESCBCDecrypt([]byte(strDecode), []byte(s.resetTokenKey))
	if err != nil {
		logger.Warn("Failed to decrypt reset token", "error", err)
		return invalid
	}

	parts := strings.Split(resetCode, "|")
	if len(parts) != 2 {
		return invalid
	}
	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || s.now().After(time.Unix(ts, 0)) {
		return invalid
	}

	user, err := s.userRepo.FindByResetToken(ctx, token, s.now())
	if err != nil {
		return err
	}
	if user.Email != parts[0] {
		return invalid
	}

	passwordHash, err := utils.HashPassword(newPassword)
	if err != nil {
		logger.Error("Failed to hash password", "error", err)
		return errors.New("failed to hash password")
	}
	user.Password = string(passwordHash)

	if err := s.userRepo.Update(ctx, &user); err != nil {
		return err
	}
	return s.userRepo.SetResetToken(ctx, user.ID, nil, nil)
}

// Logout clears the refresh token and ends every session of the user.
func (s *authService) Logout(ctx context.Context, userID string, client domain.ClientInfo) error {
	if err := s.userRepo.SetRefreshToken(ctx, userID, nil); err != nil {
		logger.Error("Failed to clear refresh token", "user_id", userID, "error", err)
		return err
	}

	if _, err := s.audit.TerminateUserSessions(ctx, userID); err != nil {
		return err
	}

	s.audit.LogLogout(userID, client)
	return nil
}
