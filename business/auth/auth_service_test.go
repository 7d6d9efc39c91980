package auth

import (
	"context"
	"errors"
	"pharmaSupply/domain"
	"pharmaSupply/pkg/utils"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testResetKey = "0123456789abcdef"

type memUsers struct {
	mu   sync.Mutex
	byID map[string]domain.User
}

func (m *memUsers) Create(ctx context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = uuid.NewString()
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) FindByID(ctx context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return domain.User{}, domain.NewNotFound("User", id)
	}
	return u, nil
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.NewNotFound("User")
}

func (m *memUsers) FindByResetToken(ctx context.Context, token string, now time.Time) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.ResetToken != nil && *u.ResetToken == token && u.ResetTokenExpiry.After(now) {
			return u, nil
		}
	}
	return domain.User{}, domain.NewValidation("Invalid or expired reset token")
}

func (m *memUsers) Update(ctx context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) SetRefreshToken(ctx context.Context, id string, token *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.byID[id]
	u.RefreshToken = token
	m.byID[id] = u
	return nil
}

func (m *memUsers) SetResetToken(ctx context.Context, id string, token *string, expiry *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.byID[id]
	u.ResetToken = token
	u.ResetTokenExpiry = expiry
	m.byID[id] = u
	return nil
}

type memSessions struct {
	active map[string]string
}

func (m *memSessions) Store(ctx context.Context, s domain.LoginSession, role domain.Role) error {
	m.active[s.SessionID] = s.UserID
	return nil
}

func (m *memSessions) Validate(ctx context.Context, sessionID, userID string) (bool, error) {
	return m.active[sessionID] == userID, nil
}

type fakeAudit struct {
	sessions     []domain.LoginSession
	logins       int
	logouts      int
	failed       []string
	sessionCache *memSessions
}

func (a *fakeAudit) CreateSession(ctx context.Context, s *domain.LoginSession) error {
	a.sessions = append(a.sessions, *s)
	return nil
}

func (a *fakeAudit) TerminateUserSessions(ctx context.Context, userID string) (int, error) {
	n := 0
	for id, uid := range a.sessionCache.active {
		if uid == userID {
			delete(a.sessionCache.active, id)
			n++
		}
	}
	return n, nil
}

func (a *fakeAudit) LogLogin(userID string, client domain.ClientInfo)  { a.logins++ }
func (a *fakeAudit) LogLogout(userID string, client domain.ClientInfo) { a.logouts++ }
func (a *fakeAudit) LogFailedLogin(email string, client domain.ClientInfo) {
	a.failed = append(a.failed, email)
}

type fakeMailer struct {
	to   []string
	body []string
}

func (m *fakeMailer) SendEmail(ctx context.Context, toName, toEmail, subject, message string) error {
	m.to = append(m.to, toEmail)
	m.body = append(m.body, message)
	return nil
}

type fixture struct {
	svc      *authService
	users    *memUsers
	sessions *memSessions
	audit    *fakeAudit
	mailer   *fakeMailer
	jwt      *utils.JWTManager
}

func newFixture() *fixture {
	users := &memUsers{byID: map[string]domain.User{}}
	sessions := &memSessions{active: map[string]string{}}
	audit := &fakeAudit{sessionCache: sessions}
	mailer := &fakeMailer{}
	jwt := utils.NewJWTManager("test-secret-0123456789", 15*time.Minute, 7*24*time.Hour)
	return &fixture{
		svc:      NewAuthService(users, jwt, sessions, audit, mailer, testResetKey, "http://app.test"),
		users:    users,
		sessions: sessions,
		audit:    audit,
		mailer:   mailer,
		jwt:      jwt,
	}
}

var client = domain.ClientInfo{IPAddress: "10.0.0.1", UserAgent: "test"}

func (f *fixture) register(t *testing.T, email string) domain.AuthResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), domain.UserInput{Name: "Ana", Email: email, Password: "secret1"}, domain.RoleProvider, client)
	require.NoError(t, err)
	return res
}

func TestRegister_IssuesSessionBoundTokens(t *testing.T) {
	f := newFixture()
	res := f.register(t, "ana@clinic.test")

	assert.Empty(t, res.User.Password)
	claims, err := f.jwt.ParseJWT(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, "PROVIDER", claims.Role)
	assert.Len(t, claims.SessionID, 64)

	ok, _ := f.sessions.Validate(context.Background(), claims.SessionID, res.User.ID)
	assert.True(t, ok)

	stored := f.users.byID[res.User.ID]
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, res.RefreshToken, *stored.RefreshToken)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture()
	f.register(t, "ana@clinic.test")

	_, err := f.svc.Register(context.Background(), domain.UserInput{Name: "Ana", Email: "ana@clinic.test", Password: "secret1"}, domain.RoleProvider, client)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestLogin(t *testing.T) {
	f := newFixture()
	f.register(t, "ana@clinic.test")

	res, err := f.svc.Login(context.Background(), "ana@clinic.test", "secret1", client)
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, 1, f.audit.logins)
	assert.Len(t, f.audit.sessions, 2)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newFixture()
	f.register(t, "ana@clinic.test")

	_, err := f.svc.Login(context.Background(), "ana@clinic.test", "wrong", client)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	assert.Equal(t, "Invalid credentials", err.Error())

	_, err = f.svc.Login(context.Background(), "ghost@clinic.test", "secret1", client)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	assert.Equal(t, []string{"ana@clinic.test", "ghost@clinic.test"}, f.audit.failed)
}

func TestRefresh_RotatesTokens(t *testing.T) {
	f := newFixture()
	res := f.register(t, "ana@clinic.test")

	tokens, err := f.svc.Refresh(context.Background(), res.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, res.RefreshToken, tokens.RefreshToken)

	_, err = f.svc.Refresh(context.Background(), res.RefreshToken)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized), "old refresh token must be rejected")

	_, err = f.svc.Refresh(context.Background(), tokens.AccessToken)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized), "access token is not a refresh token")
}

func TestLogout_EndsSessions(t *testing.T) {
	f := newFixture()
	res := f.register(t, "ana@clinic.test")

	require.NoError(t, f.svc.Logout(context.Background(), res.User.ID, client))

	assert.Empty(t, f.sessions.active)
	assert.Nil(t, f.users.byID[res.User.ID].RefreshToken)
	assert.Equal(t, 1, f.audit.logouts)

	_, err := f.svc.Refresh(context.Background(), res.RefreshToken)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newFixture()
	res := f.register(t, "ana@clinic.test")

	require.NoError(t, f.svc.ForgotPassword(context.Background(), "ana@clinic.test"))
	require.Len(t, f.mailer.to, 1)

	stored := f.users.byID[res.User.ID]
	require.NotNil(t, stored.ResetToken)
	assert.Contains(t, f.mailer.body[0], "http://app.test/reset-password?token=")

	require.NoError(t, f.svc.ResetPassword(context.Background(), *stored.ResetToken, "brand-new"))

	updated := f.users.byID[res.User.ID]
	assert.True(t, utils.CheckPassword("brand-new", updated.Password))
	assert.Nil(t, updated.ResetToken)

	err := f.svc.ResetPassword(context.Background(), *stored.ResetToken, "again-new")
	assert.True(t, errors.Is(err, domain.ErrValidation), "token is single use")
}

func TestForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.svc.ForgotPassword(context.Background(), "ghost@clinic.test"))
	assert.Empty(t, f.mailer.to)
}
