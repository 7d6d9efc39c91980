package user

import (
	"context"
	"errors"
	"pharmaSupply/domain"
	"pharmaSupply/pkg/utils"
	"sort"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUsers struct {
	byID map[string]domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]domain.User{}}
}

func (m *memUsers) Create(ctx context.Context, u *domain.User) error {
	u.ID = uuid.NewString()
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) FindByID(ctx context.Context, id string) (domain.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return domain.User{}, domain.NewNotFound("User", id)
	}
	return u, nil
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.NewNotFound("User")
}

func (m *memUsers) FindAll(ctx context.Context, f domain.UserFilter) ([]domain.User, int64, error) {
	var out []domain.User
	for _, u := range m.byID {
		if f.Role == "" || u.Role == f.Role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, int64(len(out)), nil
}

func (m *memUsers) Update(ctx context.Context, u *domain.User) error {
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) Delete(ctx context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return domain.NewNotFound("User", id)
	}
	delete(m.byID, id)
	return nil
}

type memSessions struct {
	ended []string
	err   error
}

func (m *memSessions) TerminateUserSessions(ctx context.Context, userID string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.ended = append(m.ended, userID)
	return 1, nil
}

func (m *memUsers) CountByRole(ctx context.Context) (map[domain.Role]int64, error) {
	out := map[domain.Role]int64{}
	for _, u := range m.byID {
		out[u.Role]++
	}
	return out, nil
}

func (m *memUsers) Recent(ctx context.Context, limit int) ([]domain.User, error) {
	var out []domain.User
	for _, u := range m.byID {
		out = append(out, u)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func TestCreateUser(t *testing.T) {
	repo := newMemUsers()
	svc := NewUserService(repo, &memSessions{}, validator.New())

	u, err := svc.CreateUser(context.Background(), domain.UserInput{Name: "Ana", Email: "ana@clinic.test", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleProvider, u.Role)
	assert.Empty(t, u.Password)

	stored := repo.byID[u.ID]
	assert.True(t, utils.CheckPassword("secret1", stored.Password))

	_, err = svc.CreateUser(context.Background(), domain.UserInput{Name: "Ana 2", Email: "ana@clinic.test", Password: "secret1"})
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestCreateUser_Validation(t *testing.T) {
	svc := NewUserService(newMemUsers(), &memSessions{}, validator.New())

	cases := map[string]domain.UserInput{
		"bad email":      {Name: "A", Email: "nope", Password: "secret1"},
		"short password": {Name: "A", Email: "a@b.test", Password: "123"},
		"bad role":       {Name: "A", Email: "a@b.test", Password: "secret1", Role: "ROOT"},
		"no name":        {Email: "a@b.test", Password: "secret1"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateUser(context.Background(), in)
			assert.True(t, errors.Is(err, domain.ErrValidation))
		})
	}
}

func TestUpdateUser(t *testing.T) {
	repo := newMemUsers()
	svc := NewUserService(repo, &memSessions{}, validator.New())

	a, _ := svc.CreateUser(context.Background(), domain.UserInput{Name: "A", Email: "a@x.test", Password: "secret1"})
	b, _ := svc.CreateUser(context.Background(), domain.UserInput{Name: "B", Email: "b@x.test", Password: "secret1"})

	_, err := svc.UpdateUser(context.Background(), b.ID, domain.UserInput{Email: "a@x.test"})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	updated, err := svc.UpdateUser(context.Background(), a.ID, domain.UserInput{Name: "Alpha", Role: "admin", Password: "another"})
	require.NoError(t, err)
	assert.Equal(t, "Alpha", updated.Name)
	assert.Equal(t, domain.RoleAdmin, updated.Role)
	assert.True(t, utils.CheckPassword("another", repo.byID[a.ID].Password))
}

func TestStats(t *testing.T) {
	repo := newMemUsers()
	svc := NewUserService(repo, &memSessions{}, validator.New())

	_, _ = svc.CreateUser(context.Background(), domain.UserInput{Name: "A", Email: "a@x.test", Password: "secret1", Role: "ADMIN"})
	_, _ = svc.CreateUser(context.Background(), domain.UserInput{Name: "B", Email: "b@x.test", Password: "secret1"})
	_, _ = svc.CreateUser(context.Background(), domain.UserInput{Name: "C", Email: "c@x.test", Password: "secret1"})

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Total)
	assert.EqualValues(t, 1, stats.Admins)
	assert.EqualValues(t, 2, stats.Providers)
	assert.Len(t, stats.RecentUsers, 3)
	for _, u := range stats.RecentUsers {
		assert.Empty(t, u.Password)
	}
}

func TestListUsers_ClampsLimit(t *testing.T) {
	svc := NewUserService(newMemUsers(), &memSessions{}, validator.New())

	_, page, err := svc.ListUsers(context.Background(), domain.UserFilter{Page: domain.PageRequest{Page: 0, Limit: 1000}})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, maxUserLimit, page.Limit)
}

func TestDeleteUser_EndsSessions(t *testing.T) {
	repo := newMemUsers()
	sessions := &memSessions{}
	svc := NewUserService(repo, sessions, validator.New())
	u := domain.User{Name: "Ana", Email: "ana@clinic.test", Role: domain.RoleProvider}
	require.NoError(t, repo.Create(context.Background(), &u))

	require.NoError(t, svc.DeleteUser(context.Background(), u.ID))
	assert.Equal(t, []string{u.ID}, sessions.ended)
	assert.NotContains(t, repo.byID, u.ID)
}

func TestDeleteUser_KeepsAccountWhenSessionsCannotEnd(t *testing.T) {
	repo := newMemUsers()
	svc := NewUserService(repo, &memSessions{err: errors.New("redis down")}, validator.New())
	u := domain.User{Name: "Ana", Email: "ana@clinic.test", Role: domain.RoleProvider}
	require.NoError(t, repo.Create(context.Background(), &u))

	require.Error(t, svc.DeleteUser(context.Background(), u.ID))
	assert.Contains(t, repo.byID, u.ID)
}
