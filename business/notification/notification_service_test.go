package notification

import (
	"context"
	"errors"
	"pharmaSupply/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spyRepo struct {
	created []domain.Notification
	scopes  []domain.NotificationScope
	filter  domain.NotificationFilter
}

func (r *spyRepo) Create(ctx context.Context, n *domain.Notification) error {
	r.created = append(r.created, *n)
	return nil
}

func (r *spyRepo) FindAll(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, int64, error) {
	r.filter = filter
	return nil, 25, nil
}

func (r *spyRepo) MarkRead(ctx context.Context, id string, scope domain.NotificationScope) error {
	r.scopes = append(r.scopes, scope)
	return nil
}

func (r *spyRepo) MarkAllRead(ctx context.Context, scope domain.NotificationScope) (int64, error) {
	r.scopes = append(r.scopes, scope)
	return 3, nil
}

func (r *spyRepo) Delete(ctx context.Context, id string, scope domain.NotificationScope) error {
	r.scopes = append(r.scopes, scope)
	if id == "missing" {
		return domain.NewNotFound("Notification", id)
	}
	return nil
}

func (r *spyRepo) Stats(ctx context.Context, scope domain.NotificationScope) (domain.NotificationStats, error) {
	r.scopes = append(r.scopes, scope)
	return domain.NotificationStats{Total: 1}, nil
}

func TestCreateNotification(t *testing.T) {
	repo := &spyRepo{}
	svc := NewNotificationService(repo)

	n, err := svc.CreateNotification(context.Background(), domain.Notification{Event: "Maintenance"})
	require.NoError(t, err)
	assert.Equal(t, domain.NotificationSystem, n.Type)

	_, err = svc.CreateNotification(context.Background(), domain.Notification{Event: "x", Type: "BOGUS"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = svc.CreateNotification(context.Background(), domain.Notification{})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestListNotifications_Scope(t *testing.T) {
	repo := &spyRepo{}
	svc := NewNotificationService(repo)

	_, page, err := svc.ListNotifications(context.Background(), "p1", domain.RoleProvider, domain.NotificationFilter{})
	require.NoError(t, err)
	assert.Equal(t, domain.NotificationScope{UserID: "p1", IncludeSystem: true}, repo.filter.Scope)
	assert.Equal(t, 3, page.Pages)

	_, _, err = svc.ListNotifications(context.Background(), "a1", domain.RoleAdmin, domain.NotificationFilter{})
	require.NoError(t, err)
	assert.Equal(t, domain.NotificationScope{}, repo.filter.Scope)
}

func TestDeleteNotification_ProviderOwnOnly(t *testing.T) {
	repo := &spyRepo{}
	svc := NewNotificationService(repo)

	require.NoError(t, svc.DeleteNotification(context.Background(), "n1", "p1", domain.RoleProvider))
	assert.Equal(t, domain.NotificationScope{UserID: "p1"}, repo.scopes[0])

	err := svc.DeleteNotification(context.Background(), "missing", "a1", domain.RoleAdmin)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestMarkAllRead(t *testing.T) {
	repo := &spyRepo{}
	svc := NewNotificationService(repo)

	n, err := svc.MarkAllRead(context.Background(), "p1", domain.RoleProvider)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.True(t, repo.scopes[0].IncludeSystem)
}
