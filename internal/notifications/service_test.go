package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/northwindlabs/storefront/pkg/db/models"
	"github.com/northwindlabs/storefront/pkg/enums"
	pkgerrors "github.com/northwindlabs/storefront/pkg/errors"
	"github.com/northwindlabs/storefront/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubNotificationRepo struct {
	created    []*models.Notification
	rows       []models.Notification
	markFound  bool
	markCalls  int
	allReadOut int64
	unread     int64
}

func (s *stubNotificationRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	s.created = append(s.created, notification)
	return nil
}

func (s *stubNotificationRepo) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	return s.rows, nil, nil
}

func (s *stubNotificationRepo) MarkRead(ctx context.Context, userID, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error) {
	s.markCalls++
	return notificationMarkResult{Found: s.markFound, Updated: s.markFound}, nil
}

func (s *stubNotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	return s.allReadOut, nil
}

func (s *stubNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.unread, nil
}

func TestNotifyCreatesRow(t *testing.T) {
	t.Parallel()

	repo := &stubNotificationRepo{}
	svc, err := NewService(repo)
	require.NoError(t, err)

	userID := uuid.New()
	require.NoError(t, svc.Notify(context.Background(), userID, enums.NotificationTypeCartActivity, "Added to cart", "Tote is in your cart."))

	require.Len(t, repo.created, 1)
	assert.Equal(t, userID, repo.created[0].UserID)
	assert.Equal(t, enums.NotificationTypeCartActivity, repo.created[0].Type)
}

func TestNotifyValidation(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&stubNotificationRepo{})
	require.NoError(t, err)

	err = svc.Notify(context.Background(), uuid.Nil, enums.NotificationTypeCartActivity, "x", "y")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	err = svc.Notify(context.Background(), uuid.New(), enums.NotificationTypeCartActivity, "  ", "y")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestMarkReadNotFound(t *testing.T) {
	t.Parallel()

	repo := &stubNotificationRepo{markFound: false}
	svc, err := NewService(repo)
	require.NoError(t, err)

	err = svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	assert.Equal(t, 1, repo.markCalls)
}

func TestMarkAllRead(t *testing.T) {
	t.Parallel()

	repo := &stubNotificationRepo{allReadOut: 4}
	svc, err := NewService(repo)
	require.NoError(t, err)

	count, err := svc.MarkAllRead(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestListRejectsBadCursor(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&stubNotificationRepo{})
	require.NoError(t, err)

	_, err = svc.List(context.Background(), ListParams{UserID: uuid.New(), Cursor: "%%%"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUnreadCount(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&stubNotificationRepo{unread: 7})
	require.NoError(t, err)

	count, err := svc.UnreadCount(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}
