package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/northwindlabs/storefront/pkg/db/models"
	"github.com/northwindlabs/storefront/pkg/enums"
	pkgerrors "github.com/northwindlabs/storefront/pkg/errors"
	"github.com/northwindlabs/storefront/pkg/outbox"
	"github.com/northwindlabs/storefront/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubOrdersRepo struct {
	orders        map[uuid.UUID]*models.Order
	statusUpdates []enums.OrderStatus
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) error {
	s.orders[order.ID] = order
	return nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *order
	return &clone, nil
}

func (s *stubOrdersRepo) List(ctx context.Context, params ListParams) ([]models.Order, *pagination.Cursor, error) {
	var rows []models.Order
	for _, order := range s.orders {
		if params.UserID != uuid.Nil && order.UserID != params.UserID {
			continue
		}
		if params.Status != nil && order.Status != *params.Status {
			continue
		}
		rows = append(rows, *order)
	}
	return rows, nil, nil
}

func (s *stubOrdersRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	s.statusUpdates = append(s.statusUpdates, status)
	if order, ok := s.orders[id]; ok {
		order.Status = status
	}
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type ordersFixture struct {
	service Service
	repo    *stubOrdersRepo
	outbox  *stubOutbox
}

func newOrdersFixture(t *testing.T) *ordersFixture {
	t.Helper()

	repo := newStubOrdersRepo()
	events := &stubOutbox{}
	svc, err := NewService(repo, stubTxRunner{}, events)
	require.NoError(t, err)
	return &ordersFixture{service: svc, repo: repo, outbox: events}
}

func seedOrder(fx *ordersFixture, userID uuid.UUID, status enums.OrderStatus) *models.Order {
	order := &models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Status:        status,
		TotalCents:    2900,
		ItemCount:     3,
		Currency:      enums.CurrencyUSD,
		PaymentMethod: enums.PaymentMethodCard,
		CreatedAt:     time.Now().UTC(),
	}
	fx.repo.orders[order.ID] = order
	return order
}

func TestGetHidesOtherUsersOrders(t *testing.T) {
	t.Parallel()

	fx := newOrdersFixture(t)
	order := seedOrder(fx, uuid.New(), enums.OrderStatusPending)

	_, err := fx.service.Get(context.Background(), uuid.New(), order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	dto, err := fx.service.Get(context.Background(), order.UserID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, dto.ID)
}

func TestCancelPendingOrderEmitsEvent(t *testing.T) {
	t.Parallel()

	fx := newOrdersFixture(t)
	order := seedOrder(fx, uuid.New(), enums.OrderStatusPending)

	dto, err := fx.service.Cancel(context.Background(), order.UserID, order.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, dto.Status)

	require.Len(t, fx.outbox.events, 1)
	assert.Equal(t, enums.EventOrderCancelled, fx.outbox.events[0].EventType)
	assert.Equal(t, order.ID, fx.outbox.events[0].AggregateID)
}

func TestCancelAlreadyCancelledIsIdempotent(t *testing.T) {
	t.Parallel()

	fx := newOrdersFixture(t)
	order := seedOrder(fx, uuid.New(), enums.OrderStatusCancelled)

	dto, err := fx.service.Cancel(context.Background(), order.UserID, order.ID, "")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, dto.Status)
	assert.Empty(t, fx.outbox.events)
	assert.Empty(t, fx.repo.statusUpdates)
}

func TestCancelShippedOrderConflicts(t *testing.T) {
	t.Parallel()

	fx := newOrdersFixture(t)
	order := seedOrder(fx, uuid.New(), enums.OrderStatusShipped)

	_, err := fx.service.Cancel(context.Background(), order.UserID, order.ID, "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestUpdateStatusForwardOnly(t *testing.T) {
	t.Parallel()

	fx := newOrdersFixture(t)
	order := seedOrder(fx, uuid.New(), enums.OrderStatusDelivered)

	_, err := fx.service.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:     order.ID,
		Next:        enums.OrderStatusPending,
		ActorUserID: uuid.New(),
		ActorRole:   enums.RoleAdmin,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestUpdateStatusEmitsEvent(t *testing.T) {
	t.Parallel()

	fx := newOrdersFixture(t)
	order := seedOrder(fx, uuid.New(), enums.OrderStatusPending)

	dto, err := fx.service.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:     order.ID,
		Next:        enums.OrderStatusProcessing,
		ActorUserID: uuid.New(),
		ActorRole:   enums.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, dto.Status)

	require.Len(t, fx.outbox.events, 1)
	assert.Equal(t, enums.EventOrderStatusChanged, fx.outbox.events[0].EventType)
}

func TestUpdateStatusSameStatusIsNoop(t *testing.T) {
	t.Parallel()

	fx := newOrdersFixture(t)
	order := seedOrder(fx, uuid.New(), enums.OrderStatusProcessing)

	dto, err := fx.service.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:     order.ID,
		Next:        enums.OrderStatusProcessing,
		ActorUserID: uuid.New(),
		ActorRole:   enums.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, dto.Status)
	assert.Empty(t, fx.outbox.events)
}

func TestListRejectsBadCursorValue(t *testing.T) {
	t.Parallel()

	fx := newOrdersFixture(t)
	_, err := fx.service.List(context.Background(), ListOrdersInput{
		UserID:     uuid.New(),
		Pagination: pagination.Params{Cursor: "!!!"},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
