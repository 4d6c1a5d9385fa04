package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/northwindlabs/storefront/internal/cart"
	"github.com/northwindlabs/storefront/internal/orders"
	"github.com/northwindlabs/storefront/pkg/db/models"
	"github.com/northwindlabs/storefront/pkg/enums"
	pkgerrors "github.com/northwindlabs/storefront/pkg/errors"
	"github.com/northwindlabs/storefront/pkg/logger"
	"github.com/northwindlabs/storefront/pkg/outbox"
	"github.com/northwindlabs/storefront/pkg/outbox/payloads"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartAccess interface {
	Fetch(ctx context.Context, owner cart.Owner) (*cart.Cart, error)
	Clear(ctx context.Context, owner cart.Owner) (*cart.Cart, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string) error
}

// Service converts the authenticated cart into a placed order.
type Service interface {
	Execute(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*orders.OrderDTO, error)
}

// ShippingInput is the destination the shopper provides at checkout.
type ShippingInput struct {
	Name  string
	Line1 string
	Line2 *string
	City  string
	Zip   string
}

// CheckoutInput captures everything a checkout submission carries. GuestToken
// lets the engine sweep any device-cart residue once the order is placed.
type CheckoutInput struct {
	PaymentMethod enums.PaymentMethod
	Shipping      ShippingInput
	GuestToken    string
}

type service struct {
	tx         txRunner
	carts      cartAccess
	ordersRepo orders.Repository
	inventory  Inventory
	outbox     outboxPublisher
	notifier   notifier
	logg       *logger.Logger
}

// NewService builds the checkout service. The notifier is optional.
func NewService(
	tx txRunner,
	carts cartAccess,
	ordersRepo orders.Repository,
	inventory Inventory,
	publisher outboxPublisher,
	notify notifier,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart access required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:         tx,
		carts:      carts,
		ordersRepo: ordersRepo,
		inventory:  inventory,
		outbox:     publisher,
		notifier:   notify,
		logg:       logg,
	}, nil
}

// Execute places an order from the caller's current cart. Stock is validated
// and decremented, the order and its line snapshots are written, and the
// outbox event is emitted, all inside one transaction. The cart is cleared
// only after the transaction commits.
func (s *service) Execute(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*orders.OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "checkout requires an authenticated user")
	}
	if err := validateCheckoutInput(input); err != nil {
		return nil, err
	}

	owner := cart.Owner{UserID: &userID, GuestToken: input.GuestToken}
	current, err := s.carts.Fetch(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(current.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}

	order := buildOrder(userID, current, input)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		inventory := s.inventory.WithTx(tx)
		for _, line := range current.Lines {
			ok, err := reserveStock(ctx, inventory, line)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeConflict,
					fmt.Sprintf("insufficient stock for %s", line.ProductName))
			}
		}

		if err := s.ordersRepo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: userID, Role: string(enums.RoleCustomer)},
			Data: payloads.OrderCreatedEvent{
				OrderID:       order.ID,
				UserID:        userID,
				TotalCents:    order.TotalCents,
				ItemCount:     order.ItemCount,
				Currency:      order.Currency,
				PaymentMethod: order.PaymentMethod,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	// The order exists regardless of what happens below; a stale cart is
	// recoverable on the next read, a lost order is not.
	if _, err := s.carts.Clear(ctx, owner); err != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, userID.String()),
			"checkout succeeded but cart clear failed: "+err.Error())
	}
	s.notifyPlaced(ctx, userID, order)

	return orders.FromModel(order), nil
}

func (s *service) notifyPlaced(ctx context.Context, userID uuid.UUID, order *models.Order) {
	if s.notifier == nil {
		return
	}
	message := fmt.Sprintf("Order %s placed for %d item(s).", order.ID, order.ItemCount)
	if err := s.notifier.Notify(ctx, userID, enums.NotificationTypeOrderUpdate, "Order placed", message); err != nil {
		s.logg.Warn(ctx, "order placed notification failed: "+err.Error())
	}
}

func validateCheckoutInput(input CheckoutInput) error {
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if strings.TrimSpace(input.Shipping.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping name required")
	}
	if strings.TrimSpace(input.Shipping.Line1) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping address required")
	}
	if strings.TrimSpace(input.Shipping.City) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping city required")
	}
	if strings.TrimSpace(input.Shipping.Zip) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping zip required")
	}
	return nil
}

func reserveStock(ctx context.Context, inventory Inventory, line cart.Line) (bool, error) {
	if line.VariantID != nil {
		return inventory.DecrementVariantStock(ctx, *line.VariantID, line.Quantity)
	}
	return inventory.DecrementProductStock(ctx, line.ProductID, line.Quantity)
}

// buildOrder snapshots the reconciled cart into an order. Unit prices fold the
// variant modifier in so the history line matches what the shopper saw.
func buildOrder(userID uuid.UUID, current *cart.Cart, input CheckoutInput) *models.Order {
	order := &models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Status:        enums.OrderStatusPending,
		TotalCents:    current.TotalCents,
		ItemCount:     current.ItemCount,
		Currency:      current.Currency,
		PaymentMethod: input.PaymentMethod,
		ShippingName:  strings.TrimSpace(input.Shipping.Name),
		ShippingLine1: strings.TrimSpace(input.Shipping.Line1),
		ShippingLine2: input.Shipping.Line2,
		ShippingCity:  strings.TrimSpace(input.Shipping.City),
		ShippingZip:   strings.TrimSpace(input.Shipping.Zip),
		Items:         make([]models.OrderItem, len(current.Lines)),
	}
	for i, line := range current.Lines {
		unit := line.UnitPriceCents + line.VariantModifierCents
		order.Items[i] = models.OrderItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			ProductName:    line.ProductName,
			VariantLabel:   line.VariantLabel,
			UnitPriceCents: unit,
			Quantity:       line.Quantity,
			SubtotalCents:  unit * int64(line.Quantity),
		}
	}
	return order
}
