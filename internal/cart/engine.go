package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/northwindlabs/storefront/pkg/enums"
	pkgerrors "github.com/northwindlabs/storefront/pkg/errors"
	"github.com/northwindlabs/storefront/pkg/logger"
	"github.com/northwindlabs/storefront/pkg/metrics"
	"github.com/sethvargo/go-retry"
)

const (
	defaultClearRetries = 3
	defaultClearBackoff = 100 * time.Millisecond
)

// ProductLoader resolves the catalog snapshot needed to price a cart line.
// Implementations return a NotFound coded error for unknown or unpublished
// products and variants.
type ProductLoader interface {
	Snapshot(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*ProductSnapshot, error)
}

// Notifier records a user-visible notification for a cart outcome. Delivery
// is best effort; the engine never fails an operation on a notify error.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string) error
}

// Engine reconciles the anonymous device cart with the server-side cart. All
// collaborators are injected; there is no package-level state. Mutations on
// the same owner are serialized through a per-owner lock, so a second call
// waits instead of interleaving.
type Engine struct {
	guest    GuestStore
	gateway  Gateway
	products ProductLoader
	notifier Notifier
	logg     *logger.Logger
	ops      *metrics.CartOpMetrics

	clearRetries uint64
	clearBackoff time.Duration

	mu    sync.Mutex
	locks map[string]*ownerLock
}

// ownerLock is a refcounted mutex entry. Entries are removed once the last
// holder releases, so the map stays bounded by in-flight operations rather
// than growing with every guest token ever seen.
type ownerLock struct {
	mu   sync.Mutex
	refs int
}

// EngineParams bundles the dependencies required to build the engine.
type EngineParams struct {
	GuestStore   GuestStore
	Gateway      Gateway
	Products     ProductLoader
	Notifier     Notifier
	Logger       *logger.Logger
	Metrics      *metrics.CartOpMetrics
	ClearRetries int
	ClearBackoff time.Duration
}

// NewEngine constructs the cart engine with the provided dependencies.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.GuestStore == nil {
		return nil, fmt.Errorf("guest store is required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("cart gateway is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	clearRetries := uint64(defaultClearRetries)
	if params.ClearRetries > 0 {
		clearRetries = uint64(params.ClearRetries)
	}
	clearBackoff := defaultClearBackoff
	if params.ClearBackoff > 0 {
		clearBackoff = params.ClearBackoff
	}

	return &Engine{
		guest:        params.GuestStore,
		gateway:      params.Gateway,
		products:     params.Products,
		notifier:     params.Notifier,
		logg:         params.Logger,
		ops:          params.Metrics,
		clearRetries: clearRetries,
		clearBackoff: clearBackoff,
		locks:        map[string]*ownerLock{},
	}, nil
}

// Fetch returns the owner's cart with derived totals.
func (e *Engine) Fetch(ctx context.Context, owner Owner) (*Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart owner")
	}

	if owner.IsAuthenticated() {
		lines, err := e.gateway.List(ctx, *owner.UserID)
		if err != nil {
			return nil, err
		}
		return BuildCart(lines), nil
	}

	items, err := e.guest.Load(ctx, owner.GuestToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guest cart")
	}
	return BuildCart(e.expandGuestItems(ctx, items)), nil
}

// AddItem puts quantity units of a product variant into the cart. When a line
// for the same product+variant already exists its quantity is incremented;
// the cart never grows a duplicate line for the same key.
func (e *Engine) AddItem(ctx context.Context, owner Owner, input AddItemInput) (*Cart, error) {
	return e.instrument(ctx, "add_item", func(ctx context.Context) (*Cart, error) {
		if err := owner.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart owner")
		}
		if input.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}

		snapshot, err := e.products.Snapshot(ctx, input.ProductID, input.VariantID)
		if err != nil {
			return nil, err
		}
		if !snapshot.Published {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not available")
		}

		unlock := e.lock(owner)
		defer unlock()

		if owner.IsAuthenticated() {
			cart, err := e.addRemote(ctx, *owner.UserID, input)
			if err != nil {
				return nil, err
			}
			e.notify(ctx, *owner.UserID, enums.NotificationTypeCartActivity,
				"Added to cart", fmt.Sprintf("%s is now in your cart.", snapshot.Name))
			return cart, nil
		}
		return e.addGuest(ctx, owner.GuestToken, input)
	})
}

// UpdateQuantity sets the exact quantity of an existing line. Zero or
// negative quantities delegate to RemoveItem.
func (e *Engine) UpdateQuantity(ctx context.Context, owner Owner, lineID string, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return e.RemoveItem(ctx, owner, lineID)
	}
	return e.instrument(ctx, "update_quantity", func(ctx context.Context) (*Cart, error) {
		if err := owner.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart owner")
		}

		unlock := e.lock(owner)
		defer unlock()

		if owner.IsAuthenticated() {
			userID := *owner.UserID
			lines, err := e.gateway.List(ctx, userID)
			if err != nil {
				return nil, err
			}
			target, ok := findLine(lines, lineID)
			if !ok {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
			}
			if err := e.gateway.Upsert(ctx, userID, target.ProductID, target.VariantID, quantity); err != nil {
				return nil, err
			}
			updated, err := e.gateway.List(ctx, userID)
			if err != nil {
				return nil, err
			}
			e.notify(ctx, userID, enums.NotificationTypeCartActivity,
				"Cart updated", fmt.Sprintf("Quantity for %s set to %d.", target.ProductName, quantity))
			return BuildCart(updated), nil
		}

		items, err := e.guest.Load(ctx, owner.GuestToken)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guest cart")
		}
		found := false
		for i := range items {
			if items[i].ID == lineID {
				items[i].Quantity = quantity
				found = true
				break
			}
		}
		if !found {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		if err := e.guest.Save(ctx, owner.GuestToken, items); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save guest cart")
		}
		return BuildCart(e.expandGuestItems(ctx, items)), nil
	})
}

// RemoveItem drops a line from the cart. Removing a line that is already
// gone succeeds and returns the current cart: delete converges, whoever
// clicked first.
func (e *Engine) RemoveItem(ctx context.Context, owner Owner, lineID string) (*Cart, error) {
	return e.instrument(ctx, "remove_item", func(ctx context.Context) (*Cart, error) {
		if err := owner.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart owner")
		}

		unlock := e.lock(owner)
		defer unlock()

		if owner.IsAuthenticated() {
			userID := *owner.UserID
			id, err := uuid.Parse(lineID)
			if err != nil {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cart line id")
			}
			if err := e.gateway.DeleteLine(ctx, userID, id); err != nil {
				if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
					return nil, err
				}
			}
			lines, err := e.gateway.List(ctx, userID)
			if err != nil {
				return nil, err
			}
			e.notify(ctx, userID, enums.NotificationTypeCartActivity,
				"Removed from cart", "The item was removed from your cart.")
			return BuildCart(lines), nil
		}

		items, err := e.guest.Load(ctx, owner.GuestToken)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guest cart")
		}
		kept := items[:0]
		for _, item := range items {
			if item.ID != lineID {
				kept = append(kept, item)
			}
		}
		if err := e.guest.Save(ctx, owner.GuestToken, kept); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save guest cart")
		}
		return BuildCart(e.expandGuestItems(ctx, kept)), nil
	})
}

// Clear empties the cart. For authenticated owners the server-side lines are
// removed in one bulk delete, retried on transient dependency failures since
// the delete is idempotent; any guest residue riding along on the request is
// cleared as well so a later logout cannot resurrect stale lines.
func (e *Engine) Clear(ctx context.Context, owner Owner) (*Cart, error) {
	return e.instrument(ctx, "clear", func(ctx context.Context) (*Cart, error) {
		if err := owner.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart owner")
		}

		unlock := e.lock(owner)
		defer unlock()

		if owner.IsAuthenticated() {
			userID := *owner.UserID
			if err := e.clearRemote(ctx, userID); err != nil {
				return nil, err
			}
			if owner.GuestToken != "" {
				if err := e.guest.Clear(ctx, owner.GuestToken); err != nil {
					return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear guest cart")
				}
			}
			e.notify(ctx, userID, enums.NotificationTypeCartActivity,
				"Cart cleared", "All items were removed from your cart.")
			return BuildCart(nil), nil
		}

		if err := e.guest.Clear(ctx, owner.GuestToken); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear guest cart")
		}
		return BuildCart(nil), nil
	})
}

// BuyNow is the express add-and-checkout path. It requires authentication:
// an anonymous caller gets an Unauthorized error and no cart state changes
// anywhere, so the storefront can bounce through login and retry.
func (e *Engine) BuyNow(ctx context.Context, owner Owner, input AddItemInput) (*Cart, error) {
	if !owner.IsAuthenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to continue to checkout")
	}
	if input.Quantity < 1 {
		input.Quantity = 1
	}
	return e.AddItem(ctx, owner, input)
}

// MergeGuestCart folds the guest cart into the user's server-side cart after
// login. Quantities sum where product+variant match and new lines are created
// otherwise; the guest cart is cleared only after every write succeeded, so a
// failed merge can simply run again. Merging an empty guest cart is a no-op,
// which makes the operation idempotent once the clear has happened.
func (e *Engine) MergeGuestCart(ctx context.Context, userID uuid.UUID, guestToken string) (*Cart, error) {
	return e.instrument(ctx, "merge_guest_cart", func(ctx context.Context) (*Cart, error) {
		owner := Owner{UserID: &userID, GuestToken: guestToken}
		unlock := e.lock(owner)
		defer unlock()

		items, err := e.guest.Load(ctx, guestToken)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guest cart")
		}

		if len(items) == 0 {
			lines, err := e.gateway.List(ctx, userID)
			if err != nil {
				return nil, err
			}
			return BuildCart(lines), nil
		}

		remote, err := e.gateway.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		existing := make(map[string]int, len(remote))
		for _, line := range remote {
			existing[line.Key()] = line.Quantity
		}

		merged := 0
		for _, item := range items {
			snapshot, err := e.products.Snapshot(ctx, item.ProductID, item.VariantID)
			if err != nil {
				if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
					continue
				}
				return nil, err
			}
			if !snapshot.Published {
				continue
			}
			quantity := item.Quantity + existing[LineKey(item.ProductID, item.VariantID)]
			if err := e.gateway.Upsert(ctx, userID, item.ProductID, item.VariantID, quantity); err != nil {
				return nil, err
			}
			merged++
		}

		if err := e.guest.Clear(ctx, guestToken); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear guest cart after merge")
		}

		lines, err := e.gateway.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		if merged > 0 {
			e.notify(ctx, userID, enums.NotificationTypeCartActivity,
				"Carts merged", "Items you picked before signing in were added to your cart.")
		}
		return BuildCart(lines), nil
	})
}

// DiscardGuest drops the anonymous cart, used when a device token is retired
// on logout.
func (e *Engine) DiscardGuest(ctx context.Context, guestToken string) error {
	if guestToken == "" {
		return nil
	}
	if err := e.guest.Clear(ctx, guestToken); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "discard guest cart")
	}
	return nil
}

func (e *Engine) addRemote(ctx context.Context, userID uuid.UUID, input AddItemInput) (*Cart, error) {
	lines, err := e.gateway.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	quantity := input.Quantity
	key := LineKey(input.ProductID, input.VariantID)
	for _, line := range lines {
		if line.Key() == key {
			quantity += line.Quantity
			break
		}
	}

	if err := e.gateway.Upsert(ctx, userID, input.ProductID, input.VariantID, quantity); err != nil {
		return nil, err
	}

	// Re-read after the write: the store is authoritative, not our math.
	updated, err := e.gateway.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return BuildCart(updated), nil
}

func (e *Engine) addGuest(ctx context.Context, token string, input AddItemInput) (*Cart, error) {
	items, err := e.guest.Load(ctx, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guest cart")
	}

	key := LineKey(input.ProductID, input.VariantID)
	found := false
	for i := range items {
		if LineKey(items[i].ProductID, items[i].VariantID) == key {
			items[i].Quantity += input.Quantity
			found = true
			break
		}
	}
	if !found {
		items = append(items, GuestItem{
			ID:        GuestLineID(input.ProductID, input.VariantID),
			ProductID: input.ProductID,
			VariantID: input.VariantID,
			Quantity:  input.Quantity,
			AddedAt:   time.Now().UTC(),
		})
	}

	if err := e.guest.Save(ctx, token, items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save guest cart")
	}
	return BuildCart(e.expandGuestItems(ctx, items)), nil
}

func (e *Engine) clearRemote(ctx context.Context, userID uuid.UUID) error {
	backoff := retry.WithMaxRetries(e.clearRetries, retry.NewExponential(e.clearBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := e.gateway.DeleteAll(ctx, userID); err != nil {
			if pkgerrors.MetadataFor(pkgerrors.As(err).Code()).Retryable {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}

// expandGuestItems prices stored guest items against the current catalog.
// Items whose product vanished or was unpublished are silently dropped from
// the view; the stored payload is left alone.
func (e *Engine) expandGuestItems(ctx context.Context, items []GuestItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		snapshot, err := e.products.Snapshot(ctx, item.ProductID, item.VariantID)
		if err != nil {
			if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
				e.logg.Error(ctx, "pricing guest cart line", err)
			}
			continue
		}
		if !snapshot.Published {
			continue
		}
		lines = append(lines, Line{
			ID:                   item.ID,
			ProductID:            item.ProductID,
			VariantID:            item.VariantID,
			ProductName:          snapshot.Name,
			VariantLabel:         snapshot.VariantLabel,
			ImageURL:             snapshot.ImageURL,
			UnitPriceCents:       snapshot.UnitPriceCents,
			VariantModifierCents: snapshot.VariantModifierCents,
			Quantity:             item.Quantity,
			Currency:             snapshot.Currency,
		})
	}
	return lines
}

func (e *Engine) notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, userID, kind, title, message); err != nil {
		e.logg.Warn(e.logg.WithField(ctx, "notify_error", err.Error()), "cart notification failed")
	}
}

func (e *Engine) instrument(ctx context.Context, op string, fn func(ctx context.Context) (*Cart, error)) (*Cart, error) {
	start := time.Now()
	cart, err := fn(ctx)
	e.ops.ObserveDuration(op, time.Since(start))
	if err != nil {
		e.ops.IncFailure(op)
		return nil, err
	}
	e.ops.IncSuccess(op)
	return cart, nil
}

func findLine(lines []Line, lineID string) (Line, bool) {
	for _, line := range lines {
		if line.ID == lineID {
			return line, true
		}
	}
	return Line{}, false
}

func (e *Engine) lock(owner Owner) func() {
	key := owner.LockKey()
	e.mu.Lock()
	entry, ok := e.locks[key]
	if !ok {
		entry = &ownerLock{}
		e.locks[key] = entry
	}
	entry.refs++
	e.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		e.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(e.locks, key)
		}
		e.mu.Unlock()
	}
}
