package cart

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/northwindlabs/storefront/pkg/enums"
	pkgerrors "github.com/northwindlabs/storefront/pkg/errors"
	"github.com/northwindlabs/storefront/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard})
}

type fakeCatalog struct {
	snapshots map[string]*ProductSnapshot
}

func (f *fakeCatalog) add(snapshot *ProductSnapshot) {
	if f.snapshots == nil {
		f.snapshots = map[string]*ProductSnapshot{}
	}
	f.snapshots[LineKey(snapshot.ProductID, snapshot.VariantID)] = snapshot
}

func (f *fakeCatalog) Snapshot(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*ProductSnapshot, error) {
	snapshot, ok := f.snapshots[LineKey(productID, variantID)]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return snapshot, nil
}

type fakeGateway struct {
	catalog *fakeCatalog
	lines   []Line

	upsertCalls    int
	deleteAllCalls int

	listErr         error
	upsertErr       error
	deleteAllErrs   []error
	deleteLineCalls int
}

func (f *fakeGateway) List(ctx context.Context, userID uuid.UUID) ([]Line, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]Line, len(f.lines))
	copy(out, f.lines)
	return out, nil
}

func (f *fakeGateway) Upsert(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID, quantity int) error {
	f.upsertCalls++
	if f.upsertErr != nil {
		return f.upsertErr
	}
	key := LineKey(productID, variantID)
	for i := range f.lines {
		if f.lines[i].Key() == key {
			f.lines[i].Quantity = quantity
			return nil
		}
	}
	snapshot, err := f.catalog.Snapshot(ctx, productID, variantID)
	if err != nil {
		return err
	}
	f.lines = append(f.lines, Line{
		ID:                   uuid.NewString(),
		ProductID:            productID,
		VariantID:            variantID,
		ProductName:          snapshot.Name,
		VariantLabel:         snapshot.VariantLabel,
		UnitPriceCents:       snapshot.UnitPriceCents,
		VariantModifierCents: snapshot.VariantModifierCents,
		Quantity:             quantity,
		Currency:             snapshot.Currency,
	})
	return nil
}

func (f *fakeGateway) DeleteLine(ctx context.Context, userID, lineID uuid.UUID) error {
	f.deleteLineCalls++
	for i := range f.lines {
		if f.lines[i].ID == lineID.String() {
			f.lines = append(f.lines[:i], f.lines[i+1:]...)
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
}

func (f *fakeGateway) DeleteAll(ctx context.Context, userID uuid.UUID) error {
	f.deleteAllCalls++
	if len(f.deleteAllErrs) > 0 {
		err := f.deleteAllErrs[0]
		f.deleteAllErrs = f.deleteAllErrs[1:]
		if err != nil {
			return err
		}
	}
	f.lines = nil
	return nil
}

type fakeGuestStore struct {
	items      map[string][]GuestItem
	saveCalls  int
	clearCalls int
	loadErr    error
}

func newFakeGuestStore() *fakeGuestStore {
	return &fakeGuestStore{items: map[string][]GuestItem{}}
}

func (f *fakeGuestStore) Load(ctx context.Context, token string) ([]GuestItem, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	out := make([]GuestItem, len(f.items[token]))
	copy(out, f.items[token])
	return out, nil
}

func (f *fakeGuestStore) Save(ctx context.Context, token string, items []GuestItem) error {
	f.saveCalls++
	f.items[token] = items
	return nil
}

func (f *fakeGuestStore) Clear(ctx context.Context, token string) error {
	f.clearCalls++
	delete(f.items, token)
	return nil
}

type recordingNotifier struct {
	titles []string
}

func (r *recordingNotifier) Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string) error {
	r.titles = append(r.titles, title)
	return nil
}

type engineFixture struct {
	engine   *Engine
	catalog  *fakeCatalog
	gateway  *fakeGateway
	guest    *fakeGuestStore
	notifier *recordingNotifier
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	catalog := &fakeCatalog{}
	gateway := &fakeGateway{catalog: catalog}
	guest := newFakeGuestStore()
	notifier := &recordingNotifier{}

	engine, err := NewEngine(EngineParams{
		GuestStore: guest,
		Gateway:    gateway,
		Products:   catalog,
		Notifier:   notifier,
		Logger:     testLogger(),
	})
	require.NoError(t, err)

	return &engineFixture{
		engine:   engine,
		catalog:  catalog,
		gateway:  gateway,
		guest:    guest,
		notifier: notifier,
	}
}

func snapshotFor(name string, priceCents int64, variantID *uuid.UUID, modifierCents int64) *ProductSnapshot {
	var label *string
	if variantID != nil {
		l := "Size: L"
		label = &l
	}
	return &ProductSnapshot{
		ProductID:            uuid.New(),
		VariantID:            variantID,
		Name:                 name,
		VariantLabel:         label,
		UnitPriceCents:       priceCents,
		VariantModifierCents: modifierCents,
		Stock:                100,
		Published:            true,
		Currency:             enums.CurrencyUSD,
	}
}

func TestNewEngineRequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(EngineParams{})
	require.Error(t, err)

	catalog := &fakeCatalog{}
	_, err = NewEngine(EngineParams{
		GuestStore: newFakeGuestStore(),
		Gateway:    &fakeGateway{catalog: catalog},
		Products:   catalog,
	})
	require.Error(t, err)
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	t.Parallel()

	fx := newEngineFixture(t)
	snapshot := snapshotFor("Canvas Tote", 1000, nil, 0)
	fx.catalog.add(snapshot)

	userID := uuid.New()
	owner := Owner{UserID: &userID}

	cart, err := fx.engine.AddItem(context.Background(), owner, AddItemInput{
		ProductID: snapshot.ProductID,
		Quantity:  2,
	})
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 2, cart.Lines[0].Quantity)

	cart, err = fx.engine.AddItem(context.Background(), owner, AddItemInput{
		ProductID: snapshot.ProductID,
		Quantity:  3,
	})
	require.NoError(t, err)

	// Same product+variant never grows a second line.
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 5, cart.Lines[0].Quantity)
	assert.Equal(t, int64(5000), cart.TotalCents)
	assert.Equal(t, 5, cart.ItemCount)
}

func TestAddItemDistinctVariantsStaySeparate(t *testing.T) {
	t.Parallel()

	fx := newEngineFixture(t)
	base := snapshotFor("Tee", 1500, nil, 0)
	fx.catalog.add(base)

	variantID := uuid.New()
	variant := snapshotFor("Tee", 1500, &variantID, 200)
	variant.ProductID = base.ProductID
	fx.catalog.add(variant)

	userID := uuid.New()
	owner := Owner{UserID: &userID}

	_, err := fx.engine.AddItem(context.Background(), owner, AddItemInput{ProductID: base.ProductID, Quantity: 1})
	require.NoError(t, err)
	cart, err := fx.engine.AddItem(context.Background(), owner, AddItemInput{ProductID: base.ProductID, VariantID: &variantID, Quantity: 1})
	require.NoError(t, err)

	require.Len(t, cart.Lines, 2)
	assert.Equal(t, int64(1500+1700), cart.TotalCents)
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	t.Parallel()

	fx := newEngineFixture(t)
	snapshot := snapshotFor("Mug", 900, nil, 0)
	fx.catalog.add(snapshot)

	userID := uuid.New()
	for _, owner := range []Owner{{UserID: &userID}, {GuestToken: "guest-1"}} {
		_, err := fx.engine.AddItem(context.Background(), owner, AddItemInput{
			ProductID: snapshot.ProductID,
			Quantity:  0,
		})
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	}

	assert.Zero(t, fx.gateway.upsertCalls)
	assert.Zero(t, fx.guest.saveCalls)
}

func TestAddItemUnknownProduct(t *testing.T) {
	t.Parallel()

	fx := newEngineFixture(t)
	userID := uuid.New()

	_, err := fx.engine.AddItem(context.Background(), Owner{UserID: &userID}, AddItemInput{
		ProductID: uuid.New(),
		Quantity:  1,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	assert.Zero(t, fx.gateway.upsertCalls)
}

func TestGuestAddAndFetch(t *testing.T) {
	t.Parallel()

	fx := newEngineFixture(t)
	snapshot := snapshotFor("Poster", 1200, nil, 0)
	fx.catalog.add(snapshot)

	owner := Owner{GuestToken: "guest-7"}
	cart, err := fx.engine.AddItem(context.Background(), owner, AddItemInput{ProductID: snapshot.ProductID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(2400), cart.TotalCents)

	// The engine reads back what the store persisted, not what it cached.
	fetched, err := fx.engine.Fetch(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, fetched.Lines, 1)
	assert.Equal(t, 2, fetched.Lines[0].Quantity)
	assert.Zero(t, fx.gateway.upsertCalls)
}

func TestUpdateQuantityMissingLine(t *testing.T) {
	t.Parallel()

	fx := newEngineFixture(t)
	userID := uuid.New()

	_, err := fx.engine.UpdateQuantity(context.Background(), Owner{UserID: &userID}, uuid.NewString(), 3)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestUpdateQuantityZeroDelegatesToRemove(t *testing.T) {
	t.Parallel()

	fx := newEngineFixture(t)
	snapshot := snapshotFor("Cap", 800, nil, 0)
	fx.catalog.add(snapshot)

	userID := uuid.New()
	owner := Owner{UserID: &userID}
	cart, err := fx.engine.AddItem(context.Background(), owner, AddItemInput{ProductID: snapshot.ProductID, Quantity: 2})
	require.NoError(t, err)
	lineID := cart.Lines[0].ID

	cart, err = fx.engine.UpdateQuantity(context.Background(), owner, lineID, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
	assert.Zero(t, cart.TotalCents)
}

func TestRemoveItemIdempotent(t *testing.T) {
	t.Parallel()

	fx := newEngineFixture(t)
	snapshot := snapshotFor("Notebook", 500, nil, 0)
	fx.catalog.add(snapshot)

	userID := uuid.New()
	owner := Owner{UserID: &userID}
	cart, err := fx.engine.AddItem(context.Background(), owner, AddItemInput{ProductID: snapshot.ProductID, Quantity: 1})
	require.NoError(t, err)
	lineID := cart.Lines[0].ID

	cart, err = fx.engine.RemoveItem(context.Background(), owner, lineID)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)

	// Removing the same line again converges on the same state.
	cart, err = fx.engine.RemoveItem(context.Background(), owner, lineID)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
	assert.Zero(t, cart.ItemCount)
}

func TestClearRetriesTransientFailure(t *testing.T) {
	t.Parallel()

	fx := newEngineFixture(t)
	snapshot := snapshotFor("Lamp", 4000, nil, 0)
	fx.catalog.add(snapshot)

	userID := uuid.New()
	owner := Owner{UserID: &userID, GuestToken: "guest-residue"}
	_, err := fx.engine.AddItem(context.Background(), owner, AddItemInput{ProductID: snapshot.ProductID, Quantity: 1})
	require.NoError(t, err)
	fx.guest.items["guest-residue"] = []GuestItem{{
		ID:        GuestLineID(snapshot.ProductID, nil),
		ProductID: snapshot.ProductID,
		Quantity:  1,
	}}

	fx.gateway.deleteAllErrs = []error{
		pkgerrors.New(pkgerrors.CodeDependency, "store unavailable"),
	}

	cart, err := fx.engine.Clear(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
	assert.Equal(t, 2, fx.gateway.deleteAllCalls)
	assert.Empty(t, fx.guest.items["guest-residue"])
}

func TestBuyNowRequiresAuthentication(t *testing.T) {
	t.Parallel()

	fx := newEngineFixture(t)
	snapshot := snapshotFor("Desk", 20000, nil, 0)
	fx.catalog.add(snapshot)

	_, err := fx.engine.BuyNow(context.Background(), Owner{GuestToken: "guest-2"}, AddItemInput{
		ProductID: snapshot.ProductID,
		Quantity:  1,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())

	// Nothing was written on either side.
	assert.Zero(t, fx.gateway.upsertCalls)
	assert.Zero(t, fx.guest.saveCalls)
	assert.Empty(t, fx.guest.items["guest-2"])
}

func TestBuyNowAuthenticatedAddsSingleUnit(t *testing.T) {
	t.Parallel()

	fx := newEngineFixture(t)
	snapshot := snapshotFor("Desk", 20000, nil, 0)
	fx.catalog.add(snapshot)

	userID := uuid.New()
	cart, err := fx.engine.BuyNow(context.Background(), Owner{UserID: &userID}, AddItemInput{
		ProductID: snapshot.ProductID,
	})
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 1, cart.Lines[0].Quantity)
}

func TestMergeGuestCartSumsOnKeyMatch(t *testing.T) {
	t.Parallel()

	fx := newEngineFixture(t)
	shared := snapshotFor("Shared", 1000, nil, 0)
	guestOnly := snapshotFor("GuestOnly", 700, nil, 0)
	serverOnly := snapshotFor("ServerOnly", 300, nil, 0)
	fx.catalog.add(shared)
	fx.catalog.add(guestOnly)
	fx.catalog.add(serverOnly)

	userID := uuid.New()
	owner := Owner{UserID: &userID}
	_, err := fx.engine.AddItem(context.Background(), owner, AddItemInput{ProductID: shared.ProductID, Quantity: 1})
	require.NoError(t, err)
	_, err = fx.engine.AddItem(context.Background(), owner, AddItemInput{ProductID: serverOnly.ProductID, Quantity: 5})
	require.NoError(t, err)

	fx.guest.items["guest-9"] = []GuestItem{
		{ID: GuestLineID(shared.ProductID, nil), ProductID: shared.ProductID, Quantity: 2},
		{ID: GuestLineID(guestOnly.ProductID, nil), ProductID: guestOnly.ProductID, Quantity: 1},
	}

	cart, err := fx.engine.MergeGuestCart(context.Background(), userID, "guest-9")
	require.NoError(t, err)

	byKey := map[string]int{}
	for _, line := range cart.Lines {
		byKey[line.Key()] = line.Quantity
	}
	assert.Equal(t, 3, byKey[LineKey(shared.ProductID, nil)])
	assert.Equal(t, 1, byKey[LineKey(guestOnly.ProductID, nil)])
	assert.Equal(t, 5, byKey[LineKey(serverOnly.ProductID, nil)])
	require.Len(t, cart.Lines, 3)

	// Guest side is consumed by the merge.
	assert.Empty(t, fx.guest.items["guest-9"])
}

func TestMergeGuestCartEmptyGuestIsIdempotent(t *testing.T) {
	t.Parallel()

	fx := newEngineFixture(t)
	snapshot := snapshotFor("Chair", 9000, nil, 0)
	fx.catalog.add(snapshot)

	userID := uuid.New()
	_, err := fx.engine.AddItem(context.Background(), Owner{UserID: &userID}, AddItemInput{ProductID: snapshot.ProductID, Quantity: 2})
	require.NoError(t, err)
	upsertsAfterAdd := fx.gateway.upsertCalls

	first, err := fx.engine.MergeGuestCart(context.Background(), userID, "guest-3")
	require.NoError(t, err)
	second, err := fx.engine.MergeGuestCart(context.Background(), userID, "guest-3")
	require.NoError(t, err)

	assert.Equal(t, first.TotalCents, second.TotalCents)
	assert.Equal(t, first.ItemCount, second.ItemCount)
	assert.Equal(t, upsertsAfterAdd, fx.gateway.upsertCalls)
}

func TestMergeGuestCartSkipsVanishedProducts(t *testing.T) {
	t.Parallel()

	fx := newEngineFixture(t)
	live := snapshotFor("Live", 1000, nil, 0)
	fx.catalog.add(live)

	userID := uuid.New()
	fx.guest.items["guest-4"] = []GuestItem{
		{ID: "gone-default", ProductID: uuid.New(), Quantity: 3},
		{ID: GuestLineID(live.ProductID, nil), ProductID: live.ProductID, Quantity: 1},
	}

	cart, err := fx.engine.MergeGuestCart(context.Background(), userID, "guest-4")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, live.ProductID, cart.Lines[0].ProductID)
}

func TestDiscardGuest(t *testing.T) {
	t.Parallel()

	fx := newEngineFixture(t)
	fx.guest.items["guest-5"] = []GuestItem{{ID: "x", ProductID: uuid.New(), Quantity: 1}}

	require.NoError(t, fx.engine.DiscardGuest(context.Background(), "guest-5"))
	assert.Empty(t, fx.guest.items["guest-5"])

	// Empty token is a no-op, not an error.
	require.NoError(t, fx.engine.DiscardGuest(context.Background(), ""))
}

func TestFetchRejectsEmptyOwner(t *testing.T) {
	t.Parallel()

	fx := newEngineFixture(t)
	_, err := fx.engine.Fetch(context.Background(), Owner{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestOwnerLocksReleasedAfterUse(t *testing.T) {
	t.Parallel()

	fx := newEngineFixture(t)
	snapshot := snapshotFor("Sticker", 300, nil, 0)
	fx.catalog.add(snapshot)

	// Churn through many distinct guest tokens plus a user; once every
	// operation returns, no per-owner entry may linger.
	for i := 0; i < 50; i++ {
		owner := Owner{GuestToken: "guest-churn-" + uuid.NewString()}
		_, err := fx.engine.AddItem(context.Background(), owner, AddItemInput{
			ProductID: snapshot.ProductID,
			Quantity:  1,
		})
		require.NoError(t, err)
	}

	userID := uuid.New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.engine.AddItem(context.Background(), Owner{UserID: &userID}, AddItemInput{
				ProductID: snapshot.ProductID,
				Quantity:  1,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	fx.engine.mu.Lock()
	defer fx.engine.mu.Unlock()
	assert.Empty(t, fx.engine.locks)
}
