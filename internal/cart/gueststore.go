package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/northwindlabs/storefront/pkg/logger"
	redislib "github.com/redis/go-redis/v9"
)

// GuestItem is the persisted shape of one anonymous cart line. Only identity
// and quantity are stored; pricing is resolved from the catalog on read so a
// stale snapshot can never undercut current prices.
type GuestItem struct {
	ID        string     `json:"id"`
	ProductID uuid.UUID  `json:"product_id"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity"`
	AddedAt   time.Time  `json:"added_at"`
}

// GuestStore persists anonymous carts between visits.
type GuestStore interface {
	Load(ctx context.Context, token string) ([]GuestItem, error)
	Save(ctx context.Context, token string, items []GuestItem) error
	Clear(ctx context.Context, token string) error
}

type guestKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	GuestCartKey(guestToken string) string
}

// RedisGuestStore keeps each guest cart as one JSON blob under a namespaced
// key. A corrupt payload degrades to an empty cart; writes overwrite whole.
type RedisGuestStore struct {
	kv   guestKV
	ttl  time.Duration
	logg *logger.Logger
}

// NewRedisGuestStore builds the store. TTL bounds how long abandoned guest
// carts survive; zero means no expiry.
func NewRedisGuestStore(kv guestKV, ttl time.Duration, logg *logger.Logger) (*RedisGuestStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis store is required")
	}
	return &RedisGuestStore{kv: kv, ttl: ttl, logg: logg}, nil
}

// Load returns the stored items for the token. Missing key and malformed
// payloads both yield an empty cart.
func (s *RedisGuestStore) Load(ctx context.Context, token string) ([]GuestItem, error) {
	if token == "" {
		return []GuestItem{}, nil
	}
	raw, err := s.kv.Get(ctx, s.kv.GuestCartKey(token))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return []GuestItem{}, nil
		}
		return nil, fmt.Errorf("load guest cart: %w", err)
	}

	var items []GuestItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "discarding corrupt guest cart payload")
		}
		return []GuestItem{}, nil
	}

	clean := items[:0]
	for _, item := range items {
		if item.ProductID == uuid.Nil || item.Quantity <= 0 {
			continue
		}
		clean = append(clean, item)
	}
	return clean, nil
}

// Save overwrites the whole cart. Concurrent writers race last-write-wins;
// there is no per-item merge at this layer.
func (s *RedisGuestStore) Save(ctx context.Context, token string, items []GuestItem) error {
	if token == "" {
		return fmt.Errorf("guest token is required")
	}
	if len(items) == 0 {
		return s.Clear(ctx, token)
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode guest cart: %w", err)
	}
	if err := s.kv.Set(ctx, s.kv.GuestCartKey(token), string(payload), s.ttl); err != nil {
		return fmt.Errorf("save guest cart: %w", err)
	}
	return nil
}

// Clear removes the cart key. Deleting an absent key is a no-op.
func (s *RedisGuestStore) Clear(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.kv.Del(ctx, s.kv.GuestCartKey(token)); err != nil {
		return fmt.Errorf("clear guest cart: %w", err)
	}
	return nil
}
