package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/vitrine-checkout/pkg/errors"
	"github.com/angelmondragon/vitrine-checkout/pkg/logger"
	"github.com/angelmondragon/vitrine-checkout/pkg/redis"
)

type documentStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, keys ...string) error
	Mutate(ctx context.Context, key string, ttl time.Duration, retries int, fn func(current []byte) ([]byte, error)) error
	CartKey(sessionID, subdomain string) string
}

// Store persists carts keyed by session and storefront.
type Store interface {
	Load(ctx context.Context, key Key) Cart
	Update(ctx context.Context, key Key, fn func(*Cart) error) (Cart, error)
	Clear(ctx context.Context, key Key) error
}

type redisStore struct {
	docs    documentStore
	ttl     time.Duration
	retries int
	logg    *logger.Logger
	now     func() time.Time
}

// NewStore builds the Redis-backed cart store.
func NewStore(docs documentStore, ttl time.Duration, retries int, logg *logger.Logger) (Store, error) {
	if docs == nil {
		return nil, fmt.Errorf("document store required")
	}
	return &redisStore{docs: docs, ttl: ttl, retries: retries, logg: logg, now: time.Now}, nil
}

// Load never fails: unreadable or missing entries yield an empty cart.
func (s *redisStore) Load(ctx context.Context, key Key) Cart {
	raw, err := s.docs.Get(ctx, s.docs.CartKey(key.SessionID, key.Subdomain))
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.warn(ctx, key, err, "cart read failed, using empty cart")
		}
		return emptyCart(key)
	}
	return s.decode(ctx, key, raw)
}

func (s *redisStore) Update(ctx context.Context, key Key, fn func(*Cart) error) (Cart, error) {
	var result Cart
	err := s.docs.Mutate(ctx, s.docs.CartKey(key.SessionID, key.Subdomain), s.ttl, s.retries, func(current []byte) ([]byte, error) {
		cart := emptyCart(key)
		if current != nil {
			cart = s.decode(ctx, key, current)
		}
		if err := fn(&cart); err != nil {
			return nil, err
		}
		cart.Subdomain = key.Subdomain
		cart.UpdatedAt = s.now().UTC()
		encoded, err := json.Marshal(cart)
		if err != nil {
			return nil, err
		}
		result = cart
		return encoded, nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return Cart{}, typed
		}
		if errors.Is(err, redis.ErrConflict) {
			return Cart{}, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart changed concurrently, please retry")
		}
		return Cart{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	return result, nil
}

// Clear removes the storage entry for the cart.
func (s *redisStore) Clear(ctx context.Context, key Key) error {
	if err := s.docs.Del(ctx, s.docs.CartKey(key.SessionID, key.Subdomain)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *redisStore) decode(ctx context.Context, key Key, raw []byte) Cart {
	var cart Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		s.warn(ctx, key, err, "cart entry unreadable, using empty cart")
		return emptyCart(key)
	}
	cart.Subdomain = key.Subdomain
	return cart
}

func (s *redisStore) warn(ctx context.Context, key Key, err error, msg string) {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"session_id": key.SessionID,
		"subdomain":  key.Subdomain,
		"error":      err.Error(),
	})
	s.logg.Warn(ctx, msg)
}

func emptyCart(key Key) Cart {
	return Cart{Subdomain: key.Subdomain, Items: []Item{}}
}
