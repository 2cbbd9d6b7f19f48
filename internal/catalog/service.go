package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/vitrine-checkout/pkg/errors"
	"github.com/angelmondragon/vitrine-checkout/pkg/logger"
	"github.com/angelmondragon/vitrine-checkout/pkg/redis"
	"github.com/angelmondragon/vitrine-checkout/pkg/vitrine"
	"golang.org/x/sync/singleflight"
)

// sharedFetchTimeout bounds a storefront fetch shared by concurrent callers.
const sharedFetchTimeout = 15 * time.Second

var subdomainPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)

// NormalizeSubdomain lower-cases and validates a storefront subdomain label.
func NormalizeSubdomain(raw string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if !subdomainPattern.MatchString(value) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid storefront subdomain").
			WithDetails(map[string]string{"subdomain": raw})
	}
	return value, nil
}

type storefrontFetcher interface {
	Storefront(ctx context.Context, subdomain string) (*vitrine.Storefront, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	StorefrontKey(subdomain string) string
}

// Service resolves storefront metadata and products.
type Service interface {
	Get(ctx context.Context, subdomain string) (*vitrine.Storefront, error)
	Product(ctx context.Context, subdomain string, productID int64) (*vitrine.Product, error)
}

type service struct {
	api    storefrontFetcher
	cache  cacheStore
	ttl    time.Duration
	logg   *logger.Logger
	flight singleflight.Group
}

// NewService builds a read-through catalog. A zero ttl disables caching.
func NewService(api storefrontFetcher, cache cacheStore, ttl time.Duration, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("storefront api required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache store required")
	}
	return &service{api: api, cache: cache, ttl: ttl, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, subdomain string) (*vitrine.Storefront, error) {
	subdomain, err := NormalizeSubdomain(subdomain)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.fromCache(ctx, subdomain); ok {
		return cached, nil
	}

	// The fetch outlives any single caller; each caller still honours its own ctx.
	ch := s.flight.DoChan(subdomain, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		storefront, err := s.api.Storefront(fetchCtx, subdomain)
		if err != nil {
			return nil, err
		}
		s.storeCache(fetchCtx, subdomain, storefront)
		return storefront, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*vitrine.Storefront), nil
	}
}

func (s *service) Product(ctx context.Context, subdomain string, productID int64) (*vitrine.Product, error) {
	storefront, err := s.Get(ctx, subdomain)
	if err != nil {
		return nil, err
	}
	for i := range storefront.Products {
		if storefront.Products[i].ID == productID {
			product := storefront.Products[i]
			return &product, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
		WithDetails(map[string]any{"product_id": productID})
}

func (s *service) fromCache(ctx context.Context, subdomain string) (*vitrine.Storefront, bool) {
	if s.ttl <= 0 {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, s.cache.StorefrontKey(subdomain))
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "storefront cache read failed")
		}
		return nil, false
	}
	var storefront vitrine.Storefront
	if err := json.Unmarshal(raw, &storefront); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "storefront cache entry unreadable")
		return nil, false
	}
	return &storefront, true
}

func (s *service) storeCache(ctx context.Context, subdomain string, storefront *vitrine.Storefront) {
	if s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(storefront)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "storefront cache encode failed")
		return
	}
	if err := s.cache.Set(ctx, s.cache.StorefrontKey(subdomain), raw, s.ttl); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "storefront cache write failed")
	}
}

// StoreID returns the storefront's store identifier when the API sent one.
func StoreID(storefront *vitrine.Storefront) (int64, bool) {
	if storefront == nil || storefront.ID == nil || *storefront.ID <= 0 {
		return 0, false
	}
	return *storefront.ID, true
}
