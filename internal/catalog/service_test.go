package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/angelmondragon/vitrine-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/vitrine-checkout/pkg/errors"
	"github.com/angelmondragon/vitrine-checkout/pkg/logger"
	pkgredis "github.com/angelmondragon/vitrine-checkout/pkg/redis"
	"github.com/angelmondragon/vitrine-checkout/pkg/vitrine"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAPI struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
	ctxErr  atomic.Value
}

func (s *stubAPI) Storefront(ctx context.Context, subdomain string) (*vitrine.Storefront, error) {
	s.calls.Add(1)
	if s.release != nil {
		<-s.release
	}
	if err := ctx.Err(); err != nil {
		s.ctxErr.Store(err)
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	id := int64(7)
	return &vitrine.Storefront{
		ID:        &id,
		Name:      "Loja",
		Subdomain: subdomain,
		Layout:    enums.LayoutModern,
		Products: []vitrine.Product{
			{ID: 1, Title: "Caneca", Price: decimal.NewFromInt(10), Stock: 3},
		},
	}, nil
}

func setup(t *testing.T, api *stubAPI, ttl time.Duration) (Service, *miniredis.Miniredis, *pkgredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	client := pkgredis.NewFromRaw(raw)
	svc, err := NewService(api, client, ttl, logger.Nop())
	require.NoError(t, err)
	return svc, mr, client
}

func TestGetCachesStorefront(t *testing.T) {
	api := &stubAPI{}
	svc, mr, client := setup(t, api, time.Minute)
	ctx := context.Background()

	first, err := svc.Get(ctx, "Loja-Ana")
	require.NoError(t, err)
	assert.Equal(t, "loja-ana", first.Subdomain)
	assert.True(t, mr.Exists(client.StorefrontKey("loja-ana")))

	second, err := svc.Get(ctx, "loja-ana")
	require.NoError(t, err)
	assert.Equal(t, enums.LayoutModern, second.Layout)
	assert.True(t, second.Products[0].Price.Equal(decimal.NewFromInt(10)))
	assert.EqualValues(t, 1, api.calls.Load())
}

func TestGetIgnoresCorruptCacheEntry(t *testing.T) {
	api := &stubAPI{}
	svc, mr, client := setup(t, api, time.Minute)
	require.NoError(t, mr.Set(client.StorefrontKey("loja"), "{not json"))

	storefront, err := svc.Get(context.Background(), "loja")
	require.NoError(t, err)
	assert.Equal(t, "Loja", storefront.Name)
	assert.EqualValues(t, 1, api.calls.Load())
}

func TestConcurrentMissesShareOneFetch(t *testing.T) {
	api := &stubAPI{release: make(chan struct{})}
	svc, _, _ := setup(t, api, 0)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Get(context.Background(), "loja")
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(api.release)
	wg.Wait()

	assert.EqualValues(t, 1, api.calls.Load())
}

func TestCancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	api := &stubAPI{release: make(chan struct{})}
	svc, _, _ := setup(t, api, 0)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Get(firstCtx, "loja")
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return api.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		storefront *vitrine.Storefront
		err        error
	}
	second := make(chan result, 1)
	go func() {
		storefront, err := svc.Get(context.Background(), "loja")
		second <- result{storefront, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(api.release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, "Loja", got.storefront.Name)
	assert.Nil(t, api.ctxErr.Load())
	assert.EqualValues(t, 1, api.calls.Load())
}

func TestProductLookup(t *testing.T) {
	svc, _, _ := setup(t, &stubAPI{}, 0)

	product, err := svc.Product(context.Background(), "loja", 1)
	require.NoError(t, err)
	assert.Equal(t, "Caneca", product.Title)

	_, err = svc.Product(context.Background(), "loja", 99)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestGetPropagatesAPIError(t *testing.T) {
	svc, _, _ := setup(t, &stubAPI{err: pkgerrors.New(pkgerrors.CodeNotFound, "storefront not found")}, time.Minute)
	_, err := svc.Get(context.Background(), "loja")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestNormalizeSubdomain(t *testing.T) {
	got, err := NormalizeSubdomain(" Minha-Loja ")
	require.NoError(t, err)
	assert.Equal(t, "minha-loja", got)

	for _, bad := range []string{"", "-loja", "loja_1", "a.b", "loja-"} {
		_, err := NormalizeSubdomain(bad)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), bad)
	}
}

func TestStoreID(t *testing.T) {
	_, ok := StoreID(&vitrine.Storefront{})
	assert.False(t, ok)
	id := int64(3)
	got, ok := StoreID(&vitrine.Storefront{ID: &id})
	assert.True(t, ok)
	assert.EqualValues(t, 3, got)
}
