package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/vitrine-checkout/internal/cart"
	"github.com/angelmondragon/vitrine-checkout/pkg/logger"
	"github.com/angelmondragon/vitrine-checkout/pkg/melhorenvio"
	"github.com/angelmondragon/vitrine-checkout/pkg/metrics"
	"github.com/angelmondragon/vitrine-checkout/pkg/viacep"
	"github.com/angelmondragon/vitrine-checkout/pkg/vitrine"
	"github.com/shopspring/decimal"
)

type cartStore interface {
	Load(ctx context.Context, key cart.Key) cart.Cart
	Clear(ctx context.Context, key cart.Key) error
}

type storefrontLoader interface {
	Get(ctx context.Context, subdomain string) (*vitrine.Storefront, error)
}

type addressLookup interface {
	Lookup(ctx context.Context, postalCode string) (*viacep.Address, error)
}

type rateQuoter interface {
	Quote(ctx context.Context, req melhorenvio.QuoteRequest) ([]melhorenvio.Option, error)
}

type orderSubmitter interface {
	SubmitOrder(ctx context.Context, req vitrine.OrderRequest) (json.RawMessage, error)
}

// Service drives postal code resolution and order submission for one
// storefront checkout at a time.
type Service interface {
	State(ctx context.Context, key cart.Key) Summary
	SetPostalCode(ctx context.Context, key cart.Key, raw string) (Summary, error)
	Submit(ctx context.Context, key cart.Key, input SubmitInput) (*LastOrder, error)
	LastOrder(ctx context.Context, sessionID string) (*LastOrder, error)
}

// Options tunes persistence and defaults.
type Options struct {
	DefaultOrigin string
	StateTTL      time.Duration
	LastOrderTTL  time.Duration
	SubmitLockTTL time.Duration
	WriteRetries  int
	Clock         func() time.Time
}

// Deps groups the collaborators of the checkout service.
type Deps struct {
	Docs        documentStore
	Carts       cartStore
	Storefronts storefrontLoader
	Addresses   addressLookup
	Rates       rateQuoter
	Orders      orderSubmitter
	Metrics     *metrics.CheckoutMetrics
	Logger      *logger.Logger
}

type service struct {
	docs        documentStore
	carts       cartStore
	storefronts storefrontLoader
	addresses   addressLookup
	rates       rateQuoter
	orders      orderSubmitter
	metrics     *metrics.CheckoutMetrics
	logg        *logger.Logger
	opts        Options
}

// NewService builds the checkout service.
func NewService(deps Deps, opts Options) (Service, error) {
	if deps.Docs == nil {
		return nil, fmt.Errorf("document store required")
	}
	if deps.Carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if deps.Storefronts == nil {
		return nil, fmt.Errorf("storefront loader required")
	}
	if deps.Addresses == nil {
		return nil, fmt.Errorf("address lookup required")
	}
	if deps.Rates == nil {
		return nil, fmt.Errorf("rate quoter required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("order submitter required")
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.WriteRetries <= 0 {
		opts.WriteRetries = 5
	}
	if opts.SubmitLockTTL <= 0 {
		opts.SubmitLockTTL = 30 * time.Second
	}
	opts.DefaultOrigin = strings.TrimSpace(opts.DefaultOrigin)
	return &service{
		docs:        deps.Docs,
		carts:       deps.Carts,
		storefronts: deps.Storefronts,
		addresses:   deps.Addresses,
		rates:       deps.Rates,
		orders:      deps.Orders,
		metrics:     deps.Metrics,
		logg:        deps.Logger,
		opts:        opts,
	}, nil
}

// Summary is the checkout screen: cart, resolution state and order total.
type Summary struct {
	Cart       cart.View       `json:"cart"`
	Resolution State           `json:"resolution"`
	Shipping   decimal.Decimal `json:"shipping"`
	Total      decimal.Decimal `json:"total"`
}

func summarize(c cart.Cart, state State) Summary {
	view := c.View()
	shipping := state.Shipping.Price
	return Summary{
		Cart:       view,
		Resolution: state,
		Shipping:   shipping,
		Total:      view.Subtotal.Add(shipping),
	}
}

// State returns the current checkout summary.
func (s *service) State(ctx context.Context, key cart.Key) Summary {
	return summarize(s.carts.Load(ctx, key), s.loadState(ctx, key))
}

func (s *service) warn(ctx context.Context, err error, msg string) {
	if err != nil {
		ctx = s.logg.WithField(ctx, "error", err.Error())
	}
	s.logg.Warn(ctx, msg)
}
