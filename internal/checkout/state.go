package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/angelmondragon/vitrine-checkout/internal/cart"
	"github.com/angelmondragon/vitrine-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/vitrine-checkout/pkg/errors"
	"github.com/angelmondragon/vitrine-checkout/pkg/redis"
	"github.com/angelmondragon/vitrine-checkout/pkg/types"
	"github.com/shopspring/decimal"
)

// User-facing resolution error messages.
const (
	MessageInvalidPostalCode   = "invalid postal code"
	MessageAddressUnavailable  = "address lookup unavailable"
	MessageShippingUnavailable = "shipping unavailable"
	MessageCartEmpty           = "cart is empty"
)

// Shipping is the quote currently attached to a checkout.
type Shipping struct {
	Price        decimal.Decimal `json:"price"`
	Carrier      string          `json:"carrier,omitempty"`
	Service      string          `json:"service,omitempty"`
	DeliveryDays int             `json:"delivery_days,omitempty"`
}

// State is the postal code resolution state of one checkout. Generation grows
// on every postal code edit; results computed for an older generation are
// dropped.
type State struct {
	Generation    uint64                 `json:"generation"`
	PostalCode    string                 `json:"postal_code"`
	Status        enums.ResolutionStatus `json:"status"`
	Address       types.Address          `json:"address"`
	AddressLocked bool                   `json:"address_locked"`
	LockedFields  []string               `json:"locked_fields,omitempty"`
	Shipping      Shipping               `json:"shipping"`
	Error         string                 `json:"error,omitempty"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

func idleState() State {
	return State{Status: enums.ResolutionIdle, Shipping: Shipping{Price: decimal.Zero}}
}

// errStale aborts a state write whose generation was superseded.
var errStale = errors.New("checkout state superseded")

type documentStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	Mutate(ctx context.Context, key string, ttl time.Duration, retries int, fn func(current []byte) ([]byte, error)) error
	CheckoutKey(sessionID, subdomain string) string
	LastOrderKey(sessionID string) string
	IdempotencyKey(scope, id string) string
}

func (s *service) loadState(ctx context.Context, key cart.Key) State {
	raw, err := s.docs.Get(ctx, s.docs.CheckoutKey(key.SessionID, key.Subdomain))
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.warn(ctx, err, "checkout state read failed")
		}
		return idleState()
	}
	var state State
	if err := json.Unmarshal(raw, &state); err != nil || !state.Status.IsValid() {
		s.warn(ctx, err, "checkout state unreadable")
		return idleState()
	}
	return state
}

// updateState applies fn to the stored state. When generation is non-zero the
// write only lands if the stored generation still matches; otherwise errStale
// is returned and nothing changes.
func (s *service) updateState(ctx context.Context, key cart.Key, generation uint64, fn func(*State)) (State, error) {
	var result State
	err := s.docs.Mutate(ctx, s.docs.CheckoutKey(key.SessionID, key.Subdomain), s.opts.StateTTL, s.opts.WriteRetries, func(current []byte) ([]byte, error) {
		state := idleState()
		if current != nil {
			if err := json.Unmarshal(current, &state); err != nil || !state.Status.IsValid() {
				state = idleState()
			}
		}
		if generation != 0 && state.Generation != generation {
			return nil, errStale
		}
		fn(&state)
		state.UpdatedAt = s.opts.Clock().UTC()
		encoded, err := json.Marshal(state)
		if err != nil {
			return nil, err
		}
		result = state
		return encoded, nil
	})
	if err != nil {
		if errors.Is(err, errStale) {
			return State{}, errStale
		}
		if errors.Is(err, redis.ErrConflict) {
			return State{}, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "checkout changed concurrently, please retry")
		}
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist checkout state")
	}
	return result, nil
}

func (s *service) resetState(ctx context.Context, key cart.Key) error {
	return s.docs.Del(ctx, s.docs.CheckoutKey(key.SessionID, key.Subdomain))
}
