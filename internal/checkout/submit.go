package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/angelmondragon/vitrine-checkout/internal/cart"
	"github.com/angelmondragon/vitrine-checkout/internal/catalog"
	pkgerrors "github.com/angelmondragon/vitrine-checkout/pkg/errors"
	"github.com/angelmondragon/vitrine-checkout/pkg/redis"
	"github.com/angelmondragon/vitrine-checkout/pkg/types"
	"github.com/angelmondragon/vitrine-checkout/pkg/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LastOrder is the snapshot kept for the confirmation screen.
type LastOrder struct {
	Subdomain   string          `json:"subdomain"`
	StoreID     int64           `json:"store_id"`
	Customer    Customer        `json:"customer"`
	Address     types.Address   `json:"address"`
	Cart        cart.View       `json:"cart"`
	Shipping    Shipping        `json:"shipping"`
	Total       decimal.Decimal `json:"total"`
	Receipt     json.RawMessage `json:"receipt,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// Submit validates the form, posts one order and, on success, archives the
// cart snapshot and clears the cart. A failed post leaves the cart as it was.
func (s *service) Submit(ctx context.Context, key cart.Key, input SubmitInput) (*LastOrder, error) {
	storefront, err := s.storefronts.Get(ctx, key.Subdomain)
	if err != nil {
		return nil, err
	}
	storeID, ok := catalog.StoreID(storefront)
	if !ok {
		s.metrics.IncOrder("invalid")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store not identified")
	}

	input = input.Normalize()
	state := s.loadState(ctx, key)
	if state.AddressLocked && state.Status.AddressResolved() && state.PostalCode == input.Address.PostalCode {
		input.Address = input.Address.WithLocked(state.Address)
	}
	if err := validation.Struct(input); err != nil {
		s.metrics.IncOrder("invalid")
		return nil, err
	}

	current := s.carts.Load(ctx, key)
	if current.IsEmpty() {
		s.metrics.IncOrder("invalid")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, MessageCartEmpty)
	}

	shipping := Shipping{Price: decimal.Zero}
	if state.PostalCode == input.Address.PostalCode {
		shipping = state.Shipping
	}

	release, err := s.acquireSubmitLock(ctx, key.SessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	receipt, err := s.orders.SubmitOrder(ctx, buildOrderRequest(storeID, input, current, shipping))
	if err != nil {
		s.metrics.IncOrder("rejected")
		s.logg.Error(s.logg.WithStoreID(ctx, strconv.FormatInt(storeID, 10)), "order submission failed", err)
		if pkgerrors.As(err) == nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamRejected, err, "order submission failed")
		}
		return nil, err
	}
	s.metrics.IncOrder("submitted")

	view := current.View()
	snapshot := &LastOrder{
		Subdomain:   key.Subdomain,
		StoreID:     storeID,
		Customer:    input.Customer,
		Address:     input.Address,
		Cart:        view,
		Shipping:    shipping,
		Total:       view.Subtotal.Add(shipping.Price),
		Receipt:     receipt,
		SubmittedAt: s.opts.Clock().UTC(),
	}
	s.archive(ctx, key, snapshot)
	return snapshot, nil
}

func (s *service) archive(ctx context.Context, key cart.Key, snapshot *LastOrder) {
	if encoded, err := json.Marshal(snapshot); err != nil {
		s.logg.Error(ctx, "encode last order snapshot", err)
	} else if err := s.docs.Set(ctx, s.docs.LastOrderKey(key.SessionID), encoded, s.opts.LastOrderTTL); err != nil {
		s.logg.Error(ctx, "archive last order snapshot", err)
	}
	if err := s.carts.Clear(ctx, key); err != nil {
		s.logg.Error(ctx, "clear cart after order", err)
	}
	if err := s.resetState(ctx, key); err != nil {
		s.logg.Error(ctx, "reset checkout state after order", err)
	}
}

// LastOrder returns the most recent completed order of the session.
func (s *service) LastOrder(ctx context.Context, sessionID string) (*LastOrder, error) {
	raw, err := s.docs.Get(ctx, s.docs.LastOrderKey(sessionID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no completed order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read last order")
	}
	var snapshot LastOrder
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		s.warn(ctx, err, "last order snapshot unreadable")
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no completed order")
	}
	return &snapshot, nil
}

// acquireSubmitLock allows one in-flight submission per session.
func (s *service) acquireSubmitLock(ctx context.Context, sessionID string) (func(), error) {
	lockKey := s.docs.IdempotencyKey("submit", sessionID)
	ok, err := s.docs.SetNX(ctx, lockKey, uuid.NewString(), s.opts.SubmitLockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire submission lock")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an order submission is already in progress")
	}
	return func() {
		if err := s.docs.Del(context.WithoutCancel(ctx), lockKey); err != nil {
			s.warn(ctx, err, "release submission lock")
		}
	}, nil
}
