package checkout

import (
	"context"
	"errors"
	"strconv"

	"github.com/angelmondragon/vitrine-checkout/internal/cart"
	"github.com/angelmondragon/vitrine-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/vitrine-checkout/pkg/errors"
	"github.com/angelmondragon/vitrine-checkout/pkg/melhorenvio"
	"github.com/angelmondragon/vitrine-checkout/pkg/types"
	"github.com/shopspring/decimal"
)

// SetPostalCode records a postal code edit. Every edit zeroes shipping before
// any lookup runs. A complete code then resolves the address and a shipping
// quote; results belonging to a superseded edit are dropped.
func (s *service) SetPostalCode(ctx context.Context, key cart.Key, raw string) (Summary, error) {
	digits := types.OnlyDigits(raw)
	if len(digits) > types.PostalCodeDigits {
		return Summary{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"postal_code": "must have exactly 8 digits"})
	}
	complete := len(digits) == types.PostalCodeDigits

	state, err := s.updateState(ctx, key, 0, func(st *State) {
		st.Generation++
		st.PostalCode = digits
		st.Shipping = Shipping{Price: decimal.Zero}
		st.Error = ""
		st.AddressLocked = false
		st.LockedFields = nil
		st.Status = enums.ResolutionIdle
		if complete {
			st.Status = enums.ResolutionResolvingAddress
		}
	})
	if err != nil {
		return Summary{}, err
	}

	if complete {
		s.resolve(ctx, key, state.Generation, digits)
	}
	return s.State(ctx, key), nil
}

func (s *service) resolve(ctx context.Context, key cart.Key, generation uint64, postalCode string) {
	found, err := s.addresses.Lookup(ctx, postalCode)
	if err != nil {
		message := MessageAddressUnavailable
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			message = MessageInvalidPostalCode
		} else {
			s.warn(ctx, err, "address lookup failed")
		}
		s.fail(ctx, key, generation, message)
		return
	}

	resolved := found.ToAddress()
	_, err = s.updateState(ctx, key, generation, func(st *State) {
		st.Address = st.Address.WithoutLookup().WithLocked(resolved)
		st.Address.PostalCode = postalCode
		st.AddressLocked = true
		st.LockedFields = resolved.LookupFields()
		st.Status = enums.ResolutionResolvingShipping
	})
	if err != nil {
		s.drop(ctx, err)
		return
	}

	current := s.carts.Load(ctx, key)
	if current.IsEmpty() {
		s.fail(ctx, key, generation, MessageCartEmpty)
		return
	}

	options, err := s.rates.Quote(ctx, melhorenvio.QuoteRequest{
		FromPostalCode: s.origin(ctx, key.Subdomain),
		ToPostalCode:   postalCode,
		Packages:       packagesFor(current),
	})
	if err != nil {
		s.warn(ctx, err, "shipping quote failed")
		s.fail(ctx, key, generation, MessageShippingUnavailable)
		return
	}
	best, ok := melhorenvio.FirstPriced(options)
	if !ok {
		s.fail(ctx, key, generation, MessageShippingUnavailable)
		return
	}

	_, err = s.updateState(ctx, key, generation, func(st *State) {
		st.Status = enums.ResolutionResolved
		st.Shipping = Shipping{
			Price:        *best.Price,
			Carrier:      best.Carrier,
			Service:      best.Name,
			DeliveryDays: best.DeliveryDays,
		}
	})
	if err != nil {
		s.drop(ctx, err)
		return
	}
	s.metrics.IncResolution(enums.ResolutionResolved.String())
}

// fail moves the checkout to the error state with zero shipping. Address
// fields are left as they were.
func (s *service) fail(ctx context.Context, key cart.Key, generation uint64, message string) {
	_, err := s.updateState(ctx, key, generation, func(st *State) {
		st.Status = enums.ResolutionError
		st.Error = message
		st.Shipping = Shipping{Price: decimal.Zero}
	})
	if err != nil {
		s.drop(ctx, err)
		return
	}
	s.metrics.IncResolution(enums.ResolutionError.String())
}

func (s *service) drop(ctx context.Context, err error) {
	if errors.Is(err, errStale) {
		s.logg.Debug(ctx, "discarding superseded postal code resolution")
		return
	}
	s.warn(ctx, err, "checkout state write failed")
}

// origin prefers the storefront's own postal code over the configured default.
func (s *service) origin(ctx context.Context, subdomain string) string {
	storefront, err := s.storefronts.Get(ctx, subdomain)
	if err != nil {
		s.warn(ctx, err, "storefront unavailable, using default shipping origin")
		return s.opts.DefaultOrigin
	}
	if digits := types.OnlyDigits(storefront.PostalCode); len(digits) == types.PostalCodeDigits {
		return digits
	}
	return s.opts.DefaultOrigin
}

func packagesFor(c cart.Cart) []melhorenvio.Package {
	packages := make([]melhorenvio.Package, 0, len(c.Items))
	for _, item := range c.Items {
		packages = append(packages, melhorenvio.Package{
			ID:             strconv.FormatInt(item.ProductID, 10),
			Width:          item.Width,
			Height:         item.Height,
			Length:         item.Depth,
			Weight:         item.Weight,
			InsuranceValue: item.EffectivePrice(),
			Quantity:       item.Quantity,
		})
	}
	return packages
}
