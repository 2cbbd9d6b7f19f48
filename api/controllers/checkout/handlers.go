package checkout

import (
	"net/http"

	"github.com/angelmondragon/vitrine-checkout/api/middleware"
	"github.com/angelmondragon/vitrine-checkout/api/responses"
	"github.com/angelmondragon/vitrine-checkout/api/validators"
	checkoutsvc "github.com/angelmondragon/vitrine-checkout/internal/checkout"
	pkgerrors "github.com/angelmondragon/vitrine-checkout/pkg/errors"
	"github.com/angelmondragon/vitrine-checkout/pkg/logger"
)

type postalCodeRequest struct {
	PostalCode string `json:"postal_code" validate:"max=16"`
}

// State returns the cart, resolution state and totals.
func State(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		responses.WriteSuccess(w, svc.State(r.Context(), middleware.ShopperKey(r.Context())))
	}
}

// SetPostalCode records the shopper's postal code and, when complete,
// resolves the address and shipping quote before answering.
func SetPostalCode(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		var payload postalCodeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.SetPostalCode(r.Context(), middleware.ShopperKey(r.Context()), payload.PostalCode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// Submit places the order. Field validation runs after normalization inside
// the service, so the body is only decoded here.
func Submit(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		var payload checkoutsvc.SubmitInput
		if err := validators.DecodeJSON(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Submit(r.Context(), middleware.ShopperKey(r.Context()), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// LastOrder returns the confirmation snapshot of the session's latest order.
func LastOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		order, err := svc.LastOrder(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
