package controllers

import (
	"net/http"

	"github.com/angelmondragon/vitrine-checkout/api/middleware"
	"github.com/angelmondragon/vitrine-checkout/api/responses"
	"github.com/angelmondragon/vitrine-checkout/internal/catalog"
	pkgerrors "github.com/angelmondragon/vitrine-checkout/pkg/errors"
	"github.com/angelmondragon/vitrine-checkout/pkg/logger"
)

// StorefrontGet returns the storefront with its catalog, layout normalized.
func StorefrontGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		storefront, err := svc.Get(r.Context(), middleware.SubdomainFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, storefront)
	}
}
