package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/vitrine-checkout/api/responses"
	"github.com/angelmondragon/vitrine-checkout/internal/catalog"
	"github.com/angelmondragon/vitrine-checkout/pkg/logger"
)

// StorefrontContext validates the {subdomain} route parameter and stores its
// normalized form in the request context.
func StorefrontContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subdomain, err := catalog.NormalizeSubdomain(chi.URLParam(r, "subdomain"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			ctx := WithSubdomain(r.Context(), subdomain)
			if logg != nil {
				ctx = logg.WithSubdomain(ctx, subdomain)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
