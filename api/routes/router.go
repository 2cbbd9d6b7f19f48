package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/vitrine-checkout/api/controllers"
	cartcontrollers "github.com/angelmondragon/vitrine-checkout/api/controllers/cart"
	checkoutcontrollers "github.com/angelmondragon/vitrine-checkout/api/controllers/checkout"
	ordercontrollers "github.com/angelmondragon/vitrine-checkout/api/controllers/orders"
	"github.com/angelmondragon/vitrine-checkout/api/middleware"
	"github.com/angelmondragon/vitrine-checkout/api/responses"
	"github.com/angelmondragon/vitrine-checkout/internal/cart"
	"github.com/angelmondragon/vitrine-checkout/internal/catalog"
	"github.com/angelmondragon/vitrine-checkout/internal/checkout"
	"github.com/angelmondragon/vitrine-checkout/internal/orders"
	"github.com/angelmondragon/vitrine-checkout/pkg/config"
	pkgerrors "github.com/angelmondragon/vitrine-checkout/pkg/errors"
	"github.com/angelmondragon/vitrine-checkout/pkg/logger"
	"github.com/angelmondragon/vitrine-checkout/pkg/redis"
)

// Services groups what the HTTP surface dispatches to.
type Services struct {
	Catalog  catalog.Service
	Cart     cart.Service
	Checkout checkout.Service
	Orders   orders.Service
	Redis    redis.Pinger
	Metrics  prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, svcs Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.MaxBodySize(cfg.App.MaxBodyBytes),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, logg, svcs.Redis))
	})

	if svcs.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(svcs.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(logg))

			r.Get("/checkout/last-order", checkoutcontrollers.LastOrder(svcs.Checkout, logg))

			r.Route("/storefronts/{subdomain}", func(r chi.Router) {
				r.Use(middleware.StorefrontContext(logg))
				r.Get("/", controllers.StorefrontGet(svcs.Catalog, logg))

				r.Route("/cart", func(r chi.Router) {
					r.Get("/", cartcontrollers.Get(svcs.Cart, logg))
					r.Post("/items", cartcontrollers.AddItem(svcs.Cart, logg))
					r.Patch("/items/{productId}", cartcontrollers.UpdateItem(svcs.Cart, logg))
					r.Delete("/items/{productId}", cartcontrollers.RemoveItem(svcs.Cart, logg))
				})

				r.Route("/checkout", func(r chi.Router) {
					r.Get("/", checkoutcontrollers.State(svcs.Checkout, logg))
					r.Put("/postal-code", checkoutcontrollers.SetPostalCode(svcs.Checkout, logg))
					r.Post("/orders", checkoutcontrollers.Submit(svcs.Checkout, logg))
				})
			})
		})

		r.Route("/merchant/stores/{storeId}/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(svcs.Orders, logg))
			r.Get("/recent", ordercontrollers.Recent(svcs.Orders, logg))
			r.Get("/summary", ordercontrollers.Summary(svcs.Orders, logg))
		})
	})

	return r
}
