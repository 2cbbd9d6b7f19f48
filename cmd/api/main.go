package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/vitrine-checkout/api/routes"
	"github.com/angelmondragon/vitrine-checkout/internal/cart"
	"github.com/angelmondragon/vitrine-checkout/internal/catalog"
	"github.com/angelmondragon/vitrine-checkout/internal/checkout"
	"github.com/angelmondragon/vitrine-checkout/internal/orders"
	"github.com/angelmondragon/vitrine-checkout/pkg/config"
	"github.com/angelmondragon/vitrine-checkout/pkg/instance"
	"github.com/angelmondragon/vitrine-checkout/pkg/logger"
	"github.com/angelmondragon/vitrine-checkout/pkg/melhorenvio"
	"github.com/angelmondragon/vitrine-checkout/pkg/metrics"
	"github.com/angelmondragon/vitrine-checkout/pkg/redis"
	"github.com/angelmondragon/vitrine-checkout/pkg/shutdown"
	"github.com/angelmondragon/vitrine-checkout/pkg/upstream"
	"github.com/angelmondragon/vitrine-checkout/pkg/viacep"
	"github.com/angelmondragon/vitrine-checkout/pkg/vitrine"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "vitrine-checkout"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "vitrine-checkout",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()

	loc, err := cfg.App.Location()
	if err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	upstreamMetrics := metrics.NewUpstreamMetrics(reg)
	checkoutMetrics := metrics.NewCheckoutMetrics(reg)

	backendAPI, err := upstream.New(vitrine.UpstreamName, cfg.Backend.BaseURL, cfg.Backend.Timeout,
		upstream.WithMetrics(upstreamMetrics), upstream.WithBreaker(cfg.Breaker))
	if err != nil {
		return err
	}
	cepAPI, err := upstream.New(viacep.UpstreamName, cfg.AddressLookup.BaseURL, cfg.AddressLookup.Timeout,
		upstream.WithMetrics(upstreamMetrics), upstream.WithBreaker(cfg.Breaker))
	if err != nil {
		return err
	}
	shippingAPI, err := upstream.New(melhorenvio.UpstreamName, cfg.Shipping.BaseURL, cfg.Shipping.Timeout,
		upstream.WithMetrics(upstreamMetrics), upstream.WithBreaker(cfg.Breaker), upstream.WithUserAgent(cfg.Shipping.UserAgent))
	if err != nil {
		return err
	}

	backend := vitrine.NewClient(backendAPI)
	if cfg.Shipping.TokenFromEnv() == "" {
		logg.Warn(ctx, "shipping token not configured, quotes will fail until it is set")
	}

	catalogService, err := catalog.NewService(backend, redisClient, cfg.Backend.StorefrontTTL, logg)
	if err != nil {
		return err
	}
	cartStore, err := cart.NewStore(redisClient, cfg.Cart.TTL, cfg.Cart.WriteRetries, logg)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(cartStore, catalogService)
	if err != nil {
		return err
	}
	checkoutService, err := checkout.NewService(checkout.Deps{
		Docs:        redisClient,
		Carts:       cartStore,
		Storefronts: catalogService,
		Addresses:   viacep.NewClient(cepAPI),
		Rates:       melhorenvio.NewClient(shippingAPI, cfg.Shipping.TokenFromEnv),
		Orders:      backend,
		Metrics:     checkoutMetrics,
		Logger:      logg,
	}, checkout.Options{
		DefaultOrigin: cfg.Shipping.OriginPostalCode,
		StateTTL:      cfg.Cart.CheckoutTTL,
		LastOrderTTL:  cfg.Cart.LastOrderTTL,
		SubmitLockTTL: cfg.Backend.SubmitLockTTL,
		WriteRetries:  cfg.Cart.WriteRetries,
	})
	if err != nil {
		return err
	}
	ordersService, err := orders.NewService(backend, loc, time.Now, logg)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	startCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"timezone": loc.String(),
	})
	logg.Info(startCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Services{
			Catalog:  catalogService,
			Cart:     cartService,
			Checkout: checkoutService,
			Orders:   ordersService,
			Redis:    redisClient,
			Metrics:  reg,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(startCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
