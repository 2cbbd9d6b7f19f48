package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/vitrine-checkout/api/responses"
	pkgerrors "github.com/angelmondragon/vitrine-checkout/pkg/errors"
	"github.com/angelmondragon/vitrine-checkout/pkg/logger"
	"github.com/angelmondragon/vitrine-checkout/pkg/redis"
)

const envHeader = "X-Vitrine-Env"

func HealthLive(env string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when Redis answers a ping.
func HealthReady(env string, logg *logger.Logger, store redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, env)
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "redis not configured"))
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable").
				WithDetails(map[string]string{"redis": "down"}))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready", "redis": "up"})
	}
}
