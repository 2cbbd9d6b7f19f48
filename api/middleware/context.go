package middleware

import (
	"context"

	"github.com/angelmondragon/vitrine-checkout/internal/cart"
)

type contextKey string

const (
	ctxSessionID contextKey = "session_id"
	ctxSubdomain contextKey = "subdomain"
)

func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

func SubdomainFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSubdomain).(string); ok {
		return v
	}
	return ""
}

// WithSessionID injects the shopper session identifier into the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}

// WithSubdomain injects the normalized storefront subdomain for downstream handlers.
func WithSubdomain(ctx context.Context, subdomain string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSubdomain, subdomain)
}

// ShopperKey scopes cart and checkout state to the session and storefront.
func ShopperKey(ctx context.Context) cart.Key {
	return cart.Key{SessionID: SessionIDFromContext(ctx), Subdomain: SubdomainFromContext(ctx)}
}
