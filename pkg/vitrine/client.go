package vitrine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/vitrine-checkout/pkg/errors"
	"github.com/angelmondragon/vitrine-checkout/pkg/upstream"
)

// UpstreamName labels storefront/order API calls in metrics and error dumps.
const UpstreamName = "vitrine-api"

// DefaultSubmitMessage is surfaced when the order API gives no message.
const DefaultSubmitMessage = "order submission failed"

type doer interface {
	Do(ctx context.Context, req upstream.Request) (*upstream.Response, error)
}

// Client talks to the storefront data and order API.
type Client struct {
	api doer
}

func NewClient(api doer) *Client {
	return &Client{api: api}
}

// Storefront fetches store metadata, products and categories.
func (c *Client) Storefront(ctx context.Context, subdomain string) (*Storefront, error) {
	subdomain = strings.TrimSpace(subdomain)
	if subdomain == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subdomain is required")
	}
	var out Storefront
	err := c.getJSON(ctx, upstream.Request{Path: "vitrine/" + upstream.PathEscape(subdomain)}, &out)
	if err != nil {
		var statusErr *upstream.StatusError
		if errors.As(err, &statusErr) {
			if statusErr.NotFound() {
				return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "storefront not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storefront api request failed")
		}
		return nil, err
	}
	if out.Subdomain == "" {
		out.Subdomain = subdomain
	}
	return &out, nil
}

// SubmitOrder posts the order. Rejections carry the server message when one
// was sent, otherwise DefaultSubmitMessage.
func (c *Client) SubmitOrder(ctx context.Context, req OrderRequest) (json.RawMessage, error) {
	if c == nil || c.api == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order api client not configured")
	}
	resp, err := c.api.Do(ctx, upstream.Request{
		Method: http.MethodPost,
		Path:   "pedido/cadastrar",
		Body:   req,
	})
	if err != nil {
		message := DefaultSubmitMessage
		var statusErr *upstream.StatusError
		if errors.As(err, &statusErr) && statusErr.Message != "" {
			message = statusErr.Message
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamRejected, err, message)
	}
	if len(resp.Body) == 0 || !json.Valid(resp.Body) {
		return nil, nil
	}
	return json.RawMessage(resp.Body), nil
}

// ListOrders returns the nested customer→orders listing for a store.
func (c *Client) ListOrders(ctx context.Context, storeID int64, authorization string) ([]CustomerOrders, error) {
	var out []CustomerOrders
	if err := c.merchantGet(ctx, "pedido/listar", storeID, authorization, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RecentOrders returns the most recent orders, in the same nested shape.
func (c *Client) RecentOrders(ctx context.Context, storeID int64, authorization string) ([]CustomerOrders, error) {
	var out []CustomerOrders
	if err := c.merchantGet(ctx, "pedido/ultimos", storeID, authorization, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Summary returns the store's order statistics.
func (c *Client) Summary(ctx context.Context, storeID int64, authorization string) (*Summary, error) {
	var out Summary
	if err := c.merchantGet(ctx, "pedido/resumo", storeID, authorization, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) merchantGet(ctx context.Context, prefix string, storeID int64, authorization string, out any) error {
	if storeID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	authorization = strings.TrimSpace(authorization)
	if authorization == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authorization header is required")
	}
	err := c.getJSON(ctx, upstream.Request{
		Path:   fmt.Sprintf("%s/%s", prefix, strconv.FormatInt(storeID, 10)),
		Header: http.Header{"Authorization": []string{authorization}},
	}, out)
	if err == nil {
		return nil
	}
	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "merchant not authorized for this store")
		case http.StatusNotFound:
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "store not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order api request failed")
	}
	return err
}

func (c *Client) getJSON(ctx context.Context, req upstream.Request, out any) error {
	if c == nil || c.api == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "order api client not configured")
	}
	resp, err := c.api.Do(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode order api response")
	}
	return nil
}
