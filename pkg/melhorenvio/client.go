package melhorenvio

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/vitrine-checkout/pkg/errors"
	"github.com/angelmondragon/vitrine-checkout/pkg/types"
	"github.com/angelmondragon/vitrine-checkout/pkg/upstream"
	"github.com/shopspring/decimal"
)

// UpstreamName labels carrier-rate calls in metrics and error dumps.
const UpstreamName = "melhorenvio"

const calculatePath = "me/shipment/calculate"

type doer interface {
	Do(ctx context.Context, req upstream.Request) (*upstream.Response, error)
}

// TokenSource returns the bearer token for the current call.
type TokenSource func() string

// Client quotes shipping rates from the carrier-rate API.
type Client struct {
	api   doer
	token TokenSource
}

func NewClient(api doer, token TokenSource) *Client {
	return &Client{api: api, token: token}
}

// Package is one cart line as the rate API expects it. Dimensions are in
// centimeters and weight in kilograms.
type Package struct {
	ID             string          `json:"id"`
	Width          decimal.Decimal `json:"width"`
	Height         decimal.Decimal `json:"height"`
	Length         decimal.Decimal `json:"length"`
	Weight         decimal.Decimal `json:"weight"`
	InsuranceValue decimal.Decimal `json:"insurance_value"`
	Quantity       int             `json:"quantity"`
}

type postalCode struct {
	PostalCode string `json:"postal_code"`
}

type quoteRequest struct {
	From     postalCode `json:"from"`
	To       postalCode `json:"to"`
	Products []Package  `json:"products"`
}

// QuoteRequest describes a rate lookup between two postal codes.
type QuoteRequest struct {
	FromPostalCode string
	ToPostalCode   string
	Packages       []Package
}

// Option is one carrier service returned by the rate API.
type Option struct {
	ID           int
	Name         string
	Carrier      string
	Price        *decimal.Decimal
	DeliveryDays int
	Error        string
}

// Priced reports whether the option carries a usable price.
func (o Option) Priced() bool {
	return o.Error == "" && o.Price != nil && !o.Price.IsNegative()
}

type optionResponse struct {
	ID           int              `json:"id"`
	Name         string           `json:"name"`
	Price        *decimal.Decimal `json:"price"`
	CustomPrice  *decimal.Decimal `json:"custom_price"`
	DeliveryTime int              `json:"delivery_time"`
	Error        string           `json:"error"`
	Company      struct {
		Name string `json:"name"`
	} `json:"company"`
}

// Quote posts the packages and returns every option the API answered with.
func (c *Client) Quote(ctx context.Context, req QuoteRequest) ([]Option, error) {
	if c == nil || c.api == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shipping client not configured")
	}
	from := types.OnlyDigits(req.FromPostalCode)
	to := types.OnlyDigits(req.ToPostalCode)
	if len(from) != types.PostalCodeDigits || len(to) != types.PostalCodeDigits {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "origin and destination postal codes must have 8 digits")
	}
	if len(req.Packages) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one package is required")
	}

	token := ""
	if c.token != nil {
		token = strings.TrimSpace(c.token())
	}
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shipping token not configured")
	}

	resp, err := c.api.Do(ctx, upstream.Request{
		Method: http.MethodPost,
		Path:   calculatePath,
		Header: http.Header{"Authorization": []string{"Bearer " + token}},
		Body: quoteRequest{
			From:     postalCode{PostalCode: from},
			To:       postalCode{PostalCode: to},
			Products: req.Packages,
		},
	})
	if err != nil {
		return nil, err
	}

	var payload []optionResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode shipping quote response")
	}

	options := make([]Option, 0, len(payload))
	for _, item := range payload {
		price := item.Price
		if price == nil {
			price = item.CustomPrice
		}
		options = append(options, Option{
			ID:           item.ID,
			Name:         strings.TrimSpace(item.Name),
			Carrier:      strings.TrimSpace(item.Company.Name),
			Price:        price,
			DeliveryDays: item.DeliveryTime,
			Error:        strings.TrimSpace(item.Error),
		})
	}
	return options, nil
}

// FirstPriced returns the first option with a price and no error.
func FirstPriced(options []Option) (Option, bool) {
	for _, option := range options {
		if option.Priced() {
			return option, true
		}
	}
	return Option{}, false
}
