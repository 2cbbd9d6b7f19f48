package viacep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/vitrine-checkout/pkg/errors"
	"github.com/angelmondragon/vitrine-checkout/pkg/types"
	"github.com/angelmondragon/vitrine-checkout/pkg/upstream"
)

// UpstreamName labels ViaCEP calls in metrics and error dumps.
const UpstreamName = "viacep"

// ErrNotFound is returned for postal codes the service does not know.
var ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "invalid postal code")

type doer interface {
	Do(ctx context.Context, req upstream.Request) (*upstream.Response, error)
}

// Client resolves Brazilian postal codes (CEP) into street addresses.
type Client struct {
	api doer
}

// NewClient wraps an upstream client pointed at the ViaCEP base URL.
func NewClient(api doer) *Client {
	return &Client{api: api}
}

// Address is the subset of the lookup result used for delivery.
type Address struct {
	PostalCode string
	Street     string
	Complement string
	District   string
	City       string
	State      string
}

// ToAddress converts the lookup result into a delivery address.
func (a Address) ToAddress() types.Address {
	return types.Address{
		Street:     a.Street,
		District:   a.District,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
	}
}

type lookupResponse struct {
	CEP         string          `json:"cep"`
	Logradouro  string          `json:"logradouro"`
	Complemento string          `json:"complemento"`
	Bairro      string          `json:"bairro"`
	Localidade  string          `json:"localidade"`
	UF          string          `json:"uf"`
	Erro        json.RawMessage `json:"erro"`
}

func (r lookupResponse) notFound() bool {
	flag := strings.Trim(strings.TrimSpace(string(r.Erro)), `"`)
	return flag == "true"
}

// Lookup resolves an 8-digit postal code.
func (c *Client) Lookup(ctx context.Context, postalCode string) (*Address, error) {
	if c == nil || c.api == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "address lookup client not configured")
	}
	digits := types.OnlyDigits(postalCode)
	if len(digits) != types.PostalCodeDigits {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "postal code must have 8 digits")
	}

	resp, err := c.api.Do(ctx, upstream.Request{Path: fmt.Sprintf("%s/json/", digits)})
	if err != nil {
		var statusErr *upstream.StatusError
		if errors.As(err, &statusErr) {
			if statusErr.StatusCode < 500 {
				return nil, ErrNotFound
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "address lookup failed")
		}
		return nil, err
	}

	var payload lookupResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode address lookup response")
	}
	if payload.notFound() {
		return nil, ErrNotFound
	}

	resolved := types.OnlyDigits(payload.CEP)
	if resolved == "" {
		resolved = digits
	}
	return &Address{
		PostalCode: resolved,
		Street:     strings.TrimSpace(payload.Logradouro),
		Complement: strings.TrimSpace(payload.Complemento),
		District:   strings.TrimSpace(payload.Bairro),
		City:       strings.TrimSpace(payload.Localidade),
		State:      strings.ToUpper(strings.TrimSpace(payload.UF)),
	}, nil
}
