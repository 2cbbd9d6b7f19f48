package checkout

import (
	"strings"

	"github.com/angelmondragon/vitrine-checkout/internal/cart"
	"github.com/angelmondragon/vitrine-checkout/pkg/enums"
	"github.com/angelmondragon/vitrine-checkout/pkg/types"
	"github.com/angelmondragon/vitrine-checkout/pkg/vitrine"
	"github.com/shopspring/decimal"
)

// Customer identifies the buyer. CPF and phone are digits only once normalized.
type Customer struct {
	CPF   string `json:"cpf" validate:"required,cpf"`
	Name  string `json:"name" validate:"required,min=2,max=120"`
	Email string `json:"email" validate:"required,email,max=160"`
	Phone string `json:"phone" validate:"required,numeric,min=10,max=11"`
}

// SubmitInput is what the shopper fills in on the checkout form.
type SubmitInput struct {
	Customer Customer      `json:"customer"`
	Address  types.Address `json:"address"`
}

// Normalize trims text fields and strips formatting from identifiers.
func (in SubmitInput) Normalize() SubmitInput {
	return SubmitInput{
		Customer: Customer{
			CPF:   types.OnlyDigits(in.Customer.CPF),
			Name:  strings.TrimSpace(in.Customer.Name),
			Email: strings.ToLower(strings.TrimSpace(in.Customer.Email)),
			Phone: types.OnlyDigits(in.Customer.Phone),
		},
		Address: in.Address.Normalize(),
	}
}

// buildOrderRequest assembles the order API payload. Line items live inside
// the order record.
func buildOrderRequest(storeID int64, in SubmitInput, c cart.Cart, shipping Shipping) vitrine.OrderRequest {
	items := make([]vitrine.OrderItem, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, vitrine.OrderItem{
			ProductID: item.ProductID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.EffectivePrice(),
			LineTotal: item.LineTotal(),
		})
	}
	subtotal := c.Subtotal()
	shippingPrice := shipping.Price
	if shippingPrice.IsNegative() {
		shippingPrice = decimal.Zero
	}

	return vitrine.OrderRequest{
		Customer: vitrine.Customer{
			CPF:   in.Customer.CPF,
			Name:  in.Customer.Name,
			Email: in.Customer.Email,
			Phone: in.Customer.Phone,
		},
		Address: vitrine.AddressFrom(in.Address),
		Orders: []vitrine.OrderPayload{{
			StoreID:  storeID,
			Status:   enums.OrderStatusPending,
			Shipping: shippingPrice,
			Subtotal: subtotal,
			Total:    subtotal.Add(shippingPrice),
			Carrier:  shipping.Carrier,
			Items:    items,
		}},
	}
}
