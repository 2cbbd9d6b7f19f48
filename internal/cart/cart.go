package cart

import (
	"time"

	pkgerrors "github.com/angelmondragon/vitrine-checkout/pkg/errors"
	"github.com/angelmondragon/vitrine-checkout/pkg/types"
	"github.com/angelmondragon/vitrine-checkout/pkg/vitrine"
	"github.com/shopspring/decimal"
)

// Key scopes one cart to a shopper session and a storefront.
type Key struct {
	SessionID string
	Subdomain string
}

// Item is one line of the cart. Dimensions are kept for shipping quotes.
type Item struct {
	ProductID        int64            `json:"product_id"`
	Title            string           `json:"title"`
	ImageURL         string           `json:"image_url,omitempty"`
	UnitPrice        decimal.Decimal  `json:"unit_price"`
	PromotionalPrice *decimal.Decimal `json:"promotional_price,omitempty"`
	Quantity         int              `json:"quantity"`
	Stock            int              `json:"stock"`
	CategoryID       *int64           `json:"category_id,omitempty"`
	Weight           decimal.Decimal  `json:"weight"`
	Height           decimal.Decimal  `json:"height"`
	Width            decimal.Decimal  `json:"width"`
	Depth            decimal.Decimal  `json:"depth"`
}

// ItemFromProduct snapshots a catalog product as a cart line with quantity 0.
func ItemFromProduct(p vitrine.Product) Item {
	return Item{
		ProductID:        p.ID,
		Title:            p.Title,
		ImageURL:         p.ImageURL,
		UnitPrice:        p.Price,
		PromotionalPrice: p.PromotionalPrice,
		Stock:            p.Stock,
		CategoryID:       p.CategoryID,
		Weight:           p.Weight,
		Height:           p.Height,
		Width:            p.Width,
		Depth:            p.Depth,
	}
}

// EffectivePrice is the promotional price when set and lower, else the unit price.
func (i Item) EffectivePrice() decimal.Decimal {
	return types.EffectivePrice(i.UnitPrice, i.PromotionalPrice)
}

func (i Item) LineTotal() decimal.Decimal {
	return i.EffectivePrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the persisted document. Totals are derived on read.
type Cart struct {
	Subdomain string    `json:"subdomain"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (c Cart) indexOf(productID int64) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Add appends the item or increments the existing line, capped at stock.
// An existing line picks up the fresher price and stock of item.
func (c *Cart) Add(item Item, quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if item.Stock < 1 {
		return pkgerrors.New(pkgerrors.CodeConflict, "product out of stock").
			WithDetails(map[string]any{"product_id": item.ProductID})
	}

	if idx := c.indexOf(item.ProductID); idx >= 0 {
		existing := c.Items[idx]
		item.Quantity = clamp(existing.Quantity+quantity, 1, item.Stock)
		c.Items[idx] = item
		return nil
	}

	item.Quantity = clamp(quantity, 1, item.Stock)
	c.Items = append(c.Items, item)
	return nil
}

// UpdateQuantity applies delta and clamps the result to [1, stock]. Reaching
// zero does not remove the line.
func (c *Cart) UpdateQuantity(productID int64, delta int) error {
	idx := c.indexOf(productID)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart").
			WithDetails(map[string]any{"product_id": productID})
	}
	item := &c.Items[idx]
	item.Quantity = clamp(item.Quantity+delta, 1, item.Stock)
	return nil
}

// Remove drops the line for productID and reports whether it existed.
func (c *Cart) Remove(productID int64) bool {
	idx := c.indexOf(productID)
	if idx < 0 {
		return false
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	return true
}

func clamp(value, lower, upper int) int {
	if upper < lower {
		upper = lower
	}
	if value < lower {
		return lower
	}
	if value > upper {
		return upper
	}
	return value
}

// View is the response shape with derived totals.
type View struct {
	Subdomain string          `json:"subdomain"`
	Items     []ItemView      `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type ItemView struct {
	Item
	EffectivePrice decimal.Decimal `json:"effective_price"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

func (c Cart) View() View {
	items := make([]ItemView, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, ItemView{
			Item:           item,
			EffectivePrice: item.EffectivePrice(),
			LineTotal:      item.LineTotal(),
		})
	}
	return View{
		Subdomain: c.Subdomain,
		Items:     items,
		ItemCount: c.ItemCount(),
		Subtotal:  c.Subtotal(),
	}
}
