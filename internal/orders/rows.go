package orders

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/vitrine-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/vitrine-checkout/pkg/errors"
	"github.com/angelmondragon/vitrine-checkout/pkg/vitrine"
	"github.com/shopspring/decimal"
)

// Period buckets orders by date relative to now.
type Period string

const (
	PeriodAll   Period = ""
	PeriodToday Period = "today"
	Period7d    Period = "7d"
	Period30d   Period = "30d"
)

// ParsePeriod accepts an empty value (no bucket) or one of today, 7d, 30d.
func ParsePeriod(value string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(value))); p {
	case PeriodAll, PeriodToday, Period7d, Period30d:
		return p, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid period").
			WithDetails(map[string]string{"period": "must be one of today, 7d, 30d"})
	}
}

// Filters narrow the flattened order list.
type Filters struct {
	Query  string
	Status *enums.OrderStatus
	Period Period
}

// Customer is denormalized onto each order row.
type Customer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	CPF   string `json:"cpf"`
	Phone string `json:"phone,omitempty"`
}

type Item struct {
	ProductID int64           `json:"product_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type Address struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

// Row is one order with its customer inlined and line items nested.
type Row struct {
	ID          int64             `json:"id"`
	Date        time.Time         `json:"date"`
	Status      enums.OrderStatus `json:"status"`
	StatusLabel string            `json:"status_label"`
	Shipping    decimal.Decimal   `json:"shipping"`
	Total       decimal.Decimal   `json:"total"`
	ItemCount   int               `json:"item_count"`
	Customer    Customer          `json:"customer"`
	Address     *Address          `json:"address,omitempty"`
	Items       []Item            `json:"items"`
}

// Flatten turns the customer→orders payload into one row per order. Dates
// are expressed in loc.
func Flatten(customers []vitrine.CustomerOrders, loc *time.Location) []Row {
	rows := make([]Row, 0, len(customers))
	for _, c := range customers {
		customer := Customer{ID: c.ID, Name: c.Name, Email: c.Email, CPF: c.CPF, Phone: c.Phone}
		for _, o := range c.Orders {
			rows = append(rows, rowFrom(customer, o, loc))
		}
	}
	return rows
}

func rowFrom(customer Customer, o vitrine.OrderEntry, loc *time.Location) Row {
	items := make([]Item, 0, len(o.Items))
	count := 0
	for _, it := range o.Items {
		items = append(items, Item{
			ProductID: it.ProductID,
			Title:     it.Title,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		})
		count += it.Quantity
	}
	row := Row{
		ID:          o.ID,
		Status:      o.Status,
		StatusLabel: o.Status.String(),
		Shipping:    o.Shipping,
		Total:       o.Total,
		ItemCount:   count,
		Customer:    customer,
		Items:       items,
	}
	if !o.Date.IsZero() {
		row.Date = o.Date.In(loc)
	}
	if o.Address != nil {
		row.Address = &Address{
			Street:     o.Address.Street,
			Number:     o.Address.Number,
			Complement: o.Address.Complement,
			District:   o.Address.District,
			City:       o.Address.City,
			State:      o.Address.State,
			PostalCode: o.Address.PostalCode,
		}
	}
	return row
}

// Apply filters rows and sorts the survivors by date, newest first.
func Apply(rows []Row, f Filters, now time.Time) []Row {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if query != "" && !matchesQuery(row, query) {
			continue
		}
		if f.Status != nil && row.Status != *f.Status {
			continue
		}
		if !inPeriod(row.Date, f.Period, now) {
			continue
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

func matchesQuery(row Row, query string) bool {
	return strings.Contains(strconv.FormatInt(row.ID, 10), query) ||
		strings.Contains(strings.ToLower(row.Customer.Name), query) ||
		strings.Contains(strings.ToLower(row.Customer.CPF), query)
}

// inPeriod compares in now's location. today is the current calendar day; 7d
// and 30d are rolling windows ending at now.
func inPeriod(date time.Time, p Period, now time.Time) bool {
	switch p {
	case PeriodToday:
		local := date.In(now.Location())
		y, m, d := now.Date()
		ly, lm, ld := local.Date()
		return y == ly && m == lm && d == ld
	case Period7d:
		return !date.IsZero() && !date.Before(now.AddDate(0, 0, -7)) && !date.After(now)
	case Period30d:
		return !date.IsZero() && !date.Before(now.AddDate(0, 0, -30)) && !date.After(now)
	default:
		return true
	}
}
