package vitrine

import (
	"github.com/angelmondragon/vitrine-checkout/pkg/enums"
	"github.com/angelmondragon/vitrine-checkout/pkg/types"
	"github.com/shopspring/decimal"
)

// Storefront is the payload of GET /vitrine/{subdomain}.
type Storefront struct {
	ID         *int64       `json:"id"`
	Name       string       `json:"nome"`
	Subdomain  string       `json:"subdominio"`
	Layout     enums.Layout `json:"layout"`
	PostalCode string       `json:"cep,omitempty"`
	Products   []Product    `json:"produtos"`
	Categories []Category   `json:"categoriasProduto"`
}

// Product carries pricing, stock and package dimensions (cm, kg).
type Product struct {
	ID               int64            `json:"id"`
	Title            string           `json:"titulo"`
	Description      string           `json:"descricao,omitempty"`
	ImageURL         string           `json:"imagemUrl,omitempty"`
	Price            decimal.Decimal  `json:"preco"`
	PromotionalPrice *decimal.Decimal `json:"precoPromocional,omitempty"`
	Stock            int              `json:"estoque"`
	CategoryID       *int64           `json:"categoriaId,omitempty"`
	Weight           decimal.Decimal  `json:"peso"`
	Height           decimal.Decimal  `json:"altura"`
	Width            decimal.Decimal  `json:"largura"`
	Depth            decimal.Decimal  `json:"profundidade"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"nome"`
}

// OrderRequest is the body of POST /pedido/cadastrar. Each order owns its
// line items.
type OrderRequest struct {
	Customer Customer       `json:"cliente"`
	Address  Address        `json:"endereco"`
	Orders   []OrderPayload `json:"pedidos"`
}

type Customer struct {
	CPF   string `json:"cpf"`
	Name  string `json:"nome"`
	Email string `json:"email"`
	Phone string `json:"telefone"`
}

type Address struct {
	Street     string `json:"logradouro"`
	Number     string `json:"numero"`
	Complement string `json:"complemento,omitempty"`
	District   string `json:"bairro"`
	City       string `json:"cidade"`
	State      string `json:"estado"`
	PostalCode string `json:"cep"`
}

// AddressFrom maps a delivery address onto the order API field names.
func AddressFrom(a types.Address) Address {
	return Address{
		Street:     a.Street,
		Number:     a.Number,
		Complement: a.Complement,
		District:   a.District,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
	}
}

type OrderPayload struct {
	StoreID  int64             `json:"lojaId"`
	Status   enums.OrderStatus `json:"status"`
	Shipping decimal.Decimal   `json:"valorFrete"`
	Subtotal decimal.Decimal   `json:"subtotal"`
	Total    decimal.Decimal   `json:"valorTotal"`
	Carrier  string            `json:"transportadora,omitempty"`
	Items    []OrderItem       `json:"itensPedido"`
}

type OrderItem struct {
	ProductID int64           `json:"produtoId"`
	Title     string          `json:"titulo"`
	Quantity  int             `json:"quantidade"`
	UnitPrice decimal.Decimal `json:"precoUnitario"`
	LineTotal decimal.Decimal `json:"valorTotal"`
}

// CustomerOrders is one entry of the nested merchant order listing.
type CustomerOrders struct {
	ID     int64        `json:"id"`
	Name   string       `json:"nome"`
	Email  string       `json:"email"`
	CPF    string       `json:"cpf"`
	Phone  string       `json:"telefone"`
	Orders []OrderEntry `json:"pedidos"`
}

type OrderEntry struct {
	ID       int64             `json:"id"`
	Date     Timestamp         `json:"dataPedido"`
	Status   enums.OrderStatus `json:"status"`
	Shipping decimal.Decimal   `json:"valorFrete"`
	Total    decimal.Decimal   `json:"valorTotal"`
	Address  *Address          `json:"endereco,omitempty"`
	Items    []OrderItem       `json:"itensPedido"`
}

// Summary is the payload of GET /pedido/resumo/{storeId}.
type Summary struct {
	TotalOrders   int             `json:"totalPedidos"`
	Revenue       decimal.Decimal `json:"faturamento"`
	AverageTicket decimal.Decimal `json:"ticketMedio"`
	PendingOrders int             `json:"pedidosPendentes"`
}
