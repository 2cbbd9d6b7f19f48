package enums

import (
	"fmt"
	"strconv"
	"strings"
)

// OrderStatus is the numeric order status code used by the order API.
type OrderStatus int

const (
	OrderStatusPending   OrderStatus = 1
	OrderStatusPaid      OrderStatus = 2
	OrderStatusShipped   OrderStatus = 3
	OrderStatusDelivered OrderStatus = 4
	OrderStatusCanceled  OrderStatus = 5
)

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusPending:   "Pendente",
	OrderStatusPaid:      "Pago",
	OrderStatusShipped:   "Enviado",
	OrderStatusDelivered: "Entregue",
	OrderStatusCanceled:  "Cancelado",
}

// String returns the display label, or the raw code for unknown statuses.
func (s OrderStatus) String() string {
	if label, ok := orderStatusLabels[s]; ok {
		return label
	}
	return strconv.Itoa(int(s))
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	_, ok := orderStatusLabels[s]
	return ok
}

// ParseOrderStatus accepts the numeric code or its label (case-insensitive).
func ParseOrderStatus(value string) (OrderStatus, error) {
	trimmed := strings.TrimSpace(value)
	if n, err := strconv.Atoi(trimmed); err == nil {
		status := OrderStatus(n)
		if status.IsValid() {
			return status, nil
		}
		return 0, fmt.Errorf("invalid order status %q", value)
	}
	for status, label := range orderStatusLabels {
		if strings.EqualFold(label, trimmed) {
			return status, nil
		}
	}
	return 0, fmt.Errorf("invalid order status %q", value)
}
