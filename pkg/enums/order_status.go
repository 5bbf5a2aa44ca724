package enums

import "fmt"

// OrderStatus is the server-declared lifecycle of an order. The client only
// displays and selects among these values.
type OrderStatus string

const (
	OrderStatusNotProcess OrderStatus = "Not Process"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	// OrderStatusDelivered keeps the server's spelling.
	OrderStatusDelivered OrderStatus = "deliverd"
	OrderStatusCanceled  OrderStatus = "cancel"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusNotProcess,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCanceled,
}

// OrderStatuses returns the selectable statuses in display order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(validOrderStatuses))
	copy(out, validOrderStatuses)
	return out
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// Label is the human readable form used by order history badges.
func (o OrderStatus) Label() string {
	switch o {
	case OrderStatusDelivered:
		return "Delivered"
	case OrderStatusCanceled:
		return "Cancelled"
	default:
		return string(o)
	}
}

// ParseOrderStatus converts raw input into an OrderStatus. The display label
// "Delivered" is accepted as an alias for the server value.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	if value == OrderStatusDelivered.Label() {
		return OrderStatusDelivered, nil
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
