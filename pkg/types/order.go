package types

import (
	"time"

	"github.com/bookbuddy/storefront/pkg/enums"
)

// Order is read-only, server-owned order history.
type Order struct {
	ID        string            `json:"_id"`
	Buyer     OrderBuyer        `json:"buyer"`
	Products  []Product         `json:"products"`
	Payment   OrderPayment      `json:"payment"`
	Status    enums.OrderStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
}

type OrderBuyer struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type OrderPayment struct {
	Success bool `json:"success"`
}

// StatusUpdate is the body of PUT auth/order-status/{id}.
type StatusUpdate struct {
	Status enums.OrderStatus `json:"status" validate:"required"`
}
