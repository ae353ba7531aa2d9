package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the ledger status of a submitted order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderExpired   OrderStatus = "expired"
	OrderDeleted   OrderStatus = "deleted"
)

// OrderLine is a snapshot of one cart line at submission time. The item name
// is copied so later catalog edits never alter historical orders.
type OrderLine struct {
	ItemID   string `json:"itemId"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Order is a submitted order. Immutable once created except for Status.
type Order struct {
	ID             int64           `json:"id"`
	CreatedAt      time.Time       `json:"createdAt"`
	BuyerRef       string          `json:"buyerRef"`
	ContactHandle  string          `json:"contactHandle"`
	PaymentMethod  PaymentMethod   `json:"paymentMethod"`
	ShippingRegion Region          `json:"shippingRegion"`
	Total          decimal.Decimal `json:"total"`
	Lines          []OrderLine     `json:"lineItems"`
	Status         OrderStatus     `json:"status"`
}
