package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is one order-header record as it arrives from a channel export.
// UpdatedAt is optional; it only matters as the recency tie-break when the
// same order_id shows up in more than one source.
type Order struct {
	OrderID   int64      `json:"order_id" db:"order_id" validate:"required"`
	ChannelID int64      `json:"channel_id" db:"channel_id"`
	OrderDate time.Time  `json:"order_date" db:"order_date"`
	Status    string     `json:"status" db:"status"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// Item is one product line within an order.
type Item struct {
	OrderID   int64           `json:"order_id" db:"order_id" validate:"required"`
	SKU       string          `json:"sku" db:"sku"`
	Quantity  int64           `json:"quantity" db:"quantity" validate:"gte=0"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
}

// Channel is a dimension lookup row.
type Channel struct {
	ChannelID   int64  `json:"channel_id" db:"channel_id" validate:"required"`
	ChannelName string `json:"channel_name" db:"channel_name"`
}

// OrderLine is one row of the reconciled dataset: an order header joined with
// one of its item lines and its channel dimension. SKU is nil when the order
// had no matching item row, ChannelName is nil when the channel lookup missed.
// LineTotal is always recomputed as quantity * unit_price, never trusted from
// input.
type OrderLine struct {
	OrderID     int64           `json:"order_id"`
	ChannelID   int64           `json:"channel_id"`
	ChannelName *string         `json:"channel_name"`
	OrderDate   time.Time       `json:"order_date"`
	Status      string          `json:"status"`
	SKU         *string         `json:"sku"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// Order statuses that carry KPI semantics. The status vocabulary is open;
// anything else passes through untouched.
const (
	StatusCompleted = "completed"
	StatusReturned  = "returned"
	StatusCancelled = "cancelled"
	StatusPending   = "pending"
)
