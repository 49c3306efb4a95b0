package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Metrics are the five headline KPIs. Note the denominators are intentionally
// different per the documented business rules: revenue and AOV consider
// completed orders only, the return rate is quantity-weighted over all rows,
// and the cancellation rate is over all distinct orders.
type Metrics struct {
	Revenue       decimal.Decimal `json:"revenue"`
	ReturnRate    float64         `json:"return_rate"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
	CancelRate    float64         `json:"cancel_rate"`
	TopSKU        string          `json:"top_sku"`
}

// DatePoint is one entry of the daily revenue series.
type DatePoint struct {
	Date    time.Time       `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
}

// ChannelPoint is one entry of the per-channel revenue distribution.
type ChannelPoint struct {
	Channel string          `json:"channel"`
	Revenue decimal.Decimal `json:"revenue"`
}
