package warehouse

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/minhtam/ordersight/internal/models"
)

// Reconcile merges the order-header sources into the canonical order-line
// dataset:
//
//  1. Union the non-empty header sources, web before app.
//  2. Deduplicate by order_id. When any row carries updated_at the union is
//     stable-sorted by updated_at descending first, so the most recently
//     updated record wins. Without timestamps the first occurrence in
//     concatenation order wins (web takes precedence over app).
//  3. Normalize order_date to a calendar date.
//  4. Left-join item lines. An empty items source forces quantity and
//     unit_price to zero instead of joining.
//  5. Left-join the channel dimension, unmatched rows keep a nil channel
//     name rather than being dropped.
//  6. Derive line_total = quantity * unit_price, always recomputed.
//
// With both header sources empty the result is empty and nothing else runs.
func Reconcile(web, app []models.Order, items []models.Item, channels []models.Channel) []models.OrderLine {
	orders := make([]models.Order, 0, len(web)+len(app))
	orders = append(orders, web...)
	orders = append(orders, app...)
	if len(orders) == 0 {
		return nil
	}

	if anyUpdatedAt(orders) {
		// Rows without a timestamp sort last, they never outrank a
		// timestamped duplicate.
		sort.SliceStable(orders, func(i, j int) bool {
			a, b := orders[i].UpdatedAt, orders[j].UpdatedAt
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.After(*b)
			}
		})
	}

	seen := make(map[int64]bool, len(orders))
	deduped := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if seen[o.OrderID] {
			continue
		}
		seen[o.OrderID] = true
		o.OrderDate = truncateToDate(o.OrderDate)
		deduped = append(deduped, o)
	}

	itemsByOrder := make(map[int64][]models.Item, len(items))
	for _, it := range items {
		itemsByOrder[it.OrderID] = append(itemsByOrder[it.OrderID], it)
	}

	channelNames := make(map[int64]string, len(channels))
	for _, ch := range channels {
		if _, ok := channelNames[ch.ChannelID]; !ok {
			channelNames[ch.ChannelID] = ch.ChannelName
		}
	}

	lines := make([]models.OrderLine, 0, len(deduped))
	for _, o := range deduped {
		base := models.OrderLine{
			OrderID:   o.OrderID,
			ChannelID: o.ChannelID,
			OrderDate: o.OrderDate,
			Status:    o.Status,
			UnitPrice: decimal.Zero,
			LineTotal: decimal.Zero,
		}
		if name, ok := channelNames[o.ChannelID]; ok {
			base.ChannelName = &name
		}

		matched := itemsByOrder[o.OrderID]
		if len(items) == 0 || len(matched) == 0 {
			// No item detail for this order: one line with zeroed
			// quantity and price keeps aggregation numerically safe.
			lines = append(lines, base)
			continue
		}

		for _, it := range matched {
			line := base
			sku := it.SKU
			line.SKU = &sku
			line.Quantity = it.Quantity
			line.UnitPrice = it.UnitPrice
			line.LineTotal = it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity))
			lines = append(lines, line)
		}
	}

	return lines
}

func anyUpdatedAt(orders []models.Order) bool {
	for _, o := range orders {
		if o.UpdatedAt != nil {
			return true
		}
	}
	return false
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
