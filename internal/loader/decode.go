package loader

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/minhtam/ordersight/internal/models"
)

var validate = validator.New()

// dateLayouts covers the formats seen across channel exports.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
	"02/01/2006",
}

// DecodeOrders maps a raw table onto typed order-header records. The
// updated_at column is optional; all other columns are required once the
// table is non-empty. Structurally invalid values (non-numeric ids,
// unparseable dates) surface as errors, the caller decides whether to abort
// or substitute an empty source.
func DecodeOrders(t Table) ([]models.Order, error) {
	if t.Empty() {
		return nil, nil
	}

	idCol, ok := t.Col("order_id")
	if !ok {
		return nil, fmt.Errorf("missing required column %q", "order_id")
	}
	chCol, ok := t.Col("channel_id")
	if !ok {
		return nil, fmt.Errorf("missing required column %q", "channel_id")
	}
	dateCol, ok := t.Col("order_date")
	if !ok {
		return nil, fmt.Errorf("missing required column %q", "order_date")
	}
	statusCol, ok := t.Col("status")
	if !ok {
		return nil, fmt.Errorf("missing required column %q", "status")
	}
	updatedCol, hasUpdated := t.Col("updated_at")

	orders := make([]models.Order, 0, len(t.Rows))
	for i, row := range t.Rows {
		orderID, err := strconv.ParseInt(strings.TrimSpace(row[idCol]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid order_id %q", i+1, row[idCol])
		}
		channelID, err := strconv.ParseInt(strings.TrimSpace(row[chCol]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid channel_id %q", i+1, row[chCol])
		}
		orderDate, err := parseTime(row[dateCol])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid order_date %q", i+1, row[dateCol])
		}

		order := models.Order{
			OrderID:   orderID,
			ChannelID: channelID,
			OrderDate: orderDate,
			Status:    strings.TrimSpace(row[statusCol]),
		}

		if hasUpdated && strings.TrimSpace(row[updatedCol]) != "" {
			updatedAt, err := parseTime(row[updatedCol])
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid updated_at %q", i+1, row[updatedCol])
			}
			order.UpdatedAt = &updatedAt
		}

		if err := validate.Struct(order); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		orders = append(orders, order)
	}

	return orders, nil
}

// DecodeItems maps a raw table onto typed order-line items. The sku column is
// optional, a missing one decodes as empty SKUs.
func DecodeItems(t Table) ([]models.Item, error) {
	if t.Empty() {
		return nil, nil
	}

	idCol, ok := t.Col("order_id")
	if !ok {
		return nil, fmt.Errorf("missing required column %q", "order_id")
	}
	qtyCol, ok := t.Col("quantity")
	if !ok {
		return nil, fmt.Errorf("missing required column %q", "quantity")
	}
	priceCol, ok := t.Col("unit_price")
	if !ok {
		return nil, fmt.Errorf("missing required column %q", "unit_price")
	}
	skuCol, hasSKU := t.Col("sku")

	items := make([]models.Item, 0, len(t.Rows))
	for i, row := range t.Rows {
		orderID, err := strconv.ParseInt(strings.TrimSpace(row[idCol]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid order_id %q", i+1, row[idCol])
		}
		quantity, err := strconv.ParseInt(strings.TrimSpace(row[qtyCol]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid quantity %q", i+1, row[qtyCol])
		}
		unitPrice, err := decimal.NewFromString(strings.TrimSpace(row[priceCol]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid unit_price %q", i+1, row[priceCol])
		}
		if unitPrice.IsNegative() {
			return nil, fmt.Errorf("row %d: negative unit_price %q", i+1, row[priceCol])
		}

		item := models.Item{
			OrderID:   orderID,
			Quantity:  quantity,
			UnitPrice: unitPrice,
		}
		if hasSKU {
			item.SKU = strings.TrimSpace(row[skuCol])
		}

		if err := validate.Struct(item); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		items = append(items, item)
	}

	return items, nil
}

// DecodeChannels maps a raw table onto channel dimension rows.
func DecodeChannels(t Table) ([]models.Channel, error) {
	if t.Empty() {
		return nil, nil
	}

	idCol, ok := t.Col("channel_id")
	if !ok {
		return nil, fmt.Errorf("missing required column %q", "channel_id")
	}
	nameCol, ok := t.Col("channel_name")
	if !ok {
		return nil, fmt.Errorf("missing required column %q", "channel_name")
	}

	channels := make([]models.Channel, 0, len(t.Rows))
	for i, row := range t.Rows {
		channelID, err := strconv.ParseInt(strings.TrimSpace(row[idCol]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid channel_id %q", i+1, row[idCol])
		}

		channel := models.Channel{
			ChannelID:   channelID,
			ChannelName: strings.TrimSpace(row[nameCol]),
		}
		if err := validate.Struct(channel); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		channels = append(channels, channel)
	}

	return channels, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
