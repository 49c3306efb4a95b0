package kpi

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/minhtam/ordersight/internal/models"
)

// ChannelAll is the sentinel channel filter that matches every row.
const ChannelAll = "All"

// Analyzer answers the headline KPI questions over one immutable snapshot of
// reconciled order lines. Filter produces a new independent Analyzer, the
// receiver is never mutated.
type Analyzer struct {
	rows []models.OrderLine
}

func NewAnalyzer(rows []models.OrderLine) *Analyzer {
	return &Analyzer{rows: rows}
}

// Rows returns the row-level dataset for detail-table display.
func (a *Analyzer) Rows() []models.OrderLine {
	return a.rows
}

// Metrics computes the five headline metrics. An empty snapshot yields all
// zeroes and an "N/A" top SKU, never an error.
//
// The three rate denominators are intentionally different and are the
// documented business rule: revenue and AOV consider completed orders only,
// the return rate is quantity-weighted over all rows, and the cancellation
// rate is over all distinct orders regardless of status.
func (a *Analyzer) Metrics() models.Metrics {
	if len(a.rows) == 0 {
		return models.Metrics{Revenue: decimal.Zero, AvgOrderValue: decimal.Zero, TopSKU: "N/A"}
	}

	revenue := decimal.Zero
	completedOrders := make(map[int64]bool)
	var totalQty, returnedQty int64

	for _, r := range a.rows {
		totalQty += r.Quantity
		switch r.Status {
		case models.StatusCompleted:
			revenue = revenue.Add(r.LineTotal)
			completedOrders[r.OrderID] = true
		case models.StatusReturned:
			returnedQty += r.Quantity
		}
	}

	avgOrderValue := decimal.Zero
	if len(completedOrders) > 0 {
		// Mean of per-order totals: the per-order sums add up to the
		// revenue, so divide by the distinct completed order count.
		avgOrderValue = revenue.Div(decimal.NewFromInt(int64(len(completedOrders))))
	}

	returnRate := 0.0
	if totalQty > 0 {
		returnRate = float64(returnedQty) / float64(totalQty) * 100
	}

	// Cancellation rate is order-grain: structural drop-duplicate on
	// order_id keeping the first row, not filtered by status first.
	seen := make(map[int64]bool)
	var orderCount, cancelledCount int
	for _, r := range a.rows {
		if seen[r.OrderID] {
			continue
		}
		seen[r.OrderID] = true
		orderCount++
		if r.Status == models.StatusCancelled {
			cancelledCount++
		}
	}
	cancelRate := 0.0
	if orderCount > 0 {
		cancelRate = float64(cancelledCount) / float64(orderCount) * 100
	}

	return models.Metrics{
		Revenue:       revenue,
		ReturnRate:    returnRate,
		AvgOrderValue: avgOrderValue,
		CancelRate:    cancelRate,
		TopSKU:        a.topSKU(),
	}
}

// topSKU ranks SKUs by total quantity. Ties break by SKU name ascending so
// the result is deterministic. Rows without a SKU are skipped; if nothing
// remains the label is "N/A".
func (a *Analyzer) topSKU() string {
	totals := make(map[string]int64)
	for _, r := range a.rows {
		if r.SKU == nil || *r.SKU == "" {
			continue
		}
		totals[*r.SKU] += r.Quantity
	}
	if len(totals) == 0 {
		return "N/A"
	}

	skus := make([]string, 0, len(totals))
	for sku := range totals {
		skus = append(skus, sku)
	}
	sort.Slice(skus, func(i, j int) bool {
		if totals[skus[i]] != totals[skus[j]] {
			return totals[skus[i]] > totals[skus[j]]
		}
		return skus[i] < skus[j]
	})

	return fmt.Sprintf("%s (%d)", skus[0], totals[skus[0]])
}

// DailyRevenue returns the completed-order revenue per calendar date,
// ascending by date. An empty snapshot yields an empty series.
func (a *Analyzer) DailyRevenue() []models.DatePoint {
	totals := make(map[time.Time]decimal.Decimal)
	for _, r := range a.rows {
		if r.Status != models.StatusCompleted {
			continue
		}
		day := dateOf(r.OrderDate)
		totals[day] = totals[day].Add(r.LineTotal)
	}

	dates := make([]time.Time, 0, len(totals))
	for d := range totals {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	series := make([]models.DatePoint, 0, len(dates))
	for _, d := range dates {
		series = append(series, models.DatePoint{Date: d, Revenue: totals[d]})
	}
	return series
}

// ChannelDist returns the completed-order revenue per channel name, ascending
// by name. Rows with no matching channel dimension have a nil name and drop
// out of the grouping naturally.
func (a *Analyzer) ChannelDist() []models.ChannelPoint {
	totals := make(map[string]decimal.Decimal)
	for _, r := range a.rows {
		if r.Status != models.StatusCompleted || r.ChannelName == nil {
			continue
		}
		totals[*r.ChannelName] = totals[*r.ChannelName].Add(r.LineTotal)
	}

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)

	series := make([]models.ChannelPoint, 0, len(names))
	for _, name := range names {
		series = append(series, models.ChannelPoint{Channel: name, Revenue: totals[name]})
	}
	return series
}

// Filter returns a new Analyzer over the rows matching both predicates.
// ChannelAll skips the channel predicate, a dateRange that is not exactly
// [start, end] skips the date predicate. Matching is exact, no case folding,
// and the date bounds are inclusive on the calendar date.
func (a *Analyzer) Filter(channel string, dateRange []time.Time) *Analyzer {
	filtered := make([]models.OrderLine, 0, len(a.rows))
	for _, r := range a.rows {
		if channel != ChannelAll {
			if r.ChannelName == nil || *r.ChannelName != channel {
				continue
			}
		}
		if len(dateRange) == 2 {
			day := dateOf(r.OrderDate)
			start, end := dateOf(dateRange[0]), dateOf(dateRange[1])
			if day.Before(start) || day.After(end) {
				continue
			}
		}
		filtered = append(filtered, r)
	}
	return NewAnalyzer(filtered)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
