package kpi

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhtam/ordersight/internal/models"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func strPtr(s string) *string { return &s }

func line(orderID int64, channel string, day, status, sku string, qty int64, unitPrice string) models.OrderLine {
	price := decimal.RequireFromString(unitPrice)
	l := models.OrderLine{
		OrderID:   orderID,
		OrderDate: date(day),
		Status:    status,
		Quantity:  qty,
		UnitPrice: price,
		LineTotal: price.Mul(decimal.NewFromInt(qty)),
	}
	if channel != "" {
		l.ChannelName = strPtr(channel)
	}
	if sku != "" {
		l.SKU = strPtr(sku)
	}
	return l
}

func sampleLines() []models.OrderLine {
	return []models.OrderLine{
		line(1, "Website", "2025-01-01", models.StatusCompleted, "SKU001", 2, "100"),
		line(2, "Website", "2025-01-02", models.StatusCompleted, "SKU002", 1, "50"),
		line(3, "Mobile App", "2025-01-03", models.StatusReturned, "SKU003", 1, "75"),
	}
}

func TestMetricsEmptyDataset(t *testing.T) {
	m := NewAnalyzer(nil).Metrics()

	assert.True(t, m.Revenue.IsZero())
	assert.Zero(t, m.ReturnRate)
	assert.True(t, m.AvgOrderValue.IsZero())
	assert.Zero(t, m.CancelRate)
	assert.Equal(t, "N/A", m.TopSKU)

	assert.Empty(t, NewAnalyzer(nil).DailyRevenue())
	assert.Empty(t, NewAnalyzer(nil).ChannelDist())
}

func TestMetricsHeadlineValues(t *testing.T) {
	m := NewAnalyzer(sampleLines()).Metrics()

	assert.True(t, m.Revenue.Equal(decimal.RequireFromString("250")), "revenue = %s", m.Revenue)
	// 1 returned unit out of 4 total units.
	assert.InDelta(t, 25.0, m.ReturnRate, 1e-9)
	// Two completed orders totalling 200 and 50.
	assert.True(t, m.AvgOrderValue.Equal(decimal.RequireFromString("125")), "aov = %s", m.AvgOrderValue)
	assert.Zero(t, m.CancelRate)
	assert.Equal(t, "SKU001 (2)", m.TopSKU)
}

func TestAOVIsPerOrderMeanNotPerLineMean(t *testing.T) {
	// One order split across two lines must count once in the AOV
	// denominator: (100+50+30)/2, not /3.
	rows := []models.OrderLine{
		line(1, "Website", "2025-01-01", models.StatusCompleted, "A", 1, "100"),
		line(1, "Website", "2025-01-01", models.StatusCompleted, "B", 1, "50"),
		line(2, "Website", "2025-01-02", models.StatusCompleted, "C", 1, "30"),
	}

	m := NewAnalyzer(rows).Metrics()

	assert.True(t, m.AvgOrderValue.Equal(decimal.RequireFromString("90")), "aov = %s", m.AvgOrderValue)
}

// The three rates use three different denominators on purpose: revenue/AOV
// over completed orders, return rate over all line quantities, cancellation
// rate over all distinct orders. Do not "unify" them.
func TestMetricsDenominatorsDiffer(t *testing.T) {
	rows := []models.OrderLine{
		line(1, "Website", "2025-01-01", models.StatusCompleted, "A", 3, "10"),
		line(2, "Website", "2025-01-02", models.StatusCancelled, "B", 1, "10"),
		line(3, "Website", "2025-01-03", models.StatusReturned, "C", 4, "10"),
		line(4, "Website", "2025-01-04", models.StatusPending, "D", 2, "10"),
	}

	m := NewAnalyzer(rows).Metrics()

	// Revenue: completed lines only.
	assert.True(t, m.Revenue.Equal(decimal.RequireFromString("30")))
	// Return rate: 4 returned units out of 10 units across every status.
	assert.InDelta(t, 40.0, m.ReturnRate, 1e-9)
	// Cancellation rate: 1 of 4 distinct orders, regardless of status mix.
	assert.InDelta(t, 25.0, m.CancelRate, 1e-9)
}

func TestCancelRateIsOrderGrain(t *testing.T) {
	// A cancelled order with two item lines counts once.
	rows := []models.OrderLine{
		line(1, "Website", "2025-01-01", models.StatusCancelled, "A", 1, "10"),
		line(1, "Website", "2025-01-01", models.StatusCancelled, "B", 1, "10"),
		line(2, "Website", "2025-01-02", models.StatusCompleted, "C", 1, "10"),
	}

	m := NewAnalyzer(rows).Metrics()

	assert.InDelta(t, 50.0, m.CancelRate, 1e-9)
}

func TestTopSKUTieBreaksBySKUName(t *testing.T) {
	rows := []models.OrderLine{
		line(1, "Website", "2025-01-01", models.StatusCompleted, "ZZZ", 3, "10"),
		line(2, "Website", "2025-01-02", models.StatusCompleted, "AAA", 3, "10"),
	}

	m := NewAnalyzer(rows).Metrics()

	assert.Equal(t, "AAA (3)", m.TopSKU)
}

func TestTopSKUCountsAllStatuses(t *testing.T) {
	rows := []models.OrderLine{
		line(1, "Website", "2025-01-01", models.StatusCompleted, "A", 1, "10"),
		line(2, "Website", "2025-01-02", models.StatusReturned, "B", 5, "10"),
	}

	m := NewAnalyzer(rows).Metrics()

	assert.Equal(t, "B (5)", m.TopSKU)
}

func TestDailyRevenueAscendingCompletedOnly(t *testing.T) {
	rows := []models.OrderLine{
		line(1, "Website", "2025-01-03", models.StatusCompleted, "A", 1, "30"),
		line(2, "Website", "2025-01-01", models.StatusCompleted, "B", 1, "10"),
		line(3, "Website", "2025-01-01", models.StatusCompleted, "C", 1, "15"),
		line(4, "Website", "2025-01-02", models.StatusCancelled, "D", 1, "99"),
	}

	series := NewAnalyzer(rows).DailyRevenue()

	require.Len(t, series, 2)
	assert.Equal(t, date("2025-01-01"), series[0].Date)
	assert.True(t, series[0].Revenue.Equal(decimal.RequireFromString("25")))
	assert.Equal(t, date("2025-01-03"), series[1].Date)
	assert.True(t, series[1].Revenue.Equal(decimal.RequireFromString("30")))
}

func TestChannelDistExcludesNullChannels(t *testing.T) {
	rows := []models.OrderLine{
		line(1, "Website", "2025-01-01", models.StatusCompleted, "A", 1, "100"),
		// channel_id 99 with no dimension row: nil name, still counted in
		// order-grain metrics but excluded from the distribution.
		line(2, "", "2025-01-02", models.StatusCompleted, "B", 1, "40"),
	}

	analyzer := NewAnalyzer(rows)

	dist := analyzer.ChannelDist()
	require.Len(t, dist, 1)
	assert.Equal(t, "Website", dist[0].Channel)

	m := analyzer.Metrics()
	assert.True(t, m.Revenue.Equal(decimal.RequireFromString("140")))
	assert.Zero(t, m.CancelRate) // both orders in the denominator
}

func TestFilterAllAndEmptyRangeIsIdentity(t *testing.T) {
	analyzer := NewAnalyzer(sampleLines())

	filtered := analyzer.Filter(ChannelAll, nil)

	assert.Equal(t, analyzer.Rows(), filtered.Rows())
}

func TestFilterByChannelExactMatch(t *testing.T) {
	analyzer := NewAnalyzer(sampleLines())

	filtered := analyzer.Filter("Website", nil)

	require.Len(t, filtered.Rows(), 2)
	for _, r := range filtered.Rows() {
		require.NotNil(t, r.ChannelName)
		assert.Equal(t, "Website", *r.ChannelName)
	}

	// No partial match, no case folding.
	assert.Empty(t, analyzer.Filter("website", nil).Rows())
	assert.Empty(t, analyzer.Filter("Web", nil).Rows())
}

func TestFilterByDateRangeInclusive(t *testing.T) {
	analyzer := NewAnalyzer(sampleLines())

	filtered := analyzer.Filter(ChannelAll, []time.Time{date("2025-01-02"), date("2025-01-03")})

	require.Len(t, filtered.Rows(), 2)
	assert.Equal(t, int64(2), filtered.Rows()[0].OrderID)
	assert.Equal(t, int64(3), filtered.Rows()[1].OrderID)
}

func TestFilterCompositionIsOrderIndependent(t *testing.T) {
	analyzer := NewAnalyzer(sampleLines())
	dateRange := []time.Time{date("2025-01-01"), date("2025-01-02")}

	channelFirst := analyzer.Filter("Website", nil).Filter(ChannelAll, dateRange)
	dateFirst := analyzer.Filter(ChannelAll, dateRange).Filter("Website", nil)
	combined := analyzer.Filter("Website", dateRange)

	assert.Equal(t, combined.Rows(), channelFirst.Rows())
	assert.Equal(t, combined.Rows(), dateFirst.Rows())
}

func TestFilterDoesNotMutateReceiver(t *testing.T) {
	rows := sampleLines()
	analyzer := NewAnalyzer(rows)

	_ = analyzer.Filter("Mobile App", []time.Time{date("2025-01-03"), date("2025-01-03")})

	assert.Len(t, analyzer.Rows(), 3)
	assert.Equal(t, rows, analyzer.Rows())
}

func TestFilteredViewMetrics(t *testing.T) {
	analyzer := NewAnalyzer(sampleLines()).Filter("Mobile App", nil)

	m := analyzer.Metrics()

	assert.True(t, m.Revenue.IsZero()) // the Mobile App order was returned
	assert.InDelta(t, 100.0, m.ReturnRate, 1e-9)
}
