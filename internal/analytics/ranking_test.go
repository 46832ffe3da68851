package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insight-cli/internal/model"
)

func datedTx(customer string, amount float64, year, month, day int) model.Transaction {
	return model.Transaction{CustomerID: customer, Amount: f(amount), Date: d(year, month, day)}
}

func TestRankCustomers_Aggregation(t *testing.T) {
	transactions := []model.Transaction{
		datedTx("c1", 100, 2024, 1, 1),
		datedTx("c1", 50, 2024, 1, 11),
		datedTx("c2", 30, 2024, 2, 1),
	}
	result := RankCustomers(transactions)
	require.Len(t, result.Rankings, 2)

	// Sorted by total spend descending.
	c1 := result.Rankings[0]
	assert.Equal(t, "c1", c1.CustomerID)
	assert.Equal(t, 150.0, c1.TotalSpent)
	assert.Equal(t, 2, c1.TransactionCount)
	assert.Equal(t, 75.0, c1.AvgTransaction)
	assert.Equal(t, 10, c1.LifetimeDays)
	// Lifetime + 1 keeps the denominator finite for single-day customers.
	assert.InDelta(t, 150.0/11.0, c1.AvgSpendingPerDay, 1e-9)
	require.NotNil(t, c1.FirstPurchase)
	assert.Equal(t, 1, c1.FirstPurchase.Day())
	assert.Equal(t, 11, c1.LastPurchase.Day())

	c2 := result.Rankings[1]
	assert.Equal(t, 0, c2.LifetimeDays)
	assert.Equal(t, 30.0, c2.AvgSpendingPerDay)
}

func TestRankCustomers_NilAmountsExcluded(t *testing.T) {
	transactions := []model.Transaction{
		datedTx("c1", 100, 2024, 1, 1),
		{CustomerID: "c1", Date: d(2024, 1, 5)},
	}
	result := RankCustomers(transactions)
	require.Len(t, result.Rankings, 1)
	assert.Equal(t, 1, result.Rankings[0].TransactionCount)
	assert.Equal(t, 100.0, result.Rankings[0].TotalSpent)
	// The dated row still stretches the lifetime window.
	assert.Equal(t, 4, result.Rankings[0].LifetimeDays)
}

func TestDenseRanks_TiesShareRankNoGaps(t *testing.T) {
	transactions := []model.Transaction{
		tx("c1", "P1", 100),
		tx("c2", "P1", 100),
		tx("c3", "P1", 50),
	}
	result := RankCustomers(transactions)

	ranks := map[string]int{}
	for _, r := range result.Rankings {
		ranks[r.CustomerID] = r.RankByTotalSpending
	}
	assert.Equal(t, 1, ranks["c1"])
	assert.Equal(t, 1, ranks["c2"])
	assert.Equal(t, 2, ranks["c3"], "dense ranking leaves no gap after a tie")
}

func TestQuantile_LinearInterpolation(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}
	assert.InDelta(t, 25.0, Quantile(sorted, 0.50), 1e-9)
	assert.InDelta(t, 34.0, Quantile(sorted, 0.80), 1e-9)
	assert.InDelta(t, 38.5, Quantile(sorted, 0.95), 1e-9)
	assert.Equal(t, 10.0, Quantile(sorted, 0))
	assert.Equal(t, 40.0, Quantile(sorted, 1))
	assert.Equal(t, 7.0, Quantile([]float64{7}, 0.5))
}

func TestSegments_QuantileBands(t *testing.T) {
	transactions := []model.Transaction{
		tx("c1", "P1", 10),
		tx("c2", "P1", 20),
		tx("c3", "P1", 30),
		tx("c4", "P1", 40),
	}
	result := RankCustomers(transactions)

	segments := map[string]model.Segment{}
	for _, r := range result.Rankings {
		segments[r.CustomerID] = r.Segment
	}
	// p50=25, p80=34, p95=38.5 for this batch.
	assert.Equal(t, model.SegmentLow, segments["c1"])
	assert.Equal(t, model.SegmentLow, segments["c2"])
	assert.Equal(t, model.SegmentMedium, segments["c3"])
	assert.Equal(t, model.SegmentVIP, segments["c4"])
}

func TestSpendingPercentile_AverageRankForTies(t *testing.T) {
	transactions := []model.Transaction{
		tx("c1", "P1", 10),
		tx("c2", "P1", 20),
		tx("c3", "P1", 20),
		tx("c4", "P1", 40),
	}
	result := RankCustomers(transactions)

	pct := map[string]float64{}
	for _, r := range result.Rankings {
		pct[r.CustomerID] = r.SpendingPercentile
	}
	assert.InDelta(t, 25.0, pct["c1"], 1e-9)
	assert.InDelta(t, 62.5, pct["c2"], 1e-9, "tied totals share the average of their ordinal ranks")
	assert.InDelta(t, 62.5, pct["c3"], 1e-9)
	assert.InDelta(t, 100.0, pct["c4"], 1e-9)
}

func TestRankingSummary(t *testing.T) {
	var transactions []model.Transaction
	for i := 1; i <= 20; i++ {
		transactions = append(transactions, tx(fmt.Sprintf("c%02d", i), "P1", float64(i*10)))
	}
	result := RankCustomers(transactions)

	s := result.Summary
	assert.Equal(t, 20, s.TotalCustomers)
	assert.Equal(t, 2100.0, s.TotalRevenue)
	assert.Equal(t, 105.0, s.AverageCustomerValue)
	assert.InDelta(t, 105.0, s.MedianCustomerValue, 1e-9)
	// Top 2 of 20 hold 200+190 of 2100.
	assert.InDelta(t, 390.0/2100.0*100, s.Top10PctRevenueShare, 1e-9)

	total := 0
	for _, count := range s.SegmentCounts {
		total += count
	}
	assert.Equal(t, 20, total, "every customer lands in exactly one segment")

	require.Len(t, result.Top10, 10)
	require.Len(t, result.Bottom10, 10)
	assert.Equal(t, "c20", result.Top10[0].CustomerID)
	assert.Equal(t, "c01", result.Bottom10[9].CustomerID)
}

func TestRankCustomers_Empty(t *testing.T) {
	result := RankCustomers(nil)
	assert.Empty(t, result.Rankings)
	assert.NotNil(t, result.Summary.SegmentCounts)
	assert.Empty(t, result.Top10)
}
