package analytics

import (
	"math"
	"sort"

	"github.com/sells-group/insight-cli/internal/model"
)

// RankCustomers aggregates transactions per customer and derives lifetime
// statistics, three dense rankings, quantile-based segments, and percentile
// ranks. Segment edges come from the batch's own spending quantiles, so the
// boundaries are dataset-relative, not fixed thresholds.
func RankCustomers(transactions []model.Transaction) model.RankingResult {
	rankings := aggregateCustomers(transactions)
	if len(rankings) == 0 {
		return emptyRankingResult()
	}

	applyDenseRanks(rankings)
	applySegments(rankings)
	applyPercentiles(rankings)

	// Highest spenders first. Stable, so equal totals keep aggregation order.
	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].TotalSpent > rankings[j].TotalSpent
	})

	return model.RankingResult{
		Rankings: rankings,
		Summary:  summarizeRankings(rankings),
		Top10:    head(rankings, 10),
		Bottom10: tail(rankings, 10),
	}
}

func emptyRankingResult() model.RankingResult {
	return model.RankingResult{Summary: model.RankingSummary{SegmentCounts: map[model.Segment]int{}}}
}

func aggregateCustomers(transactions []model.Transaction) []model.CustomerRanking {
	byCustomer := make(map[string]*model.CustomerRanking)
	var order []string

	for _, t := range transactions {
		r, ok := byCustomer[t.CustomerID]
		if !ok {
			r = &model.CustomerRanking{CustomerID: t.CustomerID}
			byCustomer[t.CustomerID] = r
			order = append(order, t.CustomerID)
		}
		if t.Amount != nil {
			r.TotalSpent += *t.Amount
			r.TransactionCount++
		}
		if t.Date != nil {
			if r.FirstPurchase == nil || t.Date.Before(*r.FirstPurchase) {
				d := *t.Date
				r.FirstPurchase = &d
			}
			if r.LastPurchase == nil || t.Date.After(*r.LastPurchase) {
				d := *t.Date
				r.LastPurchase = &d
			}
		}
	}
	rankings := make([]model.CustomerRanking, 0, len(order))
	for _, id := range order {
		r := byCustomer[id]
		if r.TransactionCount > 0 {
			r.AvgTransaction = r.TotalSpent / float64(r.TransactionCount)
		}
		if r.FirstPurchase != nil && r.LastPurchase != nil {
			r.LifetimeDays = int(r.LastPurchase.Sub(*r.FirstPurchase).Hours() / 24)
		}
		// The +1 keeps single-day customers finite; a deliberate smoothing
		// constant, not a bug.
		r.AvgSpendingPerDay = r.TotalSpent / float64(r.LifetimeDays+1)
		rankings = append(rankings, *r)
	}
	return rankings
}

// applyDenseRanks assigns three independent dense rankings (equal values
// share a rank, next distinct value is exactly one higher) in descending
// order of total spend, frequency, and average transaction.
func applyDenseRanks(rankings []model.CustomerRanking) {
	totalRank := denseRank(rankings, func(r model.CustomerRanking) float64 { return r.TotalSpent })
	freqRank := denseRank(rankings, func(r model.CustomerRanking) float64 { return float64(r.TransactionCount) })
	avgRank := denseRank(rankings, func(r model.CustomerRanking) float64 { return r.AvgTransaction })

	for i := range rankings {
		rankings[i].RankByTotalSpending = totalRank[rankings[i].TotalSpent]
		rankings[i].RankByFrequency = freqRank[float64(rankings[i].TransactionCount)]
		rankings[i].RankByAvgTransaction = avgRank[rankings[i].AvgTransaction]
	}
}

func denseRank(rankings []model.CustomerRanking, key func(model.CustomerRanking) float64) map[float64]int {
	distinct := make(map[float64]bool, len(rankings))
	for _, r := range rankings {
		distinct[key(r)] = true
	}
	values := make([]float64, 0, len(distinct))
	for v := range distinct {
		values = append(values, v)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(values)))

	rank := make(map[float64]int, len(values))
	for i, v := range values {
		rank[v] = i + 1
	}
	return rank
}

// applySegments labels each customer by where their total falls among the
// batch's p50/p80/p95 spending quantiles, lowest edge inclusive.
func applySegments(rankings []model.CustomerRanking) {
	totals := make([]float64, len(rankings))
	for i, r := range rankings {
		totals[i] = r.TotalSpent
	}
	sort.Float64s(totals)

	p50 := Quantile(totals, 0.50)
	p80 := Quantile(totals, 0.80)
	p95 := Quantile(totals, 0.95)

	for i := range rankings {
		rankings[i].Segment = segmentFor(rankings[i].TotalSpent, p50, p80, p95)
	}
}

func segmentFor(total, p50, p80, p95 float64) model.Segment {
	switch {
	case total <= p50:
		return model.SegmentLow
	case total <= p80:
		return model.SegmentMedium
	case total <= p95:
		return model.SegmentHigh
	default:
		return model.SegmentVIP
	}
}

// Quantile computes the q-th quantile of sorted values using linear
// interpolation between closest ranks.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	h := q * float64(len(sorted)-1)
	lo := int(math.Floor(h))
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// applyPercentiles assigns each customer the percentile rank (0-100] of
// their total spend. Equal totals share the average of their ordinal ranks.
func applyPercentiles(rankings []model.CustomerRanking) {
	n := len(rankings)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return rankings[idx[a]].TotalSpent < rankings[idx[b]].TotalSpent
	})

	i := 0
	for i < n {
		j := i
		for j+1 < n && rankings[idx[j+1]].TotalSpent == rankings[idx[i]].TotalSpent {
			j++
		}
		// Average of 1-based ranks i+1..j+1.
		avgRank := float64(i+j+2) / 2
		pct := avgRank / float64(n) * 100
		for k := i; k <= j; k++ {
			rankings[idx[k]].SpendingPercentile = pct
		}
		i = j + 1
	}
}

func summarizeRankings(rankings []model.CustomerRanking) model.RankingSummary {
	s := model.RankingSummary{
		TotalCustomers: len(rankings),
		SegmentCounts:  make(map[model.Segment]int, 4),
	}

	totals := make([]float64, len(rankings))
	for i, r := range rankings {
		s.TotalRevenue += r.TotalSpent
		s.SegmentCounts[r.Segment]++
		totals[i] = r.TotalSpent
	}
	s.AverageCustomerValue = s.TotalRevenue / float64(len(rankings))

	sort.Float64s(totals)
	s.MedianCustomerValue = Quantile(totals, 0.5)

	if s.TotalRevenue > 0 {
		topCount := len(rankings) / 10
		var topRevenue float64
		for _, r := range rankings[:topCount] {
			topRevenue += r.TotalSpent
		}
		s.Top10PctRevenueShare = topRevenue / s.TotalRevenue * 100
	}

	return s
}

func head(rankings []model.CustomerRanking, n int) []model.CustomerRanking {
	if len(rankings) < n {
		n = len(rankings)
	}
	out := make([]model.CustomerRanking, n)
	copy(out, rankings[:n])
	return out
}

func tail(rankings []model.CustomerRanking, n int) []model.CustomerRanking {
	if len(rankings) < n {
		n = len(rankings)
	}
	out := make([]model.CustomerRanking, n)
	copy(out, rankings[len(rankings)-n:])
	return out
}
