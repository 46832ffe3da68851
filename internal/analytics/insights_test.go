package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insight-cli/internal/model"
)

func TestRecommend_RetentionRisk(t *testing.T) {
	categories := model.CategoryResult{
		TopSpenders: map[string]model.TopSpender{
			"A": {CustomerID: "c1", AmountSpent: 80, PercentageOfCategory: 80},
			"B": {CustomerID: "c2", AmountSpent: 10, PercentageOfCategory: 10},
		},
	}
	recs := Recommend(categories, model.RankingResult{Summary: model.RankingSummary{SegmentCounts: map[model.Segment]int{}}}, 20)

	require.Len(t, recs, 1)
	assert.Equal(t, "Customer Retention", recs[0].Type)
	assert.Equal(t, "High", recs[0].Priority)
	assert.Equal(t, "A", recs[0].Category)
	assert.Equal(t, "Focus on retaining c1 - they represent 80.0% of A revenue", recs[0].Recommendation)
}

func TestRecommend_ExpansionTargetsHighestRevenue(t *testing.T) {
	categories := model.CategoryResult{
		Summaries: []model.CategorySummary{
			{Category: "A", TotalRevenue: 100},
			{Category: "B", TotalRevenue: 300},
		},
	}
	recs := Recommend(categories, model.RankingResult{Summary: model.RankingSummary{SegmentCounts: map[model.Segment]int{}}}, 20)

	require.Len(t, recs, 1)
	assert.Equal(t, "Product Strategy", recs[0].Type)
	assert.Equal(t, "B", recs[0].Category)
	assert.Contains(t, recs[0].Recommendation, "$300.00")
}

func TestRecommend_SegmentImbalance(t *testing.T) {
	rankings := model.RankingResult{
		Summary: model.RankingSummary{
			SegmentCounts: map[model.Segment]int{
				model.SegmentLow:  8,
				model.SegmentHigh: 2,
			},
		},
	}
	recs := Recommend(model.CategoryResult{}, rankings, 20)

	require.Len(t, recs, 1)
	assert.Equal(t, "Customer Development", recs[0].Type)
}

func TestRecommend_NoTriggers(t *testing.T) {
	rankings := model.RankingResult{
		Summary: model.RankingSummary{
			SegmentCounts: map[model.Segment]int{
				model.SegmentLow:  2,
				model.SegmentHigh: 2,
			},
		},
	}
	recs := Recommend(model.CategoryResult{}, rankings, 20)
	assert.Empty(t, recs)
}
