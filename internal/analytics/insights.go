package analytics

import (
	"fmt"
	"sort"

	"github.com/sells-group/insight-cli/internal/model"
)

// Recommend derives rule-based business recommendations from the computed
// aggregates. Thresholds are configuration, not constants baked in here.
func Recommend(categories model.CategoryResult, rankings model.RankingResult, retentionSharePct float64) []model.Recommendation {
	var recs []model.Recommendation

	// A single customer carrying too much of a category's revenue is a
	// retention risk.
	cats := make([]string, 0, len(categories.TopSpenders))
	for cat := range categories.TopSpenders {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	for _, cat := range cats {
		spender := categories.TopSpenders[cat]
		if spender.PercentageOfCategory > retentionSharePct {
			recs = append(recs, model.Recommendation{
				Type:     "Customer Retention",
				Priority: "High",
				Category: cat,
				Recommendation: fmt.Sprintf("Focus on retaining %s - they represent %.1f%% of %s revenue",
					spender.CustomerID, spender.PercentageOfCategory, cat),
				PotentialImpact: "Revenue Protection",
			})
		}
	}

	// Flag the highest-revenue category for expansion.
	if len(categories.Summaries) > 1 {
		top := categories.Summaries[0]
		for _, s := range categories.Summaries[1:] {
			if s.TotalRevenue > top.TotalRevenue {
				top = s
			}
		}
		recs = append(recs, model.Recommendation{
			Type:     "Product Strategy",
			Priority: "Medium",
			Category: top.Category,
			Recommendation: fmt.Sprintf("Expand %s product line - highest revenue category ($%.2f)",
				top.Category, top.TotalRevenue),
			PotentialImpact: "Revenue Growth",
		})
	}

	// More low-value than high-value customers suggests a development gap.
	counts := rankings.Summary.SegmentCounts
	if counts[model.SegmentLow] > counts[model.SegmentHigh] {
		recs = append(recs, model.Recommendation{
			Type:            "Customer Development",
			Priority:        "Medium",
			Category:        "All",
			Recommendation:  "Implement customer development program to move Low Value customers to higher segments",
			PotentialImpact: "Customer Lifetime Value Increase",
		})
	}

	return recs
}
