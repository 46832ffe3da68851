// Package analytics derives customer-value analyses from the cleaned
// tables: category spend pivots, rankings and segmentation, the address
// tenure heuristic, and rule-based recommendations.
package analytics

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/model"
)

// JoinedTransaction is a transaction annotated with its product category.
// Category is nil when the product code is absent from the product table;
// such rows still count toward overall revenue but are excluded from
// per-category pivots.
type JoinedTransaction struct {
	model.Transaction
	Category *string
}

// JoinCategories left-joins transactions to product categories on
// product_code.
func JoinCategories(transactions []model.Transaction, products []model.Product) []JoinedTransaction {
	byCode := make(map[string]string, len(products))
	for _, p := range products {
		byCode[p.ProductCode] = p.Category
	}

	joined := make([]JoinedTransaction, len(transactions))
	var unmatched int
	for i, t := range transactions {
		joined[i] = JoinedTransaction{Transaction: t}
		if cat, ok := byCode[t.ProductCode]; ok {
			joined[i].Category = &cat
		} else {
			unmatched++
		}
	}
	if unmatched > 0 {
		zap.L().Debug("analytics: transactions without a product match",
			zap.Int("count", unmatched),
		)
	}
	return joined
}

// PivotByCustomerCategory groups joined transactions by (customer,
// category), sums amounts, and pivots categories into columns. Unseen
// combinations fill with 0 — a customer who never bought in a category has
// an explicit zero, not missing data. Total_Spending sums the category
// columns only.
func PivotByCustomerCategory(joined []JoinedTransaction) ([]model.CategorySpend, []string) {
	sums := make(map[string]map[string]float64)
	catSet := make(map[string]bool)

	for _, t := range joined {
		if t.Category == nil || t.Amount == nil {
			continue
		}
		catSet[*t.Category] = true
		if sums[t.CustomerID] == nil {
			sums[t.CustomerID] = make(map[string]float64)
		}
		sums[t.CustomerID][*t.Category] += *t.Amount
	}

	categories := make([]string, 0, len(catSet))
	for cat := range catSet {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	pivot := make([]model.CategorySpend, 0, len(sums))
	for customerID, byCat := range sums {
		row := model.CategorySpend{
			CustomerID: customerID,
			ByCategory: make(map[string]float64, len(categories)),
		}
		for _, cat := range categories {
			amount := byCat[cat]
			row.ByCategory[cat] = amount
			row.TotalSpending += amount
		}
		pivot = append(pivot, row)
	}
	sort.Slice(pivot, func(i, j int) bool { return pivot[i].CustomerID < pivot[j].CustomerID })

	return pivot, categories
}

// TopNPerCategory selects, per category, the n customers with the largest
// spend in that category, excluding zero rows. Ties keep the pivot's
// existing order; no secondary sort key is applied.
func TopNPerCategory(pivot []model.CategorySpend, categories []string, n int) map[string][]model.TopCustomer {
	top := make(map[string][]model.TopCustomer, len(categories))

	for _, cat := range categories {
		ranked := make([]model.CategorySpend, len(pivot))
		copy(ranked, pivot)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].ByCategory[cat] > ranked[j].ByCategory[cat]
		})

		var list []model.TopCustomer
		for _, row := range ranked {
			if len(list) == n {
				break
			}
			amount := row.ByCategory[cat]
			if amount <= 0 {
				break
			}
			list = append(list, model.TopCustomer{CustomerID: row.CustomerID, Amount: amount})
		}
		top[cat] = list
	}

	return top
}

// TopSpenderPerCategory finds the single largest spender per category with
// their share of that category's revenue. Categories whose maximum is zero
// are omitted — no positive spend exists there.
func TopSpenderPerCategory(pivot []model.CategorySpend, categories []string) map[string]model.TopSpender {
	spenders := make(map[string]model.TopSpender, len(categories))

	for _, cat := range categories {
		var best *model.CategorySpend
		var columnSum float64
		for i := range pivot {
			amount := pivot[i].ByCategory[cat]
			columnSum += amount
			if best == nil || amount > best.ByCategory[cat] {
				best = &pivot[i]
			}
		}
		if best == nil || best.ByCategory[cat] <= 0 {
			continue
		}

		spenders[cat] = model.TopSpender{
			CustomerID:           best.CustomerID,
			AmountSpent:          best.ByCategory[cat],
			TotalSpending:        best.TotalSpending,
			PercentageOfCategory: best.ByCategory[cat] / columnSum * 100,
		}
	}

	return spenders
}

// SummarizeCategories computes per-category performance stats. Average and
// minimum are over purchasing customers only.
func SummarizeCategories(pivot []model.CategorySpend, categories []string) []model.CategorySummary {
	summaries := make([]model.CategorySummary, 0, len(categories))

	for _, cat := range categories {
		s := model.CategorySummary{Category: cat}
		first := true
		for _, row := range pivot {
			amount := row.ByCategory[cat]
			s.TotalRevenue += amount
			if amount > s.MaxSpending {
				s.MaxSpending = amount
			}
			if amount > 0 {
				s.CustomersPurchased++
				if first || amount < s.MinSpending {
					s.MinSpending = amount
					first = false
				}
			}
		}
		if s.CustomersPurchased > 0 {
			s.AverageSpending = s.TotalRevenue / float64(s.CustomersPurchased)
		}
		summaries = append(summaries, s)
	}

	return summaries
}

// AnalyzeCategories runs the full category analysis over the cleaned tables.
func AnalyzeCategories(transactions []model.Transaction, products []model.Product, topN int) model.CategoryResult {
	joined := JoinCategories(transactions, products)
	pivot, categories := PivotByCustomerCategory(joined)

	return model.CategoryResult{
		Pivot:        pivot,
		Categories:   categories,
		Summaries:    SummarizeCategories(pivot, categories),
		TopCustomers: TopNPerCategory(pivot, categories, topN),
		TopSpenders:  TopSpenderPerCategory(pivot, categories),
	}
}
