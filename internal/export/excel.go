// Package export renders a pipeline result bundle into the supported
// output formats: multi-sheet workbook, zipped CSVs, KML, shapefile, and a
// YAML summary report.
package export

import (
	"fmt"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/insight-cli/internal/model"
)

const dateFormat = "2006-01-02"

// WriteExcel writes the processed workbook with one sheet per table and
// analysis.
func WriteExcel(result *model.Result, path string) error {
	f := xlsx.NewFile()

	if err := addTransactionsSheet(f, result.Transactions); err != nil {
		return err
	}
	if err := addCustomersSheet(f, result.Customers); err != nil {
		return err
	}
	if err := addProductsSheet(f, result.Products); err != nil {
		return err
	}
	if err := addRankingsSheet(f, result.Rankings.Rankings); err != nil {
		return err
	}
	if err := addCategorySpendSheet(f, result.Categories); err != nil {
		return err
	}
	if err := addTopSpendersSheet(f, result.Categories); err != nil {
		return err
	}
	if err := addAddressHistorySheet(f, result.AddressHistory.Records); err != nil {
		return err
	}
	if err := addCategoryPerformanceSheet(f, result.Categories.Summaries); err != nil {
		return err
	}
	if err := addSummarySheet(f, result.Summary); err != nil {
		return err
	}
	if len(result.Recommendations) > 0 {
		if err := addInsightsSheet(f, result.Recommendations); err != nil {
			return err
		}
	}

	return eris.Wrapf(f.Save(path), "export: save workbook %s", path)
}

func newSheet(f *xlsx.File, name string, header []string) (*xlsx.Sheet, error) {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return nil, eris.Wrapf(err, "export: add sheet %s", name)
	}
	row := sheet.AddRow()
	for _, h := range header {
		row.AddCell().SetString(h)
	}
	return sheet, nil
}

func setDate(cell *xlsx.Cell, t *time.Time) {
	if t == nil {
		cell.SetString("")
		return
	}
	cell.SetString(t.Format(dateFormat))
}

func setAmount(cell *xlsx.Cell, f *float64) {
	if f == nil {
		cell.SetString("")
		return
	}
	cell.SetFloat(*f)
}

func addTransactionsSheet(f *xlsx.File, transactions []model.Transaction) error {
	sheet, err := newSheet(f, "Transactions_Cleaned",
		[]string{"transaction_id", "customer_id", "transaction_date", "product_code", "amount", "payment_type"})
	if err != nil {
		return err
	}
	for _, t := range transactions {
		row := sheet.AddRow()
		row.AddCell().SetString(t.TransactionID)
		row.AddCell().SetString(t.CustomerID)
		setDate(row.AddCell(), t.Date)
		row.AddCell().SetString(t.ProductCode)
		setAmount(row.AddCell(), t.Amount)
		row.AddCell().SetString(t.PaymentType)
	}
	return nil
}

func addCustomersSheet(f *xlsx.File, customers []model.Customer) error {
	sheet, err := newSheet(f, "Customers_Enhanced",
		[]string{"customer_id", "name", "email", "dob", "address", "created_date",
			"latitude", "longitude", "normalized_address", "geo_provider", "geo_confidence", "geo_cached", "geo_error"})
	if err != nil {
		return err
	}
	for _, c := range customers {
		row := sheet.AddRow()
		row.AddCell().SetString(c.CustomerID)
		row.AddCell().SetString(c.Name)
		row.AddCell().SetString(c.Email)
		setDate(row.AddCell(), c.DOB)
		row.AddCell().SetString(c.Address)
		setDate(row.AddCell(), c.CreatedDate)
		setAmount(row.AddCell(), c.Latitude)
		setAmount(row.AddCell(), c.Longitude)
		row.AddCell().SetString(strOrEmpty(c.NormalizedAddress))
		row.AddCell().SetString(strOrEmpty(c.GeoProvider))
		setAmount(row.AddCell(), c.GeoConfidence)
		row.AddCell().SetString(boolOrEmpty(c.GeoCached))
		row.AddCell().SetString(strOrEmpty(c.GeoError))
	}
	return nil
}

func addProductsSheet(f *xlsx.File, products []model.Product) error {
	sheet, err := newSheet(f, "Products",
		[]string{"product_code", "product_name", "category", "unit_price"})
	if err != nil {
		return err
	}
	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetString(p.ProductCode)
		row.AddCell().SetString(p.ProductName)
		row.AddCell().SetString(p.Category)
		setAmount(row.AddCell(), p.UnitPrice)
	}
	return nil
}

func addRankingsSheet(f *xlsx.File, rankings []model.CustomerRanking) error {
	sheet, err := newSheet(f, "Customer_Rankings",
		[]string{"customer_id", "total_spent", "transaction_count", "avg_transaction",
			"first_purchase", "last_purchase", "customer_lifetime_days", "avg_spending_per_day",
			"rank_by_total_spending", "rank_by_frequency", "rank_by_avg_transaction",
			"customer_segment", "spending_percentile"})
	if err != nil {
		return err
	}
	for _, r := range rankings {
		row := sheet.AddRow()
		row.AddCell().SetString(r.CustomerID)
		row.AddCell().SetFloat(r.TotalSpent)
		row.AddCell().SetInt(r.TransactionCount)
		row.AddCell().SetFloat(r.AvgTransaction)
		setDate(row.AddCell(), r.FirstPurchase)
		setDate(row.AddCell(), r.LastPurchase)
		row.AddCell().SetInt(r.LifetimeDays)
		row.AddCell().SetFloat(r.AvgSpendingPerDay)
		row.AddCell().SetInt(r.RankByTotalSpending)
		row.AddCell().SetInt(r.RankByFrequency)
		row.AddCell().SetInt(r.RankByAvgTransaction)
		row.AddCell().SetString(string(r.Segment))
		row.AddCell().SetFloat(r.SpendingPercentile)
	}
	return nil
}

func addCategorySpendSheet(f *xlsx.File, categories model.CategoryResult) error {
	header := append([]string{"customer_id"}, categories.Categories...)
	header = append(header, "Total_Spending")
	sheet, err := newSheet(f, "Customer_Category_Spending", header)
	if err != nil {
		return err
	}
	for _, row := range categories.Pivot {
		r := sheet.AddRow()
		r.AddCell().SetString(row.CustomerID)
		for _, cat := range categories.Categories {
			r.AddCell().SetFloat(row.ByCategory[cat])
		}
		r.AddCell().SetFloat(row.TotalSpending)
	}
	return nil
}

func addTopSpendersSheet(f *xlsx.File, categories model.CategoryResult) error {
	sheet, err := newSheet(f, "Top_Spenders_by_Category",
		[]string{"Category", "Top_Customer_ID", "Amount_Spent", "Percentage_of_Category", "Total_Customer_Spending"})
	if err != nil {
		return err
	}
	for _, cat := range sortedSpenderKeys(categories.TopSpenders) {
		spender := categories.TopSpenders[cat]
		row := sheet.AddRow()
		row.AddCell().SetString(cat)
		row.AddCell().SetString(spender.CustomerID)
		row.AddCell().SetFloat(spender.AmountSpent)
		row.AddCell().SetFloat(spender.PercentageOfCategory)
		row.AddCell().SetFloat(spender.TotalSpending)
	}
	return nil
}

func addAddressHistorySheet(f *xlsx.File, records []model.AddressHistoryRecord) error {
	sheet, err := newSheet(f, "Address_History",
		[]string{"customer_id", "address", "effective_from", "effective_to", "is_current", "change_detected", "days_active"})
	if err != nil {
		return err
	}
	for _, rec := range records {
		row := sheet.AddRow()
		row.AddCell().SetString(rec.CustomerID)
		row.AddCell().SetString(rec.Address)
		setDate(row.AddCell(), rec.EffectiveFrom)
		setDate(row.AddCell(), rec.EffectiveTo)
		row.AddCell().SetBool(rec.IsCurrent)
		row.AddCell().SetBool(rec.ChangeDetected)
		row.AddCell().SetInt(rec.DaysActive)
	}
	return nil
}

func addCategoryPerformanceSheet(f *xlsx.File, summaries []model.CategorySummary) error {
	sheet, err := newSheet(f, "Category_Performance",
		[]string{"Category", "Total_Revenue", "Customers_Purchased", "Average_Spending", "Max_Spending", "Min_Spending"})
	if err != nil {
		return err
	}
	for _, s := range summaries {
		row := sheet.AddRow()
		row.AddCell().SetString(s.Category)
		row.AddCell().SetFloat(s.TotalRevenue)
		row.AddCell().SetInt(s.CustomersPurchased)
		row.AddCell().SetFloat(s.AverageSpending)
		row.AddCell().SetFloat(s.MaxSpending)
		row.AddCell().SetFloat(s.MinSpending)
	}
	return nil
}

func addSummarySheet(f *xlsx.File, summary model.Summary) error {
	sheet, err := newSheet(f, "Summary_Statistics", []string{"Metric", "Value"})
	if err != nil {
		return err
	}

	avgTransaction := 0.0
	if summary.TotalTransactions > 0 {
		avgTransaction = summary.TotalRevenue / float64(summary.TotalTransactions)
	}
	avgCustomer := 0.0
	if summary.TotalCustomers > 0 {
		avgCustomer = summary.TotalRevenue / float64(summary.TotalCustomers)
	}

	metrics := []struct {
		name  string
		value string
	}{
		{"Total Customers", fmt.Sprintf("%d", summary.TotalCustomers)},
		{"Total Transactions", fmt.Sprintf("%d", summary.TotalTransactions)},
		{"Total Revenue", fmt.Sprintf("%.2f", summary.TotalRevenue)},
		{"Average Transaction Value", fmt.Sprintf("%.2f", avgTransaction)},
		{"Average Customer Value", fmt.Sprintf("%.2f", avgCustomer)},
		{"Product Categories", fmt.Sprintf("%d", summary.ProductCategories)},
		{"First Transaction Date", formatDatePtr(summary.FirstTransaction)},
		{"Last Transaction Date", formatDatePtr(summary.LastTransaction)},
		{"Geocoded Customers", fmt.Sprintf("%d", summary.GeocodedCustomers)},
		{"Geocoding Success Rate", fmt.Sprintf("%.1f%%", summary.GeocodingRate)},
	}
	for _, m := range metrics {
		row := sheet.AddRow()
		row.AddCell().SetString(m.name)
		row.AddCell().SetString(m.value)
	}
	return nil
}

func addInsightsSheet(f *xlsx.File, recs []model.Recommendation) error {
	sheet, err := newSheet(f, "Business_Insights",
		[]string{"Type", "Category", "Priority", "Recommendation", "Potential_Impact"})
	if err != nil {
		return err
	}
	for _, rec := range recs {
		row := sheet.AddRow()
		row.AddCell().SetString(rec.Type)
		row.AddCell().SetString(rec.Category)
		row.AddCell().SetString(rec.Priority)
		row.AddCell().SetString(rec.Recommendation)
		row.AddCell().SetString(rec.PotentialImpact)
	}
	return nil
}

func sortedSpenderKeys(spenders map[string]model.TopSpender) []string {
	keys := make([]string, 0, len(spenders))
	for k := range spenders {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func boolOrEmpty(b *bool) string {
	if b == nil {
		return ""
	}
	if *b {
		return "true"
	}
	return "false"
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateFormat)
}
