package export

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/insight-cli/internal/model"
)

// WriteCSVZip writes one CSV per analysis into a single ZIP archive, plus a
// README describing the contents.
func WriteCSVZip(result *model.Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create archive %s", path)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	files := []struct {
		name  string
		write func(w *csv.Writer) error
	}{
		{"01_customer_rankings.csv", func(w *csv.Writer) error { return writeRankingsCSV(w, result.Rankings.Rankings) }},
		{"02_category_spending.csv", func(w *csv.Writer) error { return writeCategorySpendCSV(w, result.Categories) }},
		{"03_top_spenders_by_category.csv", func(w *csv.Writer) error { return writeTopSpendersCSV(w, result.Categories) }},
		{"04_category_performance.csv", func(w *csv.Writer) error { return writeCategoryPerformanceCSV(w, result.Categories.Summaries) }},
		{"05_address_history.csv", func(w *csv.Writer) error { return writeAddressHistoryCSV(w, result.AddressHistory.Records) }},
		{"06_summary_statistics.csv", func(w *csv.Writer) error { return writeSummaryCSV(w, result.Summary) }},
	}
	for _, file := range files {
		entry, err := zw.Create(file.name)
		if err != nil {
			return eris.Wrapf(err, "export: create zip entry %s", file.name)
		}
		cw := csv.NewWriter(entry)
		if err := file.write(cw); err != nil {
			return eris.Wrapf(err, "export: write %s", file.name)
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return eris.Wrapf(err, "export: flush %s", file.name)
		}
	}

	readme, err := zw.Create("README.txt")
	if err != nil {
		return eris.Wrap(err, "export: create README")
	}
	writeReadme(readme, result)

	if err := zw.Close(); err != nil {
		return eris.Wrapf(err, "export: close archive %s", path)
	}
	return nil
}

func writeRankingsCSV(w *csv.Writer, rankings []model.CustomerRanking) error {
	if err := w.Write([]string{"customer_id", "total_spent", "transaction_count", "avg_transaction",
		"first_purchase", "last_purchase", "customer_lifetime_days", "avg_spending_per_day",
		"rank_by_total_spending", "rank_by_frequency", "rank_by_avg_transaction",
		"customer_segment", "spending_percentile"}); err != nil {
		return err
	}
	for _, r := range rankings {
		record := []string{
			r.CustomerID,
			formatFloat(r.TotalSpent),
			strconv.Itoa(r.TransactionCount),
			formatFloat(r.AvgTransaction),
			formatDatePtr(r.FirstPurchase),
			formatDatePtr(r.LastPurchase),
			strconv.Itoa(r.LifetimeDays),
			formatFloat(r.AvgSpendingPerDay),
			strconv.Itoa(r.RankByTotalSpending),
			strconv.Itoa(r.RankByFrequency),
			strconv.Itoa(r.RankByAvgTransaction),
			string(r.Segment),
			formatFloat(r.SpendingPercentile),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writeCategorySpendCSV(w *csv.Writer, categories model.CategoryResult) error {
	header := append([]string{"customer_id"}, categories.Categories...)
	header = append(header, "Total_Spending")
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range categories.Pivot {
		record := make([]string, 0, len(header))
		record = append(record, row.CustomerID)
		for _, cat := range categories.Categories {
			record = append(record, formatFloat(row.ByCategory[cat]))
		}
		record = append(record, formatFloat(row.TotalSpending))
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writeTopSpendersCSV(w *csv.Writer, categories model.CategoryResult) error {
	if err := w.Write([]string{"Category", "Top_Customer_ID", "Amount_Spent",
		"Percentage_of_Category", "Total_Customer_Spending"}); err != nil {
		return err
	}
	for _, cat := range sortedSpenderKeys(categories.TopSpenders) {
		spender := categories.TopSpenders[cat]
		if err := w.Write([]string{
			cat,
			spender.CustomerID,
			formatFloat(spender.AmountSpent),
			formatFloat(spender.PercentageOfCategory),
			formatFloat(spender.TotalSpending),
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeCategoryPerformanceCSV(w *csv.Writer, summaries []model.CategorySummary) error {
	if err := w.Write([]string{"Category", "Total_Revenue", "Customers_Purchased",
		"Average_Spending", "Max_Spending", "Min_Spending"}); err != nil {
		return err
	}
	for _, s := range summaries {
		if err := w.Write([]string{
			s.Category,
			formatFloat(s.TotalRevenue),
			strconv.Itoa(s.CustomersPurchased),
			formatFloat(s.AverageSpending),
			formatFloat(s.MaxSpending),
			formatFloat(s.MinSpending),
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeAddressHistoryCSV(w *csv.Writer, records []model.AddressHistoryRecord) error {
	if err := w.Write([]string{"customer_id", "address", "effective_from", "effective_to",
		"is_current", "change_detected", "days_active"}); err != nil {
		return err
	}
	for _, rec := range records {
		if err := w.Write([]string{
			rec.CustomerID,
			rec.Address,
			formatDatePtr(rec.EffectiveFrom),
			formatDatePtr(rec.EffectiveTo),
			strconv.FormatBool(rec.IsCurrent),
			strconv.FormatBool(rec.ChangeDetected),
			strconv.Itoa(rec.DaysActive),
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeSummaryCSV(w *csv.Writer, summary model.Summary) error {
	if err := w.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	rows := [][]string{
		{"Total Customers", strconv.Itoa(summary.TotalCustomers)},
		{"Total Transactions", strconv.Itoa(summary.TotalTransactions)},
		{"Total Revenue", formatFloat(summary.TotalRevenue)},
		{"Product Categories", strconv.Itoa(summary.ProductCategories)},
		{"First Transaction Date", formatDatePtr(summary.FirstTransaction)},
		{"Last Transaction Date", formatDatePtr(summary.LastTransaction)},
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeReadme(w io.Writer, result *model.Result) {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "Customer Analytics Export\n")
	p.Fprintf(w, "Generated: %s\n\n", time.Now().UTC().Format(time.RFC3339))
	p.Fprintf(w, "Customers:    %d\n", result.Summary.TotalCustomers)
	p.Fprintf(w, "Transactions: %d\n", result.Summary.TotalTransactions)
	p.Fprintf(w, "Revenue:      $%.2f\n\n", result.Summary.TotalRevenue)
	fmt.Fprint(w, `Files:
  01_customer_rankings.csv        per-customer spending statistics, ranks, and segments
  02_category_spending.csv        customer x category spending matrix with row totals
  03_top_spenders_by_category.csv largest spender per product category
  04_category_performance.csv     revenue and customer counts per category
  05_address_history.csv          derived address tenure records
  06_summary_statistics.csv       run-level totals
`)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
