// Package ingest validates workbook structure and decodes the three input
// tables into typed records.
package ingest

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/fetcher"
	"github.com/sells-group/insight-cli/internal/model"
)

const (
	SheetTransactions = "Transactions"
	SheetCustomers    = "Customers"
	SheetProducts     = "Products"
)

// RequiredSheets lists the worksheets a workbook must contain.
var RequiredSheets = []string{SheetTransactions, SheetCustomers, SheetProducts}

var (
	transactionColumns = []string{"transaction_id", "customer_id", "transaction_date", "product_code", "amount", "payment_type"}
	productColumns     = []string{"product_code", "product_name", "category", "unit_price"}
)

// ValidationError reports a structural problem found before processing.
// This is the only up-front validation point; everything downstream is
// row-level coercion that never aborts the batch.
type ValidationError struct {
	Sheet          string   `json:"sheet,omitempty"`
	MissingSheets  []string `json:"missing_sheets,omitempty"`
	MissingColumns []string `json:"missing_columns,omitempty"`
	Reason         string   `json:"reason,omitempty"`
}

func (e *ValidationError) Error() string {
	switch {
	case len(e.MissingSheets) > 0:
		return fmt.Sprintf("ingest: missing required sheets: %s", strings.Join(e.MissingSheets, ", "))
	case len(e.MissingColumns) > 0:
		return fmt.Sprintf("ingest: %s sheet missing columns: %s", e.Sheet, strings.Join(e.MissingColumns, ", "))
	default:
		return fmt.Sprintf("ingest: %s: %s", e.Sheet, e.Reason)
	}
}

// Tables holds the three cleaned input tables.
type Tables struct {
	Transactions []model.Transaction
	Customers    []model.Customer
	Products     []model.Product
}

// Validate checks workbook structure: required sheets exist, their columns
// are present, and the customer column decodes to at least one record.
func Validate(wb *fetcher.Workbook) *ValidationError {
	var missing []string
	for _, name := range RequiredSheets {
		if _, ok := wb.Sheets[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{MissingSheets: missing}
	}

	if verr := checkColumns(wb.Sheets[SheetTransactions], transactionColumns); verr != nil {
		return verr
	}
	if verr := checkColumns(wb.Sheets[SheetProducts], productColumns); verr != nil {
		return verr
	}

	if len(wb.Sheets[SheetTransactions].Rows) == 0 {
		return &ValidationError{Sheet: SheetTransactions, Reason: "sheet has no data"}
	}
	if len(wb.Sheets[SheetProducts].Rows) == 0 {
		return &ValidationError{Sheet: SheetProducts, Reason: "sheet has no data"}
	}

	raw := wb.Sheets[SheetCustomers].FirstColumn()
	if len(raw) == 0 {
		return &ValidationError{Sheet: SheetCustomers, Reason: "sheet is empty"}
	}
	if len(ParseCustomers(raw)) == 0 {
		return &ValidationError{Sheet: SheetCustomers, Reason: "could not parse any customer records from the provided format"}
	}

	return nil
}

func checkColumns(sheet *fetcher.Sheet, required []string) *ValidationError {
	present := make(map[string]bool, len(sheet.Header))
	for _, h := range sheet.Header {
		present[strings.TrimSpace(h)] = true
	}
	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Sheet: sheet.Name, MissingColumns: missing}
	}
	return nil
}

// Decode converts a validated workbook into typed tables. Dates come from
// serial numbers via the 1899-12-30 epoch; amounts and prices are coerced,
// with un-coercible cells becoming nil.
func Decode(wb *fetcher.Workbook) (*Tables, *ValidationError) {
	if verr := Validate(wb); verr != nil {
		return nil, verr
	}

	ts := wb.Sheets[SheetTransactions]
	transactions := make([]model.Transaction, 0, len(ts.Rows))
	var badAmounts int
	for _, row := range ts.Rows {
		amount := ParseAmountCell(ts.Cell(row, "amount"))
		if amount == nil {
			badAmounts++
		}
		transactions = append(transactions, model.Transaction{
			TransactionID: ts.Cell(row, "transaction_id"),
			CustomerID:    ts.Cell(row, "customer_id"),
			Date:          ParseSerialCell(ts.Cell(row, "transaction_date")),
			ProductCode:   ts.Cell(row, "product_code"),
			Amount:        amount,
			PaymentType:   ts.Cell(row, "payment_type"),
		})
	}
	if badAmounts > 0 {
		zap.L().Warn("ingest: non-numeric transaction amounts excluded from sums",
			zap.Int("count", badAmounts),
		)
	}

	ps := wb.Sheets[SheetProducts]
	products := make([]model.Product, 0, len(ps.Rows))
	for _, row := range ps.Rows {
		products = append(products, model.Product{
			ProductCode: ps.Cell(row, "product_code"),
			ProductName: ps.Cell(row, "product_name"),
			Category:    ps.Cell(row, "category"),
			UnitPrice:   ParseAmountCell(ps.Cell(row, "unit_price")),
		})
	}

	customers := ParseCustomers(wb.Sheets[SheetCustomers].FirstColumn())

	zap.L().Info("ingest: workbook decoded",
		zap.String("path", wb.Path),
		zap.Int("transactions", len(transactions)),
		zap.Int("customers", len(customers)),
		zap.Int("products", len(products)),
	)

	return &Tables{Transactions: transactions, Customers: customers, Products: products}, nil
}
