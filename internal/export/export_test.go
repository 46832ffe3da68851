package export

import (
	"archive/zip"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	shp "github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/insight-cli/internal/model"
)

func fp(v float64) *float64 { return &v }
func sp(v string) *string   { return &v }
func bp(v bool) *bool       { return &v }

func dp(year, month, day int) *time.Time {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &t
}

func fixtureResult() *model.Result {
	return &model.Result{
		Transactions: []model.Transaction{
			{TransactionID: "TX1", CustomerID: "c1", Date: dp(2024, 1, 1), ProductCode: "P1", Amount: fp(100), PaymentType: "card"},
			{TransactionID: "TX2", CustomerID: "c2", Date: dp(2024, 1, 5), ProductCode: "P2", Amount: nil, PaymentType: "cash"},
		},
		Customers: []model.Customer{
			{
				CustomerID: "c1", Name: "Alice", Email: "a@x.com", Address: "12 George St",
				CreatedDate: dp(2023, 1, 1),
				Latitude:    fp(-33.87), Longitude: fp(151.21),
				NormalizedAddress: sp("George Street"), GeoProvider: sp("nominatim"),
				GeoConfidence: fp(0.8), GeoCached: bp(false),
			},
			{CustomerID: "c2", Name: "Bob", Email: "b@x.com", Address: "5 Pitt St", CreatedDate: dp(2023, 2, 1)},
		},
		Products: []model.Product{
			{ProductCode: "P1", ProductName: "Widget", Category: "Hardware", UnitPrice: fp(100)},
		},
		AddressHistory: model.AddressHistoryResult{
			Records: []model.AddressHistoryRecord{
				{CustomerID: "c1", Address: "12 George St", EffectiveFrom: dp(2023, 1, 1), EffectiveTo: dp(2024, 1, 1), IsCurrent: true, DaysActive: 365},
			},
			TotalTracked: 1,
		},
		Categories: model.CategoryResult{
			Pivot: []model.CategorySpend{
				{CustomerID: "c1", ByCategory: map[string]float64{"Hardware": 100}, TotalSpending: 100},
			},
			Categories: []string{"Hardware"},
			Summaries: []model.CategorySummary{
				{Category: "Hardware", TotalRevenue: 100, CustomersPurchased: 1, AverageSpending: 100, MaxSpending: 100, MinSpending: 100},
			},
			TopSpenders: map[string]model.TopSpender{
				"Hardware": {CustomerID: "c1", AmountSpent: 100, TotalSpending: 100, PercentageOfCategory: 100},
			},
		},
		Rankings: model.RankingResult{
			Rankings: []model.CustomerRanking{
				{
					CustomerID: "c1", TotalSpent: 100, TransactionCount: 1, AvgTransaction: 100,
					FirstPurchase: dp(2024, 1, 1), LastPurchase: dp(2024, 1, 1),
					RankByTotalSpending: 1, RankByFrequency: 1, RankByAvgTransaction: 1,
					Segment: model.SegmentVIP, SpendingPercentile: 100,
				},
			},
			Summary: model.RankingSummary{
				TotalCustomers: 1, TotalRevenue: 100,
				SegmentCounts: map[model.Segment]int{model.SegmentVIP: 1},
			},
		},
		GeoStats: &model.GeoStats{TotalCustomers: 2, Geocoded: 1, SuccessRate: 50},
		Summary: model.Summary{
			TotalCustomers: 2, TotalTransactions: 2, TotalRevenue: 100,
			FirstTransaction: dp(2024, 1, 1), LastTransaction: dp(2024, 1, 5),
			ProductCategories: 1, GeocodedCustomers: 1, GeocodingRate: 50,
		},
		Recommendations: []model.Recommendation{
			{Type: "Customer Retention", Priority: "High", Category: "Hardware",
				Recommendation: "Focus on retaining c1 - they represent 100.0% of Hardware revenue",
				PotentialImpact: "Revenue Protection"},
		},
	}
}

func TestWriteExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteExcel(fixtureResult(), path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)

	for _, name := range []string{
		"Transactions_Cleaned", "Customers_Enhanced", "Products", "Customer_Rankings",
		"Customer_Category_Spending", "Top_Spenders_by_Category", "Address_History",
		"Category_Performance", "Summary_Statistics", "Business_Insights",
	} {
		assert.Contains(t, f.Sheet, name)
	}

	ts := f.Sheet["Transactions_Cleaned"]
	require.True(t, len(ts.Rows) >= 3)
	assert.Equal(t, "TX1", ts.Rows[1].Cells[0].String())
	assert.Equal(t, "2024-01-01", ts.Rows[1].Cells[2].String())
	assert.Equal(t, "", ts.Rows[2].Cells[4].String(), "nil amount renders empty")

	pivot := f.Sheet["Customer_Category_Spending"]
	assert.Equal(t, "Total_Spending", pivot.Rows[0].Cells[2].String())
}

func TestWriteCSVZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.zip")
	require.NoError(t, WriteCSVZip(fixtureResult(), path))

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{
		"01_customer_rankings.csv", "02_category_spending.csv", "03_top_spenders_by_category.csv",
		"04_category_performance.csv", "05_address_history.csv", "06_summary_statistics.csv",
		"README.txt",
	}, names)

	for _, f := range zr.File {
		if f.Name != "01_customer_rankings.csv" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		records, err := csv.NewReader(rc).ReadAll()
		rc.Close()
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "customer_id", records[0][0])
		assert.Equal(t, "c1", records[1][0])
		assert.Equal(t, "100.00", records[1][1])
		assert.Equal(t, "VIP", records[1][11])
	}
}

func TestWriteKML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.kml")
	require.NoError(t, WriteKML(fixtureResult().Customers, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "<Placemark>")
	assert.Contains(t, content, "<name>Alice</name>")
	assert.Contains(t, content, "151.21,-33.87,0")
	assert.NotContains(t, content, "Bob", "ungeocoded customers are skipped")
}

func TestWriteShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.shp")
	require.NoError(t, WriteShapefile(fixtureResult().Customers, path))

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer r.Close()

	count := 0
	for r.Next() {
		_, shape := r.Shape()
		point, ok := shape.(*shp.Point)
		require.True(t, ok)
		assert.Equal(t, 151.21, point.X)
		assert.Equal(t, -33.87, point.Y)
		count++
	}
	assert.Equal(t, 1, count)
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, WriteReport(fixtureResult(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var report Report
	require.NoError(t, yaml.Unmarshal(data, &report))
	assert.Equal(t, 2, report.Summary.TotalCustomers)
	assert.Equal(t, 100.0, report.Summary.TotalRevenue)
	assert.Equal(t, 1, report.Segments[model.SegmentVIP])
	require.Len(t, report.Recommendations, 1)
	assert.Equal(t, "High", report.Recommendations[0].Priority)
}
