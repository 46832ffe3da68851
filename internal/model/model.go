// Package model defines the data structures shared across the ingest,
// analytics, and export layers.
package model

import "time"

// Transaction is one row of the Transactions sheet after cleaning.
// Amount is nil when the source cell could not be coerced to a number;
// such rows are excluded from all sums.
type Transaction struct {
	TransactionID string     `json:"transaction_id"`
	CustomerID    string     `json:"customer_id"`
	Date          *time.Time `json:"transaction_date"`
	ProductCode   string     `json:"product_code"`
	Amount        *float64   `json:"amount"`
	PaymentType   string     `json:"payment_type"`
}

// Product is one row of the Products sheet.
type Product struct {
	ProductCode string   `json:"product_code"`
	ProductName string   `json:"product_name"`
	Category    string   `json:"category"`
	UnitPrice   *float64 `json:"unit_price"`
}

// Customer is a decoded row of the Customers sheet. The geo fields stay
// nil until geocode enrichment runs.
type Customer struct {
	CustomerID  string     `json:"customer_id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	DOB         *time.Time `json:"dob"`
	Address     string     `json:"address"`
	CreatedDate *time.Time `json:"created_date"`

	Latitude          *float64 `json:"latitude,omitempty"`
	Longitude         *float64 `json:"longitude,omitempty"`
	NormalizedAddress *string  `json:"normalized_address,omitempty"`
	GeoProvider       *string  `json:"geo_provider,omitempty"`
	GeoConfidence     *float64 `json:"geo_confidence,omitempty"`
	GeoCached         *bool    `json:"geo_cached,omitempty"`
	GeoError          *string  `json:"geo_error,omitempty"`
}

// CategorySpend is one pivot row: per-customer totals per category plus
// the row sum. A customer who never purchased in a category has 0 there.
type CategorySpend struct {
	CustomerID    string             `json:"customer_id"`
	ByCategory    map[string]float64 `json:"by_category"`
	TotalSpending float64            `json:"total_spending"`
}

// CategorySummary holds per-category performance stats. Average and Min
// are computed over customers with positive spend only.
type CategorySummary struct {
	Category           string  `json:"category"`
	TotalRevenue       float64 `json:"total_revenue"`
	CustomersPurchased int     `json:"customers_purchased"`
	AverageSpending    float64 `json:"average_spending"`
	MaxSpending        float64 `json:"max_spending"`
	MinSpending        float64 `json:"min_spending"`
}

// TopCustomer is one entry of a per-category top-N list.
type TopCustomer struct {
	CustomerID string  `json:"customer_id"`
	Amount     float64 `json:"amount"`
}

// TopSpender is the single largest spender in a category.
type TopSpender struct {
	CustomerID           string  `json:"customer_id"`
	AmountSpent          float64 `json:"amount_spent"`
	TotalSpending        float64 `json:"total_spending_all_categories"`
	PercentageOfCategory float64 `json:"percentage_of_category"`
}

// CustomerRanking holds per-customer lifetime statistics, rank orderings,
// and the quantile-derived segment label.
type CustomerRanking struct {
	CustomerID           string     `json:"customer_id"`
	TotalSpent           float64    `json:"total_spent"`
	TransactionCount     int        `json:"transaction_count"`
	AvgTransaction       float64    `json:"avg_transaction"`
	FirstPurchase        *time.Time `json:"first_purchase"`
	LastPurchase         *time.Time `json:"last_purchase"`
	LifetimeDays         int        `json:"customer_lifetime_days"`
	AvgSpendingPerDay    float64    `json:"avg_spending_per_day"`
	RankByTotalSpending  int        `json:"rank_by_total_spending"`
	RankByFrequency      int        `json:"rank_by_frequency"`
	RankByAvgTransaction int        `json:"rank_by_avg_transaction"`
	Segment              Segment    `json:"customer_segment"`
	SpendingPercentile   float64    `json:"spending_percentile"`
}

// Segment is a quantile-derived customer value band.
type Segment string

const (
	SegmentLow    Segment = "Low Value"
	SegmentMedium Segment = "Medium Value"
	SegmentHigh   Segment = "High Value"
	SegmentVIP    Segment = "VIP"
)

// RankingSummary aggregates the ranking batch.
type RankingSummary struct {
	TotalCustomers        int             `json:"total_customers"`
	TotalRevenue          float64         `json:"total_revenue"`
	AverageCustomerValue  float64         `json:"average_customer_value"`
	MedianCustomerValue   float64         `json:"median_customer_value"`
	Top10PctRevenueShare  float64         `json:"top_10_percent_revenue_share"`
	SegmentCounts         map[Segment]int `json:"customer_segments"`
}

// RankingResult bundles the rankings with their summary and head/tail lists.
type RankingResult struct {
	Rankings  []CustomerRanking `json:"customer_rankings"`
	Summary   RankingSummary    `json:"summary_stats"`
	Top10     []CustomerRanking `json:"top_10_customers"`
	Bottom10  []CustomerRanking `json:"bottom_10_customers"`
}

// AddressHistoryRecord is the single synthetic address interval derived per
// customer. ChangeDetected is always false: no multi-address tracking is
// performed, the record only flags long-tenure accounts for manual review.
type AddressHistoryRecord struct {
	CustomerID     string     `json:"customer_id"`
	Address        string     `json:"address"`
	EffectiveFrom  *time.Time `json:"effective_from"`
	EffectiveTo    *time.Time `json:"effective_to"`
	IsCurrent      bool       `json:"is_current"`
	ChangeDetected bool       `json:"change_detected"`
	DaysActive     int        `json:"days_active"`
}

// LongTermCustomer identifies an account whose tenure exceeds the
// configured threshold.
type LongTermCustomer struct {
	CustomerID string `json:"customer_id"`
	DaysActive int    `json:"days_active"`
}

// AddressHistoryResult bundles the heuristic records with their summary.
type AddressHistoryResult struct {
	Records           []AddressHistoryRecord `json:"address_history"`
	TotalTracked      int                    `json:"total_customers_tracked"`
	PotentialChanges  int                    `json:"customers_with_potential_changes"`
	AvgDaysAtAddress  float64                `json:"average_days_at_address"`
	LongTermCustomers []LongTermCustomer     `json:"long_term_customers"`
}

// CategoryResult bundles the pivot, per-category stats, and top lists.
type CategoryResult struct {
	Pivot        []CategorySpend          `json:"customer_category_totals"`
	Categories   []string                 `json:"categories"`
	Summaries    []CategorySummary        `json:"category_summary"`
	TopCustomers map[string][]TopCustomer `json:"top_customers_per_category"`
	TopSpenders  map[string]TopSpender    `json:"top_spenders_by_category"`
}

// Recommendation is a rule-derived business suggestion.
type Recommendation struct {
	Type            string `json:"type"`
	Priority        string `json:"priority"`
	Category        string `json:"category"`
	Recommendation  string `json:"recommendation"`
	PotentialImpact string `json:"potential_impact"`
}

// GeoStats summarizes the geocode enrichment pass.
type GeoStats struct {
	TotalCustomers   int     `json:"total_customers"`
	Geocoded         int     `json:"geocoded_customers"`
	SuccessRate      float64 `json:"geocoding_success_rate"`
	CacheHits        int     `json:"cached_results"`
	CenterLatitude   float64 `json:"center_latitude"`
	CenterLongitude  float64 `json:"center_longitude"`
	MinLatitude      float64 `json:"min_latitude"`
	MaxLatitude      float64 `json:"max_latitude"`
	MinLongitude     float64 `json:"min_longitude"`
	MaxLongitude     float64 `json:"max_longitude"`
	ProviderCounts   map[string]int `json:"provider_stats"`
	AvgConfidence    float64 `json:"average_confidence"`
	HighConfidence   int     `json:"high_confidence_count"`
}

// Summary holds run-level statistics.
type Summary struct {
	TotalCustomers    int        `json:"total_customers" yaml:"total_customers"`
	TotalTransactions int        `json:"total_transactions" yaml:"total_transactions"`
	TotalRevenue      float64    `json:"total_revenue" yaml:"total_revenue"`
	FirstTransaction  *time.Time `json:"first_transaction" yaml:"first_transaction"`
	LastTransaction   *time.Time `json:"last_transaction" yaml:"last_transaction"`
	ProductCategories int        `json:"product_categories" yaml:"product_categories"`
	CustomersTracked  int        `json:"customers_with_address_history" yaml:"customers_with_address_history"`
	GeocodedCustomers int        `json:"geocoded_customers,omitempty" yaml:"geocoded_customers,omitempty"`
	GeocodingRate     float64    `json:"geocoding_success_rate,omitempty" yaml:"geocoding_success_rate,omitempty"`
}

// Result is the full bundle returned by a pipeline run. All derived
// structures are immutable snapshots of a single run.
type Result struct {
	Transactions    []Transaction        `json:"transactions"`
	Customers       []Customer           `json:"customers"`
	Products        []Product            `json:"products"`
	AddressHistory  AddressHistoryResult `json:"address_history"`
	Categories      CategoryResult       `json:"category_analysis"`
	Rankings        RankingResult        `json:"customer_rankings"`
	GeoStats        *GeoStats            `json:"geo_stats,omitempty"`
	Summary         Summary              `json:"summary_stats"`
	Recommendations []Recommendation     `json:"recommendations"`
}
