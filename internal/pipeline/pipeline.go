// Package pipeline composes ingest, analytics, and geocode enrichment into
// a single processing run over one workbook.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/analytics"
	"github.com/sells-group/insight-cli/internal/config"
	"github.com/sells-group/insight-cli/internal/fetcher"
	"github.com/sells-group/insight-cli/internal/ingest"
	"github.com/sells-group/insight-cli/internal/model"
	"github.com/sells-group/insight-cli/pkg/geocode"
)

// Pipeline runs the full analysis over one workbook and assembles the
// result bundle. All derived structures are computed once per run; the
// geocode cache is the only cross-run mutable state.
type Pipeline struct {
	cfg      config.AnalyticsConfig
	resolver *geocode.Resolver
	progress geocode.ProgressFunc
}

// Option configures the Pipeline.
type Option func(*Pipeline)

// WithResolver enables geocode enrichment with the given resolver.
func WithResolver(r *geocode.Resolver) Option {
	return func(p *Pipeline) { p.resolver = r }
}

// WithProgress sets the bulk-geocode progress callback.
func WithProgress(fn geocode.ProgressFunc) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// New creates a Pipeline with the given analytics thresholds.
func New(cfg config.AnalyticsConfig, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg}
	if p.cfg.TopCustomersPerCategory == 0 {
		p.cfg.TopCustomersPerCategory = 5
	}
	if p.cfg.LongTenureDays == 0 {
		p.cfg.LongTenureDays = 365
	}
	if p.cfg.RetentionSharePct == 0 {
		p.cfg.RetentionSharePct = 20
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process validates and decodes the workbook, derives all analyses, and
// optionally enriches customers with coordinates. Structure problems
// surface as *ingest.ValidationError before any transform runs.
func (p *Pipeline) Process(ctx context.Context, workbookPath string, geocodeEnabled bool) (*model.Result, error) {
	log := zap.L().With(zap.String("workbook", workbookPath))

	wb, err := fetcher.ReadWorkbook(ctx, workbookPath, ingest.RequiredSheets)
	if err != nil {
		return nil, err
	}

	tables, verr := ingest.Decode(wb)
	if verr != nil {
		return nil, verr
	}

	result := &model.Result{
		Transactions: tables.Transactions,
		Customers:    tables.Customers,
		Products:     tables.Products,
	}

	result.AddressHistory = analytics.DeriveAddressHistory(tables.Customers, tables.Transactions, p.cfg.LongTenureDays)
	result.Categories = analytics.AnalyzeCategories(tables.Transactions, tables.Products, p.cfg.TopCustomersPerCategory)
	result.Rankings = analytics.RankCustomers(tables.Transactions)

	if geocodeEnabled && p.resolver != nil {
		if err := p.enrichCustomers(ctx, result); err != nil {
			return nil, err
		}
		result.GeoStats = analytics.GeoStats(result.Customers)
	}

	result.Summary = p.summarize(result)
	result.Recommendations = analytics.Recommend(result.Categories, result.Rankings, p.cfg.RetentionSharePct)

	log.Info("pipeline: run complete",
		zap.Int("customers", result.Summary.TotalCustomers),
		zap.Int("transactions", result.Summary.TotalTransactions),
		zap.Float64("revenue", result.Summary.TotalRevenue),
		zap.Bool("geocoded", result.GeoStats != nil),
	)

	return result, nil
}

// summarize derives run-level statistics from the assembled result.
func (p *Pipeline) summarize(result *model.Result) model.Summary {
	s := model.Summary{
		TotalCustomers:    len(result.Customers),
		TotalTransactions: len(result.Transactions),
		CustomersTracked:  result.AddressHistory.TotalTracked,
		ProductCategories: countCategories(result.Products),
	}

	for _, t := range result.Transactions {
		if t.Amount != nil {
			s.TotalRevenue += *t.Amount
		}
		if t.Date == nil {
			continue
		}
		if s.FirstTransaction == nil || t.Date.Before(*s.FirstTransaction) {
			d := *t.Date
			s.FirstTransaction = &d
		}
		if s.LastTransaction == nil || t.Date.After(*s.LastTransaction) {
			d := *t.Date
			s.LastTransaction = &d
		}
	}

	if result.GeoStats != nil {
		s.GeocodedCustomers = result.GeoStats.Geocoded
		s.GeocodingRate = result.GeoStats.SuccessRate
	}

	return s
}

func countCategories(products []model.Product) int {
	set := make(map[string]bool, len(products))
	for _, p := range products {
		if p.Category != "" {
			set[p.Category] = true
		}
	}
	return len(set)
}
