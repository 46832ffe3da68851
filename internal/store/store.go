// Package store persists the geocode cache and the upload log, durable
// across process restarts. Two drivers exist: sqlite (default, single
// file) and postgres.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/insight-cli/pkg/geocode"
)

// UploadLog is one recorded workbook upload.
type UploadLog struct {
	ID                string    `json:"id"`
	UploadedAt        time.Time `json:"upload_timestamp"`
	Filename          string    `json:"filename"`
	TransactionsCount int       `json:"transactions_count"`
	CustomersCount    int       `json:"customers_count"`
	ProductsCount     int       `json:"products_count"`
	FilePath          string    `json:"file_path"`
}

// CacheStats summarizes the geocode cache contents.
type CacheStats struct {
	Entries    int64            `json:"entries"`
	ByProvider map[string]int64 `json:"by_provider"`
	OldestUsed *time.Time       `json:"oldest_used,omitempty"`
	NewestUsed *time.Time       `json:"newest_used,omitempty"`
}

// Store is the persistence interface. It embeds geocode.Cache so the
// resolver can take the store directly.
type Store interface {
	geocode.Cache

	CacheStats(ctx context.Context) (*CacheStats, error)
	PurgeCache(ctx context.Context, lastUsedBefore time.Time) (int64, error)

	LogUpload(ctx context.Context, entry *UploadLog) error
	ListUploads(ctx context.Context, limit int) ([]UploadLog, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, driver, databaseURL string) (Store, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLite(databaseURL)
	case "postgres":
		return NewPostgres(ctx, databaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
