package store

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/insight-cli/pkg/geocode"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB

	// Serializes cache upserts. The pipeline itself is single-threaded,
	// but callers that add concurrency must not lose updates to insert
	// races.
	mu sync.Mutex
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	address_hash       TEXT PRIMARY KEY,
	original_address   TEXT NOT NULL,
	normalized_address TEXT,
	latitude           REAL,
	longitude          REAL,
	provider           TEXT,
	confidence_score   REAL,
	created_at         DATETIME NOT NULL,
	last_used_at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS upload_logs (
	id                 TEXT PRIMARY KEY,
	uploaded_at        DATETIME NOT NULL,
	filename           TEXT NOT NULL,
	transactions_count INTEGER,
	customers_count    INTEGER,
	products_count     INTEGER,
	file_path          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_geocode_cache_last_used ON geocode_cache(last_used_at);
CREATE INDEX IF NOT EXISTS idx_upload_logs_uploaded_at ON upload_logs(uploaded_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get implements geocode.Cache. A miss returns (nil, nil).
func (s *SQLiteStore) Get(ctx context.Context, hash string) (*geocode.CacheEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT address_hash, original_address, normalized_address, latitude, longitude,
		       provider, confidence_score, created_at, last_used_at
		FROM geocode_cache WHERE address_hash = ?`, hash)

	var e geocode.CacheEntry
	var normalized, provider sql.NullString
	var lat, lon, conf sql.NullFloat64
	err := row.Scan(&e.Hash, &e.OriginalAddress, &normalized, &lat, &lon, &provider, &conf, &e.CreatedAt, &e.LastUsedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cache entry")
	}

	e.NormalizedAddress = normalized.String
	e.Provider = provider.String
	e.Confidence = conf.Float64
	if lat.Valid {
		e.Latitude = &lat.Float64
	}
	if lon.Valid {
		e.Longitude = &lon.Float64
	}
	return &e, nil
}

// Upsert implements geocode.Cache with one-entry-per-hash semantics.
func (s *SQLiteStore) Upsert(ctx context.Context, entry *geocode.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO geocode_cache
			(address_hash, original_address, normalized_address, latitude, longitude,
			 provider, confidence_score, created_at, last_used_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (address_hash) DO UPDATE SET
			original_address   = excluded.original_address,
			normalized_address = excluded.normalized_address,
			latitude           = excluded.latitude,
			longitude          = excluded.longitude,
			provider           = excluded.provider,
			confidence_score   = excluded.confidence_score,
			last_used_at       = excluded.last_used_at`,
		entry.Hash, entry.OriginalAddress, nilIfEmpty(entry.NormalizedAddress),
		nilIfNilFloat(entry.Latitude), nilIfNilFloat(entry.Longitude),
		nilIfEmpty(entry.Provider), entry.Confidence, entry.CreatedAt, entry.LastUsedAt,
	)
	return eris.Wrap(err, "sqlite: upsert cache entry")
}

// Touch implements geocode.Cache, updating last_used_at on a hit.
func (s *SQLiteStore) Touch(ctx context.Context, hash string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE geocode_cache SET last_used_at = ? WHERE address_hash = ?`, at, hash)
	return eris.Wrap(err, "sqlite: touch cache entry")
}

func (s *SQLiteStore) CacheStats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{ByProvider: make(map[string]int64)}

	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(last_used_at), MAX(last_used_at) FROM geocode_cache`)
	var oldest, newest sql.NullTime
	if err := row.Scan(&stats.Entries, &oldest, &newest); err != nil {
		return nil, eris.Wrap(err, "sqlite: cache stats")
	}
	if oldest.Valid {
		stats.OldestUsed = &oldest.Time
	}
	if newest.Valid {
		stats.NewestUsed = &newest.Time
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT COALESCE(provider, ''), COUNT(*) FROM geocode_cache GROUP BY provider`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: cache stats by provider")
	}
	defer rows.Close() //nolint:errcheck
	for rows.Next() {
		var provider string
		var count int64
		if err := rows.Scan(&provider, &count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan provider count")
		}
		stats.ByProvider[provider] = count
	}
	return stats, rows.Err()
}

func (s *SQLiteStore) PurgeCache(ctx context.Context, lastUsedBefore time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM geocode_cache WHERE last_used_at < ?`, lastUsedBefore)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: purge cache")
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) LogUpload(ctx context.Context, entry *UploadLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.UploadedAt.IsZero() {
		entry.UploadedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO upload_logs
			(id, uploaded_at, filename, transactions_count, customers_count, products_count, file_path)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UploadedAt, entry.Filename,
		entry.TransactionsCount, entry.CustomersCount, entry.ProductsCount, entry.FilePath,
	)
	return eris.Wrap(err, "sqlite: log upload")
}

func (s *SQLiteStore) ListUploads(ctx context.Context, limit int) ([]UploadLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, uploaded_at, filename, transactions_count, customers_count, products_count, file_path
		FROM upload_logs ORDER BY uploaded_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list uploads")
	}
	defer rows.Close() //nolint:errcheck

	var logs []UploadLog
	for rows.Next() {
		var l UploadLog
		if err := rows.Scan(&l.ID, &l.UploadedAt, &l.Filename,
			&l.TransactionsCount, &l.CustomersCount, &l.ProductsCount, &l.FilePath); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan upload log")
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nilIfNilFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
