package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/insight-cli/pkg/geocode"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool Pool
	mu   sync.Mutex
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool (tests).
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	address_hash       TEXT PRIMARY KEY,
	original_address   TEXT NOT NULL,
	normalized_address TEXT,
	latitude           DOUBLE PRECISION,
	longitude          DOUBLE PRECISION,
	provider           TEXT,
	confidence_score   DOUBLE PRECISION,
	created_at         TIMESTAMPTZ NOT NULL,
	last_used_at       TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS upload_logs (
	id                 UUID PRIMARY KEY,
	uploaded_at        TIMESTAMPTZ NOT NULL,
	filename           TEXT NOT NULL,
	transactions_count INTEGER,
	customers_count    INTEGER,
	products_count     INTEGER,
	file_path          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_geocode_cache_last_used ON geocode_cache(last_used_at);
CREATE INDEX IF NOT EXISTS idx_upload_logs_uploaded_at ON upload_logs(uploaded_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Get implements geocode.Cache. A miss returns (nil, nil).
func (s *PostgresStore) Get(ctx context.Context, hash string) (*geocode.CacheEntry, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT address_hash, original_address, normalized_address, latitude, longitude,
		       provider, confidence_score, created_at, last_used_at
		FROM geocode_cache WHERE address_hash = $1`, hash)

	var e geocode.CacheEntry
	var normalized, provider *string
	var lat, lon, conf *float64
	err := row.Scan(&e.Hash, &e.OriginalAddress, &normalized, &lat, &lon, &provider, &conf, &e.CreatedAt, &e.LastUsedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get cache entry")
	}

	if normalized != nil {
		e.NormalizedAddress = *normalized
	}
	if provider != nil {
		e.Provider = *provider
	}
	if conf != nil {
		e.Confidence = *conf
	}
	e.Latitude = lat
	e.Longitude = lon
	return &e, nil
}

// Upsert implements geocode.Cache with one-entry-per-hash semantics.
func (s *PostgresStore) Upsert(ctx context.Context, entry *geocode.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO geocode_cache
			(address_hash, original_address, normalized_address, latitude, longitude,
			 provider, confidence_score, created_at, last_used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (address_hash) DO UPDATE SET
			original_address   = EXCLUDED.original_address,
			normalized_address = EXCLUDED.normalized_address,
			latitude           = EXCLUDED.latitude,
			longitude          = EXCLUDED.longitude,
			provider           = EXCLUDED.provider,
			confidence_score   = EXCLUDED.confidence_score,
			last_used_at       = EXCLUDED.last_used_at`,
		entry.Hash, entry.OriginalAddress, nilIfEmpty(entry.NormalizedAddress),
		entry.Latitude, entry.Longitude, nilIfEmpty(entry.Provider),
		entry.Confidence, entry.CreatedAt, entry.LastUsedAt,
	)
	return eris.Wrap(err, "postgres: upsert cache entry")
}

// Touch implements geocode.Cache, updating last_used_at on a hit.
func (s *PostgresStore) Touch(ctx context.Context, hash string, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE geocode_cache SET last_used_at = $1 WHERE address_hash = $2`, at, hash)
	return eris.Wrap(err, "postgres: touch cache entry")
}

func (s *PostgresStore) CacheStats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{ByProvider: make(map[string]int64)}

	row := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), MIN(last_used_at), MAX(last_used_at) FROM geocode_cache`)
	var oldest, newest *time.Time
	if err := row.Scan(&stats.Entries, &oldest, &newest); err != nil {
		return nil, eris.Wrap(err, "postgres: cache stats")
	}
	stats.OldestUsed = oldest
	stats.NewestUsed = newest

	rows, err := s.pool.Query(ctx,
		`SELECT COALESCE(provider, ''), COUNT(*) FROM geocode_cache GROUP BY provider`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: cache stats by provider")
	}
	defer rows.Close()
	for rows.Next() {
		var provider string
		var count int64
		if err := rows.Scan(&provider, &count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan provider count")
		}
		stats.ByProvider[provider] = count
	}
	return stats, rows.Err()
}

func (s *PostgresStore) PurgeCache(ctx context.Context, lastUsedBefore time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM geocode_cache WHERE last_used_at < $1`, lastUsedBefore)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: purge cache")
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) LogUpload(ctx context.Context, entry *UploadLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.UploadedAt.IsZero() {
		entry.UploadedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO upload_logs
			(id, uploaded_at, filename, transactions_count, customers_count, products_count, file_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.UploadedAt, entry.Filename,
		entry.TransactionsCount, entry.CustomersCount, entry.ProductsCount, entry.FilePath,
	)
	return eris.Wrap(err, "postgres: log upload")
}

func (s *PostgresStore) ListUploads(ctx context.Context, limit int) ([]UploadLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, uploaded_at, filename, transactions_count, customers_count, products_count, file_path
		FROM upload_logs ORDER BY uploaded_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list uploads")
	}
	defer rows.Close()

	var logs []UploadLog
	for rows.Next() {
		var l UploadLog
		if err := rows.Scan(&l.ID, &l.UploadedAt, &l.Filename,
			&l.TransactionsCount, &l.CustomersCount, &l.ProductsCount, &l.FilePath); err != nil {
			return nil, eris.Wrap(err, "postgres: scan upload log")
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
