package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func strPtr(s string) *string { return &s }
func fPtr(v float64) *float64 { return &v }

func TestPostgres_GetHit(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT address_hash, original_address`).
		WithArgs("hash1").
		WillReturnRows(pgxmock.NewRows([]string{
			"address_hash", "original_address", "normalized_address", "latitude", "longitude",
			"provider", "confidence_score", "created_at", "last_used_at",
		}).AddRow(
			"hash1", "12 George St, Sydney, Australia", strPtr("George Street, Sydney"),
			fPtr(-33.8688), fPtr(151.2093), strPtr("nominatim"), fPtr(0.8), now, now,
		))

	entry, err := s.Get(context.Background(), "hash1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "hash1", entry.Hash)
	assert.Equal(t, "nominatim", entry.Provider)
	require.NotNil(t, entry.Latitude)
	assert.Equal(t, -33.8688, *entry.Latitude)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetMiss(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT address_hash, original_address`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	entry, err := s.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Upsert(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec(`INSERT INTO geocode_cache`).
		WithArgs("hash1", "12 George St, Sydney, Australia", "George Street, Sydney NSW, Australia",
			fPtr(-33.8688), fPtr(151.2093), "nominatim", 0.8, now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	entry := testEntry("hash1")
	entry.CreatedAt = now
	entry.LastUsedAt = now
	err := s.Upsert(context.Background(), entry)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Touch(t *testing.T) {
	s, mock := newMockStore(t)
	at := time.Now().UTC()

	mock.ExpectExec(`UPDATE geocode_cache SET last_used_at`).
		WithArgs(at, "hash1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.Touch(context.Background(), "hash1", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_PurgeCache(t *testing.T) {
	s, mock := newMockStore(t)
	cutoff := time.Now().UTC()

	mock.ExpectExec(`DELETE FROM geocode_cache`).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	deleted, err := s.PurgeCache(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LogUpload_GeneratesID(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO upload_logs`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "data.xlsx", 100, 20, 5, "uploads/data.xlsx").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	entry := &UploadLog{
		Filename:          "data.xlsx",
		TransactionsCount: 100,
		CustomersCount:    20,
		ProductsCount:     5,
		FilePath:          "uploads/data.xlsx",
	}
	require.NoError(t, s.LogUpload(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
