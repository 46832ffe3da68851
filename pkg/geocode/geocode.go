// Package geocode resolves free-text addresses to coordinates through an
// ordered provider chain (Google when configured, Nominatim as the free
// fallback) with a content-addressed persistent cache in front.
package geocode

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// Result is the outcome of resolving one address. Latitude and Longitude
// are nil when no provider produced a match; Err then carries the reason.
type Result struct {
	OriginalAddress   string   `json:"original_address"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	NormalizedAddress string   `json:"normalized_address,omitempty"`
	Provider          string   `json:"provider,omitempty"`
	Confidence        float64  `json:"confidence_score"`
	Cached            bool     `json:"cached"`
	Err               string   `json:"error,omitempty"`
}

// Matched reports whether the result carries coordinates.
func (r *Result) Matched() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Provider is a single geocoding backend. Geocode returns (nil, nil) when
// the provider has no match for the address; errors are treated the same
// way by the resolver, which falls through to the next provider.
type Provider interface {
	Name() string
	Available() bool
	Geocode(ctx context.Context, address string) (*Result, error)
}

// CacheEntry is one persisted geocode result, keyed by the address hash.
type CacheEntry struct {
	Hash              string
	OriginalAddress   string
	NormalizedAddress string
	Latitude          *float64
	Longitude         *float64
	Provider          string
	Confidence        float64
	CreatedAt         time.Time
	LastUsedAt        time.Time
}

// Cache is the persistent store behind the resolver. Get returns (nil, nil)
// on a miss; Upsert replaces any existing entry for the same hash.
type Cache interface {
	Get(ctx context.Context, hash string) (*CacheEntry, error)
	Upsert(ctx context.Context, entry *CacheEntry) error
	Touch(ctx context.Context, hash string, at time.Time) error
}

// HashAddress returns the SHA-256 hex digest of the lowercased, trimmed
// address text. Lookup is exact-match only; no fuzzy matching.
func HashAddress(address string) string {
	normalized := strings.ToLower(strings.TrimSpace(address))
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}

// CleanAddress collapses whitespace and appends the country suffix when the
// address does not already name it. Cleaning happens before both cache
// lookup and provider queries so the cache key is stable.
func CleanAddress(address, countrySuffix string) string {
	cleaned := strings.Join(strings.Fields(address), " ")
	if cleaned == "" || countrySuffix == "" {
		return cleaned
	}
	lower := strings.ToLower(cleaned)
	suffix := strings.ToLower(countrySuffix)
	if !strings.Contains(lower, suffix) && !strings.Contains(lower, abbreviate(suffix)) {
		cleaned += ", " + countrySuffix
	}
	return cleaned
}

// abbreviate returns the first three letters of a country name, matching
// how shortened forms like "aus" appear in source addresses.
func abbreviate(country string) string {
	if len(country) <= 3 {
		return country
	}
	return country[:3]
}
