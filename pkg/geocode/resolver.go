package geocode

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ErrGeocodingFailed tags a result that no provider could resolve.
const ErrGeocodingFailed = "Geocoding failed"

// ErrEmptyAddress tags a result for blank input.
const ErrEmptyAddress = "Empty address"

// ProgressFunc receives the 1-based index, total count, and address of each
// bulk lookup. It is for user-facing progress only, never control flow.
type ProgressFunc func(current, total int, address string)

// Resolver resolves addresses through the cache and provider chain.
type Resolver struct {
	cache         Cache
	providers     []Provider
	countrySuffix string
	now           func() time.Time
}

// ResolverOption configures the Resolver.
type ResolverOption func(*Resolver)

// WithCountrySuffix sets the country appended during address cleaning.
func WithCountrySuffix(suffix string) ResolverOption {
	return func(r *Resolver) { r.countrySuffix = suffix }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a Resolver over the given cache and ordered provider
// chain. Providers are tried in order; the first non-empty result wins.
func NewResolver(cache Cache, providers []Provider, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		cache:         cache,
		providers:     providers,
		countrySuffix: "Australia",
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve geocodes a single address. A cache hit returns immediately with
// no network access; on a miss, providers are tried in order and the first
// match is cached. A fully failed lookup is NOT cached: an unresolvable
// address is retried on every run, trading repeat lookups for never pinning
// a transient failure. Per-address failures never surface as errors.
func (r *Resolver) Resolve(ctx context.Context, address string) (*Result, error) {
	if CleanAddress(address, "") == "" {
		return &Result{OriginalAddress: address, Err: ErrEmptyAddress}, nil
	}

	cleaned := CleanAddress(address, r.countrySuffix)
	hash := HashAddress(cleaned)

	if cached, err := r.cache.Get(ctx, hash); err != nil {
		zap.L().Warn("geocode: cache read failed, falling through to providers", zap.Error(err))
	} else if cached != nil {
		if err := r.cache.Touch(ctx, hash, r.now()); err != nil {
			zap.L().Warn("geocode: cache touch failed", zap.Error(err))
		}
		return &Result{
			OriginalAddress:   address,
			Latitude:          cached.Latitude,
			Longitude:         cached.Longitude,
			NormalizedAddress: cached.NormalizedAddress,
			Provider:          cached.Provider,
			Confidence:        cached.Confidence,
			Cached:            true,
		}, nil
	}

	for _, p := range r.providers {
		if !p.Available() {
			continue
		}
		result, err := p.Geocode(ctx, cleaned)
		if err != nil {
			zap.L().Debug("geocode: provider failed, trying next",
				zap.String("provider", p.Name()),
				zap.String("address", cleaned),
				zap.Error(err),
			)
			continue
		}
		if result == nil || !result.Matched() {
			continue
		}

		result.OriginalAddress = address
		now := r.now()
		if err := r.cache.Upsert(ctx, &CacheEntry{
			Hash:              hash,
			OriginalAddress:   cleaned,
			NormalizedAddress: result.NormalizedAddress,
			Latitude:          result.Latitude,
			Longitude:         result.Longitude,
			Provider:          result.Provider,
			Confidence:        result.Confidence,
			CreatedAt:         now,
			LastUsedAt:        now,
		}); err != nil {
			zap.L().Warn("geocode: cache write failed", zap.Error(err))
		}
		return result, nil
	}

	return &Result{OriginalAddress: address, Err: ErrGeocodingFailed}, nil
}

// BulkResolve geocodes a list of addresses. Duplicates are deduplicated
// before resolution, each unique address is resolved exactly once and
// strictly serially (the free provider's limiter is shared), then results
// re-expand to the original order and multiplicity.
func (r *Resolver) BulkResolve(ctx context.Context, addresses []string, progress ProgressFunc) ([]Result, error) {
	unique := make([]string, 0, len(addresses))
	seen := make(map[string]bool, len(addresses))
	for _, addr := range addresses {
		if !seen[addr] {
			seen[addr] = true
			unique = append(unique, addr)
		}
	}

	zap.L().Info("geocode: bulk resolve",
		zap.Int("addresses", len(addresses)),
		zap.Int("unique", len(unique)),
	)

	byAddress := make(map[string]Result, len(unique))
	for i, addr := range unique {
		if progress != nil {
			progress(i+1, len(unique), addr)
		}
		result, err := r.Resolve(ctx, addr)
		if err != nil {
			return nil, err
		}
		byAddress[addr] = *result
	}

	results := make([]Result, len(addresses))
	for i, addr := range addresses {
		results[i] = byAddress[addr]
	}
	return results, nil
}
