package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/model"
)

// enrichCustomers resolves every distinct customer address and attaches
// the coordinates to the customer records. Unresolvable addresses carry
// the error tag instead of coordinates; they never abort the run.
func (p *Pipeline) enrichCustomers(ctx context.Context, result *model.Result) error {
	addresses := make([]string, 0, len(result.Customers))
	for _, c := range result.Customers {
		if c.Address != "" {
			addresses = append(addresses, c.Address)
		}
	}
	if len(addresses) == 0 {
		zap.L().Info("pipeline: no customer addresses to geocode")
		return nil
	}

	results, err := p.resolver.BulkResolve(ctx, addresses, p.progress)
	if err != nil {
		return err
	}

	byAddress := make(map[string]int, len(results))
	for i, r := range results {
		byAddress[r.OriginalAddress] = i
	}

	for i := range result.Customers {
		c := &result.Customers[i]
		idx, ok := byAddress[c.Address]
		if !ok {
			continue
		}
		r := results[idx]

		c.Latitude = r.Latitude
		c.Longitude = r.Longitude
		cached := r.Cached
		c.GeoCached = &cached
		if r.NormalizedAddress != "" {
			normalized := r.NormalizedAddress
			c.NormalizedAddress = &normalized
		}
		if r.Provider != "" {
			provider := r.Provider
			c.GeoProvider = &provider
		}
		if r.Matched() {
			confidence := r.Confidence
			c.GeoConfidence = &confidence
		}
		if r.Err != "" {
			errTag := r.Err
			c.GeoError = &errTag
		}
	}

	return nil
}
