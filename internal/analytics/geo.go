package analytics

import (
	"github.com/twpayne/go-geom"

	"github.com/sells-group/insight-cli/internal/model"
)

// GeoStats summarizes a geocode enrichment pass over the customer table:
// success rate, cache usage, provider mix, and the geographic spread of the
// resolved points.
func GeoStats(customers []model.Customer) *model.GeoStats {
	stats := &model.GeoStats{
		TotalCustomers: len(customers),
		ProviderCounts: make(map[string]int),
	}

	bounds := geom.NewBounds(geom.XY)
	var latSum, lonSum, confSum float64
	var confCount int

	for _, c := range customers {
		if c.GeoCached != nil && *c.GeoCached {
			stats.CacheHits++
		}
		if c.GeoProvider != nil {
			stats.ProviderCounts[*c.GeoProvider]++
		}
		if c.GeoConfidence != nil {
			confSum += *c.GeoConfidence
			confCount++
			if *c.GeoConfidence > 0.8 {
				stats.HighConfidence++
			}
		}
		if c.Latitude == nil || c.Longitude == nil {
			continue
		}
		stats.Geocoded++
		latSum += *c.Latitude
		lonSum += *c.Longitude
		bounds.Extend(geom.NewPointFlat(geom.XY, []float64{*c.Longitude, *c.Latitude}))
	}

	if stats.TotalCustomers > 0 {
		stats.SuccessRate = float64(stats.Geocoded) / float64(stats.TotalCustomers) * 100
	}
	if confCount > 0 {
		stats.AvgConfidence = confSum / float64(confCount)
	}
	if stats.Geocoded > 0 {
		stats.CenterLatitude = latSum / float64(stats.Geocoded)
		stats.CenterLongitude = lonSum / float64(stats.Geocoded)
		stats.MinLongitude = bounds.Min(0)
		stats.MinLatitude = bounds.Min(1)
		stats.MaxLongitude = bounds.Max(0)
		stats.MaxLatitude = bounds.Max(1)
	}

	return stats
}
