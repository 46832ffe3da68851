package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/insight-cli/internal/model"
)

func s(v string) *string { return &v }
func b(v bool) *bool     { return &v }

func TestGeoStats(t *testing.T) {
	customers := []model.Customer{
		{
			CustomerID: "c1",
			Latitude:   f(-33.87), Longitude: f(151.21),
			GeoProvider: s("nominatim"), GeoConfidence: f(0.8), GeoCached: b(true),
		},
		{
			CustomerID: "c2",
			Latitude:   f(-37.81), Longitude: f(144.96),
			GeoProvider: s("google"), GeoConfidence: f(0.9), GeoCached: b(false),
		},
		{CustomerID: "c3"}, // not geocoded
	}

	stats := GeoStats(customers)
	assert.Equal(t, 3, stats.TotalCustomers)
	assert.Equal(t, 2, stats.Geocoded)
	assert.InDelta(t, 200.0/3.0, stats.SuccessRate, 1e-9)
	assert.Equal(t, 1, stats.CacheHits)
	assert.Equal(t, map[string]int{"nominatim": 1, "google": 1}, stats.ProviderCounts)
	assert.InDelta(t, 0.85, stats.AvgConfidence, 1e-9)
	assert.Equal(t, 1, stats.HighConfidence)

	assert.InDelta(t, -35.84, stats.CenterLatitude, 1e-9)
	assert.InDelta(t, 148.085, stats.CenterLongitude, 1e-9)
	assert.Equal(t, -37.81, stats.MinLatitude)
	assert.Equal(t, -33.87, stats.MaxLatitude)
	assert.Equal(t, 144.96, stats.MinLongitude)
	assert.Equal(t, 151.21, stats.MaxLongitude)
}

func TestGeoStats_NoneGeocoded(t *testing.T) {
	stats := GeoStats([]model.Customer{{CustomerID: "c1"}})
	assert.Equal(t, 0, stats.Geocoded)
	assert.Equal(t, 0.0, stats.SuccessRate)
	assert.Equal(t, 0.0, stats.CenterLatitude)
}
