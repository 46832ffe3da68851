package main

import (
	"context"
	"net/http"
	"time"

	"github.com/sells-group/insight-cli/internal/pipeline"
	"github.com/sells-group/insight-cli/internal/store"
	"github.com/sells-group/insight-cli/pkg/geocode"
)

// openStore opens the configured backend and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// buildResolver assembles the provider chain from config: Google first when
// a key is configured, Nominatim always last.
func buildResolver(st store.Store) *geocode.Resolver {
	hc := &http.Client{Timeout: time.Duration(cfg.Geocode.TimeoutSecs) * time.Second}

	var providers []geocode.Provider
	if cfg.Geocode.UseGoogle {
		providers = append(providers, geocode.NewGoogle(cfg.Geocode.GoogleAPIKey,
			geocode.WithGoogleHTTPClient(hc),
			geocode.WithGoogleRegion("au"),
		))
	}
	providers = append(providers, geocode.NewNominatim(
		geocode.WithNominatimHTTPClient(hc),
		geocode.WithNominatimUserAgent(cfg.Geocode.UserAgent),
		geocode.WithNominatimCountryCodes("au"),
		geocode.WithNominatimMinInterval(time.Duration(cfg.Geocode.MinIntervalSecs*float64(time.Second))),
	))

	return geocode.NewResolver(st, providers,
		geocode.WithCountrySuffix(cfg.Geocode.CountrySuffix),
	)
}

// buildPipeline wires the pipeline, attaching a resolver only when geocoding
// is requested.
func buildPipeline(st store.Store, geocodeEnabled bool, opts ...pipeline.Option) *pipeline.Pipeline {
	if geocodeEnabled {
		opts = append(opts, pipeline.WithResolver(buildResolver(st)))
	}
	return pipeline.New(cfg.Analytics, opts...)
}
