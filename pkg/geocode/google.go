package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultGoogleURL = "https://maps.googleapis.com/maps/api/geocode/json"

// googleConfidence reflects the provider's typically higher accuracy.
const googleConfidence = 0.9

// GoogleProvider geocodes via the paid Google Geocoding API. It is skipped
// by the resolver when no API key is configured.
type GoogleProvider struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	region     string
}

// GoogleOption configures the GoogleProvider.
type GoogleOption func(*GoogleProvider)

// WithGoogleHTTPClient sets a custom HTTP client.
func WithGoogleHTTPClient(hc *http.Client) GoogleOption {
	return func(p *GoogleProvider) { p.httpClient = hc }
}

// WithGoogleBaseURL overrides the API endpoint.
func WithGoogleBaseURL(u string) GoogleOption {
	return func(p *GoogleProvider) { p.baseURL = u }
}

// WithGoogleRegion sets the region bias (ccTLD form).
func WithGoogleRegion(region string) GoogleOption {
	return func(p *GoogleProvider) { p.region = region }
}

// NewGoogle creates the paid provider with the given API key.
func NewGoogle(apiKey string, opts ...GoogleOption) *GoogleProvider {
	p := &GoogleProvider{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultGoogleURL,
		apiKey:     apiKey,
		region:     "au",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Provider.
func (p *GoogleProvider) Name() string { return "google" }

// Available implements Provider.
func (p *GoogleProvider) Available() bool { return p.apiKey != "" }

// googleResponse is the JSON response from the Google Geocoding API.
type googleResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status string `json:"status"`
}

// Geocode implements Provider.
func (p *GoogleProvider) Geocode(ctx context.Context, address string) (*Result, error) {
	if p.apiKey == "" {
		return nil, eris.New("geocode: google api key not configured")
	}

	params := url.Values{
		"address": {address},
		"key":     {p.apiKey},
	}
	if p.region != "" {
		params.Set("region", p.region)
		params.Set("components", "country:"+p.region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google build request")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: google returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google read body")
	}

	var googleResp googleResponse
	if err := json.Unmarshal(body, &googleResp); err != nil {
		return nil, eris.Wrap(err, "geocode: google parse response")
	}
	if googleResp.Status != "OK" || len(googleResp.Results) == 0 {
		return nil, nil
	}

	r := googleResp.Results[0]
	lat := r.Geometry.Location.Lat
	lng := r.Geometry.Location.Lng
	return &Result{
		Latitude:          &lat,
		Longitude:         &lng,
		NormalizedAddress: r.FormattedAddress,
		Provider:          p.Name(),
		Confidence:        googleConfidence,
	}, nil
}
