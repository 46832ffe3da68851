package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultNominatimURL = "https://nominatim.openstreetmap.org/search"

// nominatimConfidence is fixed: the API reports no comparable score.
const nominatimConfidence = 0.8

// NominatimProvider geocodes via the free OpenStreetMap Nominatim API.
// A shared limiter serializes all outbound requests from this instance to
// honor the published one-request-per-second limit; all free-provider
// traffic must flow through a single instance.
type NominatimProvider struct {
	httpClient   *http.Client
	baseURL      string
	userAgent    string
	countryCodes string
	limiter      *rate.Limiter
}

// NominatimOption configures the NominatimProvider.
type NominatimOption func(*NominatimProvider)

// WithNominatimHTTPClient sets a custom HTTP client.
func WithNominatimHTTPClient(hc *http.Client) NominatimOption {
	return func(p *NominatimProvider) { p.httpClient = hc }
}

// WithNominatimBaseURL overrides the API endpoint.
func WithNominatimBaseURL(u string) NominatimOption {
	return func(p *NominatimProvider) { p.baseURL = u }
}

// WithNominatimUserAgent sets the User-Agent header. Nominatim requires an
// identifying agent.
func WithNominatimUserAgent(ua string) NominatimOption {
	return func(p *NominatimProvider) { p.userAgent = ua }
}

// WithNominatimCountryCodes restricts results to the given ISO codes.
func WithNominatimCountryCodes(codes string) NominatimOption {
	return func(p *NominatimProvider) { p.countryCodes = codes }
}

// WithNominatimMinInterval sets the minimum gap between outbound requests.
func WithNominatimMinInterval(d time.Duration) NominatimOption {
	return func(p *NominatimProvider) { p.limiter = rate.NewLimiter(rate.Every(d), 1) }
}

// NewNominatim creates the free provider with a 1.1s minimum request
// interval, slightly above the published limit.
func NewNominatim(opts ...NominatimOption) *NominatimProvider {
	p := &NominatimProvider{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		baseURL:      defaultNominatimURL,
		userAgent:    "insight-cli/1.0",
		countryCodes: "au",
		limiter:      rate.NewLimiter(rate.Every(1100*time.Millisecond), 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Provider.
func (p *NominatimProvider) Name() string { return "nominatim" }

// Available implements Provider. The free provider is always attempted.
func (p *NominatimProvider) Available() bool { return true }

// nominatimPlace is one entry of the Nominatim search response. Coordinates
// arrive as strings.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode implements Provider. Blocks on the shared limiter before the
// outbound request.
func (p *NominatimProvider) Geocode(ctx context.Context, address string) (*Result, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim rate limit")
	}

	params := url.Values{
		"q":              {address},
		"format":         {"json"},
		"limit":          {"1"},
		"addressdetails": {"1"},
	}
	if p.countryCodes != "" {
		params.Set("countrycodes", p.countryCodes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim build request")
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: nominatim returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim read body")
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim parse response")
	}
	if len(places) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim parse lat")
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim parse lon")
	}

	return &Result{
		Latitude:          &lat,
		Longitude:         &lon,
		NormalizedAddress: places[0].DisplayName,
		Provider:          p.Name(),
		Confidence:        nominatimConfidence,
	}, nil
}
