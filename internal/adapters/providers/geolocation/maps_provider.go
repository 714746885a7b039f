package geolocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/zatekoja/facilityinsight/internal/domain/providers"
	pkgerrors "github.com/zatekoja/facilityinsight/pkg/errors"
)

const (
	defaultBaseURL         = "https://geocode.maps.co/search"
	defaultGeocodeCacheTTL = 60 * 60 * 24 * 30
	defaultHTTPTimeout     = 8 * time.Second
)

// MapsGeocodingProvider implements GeocodingProvider against a
// Nominatim-compatible search endpoint (geocode.maps.co). Calls go through a
// circuit breaker so a dead upstream fails fast instead of stalling every
// place-name query.
type MapsGeocodingProvider struct {
	apiKey     string
	httpClient *http.Client
	cache      providers.CacheProvider
	baseURL    string
	breaker    *gobreaker.CircuitBreaker
}

// NewMapsGeocodingProvider creates a new geocoding provider.
func NewMapsGeocodingProvider(baseURL, apiKey string, cache providers.CacheProvider) providers.GeocodingProvider {
	return NewMapsGeocodingProviderWithOptions(baseURL, apiKey, cache, nil)
}

// NewMapsGeocodingProviderWithOptions allows overriding the HTTP client (used for tests).
func NewMapsGeocodingProviderWithOptions(baseURL, apiKey string, cache providers.CacheProvider, httpClient *http.Client) providers.GeocodingProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "geocode",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &MapsGeocodingProvider{
		apiKey:     apiKey,
		httpClient: httpClient,
		cache:      cache,
		baseURL:    baseURL,
		breaker:    breaker,
	}
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode converts an address to coordinates.
func (g *MapsGeocodingProvider) Geocode(ctx context.Context, address string) (*providers.Coordinates, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return nil, pkgerrors.NewValidationError("address is required")
	}

	cacheKey := "geo:v1:search:" + hashKey(strings.ToLower(trimmed))
	if g.cache != nil {
		if cached, err := g.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			var coords providers.Coordinates
			if err := json.Unmarshal(cached, &coords); err == nil && (coords.Latitude != 0 || coords.Longitude != 0) {
				return &coords, nil
			}
		}
	}

	result, err := g.breaker.Execute(func() (any, error) {
		return g.doSearchRequest(ctx, trimmed)
	})
	if err != nil {
		return nil, pkgerrors.NewExternalError("geocode lookup failed", err)
	}
	coords := result.(*providers.Coordinates)

	if g.cache != nil {
		if payload, err := json.Marshal(*coords); err == nil {
			_ = g.cache.Set(ctx, cacheKey, payload, defaultGeocodeCacheTTL)
		}
	}
	return coords, nil
}

func (g *MapsGeocodingProvider) doSearchRequest(ctx context.Context, query string) (*providers.Coordinates, error) {
	params := url.Values{"q": []string{query}}
	if g.apiKey != "" {
		params.Set("api_key", g.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("malformed geocode response: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no results for address")
	}

	lat, errLat := strconv.ParseFloat(results[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(results[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return nil, fmt.Errorf("malformed coordinates in geocode response")
	}

	return &providers.Coordinates{Latitude: lat, Longitude: lon}, nil
}

func hashKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
