package geolocation_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/facilityinsight/internal/adapters/cache"
	"github.com/zatekoja/facilityinsight/internal/adapters/providers/geolocation"
)

func TestMapsGeocodingProvider_Geocode(t *testing.T) {
	ctx := context.Background()

	t.Run("parses the first nominatim result", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Accra, Ghana", r.URL.Query().Get("q"))
			assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
			w.Write([]byte(`[{"lat":"5.6037","lon":"-0.1870"},{"lat":"1","lon":"1"}]`))
		}))
		defer server.Close()
		provider := geolocation.NewMapsGeocodingProvider(server.URL, "test-key", nil)

		coords, err := provider.Geocode(ctx, "Accra, Ghana")

		require.NoError(t, err)
		assert.Equal(t, 5.6037, coords.Latitude)
		assert.Equal(t, -0.1870, coords.Longitude)
	})

	t.Run("empty address is rejected", func(t *testing.T) {
		provider := geolocation.NewMapsGeocodingProvider("http://unused", "", nil)

		_, err := provider.Geocode(ctx, "   ")

		assert.Error(t, err)
	})

	t.Run("empty result set is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}))
		defer server.Close()
		provider := geolocation.NewMapsGeocodingProvider(server.URL, "", nil)

		_, err := provider.Geocode(ctx, "Nowhere")

		assert.Error(t, err)
	})

	t.Run("non-200 status is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()
		provider := geolocation.NewMapsGeocodingProvider(server.URL, "", nil)

		_, err := provider.Geocode(ctx, "Accra")

		assert.Error(t, err)
	})

	t.Run("malformed coordinates are an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"lat":"north","lon":"west"}]`))
		}))
		defer server.Close()
		provider := geolocation.NewMapsGeocodingProvider(server.URL, "", nil)

		_, err := provider.Geocode(ctx, "Accra")

		assert.Error(t, err)
	})

	t.Run("second lookup is served from cache", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.Write([]byte(`[{"lat":"5.6037","lon":"-0.1870"}]`))
		}))
		defer server.Close()
		memory, err := cache.NewMemoryAdapter(16)
		require.NoError(t, err)
		provider := geolocation.NewMapsGeocodingProvider(server.URL, "", memory)

		first, err := provider.Geocode(ctx, "Accra, Ghana")
		require.NoError(t, err)
		second, err := provider.Geocode(ctx, "Accra, Ghana")
		require.NoError(t, err)

		assert.Equal(t, first.Latitude, second.Latitude)
		assert.Equal(t, int32(1), hits.Load())
	})
}

func TestStaticGeocodingProvider(t *testing.T) {
	ctx := context.Background()
	provider := geolocation.NewStaticGeocodingProvider()

	t.Run("known city resolves case-insensitively", func(t *testing.T) {
		coords, err := provider.Geocode(ctx, "  Cape Coast ")

		require.NoError(t, err)
		assert.InDelta(t, 5.1053, coords.Latitude, 0.001)
	})

	t.Run("unknown place errors", func(t *testing.T) {
		_, err := provider.Geocode(ctx, "Atlantis")

		assert.Error(t, err)
	})
}
