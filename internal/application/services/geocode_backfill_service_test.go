package services_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/facilityinsight/internal/adapters/dataset"
	"github.com/zatekoja/facilityinsight/internal/application/services"
	"github.com/zatekoja/facilityinsight/internal/domain/providers"
	"github.com/zatekoja/facilityinsight/pkg/config"
)

func TestBuildAddress(t *testing.T) {
	t.Run("joins parts and appends country", func(t *testing.T) {
		addr := services.BuildAddress(map[string]string{
			"address_line1":         "Castle Road",
			"address_city":          "Accra",
			"address_stateOrRegion": "Greater Accra",
		}, "Ghana")

		assert.Equal(t, "Castle Road, Accra, Greater Accra, Ghana", addr)
	})

	t.Run("country already present is not duplicated", func(t *testing.T) {
		addr := services.BuildAddress(map[string]string{
			"address_line1": "Accra Mall, Ghana",
		}, "Ghana")

		assert.Equal(t, "Accra Mall, Ghana", addr)
	})

	t.Run("null parts are skipped", func(t *testing.T) {
		addr := services.BuildAddress(map[string]string{
			"address_line1": "null",
			"address_city":  "Kumasi",
		}, "Ghana")

		assert.Equal(t, "Kumasi, Ghana", addr)
	})

	t.Run("empty row yields the country alone", func(t *testing.T) {
		assert.Equal(t, "Ghana", services.BuildAddress(map[string]string{}, "Ghana"))
	})

	t.Run("no parts and no country yields empty", func(t *testing.T) {
		assert.Empty(t, services.BuildAddress(map[string]string{}, ""))
	})
}

func TestHasCoords(t *testing.T) {
	assert.True(t, services.HasCoords(map[string]string{"latitude": "5.6", "longitude": "-0.18"}))
	assert.True(t, services.HasCoords(map[string]string{"lat": "5.6", "lon": "-0.18"}))
	assert.False(t, services.HasCoords(map[string]string{"latitude": "5.6"}))
	assert.False(t, services.HasCoords(map[string]string{"latitude": "north", "longitude": "west"}))
	assert.False(t, services.HasCoords(map[string]string{}))
}

// scriptedGeocoder resolves fixed coordinates, failing addresses that
// mention the failure marker.
type scriptedGeocoder struct {
	calls []string
}

func (g *scriptedGeocoder) Geocode(_ context.Context, address string) (*providers.Coordinates, error) {
	g.calls = append(g.calls, address)
	if strings.Contains(address, "Fail Town") {
		return nil, errors.New("no results for address")
	}
	return &providers.Coordinates{Latitude: 5.61, Longitude: -0.19}, nil
}

const backfillCSV = `name,address_line1,address_city,address_stateOrRegion,latitude,longitude
Ridge Hospital,Castle Road,Accra,Greater Accra,5.6037,-0.1870
Corner Pharmacy,Market Street,Kumasi,Ashanti,,
Ghost Clinic,Fail Town,,,,
`

func newBackfillStore(t *testing.T) (*dataset.Store, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ghana.csv"), []byte(backfillCSV), 0o644))
	return dataset.NewStore(config.DatasetConfig{
		DataDir:        dir,
		FileNames:      []string{"ghana.csv"},
		GeocodedSuffix: "_geocoded",
	}), dir
}

func TestGeocodeBackfillService_CountMissing(t *testing.T) {
	store, dir := newBackfillStore(t)
	svc := services.NewGeocodeBackfillService(store, &scriptedGeocoder{}, "Ghana", 0, "_geocoded", nil)

	missing, total, outputPath, err := svc.CountMissing(0)

	require.NoError(t, err)
	assert.Equal(t, 2, missing)
	assert.Equal(t, 3, total)
	assert.Equal(t, filepath.Join(dir, "ghana_geocoded.csv"), outputPath)

	missing, _, _, err = svc.CountMissing(1)
	require.NoError(t, err)
	assert.Equal(t, 1, missing)
}

func TestGeocodeBackfillService_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("geocodes missing rows and writes the sibling file", func(t *testing.T) {
		store, dir := newBackfillStore(t)
		geocoder := &scriptedGeocoder{}
		svc := services.NewGeocodeBackfillService(store, geocoder, "Ghana", 0, "_geocoded", nil)

		summary, err := svc.Run(ctx, 0)

		require.NoError(t, err)
		assert.Equal(t, 3, summary.TotalRows)
		assert.Equal(t, 2, summary.Attempted)
		assert.Equal(t, 1, summary.SuccessCount)
		assert.Equal(t, 1, summary.FailureCount)
		assert.Equal(t, filepath.Join(dir, "ghana_geocoded.csv"), summary.OutputPath)
		require.Len(t, geocoder.calls, 1+3) // one success, one failure retried three times
		assert.Equal(t, "Market Street, Kumasi, Ashanti, Ghana", geocoder.calls[0])

		_, records := store.Load(ctx, true)
		require.Len(t, records, 3)
		assert.Equal(t, "5.6037", records[0].Latitude)
		assert.Equal(t, "5.61", records[1].Latitude)
		assert.Equal(t, "-0.19", records[1].Longitude)
		assert.Empty(t, records[2].Latitude)
	})

	t.Run("limit caps how many rows are attempted", func(t *testing.T) {
		store, _ := newBackfillStore(t)
		geocoder := &scriptedGeocoder{}
		svc := services.NewGeocodeBackfillService(store, geocoder, "Ghana", 0, "_geocoded", nil)

		summary, err := svc.Run(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Attempted)
		assert.Equal(t, 1, summary.SuccessCount)
		assert.Zero(t, summary.FailureCount)
	})

	t.Run("cancelled context stops the run", func(t *testing.T) {
		store, _ := newBackfillStore(t)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		svc := services.NewGeocodeBackfillService(store, &scriptedGeocoder{}, "Ghana", 0, "_geocoded", nil)

		_, err := svc.Run(cancelled, 0)

		assert.Error(t, err)
	})
}
