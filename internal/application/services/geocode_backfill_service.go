package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/zatekoja/facilityinsight/internal/adapters/dataset"
	"github.com/zatekoja/facilityinsight/internal/domain/entities"
	"github.com/zatekoja/facilityinsight/internal/domain/providers"
	"github.com/zatekoja/facilityinsight/internal/infrastructure/observability"
	"github.com/zatekoja/facilityinsight/pkg/retry"
)

// addressColumns build the geocoding query, in order.
var addressColumns = []string{
	entities.ColAddressLine1,
	entities.ColAddressLine2,
	"address_line3",
	entities.ColCity,
	entities.ColRegion,
}

// BuildAddress joins a row's address parts into a single geocoding query.
// The country is appended when no part already mentions it. Returns "" when
// the row has no usable address parts and no country is configured.
func BuildAddress(row map[string]string, country string) string {
	var parts []string
	for _, col := range addressColumns {
		v := strings.TrimSpace(row[col])
		if v != "" && !strings.EqualFold(v, "null") {
			parts = append(parts, v)
		}
	}
	if country != "" {
		found := false
		for _, p := range parts {
			if strings.Contains(strings.ToLower(p), strings.ToLower(country)) {
				found = true
				break
			}
		}
		if !found {
			parts = append(parts, country)
		}
	}
	return strings.Join(parts, ", ")
}

// HasCoords reports whether the row already carries parseable coordinates.
func HasCoords(row map[string]string) bool {
	lat := strings.TrimSpace(row[entities.ColLatitude])
	if lat == "" {
		lat = strings.TrimSpace(row["lat"])
	}
	lon := strings.TrimSpace(row[entities.ColLongitude])
	if lon == "" {
		lon = strings.TrimSpace(row["lon"])
	}
	if lat == "" || lon == "" {
		return false
	}
	_, errLat := strconv.ParseFloat(lat, 64)
	_, errLon := strconv.ParseFloat(lon, 64)
	return errLat == nil && errLon == nil
}

// BackfillSummary reports the outcome of one backfill run.
type BackfillSummary struct {
	TotalRows    int
	Attempted    int
	SuccessCount int
	FailureCount int
	OutputPath   string
}

// GeocodeBackfillService fills latitude/longitude into dataset rows via the
// geocoding provider, then writes the geocoded variant next to the source
// file. Calls are spaced by Delay to respect upstream rate limits.
type GeocodeBackfillService struct {
	store    *dataset.Store
	geocoder providers.GeocodingProvider
	country  string
	delay    time.Duration
	suffix   string
	metrics  *observability.Metrics
	logger   zerolog.Logger
}

// NewGeocodeBackfillService wires the backfill. metrics may be nil.
func NewGeocodeBackfillService(
	store *dataset.Store,
	geocoder providers.GeocodingProvider,
	country string,
	delay time.Duration,
	geocodedSuffix string,
	metrics *observability.Metrics,
) *GeocodeBackfillService {
	return &GeocodeBackfillService{
		store:    store,
		geocoder: geocoder,
		country:  country,
		delay:    delay,
		suffix:   geocodedSuffix,
		metrics:  metrics,
		logger:   observability.GetLogger().With().Str("component", "geocode_backfill").Logger(),
	}
}

// CountMissing returns how many rows need geocoding and where the output
// would be written, without calling the geocoder.
func (s *GeocodeBackfillService) CountMissing(limit int) (missing, total int, outputPath string, err error) {
	table, err := s.store.LoadRaw()
	if err != nil {
		return 0, 0, "", err
	}
	for _, row := range table.Rows {
		if !HasCoords(row) {
			missing++
		}
	}
	if limit > 0 && missing > limit {
		missing = limit
	}
	return missing, len(table.Rows), table.GeocodedPath(s.suffix), nil
}

// Run geocodes every row missing coordinates (up to limit when limit > 0)
// and writes the geocoded CSV. Rows whose lookup fails get empty
// coordinates so the output stays loadable.
func (s *GeocodeBackfillService) Run(ctx context.Context, limit int) (*BackfillSummary, error) {
	table, err := s.store.LoadRaw()
	if err != nil {
		return nil, err
	}

	var pending []map[string]string
	for _, row := range table.Rows {
		if !HasCoords(row) {
			pending = append(pending, row)
		}
	}
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}

	summary := &BackfillSummary{
		TotalRows:  len(table.Rows),
		Attempted:  len(pending),
		OutputPath: table.GeocodedPath(s.suffix),
	}

	retryCfg := retry.DefaultConfig()
	for i, row := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		addr := BuildAddress(row, s.country)
		if addr == "" {
			addr = strings.TrimSpace(row[entities.ColCity])
			if addr == "" {
				addr = s.country
			}
		}

		var coords *providers.Coordinates
		err := retry.Do(ctx, retryCfg, func() error {
			resolved, geocodeErr := s.geocoder.Geocode(ctx, addr)
			if geocodeErr != nil {
				return geocodeErr
			}
			coords = resolved
			return nil
		})
		if err != nil || coords == nil {
			row[entities.ColLatitude] = ""
			row[entities.ColLongitude] = ""
			summary.FailureCount++
			if s.metrics != nil {
				s.metrics.GeocodeFailureCount.Add(ctx, 1)
			}
			s.logger.Warn().Err(err).Str("address", addr).Msg("geocode failed")
		} else {
			row[entities.ColLatitude] = strconv.FormatFloat(coords.Latitude, 'f', -1, 64)
			row[entities.ColLongitude] = strconv.FormatFloat(coords.Longitude, 'f', -1, 64)
			summary.SuccessCount++
		}

		if (i+1)%20 == 0 {
			s.logger.Info().Int("done", i+1).Int("pending", len(pending)).Msg("geocoding progress")
		}
		if s.delay > 0 && i < len(pending)-1 {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(s.delay):
			}
		}
	}

	if err := table.WriteTo(summary.OutputPath, entities.ColLatitude, entities.ColLongitude); err != nil {
		return summary, err
	}
	return summary, nil
}
