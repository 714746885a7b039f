package services

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/facilityinsight/internal/adapters/providers/geolocation"
	"github.com/zatekoja/facilityinsight/internal/domain/entities"
	"github.com/zatekoja/facilityinsight/internal/domain/providers"
)

const earthRadiusKm = 6371.0

// Coordinate phrasings found inside free-text capability/description fields,
// tried in priority order; the first successful parse wins.
var rowCoordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)latitude\s+([-\d.]+)\s*,\s*longitude\s+([-\d.]+)`),
	regexp.MustCompile(`(?i)latitude\s+([-\d.]+).*?longitude\s+([-\d.]+)`),
	regexp.MustCompile(`(?i)([-\d.]+)\s*latitude\s+and\s+([-\d.]+)\s*longitude`),
	regexp.MustCompile(`(?i)([-\d.]+)\s+latitude\s+and\s+([-\d.]+)\s+longitude`),
}

// HaversineKm is the great-circle distance in km between two points.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLon := degreesToRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(lat1))*math.Cos(degreesToRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// GeoService resolves place names and filters records by distance. Place
// lookups hit the external geocoder first and fall back to the static city
// table; results (including misses) are cached per place name for the
// process lifetime.
type GeoService struct {
	geocoder providers.GeocodingProvider
	country  string
	places   *lru.Cache[string, *providers.Coordinates]
}

// NewGeoService creates a geospatial filter. geocoder may be nil, in which
// case only the static city table resolves places.
func NewGeoService(geocoder providers.GeocodingProvider, country string) *GeoService {
	places, _ := lru.New[string, *providers.Coordinates](512)
	return &GeoService{
		geocoder: geocoder,
		country:  country,
		places:   places,
	}
}

// ResolvePlace returns coordinates for a place name, or nil when the name
// cannot be resolved. External failures are downgraded to a fallback lookup,
// never propagated.
func (s *GeoService) ResolvePlace(ctx context.Context, place string) *providers.Coordinates {
	key := strings.ToLower(strings.TrimSpace(place))
	if key == "" {
		return nil
	}
	if cached, ok := s.places.Get(key); ok {
		return cached
	}

	var coords *providers.Coordinates
	if s.geocoder != nil {
		query := strings.TrimSpace(place)
		if s.country != "" && !strings.Contains(strings.ToLower(query), strings.ToLower(s.country)) {
			query = query + ", " + s.country
		}
		resolved, err := s.geocoder.Geocode(ctx, query)
		if err != nil {
			log.Debug().Err(err).Str("place", place).Msg("geocode lookup failed, using static table")
		} else {
			coords = resolved
		}
	}
	if coords == nil {
		if static, ok := geolocation.StaticCities[key]; ok {
			c := static
			coords = &c
		}
	}
	s.places.Add(key, coords)
	return coords
}

// RowCoords returns a record's coordinates: explicit latitude/longitude
// columns first, else parsed out of the capability/description text.
func (s *GeoService) RowCoords(f *entities.Facility) *providers.Coordinates {
	if lat, lon, ok := f.Coords(); ok {
		return &providers.Coordinates{Latitude: lat, Longitude: lon}
	}
	text := f.Field(entities.ColCapability) + " " + f.Field(entities.ColDescription)
	for _, pattern := range rowCoordPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		lat, errLat := strconv.ParseFloat(m[1], 64)
		lon, errLon := strconv.ParseFloat(m[2], 64)
		if errLat != nil || errLon != nil {
			continue
		}
		return &providers.Coordinates{Latitude: lat, Longitude: lon}
	}
	return nil
}

// FilterWithinKm keeps records with resolvable coordinates within radiusKm
// of the reference point. Records without coordinates are dropped silently.
func (s *GeoService) FilterWithinKm(records []*entities.Facility, refLat, refLon, radiusKm float64) []*entities.Facility {
	var out []*entities.Facility
	for _, f := range records {
		coords := s.RowCoords(f)
		if coords == nil {
			continue
		}
		if HaversineKm(refLat, refLon, coords.Latitude, coords.Longitude) <= radiusKm {
			out = append(out, f)
		}
	}
	return out
}
