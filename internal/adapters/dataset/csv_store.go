package dataset

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/facilityinsight/internal/domain/entities"
	"github.com/zatekoja/facilityinsight/pkg/config"
)

type cacheKey struct {
	preferGeocoded bool
	path           string
}

type loadedSet struct {
	sourceName string
	records    []*entities.Facility
}

// Store loads the facility CSV into memory and serves it to every component.
// Loads are cached by (preferGeocoded, resolved path); the mutex single-flights
// concurrent first loads. The dataset is read-only after parse, so repeated
// loads with the same key return the same slice.
type Store struct {
	cfg config.DatasetConfig

	mu    sync.Mutex
	cache map[cacheKey]*loadedSet
}

// NewStore creates a facility store for the configured dataset locations.
func NewStore(cfg config.DatasetConfig) *Store {
	return &Store{
		cfg:   cfg,
		cache: make(map[cacheKey]*loadedSet),
	}
}

// Load returns the dataset, preferring the geocoded variant when asked.
// Fails soft: when no file is found it returns an empty name and nil records,
// leaving the "no data" condition to the caller.
func (s *Store) Load(ctx context.Context, preferGeocoded bool) (string, []*entities.Facility) {
	path := s.resolvePath(preferGeocoded)
	if path == "" {
		path = s.resolvePath(false)
	}
	if path == "" {
		return "", nil
	}

	key := cacheKey{preferGeocoded: preferGeocoded, path: path}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache[key]; ok {
		return cached.sourceName, cached.records
	}

	records, err := readCSV(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to read facility dataset")
		return "", nil
	}
	log.Info().Str("path", path).Int("records", len(records)).Bool("geocoded", preferGeocoded).
		Msg("facility dataset loaded")

	result := &loadedSet{sourceName: filepath.Base(path), records: records}
	s.cache[key] = result
	return result.sourceName, result.records
}

// resolvePath walks the configured search order: each file name under the
// data dir, then under the fallback dir. When preferGeocoded is set, a
// "<stem><suffix><ext>" sibling is preferred over the base file.
func (s *Store) resolvePath(preferGeocoded bool) string {
	base := s.findBase()
	if base == "" {
		return ""
	}
	if preferGeocoded && s.cfg.GeocodedSuffix != "" {
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)
		geocoded := stem + s.cfg.GeocodedSuffix + ext
		if fileExists(geocoded) {
			return geocoded
		}
	}
	return base
}

func (s *Store) findBase() string {
	for _, dir := range []string{s.cfg.DataDir, s.cfg.FallbackDir} {
		if dir == "" {
			continue
		}
		for _, name := range s.cfg.FileNames {
			p := filepath.Join(dir, name)
			if fileExists(p) {
				if abs, err := filepath.Abs(p); err == nil {
					return abs
				}
				return p
			}
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func readCSV(path string) ([]*entities.Facility, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []*entities.Facility
	for row := 0; ; row++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Tolerate malformed rows rather than dropping the whole dataset.
			continue
		}
		raw := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(fields) {
				raw[col] = fields[i]
			} else {
				raw[col] = ""
			}
		}
		records = append(records, newFacility(row, raw))
	}
	return records, nil
}

func newFacility(row int, raw map[string]string) *entities.Facility {
	return &entities.Facility{
		ID:  uuid.NewString(),
		Row: row,

		Name:             raw[entities.ColName],
		Description:      raw[entities.ColDescription],
		FacilityType:     raw[entities.ColFacilityType],
		OrganizationType: raw[entities.ColOrganizationType],
		Specialties:      raw[entities.ColSpecialties],
		Procedure:        raw[entities.ColProcedure],
		Equipment:        raw[entities.ColEquipment],
		Capability:       raw[entities.ColCapability],
		Capacity:         raw[entities.ColCapacity],

		AddressLine1: raw[entities.ColAddressLine1],
		AddressLine2: raw[entities.ColAddressLine2],
		City:         raw[entities.ColCity],
		Region:       raw[entities.ColRegion],
		Country:      raw[entities.ColCountry],

		PhoneNumbers: raw[entities.ColPhoneNumbers],
		Email:        raw[entities.ColEmail],
		Websites:     raw[entities.ColWebsites],

		Latitude:  raw[entities.ColLatitude],
		Longitude: raw[entities.ColLongitude],

		Raw: raw,
	}
}
