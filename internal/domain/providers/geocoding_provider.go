package providers

import (
	"context"
)

// GeocodingProvider defines the interface for place-name lookup.
// Implementations must treat every upstream failure (timeout, network error,
// malformed response) as "not found" by returning an error the caller can
// downgrade; they never panic or block beyond their configured timeout.
type GeocodingProvider interface {
	// Geocode converts an address or place name to coordinates.
	Geocode(ctx context.Context, address string) (*Coordinates, error)
}

// Coordinates represents geographical coordinates
type Coordinates struct {
	Latitude  float64
	Longitude float64
}
