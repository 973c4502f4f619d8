// internal/location/normalize.go
package location

import (
	"strings"

	"logiledger-api-server/internal/models"
)

// NormalizeLocation parses a free-text "City, State" string. A single token is
// used as both city and state. Blank input yields nil.
func NormalizeLocation(s string) *models.Location {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tokens = append(tokens, p)
		}
	}
	if len(tokens) == 0 {
		return nil
	}

	loc := &models.Location{
		City:        tokens[0],
		State:       tokens[0],
		FullAddress: raw,
	}
	if len(tokens) > 1 {
		loc.State = tokens[1]
	}
	return loc
}

// Resolve turns a request payload location into a structured one. Structured
// input must at least name a city; coordinates out of range are dropped.
func Resolve(in models.LocationInput) *models.Location {
	if in.Value == nil {
		return NormalizeLocation(in.Text)
	}

	loc := *in.Value
	loc.City = strings.TrimSpace(loc.City)
	loc.State = strings.TrimSpace(loc.State)
	loc.Pincode = strings.TrimSpace(loc.Pincode)
	loc.FullAddress = strings.TrimSpace(loc.FullAddress)
	if loc.City == "" {
		if loc.FullAddress != "" {
			return NormalizeLocation(loc.FullAddress)
		}
		return nil
	}
	if loc.State == "" {
		loc.State = loc.City
	}
	if loc.FullAddress == "" {
		loc.FullAddress = loc.Label()
	}
	if loc.Coordinates != nil && !ValidCoordinates(loc.Coordinates) {
		loc.Coordinates = nil
	}
	return &loc
}
