// internal/location/matcher.go
package location

import (
	"math"
	"strings"

	"github.com/twpayne/go-geom"

	"logiledger-api-server/internal/models"
)

const (
	// EarthRadiusKm is the mean Earth radius used by the Haversine formula.
	EarthRadiusKm = 6371.0
	// DefaultRadiusKm is applied whenever a caller passes a non-positive radius.
	DefaultRadiusKm = 50.0
)

// CalculateDistance returns the great-circle distance in kilometres between two
// points given in decimal degrees.
func CalculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Distance is CalculateDistance for XY points (X = longitude, Y = latitude).
func Distance(a, b *geom.Point) float64 {
	return CalculateDistance(a.Y(), a.X(), b.Y(), b.X())
}

// RadiusBounds returns the smallest longitude/latitude box that contains every
// point within radiusKm of center. ok is false when that area reaches a pole or
// crosses the antimeridian, where a single box cannot describe it.
func RadiusBounds(center *geom.Point, radiusKm float64) (bounds *geom.Bounds, ok bool) {
	d := radiusKm / EarthRadiusKm
	lat, lon := toRadians(center.Y()), toRadians(center.X())

	minLat, maxLat := lat-d, lat+d
	if minLat <= -math.Pi/2 || maxLat >= math.Pi/2 {
		return nil, false
	}
	s := math.Sin(d) / math.Cos(lat)
	if s >= 1 {
		return nil, false
	}
	dLon := math.Asin(s)
	minLon, maxLon := lon-dLon, lon+dLon
	if minLon < -math.Pi || maxLon > math.Pi {
		return nil, false
	}

	return geom.NewBounds(geom.XY).Set(
		toDegrees(minLon)-boundsSlackDeg, toDegrees(minLat)-boundsSlackDeg,
		toDegrees(maxLon)+boundsSlackDeg, toDegrees(maxLat)+boundsSlackDeg,
	), true
}

// boundsSlackDeg keeps points sitting exactly on the radius inside the box.
const boundsSlackDeg = 1e-9

// WithinRadius reports whether b lies within radiusKm of a. Points outside the
// bounding box of the radius are rejected without computing the distance.
func WithinRadius(a, b *geom.Point, radiusKm float64) bool {
	if bounds, ok := RadiusBounds(a, radiusKm); ok && !bounds.OverlapsPoint(geom.XY, b.Coords()) {
		return false
	}
	return Distance(a, b) <= radiusKm
}

// ValidCoordinates reports whether c lies within the latitude/longitude ranges.
func ValidCoordinates(c *models.Coordinates) bool {
	if c.Point() == nil {
		return false
	}
	lat, lon := c.Latitude(), c.Longitude()
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// LocationsMatch decides whether b is close enough to a for routing purposes.
//
// The rules are applied in order:
//  1. same city and state (case-insensitive) always match
//  2. when both sides carry coordinates, the Haversine distance must be <= maxDistanceKm
//  3. otherwise locations in the same state match
//
// Coordinates take precedence over the state fallback, so two cities in the
// same state that are further apart than the radius do not match.
func LocationsMatch(a, b *models.Location, maxDistanceKm float64) bool {
	if a == nil || b == nil {
		return false
	}
	if maxDistanceKm <= 0 {
		maxDistanceKm = DefaultRadiusKm
	}

	if equalFold(a.City, b.City) && equalFold(a.State, b.State) {
		return true
	}

	pa, pb := a.Coordinates.Point(), b.Coordinates.Point()
	if pa != nil && pb != nil {
		return WithinRadius(pa, pb, maxDistanceKm)
	}

	return equalFold(a.State, b.State)
}

// IsExactMatch reports whether both city and state are the same after trimming.
func IsExactMatch(a, b *models.Location) bool {
	if a == nil || b == nil {
		return false
	}
	return equalFold(a.City, b.City) && equalFold(a.State, b.State)
}

// DistanceBetween returns the distance between two locations and whether both
// carried coordinates.
func DistanceBetween(a, b *models.Location) (float64, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	pa, pb := a.Coordinates.Point(), b.Coordinates.Point()
	if pa == nil || pb == nil {
		return 0, false
	}
	return Distance(pa, pb), true
}

// GetMatchingConsignments keeps the consignments whose origin matches the MSME
// location. A nil location returns the input unfiltered so that users with an
// incomplete profile still see every opportunity.
func GetMatchingConsignments(msme *models.Location, consignments []models.Consignment, maxDistanceKm float64) []models.Consignment {
	if msme == nil {
		return consignments
	}

	matched := make([]models.Consignment, 0, len(consignments))
	for i := range consignments {
		if LocationsMatch(&consignments[i].Origin, msme, maxDistanceKm) {
			matched = append(matched, consignments[i])
		}
	}
	return matched
}

// MatchingUsers keeps the users whose stored location matches origin.
// Users without a location never match.
func MatchingUsers(origin *models.Location, users []models.User, maxDistanceKm float64) []models.User {
	matched := make([]models.User, 0)
	for i := range users {
		if users[i].Location == nil {
			continue
		}
		if LocationsMatch(origin, users[i].Location, maxDistanceKm) {
			matched = append(matched, users[i])
		}
	}
	return matched
}

func equalFold(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
