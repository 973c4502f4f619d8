// internal/models/coordinates.go
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.mongodb.org/mongo-driver/bson"
)

// Coordinates is a WGS84 position held as an XY point (X = longitude,
// Y = latitude). JSON uses {"latitude","longitude"} and also accepts a GeoJSON
// Point. BSON stores a GeoJSON Point so the field can carry a 2dsphere index.
type Coordinates struct {
	point *geom.Point
}

func NewCoordinates(latitude, longitude float64) *Coordinates {
	return &Coordinates{point: geom.NewPointFlat(geom.XY, []float64{longitude, latitude})}
}

// Point returns the underlying geometry, or nil when c carries none.
func (c *Coordinates) Point() *geom.Point {
	if c == nil {
		return nil
	}
	return c.point
}

func (c *Coordinates) Latitude() float64 {
	if c.Point() == nil {
		return 0
	}
	return c.point.Y()
}

func (c *Coordinates) Longitude() float64 {
	if c.Point() == nil {
		return 0
	}
	return c.point.X()
}

type latLon struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (c Coordinates) MarshalJSON() ([]byte, error) {
	if c.point == nil {
		return []byte("null"), nil
	}
	lat, lon := c.point.Y(), c.point.X()
	return json.Marshal(latLon{Latitude: &lat, Longitude: &lon})
}

func (c *Coordinates) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		c.point = nil
		return nil
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("coordinates: %w", err)
	}
	if head.Type != "" {
		var g geom.T
		if err := geojson.Unmarshal(data, &g); err != nil {
			return fmt.Errorf("coordinates: %w", err)
		}
		p, ok := g.(*geom.Point)
		if !ok || p.Empty() {
			return fmt.Errorf("coordinates: expected a GeoJSON Point, got %s", head.Type)
		}
		c.point = geom.NewPointFlat(geom.XY, []float64{p.X(), p.Y()})
		return nil
	}

	var ll latLon
	if err := json.Unmarshal(data, &ll); err != nil {
		return fmt.Errorf("coordinates: %w", err)
	}
	if ll.Latitude == nil || ll.Longitude == nil {
		return errors.New("coordinates: latitude and longitude are required")
	}
	c.point = geom.NewPointFlat(geom.XY, []float64{*ll.Longitude, *ll.Latitude})
	return nil
}

type geoJSONPoint struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

func (c Coordinates) MarshalBSON() ([]byte, error) {
	if c.point == nil {
		return nil, errors.New("coordinates: empty point")
	}
	return bson.Marshal(geoJSONPoint{Type: "Point", Coordinates: []float64{c.point.X(), c.point.Y()}})
}

func (c *Coordinates) UnmarshalBSON(data []byte) error {
	var doc geoJSONPoint
	if err := bson.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("coordinates: %w", err)
	}
	if doc.Type != "Point" || len(doc.Coordinates) < 2 {
		return fmt.Errorf("coordinates: unsupported geometry %q", doc.Type)
	}
	c.point = geom.NewPointFlat(geom.XY, doc.Coordinates[:2])
	return nil
}
