// internal/models/common.go
package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Location is the structured address shared by users, consignment origins and destinations.
type Location struct {
	City        string       `bson:"city" json:"city"`
	State       string       `bson:"state" json:"state"`
	Pincode     string       `bson:"pincode,omitempty" json:"pincode,omitempty"`
	FullAddress string       `bson:"fullAddress,omitempty" json:"fullAddress,omitempty"`
	Coordinates *Coordinates `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
}

// Label renders the location as "City, State".
func (l Location) Label() string {
	if l.FullAddress != "" {
		return l.FullAddress
	}
	if l.State == "" || strings.EqualFold(l.City, l.State) {
		return l.City
	}
	return l.City + ", " + l.State
}

// LocationInput accepts either a free-text "City, State" string or a structured
// location object in request payloads.
type LocationInput struct {
	Text  string
	Value *Location
}

func (in *LocationInput) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*in = LocationInput{}
		return nil
	}
	if trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &in.Text)
	}
	var loc Location
	if err := json.Unmarshal(trimmed, &loc); err != nil {
		return err
	}
	in.Value = &loc
	return nil
}

func (in LocationInput) MarshalJSON() ([]byte, error) {
	if in.Value != nil {
		return json.Marshal(in.Value)
	}
	return json.Marshal(in.Text)
}

// IsZero reports whether nothing was supplied.
func (in LocationInput) IsZero() bool {
	return in.Value == nil && strings.TrimSpace(in.Text) == ""
}
