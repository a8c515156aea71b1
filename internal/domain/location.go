package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Location is an immutable geographic point with decimal coordinates.
type Location struct {
	lat  decimal.Decimal
	long decimal.Decimal
}

// NewLocation creates a Location from latitude and longitude.
func NewLocation(lat, long decimal.Decimal) Location {
	return Location{lat: lat, long: long}
}

// Lat returns the latitude.
func (l Location) Lat() decimal.Decimal { return l.lat }

// Long returns the longitude.
func (l Location) Long() decimal.Decimal { return l.long }

// Equal reports whether both coordinates are numerically equal, so 40.1 equals 40.100.
func (l Location) Equal(other Location) bool {
	return l.lat.Equal(other.lat) && l.long.Equal(other.long)
}

// Key returns a canonical "lat,long" string usable as a map key.
func (l Location) Key() string {
	return l.lat.String() + "," + l.long.String()
}

func (l Location) String() string {
	return l.Key()
}

type locationJSON struct {
	Lat json.Number `json:"lat"`
	Lon json.Number `json:"lon"`
}

// MarshalJSON encodes the coordinates as JSON numbers.
func (l Location) MarshalJSON() ([]byte, error) {
	return json.Marshal(locationJSON{Lat: number(l.lat), Lon: number(l.long)})
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
