package models

import "math"

// Location is a GeoJSON point with an optional resolved place name.
// Coordinates are stored as [longitude, latitude].
type Location struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
	Name        string    `json:"name,omitempty" bson:"name,omitempty"`
}

// NewPoint builds a GeoJSON point from a latitude and longitude
func NewPoint(lat, lng float64) Location {
	return Location{Type: "Point", Coordinates: []float64{lng, lat}}
}

// Latitude returns the latitude of the point, or NaN if the point is malformed
func (l Location) Latitude() float64 {
	if len(l.Coordinates) != 2 {
		return math.NaN()
	}
	return l.Coordinates[1]
}

// Longitude returns the longitude of the point, or NaN if the point is malformed
func (l Location) Longitude() float64 {
	if len(l.Coordinates) != 2 {
		return math.NaN()
	}
	return l.Coordinates[0]
}

// HasFiniteCoordinates reports whether both coordinates are finite numbers
func (l Location) HasFiniteCoordinates() bool {
	if len(l.Coordinates) != 2 {
		return false
	}
	for _, c := range l.Coordinates {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// SameCoordinates compares the coordinates of two points, ignoring the name
func (l Location) SameCoordinates(o Location) bool {
	if len(l.Coordinates) != len(o.Coordinates) {
		return false
	}
	for i := range l.Coordinates {
		if l.Coordinates[i] != o.Coordinates[i] {
			return false
		}
	}
	return true
}

func (l Location) clone() Location {
	c := l
	if l.Coordinates != nil {
		c.Coordinates = append([]float64(nil), l.Coordinates...)
	}
	return c
}
