// Package disaster holds the static disaster-type configuration: the allow-list of
// reportable types and the per-type radius used to group reports into incidents.
package disaster

import (
	"sort"
	"strings"

	"github.com/golang/geo/s2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultRadius is the matching radius in meters for types missing from the table
const DefaultRadius = 1000.0

// EarthRadiusMeters is the mean earth radius used for great-circle distances
const EarthRadiusMeters = 6371008.8

// radii maps a normalized disaster type to its matching radius in meters
var radii = map[string]float64{
	"fire":         5000,
	"earthquake":   50000,
	"drought":      100000,
	"landslide":    2000,
	"flood":        5000,
	"locust swarm": 20000,
	"sinkhole":     500,
	"volcano":      50000,
	"hailstorm":    10000,
}

// types that may be reported but match on DefaultRadius
var defaultRadiusTypes = []string{"storm", "tsunami", "epidemic", "other"}

var allowed = func() map[string]struct{} {
	m := make(map[string]struct{}, len(radii)+len(defaultRadiusTypes))
	for t := range radii {
		m[t] = struct{}{}
	}
	for _, t := range defaultRadiusTypes {
		m[t] = struct{}{}
	}
	return m
}()

// Normalize trims t, folds hyphens and underscores into spaces, collapses runs of
// whitespace and lowercases the result. Normalize(Normalize(t)) == Normalize(t).
func Normalize(t string) string {
	t = strings.Map(func(r rune) rune {
		if r == '-' || r == '_' {
			return ' '
		}
		return r
	}, t)
	t = strings.Join(strings.Fields(t), " ")
	return cases.Lower(language.Und).String(t)
}

// RadiusFor returns the matching radius in meters for a disaster type
func RadiusFor(t string) float64 {
	if r, ok := radii[Normalize(t)]; ok {
		return r
	}
	return DefaultRadius
}

// IsAllowed reports whether t names a reportable disaster type
func IsAllowed(t string) bool {
	_, ok := allowed[Normalize(t)]
	return ok
}

// AllowedTypes returns the reportable disaster types, sorted
func AllowedTypes() []string {
	out := make([]string, 0, len(allowed))
	for t := range allowed {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Distance returns the great-circle distance in meters between two coordinates
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lng1)
	b := s2.LatLngFromDegrees(lat2, lng2)
	return a.Distance(b).Radians() * EarthRadiusMeters
}

// ValidLatitude reports whether lat is within [-90, 90]
func ValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

// ValidLongitude reports whether lng is within [-180, 180]
func ValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}
