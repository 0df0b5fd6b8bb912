package disaster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "already normal", in: "flood", want: "flood"},
		{name: "uppercase", in: "FLOOD", want: "flood"},
		{name: "surrounding whitespace", in: "  Fire \t", want: "fire"},
		{name: "internal whitespace", in: "locust   \n swarm", want: "locust swarm"},
		{name: "hyphenated", in: "Locust-Swarm", want: "locust swarm"},
		{name: "underscored", in: "locust_swarm", want: "locust swarm"},
		{name: "empty", in: "   ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{"", "flood", " FIRE ", "locust - swarm", "Hail\tStorm", "volcano__", "Ünknown  Type"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), in)
		assert.Equal(t, RadiusFor(once), RadiusFor(Normalize(once)), in)
	}
}

func TestRadiusFor(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"fire", 5000},
		{"earthquake", 50000},
		{"drought", 100000},
		{"landslide", 2000},
		{"flood", 5000},
		{"locust-swarm", 20000},
		{"Locust Swarm", 20000},
		{"sinkhole", 500},
		{"volcano", 50000},
		{"hailstorm", 10000},
		{" Hailstorm ", 10000},
		{"storm", DefaultRadius},
		{"meteor", DefaultRadius},
		{"", DefaultRadius},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RadiusFor(tt.in), tt.in)
	}
}

func TestIsAllowed(t *testing.T) {
	assert.True(t, IsAllowed("flood"))
	assert.True(t, IsAllowed("  FLOOD "))
	assert.True(t, IsAllowed("locust-swarm"))
	assert.True(t, IsAllowed("other"))
	assert.False(t, IsAllowed("meteor"))
	assert.False(t, IsAllowed(""))
}

func TestAllowedTypesSorted(t *testing.T) {
	types := AllowedTypes()
	assert.IsIncreasing(t, types)
	assert.Contains(t, types, "flood")
	assert.Contains(t, types, "locust swarm")
	assert.Len(t, types, 13)
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 0, Distance(9.01, 38.76, 9.01, 38.76), 1e-6)

	// one degree of latitude is roughly 111.2km
	d := Distance(0, 0, 1, 0)
	assert.InDelta(t, 111195, d, 100)

	assert.False(t, math.IsNaN(Distance(-90, -180, 90, 180)))
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidLatitude(90))
	assert.True(t, ValidLatitude(-90))
	assert.False(t, ValidLatitude(90.0001))
	assert.True(t, ValidLongitude(180))
	assert.False(t, ValidLongitude(-180.5))
	assert.False(t, ValidLatitude(math.NaN()))
}
