package enrichment

import (
	"context"
	"errors"
	"strconv"
	"time"

	"golang.org/x/time/rate"
	"googlemaps.github.io/maps"
)

// ErrMissingAPIKey is returned by every geocoding call when no key is configured
var ErrMissingAPIKey = errors.New("geocoding api key is not set")

// GoogleGeocoder resolves coordinates with the Google Maps geocoding API
type GoogleGeocoder struct {
	client  *maps.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// NewGoogleGeocoder builds a geocoder bounded by timeout per call and perSecond calls.
// An empty apiKey yields a geocoder that fails every call with ErrMissingAPIKey.
func NewGoogleGeocoder(apiKey string, timeout time.Duration, perSecond float64, opts ...maps.ClientOption) (*GoogleGeocoder, error) {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	g := &GoogleGeocoder{
		limiter: rate.NewLimiter(limit, 1),
		timeout: timeout,
	}
	if apiKey == "" {
		return g, nil
	}
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, err
	}
	g.client = client
	return g, nil
}

// ReverseGeocode queries "lat,lng" and returns the first formatted address
func (g *GoogleGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	if g.client == nil {
		return "", ErrMissingAPIKey
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
		Address: strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64),
	})
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", nil
	}
	return results[0].FormattedAddress, nil
}
