// Package enrichment runs the save pipeline applied to every incident write: the status
// recompute driven by the report count, followed by best-effort geocoding and priority
// classification against external services.
package enrichment

import (
	"context"

	"go.uber.org/zap"

	"github.com/reliefline/disaster-response-api/models"
)

// Location names recorded when geocoding cannot resolve a place
const (
	UnknownLocation = "Unknown location"
	GeocodingFailed = "Geocoding failed"
)

// Geocoder resolves coordinates into a human-readable place name.
// An empty name with a nil error means the service had no result.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// ClassifyRequest describes the incident sent for priority classification
type ClassifyRequest struct {
	DisasterType string
	Latitude     float64
	Longitude    float64
}

// Classification is the classifier verdict for one incident
type Classification struct {
	Category string
	Wereda   string
}

// Classifier assigns a priority category to an incident
type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (Classification, error)
}

// Pipeline applies the before-save steps to an incident. Geocoder and Classifier may be
// nil, in which case the matching step is skipped.
type Pipeline struct {
	Threshold  int
	Geocoder   Geocoder
	Classifier Classifier
}

// NewPipeline returns a pipeline validating incidents at threshold linked reports
func NewPipeline(threshold int, geocoder Geocoder, classifier Classifier) *Pipeline {
	if threshold <= 0 {
		threshold = 1
	}
	return &Pipeline{Threshold: threshold, Geocoder: geocoder, Classifier: classifier}
}

// BeforeSave mutates inc ahead of a write. prev is the last persisted state, or nil for a
// new incident. The status recompute always runs to completion; the enrichment steps
// never fail the save.
func (p *Pipeline) BeforeSave(ctx context.Context, inc, prev *models.Incident) {
	if prev == nil || !inc.ReportsEqual(prev) {
		p.RecomputeStatus(inc)
	}

	if prev == nil || !inc.Location.SameCoordinates(prev.Location) {
		p.ResolveLocationName(ctx, inc)
	}

	if inc.Status == models.StatusValidated && (prev == nil || prev.Status != models.StatusValidated) {
		p.classify(ctx, inc)
	}
}

// RecomputeStatus derives pending/validated from the report count. Statuses set by
// downstream workflows (assigned, in progress, critical, resolved) are left alone.
func (p *Pipeline) RecomputeStatus(inc *models.Incident) {
	switch inc.Status {
	case "", models.StatusPending, models.StatusValidated:
	default:
		return
	}
	if len(inc.Reports) >= p.Threshold {
		inc.Status = models.StatusValidated
	} else {
		inc.Status = models.StatusPending
	}
}

// ResolveLocationName sets inc.Location.Name from the geocoder
func (p *Pipeline) ResolveLocationName(ctx context.Context, inc *models.Incident) {
	if p.Geocoder == nil || !inc.Location.HasFiniteCoordinates() {
		return
	}
	name, err := p.Geocoder.ReverseGeocode(ctx, inc.Location.Latitude(), inc.Location.Longitude())
	if err != nil {
		zap.S().Warnw("geocoding failed",
			"incident", inc.ID.Hex(),
			"error", err)
		inc.Location.Name = GeocodingFailed
		return
	}
	if name == "" {
		name = UnknownLocation
	}
	inc.Location.Name = name
}

func (p *Pipeline) classify(ctx context.Context, inc *models.Incident) {
	if p.Classifier == nil {
		return
	}
	res, err := p.Classifier.Classify(ctx, ClassifyRequest{
		DisasterType: inc.Type,
		Latitude:     inc.Location.Latitude(),
		Longitude:    inc.Location.Longitude(),
	})
	if err != nil {
		zap.S().Warnw("priority classification failed",
			"incident", inc.ID.Hex(),
			"error", err)
		return
	}
	if priority, ok := PriorityFor(res.Category); ok {
		inc.Priority = priority
	}
	if res.Wereda != "" && res.Wereda != "Unknown" {
		inc.Location.Name = res.Wereda
	}
	zap.S().Infow("incident classified",
		"incident", inc.ID.Hex(),
		"category", res.Category,
		"priority", inc.Priority)
}

// PriorityFor maps a classifier category onto an incident priority. Unknown categories
// report false and leave the priority unchanged.
func PriorityFor(category string) (string, bool) {
	switch category {
	case "Urgent":
		return models.PriorityHigh, true
	case "Medium":
		return models.PriorityMedium, true
	case "Not Urgent":
		return models.PriorityLow, true
	default:
		return "", false
	}
}
