package aggregator

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/reliefline/disaster-response-api/enrichment"
	"github.com/reliefline/disaster-response-api/events"
	"github.com/reliefline/disaster-response-api/models"
)

// UpdateIncidentStatus moves an incident to a new status. Reaching validated this way
// triggers classification like a threshold crossing does.
func (s *Service) UpdateIncidentStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Incident, error) {
	if !models.ValidIncidentStatus(status) {
		return nil, &ValidationError{
			Message: "Invalid incident status",
			Fields:  []string{"status"},
			Allowed: models.IncidentStatuses(),
		}
	}
	return s.mutateIncident(ctx, id, func(inc *models.Incident) bool {
		if inc.Status == status {
			return false
		}
		inc.Status = status
		return true
	})
}

// DeleteIncident removes an incident and clears the link on its reports
func (s *Service) DeleteIncident(ctx context.Context, id primitive.ObjectID) error {
	inc, err := s.GetIncident(ctx, id)
	if err != nil {
		return err
	}
	if err := s.incidents.DeleteOne(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &NotFoundError{Resource: "incident", ID: id.Hex()}
		}
		return fmt.Errorf("failed to delete incident: %w", err)
	}
	n, err := s.reports.UnlinkIncident(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to unlink reports: %w", err)
	}
	zap.S().Infow("incident deleted",
		"incident", id.Hex(),
		"unlinkedReports", n)
	s.publish(ctx, events.IncidentDeleted, inc)
	return nil
}

// DeleteAllIncidents removes every incident together with every report
func (s *Service) DeleteAllIncidents(ctx context.Context) (*DeleteAllResult, error) {
	if !s.allowBulkDelete {
		return nil, &ForbiddenError{Message: "Bulk deletion is disabled"}
	}
	return s.purge(ctx)
}

// RetryGeocoding re-resolves up to limit incidents whose last geocoding attempt failed
// and returns how many now carry a resolved name.
func (s *Service) RetryGeocoding(ctx context.Context, limit int) (int, error) {
	failed, err := s.incidents.FindByLocationName(ctx, enrichment.GeocodingFailed, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to find incidents to geocode: %w", err)
	}

	resolved := 0
	for _, f := range failed {
		if err := ctx.Err(); err != nil {
			return resolved, err
		}
		inc, err := s.mutateIncident(ctx, f.ID, func(inc *models.Incident) bool {
			before := inc.Location.Name
			s.pipeline.ResolveLocationName(ctx, inc)
			return inc.Location.Name != before
		})
		if err != nil {
			zap.S().Warnw("geocoding retry failed",
				"incident", f.ID.Hex(),
				"error", err)
			continue
		}
		if inc.Location.Name != enrichment.GeocodingFailed {
			resolved++
		}
	}
	return resolved, nil
}
