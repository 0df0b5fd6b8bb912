// Package aggregator groups citizen reports into incidents. A new report either joins
// the nearest pending incident of the same type within the type's matching radius or
// opens a new incident. Every incident write goes through the enrichment pipeline.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/reliefline/disaster-response-api/databases"
	"github.com/reliefline/disaster-response-api/enrichment"
	"github.com/reliefline/disaster-response-api/events"
	"github.com/reliefline/disaster-response-api/models"
	"github.com/reliefline/disaster-response-api/storage"
)

// maxSaveAttempts bounds the optimistic retries of a single incident mutation
const maxSaveAttempts = 3

// rollbackTimeout bounds compensating writes made after a request failed
const rollbackTimeout = 10 * time.Second

// Service owns the report and incident write paths
type Service struct {
	reports   databases.ReportDatabase
	incidents databases.IncidentDatabase
	users     databases.UserDatabase
	images    storage.ImageStore
	pipeline  *enrichment.Pipeline
	publisher events.Publisher

	allowBulkDelete bool

	// matching serializes find-or-create per disaster type
	matching keyedMutex
	now      func() time.Time
}

// New wires a Service. A nil images or publisher falls back to a no-op implementation.
func New(
	reports databases.ReportDatabase,
	incidents databases.IncidentDatabase,
	users databases.UserDatabase,
	images storage.ImageStore,
	pipeline *enrichment.Pipeline,
	publisher events.Publisher,
	allowBulkDelete bool,
) *Service {
	if images == nil {
		images = storage.Unconfigured{}
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	if pipeline == nil {
		pipeline = enrichment.NewPipeline(5, nil, nil)
	}
	return &Service{
		reports:         reports,
		incidents:       incidents,
		users:           users,
		images:          images,
		pipeline:        pipeline,
		publisher:       publisher,
		allowBulkDelete: allowBulkDelete,
		now:             time.Now,
	}
}

func (s *Service) timestamp() primitive.DateTime {
	return primitive.NewDateTimeFromTime(s.now())
}

// GetReport returns a single report
func (s *Service) GetReport(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	r, err := s.reports.FindByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &NotFoundError{Resource: "report", ID: id.Hex()}
	}
	return r, err
}

// ListReports returns a page of reports and the total count
func (s *Service) ListReports(ctx context.Context, filter databases.ReportFilter, page, limit int) ([]models.Report, int64, error) {
	return s.reports.List(ctx, filter, page, limit)
}

// GetIncident returns a single incident
func (s *Service) GetIncident(ctx context.Context, id primitive.ObjectID) (*models.Incident, error) {
	inc, err := s.incidents.FindByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &NotFoundError{Resource: "incident", ID: id.Hex()}
	}
	return inc, err
}

// ListIncidents returns a page of incidents and the total count
func (s *Service) ListIncidents(ctx context.Context, filter databases.IncidentFilter, page, limit int) ([]models.Incident, int64, error) {
	return s.incidents.List(ctx, filter, page, limit)
}

// createIncident runs the pipeline on a new incident and inserts it
func (s *Service) createIncident(ctx context.Context, inc *models.Incident) error {
	now := s.timestamp()
	inc.CreatedAt, inc.UpdatedAt = now, now
	s.pipeline.BeforeSave(ctx, inc, nil)
	if err := s.incidents.InsertOne(ctx, *inc); err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	s.publish(ctx, events.IncidentCreated, inc)
	if inc.Status == models.StatusValidated {
		s.publish(ctx, events.IncidentValidated, inc)
	}
	return nil
}

// mutateIncident loads the incident, applies fn and saves it through the pipeline,
// retrying when a concurrent writer bumped the version. fn returns false when it made
// no change, in which case nothing is written.
func (s *Service) mutateIncident(ctx context.Context, id primitive.ObjectID, fn func(*models.Incident) bool) (*models.Incident, error) {
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		prev, err := s.GetIncident(ctx, id)
		if err != nil {
			return nil, err
		}
		inc := prev.Clone()
		if !fn(inc) {
			return inc, nil
		}

		s.pipeline.BeforeSave(ctx, inc, prev)
		inc.UpdatedAt = s.timestamp()
		err = s.incidents.Save(ctx, inc)
		if errors.Is(err, databases.ErrVersionConflict) {
			zap.S().Debugw("incident version conflict, retrying",
				"incident", id.Hex(),
				"attempt", attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to save incident: %w", err)
		}

		s.publish(ctx, events.IncidentUpdated, inc)
		if inc.Status == models.StatusValidated && prev.Status != models.StatusValidated {
			s.publish(ctx, events.IncidentValidated, inc)
		}
		return inc, nil
	}
	return nil, fmt.Errorf("failed to save incident %s: %w", id.Hex(), databases.ErrVersionConflict)
}

func (s *Service) publish(ctx context.Context, eventType string, inc *models.Incident) {
	if err := s.publisher.Publish(ctx, events.NewEvent(eventType, inc)); err != nil {
		zap.S().Warnw("failed to publish incident event",
			"event", eventType,
			"incident", inc.ID.Hex(),
			"error", err)
	}
}

// rollbackContext keeps the request values but not its deadline, so undoing a partial
// write still runs after the request timed out or was cancelled.
func rollbackContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
}
