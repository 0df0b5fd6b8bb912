// Package events announces incident lifecycle changes to downstream consumers.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/reliefline/disaster-response-api/models"
)

// Event types, also used as routing keys
const (
	IncidentCreated   = "incident.created"
	IncidentUpdated   = "incident.updated"
	IncidentValidated = "incident.validated"
	IncidentDeleted   = "incident.deleted"
)

// Event describes one incident change
type Event struct {
	Type         string    `json:"type"`
	IncidentID   string    `json:"incidentId"`
	DisasterType string    `json:"disasterType"`
	Status       string    `json:"status"`
	Priority     string    `json:"priority,omitempty"`
	LocationName string    `json:"locationName,omitempty"`
	ReportCount  int       `json:"reportCount"`
	At           time.Time `json:"at"`
}

// NewEvent builds an event of the given type from the incident's current state
func NewEvent(eventType string, inc *models.Incident) Event {
	return Event{
		Type:         eventType,
		IncidentID:   inc.ID.Hex(),
		DisasterType: inc.Type,
		Status:       inc.Status,
		Priority:     inc.Priority,
		LocationName: inc.Location.Name,
		ReportCount:  len(inc.Reports),
		At:           time.Now().UTC(),
	}
}

// Publisher delivers events
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event
type Nop struct{}

// Publish does nothing
func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to several publishers
type Multi []Publisher

// Publish delivers to every publisher and joins their errors
func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
