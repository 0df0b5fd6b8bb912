package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Incident statuses
const (
	StatusPending    = "pending"
	StatusValidated  = "validated"
	StatusAssigned   = "assigned"
	StatusInProgress = "in progress"
	StatusCritical   = "critical"
	StatusResolved   = "resolved"
)

// Incident priorities
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

var incidentStatuses = []string{
	StatusPending, StatusValidated, StatusAssigned, StatusInProgress, StatusCritical, StatusResolved,
}

// Incident is an aggregated disaster event built from one or more reports
type Incident struct {
	ID           primitive.ObjectID   `json:"_id" bson:"_id"`
	Type         string               `json:"type" bson:"type"`
	Title        string               `json:"title" bson:"title"`
	Description  string               `json:"description" bson:"description"`
	DateOccurred primitive.DateTime   `json:"dateOccurred" bson:"dateOccurred"`
	Location     Location             `json:"location" bson:"location"`
	Status       string               `json:"status" bson:"status"`
	Priority     string               `json:"priority" bson:"priority"`
	Reports      []primitive.ObjectID `json:"reports" bson:"reports"`
	CreatedAt    primitive.DateTime   `json:"createdAt" bson:"createdAt"`
	UpdatedAt    primitive.DateTime   `json:"updatedAt" bson:"updatedAt"`
	Version      int32                `json:"__v" bson:"__v"`
}

// IncidentStatuses returns every status an incident may hold
func IncidentStatuses() []string {
	return append([]string(nil), incidentStatuses...)
}

// ValidIncidentStatus reports whether s is a known incident status
func ValidIncidentStatus(s string) bool {
	for _, status := range incidentStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// HasReport reports whether the report id is linked to the incident
func (i *Incident) HasReport(id primitive.ObjectID) bool {
	for _, r := range i.Reports {
		if r == id {
			return true
		}
	}
	return false
}

// AddReport links a report, returning false if it was already linked
func (i *Incident) AddReport(id primitive.ObjectID) bool {
	if i.HasReport(id) {
		return false
	}
	i.Reports = append(i.Reports, id)
	return true
}

// RemoveReport unlinks a report, returning false if it was not linked
func (i *Incident) RemoveReport(id primitive.ObjectID) bool {
	for idx, r := range i.Reports {
		if r == id {
			i.Reports = append(i.Reports[:idx:idx], i.Reports[idx+1:]...)
			return true
		}
	}
	return false
}

// ReportsEqual compares the linked report lists of two incidents in order
func (i *Incident) ReportsEqual(o *Incident) bool {
	if len(i.Reports) != len(o.Reports) {
		return false
	}
	for idx := range i.Reports {
		if i.Reports[idx] != o.Reports[idx] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the incident
func (i *Incident) Clone() *Incident {
	c := *i
	c.Location = i.Location.clone()
	if i.Reports != nil {
		c.Reports = append([]primitive.ObjectID(nil), i.Reports...)
	}
	return &c
}
