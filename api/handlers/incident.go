package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/reliefline/disaster-response-api/aggregator"
	"github.com/reliefline/disaster-response-api/config"
	"github.com/reliefline/disaster-response-api/databases"
	"github.com/reliefline/disaster-response-api/models"
)

// Incident handles incident-related requests
type Incident struct {
	Svc *aggregator.Service
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// IncidentsHandler returns a page of incidents, optionally filtered by status or type
func (i Incident) IncidentsHandler(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	filter := databases.IncidentFilter{
		Status: r.URL.Query().Get("status"),
		Type:   r.URL.Query().Get("type"),
	}

	incidents, total, err := i.Svc.ListIncidents(r.Context(), filter, page, limit)
	if err != nil {
		config.ErrorStatus("failed to get incidents", http.StatusInternalServerError, w, err)
		return
	}
	if incidents == nil {
		incidents = []models.Incident{}
	}
	writeJSON(w, http.StatusOK, models.IncidentListResponse{Data: incidents, Page: page, Limit: limit, Total: total})
}

// IncidentByIDHandler returns an incident by ID
func (i Incident) IncidentByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDVar(w, r, "incident_id")
	if !ok {
		return
	}
	inc, err := i.Svc.GetIncident(r.Context(), id)
	if err != nil {
		writeServiceError(w, "failed to get incident by ID", err)
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

// UpdateIncidentStatusHandler moves an incident to the requested status
func (i Incident) UpdateIncidentStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDVar(w, r, "incident_id")
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	inc, err := i.Svc.UpdateIncidentStatus(r.Context(), id, req.Status)
	if err != nil {
		writeServiceError(w, "failed to update incident status", err)
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

// DeleteIncidentHandler deletes an incident and unlinks its reports
func (i Incident) DeleteIncidentHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDVar(w, r, "incident_id")
	if !ok {
		return
	}
	if err := i.Svc.DeleteIncident(r.Context(), id); err != nil {
		writeServiceError(w, "failed to delete incident", err)
		return
	}
	writeJSON(w, http.StatusOK, models.DeleteResponse{Success: true, Message: "Incident deleted successfully"})
}

// DeleteAllIncidentsHandler deletes every incident along with every report
func (i Incident) DeleteAllIncidentsHandler(w http.ResponseWriter, r *http.Request) {
	res, err := i.Svc.DeleteAllIncidents(r.Context())
	if err != nil {
		writeServiceError(w, "failed to delete incidents", err)
		return
	}
	writeJSON(w, http.StatusOK, models.DeleteResponse{
		Success:   true,
		Message:   "All incidents and reports deleted",
		Reports:   res.Reports,
		Incidents: res.Incidents,
	})
}
