// Package docs Disaster Response API.
//
// Documentation of the Disaster Response API. Citizens submit disaster reports which are
// grouped into incidents by type and proximity.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//
//     Consumes:
//     - application/json
//     - multipart/form-data
//
//     Produces:
//     - application/json
//
//     Security:
//     - bearer
//
//    SecurityDefinitions:
//    bearer:
//      type: apiKey
//      name: Authorization
//      in: header
//
// swagger:meta
package docs

import (
	"github.com/reliefline/disaster-response-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route POST /api/users users registerUser
// Registers a reporter and returns a bearer token.
// responses:
//   201: tokenResponse
//   400: errorResponse

// A token for the newly registered reporter
// swagger:response tokenResponse
type tokenResponseWrapper struct {
	// in:body
	Body models.TokenResponse
}

// swagger:route POST /api/report reports submitReport
// Submits a report and links it to a nearby pending incident of the same type, or opens a new one.
// responses:
//   201: submitReportResponse
//   400: conflictResponse
//   404: errorResponse

// The stored report and the incident it was linked to
// swagger:response submitReportResponse
type submitReportResponseWrapper struct {
	// in:body
	Body models.SubmitReportResponse
}

// Returned when the reporter already filed the same type of report nearby
// swagger:response conflictResponse
type conflictResponseWrapper struct {
	// in:body
	Body models.ConflictResponse
}

// swagger:route GET /api/report reports listReports
// Gets a page of reports.
// responses:
//   200: reportListResponse

// A page of reports
// swagger:response reportListResponse
type reportListResponseWrapper struct {
	// in:body
	Body models.ReportListResponse
}

// swagger:route GET /api/report/{report_id} reports reportByID
// Gets a single report by ID.
// responses:
//   200: reportResponse
//   404: errorResponse

// swagger:route PUT /api/report/{report_id} reports updateReport
// Updates a report. Only the reporter may update it.
// responses:
//   200: reportResponse
//   403: errorResponse

// A single report
// swagger:response reportResponse
type reportResponseWrapper struct {
	// in:body
	Body models.Report
}

// swagger:route DELETE /api/report/{report_id} reports deleteReport
// Deletes a report and removes it from its incident.
// responses:
//   200: deleteResponse

// swagger:route DELETE /api/report reports deleteAllReports
// Deletes every report and incident when bulk deletes are enabled.
// responses:
//   200: deleteResponse
//   403: errorResponse

// swagger:route DELETE /api/incidents incidents deleteAllIncidents
// Deletes every report and incident when bulk deletes are enabled.
// responses:
//   200: deleteResponse
//   403: errorResponse

// swagger:route DELETE /api/incidents/{incident_id} incidents deleteIncident
// Deletes an incident and unlinks its reports.
// responses:
//   200: deleteResponse

// Acknowledges a delete
// swagger:response deleteResponse
type deleteResponseWrapper struct {
	// in:body
	Body models.DeleteResponse
}

// swagger:route GET /api/incidents incidents listIncidents
// Gets a page of incidents.
// responses:
//   200: incidentListResponse

// A page of incidents
// swagger:response incidentListResponse
type incidentListResponseWrapper struct {
	// in:body
	Body models.IncidentListResponse
}

// swagger:route GET /api/incidents/{incident_id} incidents incidentByID
// Gets a single incident by ID.
// responses:
//   200: incidentResponse
//   404: errorResponse

// swagger:route PATCH /api/incidents/{incident_id}/status incidents updateIncidentStatus
// Moves an incident to a new status.
// responses:
//   200: incidentResponse
//   400: errorResponse

// A single incident
// swagger:response incidentResponse
type incidentResponseWrapper struct {
	// in:body
	Body models.Incident
}

// Describes why the request failed
// swagger:response errorResponse
type errorResponseWrapper struct {
	// in:body
	Body models.ErrorMessageResponse
}
