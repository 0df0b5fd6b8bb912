package models

// SubmitReportResponse is returned by a successful report submission
type SubmitReportResponse struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Data     Report   `json:"data"`
	Incident Incident `json:"incident"`
	Created  bool     `json:"created"`
}

// ReportListResponse is a page of reports
type ReportListResponse struct {
	Data  []Report `json:"data"`
	Page  int      `json:"page"`
	Limit int      `json:"limit"`
	Total int64    `json:"total"`
}

// IncidentListResponse is a page of incidents
type IncidentListResponse struct {
	Data  []Incident `json:"data"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
	Total int64      `json:"total"`
}

// DeleteResponse acknowledges a delete
type DeleteResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Reports   int64  `json:"reports,omitempty"`
	Incidents int64  `json:"incidents,omitempty"`
}
