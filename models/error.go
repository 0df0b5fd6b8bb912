package models

// ErrorMessageResponse returns the error message response struct
type ErrorMessageResponse struct {
	Response MessageError `json:"response"`
}

// MessageError contains the inner details for the error message response
type MessageError struct {
	Message string   `json:"message"`
	Error   string   `json:"error"`
	Fields  []string `json:"fields,omitempty"`
	Allowed []string `json:"allowed,omitempty"`
}

// ConflictResponse is returned when a duplicate report is rejected
type ConflictResponse struct {
	Response       MessageError  `json:"response"`
	ExistingReport ReportSummary `json:"existingReport"`
}

// HealthCheckResponse returns the health check response duh
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}
