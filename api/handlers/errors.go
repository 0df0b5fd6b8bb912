package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/reliefline/disaster-response-api/aggregator"
	"github.com/reliefline/disaster-response-api/config"
	"github.com/reliefline/disaster-response-api/models"
)

// writeServiceError maps aggregator errors onto HTTP responses
func writeServiceError(w http.ResponseWriter, message string, err error) {
	var (
		validation *aggregator.ValidationError
		conflict   *aggregator.ConflictError
		notFound   *aggregator.NotFoundError
		forbidden  *aggregator.ForbiddenError
	)
	switch {
	case errors.As(err, &validation):
		zap.S().Debugw(message, "error", err)
		writeJSON(w, http.StatusBadRequest, models.ErrorMessageResponse{Response: models.MessageError{
			Message: validation.Message,
			Error:   validation.Error(),
			Fields:  validation.Fields,
			Allowed: validation.Allowed,
		}})
	case errors.As(err, &conflict):
		zap.S().Debugw(message, "error", err)
		writeJSON(w, http.StatusBadRequest, models.ConflictResponse{
			Response:       models.MessageError{Message: "Duplicate report", Error: conflict.Error()},
			ExistingReport: conflict.Existing,
		})
	case errors.As(err, &notFound):
		config.ErrorStatus(message, http.StatusNotFound, w, err)
	case errors.As(err, &forbidden):
		config.ErrorStatus(message, http.StatusForbidden, w, err)
	default:
		config.ErrorStatus(message, http.StatusInternalServerError, w, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
