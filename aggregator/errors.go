package aggregator

import (
	"fmt"
	"strings"

	"github.com/reliefline/disaster-response-api/models"
)

// ValidationError reports malformed or missing input
type ValidationError struct {
	Message string
	Fields  []string
	Allowed []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
}

// NotFoundError reports a missing referenced document
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError reports a duplicate report for the same reporter, type and area
type ConflictError struct {
	Existing models.ReportSummary
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("a similar report was already submitted (%s)", e.Existing.ID)
}

// ForbiddenError reports a mutation the requester is not allowed to perform
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}
