package aggregator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/reliefline/disaster-response-api/databases"
	"github.com/reliefline/disaster-response-api/disaster"
	"github.com/reliefline/disaster-response-api/models"
	"github.com/reliefline/disaster-response-api/storage"
)

// SubmitInput is a raw report submission. Coordinates arrive as text from form fields.
type SubmitInput struct {
	Type        string
	Title       string
	Description string
	ReportedBy  string
	Latitude    string
	Longitude   string
	Images      []storage.Upload
}

// SubmitResult is the saved report and the incident it joined or opened
type SubmitResult struct {
	Report   *models.Report
	Incident *models.Incident
	Created  bool
}

// UpdateInput holds the report fields to change. Nil fields are left alone and an
// empty Images slice keeps the stored images.
type UpdateInput struct {
	Type        *string
	Title       *string
	Description *string
	Images      []storage.Upload
}

// DeleteAllResult counts the documents removed by a bulk delete
type DeleteAllResult struct {
	Reports   int64 `json:"reports"`
	Incidents int64 `json:"incidents"`
}

// SubmitReport validates and stores a report, then links it to a matching pending
// incident or a new one.
func (s *Service) SubmitReport(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"type", in.Type},
		{"description", in.Description},
		{"reportedBy", in.ReportedBy},
		{"latitude", in.Latitude},
		{"longitude", in.Longitude},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Message: "Missing required fields", Fields: missing}
	}

	reportedBy, err := primitive.ObjectIDFromHex(strings.TrimSpace(in.ReportedBy))
	if err != nil {
		return nil, &ValidationError{Message: "Invalid reporter id", Fields: []string{"reportedBy"}}
	}
	exists, err := s.users.Exists(ctx, reportedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to look up reporter: %w", err)
	}
	if !exists {
		return nil, &NotFoundError{Resource: "user", ID: reportedBy.Hex()}
	}

	lat, lng, err := parseCoordinates(in.Latitude, in.Longitude)
	if err != nil {
		return nil, err
	}

	disasterType := disaster.Normalize(in.Type)
	if !disaster.IsAllowed(disasterType) {
		return nil, &ValidationError{
			Message: "Invalid disaster type",
			Fields:  []string{"type"},
			Allowed: disaster.AllowedTypes(),
		}
	}

	point := models.NewPoint(lat, lng)
	radius := disaster.RadiusFor(disasterType)

	unlock := s.matching.Lock(disasterType)
	defer unlock()

	dup, err := s.reports.FindDuplicate(ctx, reportedBy, disasterType, point, radius)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate reports: %w", err)
	}
	if dup != nil {
		return nil, &ConflictError{Existing: dup.Summary()}
	}

	images, err := s.uploadAll(ctx, in.Images)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	report := &models.Report{
		ID:          primitive.NewObjectID(),
		Type:        disasterType,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Images:      images,
		Location:    point,
		ReportedBy:  reportedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	inc, created, err := s.attach(ctx, report)
	if err != nil {
		s.discardImages(ctx, images)
		return nil, err
	}

	if err := s.reports.InsertOne(ctx, *report); err != nil {
		rctx, cancel := rollbackContext(ctx)
		defer cancel()
		s.unlink(rctx, inc.ID, report.ID, created)
		storage.DestroyAll(rctx, s.images, images)
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	zap.S().Infow("report submitted",
		"report", report.ID.Hex(),
		"incident", inc.ID.Hex(),
		"type", disasterType,
		"created", created)

	return &SubmitResult{Report: report, Incident: inc, Created: created}, nil
}

// UpdateReport applies owner changes to a report, relinking it when its type moves it
// out of its current incident.
func (s *Service) UpdateReport(ctx context.Context, id, requester primitive.ObjectID, in UpdateInput) (*models.Report, error) {
	report, err := s.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.ReportedBy != requester {
		return nil, &ForbiddenError{Message: "Only the original reporter can update this report"}
	}

	newType := report.Type
	if in.Type != nil {
		newType = disaster.Normalize(*in.Type)
		if newType == "" {
			return nil, &ValidationError{Message: "Missing required fields", Fields: []string{"type"}}
		}
		if !disaster.IsAllowed(newType) {
			return nil, &ValidationError{
				Message: "Invalid disaster type",
				Fields:  []string{"type"},
				Allowed: disaster.AllowedTypes(),
			}
		}
	}
	if in.Description != nil {
		if strings.TrimSpace(*in.Description) == "" {
			return nil, &ValidationError{Message: "Missing required fields", Fields: []string{"description"}}
		}
		report.Description = strings.TrimSpace(*in.Description)
	}
	if in.Title != nil {
		report.Title = strings.TrimSpace(*in.Title)
	}

	var uploaded []models.Image
	if len(in.Images) > 0 {
		if uploaded, err = s.uploadAll(ctx, in.Images); err != nil {
			return nil, err
		}
	}
	previousImages := report.Images
	if uploaded != nil {
		report.Images = uploaded
	}

	unlock := s.matching.Lock(newType)
	defer unlock()

	typeChanged := newType != report.Type
	report.Type = newType

	// the old link is dropped only once the report is stored against its new incident
	var leaving *primitive.ObjectID
	if report.Incident != nil {
		current, err := s.GetIncident(ctx, *report.Incident)
		var nf *NotFoundError
		switch {
		case errors.As(err, &nf):
			report.Incident = nil
		case err != nil:
			s.discardImages(ctx, uploaded)
			return nil, err
		case typeChanged && current.Type != newType:
			leaving = &current.ID
			report.Incident = nil
		}
	}

	var inc *models.Incident
	var created bool
	if report.Incident == nil {
		if inc, created, err = s.attach(ctx, report); err != nil {
			s.discardImages(ctx, uploaded)
			return nil, err
		}
	}

	report.UpdatedAt = s.timestamp()
	if err := s.reports.Save(ctx, report); err != nil {
		rctx, cancel := rollbackContext(ctx)
		defer cancel()
		if inc != nil {
			s.unlink(rctx, inc.ID, report.ID, created)
		}
		storage.DestroyAll(rctx, s.images, uploaded)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{Resource: "report", ID: id.Hex()}
		}
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	rctx, cancel := rollbackContext(ctx)
	defer cancel()
	if leaving != nil {
		s.detach(rctx, *leaving, report.ID)
	}
	if uploaded != nil {
		storage.DestroyAll(rctx, s.images, previousImages)
	}
	return report, nil
}

// DeleteReport removes a report, its stored images and its incident link. Only the
// reporter may delete it.
func (s *Service) DeleteReport(ctx context.Context, id, requester primitive.ObjectID) error {
	report, err := s.GetReport(ctx, id)
	if err != nil {
		return err
	}
	if report.ReportedBy != requester {
		return &ForbiddenError{Message: "Only the original reporter can delete this report"}
	}
	if err := s.reports.DeleteOne(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &NotFoundError{Resource: "report", ID: id.Hex()}
		}
		return fmt.Errorf("failed to delete report: %w", err)
	}
	storage.DestroyAll(ctx, s.images, report.Images)
	if report.Incident != nil {
		s.detach(ctx, *report.Incident, id)
	}
	return nil
}

// DeleteAllReports removes every report and every incident
func (s *Service) DeleteAllReports(ctx context.Context) (*DeleteAllResult, error) {
	if !s.allowBulkDelete {
		return nil, &ForbiddenError{Message: "Bulk deletion is disabled"}
	}
	return s.purge(ctx)
}

// attach links the report to the nearest pending incident of its type, or opens a new
// incident for it. The caller holds the matching lock for the report type.
func (s *Service) attach(ctx context.Context, report *models.Report) (*models.Incident, bool, error) {
	radius := disaster.RadiusFor(report.Type)
	match, err := s.incidents.FindNearestPending(ctx, report.Type, report.Location, radius)
	if err != nil {
		return nil, false, fmt.Errorf("failed to search incidents: %w", err)
	}

	if match != nil {
		inc, err := s.mutateIncident(ctx, match.ID, func(inc *models.Incident) bool {
			return inc.AddReport(report.ID)
		})
		var nf *NotFoundError
		switch {
		case err == nil:
			id := inc.ID
			report.Incident = &id
			return inc, false, nil
		case !errors.As(err, &nf):
			return nil, false, err
		}
		// the match was deleted underneath us, open a new incident instead
	}

	title := report.Title
	if title == "" {
		title = "Reported " + report.Type
	}
	location := models.NewPoint(report.Location.Latitude(), report.Location.Longitude())
	inc := &models.Incident{
		ID:           primitive.NewObjectID(),
		Type:         report.Type,
		Title:        title,
		Description:  report.Description,
		DateOccurred: s.timestamp(),
		Location:     location,
		Status:       models.StatusPending,
		Priority:     models.PriorityMedium,
		Reports:      []primitive.ObjectID{report.ID},
	}
	if err := s.createIncident(ctx, inc); err != nil {
		return nil, false, err
	}
	id := inc.ID
	report.Incident = &id
	return inc, true, nil
}

// detach removes the report from the incident. Failures are logged since the report
// side of the link is already gone.
func (s *Service) detach(ctx context.Context, incidentID, reportID primitive.ObjectID) {
	_, err := s.mutateIncident(ctx, incidentID, func(inc *models.Incident) bool {
		return inc.RemoveReport(reportID)
	})
	var nf *NotFoundError
	if err != nil && !errors.As(err, &nf) {
		zap.S().Errorw("failed to detach report from incident",
			"incident", incidentID.Hex(),
			"report", reportID.Hex(),
			"error", err)
	}
}

// unlink undoes a link made for a report that was never stored. An incident opened for
// that report alone is removed.
func (s *Service) unlink(ctx context.Context, incidentID, reportID primitive.ObjectID, created bool) {
	if !created {
		s.detach(ctx, incidentID, reportID)
		return
	}
	if err := s.incidents.DeleteOne(ctx, incidentID); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		zap.S().Errorw("failed to remove orphaned incident",
			"incident", incidentID.Hex(),
			"error", err)
	}
}

// discardImages destroys uploads that will not be referenced by any stored report
func (s *Service) discardImages(ctx context.Context, images []models.Image) {
	if len(images) == 0 {
		return
	}
	rctx, cancel := rollbackContext(ctx)
	defer cancel()
	storage.DestroyAll(rctx, s.images, images)
}

// uploadAll stores every upload, removing the ones already stored if any fails
func (s *Service) uploadAll(ctx context.Context, uploads []storage.Upload) ([]models.Image, error) {
	images := make([]models.Image, 0, len(uploads))
	for _, u := range uploads {
		img, err := s.images.Upload(ctx, u)
		if err != nil {
			s.discardImages(ctx, images)
			return nil, fmt.Errorf("failed to store image: %w", err)
		}
		images = append(images, img)
	}
	return images, nil
}

// purge deletes every report with its images, then every incident
func (s *Service) purge(ctx context.Context) (*DeleteAllResult, error) {
	var images []models.Image
	for page := 1; ; page++ {
		reports, _, err := s.reports.List(ctx, databases.ReportFilter{}, page, databases.MaxPageLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to list reports: %w", err)
		}
		for _, r := range reports {
			images = append(images, r.Images...)
		}
		if len(reports) < databases.MaxPageLimit {
			break
		}
	}

	reports, err := s.reports.DeleteAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to delete reports: %w", err)
	}
	storage.DestroyAll(ctx, s.images, images)

	incidents, err := s.incidents.DeleteAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to delete incidents: %w", err)
	}

	zap.S().Warnw("deleted all reports and incidents",
		"reports", reports,
		"incidents", incidents)
	return &DeleteAllResult{Reports: reports, Incidents: incidents}, nil
}

func parseCoordinates(latText, lngText string) (float64, float64, error) {
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(lngText), 64)

	var invalid []string
	if latErr != nil || !disaster.ValidLatitude(lat) {
		invalid = append(invalid, "latitude")
	}
	if lngErr != nil || !disaster.ValidLongitude(lng) {
		invalid = append(invalid, "longitude")
	}
	if len(invalid) > 0 {
		return 0, 0, &ValidationError{Message: "Invalid coordinates", Fields: invalid}
	}
	return lat, lng, nil
}
