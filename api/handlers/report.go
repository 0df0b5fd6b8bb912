package handlers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/reliefline/disaster-response-api/aggregator"
	"github.com/reliefline/disaster-response-api/api"
	"github.com/reliefline/disaster-response-api/config"
	"github.com/reliefline/disaster-response-api/databases"
	"github.com/reliefline/disaster-response-api/models"
	"github.com/reliefline/disaster-response-api/storage"
)

// maxUploadMemory is the multipart memory limit; larger files spill to disk
const maxUploadMemory = 32 << 20

// Report handles report-related requests
type Report struct {
	Svc *aggregator.Service
}

// flexString accepts a JSON string or number, so coordinates may be sent either way
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type createReportRequest struct {
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ReportedBy  string     `json:"reportedBy"`
	Latitude    flexString `json:"latitude"`
	Longitude   flexString `json:"longitude"`
}

type updateReportRequest struct {
	Type        *string `json:"type"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// CreateReportHandler submits a report from a multipart form or a JSON body
func (re Report) CreateReportHandler(w http.ResponseWriter, r *http.Request) {
	var in aggregator.SubmitInput

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			config.ErrorStatus("failed to parse multipart form", http.StatusBadRequest, w, err)
			return
		}
		defer r.MultipartForm.RemoveAll()
		in = aggregator.SubmitInput{
			Type:        r.FormValue("type"),
			Title:       r.FormValue("title"),
			Description: r.FormValue("description"),
			ReportedBy:  r.FormValue("reportedBy"),
			Latitude:    r.FormValue("latitude"),
			Longitude:   r.FormValue("longitude"),
		}
		uploads, closeAll, err := formUploads(r.MultipartForm)
		defer closeAll()
		if err != nil {
			config.ErrorStatus("failed to read uploaded images", http.StatusBadRequest, w, err)
			return
		}
		in.Images = uploads
	} else {
		var req createReportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
			return
		}
		in = aggregator.SubmitInput{
			Type:        req.Type,
			Title:       req.Title,
			Description: req.Description,
			ReportedBy:  req.ReportedBy,
			Latitude:    string(req.Latitude),
			Longitude:   string(req.Longitude),
		}
	}

	if strings.TrimSpace(in.ReportedBy) == "" {
		if id, ok := api.UserIDFromContext(r.Context()); ok {
			in.ReportedBy = id.Hex()
		}
	}

	res, err := re.Svc.SubmitReport(r.Context(), in)
	if err != nil {
		writeServiceError(w, "failed to submit report", err)
		return
	}

	message := "Report added to existing incident"
	if res.Created {
		message = "Report submitted and new incident created"
	}
	writeJSON(w, http.StatusCreated, models.SubmitReportResponse{
		Success:  true,
		Message:  message,
		Data:     *res.Report,
		Incident: *res.Incident,
		Created:  res.Created,
	})
}

// ReportsHandler returns a page of reports, optionally filtered by type, reporter or incident
func (re Report) ReportsHandler(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	q := r.URL.Query()

	filter := databases.ReportFilter{Type: q.Get("type")}
	for key, dst := range map[string]**primitive.ObjectID{
		"reportedBy": &filter.ReportedBy,
		"incident":   &filter.Incident,
	} {
		if v := q.Get(key); v != "" {
			id, err := primitive.ObjectIDFromHex(v)
			if err != nil {
				config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
				return
			}
			*dst = &id
		}
	}

	reports, total, err := re.Svc.ListReports(r.Context(), filter, page, limit)
	if err != nil {
		config.ErrorStatus("failed to get reports", http.StatusInternalServerError, w, err)
		return
	}
	// the frontend expects an array even when there are no results
	if reports == nil {
		reports = []models.Report{}
	}
	writeJSON(w, http.StatusOK, models.ReportListResponse{Data: reports, Page: page, Limit: limit, Total: total})
}

// ReportByIDHandler returns a report by ID
func (re Report) ReportByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDVar(w, r, "report_id")
	if !ok {
		return
	}
	report, err := re.Svc.GetReport(r.Context(), id)
	if err != nil {
		writeServiceError(w, "failed to get report by ID", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// UpdateReportHandler applies the owner's changes to a report
func (re Report) UpdateReportHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDVar(w, r, "report_id")
	if !ok {
		return
	}
	requester, ok := api.UserIDFromContext(r.Context())
	if !ok {
		config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, api.ErrMissingToken)
		return
	}

	var in aggregator.UpdateInput
	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			config.ErrorStatus("failed to parse multipart form", http.StatusBadRequest, w, err)
			return
		}
		defer r.MultipartForm.RemoveAll()
		in.Type = formField(r.MultipartForm, "type")
		in.Title = formField(r.MultipartForm, "title")
		in.Description = formField(r.MultipartForm, "description")
		uploads, closeAll, err := formUploads(r.MultipartForm)
		defer closeAll()
		if err != nil {
			config.ErrorStatus("failed to read uploaded images", http.StatusBadRequest, w, err)
			return
		}
		in.Images = uploads
	} else {
		var req updateReportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
			return
		}
		in = aggregator.UpdateInput{Type: req.Type, Title: req.Title, Description: req.Description}
	}

	report, err := re.Svc.UpdateReport(r.Context(), id, requester, in)
	if err != nil {
		writeServiceError(w, "failed to update report", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// DeleteReportHandler deletes one of the requester's reports by ID
func (re Report) DeleteReportHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDVar(w, r, "report_id")
	if !ok {
		return
	}
	requester, ok := api.UserIDFromContext(r.Context())
	if !ok {
		config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, api.ErrMissingToken)
		return
	}
	if err := re.Svc.DeleteReport(r.Context(), id, requester); err != nil {
		writeServiceError(w, "failed to delete report", err)
		return
	}
	writeJSON(w, http.StatusOK, models.DeleteResponse{Success: true, Message: "Report deleted successfully"})
}

// DeleteAllReportsHandler deletes every report and incident
func (re Report) DeleteAllReportsHandler(w http.ResponseWriter, r *http.Request) {
	res, err := re.Svc.DeleteAllReports(r.Context())
	if err != nil {
		writeServiceError(w, "failed to delete reports", err)
		return
	}
	writeJSON(w, http.StatusOK, models.DeleteResponse{
		Success:   true,
		Message:   "All reports and incidents deleted",
		Reports:   res.Reports,
		Incidents: res.Incidents,
	})
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// formField returns nil when the form does not carry the key at all
func formField(form *multipart.Form, key string) *string {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

// formUploads opens every file sent under "image" or "images". The returned func closes
// whatever was opened and is safe to call on error.
func formUploads(form *multipart.Form) ([]storage.Upload, func(), error) {
	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	var uploads []storage.Upload
	for _, key := range []string{"image", "images"} {
		for _, fh := range form.File[key] {
			f, err := fh.Open()
			if err != nil {
				return nil, closeAll, err
			}
			files = append(files, f)
			uploads = append(uploads, storage.Upload{Filename: fh.Filename, Reader: f})
		}
	}
	return uploads, closeAll, nil
}

func objectIDVar(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)[name])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return primitive.NilObjectID, false
	}
	return id, true
}

// pageParams reads page and limit, falling back to the database defaults
func pageParams(r *http.Request) (int, int) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = databases.DefaultPageLimit
	}
	if limit > databases.MaxPageLimit {
		limit = databases.MaxPageLimit
	}
	return page, limit
}
