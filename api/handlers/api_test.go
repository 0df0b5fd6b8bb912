package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/reliefline/disaster-response-api/aggregator"
	"github.com/reliefline/disaster-response-api/api"
	"github.com/reliefline/disaster-response-api/api/handlers"
	"github.com/reliefline/disaster-response-api/config"
	"github.com/reliefline/disaster-response-api/databases/memdb"
	"github.com/reliefline/disaster-response-api/enrichment"
	"github.com/reliefline/disaster-response-api/models"
	"github.com/reliefline/disaster-response-api/storage"
)

const testSecret = "test-secret"

type stubGeocoder struct{}

func (stubGeocoder) ReverseGeocode(context.Context, float64, float64) (string, error) {
	return "Kirkos, Addis Ababa", nil
}

type memoryImages struct{}

func (memoryImages) Upload(_ context.Context, u storage.Upload) (models.Image, error) {
	if _, err := io.ReadAll(u.Reader); err != nil {
		return models.Image{}, err
	}
	return models.Image{URL: "https://cdn.example/" + u.Filename, StorageID: u.Filename}, nil
}

func (memoryImages) Destroy(context.Context, string) error { return nil }

type testApp struct {
	app   *handlers.App
	store *memdb.Store
}

func newTestApp(t *testing.T, bulk bool) *testApp {
	t.Helper()
	store := memdb.New()
	auth := api.NewAuthenticator(testSecret)
	feed := handlers.NewIncidentFeed()
	pipeline := enrichment.NewPipeline(5, stubGeocoder{}, nil)
	a := &handlers.App{
		Config:  config.Config{JWTSecret: testSecret, RequestTimeout: 5 * time.Second},
		Service: aggregator.New(store.Reports(), store.Incidents(), store.Users(), memoryImages{}, pipeline, feed, bulk),
		Users:   store.Users(),
		Auth:    auth,
		Feed:    feed,
	}
	a.Router = a.New()
	return &testApp{app: a, store: store}
}

func (ta *testApp) execute(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	ta.app.Router.ServeHTTP(rr, req)
	return rr
}

// user registers a reporter and returns its id and bearer token
func (ta *testApp) user(t *testing.T) (primitive.ObjectID, string) {
	t.Helper()
	req, _ := http.NewRequest("POST", "/api/users", strings.NewReader(`{"name":"Abebe","email":"Abebe@Example.com"}`))
	rr := ta.execute(req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp models.TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "abebe@example.com", resp.User.Email)
	return resp.User.ID, resp.Token
}

func (ta *testApp) submit(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, _ := http.NewRequest("POST", "/api/report", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return ta.execute(req)
}

func (ta *testApp) submitOK(t *testing.T, userID primitive.ObjectID, disasterType string, lat, lng float64) models.SubmitReportResponse {
	t.Helper()
	body, _ := json.Marshal(map[string]interface{}{
		"type":        disasterType,
		"description": "people trapped",
		"reportedBy":  userID.Hex(),
		"latitude":    lat,
		"longitude":   lng,
	})
	rr := ta.submit(t, string(body))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var resp models.SubmitReportResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func authed(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUnknownRoute(t *testing.T) {
	ta := newTestApp(t, false)
	req, _ := http.NewRequest("GET", "/asdf", nil)
	response := ta.execute(req)

	assert.Equal(t, http.StatusNotFound, response.Code)
}

func TestHealthCheckRoute(t *testing.T) {
	ta := newTestApp(t, false)
	req, _ := http.NewRequest("GET", "/health", nil)
	response := ta.execute(req)

	assert.Equal(t, http.StatusOK, response.Code)
	assert.Contains(t, response.Body.String(), "alive")
}

func TestMetricsRoute(t *testing.T) {
	ta := newTestApp(t, false)
	req, _ := http.NewRequest("GET", "/api/incidents", nil)
	ta.execute(req)

	req, _ = http.NewRequest("GET", "/api/metrics", nil)
	response := ta.execute(req)

	assert.Equal(t, http.StatusOK, response.Code)
	assert.Contains(t, response.Body.String(), "/api/incidents")
}

func TestRegisterUserRequiresName(t *testing.T) {
	ta := newTestApp(t, false)
	req, _ := http.NewRequest("POST", "/api/users", strings.NewReader(`{"email":"a@b.c"}`))
	response := ta.execute(req)

	assert.Equal(t, http.StatusBadRequest, response.Code)
}

func TestCloseWithoutConnections(t *testing.T) {
	ta := newTestApp(t, false)
	assert.NoError(t, ta.app.Close(context.Background()))
}

func TestInitializeInMemory(t *testing.T) {
	a := handlers.App{Config: config.Config{
		URL:              "memory://",
		JWTSecret:        testSecret,
		ReportThreshold:  5,
		CloudinaryFolder: "disaster-reports",
		GeocodeTimeout:   time.Second,
		RequestTimeout:   time.Second,
	}}
	require.NoError(t, a.Initialize(context.Background()))
	defer a.Close(context.Background())

	req, _ := http.NewRequest("GET", "/api/incidents", nil)
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

// multipartBody builds a report form with one image file
func multipartBody(t *testing.T, fields map[string]string, filename string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("fake image bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}
