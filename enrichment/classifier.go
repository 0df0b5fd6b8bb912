package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrClassifierNotConfigured is returned when no classifier URL is set
var ErrClassifierNotConfigured = errors.New("classifier url is not set")

type classifyIncident struct {
	DisasterType string  `json:"disaster_type"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

type classifyPayload struct {
	Incidents []classifyIncident `json:"incidents"`
}

type classifyResponse struct {
	Categories []struct {
		Category string `json:"category"`
		Wereda   string `json:"wereda"`
	} `json:"categories"`
}

// HTTPClassifier calls the priority classification service over HTTP
type HTTPClassifier struct {
	URL    string
	Client *http.Client
}

// NewHTTPClassifier returns a classifier whose calls are bounded by timeout
func NewHTTPClassifier(url string, timeout time.Duration) *HTTPClassifier {
	return &HTTPClassifier{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
	}
}

// Classify posts a single incident and returns the first category
func (c *HTTPClassifier) Classify(ctx context.Context, req ClassifyRequest) (Classification, error) {
	if c.URL == "" {
		return Classification{}, ErrClassifierNotConfigured
	}

	payloadBytes, err := json.Marshal(classifyPayload{Incidents: []classifyIncident{{
		DisasterType: req.DisasterType,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	}}})
	if err != nil {
		return Classification{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return Classification{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return Classification{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Classification{}, fmt.Errorf("classifier returned status: %s", resp.Status)
	}

	var body classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Classification{}, fmt.Errorf("failed to decode classifier response: %w", err)
	}
	if len(body.Categories) == 0 {
		return Classification{}, errors.New("classifier returned no categories")
	}
	return Classification{
		Category: body.Categories[0].Category,
		Wereda:   body.Categories[0].Wereda,
	}, nil
}
