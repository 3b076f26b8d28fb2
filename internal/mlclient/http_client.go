// Package mlclient talks to an external model server that hosts the
// classifier and regressor behind a small JSON API.
package mlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fairyhunter13/avocado-price-predictor/internal/model"
)

const (
	classificationPath = "/predict/classification"
	regressionPath     = "/predict/regression"
	healthPath         = "/health"
)

// HTTPClient calls a model server over HTTP.
type HTTPClient struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClient returns a client for endpoint. A non-positive timeout means 10s.
func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// PredictRequest is a single-row frame in split orientation.
type PredictRequest struct {
	Columns []string `json:"columns"`
	Data    [][]any  `json:"data"`
}

// PredictResponse holds one prediction per request row.
type PredictResponse struct {
	Predictions []any `json:"predictions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Health checks the model server is up.
func (c *HTTPClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+healthPath, nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("model service health check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func (c *HTTPClient) predict(ctx context.Context, path string, rec model.Record) (any, error) {
	body, err := json.Marshal(PredictRequest{Columns: rec.Names, Data: [][]any{rec.Values}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ML request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create ML request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ML service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// the model server reports its own failure text; pass it through as is
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var e errorResponse
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			return nil, errors.New(e.Error)
		}
		return nil, fmt.Errorf("model service returned status: %d", resp.StatusCode)
	}

	var out PredictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode ML response: %w", err)
	}
	if len(out.Predictions) != 1 {
		return nil, fmt.Errorf("expected 1 prediction, got %d", len(out.Predictions))
	}
	return out.Predictions[0], nil
}

// Classifier adapts the client to the label prediction contract.
func (c *HTTPClient) Classifier() *Classifier { return &Classifier{c: c} }

// Regressor adapts the client to the value prediction contract.
func (c *HTTPClient) Regressor() *Regressor { return &Regressor{c: c} }

// Classifier asks the model server for a category label.
type Classifier struct{ c *HTTPClient }

func (a *Classifier) PredictLabel(ctx context.Context, rec model.Record) (string, error) {
	v, err := a.c.predict(ctx, classificationPath, rec)
	if err != nil {
		return "", err
	}
	switch l := v.(type) {
	case string:
		return l, nil
	case nil:
		return "", errors.New("model service returned a null label")
	default:
		return fmt.Sprint(l), nil
	}
}

// Regressor asks the model server for a price.
type Regressor struct{ c *HTTPClient }

func (a *Regressor) PredictValue(ctx context.Context, rec model.Record) (float64, error) {
	v, err := a.c.predict(ctx, regressionPath, rec)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("model service returned non-numeric price %v", v)
	}
	return f, nil
}
