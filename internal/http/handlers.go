package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fairyhunter13/avocado-price-predictor/internal/config"
	httpopenapi "github.com/fairyhunter13/avocado-price-predictor/internal/http/openapi"
	"github.com/fairyhunter13/avocado-price-predictor/internal/model"
	"github.com/fairyhunter13/avocado-price-predictor/internal/obs"
	"github.com/fairyhunter13/avocado-price-predictor/internal/predictor"
)

const maxFormBytes = 1 << 20

// App holds the dependencies shared by all handlers.
type App struct {
	Cfg      config.Config
	Service  *predictor.Service
	Counters *obs.Counters
	page     *template.Template
	started  time.Time
}

// NewApp builds an App. A nil counters gets a fresh set.
func NewApp(cfg config.Config, svc *predictor.Service, counters *obs.Counters) *App {
	if counters == nil {
		counters = obs.NewCounters()
	}
	return &App{
		Cfg:      cfg,
		Service:  svc,
		Counters: counters,
		page:     template.Must(template.New("index").Parse(indexTemplate)),
		started:  time.Now(),
	}
}

// pageData feeds the form template. Display mode leaves Submitted false and
// the result fields empty.
type pageData struct {
	Regions       []string
	Features      []string
	Values        map[string]string
	Submitted     bool
	HasPrediction bool // both models succeeded
	Category      string
	Price         string
	Error         string
}

func (a *App) blankPage() pageData {
	return pageData{Regions: a.Service.Regions(), Features: a.Service.Features()}
}

func (a *App) render(w http.ResponseWriter, status int, d pageData) {
	var buf bytes.Buffer
	if err := a.page.Execute(&buf, d); err != nil {
		obs.Logger.Error("template_render_error", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (a *App) indexHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		a.Counters.Display()
		a.render(w, http.StatusOK, a.blankPage())
	case http.MethodPost:
		a.submitForm(w, r)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	}
}

func (a *App) submitForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	d := a.blankPage()
	if err := r.ParseForm(); err != nil {
		d.Error = "invalid form body"
		a.render(w, http.StatusBadRequest, d)
		return
	}
	a.Counters.Submission()
	d.Submitted = true
	d.Values = echoValues(r.PostForm, d.Features)

	p, err := a.Service.Submit(r.Context(), r.PostForm)
	if err != nil {
		d.Error = a.recordFailure(r, err)
		a.render(w, http.StatusOK, d)
		return
	}
	a.Counters.Prediction()
	d.HasPrediction = true
	d.Category = p.Category
	d.Price = model.FormatPrice(p.Price)
	a.render(w, http.StatusOK, d)
}

// recordFailure counts and logs err and returns the message shown to the user.
func (a *App) recordFailure(r *http.Request, err error) string {
	var pe *predictor.ParseError
	if errors.As(err, &pe) {
		a.Counters.ParseError()
		obs.Logger.Info("submission_rejected", "field", pe.Field, "request_id", RequestIDFromContext(r.Context()))
		return err.Error()
	}
	a.Counters.PredictionError()
	obs.Logger.Warn("prediction_failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
	return err.Error()
}

func echoValues(form url.Values, features []string) map[string]string {
	out := make(map[string]string, len(features)+1)
	for _, f := range features {
		out[f] = form.Get(f)
	}
	out[model.RegionField] = form.Get(model.RegionField)
	return out
}

// formValue accepts either a JSON string or a bare JSON literal and keeps its text.
type formValue string

func (v *formValue) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = formValue(s)
		return nil
	}
	*v = formValue(b)
	return nil
}

type predictRequest struct {
	Region   string               `json:"region"`
	Features map[string]formValue `json:"features"`
}

type predictResponse struct {
	RequestID    string   `json:"request_id"`
	Category     string   `json:"category"`
	Price        *float64 `json:"price"`
	PriceDisplay string   `json:"price_display"`
}

func (a *App) apiPredictHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		WriteJSONError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "expected application/json")
		return
	}
	var req predictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	fields := make(model.Fields, len(req.Features)+1)
	for k, v := range req.Features {
		fields[k] = string(v)
	}
	fields[model.RegionField] = req.Region

	a.Counters.Submission()
	p, err := a.Service.Submit(r.Context(), fields)
	if err != nil {
		msg := a.recordFailure(r, err)
		var pe *predictor.ParseError
		if errors.As(err, &pe) {
			WriteJSONError(w, http.StatusUnprocessableEntity, "validation_error", msg)
			return
		}
		WriteJSONError(w, http.StatusBadGateway, "prediction_failed", msg)
		return
	}
	a.Counters.Prediction()
	resp := predictResponse{
		RequestID:    RequestIDFromContext(r.Context()),
		Category:     p.Category,
		PriceDisplay: model.FormatPrice(p.Price),
	}
	if !math.IsNaN(p.Price) && !math.IsInf(p.Price, 0) {
		price := p.Price
		resp.Price = &price
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (a *App) apiRegionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]string{
		"regions":  a.Service.Regions(),
		"features": a.Service.Features(),
	})
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (a *App) metricsHandler(w http.ResponseWriter, r *http.Request) {
	m := a.Counters.Snapshot()
	m["model_backend"] = a.Cfg.ModelBackend
	m["region_count"] = len(a.Service.Regions())
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(m)
}

func (a *App) openapiHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(httpopenapi.YAML)
}

func (a *App) docsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	html := `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Avocado Price Predictor API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui'
      });
    </script>
  </body>
</html>`
	_, _ = w.Write([]byte(html))
}
