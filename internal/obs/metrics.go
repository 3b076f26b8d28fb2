package obs

import (
	"expvar"
	"sync"
	"sync/atomic"
	"time"
)

// Counters tracks form traffic and prediction outcomes.
type Counters struct {
	displays          atomic.Uint64
	submissions       atomic.Uint64
	parseErrors       atomic.Uint64
	predictionErrors  atomic.Uint64
	predictionsServed atomic.Uint64
	started           time.Time
}

// NewCounters returns zeroed counters with the uptime clock started.
func NewCounters() *Counters { return &Counters{started: time.Now()} }

func (c *Counters) Display()         { c.displays.Add(1) }
func (c *Counters) Submission()      { c.submissions.Add(1) }
func (c *Counters) ParseError()      { c.parseErrors.Add(1) }
func (c *Counters) PredictionError() { c.predictionErrors.Add(1) }
func (c *Counters) Prediction()      { c.predictionsServed.Add(1) }

// Snapshot returns the current values keyed by metric name.
func (c *Counters) Snapshot() map[string]any {
	return map[string]any{
		"form_displays":      c.displays.Load(),
		"form_submissions":   c.submissions.Load(),
		"parse_errors":       c.parseErrors.Load(),
		"prediction_errors":  c.predictionErrors.Load(),
		"predictions_served": c.predictionsServed.Load(),
		"uptime_sec":         time.Since(c.started).Seconds(),
	}
}

var publishOnce sync.Once

// Publish exposes c under the "predictor" expvar. Only the first call publishes.
func Publish(c *Counters) {
	publishOnce.Do(func() {
		expvar.Publish("predictor", expvar.Func(func() any { return c.Snapshot() }))
	})
}
