package mlmodel

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/fairyhunter13/avocado-price-predictor/internal/model"
)

// Pipeline is a loaded artifact ready for prediction. It is immutable after
// Build and safe for concurrent use.
type Pipeline struct {
	name    string
	task    Task
	classes []string
	tf      *transformer
	est     estimator
}

// Build validates a decoded artifact and assembles its pipeline.
func Build(a Artifact) (*Pipeline, error) {
	tf, err := newTransformer(a.Columns)
	if err != nil {
		return nil, err
	}
	outputs := 1
	switch a.Task {
	case TaskClassification:
		if len(a.Classes) < 2 {
			return nil, fmt.Errorf("classification artifact needs at least 2 classes, got %d", len(a.Classes))
		}
		outputs = len(a.Classes)
	case TaskRegression:
	default:
		return nil, fmt.Errorf("unknown task %q", a.Task)
	}

	p := &Pipeline{name: a.Name, task: a.Task, classes: a.Classes, tf: tf}
	switch a.Estimator.Type {
	case EstimatorTreeEnsemble:
		p.est, err = newTreeEnsemble(a.Estimator, tf.width, outputs, a.Task == TaskClassification)
	case EstimatorLinear:
		p.est, err = newLinear(a.Estimator, tf.width, a.Task, len(a.Classes))
	default:
		err = fmt.Errorf("unknown estimator type %q", a.Estimator.Type)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Name returns the artifact name.
func (p *Pipeline) Name() string { return p.name }

// Task returns the artifact task.
func (p *Pipeline) Task() Task { return p.task }

// Columns returns the input column names the model requires.
func (p *Pipeline) Columns() []string { return p.tf.columns() }

// Classes returns the class labels of a classifier.
func (p *Pipeline) Classes() []string {
	out := make([]string, len(p.classes))
	copy(out, p.classes)
	return out
}

// Width is the length of the transformed input vector.
func (p *Pipeline) Width() int { return p.tf.width }

// Raw returns the estimator outputs for rec.
func (p *Pipeline) Raw(rec model.Record) ([]float64, error) {
	x, err := p.tf.transform(rec)
	if err != nil {
		return nil, err
	}
	return p.est.predict(x), nil
}

// PredictLabel returns the most likely class for rec.
func (p *Pipeline) PredictLabel(ctx context.Context, rec model.Record) (string, error) {
	if p.task != TaskClassification {
		return "", fmt.Errorf("%w: %s cannot predict a label", ErrTaskMismatch, p.task)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out, err := p.Raw(rec)
	if err != nil {
		return "", err
	}
	return p.classes[floats.MaxIdx(out)], nil
}

// PredictValue returns the regression estimate for rec.
func (p *Pipeline) PredictValue(ctx context.Context, rec model.Record) (float64, error) {
	if p.task != TaskRegression {
		return 0, fmt.Errorf("%w: %s cannot predict a value", ErrTaskMismatch, p.task)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	out, err := p.Raw(rec)
	if err != nil {
		return 0, err
	}
	return out[0], nil
}
