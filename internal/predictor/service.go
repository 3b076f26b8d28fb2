// Package predictor implements the prediction request handler: it validates a
// submitted form, builds the input record and asks both models for a result.
package predictor

import (
	"context"
	"fmt"

	"github.com/fairyhunter13/avocado-price-predictor/internal/model"
)

// Classifier predicts the category label for a record.
type Classifier interface {
	PredictLabel(ctx context.Context, rec model.Record) (string, error)
}

// Regressor predicts the price for a record.
type Regressor interface {
	PredictValue(ctx context.Context, rec model.Record) (float64, error)
}

// Service holds the startup-loaded, read-only state shared by all requests.
type Service struct {
	clf      Classifier
	reg      Regressor
	regions  []string
	features []string
}

// New builds a Service. regions is expected to be sorted and unique already.
func New(clf Classifier, reg Regressor, regions []string) *Service {
	r := make([]string, len(regions))
	copy(r, regions)
	return &Service{clf: clf, reg: reg, regions: r, features: model.FeatureNames()}
}

// Regions returns the selectable region labels.
func (s *Service) Regions() []string {
	out := make([]string, len(s.regions))
	copy(out, s.regions)
	return out
}

// Features returns the numeric feature names in submission order.
func (s *Service) Features() []string {
	out := make([]string, len(s.features))
	copy(out, s.features)
	return out
}

// Submit validates form and runs both models.
// It returns a *ParseError if a feature is not numeric and a *PredictionError
// if either model fails. No partial prediction is ever returned.
func (s *Service) Submit(ctx context.Context, form model.Form) (model.Prediction, error) {
	nums := make([]float64, len(s.features))
	for i, name := range s.features {
		v, err := ParseNumber(form.Get(name))
		if err != nil {
			return model.Prediction{}, &ParseError{Field: name}
		}
		nums[i] = v
	}
	rec := model.NewRecord(s.features, nums, form.Get(model.RegionField))
	return s.predict(ctx, rec)
}

func (s *Service) predict(ctx context.Context, rec model.Record) (p model.Prediction, err error) {
	defer func() {
		if r := recover(); r != nil {
			p = model.Prediction{}
			err = &PredictionError{Err: fmt.Errorf("%v", r)}
		}
	}()
	category, err := s.clf.PredictLabel(ctx, rec)
	if err != nil {
		return model.Prediction{}, &PredictionError{Err: err}
	}
	price, err := s.reg.PredictValue(ctx, rec)
	if err != nil {
		return model.Prediction{}, &PredictionError{Err: err}
	}
	return model.Prediction{Category: category, Price: price}, nil
}
