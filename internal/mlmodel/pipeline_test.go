package mlmodel

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/fairyhunter13/avocado-price-predictor/internal/model"
)

func sampleRecord(value float64, region string) model.Record {
	names := model.FeatureNames()
	nums := make([]float64, len(names))
	for i := range nums {
		nums[i] = value
	}
	return model.NewRecord(names, nums, region)
}

func TestLoadClassifierArtifact(t *testing.T) {
	p, err := LoadTask("testdata/classifier.json", TaskClassification)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Width() != 15 {
		t.Fatalf("expected width 15, got %d", p.Width())
	}
	got, err := p.PredictLabel(context.Background(), sampleRecord(1.0, "TotalUS"))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if got != "organic" {
		t.Fatalf("expected organic, got %q", got)
	}
	got, err = p.PredictLabel(context.Background(), sampleRecord(500, "Albany"))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if got != "conventional" {
		t.Fatalf("expected conventional, got %q", got)
	}
}

func TestLoadRegressorArtifact(t *testing.T) {
	p, err := LoadTask("testdata/regressor.json", TaskRegression)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	v, err := p.PredictValue(context.Background(), sampleRecord(1.0, "TotalUS"))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if math.Abs(v-1.299999) > 1e-9 {
		t.Fatalf("unexpected price %v", v)
	}
	// unknown regions are ignored by this artifact
	v, err = p.PredictValue(context.Background(), sampleRecord(1.0, "Atlantis"))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if math.Abs(v-1.199999) > 1e-9 {
		t.Fatalf("unexpected price %v", v)
	}
}

func TestLoadTaskMismatch(t *testing.T) {
	_, err := LoadTask("testdata/regressor.json", TaskClassification)
	if !errors.Is(err, ErrTaskMismatch) {
		t.Fatalf("expected ErrTaskMismatch, got %v", err)
	}
	p, err := Load("testdata/regressor.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := p.PredictLabel(context.Background(), sampleRecord(1, "TotalUS")); !errors.Is(err, ErrTaskMismatch) {
		t.Fatalf("expected ErrTaskMismatch from PredictLabel, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("testdata/nope.json"); err == nil {
		t.Fatalf("expected error for missing artifact")
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"name":"x","task":"regression","bogus":1}`))
	if err == nil {
		t.Fatalf("expected decode error")
	}
}

func linearArtifact(cols Columns, width int) Artifact {
	return Artifact{
		Name:    "t",
		Task:    TaskRegression,
		Columns: cols,
		Estimator: EstimatorSpec{
			Type:      EstimatorLinear,
			Coef:      [][]float64{make([]float64, width)},
			Intercept: []float64{2},
		},
	}
}

func TestMissingColumnsReported(t *testing.T) {
	cols := Columns{
		Numeric:     []NumericColumn{{Name: "year"}, {Name: "AveragePrice"}},
		Categorical: []CategoricalColumn{{Name: "type", Categories: []string{"conventional", "organic"}}},
	}
	p, err := Build(linearArtifact(cols, 4))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	_, err = p.PredictValue(context.Background(), sampleRecord(1, "TotalUS"))
	if err == nil || err.Error() != "columns are missing: {'AveragePrice', 'type'}" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUnknownCategoryError(t *testing.T) {
	cols := Columns{Categorical: []CategoricalColumn{{Name: "region", Categories: []string{"Albany"}, HandleUnknown: "error"}}}
	p, err := Build(linearArtifact(cols, 1))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	_, err = p.PredictValue(context.Background(), sampleRecord(1, "Nowhere"))
	if err == nil || err.Error() != "Found unknown categories ['Nowhere'] in column 0 during transform" {
		t.Fatalf("expected unknown category error, got %v", err)
	}
	v, err := p.PredictValue(context.Background(), sampleRecord(1, "Albany"))
	if err != nil || v != 2 {
		t.Fatalf("known category: %v %v", v, err)
	}
}

func TestStandardization(t *testing.T) {
	cols := Columns{Numeric: []NumericColumn{{Name: "year", Mean: 2015, Scale: 2}}}
	a := linearArtifact(cols, 1)
	a.Estimator.Coef = [][]float64{{1}}
	a.Estimator.Intercept = []float64{0}
	p, err := Build(a)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	rec := model.Record{Names: []string{"year"}, Values: []any{2019.0}}
	v, err := p.PredictValue(context.Background(), rec)
	if err != nil || v != 2 {
		t.Fatalf("expected 2, got %v %v", v, err)
	}
	rec = model.Record{Names: []string{"year"}, Values: []any{"abc"}}
	if _, err := p.PredictValue(context.Background(), rec); err == nil {
		t.Fatalf("expected conversion error")
	}
}

func TestLogisticClassifier(t *testing.T) {
	a := Artifact{
		Task:      TaskClassification,
		Columns:   Columns{Numeric: []NumericColumn{{Name: "x"}}},
		Classes:   []string{"conventional", "organic"},
		Estimator: EstimatorSpec{Type: EstimatorLinear, Coef: [][]float64{{1}}, Intercept: []float64{0}},
	}
	p, err := Build(a)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, c := range []struct {
		x    float64
		want string
	}{{3, "organic"}, {-3, "conventional"}} {
		got, err := p.PredictLabel(context.Background(), model.Record{Names: []string{"x"}, Values: []any{c.x}})
		if err != nil || got != c.want {
			t.Fatalf("x=%v: got %q %v, want %q", c.x, got, err, c.want)
		}
	}
}

func TestBuildValidation(t *testing.T) {
	numeric := Columns{Numeric: []NumericColumn{{Name: "x"}}}
	cases := map[string]Artifact{
		"no columns":   {Task: TaskRegression, Estimator: EstimatorSpec{Type: EstimatorLinear, Coef: [][]float64{{}}, Intercept: []float64{0}}},
		"unknown task": {Task: "ranking", Columns: numeric, Estimator: EstimatorSpec{Type: EstimatorLinear, Coef: [][]float64{{1}}, Intercept: []float64{0}}},
		"one class":    {Task: TaskClassification, Columns: numeric, Classes: []string{"a"}, Estimator: EstimatorSpec{Type: EstimatorLinear, Coef: [][]float64{{1}}, Intercept: []float64{0}}},
		"coef width":   {Task: TaskRegression, Columns: numeric, Estimator: EstimatorSpec{Type: EstimatorLinear, Coef: [][]float64{{1, 2}}, Intercept: []float64{0}}},
		"no trees":     {Task: TaskRegression, Columns: numeric, Estimator: EstimatorSpec{Type: EstimatorTreeEnsemble}},
		"bad type":     {Task: TaskRegression, Columns: numeric, Estimator: EstimatorSpec{Type: "svm"}},
		"cyclic tree": {Task: TaskRegression, Columns: numeric, Estimator: EstimatorSpec{Type: EstimatorTreeEnsemble, Trees: []Tree{{
			ChildrenLeft: []int{0}, ChildrenRight: []int{0}, Feature: []int{0}, Threshold: []float64{0}, Value: [][]float64{{1}},
		}}}},
		"feature out of range": {Task: TaskRegression, Columns: numeric, Estimator: EstimatorSpec{Type: EstimatorTreeEnsemble, Trees: []Tree{{
			ChildrenLeft: []int{1, -1, -1}, ChildrenRight: []int{2, -1, -1}, Feature: []int{3, -2, -2}, Threshold: []float64{0, 0, 0}, Value: [][]float64{{0}, {1}, {2}},
		}}}},
		"leaf width": {Task: TaskRegression, Columns: numeric, Estimator: EstimatorSpec{Type: EstimatorTreeEnsemble, Trees: []Tree{{
			ChildrenLeft: []int{-1}, ChildrenRight: []int{-1}, Feature: []int{-2}, Threshold: []float64{0}, Value: [][]float64{{1, 2}},
		}}}},
		"duplicate column": {Task: TaskRegression, Columns: Columns{Numeric: []NumericColumn{{Name: "x"}, {Name: "x"}}}, Estimator: EstimatorSpec{Type: EstimatorLinear, Coef: [][]float64{{1, 1}}, Intercept: []float64{0}}},
	}
	for name, a := range cases {
		if _, err := Build(a); err == nil {
			t.Fatalf("%s: expected build error", name)
		}
	}
}

func TestRegressionTreeAveragesLeaves(t *testing.T) {
	stump := func(lo, hi float64) Tree {
		return Tree{
			ChildrenLeft: []int{1, -1, -1}, ChildrenRight: []int{2, -1, -1},
			Feature: []int{0, -2, -2}, Threshold: []float64{0.5, -2, -2},
			Value: [][]float64{{0}, {lo}, {hi}},
		}
	}
	a := Artifact{
		Task:      TaskRegression,
		Columns:   Columns{Numeric: []NumericColumn{{Name: "x"}}},
		Estimator: EstimatorSpec{Type: EstimatorTreeEnsemble, Trees: []Tree{stump(1, 2), stump(3, 4)}},
	}
	p, err := Build(a)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	v, err := p.PredictValue(context.Background(), model.Record{Names: []string{"x"}, Values: []any{1.0}})
	if err != nil || v != 3 {
		t.Fatalf("expected 3, got %v %v", v, err)
	}
}

func TestPipelineConcurrentUse(t *testing.T) {
	p, err := LoadTask("testdata/classifier.json", TaskClassification)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got, err := p.PredictLabel(context.Background(), sampleRecord(1, "TotalUS")); err != nil || got != "organic" {
				errs <- errors.New("unexpected concurrent result")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestCanceledContext(t *testing.T) {
	p, err := LoadTask("testdata/regressor.json", TaskRegression)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.PredictValue(ctx, sampleRecord(1, "TotalUS")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPyQuote(t *testing.T) {
	cases := map[string]string{
		"region":      `'region'`,
		"Unnamed: 0":  `'Unnamed: 0'`,
		"it's":        `"it's"`,
		`a'b"c`:       `'a\'b"c'`,
		"back\\slash": `'back\\slash'`,
	}
	for in, want := range cases {
		if got := pyQuote(in); got != want {
			t.Fatalf("pyQuote(%q) = %s, want %s", in, got, want)
		}
	}
}
