// Package mlmodel loads serialized model artifacts and evaluates them in
// process. An artifact is a JSON document holding a column transform and a
// fitted estimator (tree ensemble or linear model).
package mlmodel

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Task is the kind of output an artifact produces.
type Task string

const (
	TaskClassification Task = "classification"
	TaskRegression     Task = "regression"
)

// Estimator type names.
const (
	EstimatorTreeEnsemble = "tree_ensemble"
	EstimatorLinear       = "linear"
)

// ErrTaskMismatch is returned when an artifact is used for the wrong task.
var ErrTaskMismatch = errors.New("mlmodel: artifact task mismatch")

// NumericColumn is a numeric input standardized as (v-mean)/scale.
type NumericColumn struct {
	Name  string  `json:"name"`
	Mean  float64 `json:"mean"`
	Scale float64 `json:"scale"`
}

// CategoricalColumn is a string input one-hot encoded over Categories.
type CategoricalColumn struct {
	Name          string   `json:"name"`
	Categories    []string `json:"categories"`
	HandleUnknown string   `json:"handle_unknown,omitempty"` // "error" (default) or "ignore"
}

// Columns lists the inputs the estimator was fit on.
type Columns struct {
	Numeric     []NumericColumn     `json:"numeric"`
	Categorical []CategoricalColumn `json:"categorical"`
}

// Tree is one fitted decision tree stored as parallel node arrays.
// A node is a leaf when ChildrenLeft is -1.
type Tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

// EstimatorSpec is the serialized estimator.
type EstimatorSpec struct {
	Type      string      `json:"type"`
	Trees     []Tree      `json:"trees,omitempty"`
	Coef      [][]float64 `json:"coef,omitempty"`
	Intercept []float64   `json:"intercept,omitempty"`
}

// Artifact is the on-disk form of a model.
type Artifact struct {
	Name      string        `json:"name"`
	Task      Task          `json:"task"`
	Columns   Columns       `json:"columns"`
	Classes   []string      `json:"classes,omitempty"`
	Estimator EstimatorSpec `json:"estimator"`
}

// Load reads and validates the artifact at path.
func Load(path string) (*Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model artifact: %w", err)
	}
	defer f.Close()
	p, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return p, nil
}

// LoadTask loads path and checks it was built for task.
func LoadTask(path string, task Task) (*Pipeline, error) {
	p, err := Load(path)
	if err != nil {
		return nil, err
	}
	if p.Task() != task {
		return nil, fmt.Errorf("%w: %s is a %s model, want %s", ErrTaskMismatch, path, p.Task(), task)
	}
	return p, nil
}

// Decode parses an artifact from r and builds its pipeline.
func Decode(r io.Reader) (*Pipeline, error) {
	var a Artifact
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return Build(a)
}
