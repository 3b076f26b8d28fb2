package mlmodel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// estimator maps a transformed row to raw outputs: class scores for
// classification, a single value for regression.
type estimator interface {
	predict(x []float64) []float64
}

type treeEnsemble struct {
	trees    []Tree
	outputs  int
	classify bool
}

func newTreeEnsemble(spec EstimatorSpec, width, outputs int, classify bool) (*treeEnsemble, error) {
	if len(spec.Trees) == 0 {
		return nil, fmt.Errorf("tree ensemble has no trees")
	}
	for i := range spec.Trees {
		if err := spec.Trees[i].validate(width, outputs); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return &treeEnsemble{trees: spec.Trees, outputs: outputs, classify: classify}, nil
}

func (e *treeEnsemble) predict(x []float64) []float64 {
	out := make([]float64, e.outputs)
	for i := range e.trees {
		leaf := e.trees[i].leaf(x)
		if e.classify {
			// leaves may hold raw counts; average the distributions
			if sum := floats.Sum(leaf); sum > 0 {
				floats.AddScaled(out, 1/sum, leaf)
				continue
			}
		}
		floats.Add(out, leaf)
	}
	floats.Scale(1/float64(len(e.trees)), out)
	return out
}

func (t *Tree) validate(width, outputs int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return fmt.Errorf("empty tree")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("node arrays differ in length")
	}
	for i := 0; i < n; i++ {
		l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
		if l == -1 {
			if len(t.Value[i]) != outputs {
				return fmt.Errorf("leaf %d has %d values, want %d", i, len(t.Value[i]), outputs)
			}
			continue
		}
		// children always follow their parent, so walks terminate
		if l <= i || l >= n || r <= i || r >= n {
			return fmt.Errorf("node %d has invalid children %d/%d", i, l, r)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= width {
			return fmt.Errorf("node %d splits on feature %d outside [0,%d)", i, t.Feature[i], width)
		}
	}
	return nil
}

func (t *Tree) leaf(x []float64) []float64 {
	node := 0
	for t.ChildrenLeft[node] != -1 {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return t.Value[node]
}

type linear struct {
	coef      [][]float64
	intercept []float64
	logistic  bool
}

func newLinear(spec EstimatorSpec, width int, task Task, classes int) (*linear, error) {
	if len(spec.Coef) == 0 || len(spec.Coef) != len(spec.Intercept) {
		return nil, fmt.Errorf("linear model needs matching coef and intercept rows")
	}
	for i, row := range spec.Coef {
		if len(row) != width {
			return nil, fmt.Errorf("coef row %d has %d weights, want %d", i, len(row), width)
		}
	}
	m := &linear{coef: spec.Coef, intercept: spec.Intercept}
	switch task {
	case TaskRegression:
		if len(spec.Coef) != 1 {
			return nil, fmt.Errorf("regression expects one coef row, got %d", len(spec.Coef))
		}
	case TaskClassification:
		switch {
		case len(spec.Coef) == 1 && classes == 2:
			m.logistic = true
		case len(spec.Coef) == classes:
		default:
			return nil, fmt.Errorf("%d coef rows do not fit %d classes", len(spec.Coef), classes)
		}
	}
	return m, nil
}

func (m *linear) predict(x []float64) []float64 {
	scores := make([]float64, len(m.coef))
	for k, row := range m.coef {
		scores[k] = floats.Dot(row, x) + m.intercept[k]
	}
	if m.logistic {
		p := 1 / (1 + math.Exp(-scores[0]))
		return []float64{1 - p, p}
	}
	return scores
}
