package mlmodel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fairyhunter13/avocado-price-predictor/internal/model"
)

type categorical struct {
	name   string
	index  map[string]int
	ignore bool
}

// transformer turns a labeled record into the estimator's input vector:
// standardized numeric columns followed by one-hot blocks.
type transformer struct {
	numeric     []NumericColumn
	categorical []categorical
	offsets     []int
	width       int
}

func newTransformer(c Columns) (*transformer, error) {
	if len(c.Numeric)+len(c.Categorical) == 0 {
		return nil, fmt.Errorf("artifact declares no input columns")
	}
	t := &transformer{numeric: c.Numeric, width: len(c.Numeric)}
	seen := make(map[string]struct{})
	for _, n := range c.Numeric {
		if _, dup := seen[n.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", n.Name)
		}
		seen[n.Name] = struct{}{}
	}
	for _, cc := range c.Categorical {
		if _, dup := seen[cc.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", cc.Name)
		}
		seen[cc.Name] = struct{}{}
		if len(cc.Categories) == 0 {
			return nil, fmt.Errorf("categorical column %q has no categories", cc.Name)
		}
		switch cc.HandleUnknown {
		case "", "error", "ignore":
		default:
			return nil, fmt.Errorf("categorical column %q: unknown handle_unknown %q", cc.Name, cc.HandleUnknown)
		}
		idx := make(map[string]int, len(cc.Categories))
		for i, cat := range cc.Categories {
			idx[cat] = i
		}
		t.categorical = append(t.categorical, categorical{name: cc.Name, index: idx, ignore: cc.HandleUnknown == "ignore"})
		t.offsets = append(t.offsets, t.width)
		t.width += len(cc.Categories)
	}
	return t, nil
}

func (t *transformer) columns() []string {
	out := make([]string, 0, len(t.numeric)+len(t.categorical))
	for _, n := range t.numeric {
		out = append(out, n.Name)
	}
	for _, c := range t.categorical {
		out = append(out, c.name)
	}
	return out
}

func (t *transformer) transform(rec model.Record) ([]float64, error) {
	var missing []string
	for _, name := range t.columns() {
		if _, ok := rec.Lookup(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		quoted := make([]string, len(missing))
		for i, m := range missing {
			quoted[i] = pyQuote(m)
		}
		return nil, fmt.Errorf("columns are missing: {%s}", strings.Join(quoted, ", "))
	}

	x := make([]float64, t.width)
	for i, n := range t.numeric {
		raw, _ := rec.Lookup(n.Name)
		v, err := toFloat(raw)
		if err != nil {
			return nil, err
		}
		scale := n.Scale
		if scale == 0 {
			scale = 1
		}
		x[i] = (v - n.Mean) / scale
	}
	for i, c := range t.categorical {
		raw, _ := rec.Lookup(c.name)
		s := toCategory(raw)
		j, ok := c.index[s]
		if !ok {
			if c.ignore {
				continue
			}
			return nil, fmt.Errorf("Found unknown categories [%s] in column %d during transform", pyQuote(s), i)
		}
		x[t.offsets[i]+j] = 1
	}
	return x, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("could not convert string to float: %q", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unsupported value %v of type %T", v, v)
	}
}

func toCategory(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// pyQuote renders s the way Python's repr does, so failure text matches what
// a scikit-learn model server would report.
func pyQuote(s string) string {
	q := byte('\'')
	if strings.IndexByte(s, '\'') >= 0 && strings.IndexByte(s, '"') < 0 {
		q = '"'
	}
	var b strings.Builder
	b.WriteByte(q)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\', q:
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(q)
	return b.String()
}
