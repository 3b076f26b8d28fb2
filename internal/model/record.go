package model

// Record is the single labeled row handed to both prediction functions.
// Values are float64 for numeric columns and string for categorical ones.
type Record struct {
	Names  []string
	Values []any
}

// NewRecord assembles the input row: numeric features in schema order,
// then the region, then the index placeholder.
func NewRecord(features []string, numbers []float64, region string) Record {
	n := len(features)
	r := Record{
		Names:  make([]string, 0, n+2),
		Values: make([]any, 0, n+2),
	}
	for i, name := range features {
		r.Names = append(r.Names, name)
		r.Values = append(r.Values, numbers[i])
	}
	r.Names = append(r.Names, RegionField, IndexField)
	r.Values = append(r.Values, region, 0.0)
	return r
}

// Lookup returns the value of the named column.
func (r Record) Lookup(name string) (any, bool) {
	for i, n := range r.Names {
		if n == name {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Len reports the number of columns.
func (r Record) Len() int { return len(r.Names) }
