// Package regions loads the fixed list of region labels offered by the form.
package regions

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Source yields the raw region column of a dataset.
type Source interface {
	Values(ctx context.Context) ([]string, error)
}

// ErrEmpty is returned when a source yields no usable region.
var ErrEmpty = errors.New("regions: no region values found")

// Load reads src once and returns its unique, sorted labels.
func Load(ctx context.Context, src Source) ([]string, error) {
	vals, err := src.Values(ctx)
	if err != nil {
		return nil, fmt.Errorf("load regions: %w", err)
	}
	out := Normalize(vals)
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

// Normalize deduplicates vals, drops empty entries and sorts the result.
func Normalize(vals []string) []string {
	seen := make(map[string]struct{}, len(vals))
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
