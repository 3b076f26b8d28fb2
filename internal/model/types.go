// Package model defines domain types used by the service.
package model

// RegionField is the form field carrying the region choice.
const RegionField = "region"

// IndexField is the leftover dataset index column the trained models were fit with.
// It is always sent as 0.
const IndexField = "Unnamed: 0"

var featureNames = []string{
	"Total Volume", "4046", "4225", "4770", "Total Bags",
	"Small Bags", "Large Bags", "XLarge Bags", "year", "month", "day",
}

// FeatureNames returns the numeric input schema in submission order.
func FeatureNames() []string {
	out := make([]string, len(featureNames))
	copy(out, featureNames)
	return out
}

// Form gives access to raw submitted values by field name.
// url.Values satisfies it.
type Form interface {
	Get(key string) string
}

// Fields is a plain map-backed Form.
type Fields map[string]string

// Get returns the value for key or "" if absent.
func (f Fields) Get(key string) string { return f[key] }

// Prediction is the pair of model outputs for one submission.
type Prediction struct {
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}
