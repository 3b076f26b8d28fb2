package model

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// FormatPrice rounds p to cents for display. Non-finite values are printed as is.
func FormatPrice(p float64) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return strconv.FormatFloat(p, 'f', -1, 64)
	}
	return decimal.NewFromFloat(p).StringFixed(2)
}
