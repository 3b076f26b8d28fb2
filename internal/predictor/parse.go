package predictor

import (
	"errors"
	"strconv"
	"strings"
)

var errNotNumber = errors.New("not a number")

// ParseNumber converts a raw form value into a float64.
// Surrounding whitespace is ignored and single underscores between digits are
// allowed. Hexadecimal literals are rejected so only decimal notation, inf and
// nan are accepted.
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errNotNumber
	}
	body := strings.TrimLeft(s, "+-")
	if len(body) > 1 && body[0] == '0' && (body[1] == 'x' || body[1] == 'X') {
		return 0, errNotNumber
	}
	s, ok := stripDigitSeparators(s)
	if !ok {
		return 0, errNotNumber
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var numErr *strconv.NumError
		// out-of-range decimals still parse to ±Inf
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return v, nil
		}
		return 0, errNotNumber
	}
	return v, nil
}

// stripDigitSeparators removes underscores that sit between two digits, as in
// "64_236.62". Any other underscore makes the value invalid.
func stripDigitSeparators(s string) (string, bool) {
	if !strings.Contains(s, "_") {
		return s, true
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			b.WriteByte(s[i])
			continue
		}
		if i == 0 || i == len(s)-1 || !isDigit(s[i-1]) || !isDigit(s[i+1]) {
			return "", false
		}
	}
	return b.String(), true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
