package utils

import (
	"math"
	"strconv"
	"strings"
)

// StringToFloat parses s as a finite float. NaN and ±Inf are rejected.
func StringToFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
