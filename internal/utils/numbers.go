package utils

import (
	"math"
	"strconv"
	"strings"
)

// Coerce-to-zero policy: every numeric input crossing a public boundary
// (stored payloads, CSV fields, income input) is normalized here so that
// malformed or absent values behave as 0 instead of propagating NaN.

// ParseAmount parses a decimal string into a float64, coercing any
// malformed value to 0.
func ParseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return SanitizeAmount(v)
}

// SanitizeAmount maps NaN and infinities to 0.
func SanitizeAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ClampAmount sanitizes v and bounds it to [min, max].
func ClampAmount(v, min, max float64) float64 {
	v = SanitizeAmount(v)
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
