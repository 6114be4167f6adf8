// Package texthash implements the 32-bit rolling hash used for cache
// keys and local embedding features. The hash walks UTF-16 code units
// so values stay stable for any text regardless of encoding length.
package texthash

import (
	"math"
	"strconv"
	"unicode/utf16"
)

// Sum computes the rolling hash of s: h = (h<<5) - h + unit, wrapped
// to 32-bit signed integer arithmetic at each step.
func Sum(s string) int32 {
	var h int32
	for _, unit := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(unit)
	}
	return h
}

// Abs returns the non-negative magnitude of Sum(s). The widening to
// int64 keeps math.MinInt32 from overflowing on negation.
func Abs(s string) int64 {
	h := int64(Sum(s))
	if h < 0 {
		h = -h
	}
	return h
}

// Key returns the hash as a decimal string, suitable for map keys.
func Key(s string) string {
	return strconv.FormatInt(Abs(s), 10)
}

// Normalized maps the hash into [0,1] by dividing the magnitude by
// 2^31 - 1.
func Normalized(s string) float64 {
	return float64(Abs(s)) / float64(math.MaxInt32)
}
