package util

import (
	"cmp"
	"slices"
	"strconv"
	"time"
)

/*
Utility functions.
*/

////////////////////////////////////////////////////////////////////////////////

// ParseNanos returns a time.Time from a nanosecond timestamp.
func ParseNanos(x uint64) time.Time {
	return time.Unix(int64(x/1e9), int64(x%1e9))
}

// Okeys returns the keys of a map in sorted order.
func Okeys[T cmp.Ordered, K any](m map[T]K) []T {
	keys := make([]T, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// HumanFrequency returns a human-readable representation of a frequency
// supplied in Hz.
func HumanFrequency(n float64) string {
	suffix := []string{"Hz", "kHz", "MHz", "GHz", "THz", "PHz", "EHz"}
	i := 0
	for n >= 1000 && i < len(suffix)-1 {
		n /= 1000
		i++
	}
	return strconv.FormatFloat(n, 'f', -1, 64) + " " + suffix[i]
}

// When returns a if cond is true, otherwise b.
func When[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
