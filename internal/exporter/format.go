package exporter

import (
	"math"
	"strconv"
)

// FormatFloat writes the shortest representation that round-trips, so 12.5
// stays "12.5" and 12 becomes "12"
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func FormatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// FormatOptionalFloat returns an empty cell for nil, NaN and infinities
func FormatOptionalFloat(f *float64) string {
	if f == nil || math.IsNaN(*f) || math.IsInf(*f, 0) {
		return ""
	}
	return FormatFloat(*f)
}

// FormatOptionalInt returns an empty cell for nil
func FormatOptionalInt(i *int64) string {
	if i == nil {
		return ""
	}
	return FormatInt(*i)
}
