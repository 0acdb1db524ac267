package api

import (
	"math"
	"strconv"
	"strings"
)

// integerEpsilon is the tolerance for treating a float as an integer.
const integerEpsilon = 1e-9

// FormatNumber renders a float for command payloads.
//
// Values within 1e-9 of an integer render as the integer string; anything
// else renders as a minimal decimal with trailing zeros and a trailing dot
// stripped. Magnitudes beyond the int64 range stay on the decimal path,
// since the float to int conversion would be out of range.
func FormatNumber(v float64) string {
	rounded := math.Round(v)
	if math.Abs(v-rounded) < integerEpsilon && math.Abs(rounded) < 1<<63 {
		return strconv.FormatInt(int64(rounded), 10)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}
