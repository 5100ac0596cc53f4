package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// leadingFloat matches the numeric prefix that JavaScript's parseFloat accepts.
var leadingFloat = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ParseLeadingFloat parses the longest numeric prefix of s, ignoring leading
// whitespace and anything after the number ("1.23%" → 1.23). A Unicode minus
// sign is accepted in place of '-'. It reports false when s has no numeric
// prefix or the value is not finite.
func ParseLeadingFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.Replace(s, "−", "-", 1)

	m := leadingFloat.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseLenientFloat is ParseLeadingFloat with 0 substituted on failure.
func ParseLenientFloat(s string) float64 {
	v, _ := ParseLeadingFloat(s)
	return v
}

// StripGrouping removes thousands separators (commas) from s.
func StripGrouping(s string) string {
	return strings.ReplaceAll(s, ",", "")
}

// StripSpaces removes every whitespace rune from s, including the
// non-breaking and narrow spaces used for digit grouping.
func StripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
