// Package core provides the expense record and the amount parsing and
// formatting rules shared by every view.
//
// Amounts are plain float64 values. Parsing is lenient: the longest numeric
// prefix of the input wins and anything without one becomes NaN. Formatting
// keeps NaN and infinities readable instead of failing.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount extracts a number from user input.
//
// Leading whitespace is skipped and the longest prefix that forms a decimal
// number (optional sign, digits, optional fraction, optional exponent) or
// "Infinity" is parsed. Input with no such prefix yields NaN.
//
// Examples:
//
//	ParseAmount("3.5")    -> 3.5
//	ParseAmount(" 12abc") -> 12
//	ParseAmount(".5e1")   -> 5
//	ParseAmount("abc")    -> NaN
func ParseAmount(s string) Amount {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	prefix := numericPrefix(s)
	if prefix == "" {
		return Amount(math.NaN())
	}
	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		// Out of range values come back as ±Inf with ErrRange.
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return Amount(f)
		}
		return Amount(math.NaN())
	}
	return Amount(f)
}

func numericPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		return s[:i] + "Inf"
	}

	intDigits := countDigits(s[i:])
	i += intDigits
	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		fracDigits = countDigits(s[i+1:])
		if intDigits > 0 || fracDigits > 0 {
			i += 1 + fracDigits
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		return ""
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if n := countDigits(s[j:]); n > 0 {
			i = j + n
		}
	}
	return strings.TrimSuffix(s[:i], ".")
}

func countDigits(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}

// Fixed formats the amount with the given number of decimals.
func (a Amount) Fixed(decimals int) string {
	return FormatFixed(float64(a), decimals)
}

// String formats the amount with the shortest representation that
// round-trips, the way it was typed.
func (a Amount) String() string {
	return FormatNumber(float64(a))
}

// FormatFixed formats v with exactly decimals fractional digits, spelling
// non-finite values as NaN, Infinity or -Infinity.
func FormatFixed(v float64, decimals int) string {
	if s, ok := formatNonFinite(v); ok {
		return s
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// FormatNumber formats v without trailing zeros.
func FormatNumber(v float64) string {
	if s, ok := formatNonFinite(v); ok {
		return s
	}
	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatNonFinite(v float64) (string, bool) {
	switch {
	case math.IsNaN(v):
		return "NaN", true
	case math.IsInf(v, 1):
		return "Infinity", true
	case math.IsInf(v, -1):
		return "-Infinity", true
	}
	return "", false
}
