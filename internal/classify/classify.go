// Package classify implements the value classifier: given one non-empty cell
// string it returns a type hypothesis, trying boolean, integer, number,
// temporal patterns, array, object, and finally string, in that order.
package classify

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/kindly/csvs-convert/internal/fieldtype"
)

// maxNumberMagnitude bounds the `number` classification: larger magnitudes force
// `string` to avoid float64 precision loss silently corrupting the data.
const maxNumberMagnitude = 1e16

var (
	integerRe = regexp.MustCompile(`^-?\d+$`)
	// numberRe accepts a decimal/scientific float grammar: optional sign, digits,
	// optional fractional part, optional exponent. At least one of the integer or
	// fractional part must be present.
	numberRe = regexp.MustCompile(`^[-+]?(\d+\.\d*|\.\d+|\d+)([eE][-+]?\d+)?$`)
)

// temporalPattern pairs a strftime-style format string with the compiled layout
// classify uses to try to parse a cell end-to-end, and the field type it yields.
type temporalPattern struct {
	pattern string
	typ     fieldtype.Type
	layout  func(string) (ok bool)
}

var (
	temporalPatterns     []temporalPattern
	temporalPatternsOnce sync.Once
)

// compileTemporalPatterns lazily builds the fixed, ordered list of temporal
// patterns classify tries. Keeping the table process-scoped and built once
// avoids recompiling regexes per cell.
func compileTemporalPatterns() []temporalPattern {
	temporalPatternsOnce.Do(func() {
		temporalPatterns = []temporalPattern{
			{"%Y-%m-%dT%H:%M:%S", fieldtype.DateTime, matchDateTimeT},
			{"%Y-%m-%d %H:%M:%S", fieldtype.DateTime, matchDateTimeSpaceSeconds},
			{"%Y-%m-%d %H:%M", fieldtype.DateTime, matchDateTimeSpaceMinutes},
			{"%Y-%m-%d", fieldtype.Date, matchDate},
			{"%d/%m/%Y", fieldtype.Date, matchDMY},
			{"%H:%M:%S", fieldtype.Time, matchTimeSeconds},
			{"%H:%M", fieldtype.Time, matchTimeMinutes},
		}
	})
	return temporalPatterns
}

// Classify returns the type hypothesis for one non-empty, already-trimmed cell.
// Callers must not call Classify on an empty string; empty cells only ever
// increment a statistician's empty_count and never produce a hypothesis.
func Classify(cell string, forceString bool) fieldtype.Hypothesis {
	if forceString {
		return fieldtype.Hypothesis{Type: fieldtype.String}
	}

	if isBoolean(cell) {
		return fieldtype.Hypothesis{Type: fieldtype.Boolean}
	}
	if isInteger(cell) {
		return fieldtype.Hypothesis{Type: fieldtype.Integer}
	}
	if isNumber(cell) {
		return fieldtype.Hypothesis{Type: fieldtype.Number}
	}
	if h, ok := classifyTemporal(cell); ok {
		return h
	}
	if isJSONArray(cell) {
		return fieldtype.Hypothesis{Type: fieldtype.Array}
	}
	if isJSONObject(cell) {
		return fieldtype.Hypothesis{Type: fieldtype.Object}
	}
	return fieldtype.Hypothesis{Type: fieldtype.String}
}

func isBoolean(cell string) bool {
	lower := strings.ToLower(cell)
	return lower == "true" || lower == "false"
}

// isInteger requires the whole cell to be an optionally-signed run of digits,
// rejecting leading zeros (other than the literal "0" or "-0") and magnitudes
// outside the signed 64-bit range; either forces classification down to string.
func isInteger(cell string) bool {
	if !integerRe.MatchString(cell) {
		return false
	}
	digits := cell
	if strings.HasPrefix(digits, "-") {
		digits = digits[1:]
	}
	if len(digits) > 1 && digits[0] == '0' {
		return false
	}
	_, err := strconv.ParseInt(cell, 10, 64)
	return err == nil
}

// isNumber requires the decimal/scientific grammar to match, the integer part to
// carry no redundant leading zero, the parse to succeed, and the result to be
// finite with |magnitude| <= maxNumberMagnitude.
func isNumber(cell string) bool {
	if !numberRe.MatchString(cell) {
		return false
	}
	intPart := integerPartOf(cell)
	if len(intPart) > 1 && intPart[0] == '0' {
		return false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return false
	}
	return math.Abs(v) <= maxNumberMagnitude
}

// integerPartOf extracts the digits before any '.' or exponent marker, ignoring
// a leading sign, so "0.5" is allowed but "01.5" and "007" are rejected.
func integerPartOf(cell string) string {
	s := cell
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	if i := strings.IndexAny(s, ".eE"); i >= 0 {
		s = s[:i]
	}
	return s
}

func classifyTemporal(cell string) (fieldtype.Hypothesis, bool) {
	for _, tp := range compileTemporalPatterns() {
		if tp.layout(cell) {
			return fieldtype.Hypothesis{Type: tp.typ, Pattern: tp.pattern}, true
		}
	}
	return fieldtype.Hypothesis{}, false
}

func isJSONArray(cell string) bool {
	if len(cell) < 2 || cell[0] != '[' || cell[len(cell)-1] != ']' {
		return false
	}
	var v []json.RawMessage
	return json.Unmarshal([]byte(cell), &v) == nil
}

func isJSONObject(cell string) bool {
	if len(cell) < 2 || cell[0] != '{' || cell[len(cell)-1] != '}' {
		return false
	}
	var v map[string]json.RawMessage
	return json.Unmarshal([]byte(cell), &v) == nil
}
