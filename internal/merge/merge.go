// Package merge implements the schema merger: the type-lattice join that
// reduces a column's per-cell type hypotheses (the classifier's
// output, tallied across every cell and every chunk) down to the single
// winning field type and format string.
package merge

import "github.com/kindly/csvs-convert/internal/fieldtype"

// Resolve picks the winning type and format for a column given the counts of
// every distinct hypothesis observed across its non-empty cells. An empty
// counts map (a column with no non-empty cells at all) resolves to string.
//
// The join rules, applying the type lattice:
//   - a single hypothesis type wins outright, carrying its own format;
//     for a temporal type this requires every observed cell to have matched
//     the *same* strftime pattern, or the column collapses to string.
//   - integer and number mix to number.
//   - any other mix (boolean with anything else, array with object, any
//     temporal with a non-matching type, etc.) collapses to string.
func Resolve(counts map[fieldtype.Hypothesis]int64) (fieldtype.Type, string) {
	types := make(map[fieldtype.Type]bool)
	patterns := make(map[string]bool)
	for h, n := range counts {
		if n == 0 || h.Type == fieldtype.Unknown {
			continue
		}
		types[h.Type] = true
		if h.Type.IsTemporal() {
			patterns[h.Pattern] = true
		}
	}

	if len(types) == 0 {
		return fieldtype.String, fieldtype.String.String()
	}

	if len(types) == 1 {
		var only fieldtype.Type
		for t := range types {
			only = t
		}
		if only.IsTemporal() {
			if len(patterns) == 1 {
				for p := range patterns {
					return only, p
				}
			}
			return fieldtype.String, fieldtype.String.String()
		}
		return only, only.String()
	}

	if allNumeric(types) {
		return fieldtype.Number, fieldtype.Number.String()
	}
	return fieldtype.String, fieldtype.String.String()
}

func allNumeric(types map[fieldtype.Type]bool) bool {
	for t := range types {
		if !t.IsNumeric() {
			return false
		}
	}
	return true
}
