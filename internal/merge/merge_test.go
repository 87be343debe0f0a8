package merge

import (
	"testing"

	"github.com/kindly/csvs-convert/internal/fieldtype"
)

func counts(hs ...fieldtype.Hypothesis) map[fieldtype.Hypothesis]int64 {
	out := make(map[fieldtype.Hypothesis]int64)
	for _, h := range hs {
		out[h]++
	}
	return out
}

func TestResolveEmptyColumnIsString(t *testing.T) {
	typ, format := Resolve(map[fieldtype.Hypothesis]int64{})
	if typ != fieldtype.String || format != "string" {
		t.Fatalf("Resolve(empty) = %v/%v, want String/string", typ, format)
	}
}

func TestResolveSingleTypeWins(t *testing.T) {
	typ, format := Resolve(counts(
		fieldtype.Hypothesis{Type: fieldtype.Integer},
		fieldtype.Hypothesis{Type: fieldtype.Integer},
	))
	if typ != fieldtype.Integer || format != "integer" {
		t.Fatalf("Resolve(integer,integer) = %v/%v, want Integer/integer", typ, format)
	}
}

func TestResolveIntegerNumberMixToNumber(t *testing.T) {
	typ, format := Resolve(counts(
		fieldtype.Hypothesis{Type: fieldtype.Integer},
		fieldtype.Hypothesis{Type: fieldtype.Number},
	))
	if typ != fieldtype.Number || format != "number" {
		t.Fatalf("Resolve(integer,number) = %v/%v, want Number/number", typ, format)
	}
}

func TestResolveBooleanOnlyJoinsWithItself(t *testing.T) {
	typ, _ := Resolve(counts(
		fieldtype.Hypothesis{Type: fieldtype.Boolean},
		fieldtype.Hypothesis{Type: fieldtype.Integer},
	))
	if typ != fieldtype.String {
		t.Fatalf("Resolve(boolean,integer) = %v, want String", typ)
	}
}

func TestResolveArrayObjectCollapsesToString(t *testing.T) {
	typ, _ := Resolve(counts(
		fieldtype.Hypothesis{Type: fieldtype.Array},
		fieldtype.Hypothesis{Type: fieldtype.Object},
	))
	if typ != fieldtype.String {
		t.Fatalf("Resolve(array,object) = %v, want String", typ)
	}
}

func TestResolveSameTemporalPatternWins(t *testing.T) {
	typ, format := Resolve(counts(
		fieldtype.Hypothesis{Type: fieldtype.Date, Pattern: "%Y-%m-%d"},
		fieldtype.Hypothesis{Type: fieldtype.Date, Pattern: "%Y-%m-%d"},
	))
	if typ != fieldtype.Date || format != "%Y-%m-%d" {
		t.Fatalf("Resolve(date,date same pattern) = %v/%v, want Date/%%Y-%%m-%%d", typ, format)
	}
}

func TestResolveMixedTemporalPatternsCollapseToString(t *testing.T) {
	typ, _ := Resolve(counts(
		fieldtype.Hypothesis{Type: fieldtype.Date, Pattern: "%Y-%m-%d"},
		fieldtype.Hypothesis{Type: fieldtype.Date, Pattern: "%d/%m/%Y"},
	))
	if typ != fieldtype.String {
		t.Fatalf("Resolve(date,date mixed pattern) = %v, want String", typ)
	}
}

func TestResolveTemporalWithOtherTypeCollapsesToString(t *testing.T) {
	typ, _ := Resolve(counts(
		fieldtype.Hypothesis{Type: fieldtype.Date, Pattern: "%Y-%m-%d"},
		fieldtype.Hypothesis{Type: fieldtype.Integer},
	))
	if typ != fieldtype.String {
		t.Fatalf("Resolve(date,integer) = %v, want String", typ)
	}
}
