package resource

import (
	"context"
	"strings"
	"testing"

	"github.com/kindly/csvs-convert/internal/model"
)

func describeString(t *testing.T, csvText string, opts Options) *model.Resource {
	t.Helper()
	opts.Stats = true
	result, err := Describe(context.Background(), "widgets", "widgets.csv", strings.NewReader(csvText), opts)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	return result.Resource
}

func TestDescribeBasicCSV(t *testing.T) {
	csvText := "id,name,active\n1,alice,true\n2,bob,false\n3,carol,true\n"
	res := describeString(t, csvText, Options{Threads: 2})

	if res.RowCount != 3 {
		t.Fatalf("RowCount = %d, want 3", res.RowCount)
	}
	if len(res.Schema.Fields) != 3 {
		t.Fatalf("len(Fields) = %d, want 3", len(res.Schema.Fields))
	}
	if res.Schema.Fields[0].Type != "integer" {
		t.Fatalf("id type = %q, want integer", res.Schema.Fields[0].Type)
	}
	if res.Schema.Fields[2].Type != "boolean" {
		t.Fatalf("active type = %q, want boolean", res.Schema.Fields[2].Type)
	}
}

func TestDescribeSniffsSemicolonDelimiter(t *testing.T) {
	csvText := "id;name\n1;alice\n2;bob\n"
	res := describeString(t, csvText, Options{Threads: 1})
	if res.Dialect.Delimiter != ";" {
		t.Fatalf("Delimiter = %q, want ;", res.Dialect.Delimiter)
	}
	if len(res.Schema.Fields) != 2 {
		t.Fatalf("len(Fields) = %d, want 2", len(res.Schema.Fields))
	}
}

func TestDescribeSynthesizesBlankHeaderNames(t *testing.T) {
	csvText := "id,,active\n1,alice,true\n"
	res := describeString(t, csvText, Options{Threads: 1})
	if res.Schema.Fields[1].Name != "field_2" {
		t.Fatalf("blank header name = %q, want field_2", res.Schema.Fields[1].Name)
	}
}

func TestDescribeRecordsRowShapeErrors(t *testing.T) {
	csvText := "id,name\n1,alice\n2\n"
	res := describeString(t, csvText, Options{Threads: 1})
	if len(res.ParseErrors) == 0 {
		t.Fatal("expected a parse error for the short row")
	}
}

func TestDescribeWidensHeaderForLongerRows(t *testing.T) {
	csvText := "id,name\n1,alice,extra1\n2,bob,extra2,more\n"
	res := describeString(t, csvText, Options{Threads: 1})
	if len(res.Schema.Fields) != 4 {
		t.Fatalf("len(Fields) = %d, want 4 widened columns", len(res.Schema.Fields))
	}
	if res.Schema.Fields[2].Name != "field_3" || res.Schema.Fields[3].Name != "field_4" {
		t.Fatalf("synthetic names = %q, %q, want field_3, field_4", res.Schema.Fields[2].Name, res.Schema.Fields[3].Name)
	}
	if res.Schema.Fields[3].Stats.Count != 1 {
		t.Fatalf("field_4 count = %d, want 1: only the last row had it", res.Schema.Fields[3].Stats.Count)
	}
	if len(res.ParseErrors) != 0 {
		t.Fatalf("expected no parse errors for widened rows, got %v", res.ParseErrors)
	}
}

func TestDescribeSampleSizeLimitsTypeInferenceNotStats(t *testing.T) {
	csvText := "id\n1\n2\nabc\nxyz\nqrs\n"
	res := describeString(t, csvText, Options{Threads: 1, SampleSize: 2})
	if res.RowCount != 5 {
		t.Fatalf("RowCount = %d, want 5: sample_size must not cap row/stat accumulation", res.RowCount)
	}
	if res.Schema.Fields[0].Stats.Count != 5 {
		t.Fatalf("Stats.Count = %d, want 5", res.Schema.Fields[0].Stats.Count)
	}
	if res.Schema.Fields[0].Type != "integer" {
		t.Fatalf("Type = %q, want integer: only the first sample_size rows should vote", res.Schema.Fields[0].Type)
	}
}

func TestDescribeCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	csvText := "id\n1\n2\n3\n"
	_, err := Describe(ctx, "widgets", "widgets.csv", strings.NewReader(csvText), Options{Threads: 1, Stats: true})
	if err == nil {
		t.Fatal("expected an error from an already-cancelled context")
	}
}
