package parquetemit

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/kindly/csvs-convert/internal/model"
)

func TestWriteResourceProducesAFile(t *testing.T) {
	res := model.NewResource("widgets", "widgets.csv")
	res.Schema.Fields = []model.Field{
		{Name: "id", Type: "integer"},
		{Name: "price", Type: "number"},
		{Name: "active", Type: "boolean"},
		{Name: "name", Type: "string"},
	}
	rows := [][]string{
		{"1", "9.99", "true", "widget one"},
		{"2", "4.5", "false", "widget two"},
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "widgets.parquet")
	if err := WriteResource(path, res, rows, 1); err != nil {
		t.Fatalf("WriteResource: %v", err)
	}
}

func TestBuildSchemaMapsFieldTypes(t *testing.T) {
	fields := []model.Field{
		{Name: "id", Type: "integer"},
		{Name: "name", Type: "string"},
	}
	schema, err := buildSchema(fields)
	if err != nil {
		t.Fatalf("buildSchema: %v", err)
	}
	s := string(schema)
	if !strings.Contains(s, "type=INT64") {
		t.Fatalf("expected an INT64 column tag, got %s", s)
	}
	if !strings.Contains(s, "type=BYTE_ARRAY") {
		t.Fatalf("expected a BYTE_ARRAY column tag, got %s", s)
	}
}
