package sqlemit

import (
	"strings"
	"testing"

	"github.com/kindly/csvs-convert/internal/model"
)

func TestGenerateDumpProducesCreateTableAndInserts(t *testing.T) {
	pkg := model.NewPackage()
	res := model.NewResource("widgets", "widgets.csv")
	res.Schema.Fields = []model.Field{
		{Name: "id", Type: "integer"},
		{Name: "name", Type: "string"},
	}
	pkg.Resources = append(pkg.Resources, res)

	rows := map[string][][]string{
		"widgets": {{"1", "alice"}, {"2", "bob's"}},
	}

	var buf strings.Builder
	if err := GenerateDump(&buf, SQLite, pkg, rows, 1); err != nil {
		t.Fatalf("GenerateDump: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, `CREATE TABLE "widgets"`) {
		t.Fatalf("expected a CREATE TABLE statement, got:\n%s", out)
	}
	if !strings.Contains(out, `"id" INTEGER`) || !strings.Contains(out, `"name" TEXT`) {
		t.Fatalf("expected mapped column types, got:\n%s", out)
	}
	if !strings.Contains(out, `(1, 'alice')`) {
		t.Fatalf("expected a rendered row, got:\n%s", out)
	}
	if !strings.Contains(out, `bob''s`) {
		t.Fatalf("expected single-quote escaping in string literal, got:\n%s", out)
	}
}

func TestGenerateDumpRendersPostgresBooleansAsKeywords(t *testing.T) {
	pkg := model.NewPackage()
	res := model.NewResource("widgets", "widgets.csv")
	res.Schema.Fields = []model.Field{
		{Name: "id", Type: "integer"},
		{Name: "active", Type: "boolean"},
	}
	pkg.Resources = append(pkg.Resources, res)

	rows := map[string][][]string{
		"widgets": {{"1", "true"}, {"2", "false"}},
	}

	var buf strings.Builder
	if err := GenerateDump(&buf, Postgres, pkg, rows, 10); err != nil {
		t.Fatalf("GenerateDump: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, `"active" BOOLEAN`) {
		t.Fatalf("expected a BOOLEAN column, got:\n%s", out)
	}
	if !strings.Contains(out, "(1, TRUE)") || !strings.Contains(out, "(2, FALSE)") {
		t.Fatalf("expected TRUE/FALSE boolean literals for postgres, got:\n%s", out)
	}
}

func TestGenerateDumpRendersSQLiteBooleansAsIntegers(t *testing.T) {
	pkg := model.NewPackage()
	res := model.NewResource("widgets", "widgets.csv")
	res.Schema.Fields = []model.Field{
		{Name: "id", Type: "integer"},
		{Name: "active", Type: "boolean"},
	}
	pkg.Resources = append(pkg.Resources, res)

	rows := map[string][][]string{
		"widgets": {{"1", "true"}, {"2", "false"}},
	}

	var buf strings.Builder
	if err := GenerateDump(&buf, SQLite, pkg, rows, 10); err != nil {
		t.Fatalf("GenerateDump: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "(1, 1)") || !strings.Contains(out, "(2, 0)") {
		t.Fatalf("expected 1/0 boolean literals for sqlite, got:\n%s", out)
	}
}

func TestByNameRejectsUnknownDialect(t *testing.T) {
	if _, err := ByName("oracle"); err == nil {
		t.Fatal("expected an error for an unsupported dialect")
	}
}
