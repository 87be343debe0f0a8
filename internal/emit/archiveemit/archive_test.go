package archiveemit

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/kindly/csvs-convert/internal/model"
)

func TestWritePackageBundlesDescriptorAndCSVs(t *testing.T) {
	pkg := model.NewPackage()
	res := model.NewResource("widgets", "widgets.csv")
	res.Schema.Fields = []model.Field{{Name: "id", Type: "integer"}, {Name: "name", Type: "string"}}
	pkg.Resources = append(pkg.Resources, res)

	rows := map[string][][]string{
		"widgets": {{"1", "alice"}, {"2", "bob"}},
	}

	var buf bytes.Buffer
	if err := WritePackage(&buf, pkg, rows); err != nil {
		t.Fatalf("WritePackage: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	if !contains(names, "datapackage.json") || !contains(names, "widgets.csv") {
		t.Fatalf("unexpected archive contents: %v", names)
	}

	csvFile, err := zr.Open("widgets.csv")
	if err != nil {
		t.Fatalf("opening widgets.csv: %v", err)
	}
	defer csvFile.Close()
	body, err := io.ReadAll(csvFile)
	if err != nil {
		t.Fatalf("reading widgets.csv: %v", err)
	}
	text := string(body)
	if !strings.Contains(text, "id,name") {
		t.Fatalf("expected a header row, got:\n%s", text)
	}
	if !strings.Contains(text, "1,alice") {
		t.Fatalf("expected a data row, got:\n%s", text)
	}
}

func contains(ss []string, target string) bool {
	for _, s := range ss {
		if s == target {
			return true
		}
	}
	return false
}
