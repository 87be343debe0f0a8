package descriptor

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/kindly/csvs-convert/internal/model"
)

func TestEmitOmitsAbsentStatsSlots(t *testing.T) {
	pkg := model.NewPackage()
	res := model.NewResource("widgets", "widgets.csv")
	res.Schema.Fields = []model.Field{
		{Name: "name", Type: "string", Format: "string", Stats: model.Statistics{Count: 2, EmptyCount: 0}},
	}
	pkg.Resources = append(pkg.Resources, res)

	var buf strings.Builder
	if err := Emit(&buf, pkg); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(buf.String()), &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	resources := decoded["resources"].([]any)
	fields := resources[0].(map[string]any)["schema"].(map[string]any)["fields"].([]any)
	stats := fields[0].(map[string]any)["stats"].(map[string]any)
	if _, ok := stats["sum"]; ok {
		t.Fatal("sum should be omitted for a string field")
	}
	if _, ok := stats["median"]; ok {
		t.Fatal("median should be omitted for a string field")
	}
	if _, ok := stats["count"]; !ok {
		t.Fatal("count should always be present")
	}
}

func TestMarshalPreservesFieldOrder(t *testing.T) {
	pkg := model.NewPackage()
	res := model.NewResource("widgets", "widgets.csv")
	res.Schema.Fields = []model.Field{
		{Name: "z", Type: "string", Format: "string"},
		{Name: "a", Type: "string", Format: "string"},
	}
	pkg.Resources = append(pkg.Resources, res)

	data, err := Marshal(pkg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	zIdx := strings.Index(string(data), `"name": "z"`)
	aIdx := strings.Index(string(data), `"name": "a"`)
	if zIdx == -1 || aIdx == -1 || zIdx > aIdx {
		t.Fatal("expected field z to serialize before field a, preserving schema order")
	}
}
