// Package descriptor serializes a described Package to the Tabular Data
// Package shape: an ordered resources array, each with
// its dialect, row count and schema.fields, every stats slot either present
// with full float64 precision or omitted entirely.
package descriptor

import (
	"encoding/json"
	"io"

	"github.com/kindly/csvs-convert/internal/model"
)

// Emit writes pkg to w as indented JSON. Field and resource order is
// whatever order they were appended in model.Package/model.Schema, which
// Emit never reorders; omitted stats slots stay omitted rather than
// serialized as null, so the shape is identical whether a slot was never
// applicable or simply wasn't computed.
func Emit(w io.Writer, pkg *model.Package) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(pkg)
}

// Marshal returns pkg's descriptor JSON as a byte slice, for callers that
// want the bytes directly rather than writing to an io.Writer.
func Marshal(pkg *model.Package) ([]byte, error) {
	return json.MarshalIndent(pkg, "", "  ")
}
