// Package archiveemit bundles a finished Package into a single .zip archive:
// the descriptor JSON plus one CSV re-serialization per resource, so a
// consumer without a database or spreadsheet reader can still get everything
// in one file. There is no third-party archiving library anywhere in the
// corpus to ground this on (see DESIGN.md), so this is the one emitter built
// directly on the standard library's archive/zip.
package archiveemit

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/kindly/csvs-convert/internal/descriptor"
	"github.com/kindly/csvs-convert/internal/model"
)

// descriptorEntryName is the path the descriptor JSON is stored under
// inside the archive.
const descriptorEntryName = "datapackage.json"

// WritePackage writes pkg as a .zip archive to w: datapackage.json at the
// root, followed by one <resource>.csv per resource in Package order, each
// re-serialized from its already-converted rows with a header row matching
// the resource's schema field order.
func WritePackage(w io.Writer, pkg *model.Package, rows map[string][][]string) error {
	zw := zip.NewWriter(w)

	descBytes, err := descriptor.Marshal(pkg)
	if err != nil {
		return fmt.Errorf("marshaling descriptor: %w", err)
	}
	descFile, err := zw.Create(descriptorEntryName)
	if err != nil {
		return fmt.Errorf("creating %s entry: %w", descriptorEntryName, err)
	}
	if _, err := descFile.Write(descBytes); err != nil {
		return fmt.Errorf("writing %s entry: %w", descriptorEntryName, err)
	}

	for _, res := range pkg.Resources {
		if err := writeResourceCSV(zw, res, rows[res.Name]); err != nil {
			return err
		}
	}

	return zw.Close()
}

func writeResourceCSV(zw *zip.Writer, res *model.Resource, rows [][]string) error {
	entryName := res.Name + ".csv"
	entry, err := zw.Create(entryName)
	if err != nil {
		return fmt.Errorf("creating %s entry: %w", entryName, err)
	}

	cw := csv.NewWriter(entry)
	header := make([]string, len(res.Schema.Fields))
	for i, f := range res.Schema.Fields {
		header[i] = f.Name
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header for %s: %w", res.Name, err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row for %s: %w", res.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
