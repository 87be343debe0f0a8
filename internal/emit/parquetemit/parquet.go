// Package parquetemit writes one Parquet file per resource of a finished
// Package, building the column schema at runtime from each resource's
// inferred field types since, unlike a loader reading a known struct, the
// types here are only known after inference.
package parquetemit

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/kindly/csvs-convert/internal/emit/rowconv"
	"github.com/kindly/csvs-convert/internal/model"
)

// schemaField and schemaNode mirror the JSON schema shape parquet-go's
// dynamic (non-struct) writer path expects: a root node whose Fields list
// one Tag string per column.
type schemaField struct {
	Tag string `json:"Tag"`
}

type schemaNode struct {
	Tag    string        `json:"Tag"`
	Fields []schemaField `json:"Fields"`
}

// parquetType maps one inferred field type to a parquet-go column tag,
// falling back to a UTF8 byte array for every type with no native numeric
// or boolean representation (temporal types are written out as their
// formatted strings, arrays/objects as their JSON text).
func parquetType(name, fieldType string) string {
	switch fieldType {
	case "integer":
		return fmt.Sprintf("name=%s, type=INT64, repetitiontype=OPTIONAL", name)
	case "number":
		return fmt.Sprintf("name=%s, type=DOUBLE, repetitiontype=OPTIONAL", name)
	case "boolean":
		return fmt.Sprintf("name=%s, type=BOOLEAN, repetitiontype=OPTIONAL", name)
	default:
		return fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", name)
	}
}

func buildSchema(fields []model.Field) ([]byte, error) {
	root := schemaNode{Tag: "name=parquet_go_root, repetitiontype=REQUIRED"}
	for _, f := range fields {
		root.Fields = append(root.Fields, schemaField{Tag: parquetType(f.Name, f.Type)})
	}
	return json.Marshal(root)
}

// rowJSON renders one raw CSV row as the JSON object buildSchema's writer
// expects: integer/number/boolean fields as their native JSON types,
// everything else as a string.
func rowJSON(row []string, fields []model.Field) ([]byte, error) {
	obj := make(map[string]any, len(fields))
	for i, f := range fields {
		if i >= len(row) {
			continue
		}
		v := rowconv.Convert(row[i], f)
		switch f.Type {
		case "integer", "number", "boolean":
			obj[f.Name] = v
		default:
			if v == nil {
				continue
			}
			obj[f.Name] = fmt.Sprint(v)
		}
	}
	return json.Marshal(obj)
}

// WriteResource writes one resource's rows to a Parquet file at path,
// using np parallel row-group writers (pass 1 for small resources).
func WriteResource(path string, res *model.Resource, rows [][]string, np int64) error {
	if np < 1 {
		np = 1
	}
	schema, err := buildSchema(res.Schema.Fields)
	if err != nil {
		return fmt.Errorf("building parquet schema for %s: %w", res.Name, err)
	}

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("opening parquet file %s: %w", path, err)
	}
	defer fw.Close()

	pw, err := writer.NewJSONWriter(string(schema), fw, np)
	if err != nil {
		return fmt.Errorf("creating parquet writer for %s: %w", res.Name, err)
	}

	for _, row := range rows {
		encoded, err := rowJSON(row, res.Schema.Fields)
		if err != nil {
			return fmt.Errorf("encoding row for %s: %w", res.Name, err)
		}
		if err := pw.Write(string(encoded)); err != nil {
			return fmt.Errorf("writing row for %s: %w", res.Name, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("closing parquet writer for %s: %w", res.Name, err)
	}
	return nil
}

// WritePackage writes every resource of pkg to its own <dir>/<name>.parquet file.
func WritePackage(dir string, pkg *model.Package, rows map[string][][]string, np int64) error {
	for _, res := range pkg.Resources {
		path := filepath.Join(dir, res.Name+".parquet")
		if err := WriteResource(path, res, rows[res.Name], np); err != nil {
			return err
		}
	}
	return nil
}
