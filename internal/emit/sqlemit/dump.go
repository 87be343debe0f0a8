package sqlemit

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/kindly/csvs-convert/internal/emit/rowconv"
	"github.com/kindly/csvs-convert/internal/model"
)

// DefaultBatchSize is how many rows one INSERT statement carries before the
// dump script starts a new one, keeping any single statement from growing
// unboundedly on a wide table.
const DefaultBatchSize = 500

var createTableTmpl = template.Must(template.New("createTable").Parse(
	`CREATE TABLE {{.Name}} (
{{range $i, $col := .Columns}}{{if $i}},
{{end}}  {{$col.Name}} {{$col.Type}}{{end}}
);
`))

type tableColumn struct {
	Name string
	Type string
}

type tableData struct {
	Name    string
	Columns []tableColumn
}

// GenerateDump writes a complete dump script for pkg to w: one CREATE TABLE
// per resource followed by its rows as batched INSERT statements, in
// resource and row order. rows maps a resource's name to its raw string
// rows (header excluded), each in the same column order as its schema.
func GenerateDump(w io.Writer, d Dialect, pkg *model.Package, rows map[string][][]string, batchSize int) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	for _, res := range pkg.Resources {
		table := tableData{Name: d.QuoteIdent(res.Name)}
		for _, f := range res.Schema.Fields {
			table.Columns = append(table.Columns, tableColumn{Name: d.QuoteIdent(f.Name), Type: d.ColumnType(f.Type)})
		}
		if err := createTableTmpl.Execute(w, table); err != nil {
			return fmt.Errorf("writing CREATE TABLE for %s: %w", res.Name, err)
		}

		resRows := rows[res.Name]
		for start := 0; start < len(resRows); start += batchSize {
			end := start + batchSize
			if end > len(resRows) {
				end = len(resRows)
			}
			if err := writeInsertBatch(w, d, table, res.Schema.Fields, resRows[start:end]); err != nil {
				return fmt.Errorf("writing INSERT batch for %s: %w", res.Name, err)
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}

func writeInsertBatch(w io.Writer, d Dialect, table tableData, fields []model.Field, batch [][]string) error {
	if len(batch) == 0 {
		return nil
	}
	var colNames []string
	for _, c := range table.Columns {
		colNames = append(colNames, c.Name)
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "INSERT INTO %s (%s) VALUES\n", table.Name, strings.Join(colNames, ", "))
	for i, row := range batch {
		buf.WriteString("  (")
		for j, cell := range row {
			if j > 0 {
				buf.WriteString(", ")
			}
			if j < len(fields) {
				buf.WriteString(sqlLiteral(d, rowconv.Convert(cell, fields[j])))
			} else {
				buf.WriteString("NULL")
			}
		}
		buf.WriteString(")")
		if i < len(batch)-1 {
			buf.WriteString(",\n")
		} else {
			buf.WriteString(";\n")
		}
	}
	_, err := io.WriteString(w, buf.String())
	return err
}

// sqlLiteral renders one converted cell value as a SQL literal. Strings are
// single-quote escaped; everything else formats in its natural SQL form.
// Booleans are dialect-sensitive: Postgres's BOOLEAN columns reject a bare
// integer literal, so it gets the TRUE/FALSE keywords while every other
// dialect keeps the 1/0 its INTEGER-typed boolean column accepts.
func sqlLiteral(d Dialect, v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if d.Name == Postgres.Name {
			if x {
				return "TRUE"
			}
			return "FALSE"
		}
		if x {
			return "1"
		}
		return "0"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case time.Time:
		return "'" + x.Format("2006-01-02 15:04:05") + "'"
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	default:
		encoded, err := json.Marshal(x)
		if err != nil {
			return "NULL"
		}
		return "'" + strings.ReplaceAll(string(encoded), "'", "''") + "'"
	}
}
