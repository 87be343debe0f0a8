// Package sqlemit turns a finished Package, plus each resource's raw rows,
// into SQL: either a dialect-specific dump script of CREATE TABLE and
// batched INSERT statements, or a direct load over an open database/sql
// connection.
package sqlemit

import (
	"fmt"
	"strings"
)

// Dialect is the small per-target-database table the emitter consults for
// identifier quoting and field type -> column type mapping. The three
// built-in dialects cover every SQL driver wired into this module.
type Dialect struct {
	Name       string
	quoteChar  byte
	columnType map[string]string
}

func (d Dialect) QuoteIdent(name string) string {
	q := string(d.quoteChar)
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// ColumnType maps one inferred field type to this dialect's column type,
// falling back to its own TEXT-equivalent for a type it has no special
// mapping for (array/object, carried as serialized JSON text).
func (d Dialect) ColumnType(fieldType string) string {
	if t, ok := d.columnType[fieldType]; ok {
		return t
	}
	return d.columnType["string"]
}

var SQLite = Dialect{
	Name:      "sqlite",
	quoteChar: '"',
	columnType: map[string]string{
		"integer":  "INTEGER",
		"number":   "REAL",
		"boolean":  "INTEGER",
		"date":     "TEXT",
		"datetime": "TEXT",
		"time":     "TEXT",
		"array":    "TEXT",
		"object":   "TEXT",
		"string":   "TEXT",
	},
}

var MySQL = Dialect{
	Name:      "mysql",
	quoteChar: '`',
	columnType: map[string]string{
		"integer":  "BIGINT",
		"number":   "DOUBLE",
		"boolean":  "TINYINT(1)",
		"date":     "DATE",
		"datetime": "DATETIME",
		"time":     "TIME",
		"array":    "JSON",
		"object":   "JSON",
		"string":   "TEXT",
	},
}

var Postgres = Dialect{
	Name:      "postgres",
	quoteChar: '"',
	columnType: map[string]string{
		"integer":  "BIGINT",
		"number":   "DOUBLE PRECISION",
		"boolean":  "BOOLEAN",
		"date":     "DATE",
		"datetime": "TIMESTAMP",
		"time":     "TIME",
		"array":    "JSONB",
		"object":   "JSONB",
		"string":   "TEXT",
	},
}

// ByName resolves a target SQL dialect by its driver name.
func ByName(name string) (Dialect, error) {
	switch name {
	case "sqlite":
		return SQLite, nil
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql":
		return Postgres, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported SQL dialect %q", name)
	}
}
