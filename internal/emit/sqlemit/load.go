package sqlemit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/kindly/csvs-convert/internal/emit/rowconv"
	"github.com/kindly/csvs-convert/internal/model"
)

// driverName is the database/sql driver registered for each dialect. The
// postgres entry goes through pgx's stdlib adapter so callers get a plain
// *sql.DB even though loading itself uses pgx's native CopyFrom.
var driverName = map[string]string{
	"sqlite":   "sqlite",
	"mysql":    "mysql",
	"postgres": "pgx",
}

// Open opens a database/sql connection for dialect d against dsn.
func Open(d Dialect, dsn string) (*sql.DB, error) {
	name, ok := driverName[d.Name]
	if !ok {
		return nil, fmt.Errorf("no database/sql driver registered for dialect %q", d.Name)
	}
	return sql.Open(name, dsn)
}

// LoadDirect creates one table per resource and loads its rows over db. For
// postgres it bypasses database/sql's row-at-a-time Exec in favor of pgx's
// native CopyFrom on the pgx connection behind db (see copyPostgres); every other dialect
// loads through batched INSERT statements executed in one transaction per
// resource.
func LoadDirect(ctx context.Context, db *sql.DB, d Dialect, pkg *model.Package, rows map[string][][]string) error {
	for _, res := range pkg.Resources {
		table := tableData{Name: d.QuoteIdent(res.Name)}
		for _, f := range res.Schema.Fields {
			table.Columns = append(table.Columns, tableColumn{Name: d.QuoteIdent(f.Name), Type: d.ColumnType(f.Type)})
		}

		var ddl strings.Builder
		if err := createTableTmpl.Execute(&ddl, table); err != nil {
			return fmt.Errorf("rendering CREATE TABLE for %s: %w", res.Name, err)
		}
		if _, err := db.ExecContext(ctx, ddl.String()); err != nil {
			return fmt.Errorf("creating table %s: %w", res.Name, err)
		}

		resRows := rows[res.Name]
		if len(resRows) == 0 {
			continue
		}

		if d.Name == "postgres" {
			if err := copyPostgres(ctx, db, res, resRows); err != nil {
				return fmt.Errorf("loading %s via COPY: %w", res.Name, err)
			}
			continue
		}
		if err := insertDirect(ctx, db, d, table, res, resRows); err != nil {
			return fmt.Errorf("loading %s: %w", res.Name, err)
		}
	}
	return nil
}

func insertDirect(ctx context.Context, db *sql.DB, d Dialect, table tableData, res *model.Resource, rows [][]string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var colNames []string
	for _, c := range table.Columns {
		colNames = append(colNames, c.Name)
	}
	placeholders := make([]string, len(colNames))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table.Name, strings.Join(colNames, ", "), strings.Join(placeholders, ", "))

	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return err
	}
	defer prepared.Close()

	for _, row := range rows {
		args := make([]any, len(res.Schema.Fields))
		for j, field := range res.Schema.Fields {
			if j < len(row) {
				args[j] = rowconv.Convert(row[j], field)
			}
		}
		if _, err := prepared.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// copyPostgres acquires the pgx connection underlying db's pool (via the
// stdlib adapter's Conn accessor) and streams rows through pgx.CopyFrom,
// the same bulk-load path the pgx driver exposes natively, one order of
// magnitude faster than row-at-a-time INSERTs for large resources.
func copyPostgres(ctx context.Context, db *sql.DB, res *model.Resource, rows [][]string) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	var copyErr error
	err = conn.Raw(func(driverConn any) error {
		pgxConn := driverConn.(*stdlib.Conn).Conn()
		colNames := make([]string, len(res.Schema.Fields))
		for i, f := range res.Schema.Fields {
			colNames[i] = f.Name
		}
		source := &copyRowSource{fields: res.Schema.Fields, rows: rows}
		_, copyErr = pgxConn.CopyFrom(ctx, pgx.Identifier{res.Name}, colNames, source)
		return nil
	})
	if err != nil {
		return err
	}
	return copyErr
}

// copyRowSource adapts this emitter's [][]string rows to pgx.CopyFromSource,
// converting each cell with rowconv.Convert as it is consumed.
type copyRowSource struct {
	fields []model.Field
	rows   [][]string
	idx    int
}

func (s *copyRowSource) Next() bool {
	s.idx++
	return s.idx <= len(s.rows)
}

func (s *copyRowSource) Values() ([]any, error) {
	row := s.rows[s.idx-1]
	values := make([]any, len(s.fields))
	for j, field := range s.fields {
		if j < len(row) {
			values[j] = rowconv.Convert(row[j], field)
		}
	}
	return values, nil
}

func (s *copyRowSource) Err() error { return nil }
