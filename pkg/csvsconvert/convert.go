package csvsconvert

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kindly/csvs-convert/internal/emit/archiveemit"
	"github.com/kindly/csvs-convert/internal/emit/parquetemit"
	"github.com/kindly/csvs-convert/internal/emit/sqlemit"
	"github.com/kindly/csvs-convert/internal/emit/xlsxemit"
	"github.com/kindly/csvs-convert/internal/model"
	"github.com/kindly/csvs-convert/internal/resource"
)

// Format names one of the conversion targets the convert entry point can
// emit to, mirroring the CLI's --to flag values.
type Format string

const (
	FormatSQL      Format = "sql"
	FormatSQLite   Format = "sqlite"
	FormatMySQL    Format = "mysql"
	FormatPostgres Format = "postgres"
	FormatParquet  Format = "parquet"
	FormatXLSX     Format = "xlsx"
	FormatZip      Format = "zip"
)

// ConvertOptions extends the describer's Options with the destination
// format, an output path (a file for sql/xlsx/zip, a directory for
// parquet's one-file-per-resource layout, ignored when DSN is set), and an
// optional DSN that, for the three SQL dialects, switches from writing a
// dump script to loading directly into that database.
type ConvertOptions struct {
	Options
	Format Format
	Output string
	DSN    string
}

// ConvertFiles describes paths, re-reads each resource's rows from disk
// using its detected dialect, and emits them per opts.Format. It returns
// the Package produced by the describe step even when emitting fails
// partway through, so callers can still inspect what was described.
func ConvertFiles(ctx context.Context, paths []string, opts ConvertOptions) (*model.Package, error) {
	pkg, err := DescribeFiles(ctx, paths, opts.Options)
	if err != nil {
		return pkg, err
	}

	pathByName := make(map[string]string, len(paths))
	for _, p := range paths {
		pathByName[stemName(p)] = p
	}

	rows := make(map[string][][]string, len(pkg.Resources))
	for _, res := range pkg.Resources {
		srcPath, ok := pathByName[res.Name]
		if !ok {
			continue
		}
		resRows, err := rereadRows(srcPath, res)
		if err != nil {
			return pkg, err
		}
		rows[res.Name] = resRows
	}

	return pkg, emit(ctx, pkg, rows, opts)
}

// rereadRows reopens a resource's source file and replays its data rows
// (header excluded) using the dialect Describe already detected for it, so
// the emitters work from the same delimiter/quote interpretation the
// schema was inferred from.
func rereadRows(path string, res *model.Resource) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reopening %s for conversion: %w", path, err)
	}
	defer f.Close()

	delim := ','
	if res.Dialect.Delimiter != "" {
		delim = []rune(res.Dialect.Delimiter)[0]
	}
	quote := '"'
	if res.Dialect.QuoteChar != "" {
		quote = []rune(res.Dialect.QuoteChar)[0]
	}

	cr := resource.NewCSVReader(f, delim, quote)
	if _, err := cr.Read(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("re-reading header for %s: %w", res.Name, err)
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("re-reading row for %s: %w", res.Name, err)
		}
		row := make([]string, len(rec))
		copy(row, rec)
		rows = append(rows, row)
	}
	return rows, nil
}

func emit(ctx context.Context, pkg *model.Package, rows map[string][][]string, opts ConvertOptions) error {
	switch opts.Format {
	case FormatParquet:
		return parquetemit.WritePackage(opts.Output, pkg, rows, int64(max(opts.Options.Threads, 1)))

	case FormatXLSX:
		return xlsxemit.WritePackage(opts.Output, pkg, rows)

	case FormatZip:
		f, err := os.Create(opts.Output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", opts.Output, err)
		}
		defer f.Close()
		return archiveemit.WritePackage(f, pkg, rows)

	case FormatSQL, FormatSQLite, FormatMySQL, FormatPostgres:
		return emitSQL(ctx, pkg, rows, opts)

	default:
		return fmt.Errorf("unsupported conversion format %q", opts.Format)
	}
}

func emitSQL(ctx context.Context, pkg *model.Package, rows map[string][][]string, opts ConvertOptions) error {
	dialectName := string(opts.Format)
	if opts.Format == FormatSQL {
		dialectName = string(FormatSQLite)
	}
	dialect, err := sqlemit.ByName(dialectName)
	if err != nil {
		return err
	}

	if opts.DSN != "" {
		db, err := sqlemit.Open(dialect, opts.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		return sqlemit.LoadDirect(ctx, db, dialect, pkg, rows)
	}

	var out io.Writer = os.Stdout
	if opts.Output != "" && opts.Output != "-" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", opts.Output, err)
		}
		defer f.Close()
		out = f
	}
	return sqlemit.GenerateDump(out, dialect, pkg, rows, sqlemit.DefaultBatchSize)
}
