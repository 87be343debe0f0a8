package csvsconvert

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kindly/csvs-convert/internal/config"
)

func TestFromConfigDefaultsThreadsToNumCPU(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Describe.Threads = 0
	opts := FromConfig(cfg)
	if opts.Threads <= 0 {
		t.Fatalf("Threads = %d, want a positive fallback", opts.Threads)
	}
}

func TestFromConfigTranslatesDelimiterAndQuote(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Describe.Delimiter = ";"
	cfg.Describe.Quote = "'"
	opts := FromConfig(cfg)
	if opts.Delimiter != ';' {
		t.Fatalf("Delimiter = %q, want ;", opts.Delimiter)
	}
	if opts.Quote != '\'' {
		t.Fatalf("Quote = %q, want '", opts.Quote)
	}
}

func TestDescribeFilesDescribesEachPath(t *testing.T) {
	dir := t.TempDir()
	widgetsPath := filepath.Join(dir, "widgets.csv")
	if err := os.WriteFile(widgetsPath, []byte("id,name\n1,alice\n2,bob\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	pkg, err := DescribeFiles(context.Background(), []string{widgetsPath}, Options{Threads: 2, Stats: true})
	if err != nil {
		t.Fatalf("DescribeFiles: %v", err)
	}
	if len(pkg.Resources) != 1 {
		t.Fatalf("len(Resources) = %d, want 1", len(pkg.Resources))
	}
	if pkg.Resources[0].Name != "widgets" {
		t.Fatalf("Name = %q, want widgets", pkg.Resources[0].Name)
	}
	if pkg.Resources[0].RowCount != 2 {
		t.Fatalf("RowCount = %d, want 2", pkg.Resources[0].RowCount)
	}
}

func TestDescribeFilesReturnsOpenErrorForMissingFile(t *testing.T) {
	_, err := DescribeFiles(context.Background(), []string{"/no/such/file.csv"}, Options{Threads: 1})
	if err == nil {
		t.Fatal("expected an error for a missing input file")
	}
}
