// Package csvsconvert is the library surface: the two entry points that
// turn a set of CSV inputs plus a closed option set into a fully described
// Tabular Data Package, independent of how the caller obtained the config
// (file, flags, or hand-built Options) or the inputs (paths or readers).
package csvsconvert

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kindly/csvs-convert/internal/config"
	"github.com/kindly/csvs-convert/internal/convertutil"
	"github.com/kindly/csvs-convert/internal/model"
	"github.com/kindly/csvs-convert/internal/orchestrator"
	"github.com/kindly/csvs-convert/internal/sketch"
)

// Options is the describer's closed option set at the library boundary,
// independent of the YAML/CUE config shape: the six settings plus the
// orchestrator's foreign-key switch.
type Options struct {
	Threads        int
	Delimiter      rune
	Quote          rune
	Stats          bool
	ForceString    bool
	SampleSize     int
	ForeignKeys    bool
	ExactThreshold int
}

// FromConfig resolves a loaded config.Config's Describe section into
// Options. A zero Threads falls back to the number of logical cores, since
// that's this field's documented default; an empty Delimiter leaves
// sniffing enabled; an empty Quote falls back to the default double-quote.
func FromConfig(cfg *config.Config) Options {
	opts := Options{
		Threads:        cfg.Describe.Threads,
		Stats:          cfg.Describe.Stats,
		ForceString:    cfg.Describe.ForceString,
		SampleSize:     cfg.Describe.SampleSize,
		ExactThreshold: sketch.DefaultExactThreshold,
	}
	if opts.Threads <= 0 {
		opts.Threads = runtime.NumCPU()
	}
	if cfg.Describe.Delimiter != "" {
		opts.Delimiter = []rune(cfg.Describe.Delimiter)[0]
	}
	if cfg.Describe.Quote != "" {
		opts.Quote = []rune(cfg.Describe.Quote)[0]
	}
	return opts
}

func (o Options) orchestratorOptions() orchestrator.Options {
	return orchestrator.Options{
		Threads:        o.Threads,
		Delimiter:      o.Delimiter,
		Quote:          o.Quote,
		Stats:          o.Stats,
		ForceString:    o.ForceString,
		SampleSize:     o.SampleSize,
		ExactThreshold: o.ExactThreshold,
		ForeignKeys:    o.ForeignKeys,
	}
}

// NamedReader pairs a logical resource name with the stream to read it
// from, for callers that already have open readers (e.g. embedded assets,
// HTTP bodies, in-memory buffers) rather than filesystem paths.
type NamedReader struct {
	Name string
	Path string
	Data io.Reader
}

// DescribeFiles opens every path in paths and describes them as a single
// Package. A resource's logical name is its file stem (extension
// stripped); collisions are suffixed by the orchestrator. Every opened
// file is closed before DescribeFiles returns.
func DescribeFiles(ctx context.Context, paths []string, opts Options) (*model.Package, error) {
	readers := make([]NamedReader, 0, len(paths))
	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, convertutil.WrapError(&convertutil.OpenError{Path: p, Err: err}, "opening input file")
		}
		closers = append(closers, f)
		readers = append(readers, NamedReader{Name: stemName(p), Path: p, Data: f})
	}

	return DescribeReaders(ctx, readers, opts)
}

// DescribeReaders describes every named reader as a single Package,
// independently and in parallel up to opts.Threads.
func DescribeReaders(ctx context.Context, readers []NamedReader, opts Options) (*model.Package, error) {
	inputs := make([]orchestrator.Input, len(readers))
	for i, r := range readers {
		inputs[i] = orchestrator.Input{Name: r.Name, Path: r.Path, Data: r.Data}
	}
	return orchestrator.Run(ctx, inputs, opts.orchestratorOptions())
}

// stemName derives a resource's logical name from its source path: the
// file's base name with its extension stripped.
func stemName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
