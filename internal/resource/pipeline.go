// Package resource implements one resource's describe pipeline: dialect
// sniffing, header parsing, a bounded-queue worker pool
// of chunk workers, and a mutex-guarded merge stage that folds every
// worker's partial statisticians into the resource's final schema.
package resource

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/kindly/csvs-convert/internal/chunkworker"
	"github.com/kindly/csvs-convert/internal/convertutil"
	"github.com/kindly/csvs-convert/internal/dialect"
	"github.com/kindly/csvs-convert/internal/model"
	"github.com/kindly/csvs-convert/internal/sketch"
	"github.com/kindly/csvs-convert/internal/stats"
)

// sniffSampleLines is how many leading lines dialect sniffing reads before
// handing the stream to encoding/csv.
const sniffSampleLines = 10

// DefaultChunkRows is the number of rows a chunk worker processes per task,
// chosen to keep per-task overhead low without growing any one chunk's
// memory footprint unreasonably.
const DefaultChunkRows = 2000

// Options is the describer's six closed settings, resolved for
// one resource. A zero Delimiter means "sniff it"; a zero Quote means the
// default double-quote.
type Options struct {
	Threads        int
	Delimiter      rune
	Quote          rune
	Stats          bool
	ForceString    bool
	SampleSize     int
	ExactThreshold int
	ChunkRows      int
}

func (o Options) normalized() Options {
	if o.Threads < 1 {
		o.Threads = 1
	}
	if o.Quote == 0 {
		o.Quote = dialect.DefaultQuote
	}
	if o.ExactThreshold <= 0 {
		o.ExactThreshold = sketch.DefaultExactThreshold
	}
	if o.ChunkRows <= 0 {
		o.ChunkRows = DefaultChunkRows
	}
	return o
}

// Result is what Describe produces for one resource: the serializable
// Resource plus, per column, the exact distinct-value set when that column
// stayed under the cardinality counter's exact threshold (nil otherwise).
// The latter is not part of the Tabular Data Package shape; the orchestrator
// uses it for cross-resource foreign key detection and
// discards it afterward.
type Result struct {
	Resource    *model.Resource
	ExactValues []map[string]struct{}
}

// Describe runs the full pipeline for one resource read from r. It honors
// ctx cancellation cooperatively: in-flight chunk workers finish their
// current chunk, no new chunk is dispatched, and the returned error wraps
// convertutil.ErrCancelled.
func Describe(ctx context.Context, name, path string, r io.Reader, opts Options) (*Result, error) {
	opts = opts.normalized()

	br := bufio.NewReaderSize(r, 64*1024)
	sampleLines, err := peekSampleLines(br, sniffSampleLines)
	if err != nil {
		return nil, convertutil.WrapError(err, "failed to sample resource for dialect sniffing")
	}

	det := dialect.Sniff(sampleLines)
	delim := opts.Delimiter
	if delim == 0 {
		delim = det.Delimiter
	}
	quote := opts.Quote

	cr := NewCSVReader(br, delim, quote)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			res := model.NewResource(name, path)
			res.Dialect = model.Dialect{Delimiter: string(delim), QuoteChar: string(quote)}
			return &Result{Resource: res}, nil
		}
		return nil, convertutil.WrapError(&convertutil.HeaderError{Path: path}, err.Error())
	}
	header = normalizeHeader(header)
	numCols := len(header)

	acc := newAccumulator(numCols, opts)

	var cancelled atomic.Bool
	stopWatch := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			cancelled.Store(true)
		case <-stopWatch:
		}
	}()
	defer close(stopWatch)
	if ctx.Err() != nil {
		cancelled.Store(true)
	}

	chunks := make(chan chunkBatch, opts.Threads*2)
	var wg sync.WaitGroup
	for i := 0; i < opts.Threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for cb := range chunks {
				if cancelled.Load() {
					continue
				}
				acc.mergeChunk(chunkworker.Process(cb.rows, cb.numCols, chunkworker.Options{
					ForceString:    opts.ForceString,
					Stats:          opts.Stats,
					ExactThreshold: opts.ExactThreshold,
				}, cb.voteTypes))
			}
		}()
	}

	var (
		rowCount       int64
		parseErrors    []string
		rowIndex       int
		batch          = make([][]string, 0, opts.ChunkRows)
		batchVoteTypes = make([]bool, 0, opts.ChunkRows)
	)

	flush := func() {
		if len(batch) == 0 || cancelled.Load() {
			return
		}
		select {
		case chunks <- chunkBatch{rows: batch, voteTypes: batchVoteTypes, numCols: numCols}:
		case <-ctx.Done():
			cancelled.Store(true)
		}
		batch = make([][]string, 0, opts.ChunkRows)
		batchVoteTypes = make([]bool, 0, opts.ChunkRows)
	}

readLoop:
	for {
		if cancelled.Load() {
			break
		}

		record, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break readLoop
			}
			parseErrors = append(parseErrors, (&convertutil.EncodingError{RowIndex: rowIndex, Err: err}).Error())
			rowIndex++
			continue
		}
		rowIndex++

		switch {
		case len(record) > numCols:
			// A row wider than the header widens it: every later row, and the
			// already-merged rows that genuinely lacked these trailing cells,
			// line up against the same synthetic columns.
			for i := numCols; i < len(record); i++ {
				header = append(header, fmt.Sprintf("field_%d", i+1))
			}
			numCols = len(record)
			acc.growTo(numCols)
		case len(record) < numCols:
			parseErrors = append(parseErrors, (&convertutil.RowShapeError{
				RowIndex: rowIndex,
				Expected: numCols,
				Actual:   len(record),
			}).Error())
			continue
		}
		rowCount++

		row := make([]string, len(record))
		copy(row, record)
		batch = append(batch, row)
		batchVoteTypes = append(batchVoteTypes, opts.SampleSize <= 0 || rowIndex <= opts.SampleSize)
		if len(batch) >= opts.ChunkRows {
			flush()
		}
	}
	flush()
	close(chunks)
	wg.Wait()

	if cancelled.Load() {
		return nil, convertutil.WrapError(convertutil.ErrCancelled, fmt.Sprintf("resource %s cancelled", name))
	}

	res := model.NewResource(name, path)
	res.RowCount = rowCount
	res.Dialect = model.Dialect{Delimiter: string(delim), QuoteChar: string(quote)}
	res.ParseErrors = parseErrors

	fields := make([]model.Field, numCols)
	exactValues := make([]map[string]struct{}, numCols)
	for i, colName := range header {
		f := acc.finalize(i)
		f.Name = colName
		fields[i] = f
		if vs, ok := acc.cols[i].ExactValues(); ok {
			exactValues[i] = vs
		}
	}
	res.Schema = model.Schema{Fields: fields}

	return &Result{Resource: res, ExactValues: exactValues}, nil
}

// chunkBatch is one worker task: a batch of already-parsed rows, a parallel
// per-row flag recording whether that row still counts toward type-inference
// voting, and the header width in effect when the batch was queued (which
// only ever grows across a resource, never shrinks).
type chunkBatch struct {
	rows      [][]string
	voteTypes []bool
	numCols   int
}

// accumulator is the merge stage: a mutex-guarded, per-column slice of
// running statisticians that every chunk worker folds its partial result
// into as soon as it finishes a chunk.
type accumulator struct {
	mu      sync.Mutex
	cols    []*stats.Statistician
	cwOpts  chunkworker.Options
	numCols int
}

func newAccumulator(numCols int, opts Options) *accumulator {
	cwOpts := chunkworker.Options{ForceString: opts.ForceString, Stats: opts.Stats, ExactThreshold: opts.ExactThreshold}
	cols, _ := chunkworker.Merge(nil, numCols, cwOpts)
	return &accumulator{cols: cols, cwOpts: cwOpts, numCols: numCols}
}

// mergeChunk folds one chunk worker's per-column result into the running
// accumulator. Multiple workers call this concurrently; the mutex is the
// pipeline's only lock, held only for the duration of a merge.
func (a *accumulator) mergeChunk(chunk []*stats.Statistician) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := 0; i < a.numCols && i < len(chunk); i++ {
		_ = a.cols[i].Merge(chunk[i])
	}
}

// growTo extends the accumulator with fresh, empty columns until it covers
// numCols, used when a row wider than the header widens it mid-stream. Rows
// merged before the widening correctly contribute nothing to the new
// columns: they never had a value there.
func (a *accumulator) growTo(numCols int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for len(a.cols) < numCols {
		extra, _ := chunkworker.Merge(nil, 1, a.cwOpts)
		a.cols = append(a.cols, extra[0])
	}
	a.numCols = numCols
}

func (a *accumulator) finalize(i int) model.Field {
	return a.cols[i].Finalize()
}

// NewCSVReader wraps r in an encoding/csv.Reader configured for one
// resource's dialect: delim as the field separator, with quote remapped to
// the stdlib's hardcoded double-quote when it differs from it. Used both
// by Describe and, once a resource's dialect is known, by the convert
// emitters that need to replay its rows.
func NewCSVReader(r io.Reader, delim, quote rune) *csv.Reader {
	var stream io.Reader = r
	if quote != 0 && quote != dialect.DefaultQuote {
		stream = &byteMapReader{src: stream, from: byte(quote), to: byte(dialect.DefaultQuote)}
	}
	cr := csv.NewReader(stream)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false
	return cr
}

// peekSampleLines reads up to n newline-terminated lines via Peek, which
// does not advance br's read position: the CSV reader that subsequently
// reads from br sees every sampled byte again, so nothing is lost to
// sniffing.
func peekSampleLines(br *bufio.Reader, n int) ([]string, error) {
	const maxPeek = 64 * 1024
	peeked, _ := br.Peek(maxPeek)
	var lines []string
	start := 0
	for i := 0; i < len(peeked) && len(lines) < n; i++ {
		if peeked[i] == '\n' {
			lines = append(lines, strings.TrimRight(string(peeked[start:i]), "\r"))
			start = i + 1
		}
	}
	if len(lines) < n && start < len(peeked) {
		lines = append(lines, strings.TrimRight(string(peeked[start:]), "\r"))
	}
	if len(peeked) >= 3 && bytes.Equal(peeked[:3], []byte{0xEF, 0xBB, 0xBF}) && len(lines) > 0 {
		lines[0] = strings.TrimPrefix(lines[0], string([]byte{0xEF, 0xBB, 0xBF}))
	}
	return lines, nil
}

// normalizeHeader strips a UTF-8 BOM from the first column name and
// synthesizes field_<n> names for blank columns.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := h
		if i == 0 {
			name = strings.TrimPrefix(name, string([]byte{0xEF, 0xBB, 0xBF}))
		}
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("field_%d", i+1)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			seen[name] = 1
		}
		out[i] = name
	}
	return out
}

// byteMapReader translates one single-byte quote character to the
// double-quote encoding/csv hardcodes, since the stdlib CSV reader offers no
// configurable quote rune.
type byteMapReader struct {
	src  io.Reader
	from byte
	to   byte
}

func (r *byteMapReader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	if r.from != r.to {
		for i := 0; i < n; i++ {
			if p[i] == r.from {
				p[i] = r.to
			}
		}
	}
	return n, err
}
