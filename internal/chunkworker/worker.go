// Package chunkworker implements the chunk worker: a pure
// function that turns one batch of already-parsed rows into one
// Statistician per column, with no shared mutable state between workers.
package chunkworker

import "github.com/kindly/csvs-convert/internal/stats"

// Options configures how a chunk's cells are observed; it mirrors the
// describer's closed option set that every worker in a resource
// pipeline shares.
type Options struct {
	ForceString    bool
	Stats          bool
	ExactThreshold int
}

func newStatistician(opts Options) *stats.Statistician {
	if !opts.Stats {
		return stats.NewTypeOnly()
	}
	return stats.New(opts.ExactThreshold)
}

// Process builds one Statistician per column and folds every row in rows
// into them. A row shorter than numCols is padded with empty cells for its
// missing trailing columns, rather than treated as an error: row-shape
// validation happens earlier, in the resource pipeline, so that this
// function stays a pure, allocation-light fold.
//
// voteTypes, if non-nil, must have one entry per row in rows: a false entry
// still folds that row into every statistic but excludes it from the
// column's type-hypothesis tally, so a sample-size cutoff can cap type
// inference without capping the rest of the column's statistics. A nil
// voteTypes votes every row.
func Process(rows [][]string, numCols int, opts Options, voteTypes []bool) []*stats.Statistician {
	out := make([]*stats.Statistician, numCols)
	for i := range out {
		out[i] = newStatistician(opts)
	}
	for r, row := range rows {
		voteType := voteTypes == nil || voteTypes[r]
		for i := 0; i < numCols; i++ {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			out[i].Observe(cell, opts.ForceString, voteType)
		}
	}
	return out
}

// Merge folds a slice of per-chunk Statistician slices (one per column, in
// column order) into a single per-column slice, used by a resource
// pipeline's merger stage to combine every chunk a worker pool has produced.
func Merge(chunks [][]*stats.Statistician, numCols int, opts Options) ([]*stats.Statistician, error) {
	out := make([]*stats.Statistician, numCols)
	for i := range out {
		out[i] = newStatistician(opts)
	}
	for _, chunk := range chunks {
		for i := 0; i < numCols && i < len(chunk); i++ {
			if err := out[i].Merge(chunk[i]); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
