// Package stats implements the column statistician: the per-column,
// per-chunk mutable accumulator that a chunk worker builds
// for every column of a chunk of rows, and that the resource pipeline's
// merger folds pairwise across chunks and workers.
package stats

import (
	"strconv"
	"strings"

	"github.com/kindly/csvs-convert/internal/classify"
	"github.com/kindly/csvs-convert/internal/fieldtype"
	"github.com/kindly/csvs-convert/internal/merge"
	"github.com/kindly/csvs-convert/internal/model"
	"github.com/kindly/csvs-convert/internal/sketch"
)

// Statistician accumulates every statistic tracked for one column:
// cell/empty counts, byte-length and lexicographic string extremes, a
// bounded-cardinality value counter, a numeric aggregator, a quantile sketch,
// and a tally of every type hypothesis observed. Two Statistician values for
// the same column, built from disjoint sets of rows, are always mergeable.
type Statistician struct {
	count      int64
	emptyCount int64
	trackStats bool

	haveStr bool
	minLen  int
	maxLen  int
	minStr  string
	maxStr  string

	cardinality *sketch.Cardinality
	welford     *sketch.Welford
	quantile    *sketch.Quantile
	hypotheses  map[fieldtype.Hypothesis]int64
}

// New returns an empty Statistician with full statistics enabled.
// exactThreshold configures the cardinality counter's exact/sketch cutover
// (pass sketch.DefaultExactThreshold for the default cutover of 100
// distinct values).
func New(exactThreshold int) *Statistician {
	return &Statistician{
		trackStats:  true,
		cardinality: sketch.NewCardinality(exactThreshold),
		welford:     sketch.NewWelford(),
		quantile:    sketch.NewQuantile(),
		hypotheses:  make(map[fieldtype.Hypothesis]int64),
	}
}

// NewTypeOnly returns a Statistician that still classifies and tallies every
// cell (so the schema merger can still resolve a winning type) but skips
// every heavier accumulator, for when the describer's `stats` option is off
// and only type inference is wanted.
func NewTypeOnly() *Statistician {
	return &Statistician{
		trackStats:  false,
		cardinality: sketch.NewCardinality(sketch.DefaultExactThreshold),
		welford:     sketch.NewWelford(),
		quantile:    sketch.NewQuantile(),
		hypotheses:  make(map[fieldtype.Hypothesis]int64),
	}
}

// Observe records one raw cell value for this column. Cells that are empty
// after trimming surrounding whitespace only increment empty_count; every
// other cell folds into every stats accumulator regardless of voteType, but
// only tallies a type hypothesis (and so influences the column's finalized
// type) when voteType is true — a sample-size cutoff caps type-inference
// voting without capping the rest of the column's statistics.
func (s *Statistician) Observe(cell string, forceString bool, voteType bool) {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		s.emptyCount++
		return
	}
	s.count++

	h := classify.Classify(trimmed, forceString)
	if voteType {
		s.hypotheses[h]++
	}

	if !s.trackStats {
		return
	}

	n := len(trimmed)
	if !s.haveStr {
		s.haveStr = true
		s.minLen, s.maxLen = n, n
		s.minStr, s.maxStr = trimmed, trimmed
	} else {
		if n < s.minLen {
			s.minLen = n
		}
		if n > s.maxLen {
			s.maxLen = n
		}
		if trimmed < s.minStr {
			s.minStr = trimmed
		}
		if trimmed > s.maxStr {
			s.maxStr = trimmed
		}
	}

	s.cardinality.Observe(trimmed)

	if h.Type.IsNumeric() {
		if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
			s.welford.Add(v)
			s.quantile.Add(v)
		}
	}
}

// Merge folds other into s. The two Statisticians must be for the same
// column; order and grouping never affect the result, since every
// sub-accumulator it composes is itself associative and commutative.
func (s *Statistician) Merge(other *Statistician) error {
	s.count += other.count
	s.emptyCount += other.emptyCount

	if other.haveStr {
		if !s.haveStr {
			s.haveStr = true
			s.minLen, s.maxLen = other.minLen, other.maxLen
			s.minStr, s.maxStr = other.minStr, other.maxStr
		} else {
			if other.minLen < s.minLen {
				s.minLen = other.minLen
			}
			if other.maxLen > s.maxLen {
				s.maxLen = other.maxLen
			}
			if other.minStr < s.minStr {
				s.minStr = other.minStr
			}
			if other.maxStr > s.maxStr {
				s.maxStr = other.maxStr
			}
		}
	}

	if err := s.cardinality.Merge(other.cardinality); err != nil {
		return err
	}
	s.welford.Merge(other.welford)
	if err := s.quantile.Merge(other.quantile); err != nil {
		return err
	}
	for h, n := range other.hypotheses {
		s.hypotheses[h] += n
	}
	return nil
}

// Hypotheses returns the observed type-hypothesis tally, for the schema
// merger to resolve into a winning field type.
func (s *Statistician) Hypotheses() map[fieldtype.Hypothesis]int64 {
	return s.hypotheses
}

// ExactValues exposes the column's exact distinct-value set when stats
// tracking is on and cardinality stayed exact, for the orchestrator's
// foreign key detection pass.
func (s *Statistician) ExactValues() (map[string]struct{}, bool) {
	if !s.trackStats {
		return nil, false
	}
	return s.cardinality.ExactValues()
}

// Finalize resolves the winning type via the schema merger and builds the
// Field's Statistics record, populating only the slots that apply to the
// winning type: numeric aggregates and quantiles are omitted
// unless the column resolved to integer or number, and top_20/exact_unique
// are only present while the cardinality counter stayed exact.
func (s *Statistician) Finalize() model.Field {
	typ, format := merge.Resolve(s.hypotheses)

	st := model.Statistics{
		Count:      s.count,
		EmptyCount: s.emptyCount,
	}
	if s.haveStr {
		minLen, maxLen := s.minLen, s.maxLen
		minStr, maxStr := s.minStr, s.maxStr
		st.MinLen, st.MaxLen = &minLen, &maxLen
		st.MinStr, st.MaxStr = &minStr, &maxStr
	}

	if s.trackStats {
		if n, ok := s.cardinality.ExactCount(); ok {
			exact := int64(n)
			st.ExactUnique = &exact
			for _, vc := range s.cardinality.TopN(sketch.DefaultTopN) {
				st.Top20 = append(st.Top20, model.ValueCount{Value: vc.Value, Count: vc.Count})
			}
		} else {
			est := s.cardinality.EstimateUnique()
			st.EstimateUnique = &est
		}
	}

	if typ.IsNumeric() && s.welford.Count() > 0 {
		min, max := s.welford.Min(), s.welford.Max()
		sum, mean := s.welford.Sum(), s.welford.Mean()
		variance, stddev := s.welford.Variance(), s.welford.StdDev()
		st.MinNumber, st.MaxNumber = &min, &max
		st.Sum, st.Mean = &sum, &mean
		st.Variance, st.StdDev = &variance, &stddev

		median, lq, uq := s.quantile.Median(), s.quantile.LowerQuartile(), s.quantile.UpperQuartile()
		st.Median, st.LowerQuartile, st.UpperQuartile = &median, &lq, &uq
		st.Deciles = s.quantile.Deciles()
		st.Centiles = s.quantile.Centiles()
	}

	return model.Field{Type: typ.String(), Format: format, Stats: st}
}
