package sketch

import (
	"math"
	"sort"

	"github.com/DataDog/sketches-go/ddsketch"
)

// relativeAccuracy matches DDSketch's own default accuracy budget for
// latency-style distributions; 1% is ample for descriptive stats.
const relativeAccuracy = 0.01

// rawCap bounds the number of exact observations a Quantile sketch keeps
// around for small-N interpolation (an explicit decision for small-N
// question). Below this count, quantiles are computed by linear
// interpolation over the sorted raw values; above it, the DDSketch estimate
// is used, trading exactness for bounded memory on large resources.
const rawCap = 1000

// Quantile is a mergeable numeric order-statistics accumulator. It feeds
// every observation into a DDSketch unconditionally (so merging after a
// raw-to-sketch-only transition never loses history) and additionally keeps
// raw values while the count stays within rawCap, to give exact/interpolated
// answers for the common small-sample case.
type Quantile struct {
	raw   []float64 // nil once overflowed past rawCap
	sk    *ddsketch.DDSketch
	count int
}

// NewQuantile returns an empty Quantile accumulator.
func NewQuantile() *Quantile {
	sk, _ := ddsketch.NewDefaultDDSketch(relativeAccuracy)
	return &Quantile{raw: make([]float64, 0, 16), sk: sk}
}

// Add records one numeric observation (a cell that classified as integer or number).
func (q *Quantile) Add(v float64) {
	q.count++
	if q.raw != nil {
		q.raw = append(q.raw, v)
		if len(q.raw) > rawCap {
			q.raw = nil
		}
	}
	_ = q.sk.Add(v)
}

// Count returns the number of observations fed into the sketch.
func (q *Quantile) Count() int { return q.count }

// Merge combines other into q.
func (q *Quantile) Merge(other *Quantile) error {
	if q.raw != nil && other.raw != nil {
		merged := make([]float64, 0, len(q.raw)+len(other.raw))
		merged = append(merged, q.raw...)
		merged = append(merged, other.raw...)
		if len(merged) <= rawCap {
			q.raw = merged
		} else {
			q.raw = nil
		}
	} else {
		q.raw = nil
	}
	q.count += other.count
	return q.sk.MergeWith(other.sk)
}

// Quantile returns the value at rank q (0 <= q <= 1). With no observations it
// returns 0.
func (q *Quantile) Quantile(rank float64) float64 {
	if q.count == 0 {
		return 0
	}
	if q.raw != nil {
		return interpolatedQuantile(q.raw, rank)
	}
	v, err := q.sk.GetValueAtQuantile(rank)
	if err != nil {
		return 0
	}
	return v
}

// Median, LowerQuartile and UpperQuartile are the three named order
// statistics called out individually.
func (q *Quantile) Median() float64        { return q.Quantile(0.5) }
func (q *Quantile) LowerQuartile() float64  { return q.Quantile(0.25) }
func (q *Quantile) UpperQuartile() float64  { return q.Quantile(0.75) }

// Deciles returns the 9 values at rank 0.1, 0.2, ..., 0.9.
func (q *Quantile) Deciles() []float64 {
	out := make([]float64, 9)
	for i := 1; i <= 9; i++ {
		out[i-1] = q.Quantile(float64(i) / 10)
	}
	return out
}

// Centiles returns the 99 values at rank 0.01, 0.02, ..., 0.99.
func (q *Quantile) Centiles() []float64 {
	out := make([]float64, 99)
	for i := 1; i <= 99; i++ {
		out[i-1] = q.Quantile(float64(i) / 100)
	}
	return out
}

// interpolatedQuantile implements linear interpolation between order
// statistics (the "R-7" method), the rule this package follows to
// document for small-sample quantiles.
func interpolatedQuantile(values []float64, rank float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := rank * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo < 0 {
		lo = 0
	}
	if hi >= n {
		hi = n - 1
	}
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
