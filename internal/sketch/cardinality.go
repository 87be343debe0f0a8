// Package sketch provides the mergeable approximate data structures the
// column statistician needs: a bounded exact/sketch cardinality counter and a
// quantile sketch for numeric order statistics.
package sketch

import (
	"sort"

	"github.com/axiomhq/hyperloglog"
)

// DefaultExactThreshold is the number of distinct values the cardinality
// counter will enumerate exactly before discarding its map and falling back
// to the HyperLogLog estimate.
const DefaultExactThreshold = 100

// DefaultTopN is the number of most-frequent values retained when the exact
// counter is still active.
const DefaultTopN = 20

// Cardinality tracks the distinct non-empty cell strings seen for one column.
// While the count of distinct values stays at or below threshold it keeps an
// exact frequency map (which doubles as the source for top_20); every value
// is also fed into a HyperLogLog sketch so that, on overflow, the sketch
// already reflects every value seen so far and no replay is required.
type Cardinality struct {
	threshold int
	exact     map[string]int // nil once overflowed
	sketch    *hyperloglog.Sketch
}

// NewCardinality returns a Cardinality counter with the given exact-mode
// threshold (pass DefaultExactThreshold for the default cutover of 100).
func NewCardinality(threshold int) *Cardinality {
	if threshold <= 0 {
		threshold = DefaultExactThreshold
	}
	return &Cardinality{
		threshold: threshold,
		exact:     make(map[string]int),
		sketch:    hyperloglog.New(),
	}
}

// Observe records one occurrence of a non-empty cell string.
func (c *Cardinality) Observe(value string) {
	c.sketch.Insert([]byte(value))
	if c.exact == nil {
		return
	}
	c.exact[value]++
	if len(c.exact) > c.threshold {
		c.exact = nil
	}
}

// ExactCount returns the exact distinct count and true while still in exact
// mode; (0, false) once the counter has overflowed to the sketch.
func (c *Cardinality) ExactCount() (int, bool) {
	if c.exact == nil {
		return 0, false
	}
	return len(c.exact), true
}

// EstimateUnique returns the HyperLogLog cardinality estimate. It is only
// meaningful (and only surfaced in the final Statistics) once ExactCount
// has overflowed.
func (c *Cardinality) EstimateUnique() uint64 {
	return c.sketch.Estimate()
}

// ExactValues returns a copy of the full exact value set and true while
// still in exact mode; (nil, false) once overflowed. Used by foreign key
// detection's subset check, which needs the actual membership rather than
// just the count.
func (c *Cardinality) ExactValues() (map[string]struct{}, bool) {
	if c.exact == nil {
		return nil, false
	}
	out := make(map[string]struct{}, len(c.exact))
	for v := range c.exact {
		out[v] = struct{}{}
	}
	return out, true
}

// TopN returns up to n of the most frequent values with their counts, sorted
// by count descending, ties broken lexicographically by value. Only valid
// while still in exact mode; callers must check ExactCount first.
func (c *Cardinality) TopN(n int) []ValueCount {
	if c.exact == nil {
		return nil
	}
	out := make([]ValueCount, 0, len(c.exact))
	for v, cnt := range c.exact {
		out = append(out, ValueCount{Value: v, Count: cnt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// ValueCount is one entry of a top-N frequency table.
type ValueCount struct {
	Value string
	Count int
}

// Merge combines other into c. If both sides are still in exact mode and
// their combined key set stays within threshold, the merge stays exact;
// otherwise both sides promote to sketch-only. The HyperLogLog sketches are
// always merged, since both have observed every value either side has seen.
func (c *Cardinality) Merge(other *Cardinality) error {
	if c.exact != nil && other.exact != nil {
		merged := make(map[string]int, len(c.exact)+len(other.exact))
		for k, v := range c.exact {
			merged[k] = v
		}
		for k, v := range other.exact {
			merged[k] += v
		}
		if len(merged) <= c.threshold {
			c.exact = merged
		} else {
			c.exact = nil
		}
	} else {
		c.exact = nil
	}
	return c.sketch.Merge(other.sketch)
}
