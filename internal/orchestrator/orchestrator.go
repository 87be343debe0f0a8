// Package orchestrator drives the multi-resource describe run: it fans out
// one resource pipeline per input up to a shared worker budget, assembles
// the resulting fields into a single Package, and runs the one
// cross-resource pass foreign key detection requires.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/kindly/csvs-convert/internal/convertutil"
	"github.com/kindly/csvs-convert/internal/model"
	"github.com/kindly/csvs-convert/internal/resource"
)

// Input is one named resource to describe: a logical name (before
// collision suffixing), its source path (for the descriptor only; never
// reopened), and the reader to stream it from.
type Input struct {
	Name string
	Path string
	Data io.Reader
}

// Options is the orchestrator's closed option set: the settings the
// resource pipeline takes, plus whether the foreign-key pass runs. Threads
// is the shared worker budget and also caps how many resources run at once.
type Options struct {
	Threads        int
	Delimiter      rune
	Quote          rune
	Stats          bool
	ForceString    bool
	SampleSize     int
	ExactThreshold int
	ForeignKeys    bool
}

func (o Options) normalized() Options {
	if o.Threads < 1 {
		o.Threads = 1
	}
	return o
}

// resourceOpts splits the orchestrator's shared worker budget across
// concurrently running resources: if r resources run at once, each gets
// Threads/r workers (never fewer than one), so the total worker count
// never exceeds the configured budget regardless of how many resources
// are in flight.
func (o Options) resourceOpts(concurrency int) resource.Options {
	perResource := o.Threads / concurrency
	if perResource < 1 {
		perResource = 1
	}
	return resource.Options{
		Threads:        perResource,
		Delimiter:      o.Delimiter,
		Quote:          o.Quote,
		Stats:          o.Stats,
		ForceString:    o.ForceString,
		SampleSize:     o.SampleSize,
		ExactThreshold: o.ExactThreshold,
	}
}

// Run describes every input, independently and in parallel up to opts'
// worker budget, and assembles the results into one Package. Resource name
// collisions are resolved by suffixing _2, _3, … in input order. When
// opts.ForeignKeys is set, a post-processing pass checks every pair of
// columns across distinct resources for a subset-of-values relationship
// and records a foreign key on the referencing side.
//
// A fatal error describing one resource never aborts the others: every
// resource runs to completion (or to its own cancellation) regardless of
// a sibling's outcome, matching per-resource error recovery. Run succeeds
// only if every resource succeeded; otherwise it returns a joined error
// naming every resource that failed, alongside the partial Package built
// from the resources that did succeed. Cancelling ctx still stops every
// resource, since resource.Describe itself observes ctx cooperatively.
func Run(ctx context.Context, inputs []Input, opts Options) (*model.Package, error) {
	opts = opts.normalized()

	names := uniqueNames(inputs)

	concurrency := opts.Threads
	if concurrency > len(inputs) {
		concurrency = len(inputs)
	}
	if concurrency < 1 {
		concurrency = 1
	}
	resOpts := opts.resourceOpts(concurrency)

	results := make([]*resource.Result, len(inputs))
	errs := make([]error, len(inputs))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			result, err := resource.Describe(ctx, names[i], in.Path, in.Data, resOpts)
			if err != nil {
				errs[i] = convertutil.WrapError(err, fmt.Sprintf("describing resource %q", names[i]))
				return nil
			}
			results[i] = result
			return nil
		})
	}
	g.Wait()

	pkg := model.NewPackage()
	var liveResults []*resource.Result
	for i, r := range results {
		if errs[i] != nil {
			continue
		}
		pkg.Resources = append(pkg.Resources, r.Resource)
		liveResults = append(liveResults, r)
	}

	if opts.ForeignKeys {
		detectForeignKeys(liveResults)
	}

	if err := errors.Join(errs...); err != nil {
		return pkg, err
	}
	return pkg, nil
}

// uniqueNames resolves name collisions by suffixing _2, _3, … in input
// order, leaving the first occurrence of any name untouched.
func uniqueNames(inputs []Input) []string {
	seen := make(map[string]int, len(inputs))
	out := make([]string, len(inputs))
	for i, in := range inputs {
		name := in.Name
		n := seen[name]
		seen[name] = n + 1
		if n == 0 {
			out[i] = name
		} else {
			out[i] = fmt.Sprintf("%s_%d", name, n+1)
		}
	}
	return out
}

// detectForeignKeys is the orchestrator's sole cross-resource step: for
// every ordered pair of distinct resources (A, B) and every column pair
// (A.x, B.y) with matching field types, it records a foreign key on A.x
// when A.x's value domain is a non-empty subset of B.y's. Both sides must
// still hold their exact value set (neither cardinality counter
// overflowed) or the pair is skipped, since a sketch cannot answer a
// subset query.
func detectForeignKeys(results []*resource.Result) {
	for ai, a := range results {
		for xi, xField := range a.Resource.Schema.Fields {
			xValues := a.ExactValues[xi]
			if xValues == nil || len(xValues) == 0 {
				continue
			}
			for bi, b := range results {
				if ai == bi {
					continue
				}
				for yi, yField := range b.Resource.Schema.Fields {
					if yField.Type != xField.Type {
						continue
					}
					yValues := b.ExactValues[yi]
					if yValues == nil {
						continue
					}
					if isSubset(xValues, yValues) {
						a.Resource.ForeignKeys = append(a.Resource.ForeignKeys, model.ForeignKey{
							Fields: []string{xField.Name},
							Reference: model.ForeignKeyReference{
								Resource: b.Resource.Name,
								Fields:   []string{yField.Name},
							},
						})
					}
				}
			}
		}
		sortForeignKeys(a.Resource.ForeignKeys)
	}
}

func isSubset(sub, super map[string]struct{}) bool {
	for v := range sub {
		if _, ok := super[v]; !ok {
			return false
		}
	}
	return true
}

// sortForeignKeys orders a resource's detected foreign keys by referencing
// field then referenced resource, so Run's output is deterministic given
// the same inputs and options regardless of map iteration order.
func sortForeignKeys(fks []model.ForeignKey) {
	sort.Slice(fks, func(i, j int) bool {
		if fks[i].Fields[0] != fks[j].Fields[0] {
			return fks[i].Fields[0] < fks[j].Fields[0]
		}
		return fks[i].Reference.Resource < fks[j].Reference.Resource
	})
}
