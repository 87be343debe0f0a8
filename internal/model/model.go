// Package model holds the plain data model for a described tabular dataset: the
// Package/Resource/Field/Statistics tree that the describer builds and the
// descriptor emitter serialises to the Tabular Data Package shape.
package model

// ValueCount is one entry of a field's top_20 most-frequent-value table.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Statistics is the fixed per-field statistics record. Every
// slot beyond count/empty_count/min_len/max_len/min_str/max_str is a pointer
// or slice so that an inapplicable slot is simply omitted from the
// serialised descriptor, rather than emitted as a zero value that could be
// confused with a real zero.
type Statistics struct {
	Count      int64  `json:"count"`
	EmptyCount int64  `json:"empty_count"`
	MinLen     *int   `json:"min_len,omitempty"`
	MaxLen     *int   `json:"max_len,omitempty"`
	MinStr     *string `json:"min_str,omitempty"`
	MaxStr     *string `json:"max_str,omitempty"`

	ExactUnique    *int64  `json:"exact_unique,omitempty"`
	EstimateUnique *uint64 `json:"estimate_unique,omitempty"`
	Top20          []ValueCount `json:"top_20,omitempty"`

	MinNumber *float64 `json:"min_number,omitempty"`
	MaxNumber *float64 `json:"max_number,omitempty"`
	Sum       *float64 `json:"sum,omitempty"`
	Mean      *float64 `json:"mean,omitempty"`
	Variance  *float64 `json:"variance,omitempty"`
	StdDev    *float64 `json:"stddev,omitempty"`

	Median        *float64  `json:"median,omitempty"`
	LowerQuartile *float64  `json:"lower_quartile,omitempty"`
	UpperQuartile *float64  `json:"upper_quartile,omitempty"`
	Deciles       []float64 `json:"deciles,omitempty"`
	Centiles      []float64 `json:"centiles,omitempty"`
}

// Field is one column of one Resource.
type Field struct {
	Name   string     `json:"name"`
	Type   string     `json:"type"`
	Format string     `json:"format"`
	Stats  Statistics `json:"stats"`
}

// Schema wraps the ordered field list, matching the Tabular Data Package shape.
type Schema struct {
	Fields []Field `json:"fields"`
}

// Dialect is the CSV-level syntactic detection result for one resource.
type Dialect struct {
	Delimiter string `json:"delimiter"`
	QuoteChar string `json:"quoteChar"`
}

// ForeignKeyReference names the target resource and field(s) a foreign key
// points at.
type ForeignKeyReference struct {
	Resource string   `json:"resource"`
	Fields   []string `json:"fields"`
}

// ForeignKey records one cross-resource relationship detected by the
// orchestrator's relational post-processing pass.
type ForeignKey struct {
	Fields    []string            `json:"fields"`
	Reference ForeignKeyReference `json:"reference"`
}

// Resource is one named CSV input, fully described.
type Resource struct {
	Profile     string       `json:"profile"`
	Name        string       `json:"name"`
	Path        string       `json:"path"`
	RowCount    int64        `json:"row_count"`
	Dialect     Dialect      `json:"dialect"`
	Schema      Schema       `json:"schema"`
	ForeignKeys []ForeignKey `json:"foreignKeys,omitempty"`

	// ParseErrors holds the resource's recoverable row-level parse errors
	// (RowShapeError / EncodingError). It is deliberately not part of the
	// Tabular Data Package shape and is excluded from JSON;
	// callers that want it use it directly off the in-memory Resource.
	ParseErrors []string `json:"-"`
}

// Package is the top-level descriptor: an ordered sequence of Resources plus
// the package-level profile tag.
type Package struct {
	Profile   string      `json:"profile"`
	Resources []*Resource `json:"resources"`
}

// NewPackage returns an empty Package with the fixed profile tag.
func NewPackage() *Package {
	return &Package{Profile: "tabular-data-package"}
}

// NewResource returns a Resource with the fixed resource profile tag.
func NewResource(name, path string) *Resource {
	return &Resource{Profile: "tabular-data-resource", Name: name, Path: path}
}
