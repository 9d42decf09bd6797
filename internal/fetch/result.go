package fetch

import "time"

// Row is one decoded snapshot record for a symbol at a point in time. Rows
// are produced fresh on every fetch and never mutated afterwards; downstream
// consumers only read or filter-copy them.
type Row struct {
	// Symbol is the ticker identifier the row was decoded for.
	Symbol string

	// Name is the symbol's display name, from the mapping or the symbol
	// list.
	Name string

	// Metrics holds the row's numeric fields by mapping name. Values are
	// stored exactly as the provider returned them; see Field.Unit for the
	// documented scale.
	Metrics map[string]float64

	// Labels holds the row's non-numeric fields by mapping name.
	Labels map[string]string

	// Captured is when the row was decoded.
	Captured time.Time
}

// Metric returns the named metric and whether the row carries it.
func (r Row) Metric(name string) (float64, bool) {
	v, ok := r.Metrics[name]
	return v, ok
}

// Candle is one day of a symbol's history series.
type Candle struct {
	Date  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Failure records one symbol that did not produce a result.
type Failure struct {
	Symbol string
	Kind   ErrorKind
	Err    error
}

// FetchOutcome is the aggregate result of one fetch pass. Every requested
// symbol is accounted for exactly once: as a Row (snapshot), a Series entry
// (history), or a Failure.
type FetchOutcome struct {
	// Rows holds successful snapshot decodes, in completion order.
	Rows []Row

	// Series holds successful history decodes keyed by symbol, oldest
	// candle first.
	Series map[string][]Candle

	// Failures holds per-symbol failures, including NotAttempted entries
	// for symbols a cancelled pass never dispatched.
	Failures []Failure

	// Requested is the number of symbols the pass was asked for.
	Requested int
}

// Succeeded returns the number of symbols that produced a result.
func (o *FetchOutcome) Succeeded() int {
	return len(o.Rows) + len(o.Series)
}

// Accounted returns successes plus failures; it always equals Requested.
func (o *FetchOutcome) Accounted() int {
	return o.Succeeded() + len(o.Failures)
}

// AllFailed reports whether symbols were requested and none succeeded: the
// provider-outage case, as opposed to the zero-symbols caller bug that
// FetchAll rejects up front.
func (o *FetchOutcome) AllFailed() bool {
	return o.Requested > 0 && o.Succeeded() == 0
}
