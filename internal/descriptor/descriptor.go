package descriptor

// Descriptor is the immutable configuration for one market: where its symbol
// list lives, how snapshot and history requests are shaped, how response
// bodies map onto named fields, and which thresholds apply by default.
//
// A Descriptor is constructed only by Load and never mutated afterwards.
// Reloading a market produces a fresh value; readers holding the old pointer
// keep a consistent view.
type Descriptor struct {
	// Code is the market identifier, e.g. "cn" or "jp". Unique per registry.
	Code string

	// Name is the human-readable market name.
	Name string

	// SymbolFile is the path (relative to the config root) of the symbol
	// list CSV this descriptor was loaded from.
	SymbolFile string

	// Symbols is the ordered symbol list read from SymbolFile.
	Symbols []Symbol

	// Snapshot describes the per-symbol quote request.
	Snapshot Request

	// SnapshotMapping turns a snapshot response body into named fields.
	SnapshotMapping Mapping

	// FirewallMarker, when non-empty, is a substring whose presence in a
	// response body means the provider soft-blocked the request instead of
	// returning data.
	FirewallMarker string

	// History describes the per-symbol candle series request and decoding.
	// Nil when the market has no history endpoint.
	History *History

	// Defaults holds the market's default filtering thresholds.
	Defaults ThresholdSet

	// RatePerSec caps outgoing requests for this market. Zero means
	// unlimited.
	RatePerSec float64
}

// Symbol is one entry of a market's symbol list: an opaque ticker identifier
// plus an optional display name.
type Symbol struct {
	Code string
	Name string
}

// Request describes one HTTP request shape: method, URL template and static
// headers. URL templates may contain {symbol}, {region} and, for history
// requests, {max_days} placeholders.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
}

// RuleKind selects how a Field extracts its token from a response body.
type RuleKind string

const (
	// RuleSplit splits the raw body on Field.Delimiter and takes the token
	// at Field.Index.
	RuleSplit RuleKind = "split"

	// RuleIndex takes the token at Field.Index from the mapping's token
	// array (see Tokens).
	RuleIndex RuleKind = "index"

	// RulePath walks Field.Path through the JSON body down to a scalar.
	RulePath RuleKind = "path"
)

// FieldType is the declared type a Field's extracted token is coerced to.
type FieldType string

const (
	TypeFloat  FieldType = "float"
	TypeInt    FieldType = "int"
	TypeString FieldType = "string"
	TypeDate   FieldType = "date"
)

// Field is one entry of a Mapping: a named, typed extraction rule.
type Field struct {
	Name      string
	Rule      RuleKind
	Index     int
	Delimiter string   // split rule only
	Path      []string // path rule only; a "{symbol}" segment matches the symbol being decoded
	Type      FieldType
	Layout    string // date fields: Go reference layout, defaults to "2006-01-02"

	// Unit documents the field's scale as the provider reports it, e.g.
	// "percent, raw". It is never interpreted: values are stored exactly as
	// returned, with no implicit scaling.
	Unit string
}

// Tokens describes how the decoder derives the positional token array that
// index rules reference: either a JSON path down to an array, or a
// delimiter-split of the first non-empty body line.
type Tokens struct {
	Path      []string
	Delimiter string
	SkipLines int
}

// Mapping is an ordered list of field extraction rules plus the optional
// token source required by index rules.
type Mapping struct {
	Fields []Field
	Tokens *Tokens
}

// FieldNames returns the mapping's field names in declaration order.
func (m Mapping) FieldNames() []string {
	names := make([]string, 0, len(m.Fields))
	for _, f := range m.Fields {
		names = append(names, f.Name)
	}
	return names
}

// RowSource describes where history candle rows live in a response body:
// either a JSON path down to an array of rows (each row an array of scalars,
// or a string split on RowDelimiter), or plain delimited text lines.
type RowSource struct {
	Path         []string
	RowDelimiter string
	Delimiter    string
	SkipLines    int
}

// Columns maps candle components to positions within one history row.
type Columns struct {
	Date  int
	Open  int
	High  int
	Low   int
	Close int
}

// History describes a market's candle series endpoint and decoding rules.
type History struct {
	Request Request

	// MaxDays bounds the decoded series length. When a response carries
	// more rows, only the most recent MaxDays are kept, oldest first.
	MaxDays int

	Rows       RowSource
	Columns    Columns
	DateFormat string // Go reference layout, e.g. "2006-01-02"
}
