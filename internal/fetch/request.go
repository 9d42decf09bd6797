package fetch

import (
	"strconv"
	"strings"

	"marketscreener/internal/descriptor"
)

// Kind selects which of a descriptor's endpoints a fetch pass targets.
type Kind int

const (
	// Snapshot fetches one point-in-time quote per symbol.
	Snapshot Kind = iota
	// History fetches a bounded daily candle series per symbol.
	History
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k == History {
		return "history"
	}
	return "snapshot"
}

// Request is a fully specified HTTP request: the request builder's output and
// the transport's input.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
}

// BuildRequest renders the descriptor's template for the given symbol and
// kind. It substitutes {symbol} and {region} (and {max_days} for history
// requests) and attaches the configured static headers. Purely functional: a
// missing {symbol} placeholder is rejected at load time, not here.
func BuildRequest(d *descriptor.Descriptor, symbol string, kind Kind) Request {
	spec := d.Snapshot
	if kind == History && d.History != nil {
		spec = d.History.Request
	}

	replacer := []string{
		"{symbol}", symbol,
		"{region}", d.Code,
	}
	if kind == History && d.History != nil {
		replacer = append(replacer, "{max_days}", strconv.Itoa(d.History.MaxDays))
	}

	return Request{
		Method:  spec.Method,
		URL:     strings.NewReplacer(replacer...).Replace(spec.URL),
		Headers: spec.Headers,
	}
}
