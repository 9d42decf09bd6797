package fetch

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/tidwall/gjson"

	"marketscreener/internal/descriptor"
)

// DecodeSnapshot turns a snapshot response body into a Row using the
// descriptor's mapping. The body is scanned for the firewall marker before
// any extraction: a soft-blocked response never yields a partial decode.
func DecodeSnapshot(d *descriptor.Descriptor, symbol descriptor.Symbol, body []byte, captured time.Time) (Row, error) {
	if err := checkFirewall(d, body); err != nil {
		return Row{}, err
	}

	mapping := d.SnapshotMapping

	var tokens []string
	if mapping.Tokens != nil {
		var err error
		if tokens, err = extractTokens(mapping.Tokens, symbol.Code, body); err != nil {
			return Row{}, err
		}
	}

	row := Row{
		Symbol:   symbol.Code,
		Name:     symbol.Name,
		Metrics:  make(map[string]float64, len(mapping.Fields)),
		Labels:   make(map[string]string),
		Captured: captured,
	}

	for _, field := range mapping.Fields {
		token, err := extractToken(field, symbol.Code, body, tokens)
		if err != nil {
			return Row{}, err
		}
		if err := storeField(&row, field, token); err != nil {
			return Row{}, err
		}
	}

	// A mapped display name wins over the symbol-list one.
	if name := row.Labels["name"]; name != "" {
		row.Name = name
	}

	return row, nil
}

// DecodeHistory turns a history response body into a candle series, oldest
// first. When the provider returns more rows than the descriptor's max_days,
// only the most recent max_days are kept; no resampling.
func DecodeHistory(d *descriptor.Descriptor, symbol descriptor.Symbol, body []byte) ([]Candle, error) {
	if err := checkFirewall(d, body); err != nil {
		return nil, err
	}
	if d.History == nil {
		return nil, NewDecodeMalformed(fmt.Sprintf("market %q has no history endpoint", d.Code))
	}

	h := d.History
	rows, err := extractHistoryRows(&h.Rows, symbol.Code, body)
	if err != nil {
		return nil, err
	}

	candles := make([]Candle, 0, len(rows))
	for _, parts := range rows {
		candle, err := candleFromParts(parts, h.Columns, h.DateFormat)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}

	if len(candles) == 0 {
		return nil, NewDecodeMalformed(fmt.Sprintf("no history rows for %s", symbol.Code))
	}

	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Date.Before(candles[j].Date)
	})
	if len(candles) > h.MaxDays {
		candles = candles[len(candles)-h.MaxDays:]
	}

	return candles, nil
}

func checkFirewall(d *descriptor.Descriptor, body []byte) error {
	if d.FirewallMarker != "" && bytes.Contains(body, []byte(d.FirewallMarker)) {
		return NewProviderBlocked(d.FirewallMarker)
	}
	return nil
}

// extractToken pulls one field's raw token out of the body.
func extractToken(field descriptor.Field, symbol string, body []byte, tokens []string) (string, error) {
	switch field.Rule {
	case descriptor.RuleSplit:
		parts := splitLine(firstDataLine(body, 0), field.Delimiter)
		if field.Index >= len(parts) {
			return "", NewDecodeMalformed(fmt.Sprintf(
				"field %q wants token %d but the body splits into %d", field.Name, field.Index, len(parts)))
		}
		return parts[field.Index], nil

	case descriptor.RuleIndex:
		if field.Index >= len(tokens) {
			return "", NewDecodeMalformed(fmt.Sprintf(
				"field %q wants token %d but the payload has %d", field.Name, field.Index, len(tokens)))
		}
		return tokens[field.Index], nil

	case descriptor.RulePath:
		res := gjson.GetBytes(body, joinPath(field.Path, symbol))
		if !res.Exists() {
			return "", NewDecodeMalformed(fmt.Sprintf(
				"field %q path %v not found in payload", field.Name, field.Path))
		}
		return strings.TrimSpace(res.String()), nil

	default:
		return "", NewDecodeMalformed(fmt.Sprintf("field %q has unknown rule %q", field.Name, field.Rule))
	}
}

// storeField coerces a token to the field's declared type and writes it onto
// the row. Values keep the provider's scale; Field.Unit documents it.
func storeField(row *Row, field descriptor.Field, token string) error {
	switch field.Type {
	case descriptor.TypeFloat:
		v, err := cast.ToFloat64E(token)
		if err != nil {
			return NewFieldTypeMismatch(field.Name, err)
		}
		row.Metrics[field.Name] = v

	case descriptor.TypeInt:
		v, err := cast.ToInt64E(token)
		if err != nil {
			return NewFieldTypeMismatch(field.Name, err)
		}
		row.Metrics[field.Name] = float64(v)

	case descriptor.TypeDate:
		if _, err := time.Parse(field.Layout, token); err != nil {
			return NewFieldTypeMismatch(field.Name, err)
		}
		row.Labels[field.Name] = token

	default: // TypeString
		row.Labels[field.Name] = token
	}
	return nil
}

// extractTokens resolves the positional token array index rules reference.
func extractTokens(src *descriptor.Tokens, symbol string, body []byte) ([]string, error) {
	if len(src.Path) > 0 {
		res := gjson.GetBytes(body, joinPath(src.Path, symbol))
		if !res.Exists() {
			return nil, NewDecodeMalformed(fmt.Sprintf("token path %v not found in payload", src.Path))
		}
		if !res.IsArray() {
			return nil, NewDecodeMalformed(fmt.Sprintf("token path %v is not an array", src.Path))
		}
		elems := res.Array()
		tokens := make([]string, 0, len(elems))
		for _, e := range elems {
			tokens = append(tokens, strings.TrimSpace(e.String()))
		}
		return tokens, nil
	}

	line := firstDataLine(body, src.SkipLines)
	if line == "" {
		return nil, NewDecodeMalformed("no quote data in payload")
	}
	return splitLine(line, src.Delimiter), nil
}

// extractHistoryRows resolves the candle rows as string token slices.
func extractHistoryRows(src *descriptor.RowSource, symbol string, body []byte) ([][]string, error) {
	if len(src.Path) > 0 {
		res := gjson.GetBytes(body, joinPath(src.Path, symbol))
		if !res.Exists() {
			return nil, NewDecodeMalformed(fmt.Sprintf("history path %v not found in payload", src.Path))
		}
		if !res.IsArray() {
			return nil, NewDecodeMalformed(fmt.Sprintf("history path %v is not an array", src.Path))
		}

		var rows [][]string
		for _, el := range res.Array() {
			var parts []string
			if src.RowDelimiter != "" {
				parts = splitLine(el.String(), src.RowDelimiter)
			} else if el.IsArray() {
				for _, cell := range el.Array() {
					parts = append(parts, strings.TrimSpace(cell.String()))
				}
			} else {
				return nil, NewDecodeMalformed("history row is neither an array nor delimited text")
			}
			if len(parts) > 0 {
				rows = append(rows, parts)
			}
		}
		return rows, nil
	}

	var rows [][]string
	for i, line := range strings.Split(string(body), "\n") {
		if i < src.SkipLines || strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, splitLine(line, src.Delimiter))
	}
	return rows, nil
}

func candleFromParts(parts []string, cols descriptor.Columns, layout string) (Candle, error) {
	max := cols.Date
	for _, idx := range []int{cols.Open, cols.High, cols.Low, cols.Close} {
		if idx > max {
			max = idx
		}
	}
	if max >= len(parts) {
		return Candle{}, NewDecodeMalformed(fmt.Sprintf(
			"history row has %d columns, mapping needs %d", len(parts), max+1))
	}

	date, err := time.Parse(layout, parts[cols.Date])
	if err != nil {
		return Candle{}, NewFieldTypeMismatch("date", err)
	}

	candle := Candle{Date: date}
	for _, col := range []struct {
		name string
		idx  int
		dst  *float64
	}{
		{"open", cols.Open, &candle.Open},
		{"high", cols.High, &candle.High},
		{"low", cols.Low, &candle.Low},
		{"close", cols.Close, &candle.Close},
	} {
		v, err := cast.ToFloat64E(parts[col.idx])
		if err != nil {
			return Candle{}, NewFieldTypeMismatch(col.name, err)
		}
		*col.dst = v
	}

	return candle, nil
}

// joinPath renders descriptor path segments as a gjson path, substituting
// {symbol} segments and escaping gjson metacharacters in literal keys.
func joinPath(segments []string, symbol string) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg == "{symbol}" {
			seg = symbol
		}
		parts = append(parts, escapeSegment(seg))
	}
	return strings.Join(parts, ".")
}

func escapeSegment(seg string) string {
	var b strings.Builder
	for _, r := range seg {
		switch r {
		case '.', '*', '?', '\\', '|', '#', '@':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// firstDataLine returns the first non-empty line after skipping skip lines.
func firstDataLine(body []byte, skip int) string {
	lines := strings.Split(string(body), "\n")
	for i, line := range lines {
		if i < skip {
			continue
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// splitLine splits on the delimiter and trims whitespace and surrounding
// quotes from each token.
func splitLine(line, delimiter string) []string {
	if delimiter == "" {
		delimiter = ","
	}
	raw := strings.Split(line, delimiter)
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		parts = append(parts, strings.Trim(strings.TrimSpace(p), `"`))
	}
	return parts
}
