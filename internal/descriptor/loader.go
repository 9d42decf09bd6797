package descriptor

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ConfigError reports a structurally invalid market configuration. The loader
// never partially constructs a Descriptor: on any ConfigError the market's
// previous configuration (if any) stays in effect.
type ConfigError struct {
	Code   string
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("market %q config invalid: %s: %s", e.Code, e.Field, e.Reason)
	}
	return fmt.Sprintf("market %q config invalid: %s", e.Code, e.Reason)
}

func configErr(code, field, format string, args ...any) *ConfigError {
	return &ConfigError{Code: code, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// rawMarket mirrors the on-disk JSON shape of markets/<code>.json.
type rawMarket struct {
	Code           string                  `mapstructure:"code"`
	Name           string                  `mapstructure:"name"`
	SymbolList     string                  `mapstructure:"symbol_list"`
	RatePerSec     float64                 `mapstructure:"rate_per_sec"`
	FirewallMarker string                  `mapstructure:"firewall_marker"`
	Snapshot       rawSnapshot             `mapstructure:"snapshot"`
	History        *rawHistory             `mapstructure:"history"`
	Thresholds     map[string]rawThreshold `mapstructure:"thresholds"`
}

type rawRequest struct {
	Method  string            `mapstructure:"method"`
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

type rawSnapshot struct {
	Request rawRequest `mapstructure:"request"`
	Tokens  *rawTokens `mapstructure:"tokens"`
	Fields  []rawField `mapstructure:"fields"`
}

type rawTokens struct {
	Path      []string `mapstructure:"path"`
	Delimiter string   `mapstructure:"delimiter"`
	SkipLines int      `mapstructure:"skip_lines"`
}

type rawField struct {
	Name      string   `mapstructure:"name"`
	Rule      string   `mapstructure:"rule"`
	Index     int      `mapstructure:"index"`
	Delimiter string   `mapstructure:"delimiter"`
	Path      []string `mapstructure:"path"`
	Type      string   `mapstructure:"type"`
	Layout    string   `mapstructure:"layout"`
	Unit      string   `mapstructure:"unit"`
}

type rawHistory struct {
	Request    rawRequest     `mapstructure:"request"`
	MaxDays    int            `mapstructure:"max_days"`
	Rows       rawRowSource   `mapstructure:"rows"`
	Columns    map[string]int `mapstructure:"columns"`
	DateFormat string         `mapstructure:"date_format"`
}

type rawRowSource struct {
	Path         []string `mapstructure:"path"`
	RowDelimiter string   `mapstructure:"row_delimiter"`
	Delimiter    string   `mapstructure:"delimiter"`
	SkipLines    int      `mapstructure:"skip_lines"`
}

type rawThreshold struct {
	Lower   float64 `mapstructure:"lower"`
	Upper   float64 `mapstructure:"upper"`
	Enabled bool    `mapstructure:"enabled"`
}

// Load reads markets/<code>.json plus its symbol list CSV from root and
// validates both into a Descriptor. Any structural problem is reported as a
// *ConfigError naming the offending field; no Descriptor is returned in that
// case.
func Load(root, code string) (*Descriptor, error) {
	slug := strings.ToLower(code)
	path := filepath.Join(root, "markets", slug+".json")

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, configErr(slug, "", "reading %s: %v", path, err)
	}

	var raw rawMarket
	if err := v.Unmarshal(&raw); err != nil {
		return nil, configErr(slug, "", "parsing %s: %v", path, err)
	}

	if raw.Code == "" {
		return nil, configErr(slug, "code", "must be provided")
	}
	if !strings.EqualFold(raw.Code, slug) {
		return nil, configErr(slug, "code", "mismatch: file is %q, config says %q", slug, raw.Code)
	}

	d := &Descriptor{
		Code:           strings.ToLower(raw.Code),
		Name:           raw.Name,
		SymbolFile:     raw.SymbolList,
		FirewallMarker: raw.FirewallMarker,
		RatePerSec:     raw.RatePerSec,
		Defaults:       make(ThresholdSet, len(raw.Thresholds)),
	}

	var err error
	if d.Snapshot, err = buildRequest(d.Code, "snapshot.request", raw.Snapshot.Request); err != nil {
		return nil, err
	}
	if d.SnapshotMapping, err = buildMapping(d.Code, raw.Snapshot); err != nil {
		return nil, err
	}
	if raw.History != nil {
		if d.History, err = buildHistory(d.Code, raw.History); err != nil {
			return nil, err
		}
	}

	for metric, t := range raw.Thresholds {
		if !math.IsNaN(t.Lower) && !math.IsNaN(t.Upper) && t.Lower > t.Upper {
			return nil, configErr(d.Code, "thresholds."+metric,
				"lower bound %v greater than upper bound %v", t.Lower, t.Upper)
		}
		d.Defaults[metric] = Threshold{Lower: t.Lower, Upper: t.Upper, Enabled: t.Enabled}
	}

	if raw.SymbolList == "" {
		return nil, configErr(d.Code, "symbol_list", "must be provided")
	}
	if d.Symbols, err = loadSymbols(d.Code, filepath.Join(root, raw.SymbolList)); err != nil {
		return nil, err
	}

	return d, nil
}

func buildRequest(code, field string, raw rawRequest) (Request, error) {
	url := strings.TrimSpace(raw.URL)
	if url == "" {
		return Request{}, configErr(code, field+".url", "must not be empty")
	}
	if !strings.Contains(url, "{symbol}") {
		return Request{}, configErr(code, field+".url", "must contain the {symbol} placeholder")
	}

	method := strings.ToUpper(strings.TrimSpace(raw.Method))
	if method == "" {
		method = "GET"
	}

	headers := make(map[string]string, len(raw.Headers))
	for k, v := range raw.Headers {
		headers[k] = v
	}

	return Request{Method: method, URL: url, Headers: headers}, nil
}

func buildMapping(code string, raw rawSnapshot) (Mapping, error) {
	if len(raw.Fields) == 0 {
		return Mapping{}, configErr(code, "snapshot.fields", "must define at least one field")
	}

	m := Mapping{Fields: make([]Field, 0, len(raw.Fields))}
	if raw.Tokens != nil {
		if len(raw.Tokens.Path) == 0 && raw.Tokens.Delimiter == "" {
			return Mapping{}, configErr(code, "snapshot.tokens", "needs either a path or a delimiter")
		}
		m.Tokens = &Tokens{
			Path:      raw.Tokens.Path,
			Delimiter: raw.Tokens.Delimiter,
			SkipLines: raw.Tokens.SkipLines,
		}
	}

	seen := make(map[string]bool, len(raw.Fields))
	for i, rf := range raw.Fields {
		f, err := buildField(code, fmt.Sprintf("snapshot.fields[%d]", i), rf, m.Tokens != nil)
		if err != nil {
			return Mapping{}, err
		}
		if seen[f.Name] {
			return Mapping{}, configErr(code, "snapshot.fields", "duplicate field name %q", f.Name)
		}
		seen[f.Name] = true
		m.Fields = append(m.Fields, f)
	}

	return m, nil
}

func buildField(code, field string, raw rawField, haveTokens bool) (Field, error) {
	if raw.Name == "" {
		return Field{}, configErr(code, field+".name", "must not be empty")
	}

	kind := RuleKind(raw.Rule)
	switch kind {
	case RuleSplit:
		if raw.Delimiter == "" {
			return Field{}, configErr(code, field+".delimiter", "split rule needs a delimiter")
		}
	case RuleIndex:
		if !haveTokens {
			return Field{}, configErr(code, field+".rule", "index rule needs snapshot.tokens")
		}
	case RulePath:
		if len(raw.Path) == 0 {
			return Field{}, configErr(code, field+".path", "path rule needs at least one segment")
		}
	default:
		return Field{}, configErr(code, field+".rule", "unknown rule %q", raw.Rule)
	}
	if kind != RulePath && raw.Index < 0 {
		return Field{}, configErr(code, field+".index", "must not be negative")
	}

	typ := FieldType(raw.Type)
	if typ == "" {
		typ = TypeFloat
	}
	switch typ {
	case TypeFloat, TypeInt, TypeString, TypeDate:
	default:
		return Field{}, configErr(code, field+".type", "unknown type %q", raw.Type)
	}

	layout := raw.Layout
	if typ == TypeDate && layout == "" {
		layout = "2006-01-02"
	}

	return Field{
		Name:      raw.Name,
		Rule:      kind,
		Index:     raw.Index,
		Delimiter: raw.Delimiter,
		Path:      raw.Path,
		Type:      typ,
		Layout:    layout,
		Unit:      raw.Unit,
	}, nil
}

func buildHistory(code string, raw *rawHistory) (*History, error) {
	req, err := buildRequest(code, "history.request", raw.Request)
	if err != nil {
		return nil, err
	}
	if raw.MaxDays <= 0 {
		return nil, configErr(code, "history.max_days", "must be greater than zero")
	}
	if strings.TrimSpace(raw.DateFormat) == "" {
		return nil, configErr(code, "history.date_format", "must not be empty")
	}
	if len(raw.Rows.Path) == 0 && raw.Rows.Delimiter == "" {
		return nil, configErr(code, "history.rows", "needs either a path or a delimiter")
	}

	cols := Columns{Date: -1, Open: -1, High: -1, Low: -1, Close: -1}
	for name, idx := range raw.Columns {
		if idx < 0 {
			return nil, configErr(code, "history.columns."+name, "must not be negative")
		}
		switch name {
		case "date":
			cols.Date = idx
		case "open":
			cols.Open = idx
		case "high":
			cols.High = idx
		case "low":
			cols.Low = idx
		case "close":
			cols.Close = idx
		default:
			return nil, configErr(code, "history.columns", "unknown column %q", name)
		}
	}
	for name, idx := range map[string]int{
		"date": cols.Date, "open": cols.Open, "high": cols.High, "low": cols.Low, "close": cols.Close,
	} {
		if idx < 0 {
			return nil, configErr(code, "history.columns."+name, "must be provided")
		}
	}

	return &History{
		Request: req,
		MaxDays: raw.MaxDays,
		Rows: RowSource{
			Path:         raw.Rows.Path,
			RowDelimiter: raw.Rows.RowDelimiter,
			Delimiter:    raw.Rows.Delimiter,
			SkipLines:    raw.Rows.SkipLines,
		},
		Columns:    cols,
		DateFormat: raw.DateFormat,
	}, nil
}

// loadSymbols reads a symbol list CSV of `code[,display name]` lines. Blank
// lines and `#` comments are skipped. An empty list is a configuration error.
func loadSymbols(code, path string) ([]Symbol, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, configErr(code, "symbol_list", "reading %s: %v", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, configErr(code, "symbol_list", "parsing %s: %v", path, err)
	}

	symbols := make([]Symbol, 0, len(records))
	for _, rec := range records {
		if len(rec) == 0 {
			continue
		}
		s := Symbol{Code: strings.TrimSpace(rec[0])}
		if s.Code == "" {
			continue
		}
		if len(rec) > 1 {
			s.Name = strings.TrimSpace(rec[1])
		}
		symbols = append(symbols, s)
	}

	if len(symbols) == 0 {
		return nil, configErr(code, "symbol_list", "%s yielded no symbols", path)
	}

	return symbols, nil
}
