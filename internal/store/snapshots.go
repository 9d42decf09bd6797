// Package store is the persistence collaborator: it writes fetch results and
// threshold presets to disk and reads them back. The ingestion core hands it
// rows and has no opinion on the format.
package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"marketscreener/internal/fetch"
)

// WriteSnapshot persists a fetch pass's rows as a timestamped CSV under
// dir/<market>/ and returns the file path. The header is symbol, name, then
// the union of metric names in sorted order; rows keep their input order.
func WriteSnapshot(dir, market string, rows []fetch.Row, captured time.Time) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("no rows to persist for market %q", market)
	}

	marketDir := filepath.Join(dir, market)
	if err := os.MkdirAll(marketDir, 0o755); err != nil {
		return "", fmt.Errorf("creating snapshot directory: %w", err)
	}

	metrics := metricColumns(rows)
	path := filepath.Join(marketDir, captured.Format("20060102_150405")+".csv")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating snapshot file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"symbol", "name"}, metrics...)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("writing snapshot header: %w", err)
	}

	for _, row := range rows {
		record := make([]string, 0, len(header))
		record = append(record, row.Symbol, row.Name)
		for _, metric := range metrics {
			if v, ok := row.Metric(metric); ok {
				record = append(record, strconv.FormatFloat(v, 'f', -1, 64))
			} else {
				record = append(record, "")
			}
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("writing snapshot row for %s: %w", row.Symbol, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing snapshot: %w", err)
	}

	return path, nil
}

// ReadSnapshot loads rows back from a snapshot file written by WriteSnapshot.
func ReadSnapshot(path string) ([]fetch.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("snapshot %s has no rows", path)
	}

	header := records[0]
	if len(header) < 2 || header[0] != "symbol" || header[1] != "name" {
		return nil, fmt.Errorf("snapshot %s has an unrecognized header", path)
	}

	rows := make([]fetch.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("snapshot %s has a ragged row for %q", path, record[0])
		}
		row := fetch.Row{
			Symbol:  record[0],
			Name:    record[1],
			Metrics: make(map[string]float64, len(header)-2),
			Labels:  map[string]string{},
		}
		for i, metric := range header[2:] {
			cell := record[i+2]
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("snapshot %s: bad %s value for %s: %w", path, metric, row.Symbol, err)
			}
			row.Metrics[metric] = v
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func metricColumns(rows []fetch.Row) []string {
	seen := make(map[string]bool)
	for _, row := range rows {
		for metric := range row.Metrics {
			seen[metric] = true
		}
	}

	metrics := make([]string, 0, len(seen))
	for metric := range seen {
		metrics = append(metrics, metric)
	}
	sort.Strings(metrics)
	return metrics
}
