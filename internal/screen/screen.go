// Package screen applies threshold predicates to decoded rows and orders the
// result for display.
package screen

import (
	"sort"

	"marketscreener/internal/descriptor"
	"marketscreener/internal/fetch"
)

// Filter returns the rows that satisfy every enabled threshold, preserving
// input order. A row passes an enabled threshold when the metric's value lies
// inside the inclusive [lower, upper] range.
//
// Rows that do not carry a thresholded metric pass that predicate: missing
// data never excludes a row it cannot be evaluated against.
func Filter(rows []fetch.Row, thresholds descriptor.ThresholdSet) []fetch.Row {
	out := make([]fetch.Row, 0, len(rows))
	for _, row := range rows {
		if passes(row, thresholds) {
			out = append(out, row)
		}
	}
	return out
}

func passes(row fetch.Row, thresholds descriptor.ThresholdSet) bool {
	for metric, t := range thresholds {
		if !t.Enabled {
			continue
		}
		value, ok := row.Metric(metric)
		if !ok {
			continue
		}
		if !t.Contains(value) {
			return false
		}
	}
	return true
}

// Sort returns a copy of rows stably ordered by the named metric. Rows
// missing the metric sort after all rows that have it; ties keep their input
// order.
func Sort(rows []fetch.Row, metric string, ascending bool) []fetch.Row {
	out := make([]fetch.Row, len(rows))
	copy(out, rows)

	sort.SliceStable(out, func(i, j int) bool {
		vi, oki := out[i].Metric(metric)
		vj, okj := out[j].Metric(metric)

		switch {
		case oki && !okj:
			return true
		case !oki:
			return false
		case ascending:
			return vi < vj
		default:
			return vi > vj
		}
	})

	return out
}
