package descriptor

// Threshold is an inclusive numeric range for one metric. A disabled
// threshold is never applied.
type Threshold struct {
	Lower   float64 `json:"lower"`
	Upper   float64 `json:"upper"`
	Enabled bool    `json:"enabled"`
}

// Contains reports whether v falls inside the inclusive [Lower, Upper] range.
func (t Threshold) Contains(v float64) bool {
	return v >= t.Lower && v <= t.Upper
}

// ThresholdSet maps metric names to their thresholds.
type ThresholdSet map[string]Threshold

// Merge returns a new ThresholdSet with override entries layered over the
// receiver. Only metrics named by the override are replaced; neither input is
// modified, so descriptor defaults stay intact.
func (ts ThresholdSet) Merge(override ThresholdSet) ThresholdSet {
	merged := make(ThresholdSet, len(ts)+len(override))
	for metric, t := range ts {
		merged[metric] = t
	}
	for metric, t := range override {
		merged[metric] = t
	}
	return merged
}

// Clone returns an independent copy of the set.
func (ts ThresholdSet) Clone() ThresholdSet {
	return ThresholdSet{}.Merge(ts)
}
