package descriptor

import "testing"

func TestThreshold_Contains(t *testing.T) {
	threshold := Threshold{Lower: 5, Upper: 10, Enabled: true}

	tests := []struct {
		value float64
		want  bool
	}{
		{4.9, false},
		{5.0, true}, // bounds are inclusive
		{7.5, true},
		{10.0, true},
		{10.1, false},
	}

	for _, tt := range tests {
		if got := threshold.Contains(tt.value); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestThresholdSet_Merge(t *testing.T) {
	defaults := ThresholdSet{
		"turnOver": {Lower: 5, Upper: 10, Enabled: true},
		"amp":      {Lower: 3, Upper: 6, Enabled: false},
	}

	merged := defaults.Merge(ThresholdSet{
		"turnOver": {Lower: 1, Upper: 2, Enabled: false},
		"increase": {Lower: 3, Upper: 5, Enabled: true},
	})

	// Override replaces only the metrics it names.
	if got := merged["turnOver"]; got != (Threshold{Lower: 1, Upper: 2, Enabled: false}) {
		t.Errorf("merged turnOver = %+v", got)
	}
	if got := merged["amp"]; got != (Threshold{Lower: 3, Upper: 6, Enabled: false}) {
		t.Errorf("merged amp = %+v", got)
	}
	if got := merged["increase"]; got != (Threshold{Lower: 3, Upper: 5, Enabled: true}) {
		t.Errorf("merged increase = %+v", got)
	}

	// The defaults themselves stay untouched.
	if got := defaults["turnOver"]; got != (Threshold{Lower: 5, Upper: 10, Enabled: true}) {
		t.Errorf("defaults turnOver mutated: %+v", got)
	}
	if _, ok := defaults["increase"]; ok {
		t.Error("defaults gained a metric from the override")
	}
}
