package store

import (
	"testing"

	"marketscreener/internal/descriptor"
)

func TestPreset_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	preset := Preset{
		Name:   "high-churn",
		Market: "cn",
		Thresholds: descriptor.ThresholdSet{
			"turnOver": {Lower: 8, Upper: 15, Enabled: true},
		},
	}

	if _, err := SavePreset(dir, preset); err != nil {
		t.Fatalf("SavePreset() returned unexpected error: %v", err)
	}

	got, err := LoadPreset(dir, "cn", "high-churn")
	if err != nil {
		t.Fatalf("LoadPreset() returned unexpected error: %v", err)
	}
	if got.Name != preset.Name || got.Market != preset.Market {
		t.Errorf("loaded preset = %+v", got)
	}
	if got.Thresholds["turnOver"] != (descriptor.Threshold{Lower: 8, Upper: 15, Enabled: true}) {
		t.Errorf("loaded thresholds = %+v", got.Thresholds)
	}
}

func TestSavePreset_Invalid(t *testing.T) {
	dir := t.TempDir()

	if _, err := SavePreset(dir, Preset{Market: "cn", Thresholds: descriptor.ThresholdSet{"x": {}}}); err == nil {
		t.Error("SavePreset() expected error for unnamed preset, got nil")
	}
	if _, err := SavePreset(dir, Preset{Name: "empty", Market: "cn"}); err == nil {
		t.Error("SavePreset() expected error for empty thresholds, got nil")
	}
}

func TestListPresets(t *testing.T) {
	dir := t.TempDir()

	names, err := ListPresets(dir, "cn")
	if err != nil {
		t.Fatalf("ListPresets() returned unexpected error: %v", err)
	}
	if names != nil {
		t.Errorf("ListPresets() = %v for a missing market dir, want nil", names)
	}

	thresholds := descriptor.ThresholdSet{"turnOver": {Lower: 1, Upper: 2, Enabled: true}}
	for _, name := range []string{"zeta", "alpha"} {
		if _, err := SavePreset(dir, Preset{Name: name, Market: "cn", Thresholds: thresholds}); err != nil {
			t.Fatal(err)
		}
	}

	names, err = ListPresets(dir, "cn")
	if err != nil {
		t.Fatalf("ListPresets() returned unexpected error: %v", err)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("ListPresets() = %v, want [alpha zeta]", names)
	}
}

func TestLoadPreset_Missing(t *testing.T) {
	if _, err := LoadPreset(t.TempDir(), "cn", "nope"); err == nil {
		t.Fatal("LoadPreset() expected error for missing preset, got nil")
	}
}
