package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"marketscreener/internal/descriptor"
)

// Preset is a named threshold override for one market. Applying a preset
// replaces only the metrics it names; unnamed metrics keep the descriptor's
// defaults (see descriptor.ThresholdSet.Merge).
type Preset struct {
	Name       string                  `json:"name"`
	Market     string                  `json:"market"`
	Thresholds descriptor.ThresholdSet `json:"thresholds"`
}

// SavePreset writes the preset as dir/<market>/<name>.json.
func SavePreset(dir string, preset Preset) (string, error) {
	if preset.Name == "" {
		return "", fmt.Errorf("preset needs a name")
	}
	if len(preset.Thresholds) == 0 {
		return "", fmt.Errorf("preset %q has no thresholds", preset.Name)
	}

	marketDir := filepath.Join(dir, preset.Market)
	if err := os.MkdirAll(marketDir, 0o755); err != nil {
		return "", fmt.Errorf("creating preset directory: %w", err)
	}

	data, err := json.MarshalIndent(preset, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding preset %q: %w", preset.Name, err)
	}

	path := filepath.Join(marketDir, preset.Name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing preset %q: %w", preset.Name, err)
	}

	return path, nil
}

// LoadPreset reads dir/<market>/<name>.json.
func LoadPreset(dir, market, name string) (Preset, error) {
	path := filepath.Join(dir, market, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, fmt.Errorf("reading preset %q: %w", name, err)
	}

	var preset Preset
	if err := json.Unmarshal(data, &preset); err != nil {
		return Preset{}, fmt.Errorf("parsing preset %s: %w", path, err)
	}
	return preset, nil
}

// ListPresets returns the preset names stored for a market, sorted.
func ListPresets(dir, market string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(dir, market))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing presets for %q: %w", market, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}
