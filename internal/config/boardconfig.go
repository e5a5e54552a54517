package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
)

// SheetConfig describes one sheet and its layers, in creation order.
type SheetConfig struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Layers       []string `json:"layers"`
	CurrentLayer string   `json:"current_layer,omitempty"`
}

// BoardConfig lists the sheets created at startup.
type BoardConfig struct {
	Sheets       []SheetConfig `json:"sheets"`
	CurrentSheet string        `json:"current_sheet,omitempty"`
}

// LoadBoardConfig reads a JSON board config file and validates it.
func LoadBoardConfig(path string) (*BoardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read board config: %w", err)
	}

	var cfg BoardConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse board config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks IDs and layer names are present and unique and that the
// current sheet and layers exist.
func (cfg *BoardConfig) Validate() error {
	if len(cfg.Sheets) == 0 {
		return fmt.Errorf("board config: no sheets defined")
	}

	seen := make(map[string]bool, len(cfg.Sheets))
	for i, s := range cfg.Sheets {
		if s.ID == "" {
			return fmt.Errorf("board config: sheet #%d has empty id", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("board config: duplicate sheet id %q", s.ID)
		}
		seen[s.ID] = true

		if len(s.Layers) == 0 {
			return fmt.Errorf("board config: sheet %q has no layers", s.ID)
		}
		layers := make(map[string]bool, len(s.Layers))
		for _, l := range s.Layers {
			if l == "" {
				return fmt.Errorf("board config: sheet %q has an empty layer name", s.ID)
			}
			if layers[l] {
				return fmt.Errorf("board config: sheet %q has duplicate layer %q", s.ID, l)
			}
			layers[l] = true
		}
		if s.CurrentLayer != "" && !slices.Contains(s.Layers, s.CurrentLayer) {
			return fmt.Errorf("board config: sheet %q current_layer %q is not one of its layers", s.ID, s.CurrentLayer)
		}
	}

	if cfg.CurrentSheet != "" && !seen[cfg.CurrentSheet] {
		return fmt.Errorf("board config: current_sheet %q is not defined", cfg.CurrentSheet)
	}
	return nil
}
