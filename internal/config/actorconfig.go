package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// ActorDefinition enables one card kind and names its dataset's storage path.
type ActorDefinition struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// ActorConfig holds the card kinds to register at startup.
type ActorConfig struct {
	Actors []ActorDefinition `json:"actors"`
}

// LoadActorConfig reads a JSON actor config file and validates it. Whether a
// kind exists is checked when it is registered.
func LoadActorConfig(path string) (*ActorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read actor config: %w", err)
	}

	var cfg ActorConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse actor config: %w", err)
	}

	if len(cfg.Actors) == 0 {
		return nil, fmt.Errorf("actor config: no actors defined")
	}

	kinds := make(map[string]bool, len(cfg.Actors))
	paths := make(map[string]string, len(cfg.Actors))
	for i, a := range cfg.Actors {
		if a.Kind == "" {
			return nil, fmt.Errorf("actor config: actor #%d has empty kind", i)
		}
		if kinds[a.Kind] {
			return nil, fmt.Errorf("actor config: duplicate kind %q", a.Kind)
		}
		kinds[a.Kind] = true
		if a.Path == "" {
			return nil, fmt.Errorf("actor config: actor %q has empty path", a.Kind)
		}
		if other, ok := paths[a.Path]; ok {
			return nil, fmt.Errorf("actor config: actors %q and %q share path %q", other, a.Kind, a.Path)
		}
		paths[a.Path] = a.Kind
	}

	return &cfg, nil
}
