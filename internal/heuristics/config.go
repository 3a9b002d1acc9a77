// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package heuristics recognizes entry points, exports, framework
// decorators, and auto-called dunders, and turns them into RootSet
// membership and confidence boosters for the resolver and confidence
// engine.
package heuristics

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed frameworks.yaml
var embeddedFrameworkConfig []byte

// Framework is one entry in the decorator-to-root registry.
type Framework struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
	Booster  int      `yaml:"booster"`
}

// FrameworkConfig is the full decorator registry.
type FrameworkConfig struct {
	Frameworks []Framework `yaml:"frameworks"`
}

var (
	frameworkConfigOnce sync.Once
	frameworkConfigMu   sync.RWMutex
	frameworkConfig     *FrameworkConfig
	frameworkConfigErr  error
)

// GetFrameworkConfig returns the process-wide framework registry, parsing
// and validating the embedded YAML exactly once.
func GetFrameworkConfig() (*FrameworkConfig, error) {
	frameworkConfigOnce.Do(func() {
		cfg, err := LoadFrameworkConfig(embeddedFrameworkConfig)
		frameworkConfigMu.Lock()
		frameworkConfig, frameworkConfigErr = cfg, err
		frameworkConfigMu.Unlock()
	})
	frameworkConfigMu.RLock()
	defer frameworkConfigMu.RUnlock()
	return frameworkConfig, frameworkConfigErr
}

// LoadFrameworkConfig parses and validates framework registry YAML. Exposed
// separately from GetFrameworkConfig so callers (and tests) can load a
// custom registry without touching the embedded default.
func LoadFrameworkConfig(data []byte) (*FrameworkConfig, error) {
	var cfg FrameworkConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing framework config: %w", err)
	}
	if err := validateFrameworkConfig(&cfg); err != nil {
		return nil, fmt.Errorf("validating framework config: %w", err)
	}
	return &cfg, nil
}

// ResetFrameworkConfig clears the cached singleton so a subsequent
// GetFrameworkConfig call re-parses the embedded YAML. Intended for tests.
func ResetFrameworkConfig() {
	frameworkConfigMu.Lock()
	defer frameworkConfigMu.Unlock()
	frameworkConfigOnce = sync.Once{}
	frameworkConfig = nil
	frameworkConfigErr = nil
}

// validateFrameworkConfig rejects registries that could never match
// anything: an empty set, or an entry missing a name or pattern list.
func validateFrameworkConfig(cfg *FrameworkConfig) error {
	if len(cfg.Frameworks) == 0 {
		return fmt.Errorf("framework config has no entries")
	}
	for i, fw := range cfg.Frameworks {
		if fw.Name == "" {
			return fmt.Errorf("framework[%d]: missing name", i)
		}
		if len(fw.Patterns) == 0 {
			return fmt.Errorf("framework[%d] %q: no patterns", i, fw.Name)
		}
		if fw.Booster <= 0 {
			return fmt.Errorf("framework[%d] %q: booster must be positive", i, fw.Name)
		}
	}
	return nil
}
