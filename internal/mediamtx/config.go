// Package mediamtx keeps the co-located MediaMTX media server ready to
// ingest the node's SRT publish stream: config reconciliation, a unit
// restart when the config changed, and API readiness checks.
package mediamtx

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the subset of the MediaMTX configuration the node manages.
// Unknown keys in the file are preserved through the raw document.
type Config struct {
	API        bool   `yaml:"api"`
	APIAddress string `yaml:"apiAddress"`

	SRT        bool   `yaml:"srt"`
	SRTAddress string `yaml:"srtAddress"`

	Paths map[string]PathConfig `yaml:"paths"`

	// extra holds keys we don't model, round-tripped untouched.
	extra map[string]yaml.Node
}

// PathConfig configures one MediaMTX path.
type PathConfig struct {
	Source string `yaml:"source,omitempty"`
}

// DefaultConfig returns the configuration the node expects: API enabled
// for readiness checks, SRT ingest on the standard port, and an open path
// namespace for publishers.
func DefaultConfig() *Config {
	return &Config{
		API:        true,
		APIAddress: ":9997",
		SRT:        true,
		SRTAddress: ":8890",
		Paths: map[string]PathConfig{
			"all_others": {},
		},
	}
}

// LoadConfig reads a MediaMTX configuration file. A missing file yields
// the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read mediamtx config: %w", err)
	}

	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse mediamtx config: %w", err)
	}

	cfg := &Config{extra: doc}
	decodeKey(doc, "api", &cfg.API)
	decodeKey(doc, "apiAddress", &cfg.APIAddress)
	decodeKey(doc, "srt", &cfg.SRT)
	decodeKey(doc, "srtAddress", &cfg.SRTAddress)
	decodeKey(doc, "paths", &cfg.Paths)
	return cfg, nil
}

func decodeKey[T any](doc map[string]yaml.Node, key string, out *T) {
	if node, ok := doc[key]; ok {
		_ = node.Decode(out)
	}
}

// EnsureIngest reconciles the fields the node depends on. It returns true
// when something had to change, meaning the file needs a rewrite and the
// server a restart.
func (c *Config) EnsureIngest() bool {
	changed := false
	if !c.API {
		c.API = true
		changed = true
	}
	if c.APIAddress == "" {
		c.APIAddress = ":9997"
		changed = true
	}
	if !c.SRT {
		c.SRT = true
		changed = true
	}
	if c.SRTAddress == "" {
		c.SRTAddress = ":8890"
		changed = true
	}
	if c.Paths == nil {
		c.Paths = map[string]PathConfig{"all_others": {}}
		changed = true
	}
	return changed
}

// WriteFile persists the configuration, merging the managed fields back
// over any keys the file already carried.
func (c *Config) WriteFile(path string) error {
	doc := make(map[string]any, len(c.extra)+5)
	for k, node := range c.extra {
		n := node
		doc[k] = &n
	}
	doc["api"] = c.API
	doc["apiAddress"] = c.APIAddress
	doc["srt"] = c.SRT
	doc["srtAddress"] = c.SRTAddress
	doc["paths"] = c.Paths

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal mediamtx config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write mediamtx config: %w", err)
	}
	return nil
}
