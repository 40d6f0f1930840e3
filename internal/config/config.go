// Package config loads party-deck configuration from YAML with sane
// defaults for every field, so a missing or partial file still yields a
// playable setup.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Learning tunes the reward and selection functions.
type Learning struct {
	Alpha              float64 `yaml:"alpha"`
	EpsilonStart       float64 `yaml:"epsilon_start"`
	EpsilonEnd         float64 `yaml:"epsilon_end"`
	DecayRounds        int     `yaml:"decay_rounds"`
	DiversityWindow    int     `yaml:"diversity_window"`
	MinPlays           int     `yaml:"min_plays_before_learning"`
	LatencyThresholdMs int     `yaml:"latency_threshold_ms"`
	LatencyPenaltyCap  float64 `yaml:"latency_penalty_cap"`
}

// Augment controls the optional rewrite path.
type Augment struct {
	Enabled   bool   `yaml:"enabled"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// Config is the root configuration document.
type Config struct {
	DeckDir    string   `yaml:"deck_dir"`
	LexiconDir string   `yaml:"lexicon_dir"`
	DataDir    string   `yaml:"data_dir"`
	Denylist   []string `yaml:"denylist"`
	Learning   Learning `yaml:"learning"`
	Augment    Augment  `yaml:"augment"`
	ListenAddr string   `yaml:"listen_addr"`
}

// Default returns the stock configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".party-deck")
	return &Config{
		DeckDir:    filepath.Join(base, "decks"),
		LexiconDir: filepath.Join(base, "lexicons"),
		DataDir:    filepath.Join(base, "data"),
		Denylist:   nil,
		Learning: Learning{
			Alpha:              0.3,
			EpsilonStart:       0.25,
			EpsilonEnd:         0.05,
			DecayRounds:        50,
			DiversityWindow:    3,
			MinPlays:           3,
			LatencyThresholdMs: 2000,
			LatencyPenaltyCap:  2.0,
		},
		Augment: Augment{
			Enabled:   false,
			Model:     "gemini-2.0-flash",
			APIKeyEnv: "GEMINI_API_KEY",
			TimeoutMs: 10000,
		},
		ListenAddr: "localhost:8787",
	}
}

// Load reads path and overlays it on the defaults. A missing file returns
// the defaults without error; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("make config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) normalize() {
	d := Default()
	if c.Learning.Alpha <= 0 || c.Learning.Alpha > 1 {
		c.Learning.Alpha = d.Learning.Alpha
	}
	if c.Learning.DecayRounds <= 0 {
		c.Learning.DecayRounds = d.Learning.DecayRounds
	}
	if c.Learning.DiversityWindow < 0 {
		c.Learning.DiversityWindow = d.Learning.DiversityWindow
	}
	if c.Learning.LatencyThresholdMs <= 0 {
		c.Learning.LatencyThresholdMs = d.Learning.LatencyThresholdMs
	}
	if c.Learning.LatencyPenaltyCap <= 0 {
		c.Learning.LatencyPenaltyCap = d.Learning.LatencyPenaltyCap
	}
	if c.Augment.Model == "" {
		c.Augment.Model = d.Augment.Model
	}
	if c.Augment.TimeoutMs <= 0 {
		c.Augment.TimeoutMs = d.Augment.TimeoutMs
	}
	if c.ListenAddr == "" {
		c.ListenAddr = d.ListenAddr
	}
}
