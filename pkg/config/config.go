// Package config loads engine configuration from YAML with environment
// overrides for credentials. Every tunable carries a default so a missing
// file yields a fully working local configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-fraudgraph/pkg/analytics"
	"github.com/dd0wney/cluso-fraudgraph/pkg/explain"
	"github.com/dd0wney/cluso-fraudgraph/pkg/rules"
	"github.com/dd0wney/cluso-fraudgraph/pkg/store"
	"github.com/dd0wney/cluso-fraudgraph/pkg/validation"
)

// Duration wraps time.Duration so YAML accepts "60m" / "10s" spellings
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// StoreConfig configures the graph store connection. Credentials come from
// the environment in production; the YAML values are local-dev defaults.
type StoreConfig struct {
	URI      string `yaml:"uri" validate:"required"`
	Username string `yaml:"username" validate:"required"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PipelineConfig configures the analytics pipeline
type PipelineConfig struct {
	ProjectionName string   `yaml:"projection_name" validate:"required"`
	MaxIterations  int      `yaml:"max_iterations" validate:"min=1,max=1000"`
	DampingFactor  float64  `yaml:"damping_factor" validate:"gt=0,lt=1"`
	Tolerance      float64  `yaml:"tolerance" validate:"gte=0"`
	WriteBatchSize int      `yaml:"write_batch_size" validate:"min=1,max=100000"`
	Timeout        Duration `yaml:"timeout"`
}

// DetectorConfig configures the pattern detectors
type DetectorConfig struct {
	FanInMinSenders  int      `yaml:"fan_in_min_senders" validate:"min=1"`
	FanInWindow      Duration `yaml:"fan_in_window"`
	CircularMaxHops  int      `yaml:"circular_max_hops" validate:"min=1,max=8"`
	DetectionTimeout Duration `yaml:"detection_timeout"`
}

// ExplainConfig configures verdict behavior
type ExplainConfig struct {
	VerdictPolicy     string `yaml:"verdict_policy" validate:"oneof=flag_based pattern_augmented"`
	OnDetectorFailure string `yaml:"on_detector_failure" validate:"oneof=fail_open fail_closed"`
}

// Config is the full engine configuration
type Config struct {
	Store     StoreConfig    `yaml:"store"`
	Pipeline  PipelineConfig `yaml:"pipeline"`
	Detectors DetectorConfig `yaml:"detectors"`
	Explain   ExplainConfig  `yaml:"explain"`
	LogLevel  string         `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// Default returns the standard configuration
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			URI:      "bolt://localhost:7687",
			Username: "neo4j",
			Database: "neo4j",
		},
		Pipeline: PipelineConfig{
			ProjectionName: "fraud_graph",
			MaxIterations:  20,
			DampingFactor:  0.85,
			Tolerance:      1e-6,
			WriteBatchSize: 1000,
			Timeout:        Duration(5 * time.Minute),
		},
		Detectors: DetectorConfig{
			FanInMinSenders:  5,
			FanInWindow:      Duration(60 * time.Minute),
			CircularMaxHops:  4,
			DetectionTimeout: Duration(10 * time.Second),
		},
		Explain: ExplainConfig{
			VerdictPolicy:     string(explain.PolicyFlagBased),
			OnDetectorFailure: string(explain.FailClosed),
		},
		LogLevel: "info",
	}
}

// Load reads configuration from a YAML file layered over the defaults, then
// applies environment overrides and validates the result. An empty path
// yields the defaults with environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := validation.ValidateStruct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnv layers environment variables over the file values. Credentials
// should arrive this way rather than living in the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("FRAUDGRAPH_STORE_URI"); v != "" {
		c.Store.URI = v
	}
	if v := os.Getenv("FRAUDGRAPH_STORE_USERNAME"); v != "" {
		c.Store.Username = v
	}
	if v := os.Getenv("FRAUDGRAPH_STORE_PASSWORD"); v != "" {
		c.Store.Password = v
	}
	if v := os.Getenv("FRAUDGRAPH_STORE_DATABASE"); v != "" {
		c.Store.Database = v
	}
	if v := os.Getenv("FRAUDGRAPH_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// StoreOptions maps the store section onto the driver configuration
func (c *Config) StoreOptions() store.Neo4jConfig {
	return store.Neo4jConfig{
		URI:      c.Store.URI,
		Username: c.Store.Username,
		Password: c.Store.Password,
		Database: c.Store.Database,
	}
}

// PipelineOptions maps the pipeline section onto the analytics configuration
func (c *Config) PipelineOptions() analytics.Config {
	return analytics.Config{
		ProjectionName: c.Pipeline.ProjectionName,
		MaxIterations:  c.Pipeline.MaxIterations,
		DampingFactor:  c.Pipeline.DampingFactor,
		Tolerance:      c.Pipeline.Tolerance,
		WriteBatchSize: c.Pipeline.WriteBatchSize,
		Timeout:        time.Duration(c.Pipeline.Timeout),
	}
}

// FanInOptions maps the detector section onto the fan-in configuration
func (c *Config) FanInOptions() rules.FanInOptions {
	return rules.FanInOptions{
		MinSenders: c.Detectors.FanInMinSenders,
		Window:     time.Duration(c.Detectors.FanInWindow),
		Timeout:    time.Duration(c.Detectors.DetectionTimeout),
	}
}

// CircularFlowOptions maps the detector section onto the circular-flow
// configuration
func (c *Config) CircularFlowOptions() rules.CircularFlowOptions {
	return rules.CircularFlowOptions{
		MaxHops: c.Detectors.CircularMaxHops,
		Timeout: time.Duration(c.Detectors.DetectionTimeout),
	}
}

// ExplainOptions maps the explain section onto the explainer configuration
func (c *Config) ExplainOptions() explain.Options {
	return explain.Options{
		Verdict:           explain.VerdictPolicy(c.Explain.VerdictPolicy),
		OnDetectorFailure: explain.FailurePolicy(c.Explain.OnDetectorFailure),
	}
}
