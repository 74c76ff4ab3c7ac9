// Package config loads juniper-merge settings from YAML or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/JuniperMerge/core/errors"
	"github.com/FocuswithJustin/JuniperMerge/core/ir"
	"github.com/FocuswithJustin/JuniperMerge/core/merge"
	"github.com/FocuswithJustin/JuniperMerge/internal/logging"
)

// Config holds every setting the command line reads from a file.
type Config struct {
	Log     LogConfig     `yaml:"log" json:"log"`
	Compare CompareConfig `yaml:"compare" json:"compare"`
	Report  ReportConfig  `yaml:"report" json:"report"`
}

// LogConfig selects the slog level and output format.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// CompareConfig tunes clustering.
type CompareConfig struct {
	// CorrelationThreshold is the minimum text similarity for two verse
	// lines to be paired.
	CorrelationThreshold float64 `yaml:"correlation_threshold" json:"correlation_threshold"`
	// HeadProximity is how many verses apart two section heads may start
	// and still be paired.
	HeadProximity int    `yaml:"head_proximity" json:"head_proximity"`
	PreferredSide string `yaml:"preferred_side" json:"preferred_side"`
}

// ReportConfig controls where reports go.
type ReportConfig struct {
	Compress bool   `yaml:"compress" json:"compress"`
	Database string `yaml:"database,omitempty" json:"database,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Compare: CompareConfig{
			CorrelationThreshold: merge.DefaultThreshold,
			HeadProximity:        merge.DefaultHeadProximity,
			PreferredSide:        ir.Current.String(),
		},
	}
}

// Load reads path as YAML, falling back to JSON. Settings missing from the
// file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, errors.NewParse("config", path, fmt.Sprintf("not YAML or JSON: %v", err))
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return errors.NewValidation("log.level", err.Error())
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return errors.NewValidation("log.format", err.Error())
	}
	if t := c.Compare.CorrelationThreshold; t <= 0 || t > 1 {
		return errors.NewValidation("compare.correlation_threshold",
			fmt.Sprintf("%v is outside (0, 1]", t))
	}
	if c.Compare.HeadProximity < 0 {
		return errors.NewValidation("compare.head_proximity", "must not be negative")
	}
	if _, err := ir.ParseSide(c.Compare.PreferredSide); err != nil {
		return errors.NewValidation("compare.preferred_side", err.Error())
	}
	return nil
}

// InitLogging configures the global logger from c.Log. verbose forces the
// debug level.
func (c *Config) InitLogging(verbose bool) error {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return err
	}
	if verbose {
		level = logging.LevelDebug
	}
	format, err := logging.ParseFormat(c.Log.Format)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)
	return nil
}

// Merger returns a merger tuned by c.Compare.
func (c *Config) Merger() (*merge.Merger, error) {
	side, err := ir.ParseSide(c.Compare.PreferredSide)
	if err != nil {
		return nil, err
	}
	m := merge.NewMerger()
	m.Simplifier.Threshold = c.Compare.CorrelationThreshold
	m.HeadProximity = c.Compare.HeadProximity
	m.Preferred = side
	return m, nil
}

// Save writes c to path, as JSON when the path ends in ".json" and as YAML
// otherwise.
func Save(c *Config, path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewIO("write", path, err)
	}
	return nil
}
