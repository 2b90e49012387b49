package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/e7canasta/orion-care-sensor/modules/camera-control/internal/control"
)

// DefaultDevice is the capture device used when none is configured.
const DefaultDevice = "/dev/video0"

// Config represents the complete camera-control configuration
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Control  ControlConfig  `yaml:"control"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

// PipelineConfig describes the capture-to-display pipeline
type PipelineConfig struct {
	Name   string        `yaml:"name"`
	Device string        `yaml:"device"` // applied to a leading v4l2src stage
	Stages []StageConfig `yaml:"stages"`
}

// StageConfig defines a single pipeline stage
type StageConfig struct {
	Factory    string         `yaml:"factory"`
	Name       string         `yaml:"name"`
	Properties map[string]any `yaml:"properties,omitempty"`
}

// ControlConfig selects the operator command source
type ControlConfig struct {
	Source string `yaml:"source"` // "-" for stdin, or a file/FIFO path
}

// MetricsConfig contains Prometheus endpoint settings
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the endpoint
}

// LogConfig contains logging settings
type LogConfig struct {
	Format string `yaml:"format"` // text, json
	Debug  bool   `yaml:"debug"`
}

// Default returns the v4l2src → videoconvert → autovideosink configuration
func Default() Config {
	return Config{
		Pipeline: PipelineConfig{
			Name:   "camera-pipeline",
			Device: DefaultDevice,
			Stages: []StageConfig{
				{Factory: "v4l2src", Name: "source"},
				{Factory: "videoconvert", Name: "convert"},
				{Factory: "autovideosink", Name: "sink"},
			},
		},
		Control: ControlConfig{Source: control.StdinSource},
		Log:     LogConfig{Format: "text"},
	}
}

// Load reads and parses a YAML configuration file on top of Default
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Stages converts the configured stages to engine stages. The device is set
// on a leading v4l2src stage unless its properties already name one.
func (c *Config) Stages() []control.Stage {
	stages := make([]control.Stage, 0, len(c.Pipeline.Stages))
	for i, sc := range c.Pipeline.Stages {
		props := make(map[string]any, len(sc.Properties)+1)
		for k, v := range sc.Properties {
			props[k] = v
		}
		if i == 0 && sc.Factory == "v4l2src" && c.Pipeline.Device != "" {
			if _, ok := props["device"]; !ok {
				props["device"] = c.Pipeline.Device
			}
		}
		stages = append(stages, control.Stage{
			Factory:    sc.Factory,
			Name:       sc.Name,
			Properties: props,
		})
	}
	return stages
}
