package config

import (
	"fmt"
	"net"
	"regexp"
)

var elementNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_\-]*$`)

// Validate checks if the configuration is valid
func Validate(cfg *Config) error {
	// Validate pipeline
	if cfg.Pipeline.Name == "" {
		return fmt.Errorf("pipeline.name is required")
	}
	if len(cfg.Pipeline.Stages) < 2 {
		return fmt.Errorf("pipeline.stages needs at least a source and a sink (got %d)", len(cfg.Pipeline.Stages))
	}

	seen := make(map[string]bool, len(cfg.Pipeline.Stages))
	for i, stage := range cfg.Pipeline.Stages {
		if stage.Factory == "" {
			return fmt.Errorf("pipeline.stages[%d].factory is required", i)
		}
		if !elementNamePattern.MatchString(stage.Name) {
			return fmt.Errorf("pipeline.stages[%d].name %q must match %s", i, stage.Name, elementNamePattern)
		}
		if seen[stage.Name] {
			return fmt.Errorf("pipeline.stages[%d].name %q is not unique", i, stage.Name)
		}
		if stage.Name == cfg.Pipeline.Name {
			return fmt.Errorf("pipeline.stages[%d].name %q collides with the pipeline name", i, stage.Name)
		}
		seen[stage.Name] = true
	}

	// Validate control source
	if cfg.Control.Source == "" {
		return fmt.Errorf("control.source is required")
	}

	// Validate metrics address
	if cfg.Metrics.Addr != "" {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Addr); err != nil {
			return fmt.Errorf("metrics.addr %q: %w", cfg.Metrics.Addr, err)
		}
	}

	// Validate log format
	switch cfg.Log.Format {
	case "text", "json":
	case "":
		cfg.Log.Format = "text" // default
	default:
		return fmt.Errorf("log.format must be text or json (got %q)", cfg.Log.Format)
	}

	return nil
}
