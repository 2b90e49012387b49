package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e7canasta/orion-care-sensor/modules/camera-control/internal/control"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "camera-control.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(&cfg))

	assert.Equal(t, "camera-pipeline", cfg.Pipeline.Name)
	assert.Equal(t, control.StdinSource, cfg.Control.Source)
	assert.Empty(t, cfg.Metrics.Addr)

	stages := cfg.Stages()
	require.Len(t, stages, 3)
	assert.Equal(t, control.Stage{Factory: "v4l2src", Name: "source", Properties: map[string]any{"device": DefaultDevice}}, stages[0])
	assert.Equal(t, "videoconvert", stages[1].Factory)
	assert.Equal(t, "autovideosink", stages[2].Factory)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  device: /dev/video2
control:
  source: /run/camera-control.fifo
metrics:
  addr: 127.0.0.1:9464
log:
  format: json
  debug: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/video2", cfg.Pipeline.Device)
	assert.Len(t, cfg.Pipeline.Stages, 3, "stages fall back to the default")
	assert.Equal(t, "/run/camera-control.fifo", cfg.Control.Source)
	assert.Equal(t, "127.0.0.1:9464", cfg.Metrics.Addr)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Log.Debug)
	assert.Equal(t, "/dev/video2", cfg.Stages()[0].Properties["device"])
}

func TestLoad_CustomStages(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  name: test-pipeline
  stages:
    - factory: videotestsrc
      name: source
      properties:
        num-buffers: 30
        is-live: true
    - factory: fakesink
      name: sink
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	stages := cfg.Stages()
	require.Len(t, stages, 2)
	assert.Equal(t, map[string]any{"num-buffers": 30, "is-live": true}, stages[0].Properties)
	assert.NotContains(t, stages[0].Properties, "device", "device applies to v4l2src only")
	assert.Empty(t, stages[1].Properties)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeConfig(t, "pipeline: [unterminated"))
	assert.ErrorContains(t, err, "failed to parse config")

	_, err = Load(writeConfig(t, "log:\n  format: xml\n"))
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestStages_DeviceNotOverridden(t *testing.T) {
	cfg := Default()
	cfg.Pipeline.Stages[0].Properties = map[string]any{"device": "/dev/video9"}

	assert.Equal(t, "/dev/video9", cfg.Stages()[0].Properties["device"])
	assert.Equal(t, "/dev/video9", cfg.Pipeline.Stages[0].Properties["device"])

	stages := cfg.Stages()
	stages[0].Properties["device"] = "changed"
	assert.Equal(t, "/dev/video9", cfg.Pipeline.Stages[0].Properties["device"], "Stages copies properties")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "default is valid", mutate: func(*Config) {}},
		{
			name:    "missing pipeline name",
			mutate:  func(c *Config) { c.Pipeline.Name = "" },
			wantErr: "pipeline.name is required",
		},
		{
			name:    "single stage",
			mutate:  func(c *Config) { c.Pipeline.Stages = c.Pipeline.Stages[:1] },
			wantErr: "at least a source and a sink",
		},
		{
			name:    "missing factory",
			mutate:  func(c *Config) { c.Pipeline.Stages[1].Factory = "" },
			wantErr: "pipeline.stages[1].factory is required",
		},
		{
			name:    "bad element name",
			mutate:  func(c *Config) { c.Pipeline.Stages[2].Name = "9sink" },
			wantErr: "pipeline.stages[2].name",
		},
		{
			name:    "duplicate element name",
			mutate:  func(c *Config) { c.Pipeline.Stages[2].Name = "source" },
			wantErr: "is not unique",
		},
		{
			name:    "element named like the pipeline",
			mutate:  func(c *Config) { c.Pipeline.Stages[1].Name = "camera-pipeline" },
			wantErr: "collides with the pipeline name",
		},
		{
			name:    "missing control source",
			mutate:  func(c *Config) { c.Control.Source = "" },
			wantErr: "control.source is required",
		},
		{
			name:    "bad metrics address",
			mutate:  func(c *Config) { c.Metrics.Addr = "9464" },
			wantErr: "metrics.addr",
		},
		{
			name:   "metrics port only",
			mutate: func(c *Config) { c.Metrics.Addr = ":9464" },
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "log.format must be text or json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := Validate(&cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidate_EmptyLogFormatDefaults(t *testing.T) {
	cfg := Default()
	cfg.Log.Format = ""

	require.NoError(t, Validate(&cfg))
	assert.Equal(t, "text", cfg.Log.Format)
}
