package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopulse/harmonic"
)

func TestLoadDefaults(t *testing.T) {
	config, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, 256, config.Processor.DataLength)
	assert.Equal(t, 256, config.Processor.BufferLength)
	assert.Equal(t, 5, config.Processor.FilterLength)
	assert.Equal(t, 3, config.Processor.StrobeFactor)
	assert.Equal(t, 42.0, config.Processor.BottomBPM)
	assert.Equal(t, 270.0, config.Processor.TopBPM)
	assert.Equal(t, "dual", config.Processor.Mode)
	assert.Equal(t, "green", config.Processor.Channel)
	assert.Equal(t, 4, config.Processor.ZeroCrossings)
	assert.Equal(t, 25, config.Analysis.Every)
	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "pulse.frames", config.NATS.Frames)

	assert.Equal(t, harmonic.DefaultSettings(), config.Settings())
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gopulse.yaml")
	yaml := `
processor:
  datalength: 512
  bufferlength: 128
  mode: single
  channel: red
analysis:
  every: 10
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("GOPULSE_ANALYSIS_EVERY", "50")
	t.Setenv("GOPULSE_NATS_URL", "nats://broker:4222")

	config, err := Load(path, map[string]interface{}{
		"processor.bufferlength": 64,
	})
	require.NoError(t, err)

	assert.Equal(t, 512, config.Processor.DataLength, "file")
	assert.Equal(t, "single", config.Processor.Mode, "file")
	assert.Equal(t, "red", config.Processor.Channel, "file")
	assert.Equal(t, "debug", config.Log.Level, "file")
	assert.Equal(t, 50, config.Analysis.Every, "environment beats file")
	assert.Equal(t, "nats://broker:4222", config.NATS.URL, "environment")
	assert.Equal(t, 64, config.Processor.BufferLength, "override beats file")
	assert.Equal(t, 5, config.Processor.FilterLength, "default")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}

func TestSettingsKeepsExplicitZeroValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gopulse.yaml")
	yaml := `
processor:
  bottombpm: 0
  snrthreshold: 0
  filterlength: 7
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	config, err := Load(path, nil)
	require.NoError(t, err)

	expected := harmonic.DefaultSettings()
	expected.BottomBPM = 0
	expected.SNRThreshold = 0
	expected.FilterLength = 7
	assert.Equal(t, expected, config.Settings())
}
