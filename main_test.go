package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopulse/config"
	"gopulse/harmonic"
)

func TestNewProcessorWithoutThresholdTable(t *testing.T) {
	conf, err := config.Load("", map[string]interface{}{
		"processor.mode":    "single",
		"processor.channel": "red",
		"thresholds.file":   filepath.Join(t.TempDir(), "absent.xml"),
	})
	require.NoError(t, err)

	var out bytes.Buffer
	log := logrus.New()
	log.SetOutput(&out)

	processor, mode, err := newProcessor(conf, log)
	require.NoError(t, err)

	assert.Equal(t, harmonic.Single, mode)
	assert.Equal(t, harmonic.Red, processor.Channel())

	low, high := processor.Thresholds()
	assert.Equal(t, 70.0, low)
	assert.Equal(t, 80.0, high)
	assert.Contains(t, out.String(), "keeping default plausible range")
}

func TestNewProcessorRejectsUnknownMode(t *testing.T) {
	conf, err := config.Load("", map[string]interface{}{
		"processor.mode": "triple",
	})
	require.NoError(t, err)

	_, _, err = newProcessor(conf, logrus.New())
	assert.Error(t, err)
}
