package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	tests := map[string]struct {
		level    string
		expected logrus.Level
		hasError bool
	}{
		"debug":   {level: "debug", expected: logrus.DebugLevel},
		"warning": {level: "warning", expected: logrus.WarnLevel},
		"upper":   {level: "INFO", expected: logrus.InfoLevel},
		"unknown": {level: "chatty", hasError: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			log, err := New(tc.level, "", 1)
			if tc.hasError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, log.GetLevel())
			assert.Empty(t, log.Hooks)
		})
	}
}

func TestNewWritesLevelFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	log, err := New("info", dir, 3)
	require.NoError(t, err)
	log.Out = os.Stderr

	log.Info("processor started")
	log.Warn("thresholds missing")

	info, err := filepath.Glob(filepath.Join(dir, "info-*.log"))
	require.NoError(t, err)
	require.Len(t, info, 1)

	content, err := os.ReadFile(info[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "processor started")
	assert.NotContains(t, string(content), "thresholds missing")

	warn, err := filepath.Glob(filepath.Join(dir, "warning-*.log"))
	require.NoError(t, err)
	assert.Len(t, warn, 1)
}
