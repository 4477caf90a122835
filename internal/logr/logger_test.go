package logr

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		format string
	}{
		{"default", "default"},
		{"text", "text"},
		{"json", "json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(&Config{Format: tt.format})
			require.NoError(t, err)
			assert.Equal(t, Format(tt.format), logger.Format)
		})
	}

	t.Run("unrecognised format", func(t *testing.T) {
		_, err := New(&Config{Format: "yaml"})
		assert.Error(t, err)
	})
}

func TestToSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, toSlogLevel(0))
	assert.Equal(t, slog.Level(-4), toSlogLevel(1))
	assert.Equal(t, slog.Level(-5), toSlogLevel(2))
}
