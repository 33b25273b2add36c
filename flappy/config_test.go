package flappy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigDerivesSizes(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 400, cfg.Screen.Width)
	assert.Equal(t, 600, cfg.Screen.Height)
	assert.Equal(t, 50, cfg.Bird.Size)
	assert.Equal(t, 100, cfg.Pipe.Width)
	assert.Equal(t, 100, cfg.Ground.Height)
	assert.Equal(t, 500, cfg.GroundY())
	assert.Equal(t, 100, cfg.BirdX())
	assert.Equal(t, 300, cfg.BirdStartY())
	assert.Equal(t, ReachCrossing, cfg.Pipe.ReachMode)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigOverlaysFile(t *testing.T) {
	path := writeFile(t, "game.yaml", "pipe:\n  speed: 7\n  reach_mode: EXACT\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Pipe.Speed)
	assert.Equal(t, ReachExact, cfg.Pipe.ReachMode)
	assert.Equal(t, 150, cfg.Pipe.Gap, "keys missing from the file keep their defaults")
	assert.Equal(t, 50, cfg.Bird.JumpPower)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"gap too large", "pipe:\n  gap: 550\n", "does not fit"},
		{"unknown reach mode", "pipe:\n  reach_mode: sometimes\n", "reach_mode"},
		{"zero speed", "pipe:\n  speed: 0\n", "pipe.speed"},
		{"negative jump", "bird:\n  jump_power: -1\n", "cannot be negative"},
		{"bad yaml", "pipe: [", "parsing game config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, "game.yaml", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading game config")
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pipe.Speed = 12
	cfg.View.DrawLines = false

	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
