package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "8600", cfg.Server.Port)
	assert.Equal(t, []string{"pixeljamarcade.com"}, cfg.Security.AllowedDomains)
	assert.Equal(t, 30*time.Second, cfg.Heartbeat.Interval)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DEVWATCH_PORT", "9100")
	t.Setenv("DEVWATCH_ALLOWED_DOMAINS", "pixeljamarcade.com,dev.pixeljamarcade.com")
	t.Setenv("DEVWATCH_HEARTBEAT_INTERVAL", "5s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, []string{"pixeljamarcade.com", "dev.pixeljamarcade.com"}, cfg.Security.AllowedDomains)
	assert.Equal(t, 5*time.Second, cfg.Heartbeat.Interval)
}

func TestLoadFrames(t *testing.T) {
	manifest := `
frames:
  - id: dino-run
    src: https://games.pixeljamarcade.com/dino
    title: Dino Run
    theme: crt-green
  - id: glorkbot
    src: https://games.pixeljamarcade.com/glorkbot
`
	path := filepath.Join(t.TempDir(), "frames.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))

	frames, err := LoadFrames(path)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, "dino-run", frames[0].ID)
	assert.Equal(t, "Dino Run", frames[0].Title)
	assert.Equal(t, "crt-green", frames[0].Theme)
	assert.Equal(t, "glorkbot", frames[1].ID)
	assert.Empty(t, frames[1].Theme)
}

func TestLoadFramesEmptyPath(t *testing.T) {
	frames, err := LoadFrames("")
	require.NoError(t, err)
	assert.Nil(t, frames)
}

func TestLoadFramesMissingFile(t *testing.T) {
	_, err := LoadFrames(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
