package config_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wader/mpowiggle/internal/config"
	"github.com/wader/mpowiggle/internal/wiggle"
)

func TestDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 4.0, cfg.Speed)
	assert.Equal(t, 0, cfg.Offset)
	assert.Equal(t, "crop", cfg.Mode)
	assert.Equal(t, 5*time.Second, cfg.CaptureDuration)
	assert.Equal(t, ".", cfg.OutputDir)
	assert.Equal(t, "file", cfg.Sink)
	assert.NoError(t, cfg.Validate())
}

func TestFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mpowiggle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
speed: 8
offset: 12
mode: pad
capture_duration: 2s
output_dir: /tmp/wiggles
`), 0o644))
	t.Setenv("MPOWIGGLE_OFFSET", "20")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8.0, cfg.Speed)
	assert.Equal(t, 20, cfg.Offset)
	assert.Equal(t, 2*time.Second, cfg.CaptureDuration)
	assert.Equal(t, "/tmp/wiggles", cfg.OutputDir)
	// untouched by file and env
	assert.Equal(t, "info", cfg.LogLevel)

	a, err := cfg.Alignment()
	require.NoError(t, err)
	assert.Equal(t, wiggle.Alignment{Offset: 20, Mode: wiggle.Pad}, a)
	assert.Equal(t, 62.5, cfg.Playback().FrameIntervalMs())
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("speed: [fast"), 0o644))
	_, err = config.Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Speed = 0
	cfg.Offset = -1
	cfg.Mode = "zoom"
	cfg.Sink = "ftp"
	err = cfg.Validate()
	require.Error(t, err)
	for _, s := range []string{"speed", "offset", "zoom", "ftp"} {
		assert.Contains(t, err.Error(), s)
	}
}

func TestValidateSpeedWithoutInterval(t *testing.T) {
	for _, speed := range []float64{math.Inf(1), 1e10} {
		cfg, err := config.Default()
		require.NoError(t, err)
		cfg.Speed = speed
		err = cfg.Validate()
		require.Error(t, err, "speed %g", speed)
		assert.Contains(t, err.Error(), "speed")
	}
}
