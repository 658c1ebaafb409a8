package segment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("OUTPUT_BUCKET", "masks")
	t.Setenv("SEGMENTATION_ENDPOINT", "http://model:8080/segment")
	t.Setenv("OUTPUT_PREFIX", "")
	t.Setenv("SEGMENTATION_TIMEOUT", "")
	t.Setenv("OVERLAY_OPACITY", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "masks", cfg.OutputBucket)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultOpacity, cfg.Opacity)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigRequired(t *testing.T) {
	t.Setenv("OUTPUT_BUCKET", "")
	t.Setenv("SEGMENTATION_ENDPOINT", "http://model")
	_, err := LoadConfig()
	assert.EqualError(t, err, "OUTPUT_BUCKET is required")

	t.Setenv("OUTPUT_BUCKET", "masks")
	t.Setenv("SEGMENTATION_ENDPOINT", "")
	_, err = LoadConfig()
	assert.EqualError(t, err, "SEGMENTATION_ENDPOINT is required")
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("HYDROSEG_INT", "200")
	t.Setenv("HYDROSEG_BAD_INT", "x")
	assert.Equal(t, 200, getEnvInt("HYDROSEG_INT", 1))
	assert.Equal(t, 1, getEnvInt("HYDROSEG_BAD_INT", 1))

	t.Setenv("HYDROSEG_DUR", "90s")
	t.Setenv("HYDROSEG_SECS", "45")
	t.Setenv("HYDROSEG_BAD_DUR", "soon")
	assert.Equal(t, 90*time.Second, getEnvDuration("HYDROSEG_DUR", time.Second))
	assert.Equal(t, 45*time.Second, getEnvDuration("HYDROSEG_SECS", time.Second))
	assert.Equal(t, time.Second, getEnvDuration("HYDROSEG_BAD_DUR", time.Second))
}
