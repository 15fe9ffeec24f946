package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garment-ironing/internal/metrics"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	a, err := cfg.Adequacy()
	require.NoError(t, err)
	assert.Equal(t, metrics.Roughness, a)
	assert.False(t, cfg.Path.OutlierMode)
	assert.Equal(t, -0.5, cfg.Path.OutlierThreshold)
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ironing.yaml")
	yamlDoc := `
path:
  metric: sum
  outlier_mode: true
wrinkle:
  strategy: ridge
  traversal: shortest
depth:
  skip_invalid: true
dataset:
  workers: 4
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sum", cfg.Path.Metric)
	assert.True(t, cfg.Path.OutlierMode)
	assert.Equal(t, StrategyRidge, cfg.Wrinkle.Strategy)
	assert.Equal(t, TraversalShortest, cfg.Wrinkle.Traversal)
	assert.Equal(t, 4, cfg.Dataset.Workers)
	assert.True(t, cfg.Depth.SkipInvalid)
	assert.Equal(t, 0.0, cfg.Depth.InvalidValue)
	// untouched keys keep their defaults
	assert.Equal(t, 11, cfg.Wrinkle.ErodeRadius)
	assert.Equal(t, 1.0, cfg.Path.StepSize)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"metric":  "path:\n  metric: curvature\n",
		"band":    "wrinkle:\n  band_low: 0.9\n  band_high: 0.2\n",
		"target":  "path:\n  target_mode: corner\n",
		"workers": "dataset:\n  workers: 0\n",
		"closing": "mask:\n  close_iterations: 21\n",
		"opening": "mask:\n  open_iterations: 0\n",
		"kernel":  "mask:\n  morph_kernel: 103\n",
		"blur":    "segmentation:\n  blur_kernel: 33\n",
		"marker":  "segmentation:\n  marker_radius: 51\n",
		"flood":   "segmentation:\n  gradient_radius: 60\n",
		"garbage": "path: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Path, cfg.Path)
}
