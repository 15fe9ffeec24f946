// Package config holds the read-only settings shared by every frame.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"garment-ironing/internal/metrics"
)

// Operator limits of the gaussian and morphology algorithms
const (
	maxBlurKernel      = 31
	maxMorphKernel     = 101
	maxMorphIterations = 20

	// a disk of radius r is a (2r+1) square kernel
	maxDiskRadius = (maxMorphKernel - 1) / 2
)

// TargetMode chooses how the highest region becomes a path target
type TargetMode string

const (
	// TargetPoint uses the first pixel of the highest region
	TargetPoint TargetMode = "point"
	// TargetCentroid uses the highest region's centroid
	TargetCentroid TargetMode = "centroid"
)

// WrinkleStrategy chooses how wrinkle pixels are detected
type WrinkleStrategy string

const (
	StrategyBand  WrinkleStrategy = "band"
	StrategyRidge WrinkleStrategy = "ridge"
)

// TraversalMode chooses how the wrinkle skeleton is walked
type TraversalMode string

const (
	TraversalDFS      TraversalMode = "dfs"
	TraversalShortest TraversalMode = "shortest"
)

// PathConfig configures candidate generation, scoring and selection
type PathConfig struct {
	// Metric is one of roughness, sum, sum_alt, sum_reserved
	Metric           string  `yaml:"metric"`
	OutlierMode      bool    `yaml:"outlier_mode"`
	OutlierThreshold float64 `yaml:"outlier_threshold"`
	// StepSize is the profile sampling distance in pixels
	StepSize float64 `yaml:"step_size"`
	// ContourEpsilon is the simplification tolerance as a fraction of the perimeter
	ContourEpsilon float64 `yaml:"contour_epsilon"`
	// MinInsideRatio is the fraction of a path that must lie on the garment
	MinInsideRatio float64    `yaml:"min_inside_ratio"`
	TargetMode     TargetMode `yaml:"target_mode"`
	// ExtendToBounds also reports the final line stretched to the image border
	ExtendToBounds bool `yaml:"extend_to_bounds"`
}

// WrinkleConfig configures wrinkle segmentation and traversal
type WrinkleConfig struct {
	Strategy       WrinkleStrategy `yaml:"strategy"`
	DilateRadius   int             `yaml:"dilate_radius"`
	ErodeRadius    int             `yaml:"erode_radius"`
	BandLow        float64         `yaml:"band_low"`
	BandHigh       float64         `yaml:"band_high"`
	RidgeThreshold float64         `yaml:"ridge_threshold"` // on the 0-255 scale
	RidgeSigmas    []float64       `yaml:"ridge_sigmas"`
	Traversal      TraversalMode   `yaml:"traversal"`
}

// DepthConfig configures height field construction
type DepthConfig struct {
	// SkipInvalid excludes readings equal to InvalidValue (sensor dropouts)
	// from the depth range and marks them with the sentinel
	SkipInvalid  bool    `yaml:"skip_invalid"`
	InvalidValue float64 `yaml:"invalid_value"`
}

// MaskConfig configures the default HSV/Otsu garment segmenter
type MaskConfig struct {
	BlurKernel      int `yaml:"blur_kernel"`
	MorphKernel     int `yaml:"morph_kernel"`
	CloseIterations int `yaml:"close_iterations"`
	OpenIterations  int `yaml:"open_iterations"`
}

// SegmentationConfig configures the default watershed labeler
type SegmentationConfig struct {
	BlurKernel      int     `yaml:"blur_kernel"`
	MarkerRadius    int     `yaml:"marker_radius"`
	MarkerThreshold float64 `yaml:"marker_threshold"` // gradient below this seeds a marker
	GradientRadius  int     `yaml:"gradient_radius"`
}

// DatasetConfig configures file naming for the frame loader
type DatasetConfig struct {
	RGBSuffix      string `yaml:"rgb_suffix"`
	DepthSuffix    string `yaml:"depth_suffix"`
	ImageSuffix    string `yaml:"image_suffix"`
	MaskSuffix     string `yaml:"mask_suffix"`
	TransposeDepth bool   `yaml:"transpose_depth"`
	Workers        int    `yaml:"workers"`
}

// Config holds configuration for the whole pipeline
type Config struct {
	Path         PathConfig         `yaml:"path"`
	Depth        DepthConfig        `yaml:"depth"`
	Wrinkle      WrinkleConfig      `yaml:"wrinkle"`
	Mask         MaskConfig         `yaml:"mask"`
	Segmentation SegmentationConfig `yaml:"segmentation"`
	Dataset      DatasetConfig      `yaml:"dataset"`
}

// Default returns the tuned configuration the dataset was calibrated with
func Default() Config {
	return Config{
		Path: PathConfig{
			Metric:           metrics.Roughness.String(),
			OutlierMode:      false,
			OutlierThreshold: -0.5,
			StepSize:         1,
			ContourEpsilon:   0.01,
			MinInsideRatio:   0.9,
			TargetMode:       TargetPoint,
			ExtendToBounds:   false,
		},
		Depth: DepthConfig{
			SkipInvalid:  false,
			InvalidValue: 0,
		},
		Wrinkle: WrinkleConfig{
			Strategy:       StrategyBand,
			DilateRadius:   3,
			ErodeRadius:    11,
			BandLow:        0.4,
			BandHigh:       0.95,
			RidgeThreshold: 160,
			RidgeSigmas:    []float64{1, 3, 5, 7, 9},
			Traversal:      TraversalDFS,
		},
		Mask: MaskConfig{
			BlurKernel:      5,
			MorphKernel:     5,
			CloseIterations: 5,
			OpenIterations:  8,
		},
		Segmentation: SegmentationConfig{
			BlurKernel:      5,
			MarkerRadius:    25,
			MarkerThreshold: 15,
			GradientRadius:  5,
		},
		Dataset: DatasetConfig{
			RGBSuffix:      ".png",
			DepthSuffix:    "-depth.txt",
			ImageSuffix:    "-wild_image.m",
			MaskSuffix:     "-image_mask.m",
			TransposeDepth: true,
			Workers:        1,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Adequacy returns the configured adequacy metric
func (c Config) Adequacy() (metrics.Adequacy, error) {
	return metrics.ParseAdequacy(c.Path.Metric)
}

// Validate checks every section for out of range values
func (c Config) Validate() error {
	if _, err := c.Adequacy(); err != nil {
		return err
	}
	if c.Path.StepSize <= 0 {
		return errors.New("path.step_size must be positive")
	}
	if c.Path.ContourEpsilon <= 0 || c.Path.ContourEpsilon >= 1 {
		return errors.New("path.contour_epsilon must be in (0, 1)")
	}
	if c.Path.MinInsideRatio < 0 || c.Path.MinInsideRatio > 1 {
		return errors.New("path.min_inside_ratio must be in [0, 1]")
	}
	if c.Path.TargetMode != TargetPoint && c.Path.TargetMode != TargetCentroid {
		return errors.Errorf("unknown path.target_mode %q", c.Path.TargetMode)
	}

	w := c.Wrinkle
	if w.Strategy != StrategyBand && w.Strategy != StrategyRidge {
		return errors.Errorf("unknown wrinkle.strategy %q", w.Strategy)
	}
	if w.Traversal != TraversalDFS && w.Traversal != TraversalShortest {
		return errors.Errorf("unknown wrinkle.traversal %q", w.Traversal)
	}
	if w.DilateRadius < 0 || w.ErodeRadius < 0 {
		return errors.New("wrinkle radii must not be negative")
	}
	if w.BandLow < 0 || w.BandHigh > 1 || w.BandLow >= w.BandHigh {
		return errors.New("wrinkle band must satisfy 0 <= band_low < band_high <= 1")
	}
	if w.RidgeThreshold < 0 || w.RidgeThreshold > 255 {
		return errors.New("wrinkle.ridge_threshold must be between 0 and 255")
	}
	if w.Strategy == StrategyRidge && len(w.RidgeSigmas) == 0 {
		return errors.New("wrinkle.ridge_sigmas must not be empty")
	}

	m := c.Mask
	if m.BlurKernel < 1 || m.BlurKernel > maxBlurKernel {
		return errors.Errorf("mask.blur_kernel must be between 1 and %d", maxBlurKernel)
	}
	if m.MorphKernel < 1 || m.MorphKernel > maxMorphKernel {
		return errors.Errorf("mask.morph_kernel must be between 1 and %d", maxMorphKernel)
	}
	if m.CloseIterations < 1 || m.CloseIterations > maxMorphIterations ||
		m.OpenIterations < 1 || m.OpenIterations > maxMorphIterations {
		return errors.Errorf("mask iterations must be between 1 and %d", maxMorphIterations)
	}

	sg := c.Segmentation
	if sg.BlurKernel < 1 || sg.BlurKernel > maxBlurKernel {
		return errors.Errorf("segmentation.blur_kernel must be between 1 and %d", maxBlurKernel)
	}
	if sg.MarkerRadius < 1 || sg.MarkerRadius > maxDiskRadius ||
		sg.GradientRadius < 1 || sg.GradientRadius > maxDiskRadius {
		return errors.Errorf("segmentation radii must be between 1 and %d", maxDiskRadius)
	}
	if c.Dataset.Workers < 1 {
		return errors.New("dataset.workers must be at least 1")
	}
	return nil
}
