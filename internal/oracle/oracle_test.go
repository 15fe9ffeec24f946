package oracle

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"garment-ironing/internal/config"
	"garment-ironing/internal/core"
)

func TestHSVOtsuSegmenterFindsGarment(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(250, 250, 250, 0), 200, 200, gocv.MatTypeCV8UC3)
	defer img.Close()
	gocv.Rectangle(&img, image.Rect(50, 50, 150, 150), color.RGBA{R: 20, G: 40, B: 120, A: 255}, -1)

	mask, err := NewHSVOtsuSegmenter(config.Default().Mask).SegmentGarment(img)
	require.NoError(t, err)
	assert.True(t, mask.At(100, 100))
	assert.True(t, mask.At(60, 140))
	assert.False(t, mask.At(5, 5))
	assert.False(t, mask.At(190, 100))
}

func TestHSVOtsuSegmenterRejectsGray(t *testing.T) {
	gray := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC1)
	defer gray.Close()
	_, err := NewHSVOtsuSegmenter(config.Default().Mask).SegmentGarment(gray)
	assert.Error(t, err)
}

func TestWatershedLabelerSplitsPlateaus(t *testing.T) {
	heights := core.NewGrid(100, 60)
	for y := 0; y < 60; y++ {
		for x := 0; x < 100; x++ {
			v := 50.0
			if x >= 50 {
				v = 200
			}
			heights.Set(x, y, v)
		}
	}

	labels, err := NewWatershedLabeler(config.Default().Segmentation).Label(heights)
	require.NoError(t, err)
	left, right := labels.At(5, 30), labels.At(95, 30)
	assert.Positive(t, left)
	assert.Positive(t, right)
	assert.NotEqual(t, left, right)
	assert.Equal(t, left, labels.At(20, 10))
}

func TestOraclesValidateTheirChains(t *testing.T) {
	cfg := config.Default()
	assert.NoError(t, NewHSVOtsuSegmenter(cfg.Mask).Validate())
	assert.NoError(t, NewWatershedLabeler(cfg.Segmentation).Validate())

	mask := cfg.Mask
	mask.OpenIterations = 21
	assert.Error(t, NewHSVOtsuSegmenter(mask).Validate())

	seg := cfg.Segmentation
	seg.MarkerRadius = 60
	assert.Error(t, NewWatershedLabeler(seg).Validate())
}
