// Package oracle provides the two image-analysis collaborators of the path
// pipeline: a garment mask from a color image and a region labelling of
// the height field.
package oracle

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"garment-ironing/internal/algorithms"
	"garment-ironing/internal/config"
	"garment-ironing/internal/core"
)

// GarmentSegmenter separates the garment from the background
type GarmentSegmenter interface {
	SegmentGarment(bgr gocv.Mat) (*core.Mask, error)
}

// Labeler partitions a height field into regions of similar height.
// Label 0 marks pixels that belong to no region.
type Labeler interface {
	Label(heights *core.Grid) (*core.LabelMap, error)
}

// Validator is implemented by collaborators that can check their settings
// before the first frame
type Validator interface {
	Validate() error
}

// HSVOtsuSegmenter keeps pixels that are both saturated and dark relative
// to the scene, each decided by Otsu on a blurred channel, then cleans the
// result with closing and opening.
type HSVOtsuSegmenter struct {
	saturation []algorithms.Step
	value      []algorithms.Step
	cleanup    []algorithms.Step
}

func NewHSVOtsuSegmenter(cfg config.MaskConfig) *HSVOtsuSegmenter {
	blur := algorithms.Step{Name: "gaussian", Params: map[string]interface{}{"kernel_size": cfg.BlurKernel}}
	return &HSVOtsuSegmenter{
		saturation: []algorithms.Step{
			blur,
			{Name: "otsu"},
		},
		value: []algorithms.Step{
			blur,
			{Name: "otsu", Params: map[string]interface{}{"invert": true}},
		},
		cleanup: []algorithms.Step{
			{Name: "closing", Params: map[string]interface{}{"kernel_size": cfg.MorphKernel, "iterations": cfg.CloseIterations}},
			{Name: "opening", Params: map[string]interface{}{"kernel_size": cfg.MorphKernel, "iterations": cfg.OpenIterations}},
		},
	}
}

// Validate checks the operator chains against the algorithm registry
func (s *HSVOtsuSegmenter) Validate() error {
	for _, steps := range [][]algorithms.Step{s.saturation, s.value, s.cleanup} {
		if err := algorithms.ValidateSteps(steps); err != nil {
			return errors.Wrap(err, "garment segmenter")
		}
	}
	return nil
}

func (s *HSVOtsuSegmenter) SegmentGarment(bgr gocv.Mat) (*core.Mask, error) {
	if err := core.ValidateImage(bgr); err != nil {
		return nil, err
	}
	if bgr.Channels() != 3 {
		return nil, errors.Errorf("expected a 3 channel BGR image, got %d channels", bgr.Channels())
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV)

	channels := gocv.Split(hsv)
	defer func() {
		for _, c := range channels {
			c.Close()
		}
	}()

	saturated, err := algorithms.Chain(channels[1], s.saturation)
	if err != nil {
		return nil, errors.Wrap(err, "saturation threshold")
	}
	defer saturated.Close()

	dark, err := algorithms.Chain(channels[2], s.value)
	if err != nil {
		return nil, errors.Wrap(err, "value threshold")
	}
	defer dark.Close()

	both := gocv.NewMat()
	defer both.Close()
	gocv.BitwiseAnd(saturated, dark, &both)

	cleaned, err := algorithms.Chain(both, s.cleanup)
	if err != nil {
		return nil, errors.Wrap(err, "mask cleanup")
	}
	defer cleaned.Close()

	return core.MaskFromMat(cleaned)
}
