// Package pipeline wires the per-frame stages together and runs batches of
// frames.
package pipeline

import (
	"image"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"garment-ironing/internal/config"
	"garment-ironing/internal/contour"
	"garment-ironing/internal/core"
	"garment-ironing/internal/heightfield"
	"garment-ironing/internal/metrics"
	"garment-ironing/internal/oracle"
	"garment-ironing/internal/paths"
	"garment-ironing/internal/superpixel"
)

// Stage names used for timing
const (
	StageMask      = "mask"
	StageContour   = "contour"
	StageHeight    = "heightfield"
	StageLabel     = "labels"
	StageAggregate = "aggregate"
	StageGenerate  = "candidates"
	StageScore     = "score"
	StageSelect    = "select"
	StageExtend    = "extend"
)

// PathResult is the ironing path of one frame
type PathResult struct {
	Frame      string          `json:"frame"`
	Contour    contour.Contour `json:"contour"`
	Target     image.Point     `json:"target"`
	Start      image.Point     `json:"start"`
	End        image.Point     `json:"end"`
	Score      float64         `json:"score"`
	Anchors    []int           `json:"anchors"`
	Candidates int             `json:"candidates"`
	// Adequacies scores the final path with every registered metric
	Adequacies map[string]float64 `json:"adequacies"`
	// Extended is the final line stretched to the image border, when requested
	Extended *paths.Segment `json:"extended,omitempty"`
	// Crossing holds the pixels of Extended inside the highest region
	Crossing []image.Point `json:"crossing,omitempty"`

	Scored    []paths.Scored    `json:"-"`
	Selection paths.Selection   `json:"-"`
	Field     *superpixel.Field `json:"-"`
}

// PathPipeline computes the ironing path from a garment mask and a depth map
type PathPipeline struct {
	cfg       config.Config
	metric    metrics.Adequacy
	evaluator *metrics.Evaluator
	selector  paths.Selector
	segmenter oracle.GarmentSegmenter
	labeler   oracle.Labeler
	recorder  *StageRecorder
	logger    logrus.FieldLogger
}

// PathOption customizes a PathPipeline
type PathOption func(*PathPipeline)

// WithSegmenter replaces the default HSV/Otsu garment segmenter
func WithSegmenter(s oracle.GarmentSegmenter) PathOption {
	return func(p *PathPipeline) { p.segmenter = s }
}

// WithLabeler replaces the default watershed labeler
func WithLabeler(l oracle.Labeler) PathOption {
	return func(p *PathPipeline) { p.labeler = l }
}

// WithRecorder shares a stage recorder, typically across a batch
func WithRecorder(r *StageRecorder) PathOption {
	return func(p *PathPipeline) { p.recorder = r }
}

func NewPathPipeline(cfg config.Config, logger logrus.FieldLogger, opts ...PathOption) (*PathPipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	metric, err := cfg.Adequacy()
	if err != nil {
		return nil, err
	}

	evaluator := metrics.NewEvaluator()
	higherBetter, err := evaluator.HigherIsBetter(metric)
	if err != nil {
		return nil, err
	}

	p := &PathPipeline{
		cfg:       cfg,
		metric:    metric,
		evaluator: evaluator,
		selector:  paths.NewSelector(cfg.Path.OutlierMode, cfg.Path.OutlierThreshold, higherBetter),
		segmenter: oracle.NewHSVOtsuSegmenter(cfg.Mask),
		labeler:   oracle.NewWatershedLabeler(cfg.Segmentation),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	for _, c := range []interface{}{p.segmenter, p.labeler} {
		if v, ok := c.(oracle.Validator); ok {
			if err := v.Validate(); err != nil {
				return nil, err
			}
		}
	}
	if p.recorder == nil {
		p.recorder = NewStageRecorder(logger)
	}
	return p, nil
}

// Recorder returns the stage recorder in use
func (p *PathPipeline) Recorder() *StageRecorder {
	return p.recorder
}

// RunFrame derives the garment mask from the colour image and runs the path stages
func (p *PathPipeline) RunFrame(name string, bgr gocv.Mat, depth *core.Grid) (*PathResult, error) {
	var mask *core.Mask
	err := p.recorder.Track(name, StageMask, func() error {
		var err error
		mask, err = p.segmenter.SegmentGarment(bgr)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "garment mask")
	}
	return p.Run(name, mask, depth)
}

// Run computes the ironing path of one frame. An empty mask stops the frame
// at the contour stage with core.ErrEmptyMask.
func (p *PathPipeline) Run(name string, mask *core.Mask, depth *core.Grid) (*PathResult, error) {
	if mask == nil || depth == nil {
		return nil, errors.Wrap(core.ErrEmptyMask, "missing mask or depth")
	}
	if !mask.SameShape(depth.Width, depth.Height) {
		return nil, errors.Wrapf(core.ErrShapeMismatch, "mask %dx%d, depth %dx%d",
			mask.Width, mask.Height, depth.Width, depth.Height)
	}

	res := &PathResult{Frame: name}
	track := func(stage string, fn func() error) error {
		if err := p.recorder.Track(name, stage, fn); err != nil {
			return errors.Wrap(err, stage)
		}
		return nil
	}

	if err := track(StageContour, func() error {
		var err error
		res.Contour, err = contour.Extract(mask, p.cfg.Path.ContourEpsilon)
		return err
	}); err != nil {
		return nil, err
	}

	var heights *core.Grid
	if err := track(StageHeight, func() error {
		var err error
		heights, err = heightfield.Build(depth, mask, p.heightOptions()...)
		return err
	}); err != nil {
		return nil, err
	}

	var labels *core.LabelMap
	if err := track(StageLabel, func() error {
		var err error
		labels, err = p.labeler.Label(heights)
		return err
	}); err != nil {
		return nil, err
	}

	if err := track(StageAggregate, func() error {
		var err error
		res.Field, err = superpixel.Aggregate(heights, labels)
		if err != nil {
			return err
		}
		var ok bool
		if p.cfg.Path.TargetMode == config.TargetCentroid {
			res.Target, ok = res.Field.HighestRegionCentroid()
		} else {
			res.Target, ok = res.Field.HighestPoint()
		}
		if !ok {
			return errors.Wrap(core.ErrEmptyMask, "no labelled garment region")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	var candidates []paths.Candidate
	if err := track(StageGenerate, func() error {
		var err error
		candidates, err = paths.Generate(res.Contour, []image.Point{res.Target},
			paths.InsideMask(mask, p.cfg.Path.MinInsideRatio))
		return err
	}); err != nil {
		return nil, err
	}
	res.Candidates = len(candidates)

	if err := track(StageScore, func() error {
		var err error
		res.Scored, err = paths.Score(res.Field, candidates, p.evaluator, p.metric, p.cfg.Path.StepSize)
		return err
	}); err != nil {
		return nil, err
	}

	if err := track(StageSelect, func() error {
		var err error
		res.Selection, err = p.selector.Select(res.Scored)
		if err != nil {
			return err
		}
		final := superpixel.SampleLine(res.Field, res.Selection.Final.Start, res.Selection.Final.End, p.cfg.Path.StepSize)
		res.Adequacies = p.evaluator.CalculateAll(final.GarmentSamples())
		return nil
	}); err != nil {
		return nil, err
	}
	res.Start = res.Selection.Final.Start
	res.End = res.Selection.Final.End
	res.Score = res.Selection.Score
	for _, c := range res.Selection.Chosen {
		res.Anchors = append(res.Anchors, c.AnchorID)
	}

	if p.cfg.Path.ExtendToBounds {
		err := p.recorder.Track(name, StageExtend, func() error {
			ext, err := paths.ExtendToBounds(res.Selection.Final, image.Rect(0, 0, mask.Width, mask.Height))
			if err != nil {
				return err
			}
			res.Extended = &ext
			res.Crossing = paths.RegionCrossing(ext, res.Field.HighestRegionMask())
			return nil
		})
		// a degenerate final segment still leaves a usable path
		if err != nil && !errors.Is(err, core.ErrNoIntersection) {
			return nil, errors.Wrap(err, StageExtend)
		}
	}

	p.logger.WithFields(logrus.Fields{
		"frame":      name,
		"start":      res.Start,
		"end":        res.End,
		"score":      res.Score,
		"candidates": res.Candidates,
		"adequacies": res.Adequacies,
	}).Info("Ironing path selected")
	return res, nil
}

func (p *PathPipeline) heightOptions() []heightfield.Option {
	if !p.cfg.Depth.SkipInvalid {
		return nil
	}
	return []heightfield.Option{heightfield.SkipDepth(p.cfg.Depth.InvalidValue)}
}
