package pipeline

import (
	"image"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"garment-ironing/internal/config"
	"garment-ironing/internal/contour"
	"garment-ironing/internal/core"
	"garment-ironing/internal/wrinkle"
)

// Wrinkle stage names
const (
	StageWrinkleSegment = "wrinkle_segment"
	StageSkeleton       = "skeleton"
	StageEndpoints      = "endpoints"
	StageTraverse       = "traverse"
	StageSeverity       = "severity"
)

// WrinkleResult is the wrinkle stroke and severity of one frame. When no
// wrinkle is found Found is false, Path is empty and Severity is 0.
type WrinkleResult struct {
	Frame    string        `json:"frame"`
	Found    bool          `json:"found"`
	Path     []image.Point `json:"path"`
	Start    image.Point   `json:"start"`
	End      image.Point   `json:"end"`
	Severity float64       `json:"severity"`
}

// WrinklePipeline walks the dominant wrinkle of a garment
type WrinklePipeline struct {
	cfg      config.WrinkleConfig
	recorder *StageRecorder
	logger   logrus.FieldLogger
}

func NewWrinklePipeline(cfg config.Config, logger logrus.FieldLogger, recorder *StageRecorder) (*WrinklePipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	if recorder == nil {
		recorder = NewStageRecorder(logger)
	}
	return &WrinklePipeline{cfg: cfg.Wrinkle, recorder: recorder, logger: logger}, nil
}

// Recorder returns the stage recorder in use
func (p *WrinklePipeline) Recorder() *StageRecorder {
	return p.recorder
}

// Run segments the wrinkle of img inside mask, walks its skeleton from the
// leaf deepest inside the garment to the leaf nearest the border, and
// scores the garment's overall severity.
func (p *WrinklePipeline) Run(name string, img *core.Grid, mask *core.Mask) (*WrinkleResult, error) {
	if img == nil || mask == nil {
		return nil, errors.Wrap(core.ErrEmptyMask, "missing image or mask")
	}

	res := &WrinkleResult{Frame: name}
	track := func(stage string, fn func() error) error {
		if err := p.recorder.Track(name, stage, fn); err != nil {
			return errors.Wrap(err, stage)
		}
		return nil
	}

	var region *wrinkle.Region
	if err := track(StageWrinkleSegment, func() error {
		var err error
		region, err = wrinkle.Segment(img, mask, p.cfg)
		return err
	}); err != nil {
		return nil, err
	}
	if !region.Found {
		p.logger.WithField("frame", name).Info("No wrinkle found")
		return res, nil
	}
	res.Found = true

	var graph *wrinkle.Graph
	if err := track(StageSkeleton, func() error {
		skeleton, err := wrinkle.Skeletonize(region.Mask)
		if err != nil {
			return err
		}
		graph = wrinkle.BuildGraph(skeleton)
		return nil
	}); err != nil {
		return nil, err
	}

	var ends wrinkle.Endpoints
	if err := track(StageEndpoints, func() error {
		boundary, err := contour.Boundary(mask)
		if err != nil {
			return err
		}
		ends, err = wrinkle.SelectEndpoints(graph, boundary)
		return err
	}); err != nil {
		return nil, err
	}
	res.Start = graph.Points[ends.Start]
	res.End = graph.Points[ends.End]

	if err := track(StageTraverse, func() error {
		var err error
		res.Path, err = wrinkle.Traverse(graph, ends.Start, ends.End, p.cfg.Traversal)
		return err
	}); err != nil {
		return nil, err
	}

	if err := track(StageSeverity, func() error {
		var err error
		res.Severity, err = wrinkle.Severity(region.Normalized, mask)
		return err
	}); err != nil {
		return nil, err
	}

	p.logger.WithFields(logrus.Fields{
		"frame":    name,
		"points":   len(res.Path),
		"severity": res.Severity,
	}).Info("Wrinkle path traced")
	return res, nil
}
