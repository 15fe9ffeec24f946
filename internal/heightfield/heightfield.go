// Package heightfield turns raw garment depth into a bounded 8-bit height map.
//
// Normalized values keep the depth orientation: 0 is the garment point
// closest to the camera (physically highest) and 254 the farthest. Cells
// outside the garment hold Sentinel.
package heightfield

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"garment-ironing/internal/core"
)

const (
	// Sentinel marks cells outside the garment
	Sentinel = 255.0
	// MaxHeight is the largest normalized in-garment value
	MaxHeight = 254.0
)

type options struct {
	skip    bool
	invalid float64
}

// Option customizes Build
type Option func(*options)

// SkipDepth treats readings equal to v as sensor dropouts. They take no
// part in the depth range and hold Sentinel in the height map.
func SkipDepth(v float64) Option {
	return func(o *options) {
		o.skip = true
		o.invalid = v
	}
}

func (o options) valid(d float64) bool {
	return !o.skip || d != o.invalid
}

// Build rescales in-garment depths to [0, MaxHeight] and forces the rest to Sentinel
func Build(depth *core.Grid, mask *core.Mask, opts ...Option) (*core.Grid, error) {
	if depth == nil || mask == nil {
		return nil, errors.New("depth and mask are required")
	}
	if !mask.SameShape(depth.Width, depth.Height) {
		return nil, errors.Wrapf(core.ErrShapeMismatch, "depth %dx%d, mask %dx%d",
			depth.Width, depth.Height, mask.Width, mask.Height)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	minDepth, maxDepth, err := depthRange(depth, mask, o)
	if err != nil {
		return nil, err
	}

	heights := core.NewGrid(depth.Width, depth.Height)
	scale := MaxHeight / (maxDepth - minDepth)
	for i, d := range depth.Data {
		if mask.Data[i] == core.Background || !o.valid(d) {
			heights.Data[i] = Sentinel
			continue
		}
		heights.Data[i] = math.Round((d - minDepth) * scale)
	}
	return heights, nil
}

// DepthRange returns min and max depth over the garment pixels
func DepthRange(depth *core.Grid, mask *core.Mask, opts ...Option) (float64, float64, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return depthRange(depth, mask, o)
}

func depthRange(depth *core.Grid, mask *core.Mask, o options) (float64, float64, error) {
	inside := make([]float64, 0, len(depth.Data))
	for i, d := range depth.Data {
		if mask.Data[i] != core.Background && o.valid(d) {
			inside = append(inside, d)
		}
	}
	if len(inside) == 0 {
		return 0, 0, core.ErrEmptyMask
	}

	minDepth, maxDepth := floats.Min(inside), floats.Max(inside)
	if maxDepth == minDepth {
		return 0, 0, errors.Wrapf(core.ErrDegenerateRange, "garment depth is flat at %v", minDepth)
	}
	return minDepth, maxDepth, nil
}

// IsGarment reports whether a height map value belongs to the garment
func IsGarment(v float64) bool {
	return v != Sentinel
}
