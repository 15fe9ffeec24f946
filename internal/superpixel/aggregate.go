// Package superpixel averages garment heights over externally computed
// regions and samples the resulting field along lines.
//
// Region identity acts as a coarse spatial prior: every downstream read
// sees the region mean instead of the noisy per-pixel height.
package superpixel

import (
	"image"
	"math"

	"github.com/pkg/errors"

	"garment-ironing/internal/core"
	"garment-ironing/internal/heightfield"
)

// Field is the superpixel height field of one frame
type Field struct {
	// Heights holds each in-garment pixel's region mean; outside pixels keep the sentinel
	Heights *core.Grid
	Labels  *core.LabelMap

	means  map[int]float64
	counts map[int]int
	order  []int // labels in first-seen row-major order
}

// Aggregate computes the mean height of every label over the garment pixels
// carrying it. In-garment pixels labelled 0 belong to no region and keep
// their own height.
func Aggregate(heights *core.Grid, labels *core.LabelMap) (*Field, error) {
	if heights == nil || labels == nil {
		return nil, errors.New("heights and labels are required")
	}
	if heights.Width != labels.Width || heights.Height != labels.Height {
		return nil, errors.Wrapf(core.ErrShapeMismatch, "heights %dx%d, labels %dx%d",
			heights.Width, heights.Height, labels.Width, labels.Height)
	}

	sums := make(map[int]float64)
	counts := make(map[int]int)
	var order []int

	for i, h := range heights.Data {
		label := labels.Data[i]
		if label <= 0 || !heightfield.IsGarment(h) {
			continue
		}
		if _, seen := counts[label]; !seen {
			order = append(order, label)
		}
		sums[label] += h
		counts[label]++
	}

	means := make(map[int]float64, len(sums))
	for label, sum := range sums {
		means[label] = sum / float64(counts[label])
	}

	field := heights.Clone()
	for i, h := range heights.Data {
		if label := labels.Data[i]; label > 0 && heightfield.IsGarment(h) {
			field.Data[i] = means[label]
		}
	}

	return &Field{
		Heights: field,
		Labels:  labels,
		means:   means,
		counts:  counts,
		order:   order,
	}, nil
}

// At returns the averaged height at (x, y), or the sentinel outside the grid
func (f *Field) At(x, y int) float64 {
	if !f.Heights.InBounds(x, y) {
		return heightfield.Sentinel
	}
	return f.Heights.At(x, y)
}

// Mean returns the representative height of a region
func (f *Field) Mean(label int) (float64, bool) {
	m, ok := f.means[label]
	return m, ok
}

// Size returns the number of garment pixels carrying label
func (f *Field) Size(label int) int {
	return f.counts[label]
}

// Regions returns the region ids overlapping the garment, in first-seen order
func (f *Field) Regions() []int {
	out := make([]int, len(f.order))
	copy(out, f.order)
	return out
}

// HighestLabel returns the region with the smallest mean, which is the
// physically highest one. Ties keep the first region seen.
func (f *Field) HighestLabel() (int, bool) {
	best, bestMean := 0, math.Inf(1)
	for _, label := range f.order {
		if m := f.means[label]; m < bestMean {
			best, bestMean = label, m
		}
	}
	return best, best != 0
}

// HighestPoint returns the first row-major pixel of the highest region
func (f *Field) HighestPoint() (image.Point, bool) {
	label, ok := f.HighestLabel()
	if !ok {
		return image.Point{}, false
	}
	for y := 0; y < f.Labels.Height; y++ {
		for x := 0; x < f.Labels.Width; x++ {
			if f.inRegion(x, y, label) {
				return image.Pt(x, y), true
			}
		}
	}
	return image.Point{}, false
}

// HighestRegionCentroid returns the rounded centroid of the highest region
func (f *Field) HighestRegionCentroid() (image.Point, bool) {
	label, ok := f.HighestLabel()
	if !ok {
		return image.Point{}, false
	}

	var sx, sy, n float64
	for y := 0; y < f.Labels.Height; y++ {
		for x := 0; x < f.Labels.Width; x++ {
			if f.inRegion(x, y, label) {
				sx += float64(x)
				sy += float64(y)
				n++
			}
		}
	}
	return image.Pt(int(math.Round(sx/n)), int(math.Round(sy/n))), true
}

// HighestRegionMask returns the garment pixels of the highest region
func (f *Field) HighestRegionMask() *core.Mask {
	mask := core.NewMask(f.Labels.Width, f.Labels.Height)
	label, ok := f.HighestLabel()
	if !ok {
		return mask
	}
	for y := 0; y < f.Labels.Height; y++ {
		for x := 0; x < f.Labels.Width; x++ {
			if f.inRegion(x, y, label) {
				mask.Set(x, y, true)
			}
		}
	}
	return mask
}

func (f *Field) inRegion(x, y, label int) bool {
	return f.Labels.At(x, y) == label && heightfield.IsGarment(f.Heights.At(x, y))
}
