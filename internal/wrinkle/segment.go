// Package wrinkle finds the dominant wrinkle on a garment, walks its
// skeleton and scores how wrinkled the garment is.
package wrinkle

import (
	"image"
	"math"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"garment-ironing/internal/config"
	"garment-ironing/internal/contour"
	"garment-ironing/internal/core"
)

// Region is the outcome of wrinkle segmentation
type Region struct {
	// Mask holds the filled largest wrinkle component; nil when Found is false
	Mask *core.Mask
	// Normalized is the input image scaled to [0,1] over the garment, 0 elsewhere
	Normalized *core.Grid
	Found      bool
}

// InnerMask grows the garment mask by dilate pixels and then shrinks it by
// erode pixels, both with elliptical kernels of size 2r+1.
func InnerMask(mask *core.Mask, dilate, erode int) (*core.Mask, error) {
	src := mask.ToMat()
	defer src.Close()

	grown := gocv.NewMat()
	defer grown.Close()
	dk := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(2*dilate+1, 2*dilate+1))
	defer dk.Close()
	gocv.Dilate(src, &grown, dk)

	shrunk := gocv.NewMat()
	defer shrunk.Close()
	ek := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(2*erode+1, 2*erode+1))
	defer ek.Close()
	gocv.Erode(grown, &shrunk, ek)

	return core.MaskFromMat(shrunk)
}

// Normalize scales img to [0,1] using the min and max of the in-mask pixels.
// Pixels outside the mask are 0.
func Normalize(img *core.Grid, mask *core.Mask) (*core.Grid, error) {
	if mask == nil || mask.Empty() {
		return nil, core.ErrEmptyMask
	}
	if !mask.SameShape(img.Width, img.Height) {
		return nil, errors.Wrapf(core.ErrShapeMismatch, "image %dx%d, mask %dx%d",
			img.Width, img.Height, mask.Width, mask.Height)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i, v := range img.Data {
		if mask.Data[i] == core.Background {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		return nil, errors.Wrapf(core.ErrDegenerateRange, "garment intensity is constant at %g", lo)
	}

	out := core.NewGrid(img.Width, img.Height)
	for i, v := range img.Data {
		if mask.Data[i] != core.Background {
			out.Data[i] = (v - lo) / (hi - lo)
		}
	}
	return out, nil
}

// Segment locates the dominant wrinkle of the garment. Finding nothing is
// reported through Region.Found, not as an error.
func Segment(img *core.Grid, mask *core.Mask, cfg config.WrinkleConfig) (*Region, error) {
	norm, err := Normalize(img, mask)
	if err != nil {
		return nil, err
	}

	var candidate *core.Mask
	switch cfg.Strategy {
	case config.StrategyBand:
		inner, err := InnerMask(mask, cfg.DilateRadius, cfg.ErodeRadius)
		if err != nil {
			return nil, errors.Wrap(err, "inner mask")
		}
		candidate = bandMask(norm, inner, cfg.BandLow, cfg.BandHigh)
	case config.StrategyRidge:
		candidate, err = ridgeMask(norm, mask, cfg.RidgeSigmas, cfg.RidgeThreshold)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.Errorf("unknown wrinkle strategy %q", cfg.Strategy)
	}

	region := &Region{Normalized: norm}
	if candidate.Empty() {
		return region, nil
	}

	filled, err := contour.FillLargest(candidate)
	if err != nil {
		if errors.Is(err, core.ErrEmptyMask) {
			return region, nil
		}
		return nil, err
	}
	region.Mask = filled
	region.Found = true
	return region, nil
}

func bandMask(norm *core.Grid, inner *core.Mask, low, high float64) *core.Mask {
	out := core.NewMask(norm.Width, norm.Height)
	for i, v := range norm.Data {
		if inner.Data[i] != core.Background && v > low && v < high {
			out.Data[i] = core.Foreground
		}
	}
	return out
}

func ridgeMask(norm *core.Grid, mask *core.Mask, sigmas []float64, threshold float64) (*core.Mask, error) {
	response, err := Frangi(norm, sigmas, DefaultFrangiBeta)
	if err != nil {
		return nil, errors.Wrap(err, "ridge filter")
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i, v := range response.Data {
		if mask.Data[i] == core.Background {
			response.Data[i] = 0
			continue
		}
		if v != 0 {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	out := core.NewMask(norm.Width, norm.Height)
	if math.IsInf(lo, 1) || hi == lo {
		return out, nil
	}
	for i, v := range response.Data {
		if v == 0 {
			continue
		}
		if (v-lo)/(hi-lo)*255 > threshold {
			out.Data[i] = core.Foreground
		}
	}
	return out, nil
}
