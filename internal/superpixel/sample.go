package superpixel

import (
	"image"
	"math"

	"github.com/golang/geo/r2"

	"garment-ironing/internal/heightfield"
)

// DefaultStep is the sampling distance in pixels
const DefaultStep = 1.0

// Profile is the field sampled along a segment, samples and pixels in step
type Profile struct {
	Samples []float64
	Points  []image.Point
}

// GarmentSamples drops samples that fall outside the garment
func (p Profile) GarmentSamples() []float64 {
	out := make([]float64, 0, len(p.Samples))
	for _, v := range p.Samples {
		if heightfield.IsGarment(v) {
			out = append(out, v)
		}
	}
	return out
}

// LinePoints returns ceil(L/step)+1 equally spaced pixels from start to end,
// both included, rounded to the nearest pixel. A zero length segment gives
// a single point.
func LinePoints(start, end image.Point, step float64) []image.Point {
	if step <= 0 {
		step = DefaultStep
	}

	a := r2.Point{X: float64(start.X), Y: float64(start.Y)}
	b := r2.Point{X: float64(end.X), Y: float64(end.Y)}
	d := b.Sub(a)

	n := int(math.Ceil(d.Norm()/step)) + 1
	points := make([]image.Point, n)
	for i := 0; i < n; i++ {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		p := a.Add(d.Mul(t))
		points[i] = image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
	}
	return points
}

// SampleLine reads the field at every LinePoints pixel
func SampleLine(f *Field, start, end image.Point, step float64) Profile {
	points := LinePoints(start, end, step)
	samples := make([]float64, len(points))
	for i, p := range points {
		samples[i] = f.At(p.X, p.Y)
	}
	return Profile{Samples: samples, Points: points}
}
