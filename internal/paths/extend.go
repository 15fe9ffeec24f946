package paths

import (
	"image"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"garment-ironing/internal/core"
	"garment-ironing/internal/superpixel"
)

// ExtendToBounds stretches the infinite line through seg until it meets the
// border of bounds (pixel rectangle, Max exclusive). The result keeps the
// direction of seg. A degenerate segment or a line that misses the
// rectangle yields core.ErrNoIntersection.
func ExtendToBounds(seg Segment, bounds image.Rectangle) (Segment, error) {
	if bounds.Empty() {
		return Segment{}, errors.Wrap(core.ErrNoIntersection, "empty bounds")
	}
	if seg.Start == seg.End {
		return Segment{}, errors.Wrap(core.ErrNoIntersection, "degenerate segment")
	}

	box := r2.RectFromPoints(
		r2.Point{X: float64(bounds.Min.X), Y: float64(bounds.Min.Y)},
		r2.Point{X: float64(bounds.Max.X - 1), Y: float64(bounds.Max.Y - 1)},
	)
	a := r2.Point{X: float64(seg.Start.X), Y: float64(seg.Start.Y)}
	d := r2.Point{X: float64(seg.End.X), Y: float64(seg.End.Y)}.Sub(a)

	tMin, tMax := math.Inf(-1), math.Inf(1)
	axes := []struct{ origin, dir, lo, hi float64 }{
		{a.X, d.X, box.X.Lo, box.X.Hi},
		{a.Y, d.Y, box.Y.Lo, box.Y.Hi},
	}
	for _, ax := range axes {
		if ax.dir == 0 {
			if ax.origin < ax.lo || ax.origin > ax.hi {
				return Segment{}, errors.Wrap(core.ErrNoIntersection, "parallel line outside bounds")
			}
			continue
		}
		t1 := (ax.lo - ax.origin) / ax.dir
		t2 := (ax.hi - ax.origin) / ax.dir
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
	}
	if tMin > tMax {
		return Segment{}, errors.Wrap(core.ErrNoIntersection, "line misses bounds")
	}

	return Segment{
		Start: roundPoint(a.Add(d.Mul(tMin))),
		End:   roundPoint(a.Add(d.Mul(tMax))),
	}, nil
}

// RegionCrossing returns the pixels of seg that fall inside region
func RegionCrossing(seg Segment, region *core.Mask) []image.Point {
	var out []image.Point
	for _, p := range superpixel.LinePoints(seg.Start, seg.End, superpixel.DefaultStep) {
		if region.InBounds(p.X, p.Y) && region.At(p.X, p.Y) {
			out = append(out, p)
		}
	}
	return out
}

func roundPoint(p r2.Point) image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}
