// Package contour extracts the simplified outer polygon of a garment mask.
package contour

import (
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"garment-ironing/internal/core"
)

// DefaultEpsilonRatio is the simplification tolerance as a fraction of the perimeter
const DefaultEpsilonRatio = 0.01

// Contour is a closed polygon in pixel coordinates
type Contour []image.Point

// Candidate is one external boundary found in a mask
type Candidate struct {
	Points []image.Point
	Area   float64
}

// Candidates returns every external boundary of the mask in the order
// OpenCV reports them, with their enclosed areas.
func Candidates(mask *core.Mask) ([]Candidate, error) {
	return findExternal(mask, gocv.ChainApproxSimple)
}

// Extract finds the external boundary with the largest area and simplifies
// it with a tolerance of epsilonRatio times its perimeter. Ties on area keep
// the first boundary encountered.
func Extract(mask *core.Mask, epsilonRatio float64) (Contour, error) {
	if mask == nil || mask.Empty() {
		return nil, core.ErrEmptyMask
	}

	mat := mask.ToMat()
	defer mat.Close()

	contours := gocv.FindContours(mat, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	best := largest(contours)
	if best < 0 {
		return nil, core.ErrEmptyMask
	}

	chosen := contours.At(best)
	perimeter := gocv.ArcLength(chosen, true)
	approx := gocv.ApproxPolyDP(chosen, epsilonRatio*perimeter, true)
	defer approx.Close()

	return Contour(approx.ToPoints()), nil
}

// Boundary returns the unsimplified largest external boundary, every pixel
// of it, for distance queries.
func Boundary(mask *core.Mask) ([]image.Point, error) {
	candidates, err := findExternal(mask, gocv.ChainApproxNone)
	if err != nil {
		return nil, err
	}
	return pickLargest(candidates).Points, nil
}

// Area returns the area enclosed by the mask's largest external boundary
func Area(mask *core.Mask) (float64, error) {
	candidates, err := findExternal(mask, gocv.ChainApproxSimple)
	if err != nil {
		return 0, err
	}
	return pickLargest(candidates).Area, nil
}

// FillLargest returns a mask holding only the largest external component
// of mask, with its holes filled.
func FillLargest(mask *core.Mask) (*core.Mask, error) {
	if mask == nil || mask.Empty() {
		return nil, core.ErrEmptyMask
	}

	mat := mask.ToMat()
	defer mat.Close()

	contours := gocv.FindContours(mat, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()
	if contours.Size() == 0 {
		return nil, errors.Wrap(core.ErrEmptyMask, "no external contour")
	}

	filled := gocv.Zeros(mask.Height, mask.Width, gocv.MatTypeCV8UC1)
	defer filled.Close()
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	gocv.DrawContours(&filled, contours, largest(contours), white, -1)

	return core.MaskFromMat(filled)
}

func findExternal(mask *core.Mask, method gocv.ContourApproximationMode) ([]Candidate, error) {
	if mask == nil || mask.Empty() {
		return nil, core.ErrEmptyMask
	}

	mat := mask.ToMat()
	defer mat.Close()

	contours := gocv.FindContours(mat, gocv.RetrievalExternal, method)
	defer contours.Close()

	if contours.Size() == 0 {
		return nil, errors.Wrap(core.ErrEmptyMask, "no external contour")
	}

	candidates := make([]Candidate, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		candidates = append(candidates, Candidate{
			Points: c.ToPoints(),
			Area:   gocv.ContourArea(c),
		})
	}
	return candidates, nil
}

func largest(contours gocv.PointsVector) int {
	best := -1
	maxArea := -1.0
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > maxArea {
			maxArea = area
			best = i
		}
	}
	return best
}

func pickLargest(candidates []Candidate) Candidate {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Area > best.Area {
			best = c
		}
	}
	return best
}

// Segment is one polygon edge
type Segment struct {
	Start image.Point
	End   image.Point
}

// Midpoint returns the integer midpoint of the edge
func (s Segment) Midpoint() image.Point {
	return image.Pt((s.Start.X+s.End.X)/2, (s.Start.Y+s.End.Y)/2)
}

// Segments returns the closed polygon's edges; edge i runs from vertex i to i+1
func (c Contour) Segments() []Segment {
	if len(c) < 2 {
		return nil
	}
	segments := make([]Segment, len(c))
	for i := range c {
		segments[i] = Segment{Start: c[i], End: c[(i+1)%len(c)]}
	}
	return segments
}

// Midpoints returns the midpoint of every edge, in edge order
func (c Contour) Midpoints() []image.Point {
	segments := c.Segments()
	midpoints := make([]image.Point, len(segments))
	for i, s := range segments {
		midpoints[i] = s.Midpoint()
	}
	return midpoints
}

// Area is the shoelace area of the polygon
func (c Contour) Area() float64 {
	if len(c) < 3 {
		return 0
	}
	sum := 0
	for i := range c {
		j := (i + 1) % len(c)
		sum += c[i].X*c[j].Y - c[j].X*c[i].Y
	}
	return math.Abs(float64(sum)) / 2
}

// Perimeter is the closed arc length of the polygon
func (c Contour) Perimeter() float64 {
	total := 0.0
	for _, s := range c.Segments() {
		total += math.Hypot(float64(s.End.X-s.Start.X), float64(s.End.Y-s.Start.Y))
	}
	return total
}

// Contains checks if a point is inside the polygon using ray casting
func (c Contour) Contains(point image.Point) bool {
	if len(c) < 3 {
		return false
	}

	x, y := float64(point.X), float64(point.Y)
	inside := false

	j := len(c) - 1
	for i := 0; i < len(c); i++ {
		xi, yi := float64(c[i].X), float64(c[i].Y)
		xj, yj := float64(c[j].X), float64(c[j].Y)

		if ((yi > y) != (yj > y)) && (x < (xj-xi)*(y-yi)/(yj-yi)+xi) {
			inside = !inside
		}
		j = i
	}

	return inside
}

// Bounds returns the bounding rectangle of the polygon (Max exclusive)
func (c Contour) Bounds() image.Rectangle {
	if len(c) == 0 {
		return image.Rectangle{}
	}

	minX, minY := c[0].X, c[0].Y
	maxX, maxY := c[0].X, c[0].Y

	for _, point := range c {
		if point.X < minX {
			minX = point.X
		}
		if point.X > maxX {
			maxX = point.X
		}
		if point.Y < minY {
			minY = point.Y
		}
		if point.Y > maxY {
			maxY = point.Y
		}
	}

	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// DistanceToPoints returns the smallest Euclidean distance from p to any of pts
func DistanceToPoints(p image.Point, pts []image.Point) float64 {
	best := math.Inf(1)
	for _, q := range pts {
		if d := math.Hypot(float64(p.X-q.X), float64(p.Y-q.Y)); d < best {
			best = d
		}
	}
	return best
}
