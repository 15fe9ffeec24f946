// Per-pixel grids shared by every stage of the ironing pipeline
package core

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

const (
	// Foreground is the mask value of garment pixels
	Foreground uint8 = 255
	// Background is the mask value of everything else
	Background uint8 = 0
)

// Grid is a row-major scalar field addressed as (x=column, y=row)
type Grid struct {
	Width  int
	Height int
	Data   []float64
}

// NewGrid allocates a zeroed grid
func NewGrid(width, height int) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height),
	}
}

// NewGridFromRows builds a grid from a slice of rows
func NewGridFromRows(rows [][]float64) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.New("grid has no rows")
	}

	g := NewGrid(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != g.Width {
			return nil, errors.Wrapf(ErrShapeMismatch, "row %d has %d columns, expected %d", y, len(row), g.Width)
		}
		copy(g.Data[y*g.Width:], row)
	}
	return g, nil
}

func (g *Grid) At(x, y int) float64 {
	return g.Data[y*g.Width+x]
}

func (g *Grid) Set(x, y int, v float64) {
	g.Data[y*g.Width+x] = v
}

func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// Bounds returns the pixel rectangle covered by the grid
func (g *Grid) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.Height)
}

// Clone returns a deep copy
func (g *Grid) Clone() *Grid {
	out := NewGrid(g.Width, g.Height)
	copy(out.Data, g.Data)
	return out
}

// Transpose swaps rows and columns
func (g *Grid) Transpose() *Grid {
	out := NewGrid(g.Height, g.Width)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			out.Set(y, x, g.At(x, y))
		}
	}
	return out
}

// ToMat converts the grid into a single channel CV32F matrix.
// The caller owns the returned Mat.
func (g *Grid) ToMat() gocv.Mat {
	mat := gocv.NewMatWithSize(g.Height, g.Width, gocv.MatTypeCV32F)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			mat.SetFloatAt(y, x, float32(g.At(x, y)))
		}
	}
	return mat
}

// GridFromMat reads a single channel CV8U, CV32F or CV64F matrix
func GridFromMat(mat gocv.Mat) (*Grid, error) {
	if mat.Empty() {
		return nil, errors.New("matrix is empty")
	}
	if mat.Channels() != 1 {
		return nil, errors.Errorf("expected a single channel matrix, got %d channels", mat.Channels())
	}

	g := NewGrid(mat.Cols(), mat.Rows())
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			switch mat.Type() {
			case gocv.MatTypeCV8U:
				g.Set(x, y, float64(mat.GetUCharAt(y, x)))
			case gocv.MatTypeCV32F:
				g.Set(x, y, float64(mat.GetFloatAt(y, x)))
			case gocv.MatTypeCV64F:
				g.Set(x, y, mat.GetDoubleAt(y, x))
			default:
				return nil, errors.Errorf("unsupported matrix type: %v", mat.Type())
			}
		}
	}
	return g, nil
}

// Mask is a binary row-major image, Foreground or Background per pixel
type Mask struct {
	Width  int
	Height int
	Data   []uint8
}

// NewMask allocates an all-background mask
func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Data:   make([]uint8, width*height),
	}
}

func (m *Mask) At(x, y int) bool {
	return m.Data[y*m.Width+x] != Background
}

func (m *Mask) Set(x, y int, on bool) {
	v := Background
	if on {
		v = Foreground
	}
	m.Data[y*m.Width+x] = v
}

func (m *Mask) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

// Count returns the number of foreground pixels
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Data {
		if v != Background {
			n++
		}
	}
	return n
}

// Empty reports whether the mask has no foreground pixel
func (m *Mask) Empty() bool {
	for _, v := range m.Data {
		if v != Background {
			return false
		}
	}
	return true
}

// FillRect sets every pixel of r (clipped to the mask) to foreground
func (m *Mask) FillRect(r image.Rectangle) {
	r = r.Intersect(image.Rect(0, 0, m.Width, m.Height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.Set(x, y, true)
		}
	}
}

// FillCircle sets every pixel within radius of center to foreground
func (m *Mask) FillCircle(center image.Point, radius int) {
	for y := center.Y - radius; y <= center.Y+radius; y++ {
		for x := center.X - radius; x <= center.X+radius; x++ {
			dx, dy := x-center.X, y-center.Y
			if m.InBounds(x, y) && dx*dx+dy*dy <= radius*radius {
				m.Set(x, y, true)
			}
		}
	}
}

// SameShape reports whether the mask covers a grid of the given size
func (m *Mask) SameShape(width, height int) bool {
	return m.Width == width && m.Height == height
}

// ToMat converts the mask to a CV8UC1 matrix owned by the caller
func (m *Mask) ToMat() gocv.Mat {
	mat := gocv.NewMatWithSize(m.Height, m.Width, gocv.MatTypeCV8UC1)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			mat.SetUCharAt(y, x, m.Data[y*m.Width+x])
		}
	}
	return mat
}

// MaskFromMat binarizes a single channel CV8U matrix: any non-zero pixel is foreground
func MaskFromMat(mat gocv.Mat) (*Mask, error) {
	if mat.Empty() {
		return nil, errors.New("matrix is empty")
	}
	if mat.Channels() != 1 || mat.Type() != gocv.MatTypeCV8U {
		return nil, errors.Errorf("expected a CV8UC1 matrix, got type %v", mat.Type())
	}

	m := NewMask(mat.Cols(), mat.Rows())
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			m.Set(x, y, mat.GetUCharAt(y, x) != 0)
		}
	}
	return m, nil
}

// MaskFromGrid marks every non-zero cell as foreground
func MaskFromGrid(g *Grid) *Mask {
	m := NewMask(g.Width, g.Height)
	for i, v := range g.Data {
		if v != 0 {
			m.Data[i] = Foreground
		}
	}
	return m
}

// LabelMap holds one region id per pixel; label 0 means "no region"
type LabelMap struct {
	Width  int
	Height int
	Data   []int
}

// NewLabelMap allocates a label map with every pixel unlabeled
func NewLabelMap(width, height int) *LabelMap {
	return &LabelMap{
		Width:  width,
		Height: height,
		Data:   make([]int, width*height),
	}
}

func (l *LabelMap) At(x, y int) int {
	return l.Data[y*l.Width+x]
}

func (l *LabelMap) Set(x, y, label int) {
	l.Data[y*l.Width+x] = label
}

// LabelMapFromMat reads a CV32S label matrix; negative labels (watershed borders) become 0
func LabelMapFromMat(mat gocv.Mat) (*LabelMap, error) {
	if mat.Empty() {
		return nil, errors.New("matrix is empty")
	}
	if mat.Type() != gocv.MatTypeCV32S {
		return nil, errors.Errorf("expected a CV32S label matrix, got type %v", mat.Type())
	}

	l := NewLabelMap(mat.Cols(), mat.Rows())
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			if v := int(mat.GetIntAt(y, x)); v > 0 {
				l.Set(x, y, v)
			}
		}
	}
	return l, nil
}
