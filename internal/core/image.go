// Per-frame capture data: RGB image plus depth or intensity field
package core

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// maxDimension bounds frame sizes to keep per-frame buffers reasonable
const maxDimension = 16384

// Frame is one RGB-D capture. Either RGB or Mask may be absent depending on
// which pipeline consumes it: the path pipeline derives the mask from RGB,
// the wrinkle pipeline reads both the intensity field and the mask from disk.
type Frame struct {
	Name  string
	RGB   gocv.Mat
	Depth *Grid
	Mask  *Mask
}

// HasRGB reports whether the frame carries a colour image
func (f *Frame) HasRGB() bool {
	return f.RGB.Ptr() != nil && !f.RGB.Empty()
}

// Close releases the frame's OpenCV resources
func (f *Frame) Close() {
	if f.HasRGB() {
		f.RGB.Close()
	}
}

// Validate checks that the frame's parts agree on size
func (f *Frame) Validate() error {
	if f.Depth == nil {
		return errors.Errorf("frame %q has no depth data", f.Name)
	}
	if f.HasRGB() {
		if err := ValidateImage(f.RGB); err != nil {
			return errors.Wrapf(err, "frame %q", f.Name)
		}
		if f.RGB.Cols() != f.Depth.Width || f.RGB.Rows() != f.Depth.Height {
			return errors.Wrapf(ErrShapeMismatch, "frame %q: rgb %dx%d, depth %dx%d",
				f.Name, f.RGB.Cols(), f.RGB.Rows(), f.Depth.Width, f.Depth.Height)
		}
	}
	if f.Mask != nil && !f.Mask.SameShape(f.Depth.Width, f.Depth.Height) {
		return errors.Wrapf(ErrShapeMismatch, "frame %q: mask %dx%d, depth %dx%d",
			f.Name, f.Mask.Width, f.Mask.Height, f.Depth.Width, f.Depth.Height)
	}
	return nil
}

// ValidateImage validates an OpenCV Mat for basic requirements
func ValidateImage(mat gocv.Mat) error {
	if mat.Empty() {
		return errors.New("image is empty")
	}

	if mat.Cols() <= 0 || mat.Rows() <= 0 {
		return errors.Errorf("invalid dimensions: %dx%d", mat.Cols(), mat.Rows())
	}

	channels := mat.Channels()
	if channels < 1 || channels > 4 {
		return errors.Errorf("unsupported channel count: %d", channels)
	}

	if mat.Cols() > maxDimension || mat.Rows() > maxDimension {
		return errors.Errorf("image too large: %dx%d (max: %d)", mat.Cols(), mat.Rows(), maxDimension)
	}

	return nil
}
