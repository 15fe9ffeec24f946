// Filter algorithms for noise reduction and enhancement
package algorithms

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

type gaussianParams struct {
	KernelSize int     `param:"kernel_size"`
	SigmaX     float64 `param:"sigma_x"`
	SigmaY     float64 `param:"sigma_y"`
}

// GaussianFilter implements Gaussian blur filter
type GaussianFilter struct{}

// NewGaussianFilter creates a new Gaussian filter algorithm
func NewGaussianFilter() *GaussianFilter {
	return &GaussianFilter{}
}

func (g *GaussianFilter) parse(params map[string]interface{}) (gaussianParams, error) {
	p := gaussianParams{KernelSize: 5}
	if err := decodeParams(params, &p); err != nil {
		return p, err
	}
	if p.KernelSize < 1 || p.KernelSize > 31 {
		return p, errors.New("kernel_size must be between 1 and 31")
	}
	if p.SigmaX < 0 || p.SigmaY < 0 {
		return p, errors.New("sigmas must not be negative")
	}
	// Ensure kernel size is odd
	if p.KernelSize%2 == 0 {
		p.KernelSize++
	}
	return p, nil
}

func (g *GaussianFilter) Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), errors.New("input image is empty")
	}
	p, err := g.parse(params)
	if err != nil {
		return gocv.NewMat(), err
	}

	// A zero sigma is derived from the kernel size
	output := gocv.NewMat()
	gocv.GaussianBlur(input, &output, image.Pt(p.KernelSize, p.KernelSize), p.SigmaX, p.SigmaY, gocv.BorderDefault)

	return output, nil
}

func (g *GaussianFilter) GetDefaultParams() map[string]interface{} {
	return map[string]interface{}{
		"kernel_size": 5,
		"sigma_x":     0.0,
		"sigma_y":     0.0,
	}
}

func (g *GaussianFilter) GetName() string {
	return "Gaussian Filter"
}

func (g *GaussianFilter) GetDescription() string {
	return "Gaussian blur for general noise reduction"
}

func (g *GaussianFilter) Validate(params map[string]interface{}) error {
	_, err := g.parse(params)
	return err
}

// Equalize spreads an 8-bit grayscale histogram over the full range
type Equalize struct{}

func NewEqualize() *Equalize {
	return &Equalize{}
}

func (e *Equalize) Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), errors.New("input image is empty")
	}
	if input.Type() != gocv.MatTypeCV8UC1 {
		return gocv.NewMat(), errors.Errorf("histogram equalization needs CV8UC1 input, got %v", input.Type())
	}

	output := gocv.NewMat()
	gocv.EqualizeHist(input, &output)
	return output, nil
}

func (e *Equalize) GetDefaultParams() map[string]interface{} {
	return map[string]interface{}{}
}

func (e *Equalize) GetName() string {
	return "Histogram Equalization"
}

func (e *Equalize) GetDescription() string {
	return "Contrast stretch of an 8-bit grayscale image"
}

func (e *Equalize) Validate(params map[string]interface{}) error {
	if len(params) > 0 {
		return errors.New("equalize takes no parameters")
	}
	return nil
}
