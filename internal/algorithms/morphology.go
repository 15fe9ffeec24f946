// Morphological operations algorithms
package algorithms

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// MorphParams configures every morphological operator
type MorphParams struct {
	KernelSize int    `param:"kernel_size"`
	Iterations int    `param:"iterations"`
	Shape      string `param:"shape"` // "ellipse" or "rect"
}

func defaultMorphParams() MorphParams {
	return MorphParams{KernelSize: 3, Iterations: 1, Shape: "rect"}
}

func parseMorphParams(params map[string]interface{}) (MorphParams, error) {
	p := defaultMorphParams()
	if err := decodeParams(params, &p); err != nil {
		return p, err
	}
	if p.KernelSize < 1 || p.KernelSize > 101 {
		return p, errors.New("kernel_size must be between 1 and 101")
	}
	if p.Iterations < 1 || p.Iterations > 20 {
		return p, errors.New("iterations must be between 1 and 20")
	}
	if p.Shape != "ellipse" && p.Shape != "rect" {
		return p, errors.Errorf("unknown kernel shape %q", p.Shape)
	}
	return p, nil
}

func (p MorphParams) kernel() gocv.Mat {
	shape := gocv.MorphRect
	if p.Shape == "ellipse" {
		shape = gocv.MorphEllipse
	}
	return gocv.GetStructuringElement(shape, image.Pt(p.KernelSize, p.KernelSize))
}

func morphDefaults() map[string]interface{} {
	d := defaultMorphParams()
	return map[string]interface{}{
		"kernel_size": d.KernelSize,
		"iterations":  d.Iterations,
		"shape":       d.Shape,
	}
}

// morph applies op with p.Iterations passes of the underlying erosions and
// dilations, the way OpenCV counts iterations.
func morph(input gocv.Mat, params map[string]interface{}, op gocv.MorphType) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), errors.New("input image is empty")
	}
	p, err := parseMorphParams(params)
	if err != nil {
		return gocv.NewMat(), err
	}

	kernel := p.kernel()
	defer kernel.Close()

	output := gocv.NewMat()
	gocv.MorphologyExWithParams(input, &output, op, kernel, p.Iterations, gocv.BorderConstant)

	return output, nil
}

func validateMorph(params map[string]interface{}) error {
	_, err := parseMorphParams(params)
	return err
}

// Erosion implements morphological erosion
type Erosion struct{}

// NewErosion creates a new erosion algorithm
func NewErosion() *Erosion {
	return &Erosion{}
}

func (e *Erosion) Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	return morph(input, params, gocv.MorphErode)
}

func (e *Erosion) GetDefaultParams() map[string]interface{} { return morphDefaults() }

func (e *Erosion) GetName() string {
	return "Erosion"
}

func (e *Erosion) GetDescription() string {
	return "Morphological erosion, shrinks foreground regions"
}

func (e *Erosion) Validate(params map[string]interface{}) error { return validateMorph(params) }

// Dilation implements morphological dilation
type Dilation struct{}

// NewDilation creates a new dilation algorithm
func NewDilation() *Dilation {
	return &Dilation{}
}

func (d *Dilation) Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	return morph(input, params, gocv.MorphDilate)
}

func (d *Dilation) GetDefaultParams() map[string]interface{} { return morphDefaults() }

func (d *Dilation) GetName() string {
	return "Dilation"
}

func (d *Dilation) GetDescription() string {
	return "Morphological dilation, grows foreground regions"
}

func (d *Dilation) Validate(params map[string]interface{}) error { return validateMorph(params) }

// Opening implements morphological opening
type Opening struct{}

// NewOpening creates a new opening algorithm
func NewOpening() *Opening {
	return &Opening{}
}

func (o *Opening) Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	return morph(input, params, gocv.MorphOpen)
}

func (o *Opening) GetDefaultParams() map[string]interface{} { return morphDefaults() }

func (o *Opening) GetName() string {
	return "Opening"
}

func (o *Opening) GetDescription() string {
	return "Morphological opening to remove specks outside the garment"
}

func (o *Opening) Validate(params map[string]interface{}) error { return validateMorph(params) }

// Closing implements morphological closing
type Closing struct{}

// NewClosing creates a new closing algorithm
func NewClosing() *Closing {
	return &Closing{}
}

func (c *Closing) Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	return morph(input, params, gocv.MorphClose)
}

func (c *Closing) GetDefaultParams() map[string]interface{} { return morphDefaults() }

func (c *Closing) GetName() string {
	return "Closing"
}

func (c *Closing) GetDescription() string {
	return "Morphological closing to fill holes inside the garment"
}

func (c *Closing) Validate(params map[string]interface{}) error { return validateMorph(params) }

// Gradient is the difference between dilation and erosion
type Gradient struct{}

func NewGradient() *Gradient {
	return &Gradient{}
}

func (g *Gradient) Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	return morph(input, params, gocv.MorphGradient)
}

func (g *Gradient) GetDefaultParams() map[string]interface{} { return morphDefaults() }

func (g *Gradient) GetName() string {
	return "Morphological Gradient"
}

func (g *Gradient) GetDescription() string {
	return "Local intensity range, high on region borders"
}

func (g *Gradient) Validate(params map[string]interface{}) error { return validateMorph(params) }
