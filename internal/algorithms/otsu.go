// Otsu binarization
package algorithms

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

type otsuParams struct {
	MaxValue float64 `param:"max_value"`
	Invert   bool    `param:"invert"`
}

// Otsu binarizes an 8-bit image at the threshold that maximizes the
// between-class variance of its histogram. Pixels above the threshold get
// max_value, or 0 when invert is set.
type Otsu struct{}

// NewOtsu creates a new Otsu algorithm
func NewOtsu() *Otsu {
	return &Otsu{}
}

func (o *Otsu) parse(params map[string]interface{}) (otsuParams, error) {
	p := otsuParams{MaxValue: 255}
	if err := decodeParams(params, &p); err != nil {
		return p, err
	}
	if p.MaxValue < 0 || p.MaxValue > 255 {
		return p, errors.New("max_value must be between 0 and 255")
	}
	return p, nil
}

func (o *Otsu) Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), errors.New("input image is empty")
	}
	p, err := o.parse(params)
	if err != nil {
		return gocv.NewMat(), err
	}

	// Convert to grayscale if needed
	gray := ensureGrayscale(input)
	defer func() {
		if gray.Ptr() != input.Ptr() {
			gray.Close()
		}
	}()
	if gray.Type() != gocv.MatTypeCV8UC1 {
		return gocv.NewMat(), errors.Errorf("otsu needs 8-bit input, got %v", gray.Type())
	}

	thresholdType := gocv.ThresholdBinary
	if p.Invert {
		thresholdType = gocv.ThresholdBinaryInv
	}

	// Use GoCV's built-in Otsu threshold
	output := gocv.NewMat()
	gocv.Threshold(gray, &output, 0, float32(p.MaxValue), thresholdType|gocv.ThresholdOtsu)

	return output, nil
}

func (o *Otsu) GetDefaultParams() map[string]interface{} {
	return map[string]interface{}{
		"max_value": 255.0,
		"invert":    false,
	}
}

func (o *Otsu) GetName() string {
	return "Otsu"
}

func (o *Otsu) GetDescription() string {
	return "Global Otsu binarization of an 8-bit channel"
}

func (o *Otsu) Validate(params map[string]interface{}) error {
	_, err := o.parse(params)
	return err
}

func ensureGrayscale(input gocv.Mat) gocv.Mat {
	if input.Channels() == 1 {
		return input
	}

	gray := gocv.NewMat()
	gocv.CvtColor(input, &gray, gocv.ColorBGRToGray)
	return gray
}
