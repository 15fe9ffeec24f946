package oracle

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"garment-ironing/internal/algorithms"
	"garment-ironing/internal/config"
	"garment-ironing/internal/core"
)

// WatershedLabeler seeds regions where the equalized height field is
// locally flat and floods the height gradient from those seeds.
type WatershedLabeler struct {
	cfg     config.SegmentationConfig
	denoise algorithms.Step
	markers []algorithms.Step
	flood   algorithms.Step
}

func NewWatershedLabeler(cfg config.SegmentationConfig) *WatershedLabeler {
	return &WatershedLabeler{
		cfg:     cfg,
		denoise: algorithms.Step{Name: "gaussian", Params: map[string]interface{}{"kernel_size": cfg.BlurKernel}},
		markers: []algorithms.Step{
			{Name: "equalize"},
			{Name: "gradient", Params: disk(cfg.MarkerRadius)},
		},
		flood: algorithms.Step{Name: "gradient", Params: disk(cfg.GradientRadius)},
	}
}

// Validate checks the operator chains against the algorithm registry
func (l *WatershedLabeler) Validate() error {
	steps := append([]algorithms.Step{l.denoise}, l.markers...)
	steps = append(steps, l.flood)
	return errors.Wrap(algorithms.ValidateSteps(steps), "watershed labeler")
}

func (l *WatershedLabeler) Label(heights *core.Grid) (*core.LabelMap, error) {
	if heights == nil || len(heights.Data) == 0 {
		return nil, errors.New("empty height field")
	}

	raw := heights.ToMat()
	defer raw.Close()
	img := gocv.NewMat()
	defer img.Close()
	raw.ConvertTo(&img, gocv.MatTypeCV8U)

	denoised, err := algorithms.Apply(l.denoise.Name, img, l.denoise.Params)
	if err != nil {
		return nil, errors.Wrap(err, "denoise")
	}
	defer denoised.Close()

	flat, err := algorithms.Chain(denoised, l.markers)
	if err != nil {
		return nil, errors.Wrap(err, "marker gradient")
	}
	defer flat.Close()

	seeds := gocv.NewMat()
	defer seeds.Close()
	gocv.Threshold(flat, &seeds, float32(l.cfg.MarkerThreshold)-1, 255, gocv.ThresholdBinaryInv)

	markers := gocv.NewMat()
	defer markers.Close()
	gocv.ConnectedComponents(seeds, &markers)

	gradient, err := algorithms.Apply(l.flood.Name, denoised, l.flood.Params)
	if err != nil {
		return nil, errors.Wrap(err, "flood gradient")
	}
	defer gradient.Close()

	// watershed floods a 3 channel image; markers are CV32S labels, -1 on ridges
	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(gradient, &bgr, gocv.ColorGrayToBGR)
	gocv.Watershed(bgr, &markers)

	return core.LabelMapFromMat(markers)
}

func disk(radius int) map[string]interface{} {
	return map[string]interface{}{
		"kernel_size": 2*radius + 1,
		"shape":       "ellipse",
	}
}
