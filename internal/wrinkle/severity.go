package wrinkle

import (
	"github.com/pkg/errors"

	"garment-ironing/internal/contour"
	"garment-ironing/internal/core"
)

// Severity sums (1 - normalized) over the garment and divides by the area
// enclosed by the garment's outer boundary. Flatter garments score lower.
func Severity(normalized *core.Grid, mask *core.Mask) (float64, error) {
	if !mask.SameShape(normalized.Width, normalized.Height) {
		return 0, errors.Wrapf(core.ErrShapeMismatch, "image %dx%d, mask %dx%d",
			normalized.Width, normalized.Height, mask.Width, mask.Height)
	}

	area, err := contour.Area(mask)
	if err != nil {
		return 0, err
	}
	if area == 0 {
		return 0, errors.Wrap(core.ErrDegenerateRange, "garment boundary encloses no area")
	}

	total := 0.0
	for i, v := range normalized.Data {
		if mask.Data[i] != core.Background {
			total += 1 - v
		}
	}
	return total / area, nil
}
