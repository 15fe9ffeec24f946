// Image operators shared by the mask and region oracles
package algorithms

import (
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Algorithm defines the interface for image processing algorithms
type Algorithm interface {
	Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error)
	GetDefaultParams() map[string]interface{}
	GetName() string
	GetDescription() string
	Validate(params map[string]interface{}) error
}

// Step is one named operator with its parameters
type Step struct {
	Name   string
	Params map[string]interface{}
}

var algorithms = make(map[string]Algorithm)

func Register(name string, algorithm Algorithm) {
	algorithms[name] = algorithm
}

func Get(name string) (Algorithm, bool) {
	algorithm, exists := algorithms[name]
	return algorithm, exists
}

func Apply(name string, input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	algorithm, exists := algorithms[name]
	if !exists {
		return gocv.NewMat(), errors.Errorf("algorithm not found: %s", name)
	}
	if err := algorithm.Validate(params); err != nil {
		return gocv.NewMat(), errors.Wrapf(err, "%s", name)
	}

	return algorithm.Apply(input, params)
}

// Chain applies steps in order. Intermediate results are released; the
// caller owns the returned Mat.
func Chain(input gocv.Mat, steps []Step) (gocv.Mat, error) {
	current := input.Clone()
	for _, step := range steps {
		next, err := Apply(step.Name, current, step.Params)
		current.Close()
		if err != nil {
			next.Close()
			return gocv.NewMat(), err
		}
		current = next
	}
	return current, nil
}

func ValidateParameters(name string, params map[string]interface{}) error {
	algorithm, exists := algorithms[name]
	if !exists {
		return errors.Errorf("algorithm not found: %s", name)
	}

	return algorithm.Validate(params)
}

func IsValidAlgorithm(name string) bool {
	_, exists := algorithms[name]
	return exists
}

// ValidateSteps checks every step of a chain before any image is touched
func ValidateSteps(steps []Step) error {
	for i, step := range steps {
		if !IsValidAlgorithm(step.Name) {
			return errors.Errorf("step %d: algorithm not found: %s", i, step.Name)
		}
		if err := ValidateParameters(step.Name, step.Params); err != nil {
			return errors.Wrapf(err, "step %d (%s)", i, step.Name)
		}
	}
	return nil
}

// Names lists the registered algorithms in sorted order
func Names() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func GetAlgorithmsByCategory() map[string][]string {
	return map[string][]string{
		"Binarization": {
			"otsu",
		},
		"Morphology": {
			"erosion",
			"dilation",
			"opening",
			"closing",
			"gradient",
		},
		"Filters": {
			"gaussian",
			"equalize",
		},
	}
}

// decodeParams overlays params onto out, which holds the defaults.
// Numbers may arrive as any numeric type or as strings.
func decodeParams(params map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "param",
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	return errors.Wrap(decoder.Decode(params), "decoding parameters")
}

func init() {
	Register("otsu", NewOtsu())

	// Register morphological algorithms
	Register("erosion", NewErosion())
	Register("dilation", NewDilation())
	Register("opening", NewOpening())
	Register("closing", NewClosing())
	Register("gradient", NewGradient())

	// Register filter algorithms
	Register("gaussian", NewGaussianFilter())
	Register("equalize", NewEqualize())
}
