// Concrete implementations of adequacy metrics
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// RoughnessMetric is the total absolute first difference of a profile.
// A path whose height changes smoothly scores lower than one with steps.
type RoughnessMetric struct{}

// NewRoughness creates a new roughness metric
func NewRoughness() *RoughnessMetric {
	return &RoughnessMetric{}
}

func (r *RoughnessMetric) Calculate(profile []float64) (float64, error) {
	total := 0.0
	for i := 1; i < len(profile); i++ {
		total += math.Abs(profile[i] - profile[i-1])
	}
	return total, nil
}

func (r *RoughnessMetric) GetName() string {
	return Roughness.String()
}

func (r *RoughnessMetric) GetDescription() string {
	return "Total absolute height change between consecutive samples"
}

func (r *RoughnessMetric) IsHigherBetter() bool {
	return false
}

// ProfileSum adds up the profile heights
type ProfileSum struct {
	name        string
	description string
}

// NewProfileSum creates a sum metric registered under name
func NewProfileSum(name, description string) *ProfileSum {
	return &ProfileSum{name: name, description: description}
}

func (s *ProfileSum) Calculate(profile []float64) (float64, error) {
	return floats.Sum(profile), nil
}

func (s *ProfileSum) GetName() string {
	return s.name
}

func (s *ProfileSum) GetDescription() string {
	return s.description
}

func (s *ProfileSum) IsHigherBetter() bool {
	return false
}
