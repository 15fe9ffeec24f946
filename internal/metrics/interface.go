// Adequacy metrics for sampled height profiles
package metrics

import (
	"sort"

	"github.com/pkg/errors"
)

// Metric scores a garment height profile. Lower scores are more adequate
// unless IsHigherBetter says otherwise.
type Metric interface {
	// Calculate computes the metric value
	Calculate(profile []float64) (float64, error)

	// GetName returns the metric name
	GetName() string

	// GetDescription returns the metric description
	GetDescription() string

	// IsHigherBetter returns true if higher values indicate a better path
	IsHigherBetter() bool
}

// Adequacy selects one of the four adequacy variants
type Adequacy int

const (
	Roughness Adequacy = iota + 1
	Sum
	SumAlt
	SumReserved
)

var adequacyNames = map[Adequacy]string{
	Roughness:   "roughness",
	Sum:         "sum",
	SumAlt:      "sum_alt",
	SumReserved: "sum_reserved",
}

func (a Adequacy) String() string {
	if name, ok := adequacyNames[a]; ok {
		return name
	}
	return "unknown"
}

// ParseAdequacy maps a metric name back to its variant
func ParseAdequacy(name string) (Adequacy, error) {
	for a, n := range adequacyNames {
		if n == name {
			return a, nil
		}
	}
	return 0, errors.Errorf("unknown adequacy metric: %q", name)
}

// Evaluator manages and calculates multiple metrics
type Evaluator struct {
	metrics map[string]Metric
}

// NewEvaluator creates an evaluator with the adequacy variants registered
func NewEvaluator() *Evaluator {
	e := &Evaluator{
		metrics: make(map[string]Metric),
	}

	e.RegisterDefaultMetrics()

	return e
}

// RegisterDefaultMetrics registers the four adequacy variants
func (e *Evaluator) RegisterDefaultMetrics() {
	e.Register(Roughness.String(), NewRoughness())
	e.Register(Sum.String(), NewProfileSum(Sum.String(), "Sum of profile heights"))
	e.Register(SumAlt.String(), NewProfileSum(SumAlt.String(), "Sum of profile heights (alternate variant)"))
	e.Register(SumReserved.String(), NewProfileSum(SumReserved.String(), "Sum of profile heights (reserved variant)"))
}

// Register registers a metric
func (e *Evaluator) Register(name string, metric Metric) {
	e.metrics[name] = metric
}

// Get looks a metric up by name
func (e *Evaluator) Get(name string) (Metric, bool) {
	m, ok := e.metrics[name]
	return m, ok
}

// Calculate calculates a specific metric
func (e *Evaluator) Calculate(name string, profile []float64) (float64, error) {
	metric, exists := e.metrics[name]
	if !exists {
		return 0, errors.Errorf("metric not found: %s", name)
	}

	return metric.Calculate(profile)
}

// Adequacy scores a profile with one of the adequacy variants
func (e *Evaluator) Adequacy(a Adequacy, profile []float64) (float64, error) {
	return e.Calculate(a.String(), profile)
}

// HigherIsBetter reports the ranking direction of an adequacy variant
func (e *Evaluator) HigherIsBetter(a Adequacy) (bool, error) {
	metric, ok := e.Get(a.String())
	if !ok {
		return false, errors.Errorf("metric not found: %s", a)
	}
	return metric.IsHigherBetter(), nil
}

// CalculateAll calculates all registered metrics, skipping failing ones
func (e *Evaluator) CalculateAll(profile []float64) map[string]float64 {
	results := make(map[string]float64)

	for name, metric := range e.metrics {
		if value, err := metric.Calculate(profile); err == nil {
			results[name] = value
		}
	}

	return results
}

// MetricInfo provides metadata about a metric
type MetricInfo struct {
	Name         string
	Description  string
	HigherBetter bool
}

// GetMetricInfo returns information about all metrics, sorted by name
func (e *Evaluator) GetMetricInfo() []MetricInfo {
	info := make([]MetricInfo, 0, len(e.metrics))

	for _, metric := range e.metrics {
		info = append(info, MetricInfo{
			Name:         metric.GetName(),
			Description:  metric.GetDescription(),
			HigherBetter: metric.IsHigherBetter(),
		})
	}

	sort.Slice(info, func(i, j int) bool { return info[i].Name < info[j].Name })
	return info
}
