package paths

import (
	"image"
	"math"

	"gonum.org/v1/gonum/stat"

	"garment-ironing/internal/core"
)

// DefaultOutlierThreshold is the z-score below which a score counts as an outlier
const DefaultOutlierThreshold = -0.5

// Selection is the outcome of picking among scored candidates
type Selection struct {
	Chosen []Scored
	// Final is the path to iron: the chosen candidate, or the average of
	// the chosen candidates' endpoints when several are selected
	Final Segment
	Score float64
}

// Selector picks the path to iron from scored candidates
type Selector interface {
	Select(scored []Scored) (Selection, error)
}

// NewSelector returns the outlier selector when outlierMode is set, the
// best score selector otherwise. higherBetter follows the metric's ranking
// direction.
func NewSelector(outlierMode bool, threshold float64, higherBetter bool) Selector {
	if outlierMode {
		return &OutlierSelector{Threshold: threshold, HigherBetter: higherBetter}
	}
	return &MinScoreSelector{HigherBetter: higherBetter}
}

// MinScoreSelector picks the lowest score, or the highest when
// HigherBetter is set; first one on ties
type MinScoreSelector struct {
	HigherBetter bool
}

func (s *MinScoreSelector) Select(scored []Scored) (Selection, error) {
	if len(scored) == 0 {
		return Selection{}, core.ErrEmptyCandidateSet
	}

	best := argmin(costs(scored, s.HigherBetter))
	return Selection{
		Chosen: []Scored{scored[best]},
		Final:  scored[best].Segment,
		Score:  scored[best].Score,
	}, nil
}

// OutlierSelector standardizes the scores and keeps the unusually good ones.
// One or two outliers are all kept; with more than two only the two best
// z-scores are kept; with none the best z-score wins. The final path
// averages the kept endpoints. Scores of a HigherBetter metric are negated
// before standardizing.
type OutlierSelector struct {
	Threshold    float64
	HigherBetter bool
}

func (s *OutlierSelector) Select(scored []Scored) (Selection, error) {
	if len(scored) == 0 {
		return Selection{}, core.ErrEmptyCandidateSet
	}

	cost := costs(scored, s.HigherBetter)
	z := ZScores(cost)

	var outliers []int
	for i, v := range z {
		if v < s.Threshold {
			outliers = append(outliers, i)
		}
	}

	var picked []int
	switch {
	case len(outliers) == 1 || len(outliers) == 2:
		picked = outliers
	case len(outliers) > 2:
		first := argmin(z)
		rest := make([]float64, len(z))
		copy(rest, z)
		rest[first] = math.Inf(1)
		picked = []int{first, argmin(rest)}
	default:
		picked = []int{argmin(z)}
	}

	best := picked[0]
	for _, i := range picked {
		if cost[i] < cost[best] {
			best = i
		}
	}
	sel := Selection{Score: scored[best].Score}
	for _, i := range picked {
		sel.Chosen = append(sel.Chosen, scored[i])
	}
	sel.Final = averageSegment(sel.Chosen)
	return sel, nil
}

// ZScores standardizes values with the population standard deviation.
// Constant input yields all zeros.
func ZScores(values []float64) []float64 {
	mean, std := stat.PopMeanStdDev(values, nil)
	z := make([]float64, len(values))
	if std == 0 || math.IsNaN(std) {
		return z
	}
	for i, v := range values {
		z[i] = stat.StdScore(v, mean, std)
	}
	return z
}

// costs orders candidates so that lower is always better
func costs(scored []Scored, higherBetter bool) []float64 {
	out := make([]float64, len(scored))
	for i, s := range scored {
		out[i] = s.Score
		if higherBetter {
			out[i] = -s.Score
		}
	}
	return out
}

func argmin(values []float64) int {
	best := 0
	for i, v := range values {
		if v < values[best] {
			best = i
		}
	}
	return best
}

func averageSegment(chosen []Scored) Segment {
	var sx, sy, ex, ey float64
	for _, c := range chosen {
		sx += float64(c.Segment.Start.X)
		sy += float64(c.Segment.Start.Y)
		ex += float64(c.Segment.End.X)
		ey += float64(c.Segment.End.Y)
	}
	n := float64(len(chosen))
	return Segment{
		Start: image.Pt(int(math.Round(sx/n)), int(math.Round(sy/n))),
		End:   image.Pt(int(math.Round(ex/n)), int(math.Round(ey/n))),
	}
}
