package paths

import (
	"image"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garment-ironing/internal/contour"
	"garment-ironing/internal/core"
	"garment-ironing/internal/metrics"
	"garment-ironing/internal/superpixel"
)

var square = contour.Contour{{0, 0}, {20, 0}, {20, 20}, {0, 20}}

func TestGenerateOnePerAnchorAndTarget(t *testing.T) {
	targets := []image.Point{{10, 10}, {5, 5}}

	candidates, err := Generate(square, targets)
	require.NoError(t, err)
	require.Len(t, candidates, 8)

	assert.Equal(t, Candidate{AnchorID: 0, TargetIndex: 0, Segment: Segment{Start: image.Pt(10, 0), End: image.Pt(10, 10)}}, candidates[0])
	assert.Equal(t, Candidate{AnchorID: 0, TargetIndex: 1, Segment: Segment{Start: image.Pt(10, 0), End: image.Pt(5, 5)}}, candidates[1])
	assert.Equal(t, 3, candidates[7].AnchorID)
}

func TestGeneratePredicates(t *testing.T) {
	mask := core.NewMask(21, 21)
	mask.FillRect(image.Rect(0, 0, 21, 11)) // top half only

	candidates, err := Generate(square, []image.Point{{10, 5}}, InsideMask(mask, 1))
	require.NoError(t, err)
	// bottom edge midpoint (10,20) leaves the mask
	for _, c := range candidates {
		assert.NotEqual(t, image.Pt(10, 20), c.Segment.Start)
	}
	assert.Len(t, candidates, 3)

	_, err = Generate(square, []image.Point{{10, 5}}, func(Segment) bool { return false })
	assert.True(t, errors.Is(err, core.ErrEmptyCandidateSet))

	candidates, err = Generate(square, []image.Point{{10, 10}}, InsideContour(square))
	require.NoError(t, err)
	assert.Len(t, candidates, 4)

	_, err = Generate(square, []image.Point{{40, 40}}, InsideContour(square))
	assert.True(t, errors.Is(err, core.ErrEmptyCandidateSet))
}

func scoredWith(values ...float64) []Scored {
	out := make([]Scored, len(values))
	for i, v := range values {
		out[i] = Scored{
			Candidate: Candidate{AnchorID: i, Segment: Segment{Start: image.Pt(i*10, 0), End: image.Pt(50, 50)}},
			Score:     v,
		}
	}
	return out
}

func TestMinScoreSelector(t *testing.T) {
	sel, err := NewSelector(false, DefaultOutlierThreshold, false).Select(scoredWith(30, 10, 20, 10))
	require.NoError(t, err)
	require.Len(t, sel.Chosen, 1)
	assert.Equal(t, 1, sel.Chosen[0].AnchorID)
	assert.Equal(t, 10.0, sel.Score)
	assert.Equal(t, image.Pt(10, 0), sel.Final.Start)

	_, err = (&MinScoreSelector{}).Select(nil)
	assert.True(t, errors.Is(err, core.ErrEmptyCandidateSet))
}

func TestSelectorsFollowHigherBetterMetrics(t *testing.T) {
	sel, err := NewSelector(false, DefaultOutlierThreshold, true).Select(scoredWith(30, 10, 20, 30))
	require.NoError(t, err)
	require.Len(t, sel.Chosen, 1)
	assert.Equal(t, 0, sel.Chosen[0].AnchorID)
	assert.Equal(t, 30.0, sel.Score)

	sel, err = NewSelector(true, DefaultOutlierThreshold, true).Select(scoredWith(10, 10, 10, 100))
	require.NoError(t, err)
	require.Len(t, sel.Chosen, 1)
	assert.Equal(t, 3, sel.Chosen[0].AnchorID)
	assert.Equal(t, 100.0, sel.Score)
}

func TestOutlierSelector(t *testing.T) {
	cases := []struct {
		name    string
		scores  []float64
		anchors []int
		final   Segment
	}{
		{
			name:    "single outlier",
			scores:  []float64{100, 100, 100, 10},
			anchors: []int{3},
			final:   Segment{Start: image.Pt(30, 0), End: image.Pt(50, 50)},
		},
		{
			name:    "two outliers averaged",
			scores:  []float64{10, 100, 100, 10, 100, 100},
			anchors: []int{0, 3},
			final:   Segment{Start: image.Pt(15, 0), End: image.Pt(50, 50)},
		},
		{
			name:    "more than two keeps the two lowest",
			scores:  []float64{1, 100, 100, 100, 100, 100, 100, 2, 3},
			anchors: []int{0, 7},
			final:   Segment{Start: image.Pt(35, 0), End: image.Pt(50, 50)},
		},
		{
			name:    "no variance falls back to the first",
			scores:  []float64{5, 5, 5},
			anchors: []int{0},
			final:   Segment{Start: image.Pt(0, 0), End: image.Pt(50, 50)},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sel, err := NewSelector(true, DefaultOutlierThreshold, false).Select(scoredWith(tc.scores...))
			require.NoError(t, err)

			var anchors []int
			for _, c := range sel.Chosen {
				anchors = append(anchors, c.AnchorID)
			}
			assert.Equal(t, tc.anchors, anchors)
			assert.Equal(t, tc.final, sel.Final)
		})
	}
}

func TestZScores(t *testing.T) {
	z := ZScores([]float64{1, 3})
	assert.InDeltaSlice(t, []float64{-1, 1}, z, 1e-12)
	assert.Equal(t, []float64{0, 0}, ZScores([]float64{4, 4}))
}

func TestScorePrefersSmoothProfile(t *testing.T) {
	heights := core.NewGrid(11, 11)
	labels := core.NewLabelMap(11, 11)
	for y := 0; y < 11; y++ {
		for x := 0; x < 11; x++ {
			heights.Set(x, y, 50)
			labels.Set(x, y, 1)
			if x == 5 && y < 5 {
				heights.Set(x, y, 200) // ridge crossing the vertical path
				labels.Set(x, y, 2)
			}
		}
	}
	field, err := superpixel.Aggregate(heights, labels)
	require.NoError(t, err)

	candidates := []Candidate{
		{AnchorID: 0, Segment: Segment{Start: image.Pt(0, 5), End: image.Pt(10, 5)}},
		{AnchorID: 1, Segment: Segment{Start: image.Pt(5, 0), End: image.Pt(5, 10)}},
	}
	scored, err := Score(field, candidates, metrics.NewEvaluator(), metrics.Roughness, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, scored[0].Score)
	assert.Equal(t, 150.0, scored[1].Score)

	sel, err := (&MinScoreSelector{}).Select(scored)
	require.NoError(t, err)
	assert.Equal(t, 0, sel.Chosen[0].AnchorID)
}

func TestExtendToBounds(t *testing.T) {
	bounds := image.Rect(0, 0, 101, 51)

	cases := []struct {
		name string
		seg  Segment
		want Segment
	}{
		{"horizontal", Segment{Start: image.Pt(10, 20), End: image.Pt(30, 20)}, Segment{Start: image.Pt(0, 20), End: image.Pt(100, 20)}},
		{"vertical", Segment{Start: image.Pt(40, 30), End: image.Pt(40, 10)}, Segment{Start: image.Pt(40, 50), End: image.Pt(40, 0)}},
		{"diagonal", Segment{Start: image.Pt(10, 10), End: image.Pt(20, 20)}, Segment{Start: image.Pt(0, 0), End: image.Pt(50, 50)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtendToBounds(tc.seg, bounds)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := ExtendToBounds(Segment{Start: image.Pt(5, 5), End: image.Pt(5, 5)}, bounds)
	assert.True(t, errors.Is(err, core.ErrNoIntersection))

	_, err = ExtendToBounds(Segment{Start: image.Pt(0, 80), End: image.Pt(10, 80)}, bounds)
	assert.True(t, errors.Is(err, core.ErrNoIntersection))

	_, err = ExtendToBounds(Segment{Start: image.Pt(200, 0), End: image.Pt(300, 10)}, bounds)
	assert.True(t, errors.Is(err, core.ErrNoIntersection))
}

func TestRegionCrossing(t *testing.T) {
	region := core.NewMask(30, 30)
	region.FillRect(image.Rect(10, 0, 15, 30))

	crossing := RegionCrossing(Segment{Start: image.Pt(0, 5), End: image.Pt(29, 5)}, region)
	assert.Equal(t, []image.Point{{10, 5}, {11, 5}, {12, 5}, {13, 5}, {14, 5}}, crossing)
}
