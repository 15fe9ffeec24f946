package superpixel

import (
	"image"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garment-ironing/internal/core"
	"garment-ironing/internal/heightfield"
)

// 6x4 frame, column 5 outside the garment; label 1 on the left half, 2 on the right
func fixture() (*core.Grid, *core.LabelMap) {
	heights, _ := core.NewGridFromRows([][]float64{
		{10, 20, 30, 100, 110, 255},
		{12, 22, 32, 102, 112, 255},
		{14, 24, 34, 104, 114, 255},
		{16, 26, 36, 106, 116, 255},
	})
	labels := core.NewLabelMap(6, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			if x < 3 {
				labels.Set(x, y, 1)
			} else {
				labels.Set(x, y, 2)
			}
		}
	}
	return heights, labels
}

func TestAggregateIsIdempotentPerLabel(t *testing.T) {
	heights, labels := fixture()

	field, err := Aggregate(heights, labels)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, field.Regions())

	for _, label := range field.Regions() {
		var inSum, outSum, n float64
		for i, h := range heights.Data {
			if labels.Data[i] == label && heightfield.IsGarment(h) {
				inSum += h
				outSum += field.Heights.Data[i]
				n++
			}
		}
		mean, ok := field.Mean(label)
		require.True(t, ok)
		assert.InDelta(t, inSum/n, mean, 1e-9)
		assert.InDelta(t, inSum/n, outSum/n, 1e-9)
	}

	assert.Equal(t, 8, field.Size(2))
	assert.Equal(t, heightfield.Sentinel, field.At(5, 0))
	assert.Equal(t, heightfield.Sentinel, field.At(-1, 0))
}

func TestHighestQueries(t *testing.T) {
	heights, labels := fixture()
	field, err := Aggregate(heights, labels)
	require.NoError(t, err)

	label, ok := field.HighestLabel()
	require.True(t, ok)
	assert.Equal(t, 1, label)

	p, ok := field.HighestPoint()
	require.True(t, ok)
	assert.Equal(t, image.Pt(0, 0), p)

	c, ok := field.HighestRegionCentroid()
	require.True(t, ok)
	assert.Equal(t, image.Pt(1, 2), c)

	mask := field.HighestRegionMask()
	assert.Equal(t, 12, mask.Count())
	assert.True(t, mask.At(2, 3))
	assert.False(t, mask.At(3, 0))
}

func TestAggregateUnlabeledPixelsKeepHeight(t *testing.T) {
	heights, labels := fixture()
	labels.Set(0, 0, 0)

	field, err := Aggregate(heights, labels)
	require.NoError(t, err)
	assert.Equal(t, 10.0, field.At(0, 0))

	p, _ := field.HighestPoint()
	assert.Equal(t, image.Pt(1, 0), p)
}

func TestAggregateShapeMismatch(t *testing.T) {
	heights, _ := fixture()
	_, err := Aggregate(heights, core.NewLabelMap(3, 3))
	assert.True(t, errors.Is(err, core.ErrShapeMismatch))
}

func TestLinePointsCount(t *testing.T) {
	cases := []struct {
		name       string
		start, end image.Point
	}{
		{"horizontal", image.Pt(0, 0), image.Pt(10, 0)},
		{"pythagorean", image.Pt(0, 0), image.Pt(3, 4)},
		{"diagonal", image.Pt(2, 2), image.Pt(9, 9)},
		{"reverse", image.Pt(20, 5), image.Pt(1, 17)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			length := math.Hypot(float64(tc.end.X-tc.start.X), float64(tc.end.Y-tc.start.Y))
			points := LinePoints(tc.start, tc.end, 1)
			assert.Len(t, points, int(math.Ceil(length))+1)
			assert.Equal(t, tc.start, points[0])
			assert.Equal(t, tc.end, points[len(points)-1])
		})
	}

	assert.Len(t, LinePoints(image.Pt(4, 4), image.Pt(4, 4), 1), 1)
}

func TestSampleLineFiltersSentinel(t *testing.T) {
	heights, labels := fixture()
	field, err := Aggregate(heights, labels)
	require.NoError(t, err)

	profile := SampleLine(field, image.Pt(0, 1), image.Pt(5, 1), 1)
	require.Len(t, profile.Samples, 6)
	assert.Equal(t, heightfield.Sentinel, profile.Samples[5])

	garment := profile.GarmentSamples()
	assert.Len(t, garment, 5)
	m1, _ := field.Mean(1)
	m2, _ := field.Mean(2)
	assert.Equal(t, []float64{m1, m1, m1, m2, m2}, garment)

	single := SampleLine(field, image.Pt(2, 2), image.Pt(2, 2), 1)
	assert.Len(t, single.Samples, 1)
}
