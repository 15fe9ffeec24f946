package wrinkle

import (
	"image"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garment-ironing/internal/config"
	"garment-ironing/internal/core"
)

func maskOf(w, h int, pts ...image.Point) *core.Mask {
	m := core.NewMask(w, h)
	for _, p := range pts {
		m.Set(p.X, p.Y, true)
	}
	return m
}

// branched is a horizontal line on row 5 with a spur rising from (3,4)
func branched() *Graph {
	var pts []image.Point
	for x := 0; x <= 10; x++ {
		pts = append(pts, image.Pt(x, 5))
	}
	for y := 1; y <= 4; y++ {
		pts = append(pts, image.Pt(3, y))
	}
	return BuildGraph(maskOf(12, 8, pts...))
}

func TestBuildGraphAdjacency(t *testing.T) {
	g := BuildGraph(maskOf(3, 2, image.Pt(0, 0), image.Pt(1, 1), image.Pt(2, 0)))
	require.Equal(t, 3, g.Len())
	assert.Equal(t, []image.Point{{0, 0}, {2, 0}, {1, 1}}, g.Points)

	a, _ := g.Node(image.Pt(0, 0))
	b, _ := g.Node(image.Pt(1, 1))
	c, _ := g.Node(image.Pt(2, 0))
	assert.Equal(t, []int{b}, g.Adjacency[a])
	assert.Equal(t, []int{b}, g.Adjacency[c])
	assert.Equal(t, []int{a, c}, g.Adjacency[b])
	assert.Equal(t, []int{a, c}, g.Leaves())
}

func TestSelectEndpoints(t *testing.T) {
	g := branched()
	boundary := make([]image.Point, 0, 8)
	for y := 0; y < 8; y++ {
		boundary = append(boundary, image.Pt(12, y))
	}

	ep, err := SelectEndpoints(g, boundary)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(0, 5), g.Points[ep.Start])
	assert.Equal(t, image.Pt(10, 5), g.Points[ep.End])
	assert.Equal(t, 12.0, ep.StartDistance)
	assert.Equal(t, 2.0, ep.EndDistance)
}

func TestSelectEndpointsTie(t *testing.T) {
	g := BuildGraph(maskOf(5, 1, image.Pt(0, 0), image.Pt(1, 0), image.Pt(2, 0), image.Pt(3, 0), image.Pt(4, 0)))

	ep, err := SelectEndpoints(g, []image.Point{{2, 10}})
	require.NoError(t, err)
	assert.Equal(t, image.Pt(0, 0), g.Points[ep.Start])
	assert.Equal(t, image.Pt(4, 0), g.Points[ep.End])
}

func TestSelectEndpointsInsufficientLeaves(t *testing.T) {
	g := BuildGraph(maskOf(3, 3, image.Pt(1, 1)))
	_, err := SelectEndpoints(g, []image.Point{{0, 0}})
	assert.True(t, errors.Is(err, core.ErrInsufficientLeaves))
}

func TestTraverseDepthFirstFollowsAdjacencyOrder(t *testing.T) {
	g := branched()
	start, _ := g.Node(image.Pt(0, 5))
	end, _ := g.Node(image.Pt(10, 5))

	route, err := Traverse(g, start, end, config.TraversalDFS)
	require.NoError(t, err)

	want := []image.Point{{0, 5}, {1, 5}, {2, 5}, {3, 4}, {3, 5}}
	for x := 4; x <= 10; x++ {
		want = append(want, image.Pt(x, 5))
	}
	assert.Equal(t, want, route)
}

func TestTraverseShortest(t *testing.T) {
	g := branched()
	start, _ := g.Node(image.Pt(0, 5))
	end, _ := g.Node(image.Pt(10, 5))

	route, err := Traverse(g, start, end, config.TraversalShortest)
	require.NoError(t, err)
	require.Len(t, route, 11)
	for i, p := range route {
		assert.Equal(t, image.Pt(i, 5), p)
	}
}

func TestTraverseNoPath(t *testing.T) {
	g := BuildGraph(maskOf(10, 1, image.Pt(0, 0), image.Pt(1, 0), image.Pt(5, 0), image.Pt(6, 0)))
	start, _ := g.Node(image.Pt(0, 0))
	end, _ := g.Node(image.Pt(6, 0))

	for _, mode := range []config.TraversalMode{config.TraversalDFS, config.TraversalShortest} {
		_, err := Traverse(g, start, end, mode)
		assert.True(t, errors.Is(err, core.ErrNoPath), mode)
	}
}

func TestNormalize(t *testing.T) {
	img := core.NewGrid(3, 1)
	img.Data = []float64{100, 10, 30}
	mask := maskOf(3, 1, image.Pt(1, 0), image.Pt(2, 0))

	norm, err := Normalize(img, mask)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 1}, norm.Data)

	img.Data = []float64{1, 5, 5}
	_, err = Normalize(img, mask)
	assert.True(t, errors.Is(err, core.ErrDegenerateRange))

	_, err = Normalize(img, core.NewMask(3, 1))
	assert.True(t, errors.Is(err, core.ErrEmptyMask))
}

func garmentImage() (*core.Grid, *core.Mask) {
	img := core.NewGrid(40, 40)
	mask := core.NewMask(40, 40)
	mask.FillRect(image.Rect(5, 5, 35, 35))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			switch {
			case x >= 15 && x < 25:
				img.Set(x, y, 0.7)
			case x >= 25:
				img.Set(x, y, 1)
			}
		}
	}
	return img, mask
}

func TestSegmentBand(t *testing.T) {
	img, mask := garmentImage()

	region, err := Segment(img, mask, config.Default().Wrinkle)
	require.NoError(t, err)
	require.True(t, region.Found)
	assert.True(t, region.Mask.At(20, 20))
	assert.False(t, region.Mask.At(20, 5))
	assert.False(t, region.Mask.At(30, 20))
	assert.False(t, region.Mask.At(10, 20))
}

func TestSegmentNothingFound(t *testing.T) {
	img, mask := garmentImage()
	for i, v := range img.Data {
		if v > 0 {
			img.Data[i] = 1
		}
	}

	region, err := Segment(img, mask, config.Default().Wrinkle)
	require.NoError(t, err)
	assert.False(t, region.Found)
	assert.Nil(t, region.Mask)
	assert.NotNil(t, region.Normalized)
}

func TestFrangiRespondsToDarkLine(t *testing.T) {
	img := core.NewGrid(41, 41)
	for i := range img.Data {
		img.Data[i] = 1
	}
	for x := 0; x < 41; x++ {
		img.Set(x, 20, 0)
	}

	resp, err := Frangi(img, []float64{1, 3}, DefaultFrangiBeta)
	require.NoError(t, err)
	assert.Greater(t, resp.At(20, 20), 0.5)
	assert.Less(t, resp.At(20, 2), 0.05)

	_, err = Frangi(img, nil, DefaultFrangiBeta)
	assert.Error(t, err)
}

func TestSkeletonizeThinsRegion(t *testing.T) {
	region := core.NewMask(60, 20)
	region.FillRect(image.Rect(5, 7, 55, 14))

	skel, err := Skeletonize(region)
	require.NoError(t, err)
	require.False(t, skel.Empty())
	assert.Less(t, skel.Count(), region.Count()/3)
	for i, v := range skel.Data {
		if v != core.Background {
			assert.Equal(t, core.Foreground, region.Data[i])
		}
	}
}

func TestSeverity(t *testing.T) {
	mask := core.NewMask(30, 30)
	mask.FillRect(image.Rect(0, 0, 20, 20))
	norm := core.NewGrid(30, 30)
	for i := range norm.Data {
		norm.Data[i] = 0.5
	}

	s, err := Severity(norm, mask)
	require.NoError(t, err)
	assert.InDelta(t, 200.0/361.0, s, 1e-9)

	_, err = Severity(norm, core.NewMask(30, 30))
	assert.True(t, errors.Is(err, core.ErrEmptyMask))
}

func TestGradientMatchesCentralDifferences(t *testing.T) {
	g, err := core.NewGridFromRows([][]float64{
		{0, 1, 4, 9},
		{2, 3, 6, 11},
		{6, 7, 10, 15},
	})
	require.NoError(t, err)

	dx := gradientX(g)
	assert.Equal(t, []float64{1, 2, 4, 5}, dx.Data[:4])

	dy := gradientY(g)
	assert.Equal(t, []float64{2, 2, 2, 2}, dy.Data[:4])
	assert.Equal(t, []float64{3, 3, 3, 3}, dy.Data[4:8])
	assert.Equal(t, []float64{4, 4, 4, 4}, dy.Data[8:])

	flat := gradientX(core.NewGrid(1, 3))
	assert.Equal(t, []float64{0, 0, 0}, flat.Data)
}
