package heightfield

import (
	"image"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garment-ironing/internal/core"
)

func rampDepth(width, height int) *core.Grid {
	g := core.NewGrid(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g.Set(x, y, 800+float64(x*7+y*3))
		}
	}
	return g
}

func TestBuildBoundsAndSentinel(t *testing.T) {
	depth := rampDepth(40, 30)
	mask := core.NewMask(40, 30)
	mask.FillRect(image.Rect(5, 5, 35, 25))

	heights, err := Build(depth, mask)
	require.NoError(t, err)

	seenMin, seenMax := false, false
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			v := heights.At(x, y)
			if !mask.At(x, y) {
				assert.Equal(t, Sentinel, v)
				continue
			}
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, MaxHeight)
			seenMin = seenMin || v == 0
			seenMax = seenMax || v == MaxHeight
		}
	}
	assert.True(t, seenMin)
	assert.True(t, seenMax)
}

func TestBuildIsMonotonic(t *testing.T) {
	depth := rampDepth(40, 1)
	mask := core.NewMask(40, 1)
	mask.FillRect(image.Rect(0, 0, 40, 1))

	heights, err := Build(depth, mask)
	require.NoError(t, err)

	for x := 1; x < 40; x++ {
		assert.GreaterOrEqual(t, heights.At(x, 0), heights.At(x-1, 0))
	}
}

func TestBuildFailures(t *testing.T) {
	depth := core.NewGrid(10, 10)
	for i := range depth.Data {
		depth.Data[i] = 5
	}

	_, err := Build(depth, core.NewMask(10, 10))
	assert.True(t, errors.Is(err, core.ErrEmptyMask))

	mask := core.NewMask(10, 10)
	mask.FillRect(image.Rect(2, 2, 8, 8))
	_, err = Build(depth, mask)
	assert.True(t, errors.Is(err, core.ErrDegenerateRange))

	_, err = Build(depth, core.NewMask(5, 5))
	assert.True(t, errors.Is(err, core.ErrShapeMismatch))
}

func TestBuildSkipsDropouts(t *testing.T) {
	depth := rampDepth(20, 1)
	mask := core.NewMask(20, 1)
	mask.FillRect(image.Rect(0, 0, 20, 1))
	depth.Set(10, 0, 0)

	squashed, err := Build(depth, mask)
	require.NoError(t, err)
	assert.Equal(t, 0.0, squashed.At(10, 0))
	assert.Greater(t, squashed.At(0, 0), 200.0)

	heights, err := Build(depth, mask, SkipDepth(0))
	require.NoError(t, err)
	assert.Equal(t, Sentinel, heights.At(10, 0))
	assert.Equal(t, 0.0, heights.At(0, 0))
	assert.Equal(t, MaxHeight, heights.At(19, 0))

	lo, hi, err := DepthRange(depth, mask, SkipDepth(0))
	require.NoError(t, err)
	assert.Equal(t, 800.0, lo)
	assert.Equal(t, 933.0, hi)

	// only dropouts on the garment
	empty := core.NewGrid(20, 1)
	_, err = Build(empty, mask, SkipDepth(0))
	assert.True(t, errors.Is(err, core.ErrEmptyMask))
}
