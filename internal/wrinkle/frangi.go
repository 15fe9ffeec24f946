package wrinkle

import (
	"image"
	"math"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"garment-ironing/internal/core"
)

// DefaultFrangiBeta controls sensitivity to blob-like structures
const DefaultFrangiBeta = 0.5

// Frangi computes the multi-scale vesselness of dark ridges in img.
// Each scale smooths with a Gaussian, takes the scale-normalized Hessian
// and keeps the strongest response across scales. The structureness
// constant is half the largest Hessian norm at the first scale.
func Frangi(img *core.Grid, sigmas []float64, beta float64) (*core.Grid, error) {
	if len(sigmas) == 0 {
		return nil, errors.New("no scales given")
	}

	out := core.NewGrid(img.Width, img.Height)
	gamma := 0.0
	for si, sigma := range sigmas {
		if sigma <= 0 {
			return nil, errors.Errorf("invalid scale %g", sigma)
		}
		smooth, err := gaussian(img, sigma)
		if err != nil {
			return nil, err
		}

		dy := gradientY(smooth)
		dx := gradientX(smooth)
		hrr := gradientY(dy)
		hrc := gradientX(dy)
		hcc := gradientX(dx)

		s2 := sigma * sigma
		n := len(img.Data)
		small := make([]float64, n)
		large := make([]float64, n)
		norm := make([]float64, n)
		maxNorm := 0.0
		for i := 0; i < n; i++ {
			l1, l2 := eigen2(hrr.Data[i]*s2, hrc.Data[i]*s2, hcc.Data[i]*s2)
			small[i], large[i] = l1, l2
			norm[i] = math.Sqrt(l1*l1 + l2*l2)
			maxNorm = math.Max(maxNorm, norm[i])
		}
		if si == 0 {
			gamma = maxNorm / 2
			if gamma == 0 {
				gamma = 1
			}
		}

		for i := 0; i < n; i++ {
			l2 := math.Max(large[i], 1e-10)
			rb := math.Abs(small[i]) / l2
			v := math.Exp(-rb*rb/(2*beta*beta)) * (1 - math.Exp(-norm[i]*norm[i]/(2*gamma*gamma)))
			out.Data[i] = math.Max(out.Data[i], v)
		}
	}
	return out, nil
}

func gaussian(img *core.Grid, sigma float64) (*core.Grid, error) {
	src := img.ToMat()
	defer src.Close()
	dst := gocv.NewMat()
	defer dst.Close()

	gocv.GaussianBlur(src, &dst, image.Pt(0, 0), sigma, sigma, gocv.BorderReflect)
	return core.GridFromMat(dst)
}

// gradientX takes central differences along x in the interior and
// one-sided differences at the left and right borders
func gradientX(g *core.Grid) *core.Grid {
	out := core.NewGrid(g.Width, g.Height)
	if g.Width < 2 {
		return out
	}
	last := g.Width - 1
	for y := 0; y < g.Height; y++ {
		out.Set(0, y, g.At(1, y)-g.At(0, y))
		for x := 1; x < last; x++ {
			out.Set(x, y, (g.At(x+1, y)-g.At(x-1, y))/2)
		}
		out.Set(last, y, g.At(last, y)-g.At(last-1, y))
	}
	return out
}

// gradientY is gradientX along y
func gradientY(g *core.Grid) *core.Grid {
	out := core.NewGrid(g.Width, g.Height)
	if g.Height < 2 {
		return out
	}
	last := g.Height - 1
	for x := 0; x < g.Width; x++ {
		out.Set(x, 0, g.At(x, 1)-g.At(x, 0))
		for y := 1; y < last; y++ {
			out.Set(x, y, (g.At(x, y+1)-g.At(x, y-1))/2)
		}
		out.Set(x, last, g.At(x, last)-g.At(x, last-1))
	}
	return out
}

// eigen2 returns the eigenvalues of [[a b] [b c]] ordered by magnitude
func eigen2(a, b, c float64) (float64, float64) {
	tmp := math.Sqrt((a-c)*(a-c) + 4*b*b)
	l1 := (a + c + tmp) / 2
	l2 := (a + c - tmp) / 2
	if math.Abs(l1) > math.Abs(l2) {
		l1, l2 = l2, l1
	}
	return l1, l2
}
