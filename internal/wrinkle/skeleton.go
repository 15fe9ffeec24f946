package wrinkle

import (
	"image"
	"math"

	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"
	"gonum.org/v1/gonum/graph/simple"

	"garment-ironing/internal/core"
)

// Skeletonize thins a region to a one pixel wide skeleton (Zhang-Suen)
func Skeletonize(region *core.Mask) (*core.Mask, error) {
	src := region.ToMat()
	defer src.Close()
	dst := gocv.NewMat()
	defer dst.Close()

	contrib.Thinning(src, &dst, contrib.ThinningZhangSuen)
	return core.MaskFromMat(dst)
}

// Graph is the 8-connected pixel graph of a skeleton. Node ids index
// Points, which are in row-major order. Adjacency lists keep neighbours in
// row-major order so traversals are deterministic.
type Graph struct {
	Points    []image.Point
	Adjacency [][]int
	weighted  *simple.WeightedUndirectedGraph
	index     map[image.Point]int
}

// BuildGraph connects every pair of skeleton pixels closer than 2
// (horizontal, vertical and diagonal neighbours).
func BuildGraph(skeleton *core.Mask) *Graph {
	g := &Graph{
		weighted: simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
		index:    make(map[image.Point]int),
	}
	for y := 0; y < skeleton.Height; y++ {
		for x := 0; x < skeleton.Width; x++ {
			if skeleton.At(x, y) {
				p := image.Pt(x, y)
				g.index[p] = len(g.Points)
				g.Points = append(g.Points, p)
				g.weighted.AddNode(simple.Node(g.index[p]))
			}
		}
	}

	g.Adjacency = make([][]int, len(g.Points))
	for id, p := range g.Points {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				q := image.Pt(p.X+dx, p.Y+dy)
				nb, ok := g.index[q]
				if !ok {
					continue
				}
				g.Adjacency[id] = append(g.Adjacency[id], nb)
				if nb > id {
					w := math.Hypot(float64(dx), float64(dy))
					g.weighted.SetWeightedEdge(g.weighted.NewWeightedEdge(simple.Node(id), simple.Node(nb), w))
				}
			}
		}
	}
	return g
}

// Len is the number of skeleton pixels
func (g *Graph) Len() int {
	return len(g.Points)
}

// Node returns the id of the node at p
func (g *Graph) Node(p image.Point) (int, bool) {
	id, ok := g.index[p]
	return id, ok
}

// Degree returns the number of neighbours of node id
func (g *Graph) Degree(id int) int {
	return len(g.Adjacency[id])
}

// Leaves returns the ids of the nodes with exactly one neighbour, in
// row-major order.
func (g *Graph) Leaves() []int {
	var leaves []int
	for id := range g.Points {
		if g.Degree(id) == 1 {
			leaves = append(leaves, id)
		}
	}
	return leaves
}
