package wrinkle

import (
	"image"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"garment-ironing/internal/config"
	"garment-ironing/internal/contour"
	"garment-ironing/internal/core"
)

// Endpoints are the two skeleton leaves the ironing stroke runs between
type Endpoints struct {
	Start int
	End   int
	// StartDistance and EndDistance are the leaves' distances to the garment boundary
	StartDistance float64
	EndDistance   float64
}

// SelectEndpoints starts at the leaf farthest from the garment boundary and
// ends at the leaf closest to it. Ties go to the first leaf in row-major
// order. When one leaf is both, the end moves to the closest of the others.
func SelectEndpoints(g *Graph, boundary []image.Point) (Endpoints, error) {
	leaves := g.Leaves()
	if len(leaves) < 2 {
		return Endpoints{}, errors.Wrapf(core.ErrInsufficientLeaves, "skeleton has %d leaves", len(leaves))
	}
	if len(boundary) == 0 {
		return Endpoints{}, errors.Wrap(core.ErrEmptyMask, "empty garment boundary")
	}

	dist := make([]float64, len(leaves))
	far, near := 0, 0
	for i, id := range leaves {
		dist[i] = contour.DistanceToPoints(g.Points[id], boundary)
		if dist[i] > dist[far] {
			far = i
		}
		if dist[i] < dist[near] {
			near = i
		}
	}
	if far == near {
		near = -1
		for i := range leaves {
			if i == far {
				continue
			}
			if near < 0 || dist[i] < dist[near] {
				near = i
			}
		}
	}

	return Endpoints{
		Start:         leaves[far],
		End:           leaves[near],
		StartDistance: dist[far],
		EndDistance:   dist[near],
	}, nil
}

// Traverse returns the skeleton pixels from start to end, both included
func Traverse(g *Graph, start, end int, mode config.TraversalMode) ([]image.Point, error) {
	if start < 0 || start >= g.Len() || end < 0 || end >= g.Len() {
		return nil, errors.Errorf("node out of range: start %d, end %d, %d nodes", start, end, g.Len())
	}

	var ids []int
	var err error
	switch mode {
	case config.TraversalDFS, "":
		ids, err = depthFirst(g, start, end)
	case config.TraversalShortest:
		ids, err = shortest(g, start, end)
	default:
		return nil, errors.Errorf("unknown traversal mode %q", mode)
	}
	if err != nil {
		return nil, err
	}

	pts := make([]image.Point, len(ids))
	for i, id := range ids {
		pts[i] = g.Points[id]
	}
	return pts, nil
}

// depthFirst follows the first unvisited neighbour in adjacency order and
// backtracks on dead ends. The stack is the current path, so the result is
// the first route found, not the shortest one.
func depthFirst(g *Graph, start, end int) ([]int, error) {
	type frame struct {
		node int
		next int
	}

	visited := make([]bool, g.Len())
	visited[start] = true
	stack := []frame{{node: start}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.node == end {
			out := make([]int, len(stack))
			for i, f := range stack {
				out[i] = f.node
			}
			return out, nil
		}

		adj := g.Adjacency[top.node]
		advanced := false
		for top.next < len(adj) {
			nb := adj[top.next]
			top.next++
			if !visited[nb] {
				visited[nb] = true
				stack = append(stack, frame{node: nb})
				advanced = true
				break
			}
		}
		if !advanced {
			stack = stack[:len(stack)-1]
		}
	}
	return nil, errors.Wrapf(core.ErrNoPath, "from %v to %v", g.Points[start], g.Points[end])
}

func shortest(g *Graph, start, end int) ([]int, error) {
	tree := path.DijkstraFrom(simple.Node(start), g.weighted)
	nodes, _ := tree.To(int64(end))
	if len(nodes) == 0 {
		return nil, errors.Wrapf(core.ErrNoPath, "from %v to %v", g.Points[start], g.Points[end])
	}

	out := make([]int, len(nodes))
	for i, n := range nodes {
		out[i] = int(n.ID())
	}
	return out, nil
}
