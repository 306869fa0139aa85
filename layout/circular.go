package layout

import (
	"math"

	"archboard/diagram"
)

// CircularLayout places nodes at equal angular increments around a circle,
// ordered by a selectable sort key.
type CircularLayout struct {
	opts Options
}

// NewCircularLayout creates a circular layout with the given options.
func NewCircularLayout(opts Options) *CircularLayout {
	return &CircularLayout{opts: opts.withDefaults()}
}

// Name returns the name of this layout algorithm.
func (c *CircularLayout) Name() string {
	return string(Circular)
}

// Layout places nodes on a circle. The radius grows with the node count so
// neighbors keep roughly one spacing unit of arc between them, unless an
// explicit radius is configured.
func (c *CircularLayout) Layout(nodes []diagram.Node, edges []diagram.Edge) ([]diagram.Node, error) {
	result := diagram.CloneNodes(nodes)
	if len(result) == 0 {
		return result, nil
	}
	if len(result) == 1 {
		result[0].Position = c.opts.Center
		return result, nil
	}

	radius := c.opts.Radius
	if radius <= 0 {
		radius = math.Max(200, float64(len(result))*c.opts.MinSpacing/(2*math.Pi))
	}

	order := orderNodes(result, validEdges(nodes, edges), c.opts.SortBy)
	step := 2 * math.Pi / float64(len(order))
	for rank, idx := range order {
		angle := -math.Pi/2 + float64(rank)*step
		result[idx].Position = diagram.Point{
			X: c.opts.Center.X + radius*math.Cos(angle),
			Y: c.opts.Center.Y + radius*math.Sin(angle),
		}
	}
	return result, nil
}
