package layout

import (
	"math"

	"archboard/diagram"
)

// GridLayout tiles nodes row-major into a near-square grid, ordered by a
// selectable sort key.
type GridLayout struct {
	opts Options
}

// NewGridLayout creates a grid layout with the given options.
func NewGridLayout(opts Options) *GridLayout {
	return &GridLayout{opts: opts.withDefaults()}
}

// Name returns the name of this layout algorithm.
func (g *GridLayout) Name() string {
	return string(Grid)
}

// Layout positions nodes in rows of ceil(sqrt(n)) columns unless an explicit
// column count is configured.
func (g *GridLayout) Layout(nodes []diagram.Node, edges []diagram.Edge) ([]diagram.Node, error) {
	result := diagram.CloneNodes(nodes)
	if len(result) == 0 {
		return result, nil
	}

	columns := g.opts.Columns
	if columns <= 0 {
		columns = int(math.Ceil(math.Sqrt(float64(len(result)))))
	}

	order := orderNodes(result, validEdges(nodes, edges), g.opts.SortBy)
	for rank, idx := range order {
		result[idx].Position = diagram.Point{
			X: float64(rank%columns) * g.opts.HorizontalSpacing,
			Y: float64(rank/columns) * g.opts.VerticalSpacing,
		}
	}
	return result, nil
}
