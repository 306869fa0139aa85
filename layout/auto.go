package layout

import "archboard/diagram"

// Auto heuristic thresholds.
const (
	autoSmallGraph    = 10  // below this, a grid is the most readable
	autoDenseCutoff   = 0.3 // edge density above this suits force-directed
	autoSparsePerTier = 3.0 // avg nodes per level at or below this reads as a hierarchy
)

// AutoLayout picks an algorithm from the shape of the graph: small graphs get
// a grid, deep sparse graphs get the hierarchy, dense graphs get the force
// simulation, and everything else falls back to hierarchical.
type AutoLayout struct {
	opts Options
}

// NewAutoLayout creates an auto-selecting layout with the given options.
func NewAutoLayout(opts Options) *AutoLayout {
	return &AutoLayout{opts: opts.withDefaults()}
}

// Name returns the name of this layout algorithm.
func (a *AutoLayout) Name() string {
	return string(Auto)
}

// Layout selects and runs the best-fitting algorithm.
func (a *AutoLayout) Layout(nodes []diagram.Node, edges []diagram.Edge) ([]diagram.Node, error) {
	return a.pick(nodes, edges).Layout(nodes, edges)
}

func (a *AutoLayout) pick(nodes []diagram.Node, edges []diagram.Edge) Engine {
	n := len(nodes)
	if n == 0 {
		return NewHierarchicalLayout(a.opts)
	}
	if n < autoSmallGraph {
		return NewGridLayout(a.opts)
	}

	usable := validEdges(nodes, edges)
	ids := make([]string, 0, n)
	for _, node := range nodes {
		ids = append(ids, node.ID)
	}
	tiers := levelCount(levels(ids, usable))
	density := float64(len(usable)) / float64(n*(n-1)/2)

	if tiers > 2 && float64(n)/float64(tiers) <= autoSparsePerTier {
		return NewHierarchicalLayout(a.opts)
	}
	if density > autoDenseCutoff {
		return NewForceLayout(a.opts)
	}
	return NewHierarchicalLayout(a.opts)
}
