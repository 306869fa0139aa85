package layout

import (
	"sort"

	"archboard/diagram"
)

// HierarchicalLayout arranges nodes in topological levels, top to bottom.
// Disconnected components are laid out independently and tiled left-to-right
// so unrelated subgraphs never overlap.
type HierarchicalLayout struct {
	opts Options
}

// NewHierarchicalLayout creates a hierarchical layout with the given options.
func NewHierarchicalLayout(opts Options) *HierarchicalLayout {
	return &HierarchicalLayout{opts: opts.withDefaults()}
}

// Name returns the name of this layout algorithm.
func (h *HierarchicalLayout) Name() string {
	return string(Hierarchical)
}

// Layout positions nodes level by level. Within a level nodes are centered
// horizontally around the component's midline.
func (h *HierarchicalLayout) Layout(nodes []diagram.Node, edges []diagram.Edge) ([]diagram.Node, error) {
	if len(nodes) == 0 {
		return []diagram.Node{}, nil
	}

	result := diagram.CloneNodes(nodes)
	byID := make(map[string]*diagram.Node, len(result))
	for i := range result {
		byID[result[i].ID] = &result[i]
	}

	usable := validEdges(nodes, edges)

	xOffset := 0.0
	for _, component := range components(nodes, usable) {
		width := h.layoutComponent(byID, component, usable, xOffset)
		xOffset += width + h.opts.ComponentGap
	}

	return result, nil
}

// layoutComponent positions one connected component starting at xOffset and
// returns the component's width.
func (h *HierarchicalLayout) layoutComponent(byID map[string]*diagram.Node, ids []string, edges []diagram.Edge, xOffset float64) float64 {
	level := levels(ids, edges)

	// Group ids by level, keeping each row sorted for determinism.
	rows := make(map[int][]string)
	maxLevel := 0
	for _, id := range ids {
		l := level[id]
		rows[l] = append(rows[l], id)
		if l > maxLevel {
			maxLevel = l
		}
	}
	for l := range rows {
		sort.Strings(rows[l])
	}

	// Widest row determines the component width and the midline every row is
	// centered on.
	width := 0.0
	for l := 0; l <= maxLevel; l++ {
		row := rows[l]
		if len(row) < 2 {
			continue
		}
		spacing := shrinkSpacing(len(row), h.opts.HorizontalSpacing, h.opts.MinSpacing)
		if span := float64(len(row)-1) * spacing; span > width {
			width = span
		}
	}
	mid := xOffset + width/2

	for l := 0; l <= maxLevel; l++ {
		row := rows[l]
		if len(row) == 0 {
			continue
		}
		spacing := shrinkSpacing(len(row), h.opts.HorizontalSpacing, h.opts.MinSpacing)
		start := mid - float64(len(row)-1)*spacing/2
		for i, id := range row {
			node := byID[id]
			node.Position = diagram.Point{
				X: start + float64(i)*spacing,
				Y: float64(l) * h.opts.VerticalSpacing,
			}
		}
	}

	return width
}
