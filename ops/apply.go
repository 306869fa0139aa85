package ops

import (
	"archboard/diagram"
	"archboard/layout"
)

// autoPlaceGap separates auto-placed nodes from the existing diagram content.
const autoPlaceGap = 140.0

// Apply mutates the project with an operation batch and returns the number of
// operations that changed the graph. After all operations are applied, nodes
// that arrived without an explicit position are laid out together so they
// land in a readable arrangement instead of overlapping at one point.
//
// Referentially invalid input (edges to missing nodes, duplicate ids,
// non-finite coordinates) is silently dropped or repaired, never fatal.
func Apply(p *diagram.Project, batch []Operation) int {
	applied := 0
	var unplaced []string

	for _, op := range batch {
		switch op.Op {
		case AddNode:
			spec := op.normalizeNode()

			// An existing node with a corrupt position must never block
			// future inserts; repair before appending.
			repairPositions(p)

			node := diagram.Node{
				ID:   spec.id,
				Type: spec.nodeType,
				Data: diagram.NodeData{
					Name:        spec.name,
					Description: spec.description,
					Attributes:  spec.attributes,
				},
			}
			if spec.position != nil {
				node.Position = *spec.position
			}
			if p.InsertNode(node) {
				applied++
				if spec.position == nil {
					// InsertNode fills a generated id in; recover it for the
					// placement pass.
					unplaced = append(unplaced, p.Nodes[len(p.Nodes)-1].ID)
				}
			}

		case UpdateNode:
			id, patch, position := op.normalizePatch()
			if id == "" {
				continue
			}
			changed := p.UpdateNode(id, patch)
			if position != nil && p.MoveNode(id, *position) {
				changed = true
			}
			if changed {
				applied++
			}

		case DeleteNode:
			if p.DeleteNode(stringField(op.Payload, "id")) {
				applied++
			}

		case AddEdge:
			edge := diagram.Edge{
				ID:     stringField(op.Payload, "id"),
				Source: stringField(op.Payload, "source"),
				Target: stringField(op.Payload, "target"),
				Label:  stringField(op.Payload, "label"),
			}
			if _, ok := p.InsertEdge(edge); ok {
				applied++
			}

		case DeleteEdge:
			if p.DeleteEdge(stringField(op.Payload, "id")) {
				applied++
			}
		}
	}

	if len(unplaced) > 0 {
		autoPlace(p, unplaced)
	}
	return applied
}

// repairPositions corrects committed nodes with non-finite positions to a
// staggered fallback.
func repairPositions(p *diagram.Project) {
	for i := range p.Nodes {
		if !p.Nodes[i].Position.Finite() {
			p.Nodes[i].Position = diagram.Point{
				X: float64(i) * 40,
				Y: float64(i) * 40,
			}
		}
	}
}

// autoPlace runs the hierarchical layout restricted to the newly added
// positionless nodes and shifts the result below the existing content so the
// two groups never overlap.
func autoPlace(p *diagram.Project, ids []string) {
	pending := make(map[string]bool, len(ids))
	for _, id := range ids {
		pending[id] = true
	}

	subset := make([]diagram.Node, 0, len(ids))
	for _, n := range p.Nodes {
		if pending[n.ID] {
			subset = append(subset, n)
		}
	}
	var subsetEdges []diagram.Edge
	for _, e := range p.Edges {
		if pending[e.Source] && pending[e.Target] {
			subsetEdges = append(subsetEdges, e)
		}
	}

	laid, err := layout.Compute(subset, subsetEdges, layout.Hierarchical, layout.Options{})
	if err != nil {
		return
	}

	// Baseline below everything that already has a position.
	baseY := 0.0
	shift := false
	for _, n := range p.Nodes {
		if pending[n.ID] {
			continue
		}
		shift = true
		if n.Position.Y > baseY {
			baseY = n.Position.Y
		}
	}
	if shift {
		baseY += autoPlaceGap
	}

	for _, placed := range laid {
		node := p.NodeByID(placed.ID)
		if node == nil {
			continue
		}
		node.Position = diagram.Point{
			X: placed.Position.X,
			Y: placed.Position.Y + baseY,
		}
	}
	p.Touch()
}
