package diagram

import "github.com/google/uuid"

// NewNodeID generates a fresh unique node identifier.
func NewNodeID() string {
	return "node-" + uuid.NewString()
}

// NewEdgeID generates a fresh unique edge identifier.
func NewEdgeID() string {
	return "edge-" + uuid.NewString()
}

// AddNode creates a node of the given type at the given position, assigns a
// fresh id and the type-default display name, and appends it to the node set.
func (p *Project) AddNode(nodeType string, position Point) Node {
	if nodeType == "" {
		nodeType = DefaultNodeType
	}
	node := Node{
		ID:       NewNodeID(),
		Type:     nodeType,
		Position: position,
		Data:     NodeData{Name: DefaultName(nodeType)},
	}
	p.Nodes = append(p.Nodes, node)
	p.Touch()
	return node
}

// InsertNode appends a fully formed node, filling in any missing id, type or
// name. Returns false without mutating if the id is already taken.
func (p *Project) InsertNode(node Node) bool {
	if node.ID == "" {
		node.ID = NewNodeID()
	}
	if p.NodeByID(node.ID) != nil {
		return false
	}
	if node.Type == "" {
		node.Type = DefaultNodeType
	}
	if node.Data.Name == "" {
		node.Data.Name = DefaultName(node.Type)
	}
	p.Nodes = append(p.Nodes, node)
	p.Touch()
	return true
}

// UpdateNode shallow-merges the patch into the node's data: empty patch fields
// leave the existing value alone and attributes merge key-wise. A missing node
// is a no-op.
func (p *Project) UpdateNode(id string, patch NodeData) bool {
	node := p.NodeByID(id)
	if node == nil {
		return false
	}
	if patch.Name != "" {
		node.Data.Name = patch.Name
	}
	if patch.Description != "" {
		node.Data.Description = patch.Description
	}
	if len(patch.Attributes) > 0 {
		if node.Data.Attributes == nil {
			node.Data.Attributes = make(map[string]any, len(patch.Attributes))
		}
		for k, v := range patch.Attributes {
			node.Data.Attributes[k] = v
		}
	}
	p.Touch()
	return true
}

// MoveNode sets a node's position. Non-finite coordinates are ignored so a
// corrupt drag event can never poison the committed graph.
func (p *Project) MoveNode(id string, position Point) bool {
	node := p.NodeByID(id)
	if node == nil || !position.Finite() {
		return false
	}
	node.Position = position
	p.Touch()
	return true
}

// DeleteNode removes the node and cascades removal of every edge that
// references it as source or target.
func (p *Project) DeleteNode(id string) bool {
	idx := -1
	for i := range p.Nodes {
		if p.Nodes[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	p.Nodes = append(p.Nodes[:idx], p.Nodes[idx+1:]...)

	kept := p.Edges[:0]
	for _, e := range p.Edges {
		if e.Source != id && e.Target != id {
			kept = append(kept, e)
		}
	}
	p.Edges = kept
	p.Touch()
	return true
}

// AddEdge creates an edge with a default render style between two existing
// nodes. It is a no-op if either endpoint is missing or an edge already exists
// between the pair in either direction.
func (p *Project) AddEdge(source, target string) (Edge, bool) {
	return p.InsertEdge(Edge{Source: source, Target: target})
}

// InsertEdge appends an edge, filling in a missing id and render type. The
// same dedup and dangling-endpoint rules as AddEdge apply.
func (p *Project) InsertEdge(edge Edge) (Edge, bool) {
	if edge.Source == edge.Target {
		return Edge{}, false
	}
	if p.NodeByID(edge.Source) == nil || p.NodeByID(edge.Target) == nil {
		return Edge{}, false
	}
	if p.HasEdgeBetween(edge.Source, edge.Target) {
		return Edge{}, false
	}
	if edge.ID == "" {
		edge.ID = NewEdgeID()
	}
	if p.EdgeByID(edge.ID) != nil {
		return Edge{}, false
	}
	if edge.Type == "" {
		edge.Type = DefaultEdgeType
	}
	p.Edges = append(p.Edges, edge)
	p.Touch()
	return edge, true
}

// DeleteEdge removes an edge by id. No cascade.
func (p *Project) DeleteEdge(id string) bool {
	for i := range p.Edges {
		if p.Edges[i].ID == id {
			p.Edges = append(p.Edges[:i], p.Edges[i+1:]...)
			p.Touch()
			return true
		}
	}
	return false
}
