// Package diagram contains the fundamental types used throughout the archboard editor.
package diagram

import (
	"math"
	"time"
)

// Version is the serialization version written into new projects.
const Version = "1.0"

// Point represents a 2D coordinate in the diagram's planar space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Finite reports whether both coordinates are real numbers (not NaN or Inf).
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// NodeData holds the user-visible content of a node.
type NodeData struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// Node represents a typed component box in the diagram.
type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Position Point    `json:"position"`
	Data     NodeData `json:"data"`
}

// Edge represents a connection between two nodes.
type Edge struct {
	ID     string            `json:"id"`
	Source string            `json:"source"`
	Target string            `json:"target"`
	Type   string            `json:"type,omitempty"`
	Label  string            `json:"label,omitempty"`
	Style  map[string]string `json:"style,omitempty"`
}

// Project is the aggregate root: a complete diagram owned by one editing session.
type Project struct {
	Version   string    `json:"version"`
	Name      string    `json:"name,omitempty"`
	Nodes     []Node    `json:"nodes"`
	Edges     []Edge    `json:"edges"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewProject creates an empty project with the current serialization version.
func NewProject(name string) *Project {
	now := time.Now().UTC()
	return &Project{
		Version:   Version,
		Name:      name,
		Nodes:     []Node{},
		Edges:     []Edge{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone creates a deep copy of the project. History snapshots rely on this:
// later mutation of the live graph must never alias into a stored snapshot.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}

	return &Project{
		Version:   p.Version,
		Name:      p.Name,
		Nodes:     CloneNodes(p.Nodes),
		Edges:     CloneEdges(p.Edges),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// CloneNodes deep-copies a node slice, including each node's attribute map.
func CloneNodes(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n
		if n.Data.Attributes != nil {
			attrs := make(map[string]any, len(n.Data.Attributes))
			for k, v := range n.Data.Attributes {
				attrs[k] = v
			}
			out[i].Data.Attributes = attrs
		}
	}
	return out
}

// CloneEdges deep-copies an edge slice, including each edge's style map.
func CloneEdges(edges []Edge) []Edge {
	out := make([]Edge, len(edges))
	for i, e := range edges {
		out[i] = e
		if e.Style != nil {
			style := make(map[string]string, len(e.Style))
			for k, v := range e.Style {
				style[k] = v
			}
			out[i].Style = style
		}
	}
	return out
}

// NodeByID returns a pointer to the node with the given id, or nil.
func (p *Project) NodeByID(id string) *Node {
	for i := range p.Nodes {
		if p.Nodes[i].ID == id {
			return &p.Nodes[i]
		}
	}
	return nil
}

// EdgeByID returns a pointer to the edge with the given id, or nil.
func (p *Project) EdgeByID(id string) *Edge {
	for i := range p.Edges {
		if p.Edges[i].ID == id {
			return &p.Edges[i]
		}
	}
	return nil
}

// HasEdgeBetween reports whether an edge exists between two nodes in either
// direction. Duplicate undirected pairs are rejected at insertion.
func (p *Project) HasEdgeBetween(a, b string) bool {
	for _, e := range p.Edges {
		if (e.Source == a && e.Target == b) || (e.Source == b && e.Target == a) {
			return true
		}
	}
	return false
}

// Touch updates the modification timestamp.
func (p *Project) Touch() {
	p.UpdatedAt = time.Now().UTC()
}
