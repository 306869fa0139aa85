package ops

import (
	"math"
	"testing"

	"archboard/diagram"
)

func TestApplyAddNodeVariantShapes(t *testing.T) {
	t.Run("type at top level", func(t *testing.T) {
		p := diagram.NewProject("t")
		applied := Apply(p, Parse(`[{"op":"add_node","payload":{"type":"database"}}]`))
		if applied != 1 || len(p.Nodes) != 1 {
			t.Fatalf("applied=%d nodes=%d", applied, len(p.Nodes))
		}
		if p.Nodes[0].Type != "database" || p.Nodes[0].Data.Name != "Database" {
			t.Errorf("Node not normalized: %+v", p.Nodes[0])
		}
	})

	t.Run("type nested under data", func(t *testing.T) {
		p := diagram.NewProject("t")
		Apply(p, Parse(`[{"op":"add_node","payload":{"data":{"type":"cache","name":"Redis"}}}]`))
		if p.Nodes[0].Type != "cache" || p.Nodes[0].Data.Name != "Redis" {
			t.Errorf("Nested shape not reconciled: %+v", p.Nodes[0])
		}
	})

	t.Run("missing type falls back to default", func(t *testing.T) {
		p := diagram.NewProject("t")
		Apply(p, Parse(`[{"op":"add_node","payload":{}}]`))
		if p.Nodes[0].Type != diagram.DefaultNodeType {
			t.Errorf("Expected default type, got %q", p.Nodes[0].Type)
		}
	})

	t.Run("explicit id honored", func(t *testing.T) {
		p := diagram.NewProject("t")
		Apply(p, Parse(`[{"op":"add_node","payload":{"id":"web-1","type":"server"}}]`))
		if p.NodeByID("web-1") == nil {
			t.Error("Supplied id was not used")
		}
	})
}

func TestApplyMetadataPosition(t *testing.T) {
	p := diagram.NewProject("t")
	Apply(p, Parse(`[{"op":"add_node","payload":{"type":"cache"}}, {"x":10,"y":20}]`))

	if len(p.Nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(p.Nodes))
	}
	if got := p.Nodes[0].Position; got.X != 10 || got.Y != 20 {
		t.Errorf("Sibling metadata should become the position, got %+v", got)
	}
}

func TestApplyAutoPlacement(t *testing.T) {
	t.Run("single node lands finite", func(t *testing.T) {
		p := diagram.NewProject("t")
		applied := Apply(p, Parse(`[{"op":"add_node","payload":{"type":"database"}}]`))
		if applied != 1 {
			t.Fatalf("applied=%d", applied)
		}
		if !p.Nodes[0].Position.Finite() {
			t.Errorf("Auto-placed node has non-finite position %+v", p.Nodes[0].Position)
		}
	})

	t.Run("batch forms levels below existing content", func(t *testing.T) {
		p := diagram.NewProject("t")
		p.InsertNode(diagram.Node{ID: "old", Position: diagram.Point{X: 0, Y: 50}})

		Apply(p, Parse(`[
			{"op":"add_node","payload":{"id":"api","type":"gateway"}},
			{"op":"add_node","payload":{"id":"db","type":"database"}},
			{"op":"add_edge","payload":{"source":"api","target":"db"}}
		]`))

		api := p.NodeByID("api").Position
		db := p.NodeByID("db").Position
		if !(api.Y < db.Y) {
			t.Errorf("api should sit above db, got %v vs %v", api.Y, db.Y)
		}
		if api.Y <= 50 {
			t.Errorf("Auto-placed nodes should land below existing content, got y=%v", api.Y)
		}
		if api == db {
			t.Error("Auto-placed nodes overlap at a single point")
		}
	})
}

func TestApplyRepairsCorruptExistingPosition(t *testing.T) {
	p := diagram.NewProject("t")
	p.Nodes = append(p.Nodes, diagram.Node{
		ID: "corrupt", Type: "service",
		Position: diagram.Point{X: math.NaN(), Y: 0},
	})

	Apply(p, Parse(`[{"op":"add_node","payload":{"id":"new","type":"cache","position":{"x":1,"y":2}}}]`))

	if !p.NodeByID("corrupt").Position.Finite() {
		t.Error("Corrupt existing position was not repaired")
	}
	if p.NodeByID("new") == nil {
		t.Error("Corrupt entry blocked the new insert")
	}
}

func TestApplyUpdateNode(t *testing.T) {
	p := diagram.NewProject("t")
	p.InsertNode(diagram.Node{ID: "a", Type: "server", Data: diagram.NodeData{Name: "Web"}})

	applied := Apply(p, Parse(`[{"op":"update_node","payload":{"id":"a","description":"frontend","position":{"x":7,"y":8}}}]`))
	if applied != 1 {
		t.Fatalf("applied=%d", applied)
	}

	node := p.NodeByID("a")
	if node.Data.Name != "Web" {
		t.Errorf("Update must not reset the name, got %q", node.Data.Name)
	}
	if node.Data.Description != "frontend" {
		t.Errorf("Description not applied: %q", node.Data.Description)
	}
	if node.Position.X != 7 || node.Position.Y != 8 {
		t.Errorf("Position not applied: %+v", node.Position)
	}
}

func TestApplyEdgeOperations(t *testing.T) {
	p := diagram.NewProject("t")
	p.InsertNode(diagram.Node{ID: "a"})
	p.InsertNode(diagram.Node{ID: "b"})

	applied := Apply(p, Parse(`[
		{"op":"add_edge","payload":{"id":"custom-edge","source":"a","target":"b","label":"reads"}},
		{"op":"add_edge","payload":{"source":"b","target":"a"}},
		{"op":"add_edge","payload":{"source":"a","target":"ghost"}}
	]`))

	if applied != 1 {
		t.Fatalf("Only the first edge should apply, applied=%d", applied)
	}
	if len(p.Edges) != 1 {
		t.Fatalf("Expected 1 edge, got %d", len(p.Edges))
	}
	edge := p.Edges[0]
	if edge.ID != "custom-edge" || edge.Label != "reads" {
		t.Errorf("External id/label lost: %+v", edge)
	}

	Apply(p, Parse(`[{"op":"delete_edge","payload":{"id":"custom-edge"}}]`))
	if len(p.Edges) != 0 {
		t.Error("delete_edge did not remove the edge")
	}
}

func TestApplyDeleteNodeCascades(t *testing.T) {
	p := diagram.NewProject("t")
	p.InsertNode(diagram.Node{ID: "a"})
	p.InsertNode(diagram.Node{ID: "b"})
	p.AddEdge("a", "b")

	Apply(p, Parse(`[{"op":"delete_node","payload":{"id":"a"}}]`))
	if p.NodeByID("a") != nil {
		t.Error("Node not deleted")
	}
	if len(p.Edges) != 0 {
		t.Error("Cascade did not remove the incident edge")
	}
}
