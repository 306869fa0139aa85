package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"archboard/diagram"
)

func writeTestProject(t *testing.T, p *diagram.Project) string {
	t.Helper()
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "project.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readTestProject(t *testing.T, path string) *diagram.Project {
	t.Helper()
	p, err := readProject(path)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestApplyCommand(t *testing.T) {
	path := writeTestProject(t, diagram.NewProject("cli"))

	opsPath := filepath.Join(t.TempDir(), "ops.json")
	doc := `[{"op":"add_node","payload":{"type":"database","name":"Orders"}}]`
	if err := os.WriteFile(opsPath, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := applyCmd()
	cmd.SetArgs([]string{path, opsPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	p := readTestProject(t, path)
	if len(p.Nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(p.Nodes))
	}
	if p.Nodes[0].Data.Name != "Orders" {
		t.Errorf("name = %q, want Orders", p.Nodes[0].Data.Name)
	}
}

func TestLayoutCommand(t *testing.T) {
	project := diagram.NewProject("cli")
	project.AddNode("service", diagram.Point{})
	project.AddNode("database", diagram.Point{})
	path := writeTestProject(t, project)

	out := filepath.Join(t.TempDir(), "out.json")
	cmd := layoutCmd()
	cmd.SetArgs([]string{path, "--algorithm", "grid", "--output", out})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("layout failed: %v", err)
	}

	p := readTestProject(t, out)
	if p.Nodes[0].Position == p.Nodes[1].Position {
		t.Error("nodes still overlap after layout")
	}

	// The source file was left untouched.
	orig := readTestProject(t, path)
	if orig.Nodes[0].Position != orig.Nodes[1].Position {
		t.Error("--output modified the input file")
	}
}

func TestValidateCommand(t *testing.T) {
	project := diagram.NewProject("cli")
	project.Nodes = []diagram.Node{{ID: "a", Type: "service"}}
	project.Edges = []diagram.Edge{{ID: "e1", Source: "a", Target: "missing"}}
	path := writeTestProject(t, project)

	cmd := validateCmd()
	cmd.SetArgs([]string{path})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected validation failure")
	}
}
