// Package layout provides algorithms for positioning diagram nodes in 2D space.
package layout

import (
	"fmt"
	"math"
	"sort"

	"archboard/diagram"
)

// Engine positions nodes in 2D space.
type Engine interface {
	// Layout takes nodes and their edges and returns new nodes with positions
	// set. The input nodes are not modified.
	Layout(nodes []diagram.Node, edges []diagram.Edge) ([]diagram.Node, error)

	// Name returns the name of this layout algorithm.
	Name() string
}

// Algorithm identifies one of the built-in layout algorithms.
type Algorithm string

const (
	Hierarchical Algorithm = "hierarchical"
	Force        Algorithm = "force"
	Grid         Algorithm = "grid"
	Circular     Algorithm = "circular"
	Auto         Algorithm = "auto"
)

// SortKey selects the ordering used by the grid and circular layouts.
type SortKey string

const (
	SortByConnections SortKey = "connections"
	SortByType        SortKey = "type"
	SortByName        SortKey = "name"
)

// Options tunes the layout algorithms. The zero value means "use defaults".
type Options struct {
	HorizontalSpacing float64 // spacing between columns / same-level siblings
	VerticalSpacing   float64 // spacing between rows / levels
	MinSpacing        float64 // floor for shrinking same-level spacing
	ComponentGap      float64 // gap between disconnected components
	Columns           int     // grid columns, 0 = ceil(sqrt(n))
	SortBy            SortKey // grid/circular ordering, default connections
	Radius            float64 // circular radius, 0 = derived from node count
	Center            diagram.Point
	Iterations        int // force-directed simulation steps, 0 = 300
}

func (o Options) withDefaults() Options {
	if o.HorizontalSpacing <= 0 {
		o.HorizontalSpacing = 220
	}
	if o.VerticalSpacing <= 0 {
		o.VerticalSpacing = 140
	}
	if o.MinSpacing <= 0 {
		o.MinSpacing = 120
	}
	if o.ComponentGap <= 0 {
		o.ComponentGap = 160
	}
	if o.SortBy == "" {
		o.SortBy = SortByConnections
	}
	if o.Iterations <= 0 {
		o.Iterations = 300
	}
	return o
}

// New returns the engine for the given algorithm.
func New(algorithm Algorithm, opts Options) (Engine, error) {
	switch algorithm {
	case Hierarchical:
		return NewHierarchicalLayout(opts), nil
	case Force:
		return NewForceLayout(opts), nil
	case Grid:
		return NewGridLayout(opts), nil
	case Circular:
		return NewCircularLayout(opts), nil
	case Auto:
		return NewAutoLayout(opts), nil
	default:
		return nil, fmt.Errorf("unknown layout algorithm: %q", algorithm)
	}
}

// Compute runs the given algorithm over a node/edge set and returns the
// repositioned copy. Pure and synchronous.
func Compute(nodes []diagram.Node, edges []diagram.Edge, algorithm Algorithm, opts Options) ([]diagram.Node, error) {
	engine, err := New(algorithm, opts)
	if err != nil {
		return nil, err
	}
	return engine.Layout(nodes, edges)
}

// validEdges filters out self-loops and edges whose endpoints are not in the
// node set. Dangling edges are dropped, never fatal.
func validEdges(nodes []diagram.Node, edges []diagram.Edge) []diagram.Edge {
	present := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		present[n.ID] = true
	}
	out := make([]diagram.Edge, 0, len(edges))
	for _, e := range edges {
		if e.Source == e.Target {
			continue
		}
		if present[e.Source] && present[e.Target] {
			out = append(out, e)
		}
	}
	return out
}

// degrees counts undirected connections per node id.
func degrees(edges []diagram.Edge) map[string]int {
	deg := make(map[string]int)
	for _, e := range edges {
		deg[e.Source]++
		deg[e.Target]++
	}
	return deg
}

// orderNodes returns indices into nodes sorted by the given key. Ties always
// fall back to id so repeated calls yield identical orderings.
func orderNodes(nodes []diagram.Node, edges []diagram.Edge, key SortKey) []int {
	idx := make([]int, len(nodes))
	for i := range idx {
		idx[i] = i
	}
	deg := degrees(edges)

	sort.SliceStable(idx, func(a, b int) bool {
		na, nb := nodes[idx[a]], nodes[idx[b]]
		switch key {
		case SortByType:
			if na.Type != nb.Type {
				return na.Type < nb.Type
			}
		case SortByName:
			if na.Data.Name != nb.Data.Name {
				return na.Data.Name < nb.Data.Name
			}
		default: // connections, most-connected first
			if deg[na.ID] != deg[nb.ID] {
				return deg[na.ID] > deg[nb.ID]
			}
		}
		return na.ID < nb.ID
	})
	return idx
}

// components finds connected components over the undirected adjacency using a
// depth-first traversal. Components and their members come back sorted by id.
func components(nodes []diagram.Node, edges []diagram.Edge) [][]string {
	adjacent := make(map[string][]string)
	for _, e := range edges {
		adjacent[e.Source] = append(adjacent[e.Source], e.Target)
		adjacent[e.Target] = append(adjacent[e.Target], e.Source)
	}

	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	sort.Strings(ids)

	visited := make(map[string]bool, len(ids))
	var result [][]string

	var dfs func(id string, component *[]string)
	dfs = func(id string, component *[]string) {
		if visited[id] {
			return
		}
		visited[id] = true
		*component = append(*component, id)
		for _, neighbor := range adjacent[id] {
			dfs(neighbor, component)
		}
	}

	for _, id := range ids {
		if !visited[id] {
			component := make([]string, 0)
			dfs(id, &component)
			sort.Strings(component)
			result = append(result, component)
		}
	}
	return result
}

// levels assigns a topological level to every node in the set via fixed-point
// iteration: level(target) >= level(source)+1 for every edge. Nodes with no
// incoming edge start at level 0; with a cycle the iteration is bounded by the
// node count so it always terminates.
func levels(ids []string, edges []diagram.Edge) map[string]int {
	member := make(map[string]bool, len(ids))
	for _, id := range ids {
		member[id] = true
	}

	level := make(map[string]int, len(ids))
	for _, id := range ids {
		level[id] = 0
	}

	for pass := 0; pass < len(ids); pass++ {
		changed := false
		for _, e := range edges {
			if !member[e.Source] || !member[e.Target] {
				continue
			}
			if level[e.Target] < level[e.Source]+1 {
				level[e.Target] = level[e.Source] + 1
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return level
}

// levelCount returns the number of distinct levels in a level assignment.
func levelCount(level map[string]int) int {
	max := -1
	for _, l := range level {
		if l > max {
			max = l
		}
	}
	return max + 1
}

// shrinkSpacing narrows same-level spacing as the level grows, bounded below
// so wide levels stay readable without overflowing.
func shrinkSpacing(count int, base, min float64) float64 {
	if count <= 4 {
		return base
	}
	return math.Max(min, base*4/float64(count))
}
