package editor

import (
	"context"
	"time"

	"archboard/animate"
	"archboard/diagram"
	"archboard/layout"
	"archboard/ops"
)

// Session owns one live project and routes every mutation through the history
// manager. The project is the single source of truth; no collaborator reaches
// into the node/edge slices directly.
type Session struct {
	project  *diagram.Project
	selected string
	history  *History
	renderer Renderer

	// restoring suppresses snapshotting while an undo/redo restore is in
	// progress so a restore can never pollute its own stacks.
	restoring bool

	// dragNode is the node of the in-flight drag gesture. The snapshot is
	// taken once at gesture start, not per intermediate position.
	dragNode string
}

// NewSession creates a session around a project. A nil project starts a fresh
// one.
func NewSession(project *diagram.Project) *Session {
	if project == nil {
		project = diagram.NewProject("")
	}
	return &Session{
		project: project,
		history: NewHistory(DefaultHistoryLimit),
	}
}

// SetHistoryLimit replaces the history with one of the given capacity.
// Existing entries are dropped.
func (s *Session) SetHistoryLimit(capacity int) {
	s.history = NewHistory(capacity)
}

// SetRenderer attaches the rendering collaborator and pushes the current
// state to it.
func (s *Session) SetRenderer(r Renderer) {
	s.renderer = r
	s.notify()
}

// Project returns the live project.
func (s *Session) Project() *diagram.Project { return s.project }

// SelectedNode returns the id of the selected node, or "".
func (s *Session) SelectedNode() string { return s.selected }

// History exposes the undo/redo stacks for status display.
func (s *Session) History() *History { return s.history }

// snapshot captures the live state for the history.
func (s *Session) snapshot() Snapshot {
	return CaptureSnapshot(s.project.Nodes, s.project.Edges, s.selected)
}

// record pushes the pre-mutation state. Taken strictly before the mutation it
// guards, so undo is always consistent with what the user is about to lose.
func (s *Session) record() {
	if s.restoring {
		return
	}
	s.history.Record(s.snapshot())
}

func (s *Session) restore(snap Snapshot) {
	s.restoring = true
	defer func() { s.restoring = false }()

	s.project.Nodes = snap.Nodes
	s.project.Edges = snap.Edges
	s.selected = snap.SelectedNodeID
	s.project.Touch()
	s.notify()
}

func (s *Session) notify() {
	if s.renderer != nil {
		s.renderer.Render(s.project.Nodes, s.project.Edges, s.selected)
	}
}

// AddNode creates a node of the given type at the given position.
func (s *Session) AddNode(nodeType string, position diagram.Point) diagram.Node {
	s.record()
	node := s.project.AddNode(nodeType, position)
	s.notify()
	return node
}

// UpdateNode shallow-merges the patch into a node's data. A missing node is a
// no-op but still a tracked mutation.
func (s *Session) UpdateNode(id string, patch diagram.NodeData) bool {
	s.record()
	ok := s.project.UpdateNode(id, patch)
	s.notify()
	return ok
}

// DeleteNode removes a node, cascades its edges, and clears the selection if
// it pointed at the deleted node.
func (s *Session) DeleteNode(id string) bool {
	s.record()
	ok := s.project.DeleteNode(id)
	if ok && s.selected == id {
		s.selected = ""
	}
	s.notify()
	return ok
}

// AddEdge connects two nodes. Duplicate undirected pairs and dangling
// endpoints are rejected without touching the history.
func (s *Session) AddEdge(source, target string) (diagram.Edge, bool) {
	if source == target || s.project.NodeByID(source) == nil ||
		s.project.NodeByID(target) == nil || s.project.HasEdgeBetween(source, target) {
		return diagram.Edge{}, false
	}
	s.record()
	edge, ok := s.project.AddEdge(source, target)
	s.notify()
	return edge, ok
}

// DeleteEdge removes an edge by id.
func (s *Session) DeleteEdge(id string) bool {
	if s.project.EdgeByID(id) == nil {
		return false
	}
	s.record()
	ok := s.project.DeleteEdge(id)
	s.notify()
	return ok
}

// SelectNode sets the selection. Selection changes are not history entries.
func (s *Session) SelectNode(id string) {
	s.selected = id
	s.notify()
}

// Undo restores the most recent history entry. No-op on an empty stack.
func (s *Session) Undo() bool {
	snap, ok := s.history.Undo(s.snapshot())
	if !ok {
		return false
	}
	s.restore(snap)
	return true
}

// Redo restores the most recently undone entry. No-op on an empty stack.
func (s *Session) Redo() bool {
	snap, ok := s.history.Redo(s.snapshot())
	if !ok {
		return false
	}
	s.restore(snap)
	return true
}

// ApplyOperations applies an externally supplied operation batch as a single
// history entry. Returns the number of operations that changed the graph; an
// empty batch leaves both graph and history untouched.
func (s *Session) ApplyOperations(batch []ops.Operation) int {
	if len(batch) == 0 {
		return 0
	}
	// Capture before mutating, record only if something actually changed so a
	// fully rejected batch leaves the history untouched.
	before := s.snapshot()
	applied := ops.Apply(s.project, batch)
	if applied == 0 {
		return 0
	}
	if !s.restoring {
		s.history.Record(before)
	}
	if s.selected != "" && s.project.NodeByID(s.selected) == nil {
		s.selected = ""
	}
	s.notify()
	return applied
}

// HandleNodeMoved consumes a position event from the renderer. While dragging
// is true the gesture is in progress: the pre-drag state is snapshotted once
// and intermediate positions stay with the renderer. The final event with
// dragging=false commits the position delta as a single history entry.
func (s *Session) HandleNodeMoved(id string, position diagram.Point, dragging bool) {
	if dragging {
		if s.dragNode != id {
			s.record()
			s.dragNode = id
		}
		return
	}
	if s.dragNode != id {
		// Discrete move without a gesture, e.g. keyboard nudge.
		s.record()
	}
	s.dragNode = ""
	s.project.MoveNode(id, position)
	s.notify()
}

// HandleNodeClicked consumes a click event from the renderer.
func (s *Session) HandleNodeClicked(id string) {
	s.SelectNode(id)
}

// HandleConnect consumes a connection event from the renderer.
func (s *Session) HandleConnect(source, target string) {
	s.AddEdge(source, target)
}

// HandleNodeDeleted consumes a node deletion event from the renderer.
func (s *Session) HandleNodeDeleted(id string) {
	s.DeleteNode(id)
}

// HandleEdgeDeleted consumes an edge deletion event from the renderer.
func (s *Session) HandleEdgeDeleted(id string) {
	s.DeleteEdge(id)
}

// OptimizeLayout recomputes positions with the given algorithm and commits
// them synchronously as one history entry.
func (s *Session) OptimizeLayout(algorithm layout.Algorithm, opts layout.Options) error {
	laid, err := layout.Compute(s.project.Nodes, s.project.Edges, algorithm, opts)
	if err != nil {
		return err
	}
	s.record()
	s.applyPositions(targetPositions(laid))
	s.notify()
	return nil
}

// AnimateLayout recomputes positions and tweens toward them frame by frame,
// invoking frame with the interpolated positions on every tick. Intermediate
// positions stay with the renderer; the settled positions are committed as a
// single history entry once the animation completes.
func (s *Session) AnimateLayout(ctx context.Context, algorithm layout.Algorithm, opts layout.Options,
	animator *animate.Animator, interval time.Duration, frame func(map[string]diagram.Point)) error {

	laid, err := layout.Compute(s.project.Nodes, s.project.Edges, algorithm, opts)
	if err != nil {
		return err
	}

	from := targetPositions(s.project.Nodes)
	to := targetPositions(laid)

	final, err := animate.Run(ctx, animator, from, to, interval, frame)
	if err != nil {
		// Cancelled mid-flight: the project never changed, so no history entry.
		return err
	}
	s.record()
	s.applyPositions(final)
	s.notify()
	return nil
}

// applyPositions writes a position map into the project. Part of an already
// snapshotted commit, so no history entry of its own.
func (s *Session) applyPositions(positions map[string]diagram.Point) {
	for i := range s.project.Nodes {
		if p, ok := positions[s.project.Nodes[i].ID]; ok && p.Finite() {
			s.project.Nodes[i].Position = p
		}
	}
	s.project.Touch()
}

func targetPositions(nodes []diagram.Node) map[string]diagram.Point {
	out := make(map[string]diagram.Point, len(nodes))
	for _, n := range nodes {
		out[n.ID] = n.Position
	}
	return out
}
