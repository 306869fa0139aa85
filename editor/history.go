package editor

import "archboard/diagram"

// DefaultHistoryLimit bounds both history stacks.
const DefaultHistoryLimit = 50

// Snapshot is an immutable deep copy of the editable graph state.
type Snapshot struct {
	Nodes          []diagram.Node
	Edges          []diagram.Edge
	SelectedNodeID string
}

// CaptureSnapshot deep-copies the given state into a snapshot. Later mutation
// of the live graph cannot reach into the copy.
func CaptureSnapshot(nodes []diagram.Node, edges []diagram.Edge, selected string) Snapshot {
	return Snapshot{
		Nodes:          diagram.CloneNodes(nodes),
		Edges:          diagram.CloneEdges(edges),
		SelectedNodeID: selected,
	}
}

// History manages undo/redo over two bounded stacks. A forward mutation is
// recorded with Record, which also invalidates the redo stack; Undo and Redo
// exchange the live state with the stack tops. Both are defined no-ops on an
// empty stack.
type History struct {
	undo     []Snapshot
	redo     []Snapshot
	capacity int
}

// NewHistory creates a history with the given stack capacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryLimit
	}
	return &History{
		undo:     make([]Snapshot, 0, capacity),
		redo:     make([]Snapshot, 0, capacity),
		capacity: capacity,
	}
}

// Record pushes a snapshot of the state about to be lost onto the undo stack
// and clears the redo stack: once a new mutation lands, the abandoned forward
// timeline can never be replayed.
func (h *History) Record(s Snapshot) {
	h.undo = push(h.undo, s, h.capacity)
	h.redo = h.redo[:0]
}

// Undo exchanges the current state for the most recent undo entry. The second
// return is false when there is nothing to undo.
func (h *History) Undo(current Snapshot) (Snapshot, bool) {
	if len(h.undo) == 0 {
		return Snapshot{}, false
	}
	top := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = push(h.redo, current, h.capacity)
	return top, true
}

// Redo exchanges the current state for the most recent redo entry. The second
// return is false when there is nothing to redo.
func (h *History) Redo(current Snapshot) (Snapshot, bool) {
	if len(h.redo) == 0 {
		return Snapshot{}, false
	}
	top := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = push(h.undo, current, h.capacity)
	return top, true
}

// CanUndo reports whether the undo stack is non-empty.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether the redo stack is non-empty.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Depth returns the undo and redo stack sizes, for status display.
func (h *History) Depth() (undo, redo int) {
	return len(h.undo), len(h.redo)
}

// Clear drops both stacks.
func (h *History) Clear() {
	h.undo = h.undo[:0]
	h.redo = h.redo[:0]
}

// push appends bounded by capacity, evicting the oldest entry first.
func push(stack []Snapshot, s Snapshot, capacity int) []Snapshot {
	if len(stack) >= capacity {
		copy(stack, stack[1:])
		stack = stack[:len(stack)-1]
	}
	return append(stack, s)
}
