package editor

import "archboard/diagram"

// Renderer is the rendering collaborator. The editor treats it as a black box
// that accepts the node/edge lists plus the current selection and draws them;
// it reports user gestures back through the Session's Handle* methods.
type Renderer interface {
	// Render draws the current graph. Called after every committed mutation.
	Render(nodes []diagram.Node, edges []diagram.Edge, selectedNodeID string)
}
