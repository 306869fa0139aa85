// Package ops applies externally supplied diagram operations, typically
// produced by the chat assistant, to a project, repairing the malformed
// shapes the assistant is known to emit.
package ops

import (
	"archboard/diagram"
)

// Kind tags the operation variants of the batch contract.
type Kind string

const (
	AddNode    Kind = "add_node"
	UpdateNode Kind = "update_node"
	DeleteNode Kind = "delete_node"
	AddEdge    Kind = "add_edge"
	DeleteEdge Kind = "delete_edge"
)

// valid reports whether the kind is part of the contract.
func (k Kind) valid() bool {
	switch k {
	case AddNode, UpdateNode, DeleteNode, AddEdge, DeleteEdge:
		return true
	}
	return false
}

// Metadata is the legacy position sidecar some batches carry instead of
// payload.position.
type Metadata struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Operation is one entry of the assistant's batch. The payload is duck-typed:
// the same field can appear at the top level or nested under "data", so it is
// kept raw here and reconciled by normalization.
type Operation struct {
	Op       Kind           `json:"op"`
	Payload  map[string]any `json:"payload"`
	Metadata *Metadata      `json:"metadata,omitempty"`
}

// nodeSpec is the canonical internal form of an add_node/update_node payload
// after normalization.
type nodeSpec struct {
	id          string
	nodeType    string
	name        string
	description string
	attributes  map[string]any
	position    *diagram.Point // nil means "needs auto-placement"
}

// normalizeNode reconciles the payload shape variants into one canonical
// representation: type and name may live at the top level or under data,
// position may come from the payload or the metadata sidecar.
func (op Operation) normalizeNode() nodeSpec {
	payload := op.Payload
	data, _ := payload["data"].(map[string]any)

	spec := nodeSpec{
		id:          stringField(payload, "id"),
		nodeType:    firstString(payload, data, "type"),
		description: firstString(payload, data, "description"),
	}
	if spec.nodeType == "" {
		spec.nodeType = diagram.DefaultNodeType
	}

	spec.name = firstString(payload, data, "name")
	if spec.name == "" {
		spec.name = diagram.DefaultName(spec.nodeType)
	}

	if attrs, ok := data["attributes"].(map[string]any); ok {
		spec.attributes = attrs
	} else if attrs, ok := payload["attributes"].(map[string]any); ok {
		spec.attributes = attrs
	}

	if pos, ok := pointField(payload, "position"); ok {
		spec.position = &pos
	} else if op.Metadata != nil {
		pos := diagram.Point{X: op.Metadata.X, Y: op.Metadata.Y}
		if pos.Finite() {
			spec.position = &pos
		}
	}
	return spec
}

// normalizePatch extracts an update_node payload without applying the
// type-default fallbacks: empty patch fields must leave existing data alone.
func (op Operation) normalizePatch() (id string, patch diagram.NodeData, position *diagram.Point) {
	payload := op.Payload
	data, _ := payload["data"].(map[string]any)

	id = stringField(payload, "id")
	patch = diagram.NodeData{
		Name:        firstString(payload, data, "name"),
		Description: firstString(payload, data, "description"),
	}
	if attrs, ok := data["attributes"].(map[string]any); ok {
		patch.Attributes = attrs
	} else if attrs, ok := payload["attributes"].(map[string]any); ok {
		patch.Attributes = attrs
	}

	if pos, ok := pointField(payload, "position"); ok {
		position = &pos
	} else if op.Metadata != nil {
		pos := diagram.Point{X: op.Metadata.X, Y: op.Metadata.Y}
		if pos.Finite() {
			position = &pos
		}
	}
	return id, patch, position
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// firstString checks the top-level payload, then the nested data object.
func firstString(payload, data map[string]any, key string) string {
	if s := stringField(payload, key); s != "" {
		return s
	}
	return stringField(data, key)
}

func floatField(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// pointField extracts a finite {x,y} object. Non-finite or incomplete
// positions count as absent.
func pointField(m map[string]any, key string) (diagram.Point, bool) {
	if m == nil {
		return diagram.Point{}, false
	}
	obj, ok := m[key].(map[string]any)
	if !ok {
		return diagram.Point{}, false
	}
	x, okX := floatField(obj, "x")
	y, okY := floatField(obj, "y")
	p := diagram.Point{X: x, Y: y}
	if !okX || !okY || !p.Finite() {
		return diagram.Point{}, false
	}
	return p, true
}
