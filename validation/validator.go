// Package validation checks diagram projects for structural problems before
// they are persisted or handed to the layout engine.
package validation

import (
	"fmt"

	"archboard/diagram"
)

// ValidationError describes a single structural problem, located by the
// offending node or edge ID.
type ValidationError struct {
	Kind    string // "node" or "edge"
	ID      string
	Message string
}

func (e ValidationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s %q: %s", e.Kind, e.ID, e.Message)
}

// Validator checks structural invariants of a project.
type Validator struct {
	errors []ValidationError

	// strictMode additionally flags node types outside the built-in taxonomy.
	strictMode bool
}

// NewValidator creates a validator with default settings.
func NewValidator() *Validator {
	return &Validator{}
}

// SetStrictMode enables or disables strict validation.
func (v *Validator) SetStrictMode(strict bool) {
	v.strictMode = strict
}

// Validate checks a project and returns every problem found. A valid project
// returns a nil slice.
func (v *Validator) Validate(p *diagram.Project) []ValidationError {
	v.errors = nil

	nodeIDs := make(map[string]bool, len(p.Nodes))
	for _, n := range p.Nodes {
		if n.ID == "" {
			v.addError("node", "", "missing ID")
			continue
		}
		if nodeIDs[n.ID] {
			v.addError("node", n.ID, "duplicate ID")
		}
		nodeIDs[n.ID] = true

		if !n.Position.Finite() {
			v.addError("node", n.ID, "position is not finite")
		}
		if n.Type == "" {
			v.addError("node", n.ID, "missing type")
		} else if v.strictMode && !diagram.KnownType(n.Type) {
			v.addError("node", n.ID, fmt.Sprintf("unknown type %q", n.Type))
		}
	}

	edgeIDs := make(map[string]bool, len(p.Edges))
	pairs := make(map[[2]string]bool, len(p.Edges))
	for _, e := range p.Edges {
		if e.ID == "" {
			v.addError("edge", "", "missing ID")
		} else {
			if edgeIDs[e.ID] {
				v.addError("edge", e.ID, "duplicate ID")
			}
			edgeIDs[e.ID] = true
		}

		if e.Source == e.Target {
			v.addError("edge", e.ID, "connects a node to itself")
			continue
		}
		if !nodeIDs[e.Source] {
			v.addError("edge", e.ID, fmt.Sprintf("source %q does not exist", e.Source))
		}
		if !nodeIDs[e.Target] {
			v.addError("edge", e.ID, fmt.Sprintf("target %q does not exist", e.Target))
		}

		// Edges are deduplicated without regard to direction.
		pair := [2]string{e.Source, e.Target}
		if pair[0] > pair[1] {
			pair[0], pair[1] = pair[1], pair[0]
		}
		if pairs[pair] {
			v.addError("edge", e.ID, fmt.Sprintf("duplicates connection %s ~ %s", e.Source, e.Target))
		}
		pairs[pair] = true
	}

	return v.errors
}

func (v *Validator) addError(kind, id, message string) {
	v.errors = append(v.errors, ValidationError{Kind: kind, ID: id, Message: message})
}
