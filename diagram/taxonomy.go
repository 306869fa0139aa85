package diagram

import "strings"

// DefaultNodeType is used when an operation or UI action supplies no type.
const DefaultNodeType = "service"

// DefaultEdgeType is the render hint given to edges created without one.
const DefaultEdgeType = "smoothstep"

// displayNames maps taxonomy keys to default display names for new nodes.
var displayNames = map[string]string{
	"service":      "Service",
	"server":       "Server",
	"database":     "Database",
	"cache":        "Cache",
	"queue":        "Message Queue",
	"loadbalancer": "Load Balancer",
	"gateway":      "API Gateway",
	"client":       "Client",
	"storage":      "Object Storage",
	"cdn":          "CDN",
	"worker":       "Worker",
	"function":     "Function",
}

// KnownType reports whether the type key is part of the built-in taxonomy.
func KnownType(nodeType string) bool {
	_, ok := displayNames[nodeType]
	return ok
}

// DefaultName returns the default display name for a node type. Unknown types
// get a title-cased copy of the key so AI-invented types still read sensibly.
func DefaultName(nodeType string) string {
	if name, ok := displayNames[nodeType]; ok {
		return name
	}
	if nodeType == "" {
		return displayNames[DefaultNodeType]
	}
	return strings.ToUpper(nodeType[:1]) + nodeType[1:]
}
