package objectgraph

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateNodeID returns "<type>-<uuid v4>"
func GenerateNodeID(t NodeType) string {
	return string(t) + "-" + uuid.New().String()
}

// ParseNodeType returns the node type encoded in a generated id. Explicit
// ids mirrored from an external source usually carry no prefix.
func ParseNodeType(id string) (NodeType, bool) {
	prefix, _, ok := strings.Cut(id, "-")
	if !ok {
		return "", false
	}
	for _, t := range NodeTypes {
		if prefix == string(t) {
			return t, true
		}
	}
	return "", false
}
