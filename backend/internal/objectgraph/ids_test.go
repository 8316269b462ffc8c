package objectgraph

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateNodeID_Format(t *testing.T) {
	for _, nt := range NodeTypes {
		id := GenerateNodeID(nt)
		require.True(t, strings.HasPrefix(id, string(nt)+"-"), id)

		_, err := uuid.Parse(strings.TrimPrefix(id, string(nt)+"-"))
		assert.NoError(t, err)
	}
}

func TestGenerateNodeID_Distinct(t *testing.T) {
	const n = 10000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		seen[GenerateNodeID(InstanceType)] = struct{}{}
	}
	assert.Len(t, seen, n)
}

func TestParseNodeType(t *testing.T) {
	tests := []struct {
		id     string
		want   NodeType
		wantOK bool
	}{
		{"concept-1b4e28ba-2fa1-11d2-883f-0016d3cca427", ConceptType, true},
		{"spacetime-abc", SpacetimeType, true},
		{"chocolate_ice_cream_0", "", false},
		{"location-abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseNodeType(tt.id)
		assert.Equal(t, tt.wantOK, ok, tt.id)
		assert.Equal(t, tt.want, got, tt.id)
	}
}
