package graph

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"objectgraph/backend/internal/objectgraph"
	apperrors "objectgraph/backend/pkg/errors"
)

// ============================================================================
// Helper Functions
// ============================================================================

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getMapFromRecord(record *neo4j.Record, key string) map[string]interface{} {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	if m, ok := val.(map[string]interface{}); ok {
		return m
	}
	return nil
}

// getOptionalStringFromRecord returns nil for a missing or null column
func getOptionalStringFromRecord(record *neo4j.Record, key string) *string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	if str, ok := val.(string); ok {
		return &str
	}
	return nil
}

func getOptionalBoolFromRecord(record *neo4j.Record, key string) *bool {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	if b, ok := val.(bool); ok {
		return &b
	}
	return nil
}

// getTimeFromRecord reads a DateTime or LocalDateTime column; anything else
// is the zero time
func getTimeFromRecord(record *neo4j.Record, key string) time.Time {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return time.Time{}
	}
	switch v := val.(type) {
	case time.Time:
		return v
	case neo4j.LocalDateTime:
		return v.Time()
	}
	return time.Time{}
}

// getJSONFromRecord decodes a property stored as a JSON string into out.
// A missing or null column leaves out untouched.
func getJSONFromRecord(record *neo4j.Record, key string, out interface{}) error {
	raw := getOptionalStringFromRecord(record, key)
	if raw == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(*raw), out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func getStringFromMap(m map[string]interface{}, key, defaultValue string) string {
	val, ok := m[key]
	if !ok || val == nil {
		return defaultValue
	}
	if str, ok := val.(string); ok {
		return str
	}
	return defaultValue
}

// getFloat64FromMap reports whether key held a number; Neo4j integers come
// back as int64
func getFloat64FromMap(m map[string]interface{}, key string) (float64, bool) {
	val, ok := m[key]
	if !ok || val == nil {
		return 0, false
	}
	switch v := val.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

// ParseTagName normalizes a stored tag name. The seed data spells area tags
// as "area tag".
func ParseTagName(name string) (objectgraph.TagName, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "tag":
		return objectgraph.TagPoint, nil
	case "areatag", "area tag", "area_tag":
		return objectgraph.TagArea, nil
	}
	return "", apperrors.NewInvalidTag(name)
}

// tagInfoFromProps decodes IS_ATTACHED properties. An edge without a name
// carries no relationship.
func tagInfoFromProps(props map[string]interface{}) (*objectgraph.TagInfo, error) {
	raw := getStringFromMap(props, propTagName, "")
	if raw == "" {
		return nil, nil
	}
	name, err := ParseTagName(raw)
	if err != nil {
		return nil, err
	}

	tag := &objectgraph.TagInfo{
		Name:           name,
		TagDotPosition: getStringFromMap(props, propTagDotPosition, ""),
		IconPosition:   getStringFromMap(props, propIconPosition, ""),
	}
	x, okX := getFloat64FromMap(props, propX)
	y, okY := getFloat64FromMap(props, propY)
	if okX && okY {
		tag.Coordinate = &objectgraph.Coordinate{X: x, Y: y}
	}
	return tag, nil
}

// tagInfoToProps is the inverse of tagInfoFromProps. Absent fields are left
// out rather than written as null.
func tagInfoToProps(tag *objectgraph.TagInfo) map[string]interface{} {
	props := map[string]interface{}{}
	if tag == nil {
		return props
	}
	props[propTagName] = string(tag.Name)
	if tag.TagDotPosition != "" {
		props[propTagDotPosition] = tag.TagDotPosition
	}
	if tag.IconPosition != "" {
		props[propIconPosition] = tag.IconPosition
	}
	if tag.Coordinate != nil {
		props[propX] = tag.Coordinate.X
		props[propY] = tag.Coordinate.Y
	}
	return props
}
