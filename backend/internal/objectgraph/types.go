package objectgraph

import (
	"encoding/json"
	"time"
)

// NodeType partitions the graph. Each type has its own attribute schema and
// adjacency schema.
type NodeType string

const (
	ConceptType   NodeType = "concept"
	ObjectType    NodeType = "object"
	InstanceType  NodeType = "instance"
	SpacetimeType NodeType = "spacetime"
)

// NodeTypes lists every node type in snapshot order
var NodeTypes = []NodeType{ConceptType, ObjectType, InstanceType, SpacetimeType}

// DefaultCurrency is the currency of the placeholder price every new
// instance starts with
const DefaultCurrency = "HKD"

// ============================================================================
// Nodes
// ============================================================================

// ConceptNode is an abstract name an instance can be known by
type ConceptNode struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// ObjectNode is a physical thing that has one or more instances
type ObjectNode struct {
	ID        string    `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// Price is one price point of an instance
type Price struct {
	Value       float64 `json:"value" yaml:"value"`
	Currency    string  `json:"currency" yaml:"currency" validate:"required,len=3"`
	Description string  `json:"description" yaml:"description"`
}

// InstanceNode is a concrete occurrence of an object.
// IsRecommended is tri-state: nil means unknown.
type InstanceNode struct {
	ID            string              `json:"id" yaml:"id"`
	Description   string              `json:"description" yaml:"description"`
	Hashtags      map[string][]string `json:"hashtags" yaml:"hashtags"`
	Prices        []Price             `json:"prices" yaml:"prices"`
	IsRecommended *bool               `json:"isRecommended" yaml:"isRecommended"`
}

// SpacetimeNode anchors instances to a place and time, e.g. a tagged photo
type SpacetimeNode struct {
	ID       string `json:"id" yaml:"id"`
	PhotoURI string `json:"photoUri" yaml:"photoUri"`
}

// ============================================================================
// Partial instance update
// ============================================================================

// InstanceDetail is a partial update of an InstanceNode. A nil Description,
// Hashtags or Prices keeps the current value; an empty but non-nil map or
// slice replaces it with an empty one.
type InstanceDetail struct {
	Description   *string             `json:"description,omitempty"`
	Hashtags      map[string][]string `json:"hashtags,omitempty"`
	Prices        []Price             `json:"prices,omitempty" validate:"omitempty,dive"`
	IsRecommended OptionalBool        `json:"isRecommended,omitzero"`
}

// OptionalBool overrides a tri-state bool. Set distinguishes "leave as is"
// from "set to unknown" (Set with a nil Value).
type OptionalBool struct {
	Set   bool
	Value *bool
}

// Recommend returns an override to a known value
func Recommend(v bool) OptionalBool {
	return OptionalBool{Set: true, Value: &v}
}

// Unrecommend returns an override back to unknown
func Unrecommend() OptionalBool {
	return OptionalBool{Set: true}
}

// IsZero reports whether no override is present
func (o OptionalBool) IsZero() bool {
	return !o.Set
}

// MarshalJSON encodes the override value; unknown is null
func (o OptionalBool) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value)
}

// UnmarshalJSON marks the override present, including for an explicit null
func (o *OptionalBool) UnmarshalJSON(data []byte) error {
	var v *bool
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Set = true
	o.Value = v
	return nil
}

// ============================================================================
// Spacetime relationships
// ============================================================================

// TagName distinguishes a point tag from an area tag
type TagName string

const (
	TagPoint TagName = "tag"
	TagArea  TagName = "areaTag"
)

// Coordinate is a pixel position on a photo
type Coordinate struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// TagInfo describes how a photo region is annotated with an instance
type TagInfo struct {
	Name           TagName     `json:"name" yaml:"name" validate:"required,oneof=tag areaTag"`
	Coordinate     *Coordinate `json:"coordinate,omitempty" yaml:"coordinate,omitempty"`
	TagDotPosition string      `json:"tagDotPosition,omitempty" yaml:"tagDotPosition,omitempty"`
	IconPosition   string      `json:"iconPosition,omitempty" yaml:"iconPosition,omitempty"`
}

func (t *TagInfo) clone() *TagInfo {
	if t == nil {
		return nil
	}
	c := *t
	if t.Coordinate != nil {
		coord := *t.Coordinate
		c.Coordinate = &coord
	}
	return &c
}

// SpacetimeInstanceRef is one entry of a spacetime's instance adjacency.
// Relationship is omitted entirely when the edge carries no tag.
type SpacetimeInstanceRef struct {
	ID           string   `json:"id" yaml:"id"`
	Relationship *TagInfo `json:"relationship,omitempty" yaml:"relationship,omitempty"`
}

// ============================================================================
// Adjacency records
// ============================================================================

// ConceptAdjacency lists the instances named by a concept
type ConceptAdjacency struct {
	Instance []string `json:"instance" yaml:"instance"`
}

// ObjectAdjacency lists the instances of an object
type ObjectAdjacency struct {
	Instance []string `json:"instance" yaml:"instance"`
	Location []string `json:"location" yaml:"location"` // reserved
}

// InstanceAdjacency lists everything an instance points at
type InstanceAdjacency struct {
	Concept   []string `json:"concept" yaml:"concept"`
	Spacetime []string `json:"spacetime" yaml:"spacetime"`
	Object    []string `json:"object" yaml:"object"`
	Instance  []string `json:"instance" yaml:"instance"` // children
}

// SpacetimeAdjacency lists the instances tagged on a spacetime
type SpacetimeAdjacency struct {
	Instance []SpacetimeInstanceRef `json:"instance" yaml:"instance"`
}

// ============================================================================
// Per-type collections
// ============================================================================

// ConceptGraph holds every concept and its adjacency record
type ConceptGraph struct {
	Nodes         []ConceptNode               `json:"nodes" yaml:"nodes"`
	AdjacencyList map[string]ConceptAdjacency `json:"adjacencyList" yaml:"adjacencyList"`
}

// ObjectGraph holds every object and its adjacency record
type ObjectGraph struct {
	Nodes         []ObjectNode               `json:"nodes" yaml:"nodes"`
	AdjacencyList map[string]ObjectAdjacency `json:"adjacencyList" yaml:"adjacencyList"`
}

// InstanceGraph holds every instance and its adjacency record
type InstanceGraph struct {
	Nodes         []InstanceNode               `json:"nodes" yaml:"nodes"`
	AdjacencyList map[string]InstanceAdjacency `json:"adjacencyList" yaml:"adjacencyList"`
}

// SpacetimeGraph holds every spacetime and its adjacency record
type SpacetimeGraph struct {
	Nodes         []SpacetimeNode               `json:"nodes" yaml:"nodes"`
	AdjacencyList map[string]SpacetimeAdjacency `json:"adjacencyList" yaml:"adjacencyList"`
}

// Snapshot is the full state tree of a store. Snapshots returned by
// Store.Snapshot share no memory with the store.
type Snapshot struct {
	Concept   ConceptGraph   `json:"concept" yaml:"concept"`
	Object    ObjectGraph    `json:"object" yaml:"object"`
	Instance  InstanceGraph  `json:"instance" yaml:"instance"`
	Spacetime SpacetimeGraph `json:"spacetime" yaml:"spacetime"`
}

// ConceptInstanceEdge names both ends of a Concept<->Instance edge
type ConceptInstanceEdge struct {
	ConceptID  string `json:"conceptId" validate:"required"`
	InstanceID string `json:"instanceId" validate:"required"`
}

// ObjectInstanceEdge names both ends of an Object<->Instance edge
type ObjectInstanceEdge struct {
	ObjectID   string `json:"objectId" validate:"required"`
	InstanceID string `json:"instanceId" validate:"required"`
}

// CatalogEntry is the id triple produced by CreateNewObjectAndInstance
type CatalogEntry struct {
	InstanceID string `json:"instanceId"`
	ObjectID   string `json:"objectId"`
	ConceptID  string `json:"conceptId"`
}

// Edge kinds reported by Counts. Mirrored relations count once.
const (
	EdgeConceptInstance     = "concept_instance"
	EdgeObjectInstance      = "object_instance"
	EdgeSpacetimeToInstance = "spacetime_to_instance"
	EdgeInstanceToSpacetime = "instance_to_spacetime"
	EdgeInstanceToInstance  = "instance_to_instance"
)

// EdgeKinds lists every edge kind reported by Counts
var EdgeKinds = []string{
	EdgeConceptInstance,
	EdgeObjectInstance,
	EdgeSpacetimeToInstance,
	EdgeInstanceToSpacetime,
	EdgeInstanceToInstance,
}

// Counts summarizes the size of a store
type Counts struct {
	Nodes map[NodeType]int `json:"nodes"`
	Edges map[string]int   `json:"edges"`
}
