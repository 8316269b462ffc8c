// Package objectgraph holds the in-memory object graph: concepts, objects,
// instances and spacetime anchors, each with an adjacency list keyed by node
// id. Edges exist only as adjacency entries; Concept<->Instance and
// Object<->Instance edges are mirrored on both ends, every other relation is
// recorded on its source only.
package objectgraph

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"objectgraph/backend/pkg/logger"
)

// Store owns the four node collections of one graph-building session.
// All four collections share one lock because composite operations span
// several node types.
type Store struct {
	mu sync.RWMutex

	concept   ConceptGraph
	object    ObjectGraph
	instance  InstanceGraph
	spacetime SpacetimeGraph

	// position of each instance in instance.Nodes, for in-place edits
	instanceIndex map[string]int

	now    func() time.Time
	newID  func(NodeType) string
	logger *zap.Logger
}

// Option defines a functional configuration override.
type Option func(*Store)

// WithClock overrides the clock used for Object createdAt stamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides id generation for nodes created without an
// explicit id
func WithIDGenerator(gen func(NodeType) string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithLogger overrides the store logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates an empty store
func New(opts ...Option) *Store {
	s := &Store{
		concept:       ConceptGraph{Nodes: []ConceptNode{}, AdjacencyList: map[string]ConceptAdjacency{}},
		object:        ObjectGraph{Nodes: []ObjectNode{}, AdjacencyList: map[string]ObjectAdjacency{}},
		instance:      InstanceGraph{Nodes: []InstanceNode{}, AdjacencyList: map[string]InstanceAdjacency{}},
		spacetime:     SpacetimeGraph{Nodes: []SpacetimeNode{}, AdjacencyList: map[string]SpacetimeAdjacency{}},
		instanceIndex: map[string]int{},
		now:           time.Now,
		newID:         GenerateNodeID,
		logger:        logger.Named("objectgraph"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// has reports whether id has an adjacency entry in its node type.
// Callers must hold s.mu.
func (s *Store) has(t NodeType, id string) bool {
	var ok bool
	switch t {
	case ConceptType:
		_, ok = s.concept.AdjacencyList[id]
	case ObjectType:
		_, ok = s.object.AdjacencyList[id]
	case InstanceType:
		_, ok = s.instance.AdjacencyList[id]
	case SpacetimeType:
		_, ok = s.spacetime.AdjacencyList[id]
	}
	return ok
}

// Instance returns a copy of the instance node with the given id
func (s *Store) Instance(id string) (InstanceNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.instanceIndex[id]
	if !ok {
		return InstanceNode{}, false
	}
	return cloneInstance(s.instance.Nodes[idx]), true
}

// Has reports whether a node of type t with the given id exists
func (s *Store) Has(t NodeType, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.has(t, id)
}

// Counts returns node counts per type and edge entry counts per relation.
// Mirrored edges are counted once.
func (s *Store) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := Counts{
		Nodes: map[NodeType]int{
			ConceptType:   len(s.concept.Nodes),
			ObjectType:    len(s.object.Nodes),
			InstanceType:  len(s.instance.Nodes),
			SpacetimeType: len(s.spacetime.Nodes),
		},
		Edges: make(map[string]int, len(EdgeKinds)),
	}
	for _, kind := range EdgeKinds {
		c.Edges[kind] = 0
	}
	for _, adj := range s.concept.AdjacencyList {
		c.Edges[EdgeConceptInstance] += len(adj.Instance)
	}
	for _, adj := range s.object.AdjacencyList {
		c.Edges[EdgeObjectInstance] += len(adj.Instance)
	}
	for _, adj := range s.spacetime.AdjacencyList {
		c.Edges[EdgeSpacetimeToInstance] += len(adj.Instance)
	}
	for _, adj := range s.instance.AdjacencyList {
		c.Edges[EdgeInstanceToSpacetime] += len(adj.Spacetime)
		c.Edges[EdgeInstanceToInstance] += len(adj.Instance)
	}
	return c
}
