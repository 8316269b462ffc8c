package objectgraph

import (
	"time"

	"go.uber.org/zap"

	apperrors "objectgraph/backend/pkg/errors"
)

// ============================================================================
// Node Operations
// ============================================================================

// resolveID picks the explicit id if one was supplied, otherwise generates
// one. Explicit ids must be unique within their type.
// Callers must hold s.mu.
func (s *Store) resolveID(t NodeType, explicit []string) (string, error) {
	if len(explicit) > 0 && explicit[0] != "" {
		id := explicit[0]
		if s.has(t, id) {
			return "", apperrors.NewDuplicateNodeID(string(t), id)
		}
		return id, nil
	}
	id := s.newID(t)
	if s.has(t, id) {
		return "", apperrors.NewDuplicateNodeID(string(t), id)
	}
	return id, nil
}

// AddConceptNode appends a concept and its empty adjacency record
func (s *Store) AddConceptNode(name string, id ...string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodeID, err := s.resolveID(ConceptType, id)
	if err != nil {
		return "", err
	}
	s.insertConcept(nodeID, name)
	return nodeID, nil
}

func (s *Store) insertConcept(id, name string) {
	s.concept.Nodes = append(s.concept.Nodes, ConceptNode{ID: id, Name: name})
	s.concept.AdjacencyList[id] = ConceptAdjacency{Instance: []string{}}
}

// AddObjectNode appends an object stamped with the current time
func (s *Store) AddObjectNode(id ...string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodeID, err := s.resolveID(ObjectType, id)
	if err != nil {
		return "", err
	}
	s.insertObject(nodeID, s.now())
	return nodeID, nil
}

// AddObjectNodeAt appends an object with a known creation time, e.g. one
// read back from the graph database. A zero createdAt falls back to the
// clock.
func (s *Store) AddObjectNodeAt(createdAt time.Time, id ...string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodeID, err := s.resolveID(ObjectType, id)
	if err != nil {
		return "", err
	}
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	s.insertObject(nodeID, createdAt)
	return nodeID, nil
}

func (s *Store) insertObject(id string, createdAt time.Time) {
	s.object.Nodes = append(s.object.Nodes, ObjectNode{ID: id, CreatedAt: createdAt.UTC()})
	s.object.AdjacencyList[id] = ObjectAdjacency{Instance: []string{}, Location: []string{}}
}

// AddInstanceNode appends an instance with an empty description, no
// hashtags, a single zero HKD price and an unknown recommendation
func (s *Store) AddInstanceNode(id ...string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodeID, err := s.resolveID(InstanceType, id)
	if err != nil {
		return "", err
	}
	s.insertInstance(nodeID)
	return nodeID, nil
}

func (s *Store) insertInstance(id string) {
	s.instanceIndex[id] = len(s.instance.Nodes)
	s.instance.Nodes = append(s.instance.Nodes, InstanceNode{
		ID:          id,
		Description: "",
		Hashtags:    map[string][]string{},
		Prices: []Price{
			{Value: 0, Currency: DefaultCurrency, Description: ""},
		},
		IsRecommended: nil,
	})
	s.instance.AdjacencyList[id] = InstanceAdjacency{
		Concept:   []string{},
		Spacetime: []string{},
		Object:    []string{},
		Instance:  []string{},
	}
}

// EditInstanceNode merges detail into the instance with the given id.
// Fields left unset in detail keep their current value.
func (s *Store) EditInstanceNode(id string, detail InstanceDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.instanceIndex[id]
	if !ok {
		return apperrors.NewNodeNotFound("EditInstanceNode", string(InstanceType), id)
	}

	s.instance.Nodes[idx] = mergeInstance(s.instance.Nodes[idx], detail)
	s.logger.Debug("Instance edited", zap.String("instance_id", id))
	return nil
}

func mergeInstance(node InstanceNode, detail InstanceDetail) InstanceNode {
	merged := node
	if detail.Description != nil {
		merged.Description = *detail.Description
	}
	if detail.Hashtags != nil {
		merged.Hashtags = cloneHashtags(detail.Hashtags)
	}
	if detail.Prices != nil {
		merged.Prices = append([]Price{}, detail.Prices...)
	}
	if detail.IsRecommended.Set {
		merged.IsRecommended = cloneBool(detail.IsRecommended.Value)
	}
	return merged
}

// AddSpacetimeNode appends a spacetime anchor for a photo
func (s *Store) AddSpacetimeNode(photoURI string, id ...string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodeID, err := s.resolveID(SpacetimeType, id)
	if err != nil {
		return "", err
	}
	s.spacetime.Nodes = append(s.spacetime.Nodes, SpacetimeNode{ID: nodeID, PhotoURI: photoURI})
	s.spacetime.AdjacencyList[nodeID] = SpacetimeAdjacency{Instance: []SpacetimeInstanceRef{}}
	return nodeID, nil
}

// CreateNewObjectAndInstance creates an object, an instance and a concept
// named name, then wires Concept<->Instance and Object<->Instance. Either all
// three nodes and both edges are added or the store is left unchanged.
func (s *Store) CreateNewObjectAndInstance(name string) (CatalogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// ids are resolved up front so nothing is written if one collides
	objectID, err := s.resolveID(ObjectType, nil)
	if err != nil {
		return CatalogEntry{}, err
	}
	instanceID, err := s.resolveID(InstanceType, nil)
	if err != nil {
		return CatalogEntry{}, err
	}
	conceptID, err := s.resolveID(ConceptType, nil)
	if err != nil {
		return CatalogEntry{}, err
	}

	s.insertObject(objectID, s.now())
	s.insertInstance(instanceID)
	s.insertConcept(conceptID, name)
	s.linkConceptInstance(conceptID, instanceID)
	s.linkObjectInstance(objectID, instanceID)

	s.logger.Debug("Catalog entry created",
		zap.String("name", name),
		zap.String("object_id", objectID),
		zap.String("instance_id", instanceID),
		zap.String("concept_id", conceptID),
	)

	return CatalogEntry{InstanceID: instanceID, ObjectID: objectID, ConceptID: conceptID}, nil
}
