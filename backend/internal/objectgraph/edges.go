package objectgraph

import (
	apperrors "objectgraph/backend/pkg/errors"
)

// ============================================================================
// Edge Operations
// ============================================================================
//
// Every edge operation checks all referenced ids before writing, so a failed
// call leaves the store untouched. Edges are appended as-is; repeated calls
// add repeated entries.

type endpoint struct {
	t  NodeType
	id string
}

// require returns a lookup error for the first endpoint that does not exist.
// Callers must hold s.mu.
func (s *Store) require(op string, ends ...endpoint) error {
	for _, e := range ends {
		if !s.has(e.t, e.id) {
			return apperrors.NewNodeNotFound(op, string(e.t), e.id)
		}
	}
	return nil
}

// AddConceptAndInstanceEdge links a concept and an instance in both
// directions
func (s *Store) AddConceptAndInstanceEdge(edge ConceptInstanceEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require("AddConceptAndInstanceEdge",
		endpoint{ConceptType, edge.ConceptID},
		endpoint{InstanceType, edge.InstanceID},
	); err != nil {
		return err
	}
	s.linkConceptInstance(edge.ConceptID, edge.InstanceID)
	return nil
}

func (s *Store) linkConceptInstance(conceptID, instanceID string) {
	c := s.concept.AdjacencyList[conceptID]
	c.Instance = append(c.Instance, instanceID)
	s.concept.AdjacencyList[conceptID] = c

	i := s.instance.AdjacencyList[instanceID]
	i.Concept = append(i.Concept, conceptID)
	s.instance.AdjacencyList[instanceID] = i
}

// AddObjectAndInstanceEdge links an object and an instance in both
// directions
func (s *Store) AddObjectAndInstanceEdge(edge ObjectInstanceEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require("AddObjectAndInstanceEdge",
		endpoint{ObjectType, edge.ObjectID},
		endpoint{InstanceType, edge.InstanceID},
	); err != nil {
		return err
	}
	s.linkObjectInstance(edge.ObjectID, edge.InstanceID)
	return nil
}

func (s *Store) linkObjectInstance(objectID, instanceID string) {
	o := s.object.AdjacencyList[objectID]
	o.Instance = append(o.Instance, instanceID)
	s.object.AdjacencyList[objectID] = o

	i := s.instance.AdjacencyList[instanceID]
	i.Object = append(i.Object, objectID)
	s.instance.AdjacencyList[instanceID] = i
}

// AddSpacetimeToInstanceEdge records the instance on the spacetime side only.
// The instance's spacetime list is not touched; callers that want both
// directions also call AddInstanceToSpacetimeEdge. A nil relationship is
// stored as an absent one.
func (s *Store) AddSpacetimeToInstanceEdge(spacetimeID, instanceID string, relationship *TagInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require("AddSpacetimeToInstanceEdge",
		endpoint{SpacetimeType, spacetimeID},
		endpoint{InstanceType, instanceID},
	); err != nil {
		return err
	}

	st := s.spacetime.AdjacencyList[spacetimeID]
	st.Instance = append(st.Instance, SpacetimeInstanceRef{
		ID:           instanceID,
		Relationship: relationship.clone(),
	})
	s.spacetime.AdjacencyList[spacetimeID] = st
	return nil
}

// AddInstanceToSpacetimeEdge records the spacetime on the instance side only
func (s *Store) AddInstanceToSpacetimeEdge(instanceID, spacetimeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require("AddInstanceToSpacetimeEdge",
		endpoint{InstanceType, instanceID},
		endpoint{SpacetimeType, spacetimeID},
	); err != nil {
		return err
	}

	i := s.instance.AdjacencyList[instanceID]
	i.Spacetime = append(i.Spacetime, spacetimeID)
	s.instance.AdjacencyList[instanceID] = i
	return nil
}

// AddInstanceToInstanceEdge records child under parent. The edge is directed.
func (s *Store) AddInstanceToInstanceEdge(parentID, childID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require("AddInstanceToInstanceEdge",
		endpoint{InstanceType, parentID},
		endpoint{InstanceType, childID},
	); err != nil {
		return err
	}

	p := s.instance.AdjacencyList[parentID]
	p.Instance = append(p.Instance, childID)
	s.instance.AdjacencyList[parentID] = p
	return nil
}
