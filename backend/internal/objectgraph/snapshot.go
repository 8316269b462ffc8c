package objectgraph

// Snapshot returns a deep copy of the full state tree
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Concept: ConceptGraph{
			Nodes:         append([]ConceptNode{}, s.concept.Nodes...),
			AdjacencyList: make(map[string]ConceptAdjacency, len(s.concept.AdjacencyList)),
		},
		Object: ObjectGraph{
			Nodes:         append([]ObjectNode{}, s.object.Nodes...),
			AdjacencyList: make(map[string]ObjectAdjacency, len(s.object.AdjacencyList)),
		},
		Instance: InstanceGraph{
			Nodes:         make([]InstanceNode, 0, len(s.instance.Nodes)),
			AdjacencyList: make(map[string]InstanceAdjacency, len(s.instance.AdjacencyList)),
		},
		Spacetime: SpacetimeGraph{
			Nodes:         append([]SpacetimeNode{}, s.spacetime.Nodes...),
			AdjacencyList: make(map[string]SpacetimeAdjacency, len(s.spacetime.AdjacencyList)),
		},
	}

	for id, adj := range s.concept.AdjacencyList {
		snap.Concept.AdjacencyList[id] = ConceptAdjacency{Instance: cloneIDs(adj.Instance)}
	}
	for id, adj := range s.object.AdjacencyList {
		snap.Object.AdjacencyList[id] = ObjectAdjacency{
			Instance: cloneIDs(adj.Instance),
			Location: cloneIDs(adj.Location),
		}
	}
	for _, node := range s.instance.Nodes {
		snap.Instance.Nodes = append(snap.Instance.Nodes, cloneInstance(node))
	}
	for id, adj := range s.instance.AdjacencyList {
		snap.Instance.AdjacencyList[id] = InstanceAdjacency{
			Concept:   cloneIDs(adj.Concept),
			Spacetime: cloneIDs(adj.Spacetime),
			Object:    cloneIDs(adj.Object),
			Instance:  cloneIDs(adj.Instance),
		}
	}
	for id, adj := range s.spacetime.AdjacencyList {
		refs := make([]SpacetimeInstanceRef, 0, len(adj.Instance))
		for _, ref := range adj.Instance {
			refs = append(refs, SpacetimeInstanceRef{ID: ref.ID, Relationship: ref.Relationship.clone()})
		}
		snap.Spacetime.AdjacencyList[id] = SpacetimeAdjacency{Instance: refs}
	}

	return snap
}

func cloneIDs(ids []string) []string {
	return append([]string{}, ids...)
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

func cloneHashtags(h map[string][]string) map[string][]string {
	out := make(map[string][]string, len(h))
	for k, tags := range h {
		out[k] = append([]string{}, tags...)
	}
	return out
}

func cloneInstance(n InstanceNode) InstanceNode {
	c := n
	c.Hashtags = cloneHashtags(n.Hashtags)
	c.Prices = append([]Price{}, n.Prices...)
	c.IsRecommended = cloneBool(n.IsRecommended)
	return c
}
