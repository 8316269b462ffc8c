package objectgraph

import "time"

// Feed records are the plain values an external read layer hands to the
// store. They carry ids and attributes only; no driver types leak through.

// NodeRef identifies an object or instance in a feed row
type NodeRef struct {
	ID string `json:"id"`
}

// ConceptRef names the concept of a feed row. ID is empty for concepts
// stored without one; each such row yields a new concept.
type ConceptRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// SpacetimeRef identifies the photo of a feed row. ID is empty for
// spacetimes stored without one; each such row yields a new spacetime.
type SpacetimeRef struct {
	ID       string `json:"id,omitempty"`
	PhotoURI string `json:"photoUri"`
}

// ============================================================================
// Node feeds
// ============================================================================

// ObjectRecord is one stored Object. A zero CreatedAt means unknown.
type ObjectRecord struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// InstanceRecord is one stored Instance. Nil fields were not stored and
// keep the defaults of a new instance.
type InstanceRecord struct {
	ID            string              `json:"id"`
	Description   *string             `json:"description,omitempty"`
	Hashtags      map[string][]string `json:"hashtags,omitempty"`
	Prices        []Price             `json:"prices,omitempty"`
	IsRecommended *bool               `json:"isRecommended,omitempty"`
}

// Detail converts the stored attributes into an edit
func (r InstanceRecord) Detail() InstanceDetail {
	detail := InstanceDetail{
		Description: r.Description,
		Hashtags:    r.Hashtags,
		Prices:      r.Prices,
	}
	if r.IsRecommended != nil {
		detail.IsRecommended = Recommend(*r.IsRecommended)
	}
	return detail
}

// ConceptRecord is one stored Concept that has an id
type ConceptRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpacetimeRecord is one stored Spacetime that has an id
type SpacetimeRecord struct {
	ID       string `json:"id"`
	PhotoURI string `json:"photoUri"`
}

// ============================================================================
// Edge feeds
// ============================================================================

// ObjectInstanceRecord is one Object-INCLUDES->Instance row. The same
// object may appear in many rows.
type ObjectInstanceRecord struct {
	ObjectNode   NodeRef `json:"objectNode"`
	InstanceNode NodeRef `json:"instanceNode"`
}

// InstanceConceptRecord is one Instance-IS_NAMED->Concept row
type InstanceConceptRecord struct {
	InstanceNode NodeRef    `json:"instanceNode"`
	ConceptNode  ConceptRef `json:"conceptNode"`
}

// SpacetimeInstanceRecord is one Spacetime-IS_ATTACHED->Instance row
type SpacetimeInstanceRecord struct {
	SpacetimeNode           SpacetimeRef `json:"spacetimeNode"`
	InstanceNode            NodeRef      `json:"instanceNode"`
	SpacetimeToInstanceEdge *TagInfo     `json:"spacetimeToInstanceEdge,omitempty"`
}

// InstanceSpacetimeRecord is one Instance-APPEARS_IN->Spacetime row
type InstanceSpacetimeRecord struct {
	InstanceNode  NodeRef      `json:"instanceNode"`
	SpacetimeNode SpacetimeRef `json:"spacetimeNode"`
}

// InstanceChildRecord is one Instance-HAS_CHILD->Instance row
type InstanceChildRecord struct {
	ParentInstance NodeRef `json:"parentInstance"`
	ChildInstance  NodeRef `json:"childInstance"`
}
