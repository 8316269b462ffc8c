package graph

// ============================================================================
// Graph Schema
// ============================================================================

// Node labels
const (
	LabelObject    = "Object"
	LabelInstance  = "Instance"
	LabelConcept   = "Concept"
	LabelSpacetime = "Spacetime"
)

// Relationship types
const (
	// RelObjectToInstance links an object to each of its instances
	RelObjectToInstance = "INCLUDES"
	// RelInstanceToConcept links an instance to the concept it is named by
	RelInstanceToConcept = "IS_NAMED"
	// RelSpacetimeToInstance attaches an instance to a photo, with tag properties
	RelSpacetimeToInstance = "IS_ATTACHED"
	// RelInstanceToSpacetime records that an instance appears in a photo
	RelInstanceToSpacetime = "APPEARS_IN"
	// RelInstanceToInstance links a parent instance to a child instance
	RelInstanceToInstance = "HAS_CHILD"
)

// Edge property keys on IS_ATTACHED
const (
	propTagName        = "name"
	propTagDotPosition = "tagDotPosition"
	propIconPosition   = "iconPosition"
	propX              = "x"
	propY              = "y"
)
