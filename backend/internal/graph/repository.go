package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"objectgraph/backend/internal/objectgraph"
	apperrors "objectgraph/backend/pkg/errors"
	"objectgraph/backend/pkg/logger"
)

// Repository handles all Neo4j database operations
type Repository struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

// NewRepository creates a new graph repository. An empty database name
// selects the server default.
func NewRepository(driver neo4j.DriverWithContext, database string) *Repository {
	return &Repository{
		driver:   driver,
		database: database,
		logger:   logger.Named("graph"),
	}
}

// Connect creates a driver and verifies connectivity
func Connect(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, apperrors.NewGraphConnectionFailed(uri, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, apperrors.NewGraphConnectionFailed(uri, err)
	}
	return driver, nil
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

func (r *Repository) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: r.database})
}

// readRows runs a read query and decodes every record
func readRows[T any](ctx context.Context, r *Repository, query string, decode func(*neo4j.Record) (T, error)) ([]T, error) {
	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed(query, err)
	}

	rows := []T{}
	for result.Next(ctx) {
		row, err := decode(result.Record())
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewGraphQueryFailed(query, err)
	}
	return rows, nil
}

// ============================================================================
// Feed Reads
// ============================================================================

var (
	objectQuery = fmt.Sprintf(`
		MATCH (o:%s)
		RETURN o.id AS object_id, o.createdAt AS created_at
	`, LabelObject)

	instanceQuery = fmt.Sprintf(`
		MATCH (i:%s)
		RETURN i.id AS instance_id, i.description AS description, i.hashtags AS hashtags,
		       i.prices AS prices, i.isRecommended AS is_recommended
	`, LabelInstance)

	conceptQuery = fmt.Sprintf(`
		MATCH (c:%s)
		WHERE c.id IS NOT NULL
		RETURN c.id AS concept_id, c.name AS concept_name
	`, LabelConcept)

	spacetimeQuery = fmt.Sprintf(`
		MATCH (s:%s)
		WHERE s.id IS NOT NULL
		RETURN s.id AS spacetime_id, s.photoUri AS photo_uri
	`, LabelSpacetime)

	objectInstanceQuery = fmt.Sprintf(`
		MATCH (o:%s)-[:%s]->(i:%s)
		RETURN o.id AS object_id, i.id AS instance_id
	`, LabelObject, RelObjectToInstance, LabelInstance)

	instanceConceptQuery = fmt.Sprintf(`
		MATCH (i:%s)-[:%s]->(c:%s)
		RETURN i.id AS instance_id, c.id AS concept_id, c.name AS concept_name
	`, LabelInstance, RelInstanceToConcept, LabelConcept)

	spacetimeInstanceQuery = fmt.Sprintf(`
		MATCH (s:%s)-[r:%s]->(i:%s)
		RETURN s.id AS spacetime_id, s.photoUri AS photo_uri, i.id AS instance_id, properties(r) AS tag
	`, LabelSpacetime, RelSpacetimeToInstance, LabelInstance)

	instanceSpacetimeQuery = fmt.Sprintf(`
		MATCH (i:%s)-[:%s]->(s:%s)
		WHERE s.id IS NOT NULL
		RETURN i.id AS instance_id, s.id AS spacetime_id, s.photoUri AS photo_uri
	`, LabelInstance, RelInstanceToSpacetime, LabelSpacetime)

	instanceChildQuery = fmt.Sprintf(`
		MATCH (p:%s)-[:%s]->(c:%s)
		RETURN p.id AS parent_id, c.id AS child_id
	`, LabelInstance, RelInstanceToInstance, LabelInstance)
)

// ReadObjects returns every stored Object
func (r *Repository) ReadObjects(ctx context.Context) ([]objectgraph.ObjectRecord, error) {
	rows, err := readRows(ctx, r, objectQuery, decodeObject)
	if err != nil {
		return nil, fmt.Errorf("failed to read objects: %w", err)
	}
	return rows, nil
}

func decodeObject(record *neo4j.Record) (objectgraph.ObjectRecord, error) {
	return objectgraph.ObjectRecord{
		ID:        getStringFromRecord(record, "object_id"),
		CreatedAt: getTimeFromRecord(record, "created_at"),
	}, nil
}

// ReadInstances returns every stored Instance with its attributes
func (r *Repository) ReadInstances(ctx context.Context) ([]objectgraph.InstanceRecord, error) {
	rows, err := readRows(ctx, r, instanceQuery, decodeInstance)
	if err != nil {
		return nil, fmt.Errorf("failed to read instances: %w", err)
	}
	return rows, nil
}

func decodeInstance(record *neo4j.Record) (objectgraph.InstanceRecord, error) {
	rec := objectgraph.InstanceRecord{
		ID:            getStringFromRecord(record, "instance_id"),
		Description:   getOptionalStringFromRecord(record, "description"),
		IsRecommended: getOptionalBoolFromRecord(record, "is_recommended"),
	}
	if err := getJSONFromRecord(record, "hashtags", &rec.Hashtags); err != nil {
		return rec, fmt.Errorf("instance %s: %w", rec.ID, err)
	}
	if err := getJSONFromRecord(record, "prices", &rec.Prices); err != nil {
		return rec, fmt.Errorf("instance %s: %w", rec.ID, err)
	}
	return rec, nil
}

// ReadConcepts returns every stored Concept that has an id
func (r *Repository) ReadConcepts(ctx context.Context) ([]objectgraph.ConceptRecord, error) {
	rows, err := readRows(ctx, r, conceptQuery, decodeConcept)
	if err != nil {
		return nil, fmt.Errorf("failed to read concepts: %w", err)
	}
	return rows, nil
}

func decodeConcept(record *neo4j.Record) (objectgraph.ConceptRecord, error) {
	return objectgraph.ConceptRecord{
		ID:   getStringFromRecord(record, "concept_id"),
		Name: getStringFromRecord(record, "concept_name"),
	}, nil
}

// ReadSpacetimes returns every stored Spacetime that has an id
func (r *Repository) ReadSpacetimes(ctx context.Context) ([]objectgraph.SpacetimeRecord, error) {
	rows, err := readRows(ctx, r, spacetimeQuery, decodeSpacetime)
	if err != nil {
		return nil, fmt.Errorf("failed to read spacetimes: %w", err)
	}
	return rows, nil
}

func decodeSpacetime(record *neo4j.Record) (objectgraph.SpacetimeRecord, error) {
	return objectgraph.SpacetimeRecord{
		ID:       getStringFromRecord(record, "spacetime_id"),
		PhotoURI: getStringFromRecord(record, "photo_uri"),
	}, nil
}

// ReadObjectInstances returns every Object-INCLUDES->Instance pair
func (r *Repository) ReadObjectInstances(ctx context.Context) ([]objectgraph.ObjectInstanceRecord, error) {
	rows, err := readRows(ctx, r, objectInstanceQuery, decodeObjectInstance)
	if err != nil {
		return nil, fmt.Errorf("failed to read object instances: %w", err)
	}
	return rows, nil
}

func decodeObjectInstance(record *neo4j.Record) (objectgraph.ObjectInstanceRecord, error) {
	return objectgraph.ObjectInstanceRecord{
		ObjectNode:   objectgraph.NodeRef{ID: getStringFromRecord(record, "object_id")},
		InstanceNode: objectgraph.NodeRef{ID: getStringFromRecord(record, "instance_id")},
	}, nil
}

// ReadInstanceConcepts returns every Instance-IS_NAMED->Concept pair
func (r *Repository) ReadInstanceConcepts(ctx context.Context) ([]objectgraph.InstanceConceptRecord, error) {
	rows, err := readRows(ctx, r, instanceConceptQuery, decodeInstanceConcept)
	if err != nil {
		return nil, fmt.Errorf("failed to read instance concepts: %w", err)
	}
	return rows, nil
}

func decodeInstanceConcept(record *neo4j.Record) (objectgraph.InstanceConceptRecord, error) {
	return objectgraph.InstanceConceptRecord{
		InstanceNode: objectgraph.NodeRef{ID: getStringFromRecord(record, "instance_id")},
		ConceptNode: objectgraph.ConceptRef{
			ID:   getStringFromRecord(record, "concept_id"),
			Name: getStringFromRecord(record, "concept_name"),
		},
	}, nil
}

// ReadSpacetimeInstances returns every Spacetime-IS_ATTACHED->Instance row
// with its tag
func (r *Repository) ReadSpacetimeInstances(ctx context.Context) ([]objectgraph.SpacetimeInstanceRecord, error) {
	rows, err := readRows(ctx, r, spacetimeInstanceQuery, decodeSpacetimeInstance)
	if err != nil {
		return nil, fmt.Errorf("failed to read spacetime instances: %w", err)
	}
	return rows, nil
}

func decodeSpacetimeInstance(record *neo4j.Record) (objectgraph.SpacetimeInstanceRecord, error) {
	tag, err := tagInfoFromProps(getMapFromRecord(record, "tag"))
	if err != nil {
		return objectgraph.SpacetimeInstanceRecord{}, err
	}
	return objectgraph.SpacetimeInstanceRecord{
		SpacetimeNode: objectgraph.SpacetimeRef{
			ID:       getStringFromRecord(record, "spacetime_id"),
			PhotoURI: getStringFromRecord(record, "photo_uri"),
		},
		InstanceNode:            objectgraph.NodeRef{ID: getStringFromRecord(record, "instance_id")},
		SpacetimeToInstanceEdge: tag,
	}, nil
}

// ReadInstanceSpacetimes returns every Instance-APPEARS_IN->Spacetime pair
func (r *Repository) ReadInstanceSpacetimes(ctx context.Context) ([]objectgraph.InstanceSpacetimeRecord, error) {
	rows, err := readRows(ctx, r, instanceSpacetimeQuery, decodeInstanceSpacetime)
	if err != nil {
		return nil, fmt.Errorf("failed to read instance spacetimes: %w", err)
	}
	return rows, nil
}

func decodeInstanceSpacetime(record *neo4j.Record) (objectgraph.InstanceSpacetimeRecord, error) {
	return objectgraph.InstanceSpacetimeRecord{
		InstanceNode: objectgraph.NodeRef{ID: getStringFromRecord(record, "instance_id")},
		SpacetimeNode: objectgraph.SpacetimeRef{
			ID:       getStringFromRecord(record, "spacetime_id"),
			PhotoURI: getStringFromRecord(record, "photo_uri"),
		},
	}, nil
}

// ReadInstanceChildren returns every Instance-HAS_CHILD->Instance pair
func (r *Repository) ReadInstanceChildren(ctx context.Context) ([]objectgraph.InstanceChildRecord, error) {
	rows, err := readRows(ctx, r, instanceChildQuery, decodeInstanceChild)
	if err != nil {
		return nil, fmt.Errorf("failed to read instance children: %w", err)
	}
	return rows, nil
}

func decodeInstanceChild(record *neo4j.Record) (objectgraph.InstanceChildRecord, error) {
	return objectgraph.InstanceChildRecord{
		ParentInstance: objectgraph.NodeRef{ID: getStringFromRecord(record, "parent_id")},
		ChildInstance:  objectgraph.NodeRef{ID: getStringFromRecord(record, "child_id")},
	}, nil
}
