package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "objectgraph/backend/pkg/errors"
)

// ============================================================================
// Reset, Schema & Seed Operations
// ============================================================================

type statement struct {
	query  string
	params map[string]interface{}
}

// DeleteAll deletes all nodes and relationships
func (r *Repository) DeleteAll(ctx context.Context) error {
	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	query := `
		MATCH (n)
		DETACH DELETE n
	`

	if _, err := session.Run(ctx, query, nil); err != nil {
		return fmt.Errorf("failed to delete all data: %w", apperrors.NewGraphQueryFailed(query, err))
	}

	r.logger.Info("All nodes and relationships deleted")
	return nil
}

// EnsureSchema creates uniqueness constraints on node ids and lookup
// indexes. A statement whose constraint or index already exists is skipped;
// any other failure stops and is returned.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	statements := []string{
		"CREATE CONSTRAINT object_id_unique IF NOT EXISTS FOR (o:Object) REQUIRE o.id IS UNIQUE",
		"CREATE CONSTRAINT instance_id_unique IF NOT EXISTS FOR (i:Instance) REQUIRE i.id IS UNIQUE",
		"CREATE CONSTRAINT concept_id_unique IF NOT EXISTS FOR (c:Concept) REQUIRE c.id IS UNIQUE",
		"CREATE CONSTRAINT spacetime_id_unique IF NOT EXISTS FOR (s:Spacetime) REQUIRE s.id IS UNIQUE",
		"CREATE INDEX concept_name IF NOT EXISTS FOR (c:Concept) ON (c.name)",
		"CREATE INDEX spacetime_name IF NOT EXISTS FOR (s:Spacetime) ON (s.name)",
	}

	for _, stmt := range statements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			if !schemaAlreadyExists(err) {
				return fmt.Errorf("failed to apply schema: %w", apperrors.NewGraphQueryFailed(stmt, err))
			}
			r.logger.Debug("Schema item already exists", zap.String("statement", stmt))
		}
	}
	return nil
}

// schemaAlreadyExists reports whether a schema statement failed only because
// an equivalent constraint or index is already in place
func schemaAlreadyExists(err error) bool {
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		return strings.HasSuffix(neoErr.Code, "AlreadyExists")
	}
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}

// seedStatements is the sample catalog: an ice cream photographed in a
// freezer tray, a second tray holding an ice cream ball. Every tag is
// written in both directions, IS_ATTACHED with the tag and APPEARS_IN back.
func seedStatements() []statement {
	const (
		chocolatePhoto = "https://cdn.apartmenttherapy.info/image/upload/f_auto,q_auto:eco,c_fill,g_center,w_730,h_913/k%2Farchive%2F7508725f114196a0f4fc1cad5a708dfe5c0b874e"
		trayPhoto      = "https://handletheheat.com/wp-content/uploads/2016/05/death-by-chocolate-ice-cream-SQUARE-1-1536x1536.jpg"
	)

	attach := func(spacetime, instanceID, props string) statement {
		return statement{
			query: fmt.Sprintf(`
				MATCH (s:Spacetime {id: $spacetime}), (i:Instance {id: $instanceID})
				CREATE (s)-[:%s %s]->(i)
				CREATE (i)-[:%s]->(s)
			`, RelSpacetimeToInstance, props, RelInstanceToSpacetime),
			params: map[string]interface{}{"spacetime": spacetime, "instanceID": instanceID},
		}
	}
	const (
		areaTag  = `{name: "area tag"}`
		pointTag = `{name: "tag", tagDotPosition: "right", iconPosition: "top"}`
	)

	return []statement{
		// 1. chocolate ice cream, first instance
		{
			query: fmt.Sprintf(`
				CREATE (o:Object {id: $objectID})-[:%s]->(i:Instance {id: $instanceID})-[:%s]->(c:Concept {id: $conceptID, name: $concept})
			`, RelObjectToInstance, RelInstanceToConcept),
			params: map[string]interface{}{
				"objectID":   "chocolate_ice_cream",
				"instanceID": "chocolate_ice_cream_0",
				"conceptID":  "chocolate_ice_cream_concept",
				"concept":    "chocolate ice cream",
			},
		},
		{
			query:  `CREATE (s:Spacetime {id: $name, name: $name, photoUri: $photoUri})`,
			params: map[string]interface{}{"name": "chocolate_ice_cream_image_0", "photoUri": chocolatePhoto},
		},
		attach("chocolate_ice_cream_image_0", "chocolate_ice_cream_0", areaTag),

		// 2. freezer tray, first instance, tagged on the ice cream photo
		{
			query: fmt.Sprintf(`
				CREATE (o:Object {id: $objectID})-[:%s]->(i:Instance {id: $instanceID})-[:%s]->(c:Concept {id: $conceptID, name: $concept})
			`, RelObjectToInstance, RelInstanceToConcept),
			params: map[string]interface{}{
				"objectID":   "freezer_tray",
				"instanceID": "freezer_tray_0",
				"conceptID":  "freezer_tray_concept",
				"concept":    "freezer tray",
			},
		},
		attach("chocolate_ice_cream_image_0", "freezer_tray_0", pointTag),
		{
			query: fmt.Sprintf(`
				MATCH (p:Instance {id: $parentID}), (c:Instance {id: $childID})
				CREATE (p)-[:%s]->(c)
			`, RelInstanceToInstance),
			params: map[string]interface{}{"parentID": "chocolate_ice_cream_0", "childID": "freezer_tray_0"},
		},

		// 3. freezer tray, second instance with its own photo
		{
			query:  `CREATE (i:Instance {id: $instanceID})`,
			params: map[string]interface{}{"instanceID": "freezer_tray_1"},
		},
		{
			query: fmt.Sprintf(`
				MATCH (i:Instance {id: $instanceID}), (o:Object {id: $objectID}), (c:Concept {id: $conceptID})
				CREATE (o)-[:%s]->(i)-[:%s]->(c)
			`, RelObjectToInstance, RelInstanceToConcept),
			params: map[string]interface{}{"instanceID": "freezer_tray_1", "objectID": "freezer_tray", "conceptID": "freezer_tray_concept"},
		},
		{
			query:  `CREATE (s:Spacetime {id: $name, name: $name, photoUri: $photoUri})`,
			params: map[string]interface{}{"name": "freezer_tray_image_0", "photoUri": trayPhoto},
		},
		attach("freezer_tray_image_0", "freezer_tray_1", areaTag),

		// 4. ice cream ball, first instance, tagged on the tray photo
		{
			query: fmt.Sprintf(`
				CREATE (o:Object {id: $objectID})-[:%s]->(i:Instance {id: $instanceID})-[:%s]->(c:Concept {id: $conceptID, name: $concept})
			`, RelObjectToInstance, RelInstanceToConcept),
			params: map[string]interface{}{
				"objectID":   "ice_cream_ball",
				"instanceID": "ice_cream_ball_0",
				"conceptID":  "ice_cream_ball_concept",
				"concept":    "ice cream ball",
			},
		},
		attach("freezer_tray_image_0", "ice_cream_ball_0", pointTag),
		{
			query: fmt.Sprintf(`
				MATCH (p:Instance {id: $parentID}), (c:Instance {id: $childID})
				CREATE (p)-[:%s]->(c)
			`, RelInstanceToInstance),
			params: map[string]interface{}{"parentID": "freezer_tray_1", "childID": "ice_cream_ball_0"},
		},
	}
}

// SeedCatalog writes the sample catalog in a single transaction
func (r *Repository) SeedCatalog(ctx context.Context) error {
	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	statements := seedStatements()
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		for _, stmt := range statements {
			if _, err := tx.Run(ctx, stmt.query, stmt.params); err != nil {
				return nil, apperrors.NewGraphQueryFailed(stmt.query, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	r.logger.Info("Sample catalog seeded", zap.Int("statements", len(statements)))
	return nil
}
