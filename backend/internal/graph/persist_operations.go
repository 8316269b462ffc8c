package graph

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"objectgraph/backend/internal/objectgraph"
	apperrors "objectgraph/backend/pkg/errors"
)

// ============================================================================
// Snapshot Persistence
// ============================================================================

// snapshotRows holds UNWIND parameter rows for each batch of a snapshot
type snapshotRows struct {
	concepts   []map[string]interface{}
	objects    []map[string]interface{}
	instances  []map[string]interface{}
	spacetimes []map[string]interface{}

	includes  []map[string]interface{}
	named     []map[string]interface{}
	attached  []map[string]interface{}
	appearsIn []map[string]interface{}
	children  []map[string]interface{}
}

func (s snapshotRows) edgeCount() int {
	return len(s.includes) + len(s.named) + len(s.attached) + len(s.appearsIn) + len(s.children)
}

// buildSnapshotRows flattens a snapshot into parameter rows. Maps and
// lists of records are not valid Neo4j property values, so hashtags and
// prices are stored as JSON strings. Mirrored edges are written once, from
// their database direction. The two spacetime directions are independent
// and each gets its own relationship.
func buildSnapshotRows(snap objectgraph.Snapshot) (snapshotRows, error) {
	var rows snapshotRows

	for _, c := range snap.Concept.Nodes {
		rows.concepts = append(rows.concepts, map[string]interface{}{"id": c.ID, "name": c.Name})
	}
	for _, o := range snap.Object.Nodes {
		rows.objects = append(rows.objects, map[string]interface{}{"id": o.ID, "createdAt": o.CreatedAt})
	}
	for _, i := range snap.Instance.Nodes {
		hashtags, err := json.Marshal(i.Hashtags)
		if err != nil {
			return rows, fmt.Errorf("failed to encode hashtags of %s: %w", i.ID, err)
		}
		prices, err := json.Marshal(i.Prices)
		if err != nil {
			return rows, fmt.Errorf("failed to encode prices of %s: %w", i.ID, err)
		}
		row := map[string]interface{}{
			"id":            i.ID,
			"description":   i.Description,
			"hashtags":      string(hashtags),
			"prices":        string(prices),
			"isRecommended": nil,
		}
		if i.IsRecommended != nil {
			row["isRecommended"] = *i.IsRecommended
		}
		rows.instances = append(rows.instances, row)
	}
	for _, s := range snap.Spacetime.Nodes {
		rows.spacetimes = append(rows.spacetimes, map[string]interface{}{"id": s.ID, "photoUri": s.PhotoURI})
	}

	for _, o := range snap.Object.Nodes {
		for _, instanceID := range snap.Object.AdjacencyList[o.ID].Instance {
			rows.includes = append(rows.includes, map[string]interface{}{"from": o.ID, "to": instanceID})
		}
	}
	for _, i := range snap.Instance.Nodes {
		adj := snap.Instance.AdjacencyList[i.ID]
		for _, conceptID := range adj.Concept {
			rows.named = append(rows.named, map[string]interface{}{"from": i.ID, "to": conceptID})
		}
		for _, spacetimeID := range adj.Spacetime {
			rows.appearsIn = append(rows.appearsIn, map[string]interface{}{"from": i.ID, "to": spacetimeID})
		}
		for _, childID := range adj.Instance {
			rows.children = append(rows.children, map[string]interface{}{"from": i.ID, "to": childID})
		}
	}
	for _, s := range snap.Spacetime.Nodes {
		for _, ref := range snap.Spacetime.AdjacencyList[s.ID].Instance {
			rows.attached = append(rows.attached, map[string]interface{}{
				"from":  s.ID,
				"to":    ref.ID,
				"props": tagInfoToProps(ref.Relationship),
			})
		}
	}

	return rows, nil
}

var (
	clearCatalogQuery = `
		MATCH (n)
		WHERE n:Object OR n:Instance OR n:Concept OR n:Spacetime
		DETACH DELETE n
	`
	saveConceptsQuery = `
		UNWIND $rows AS row
		MERGE (c:Concept {id: row.id})
		SET c.name = row.name
	`
	saveObjectsQuery = `
		UNWIND $rows AS row
		MERGE (o:Object {id: row.id})
		SET o.createdAt = row.createdAt
	`
	saveInstancesQuery = `
		UNWIND $rows AS row
		MERGE (i:Instance {id: row.id})
		SET i.description = row.description,
		    i.hashtags = row.hashtags,
		    i.prices = row.prices,
		    i.isRecommended = row.isRecommended
	`
	saveSpacetimesQuery = `
		UNWIND $rows AS row
		MERGE (s:Spacetime {id: row.id})
		SET s.photoUri = row.photoUri
	`
	saveIncludesQuery = fmt.Sprintf(`
		UNWIND $rows AS row
		MATCH (o:Object {id: row.from}), (i:Instance {id: row.to})
		CREATE (o)-[:%s]->(i)
	`, RelObjectToInstance)
	saveNamedQuery = fmt.Sprintf(`
		UNWIND $rows AS row
		MATCH (i:Instance {id: row.from}), (c:Concept {id: row.to})
		CREATE (i)-[:%s]->(c)
	`, RelInstanceToConcept)
	saveAttachedQuery = fmt.Sprintf(`
		UNWIND $rows AS row
		MATCH (s:Spacetime {id: row.from}), (i:Instance {id: row.to})
		CREATE (s)-[r:%s]->(i)
		SET r = row.props
	`, RelSpacetimeToInstance)
	saveAppearsInQuery = fmt.Sprintf(`
		UNWIND $rows AS row
		MATCH (i:Instance {id: row.from}), (s:Spacetime {id: row.to})
		CREATE (i)-[:%s]->(s)
	`, RelInstanceToSpacetime)
	saveChildrenQuery = fmt.Sprintf(`
		UNWIND $rows AS row
		MATCH (p:Instance {id: row.from}), (c:Instance {id: row.to})
		CREATE (p)-[:%s]->(c)
	`, RelInstanceToInstance)
)

// SaveSnapshot replaces the stored catalog with the snapshot, in one write
// transaction. The in-memory graph is the source of truth: nodes seeded
// without ids would otherwise be duplicated on every save.
func (r *Repository) SaveSnapshot(ctx context.Context, snap objectgraph.Snapshot) error {
	rows, err := buildSnapshotRows(snap)
	if err != nil {
		return err
	}

	batches := []struct {
		query string
		rows  []map[string]interface{}
	}{
		{saveConceptsQuery, rows.concepts},
		{saveObjectsQuery, rows.objects},
		{saveInstancesQuery, rows.instances},
		{saveSpacetimesQuery, rows.spacetimes},
		{saveIncludesQuery, rows.includes},
		{saveNamedQuery, rows.named},
		{saveAttachedQuery, rows.attached},
		{saveAppearsInQuery, rows.appearsIn},
		{saveChildrenQuery, rows.children},
	}

	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		if _, err := tx.Run(ctx, clearCatalogQuery, nil); err != nil {
			return nil, apperrors.NewGraphQueryFailed(clearCatalogQuery, err)
		}
		for _, b := range batches {
			if len(b.rows) == 0 {
				continue
			}
			if _, err := tx.Run(ctx, b.query, map[string]interface{}{"rows": b.rows}); err != nil {
				return nil, apperrors.NewGraphQueryFailed(b.query, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	r.logger.Info("Snapshot saved",
		zap.Int("concepts", len(rows.concepts)),
		zap.Int("objects", len(rows.objects)),
		zap.Int("instances", len(rows.instances)),
		zap.Int("spacetimes", len(rows.spacetimes)),
		zap.Int("edges", rows.edgeCount()),
	)
	return nil
}
