// Package loader hydrates an objectgraph.Store from the graph feeds.
package loader

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"objectgraph/backend/internal/objectgraph"
	apperrors "objectgraph/backend/pkg/errors"
)

// Source provides the feeds a store is built from. *graph.Repository
// satisfies it.
type Source interface {
	ReadObjects(ctx context.Context) ([]objectgraph.ObjectRecord, error)
	ReadInstances(ctx context.Context) ([]objectgraph.InstanceRecord, error)
	ReadConcepts(ctx context.Context) ([]objectgraph.ConceptRecord, error)
	ReadSpacetimes(ctx context.Context) ([]objectgraph.SpacetimeRecord, error)

	ReadObjectInstances(ctx context.Context) ([]objectgraph.ObjectInstanceRecord, error)
	ReadInstanceConcepts(ctx context.Context) ([]objectgraph.InstanceConceptRecord, error)
	ReadSpacetimeInstances(ctx context.Context) ([]objectgraph.SpacetimeInstanceRecord, error)
	ReadInstanceSpacetimes(ctx context.Context) ([]objectgraph.InstanceSpacetimeRecord, error)
	ReadInstanceChildren(ctx context.Context) ([]objectgraph.InstanceChildRecord, error)
}

// Stats summarizes one load. Node counts are nodes created by the load.
type Stats struct {
	Objects      int           `json:"objects"`
	Instances    int           `json:"instances"`
	Concepts     int           `json:"concepts"`
	Spacetimes   int           `json:"spacetimes"`
	ChildEdges   int           `json:"childEdges"`
	FetchElapsed time.Duration `json:"fetchElapsed"`
}

// Loader replays feeds into a store
type Loader struct {
	source Source
	logger *zap.Logger
}

// New creates a loader reading from source
func New(source Source, logger *zap.Logger) *Loader {
	return &Loader{source: source, logger: logger}
}

type feeds struct {
	objects    []objectgraph.ObjectRecord
	instances  []objectgraph.InstanceRecord
	concepts   []objectgraph.ConceptRecord
	spacetimes []objectgraph.SpacetimeRecord

	objectInstances    []objectgraph.ObjectInstanceRecord
	instanceConcepts   []objectgraph.InstanceConceptRecord
	spacetimeInstances []objectgraph.SpacetimeInstanceRecord
	instanceSpacetimes []objectgraph.InstanceSpacetimeRecord
	children           []objectgraph.InstanceChildRecord
}

// read runs one feed read on g and stores its rows in dst
func read[T any](ctx context.Context, g *errgroup.Group, name string, dst *[]T, fn func(context.Context) ([]T, error)) {
	g.Go(func() error {
		rows, err := fn(ctx)
		if err != nil {
			return fmt.Errorf("%s feed: %w", name, err)
		}
		*dst = rows
		return nil
	})
}

// fetch reads all feeds concurrently. The first failure cancels the
// remaining reads.
func (l *Loader) fetch(ctx context.Context) (feeds, error) {
	var f feeds
	g, gctx := errgroup.WithContext(ctx)

	read(gctx, g, "objects", &f.objects, l.source.ReadObjects)
	read(gctx, g, "instances", &f.instances, l.source.ReadInstances)
	read(gctx, g, "concepts", &f.concepts, l.source.ReadConcepts)
	read(gctx, g, "spacetimes", &f.spacetimes, l.source.ReadSpacetimes)
	read(gctx, g, "object instances", &f.objectInstances, l.source.ReadObjectInstances)
	read(gctx, g, "instance concepts", &f.instanceConcepts, l.source.ReadInstanceConcepts)
	read(gctx, g, "spacetime instances", &f.spacetimeInstances, l.source.ReadSpacetimeInstances)
	read(gctx, g, "instance spacetimes", &f.instanceSpacetimes, l.source.ReadInstanceSpacetimes)
	read(gctx, g, "instance children", &f.children, l.source.ReadInstanceChildren)

	if err := g.Wait(); err != nil {
		return feeds{}, err
	}
	return f, nil
}

// replayer creates nodes on first mention and reuses them afterwards, so a
// node named by several feeds or rows is added once
type replayer struct {
	store *objectgraph.Store
	stats *Stats
}

// ensureObject adds the object unless it exists. An empty id is left for
// the edge that names it to reject.
func (r replayer) ensureObject(id string, createdAt time.Time) error {
	if id == "" || r.store.Has(objectgraph.ObjectType, id) {
		return nil
	}
	if _, err := r.store.AddObjectNodeAt(createdAt, id); err != nil {
		return err
	}
	r.stats.Objects++
	return nil
}

func (r replayer) ensureInstance(id string) error {
	if id == "" || r.store.Has(objectgraph.InstanceType, id) {
		return nil
	}
	if _, err := r.store.AddInstanceNode(id); err != nil {
		return err
	}
	r.stats.Instances++
	return nil
}

// concept resolves a feed reference to a store id. A reference without an
// id always yields a new concept.
func (r replayer) concept(ref objectgraph.ConceptRef) (string, error) {
	if ref.ID != "" && r.store.Has(objectgraph.ConceptType, ref.ID) {
		return ref.ID, nil
	}
	id, err := r.store.AddConceptNode(ref.Name, ref.ID)
	if err != nil {
		return "", err
	}
	r.stats.Concepts++
	return id, nil
}

// spacetime resolves a feed reference the same way as concept
func (r replayer) spacetime(ref objectgraph.SpacetimeRef) (string, error) {
	if ref.ID != "" && r.store.Has(objectgraph.SpacetimeType, ref.ID) {
		return ref.ID, nil
	}
	id, err := r.store.AddSpacetimeNode(ref.PhotoURI, ref.ID)
	if err != nil {
		return "", err
	}
	r.stats.Spacetimes++
	return id, nil
}

// nodes replays the node feeds: every stored node with its attributes
func (r replayer) nodes(f feeds) error {
	for _, rec := range f.objects {
		if err := r.ensureObject(rec.ID, rec.CreatedAt); err != nil {
			return fmt.Errorf("objects feed: %w", err)
		}
	}
	for _, rec := range f.instances {
		if rec.ID == "" {
			continue
		}
		if err := r.ensureInstance(rec.ID); err != nil {
			return fmt.Errorf("instances feed: %w", err)
		}
		if err := r.store.EditInstanceNode(rec.ID, rec.Detail()); err != nil {
			return fmt.Errorf("instances feed: %w", err)
		}
	}
	for _, rec := range f.concepts {
		if _, err := r.concept(objectgraph.ConceptRef{ID: rec.ID, Name: rec.Name}); err != nil {
			return fmt.Errorf("concepts feed: %w", err)
		}
	}
	for _, rec := range f.spacetimes {
		if _, err := r.spacetime(objectgraph.SpacetimeRef{ID: rec.ID, PhotoURI: rec.PhotoURI}); err != nil {
			return fmt.Errorf("spacetimes feed: %w", err)
		}
	}
	return nil
}

// edges replays the relationship feeds. Every row adds one edge, so a
// relationship stored twice is loaded twice. Spacetime rows carrying an id
// add the spacetime side only; the instance side comes from its own feed.
func (r replayer) edges(f feeds) error {
	for _, row := range f.objectInstances {
		objectID, instanceID := row.ObjectNode.ID, row.InstanceNode.ID
		if err := r.ensureObject(objectID, time.Time{}); err != nil {
			return fmt.Errorf("object instances feed: %w", err)
		}
		if err := r.ensureInstance(instanceID); err != nil {
			return fmt.Errorf("object instances feed: %w", err)
		}
		if err := r.store.AddObjectAndInstanceEdge(objectgraph.ObjectInstanceEdge{
			ObjectID:   objectID,
			InstanceID: instanceID,
		}); err != nil {
			return fmt.Errorf("object instances feed: %w", err)
		}
	}

	for _, row := range f.instanceConcepts {
		if err := r.ensureInstance(row.InstanceNode.ID); err != nil {
			return fmt.Errorf("instance concepts feed: %w", err)
		}
		conceptID, err := r.concept(row.ConceptNode)
		if err != nil {
			return fmt.Errorf("instance concepts feed: %w", err)
		}
		if err := r.store.AddConceptAndInstanceEdge(objectgraph.ConceptInstanceEdge{
			ConceptID:  conceptID,
			InstanceID: row.InstanceNode.ID,
		}); err != nil {
			return fmt.Errorf("instance concepts feed: %w", err)
		}
	}

	for _, row := range f.spacetimeInstances {
		if err := r.ensureInstance(row.InstanceNode.ID); err != nil {
			return fmt.Errorf("spacetime instances feed: %w", err)
		}
		spacetimeID, err := r.spacetime(row.SpacetimeNode)
		if err != nil {
			return fmt.Errorf("spacetime instances feed: %w", err)
		}
		if err := r.store.AddSpacetimeToInstanceEdge(spacetimeID, row.InstanceNode.ID, row.SpacetimeToInstanceEdge); err != nil {
			return fmt.Errorf("spacetime instances feed: %w", err)
		}
		// a spacetime without an id cannot be named by the instance spacetimes
		// feed, so its row stands for both directions
		if row.SpacetimeNode.ID == "" {
			if err := r.store.AddInstanceToSpacetimeEdge(row.InstanceNode.ID, spacetimeID); err != nil {
				return fmt.Errorf("spacetime instances feed: %w", err)
			}
		}
	}

	for _, row := range f.instanceSpacetimes {
		if err := r.ensureInstance(row.InstanceNode.ID); err != nil {
			return fmt.Errorf("instance spacetimes feed: %w", err)
		}
		spacetimeID, err := r.spacetime(row.SpacetimeNode)
		if err != nil {
			return fmt.Errorf("instance spacetimes feed: %w", err)
		}
		if err := r.store.AddInstanceToSpacetimeEdge(row.InstanceNode.ID, spacetimeID); err != nil {
			return fmt.Errorf("instance spacetimes feed: %w", err)
		}
	}

	for _, row := range f.children {
		parentID, childID := row.ParentInstance.ID, row.ChildInstance.ID
		if err := r.ensureInstance(parentID); err != nil {
			return fmt.Errorf("instance children feed: %w", err)
		}
		if err := r.ensureInstance(childID); err != nil {
			return fmt.Errorf("instance children feed: %w", err)
		}
		if err := r.store.AddInstanceToInstanceEdge(parentID, childID); err != nil {
			return fmt.Errorf("instance children feed: %w", err)
		}
		r.stats.ChildEdges++
	}
	return nil
}

// Load reads every feed, then replays them into store: the node feeds
// first, then objects with their instances, concepts, both spacetime
// directions and child edges. All reads finish before the store is touched.
// A node already in the store is reused, never added twice. Replay stops
// at the first store error.
func (l *Loader) Load(ctx context.Context, store *objectgraph.Store) (Stats, error) {
	var stats Stats

	start := time.Now()
	f, err := l.fetch(ctx)
	if err != nil {
		return stats, err
	}
	stats.FetchElapsed = time.Since(start)

	if err := ctx.Err(); err != nil {
		return stats, apperrors.NewContextCancelled("load", err)
	}

	r := replayer{store: store, stats: &stats}
	if err := r.nodes(f); err != nil {
		return stats, err
	}
	l.logger.Debug("Nodes replayed",
		zap.Int("objects", stats.Objects),
		zap.Int("instances", stats.Instances),
		zap.Int("concepts", stats.Concepts),
		zap.Int("spacetimes", stats.Spacetimes),
	)
	if err := r.edges(f); err != nil {
		return stats, err
	}

	l.logger.Info("Graph loaded",
		zap.Int("objects", stats.Objects),
		zap.Int("instances", stats.Instances),
		zap.Int("concepts", stats.Concepts),
		zap.Int("spacetimes", stats.Spacetimes),
		zap.Int("child_edges", stats.ChildEdges),
		zap.Duration("fetch_elapsed", stats.FetchElapsed),
	)
	return stats, nil
}
