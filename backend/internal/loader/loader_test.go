package loader

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"objectgraph/backend/internal/objectgraph"
	apperrors "objectgraph/backend/pkg/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	objects    []objectgraph.ObjectRecord
	instances  []objectgraph.InstanceRecord
	concepts   []objectgraph.ConceptRecord
	spacetimes []objectgraph.SpacetimeRecord

	objectInstances    []objectgraph.ObjectInstanceRecord
	instanceConcepts   []objectgraph.InstanceConceptRecord
	spacetimeInstances []objectgraph.SpacetimeInstanceRecord
	instanceSpacetimes []objectgraph.InstanceSpacetimeRecord
	children           []objectgraph.InstanceChildRecord

	childrenErr error
	// blockConcepts waits for cancellation before returning
	blockConcepts bool
}

func (f *fakeSource) ReadObjects(ctx context.Context) ([]objectgraph.ObjectRecord, error) {
	return f.objects, nil
}

func (f *fakeSource) ReadInstances(ctx context.Context) ([]objectgraph.InstanceRecord, error) {
	return f.instances, nil
}

func (f *fakeSource) ReadConcepts(ctx context.Context) ([]objectgraph.ConceptRecord, error) {
	return f.concepts, nil
}

func (f *fakeSource) ReadSpacetimes(ctx context.Context) ([]objectgraph.SpacetimeRecord, error) {
	return f.spacetimes, nil
}

func (f *fakeSource) ReadObjectInstances(ctx context.Context) ([]objectgraph.ObjectInstanceRecord, error) {
	return f.objectInstances, nil
}

func (f *fakeSource) ReadInstanceConcepts(ctx context.Context) ([]objectgraph.InstanceConceptRecord, error) {
	if f.blockConcepts {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.instanceConcepts, nil
}

func (f *fakeSource) ReadSpacetimeInstances(ctx context.Context) ([]objectgraph.SpacetimeInstanceRecord, error) {
	return f.spacetimeInstances, nil
}

func (f *fakeSource) ReadInstanceSpacetimes(ctx context.Context) ([]objectgraph.InstanceSpacetimeRecord, error) {
	return f.instanceSpacetimes, nil
}

func (f *fakeSource) ReadInstanceChildren(ctx context.Context) ([]objectgraph.InstanceChildRecord, error) {
	return f.children, f.childrenErr
}

func ref(id string) objectgraph.NodeRef { return objectgraph.NodeRef{ID: id} }

// sampleSource mirrors the seeded catalog
func sampleSource() *fakeSource {
	var (
		chocolate = objectgraph.ConceptRef{ID: "chocolate_ice_cream_concept", Name: "chocolate ice cream"}
		tray      = objectgraph.ConceptRef{ID: "freezer_tray_concept", Name: "freezer tray"}
		photoA    = objectgraph.SpacetimeRef{ID: "photo_a", PhotoURI: "https://example.com/a.jpg"}
	)
	return &fakeSource{
		objects: []objectgraph.ObjectRecord{
			{ID: "chocolate_ice_cream"}, {ID: "freezer_tray"}, {ID: "ice_cream_ball"},
		},
		instances: []objectgraph.InstanceRecord{
			{ID: "chocolate_ice_cream_0"}, {ID: "freezer_tray_0"}, {ID: "freezer_tray_1"}, {ID: "ice_cream_ball_0"},
		},
		concepts: []objectgraph.ConceptRecord{
			{ID: chocolate.ID, Name: chocolate.Name}, {ID: tray.ID, Name: tray.Name},
		},
		spacetimes: []objectgraph.SpacetimeRecord{
			{ID: photoA.ID, PhotoURI: photoA.PhotoURI},
		},
		objectInstances: []objectgraph.ObjectInstanceRecord{
			{ObjectNode: ref("chocolate_ice_cream"), InstanceNode: ref("chocolate_ice_cream_0")},
			{ObjectNode: ref("freezer_tray"), InstanceNode: ref("freezer_tray_0")},
			{ObjectNode: ref("freezer_tray"), InstanceNode: ref("freezer_tray_1")},
			{ObjectNode: ref("ice_cream_ball"), InstanceNode: ref("ice_cream_ball_0")},
		},
		instanceConcepts: []objectgraph.InstanceConceptRecord{
			{InstanceNode: ref("chocolate_ice_cream_0"), ConceptNode: chocolate},
			{InstanceNode: ref("freezer_tray_0"), ConceptNode: tray},
			{InstanceNode: ref("freezer_tray_1"), ConceptNode: tray},
		},
		spacetimeInstances: []objectgraph.SpacetimeInstanceRecord{
			{
				SpacetimeNode:           photoA,
				InstanceNode:            ref("chocolate_ice_cream_0"),
				SpacetimeToInstanceEdge: &objectgraph.TagInfo{Name: objectgraph.TagArea},
			},
			{
				SpacetimeNode: photoA,
				InstanceNode:  ref("freezer_tray_0"),
			},
		},
		instanceSpacetimes: []objectgraph.InstanceSpacetimeRecord{
			{InstanceNode: ref("chocolate_ice_cream_0"), SpacetimeNode: photoA},
			{InstanceNode: ref("freezer_tray_0"), SpacetimeNode: photoA},
		},
		children: []objectgraph.InstanceChildRecord{
			{ParentInstance: ref("chocolate_ice_cream_0"), ChildInstance: ref("freezer_tray_0")},
			{ParentInstance: ref("freezer_tray_1"), ChildInstance: ref("ice_cream_ball_0")},
		},
	}
}

func newStore(opts ...objectgraph.Option) *objectgraph.Store {
	return objectgraph.New(append([]objectgraph.Option{objectgraph.WithLogger(zap.NewNop())}, opts...)...)
}

func TestLoad_ReplaysFeeds(t *testing.T) {
	store := newStore()
	stats, err := New(sampleSource(), zap.NewNop()).Load(context.Background(), store)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Objects)
	assert.Equal(t, 4, stats.Instances)
	assert.Equal(t, 2, stats.Concepts)
	assert.Equal(t, 1, stats.Spacetimes)
	assert.Equal(t, 2, stats.ChildEdges)

	snap := store.Snapshot()

	// objects are created once, with their instances in feed order
	require.Len(t, snap.Object.Nodes, 3)
	assert.Equal(t, []string{"freezer_tray_0", "freezer_tray_1"}, snap.Object.AdjacencyList["freezer_tray"].Instance)
	assert.Equal(t, []string{"freezer_tray"}, snap.Instance.AdjacencyList["freezer_tray_1"].Object)

	// concepts with an id are shared by every row naming them
	require.Len(t, snap.Concept.Nodes, 2)
	assert.Equal(t, objectgraph.ConceptNode{ID: "freezer_tray_concept", Name: "freezer tray"}, snap.Concept.Nodes[1])
	assert.Equal(t, []string{"freezer_tray_0", "freezer_tray_1"}, snap.Concept.AdjacencyList["freezer_tray_concept"].Instance)
	assert.Empty(t, snap.Instance.AdjacencyList["ice_cream_ball_0"].Concept)

	require.Len(t, snap.Spacetime.Nodes, 1)
	assert.Equal(t, []objectgraph.SpacetimeInstanceRef{
		{ID: "chocolate_ice_cream_0", Relationship: &objectgraph.TagInfo{Name: objectgraph.TagArea}},
		{ID: "freezer_tray_0"},
	}, snap.Spacetime.AdjacencyList["photo_a"].Instance)
	assert.Equal(t, []string{"photo_a"}, snap.Instance.AdjacencyList["chocolate_ice_cream_0"].Spacetime)
	assert.Equal(t, []string{"photo_a"}, snap.Instance.AdjacencyList["freezer_tray_0"].Spacetime)

	assert.Equal(t, []string{"freezer_tray_0"}, snap.Instance.AdjacencyList["chocolate_ice_cream_0"].Instance)
	assert.Equal(t, []string{"ice_cream_ball_0"}, snap.Instance.AdjacencyList["freezer_tray_1"].Instance)
}

func TestLoad_EmptyFeeds(t *testing.T) {
	store := newStore()
	stats, err := New(&fakeSource{}, zap.NewNop()).Load(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, Stats{FetchElapsed: stats.FetchElapsed}, stats)
	assert.Empty(t, store.Snapshot().Instance.Nodes)
}

// feedsFromSnapshot returns the rows the graph reads yield for a catalog
// saved from snap
func feedsFromSnapshot(snap objectgraph.Snapshot) *fakeSource {
	src := &fakeSource{}
	for _, o := range snap.Object.Nodes {
		src.objects = append(src.objects, objectgraph.ObjectRecord{ID: o.ID, CreatedAt: o.CreatedAt})
		for _, instanceID := range snap.Object.AdjacencyList[o.ID].Instance {
			src.objectInstances = append(src.objectInstances, objectgraph.ObjectInstanceRecord{
				ObjectNode:   ref(o.ID),
				InstanceNode: ref(instanceID),
			})
		}
	}

	names := make(map[string]string)
	for _, c := range snap.Concept.Nodes {
		names[c.ID] = c.Name
		src.concepts = append(src.concepts, objectgraph.ConceptRecord{ID: c.ID, Name: c.Name})
	}
	photos := make(map[string]string)
	for _, s := range snap.Spacetime.Nodes {
		photos[s.ID] = s.PhotoURI
		src.spacetimes = append(src.spacetimes, objectgraph.SpacetimeRecord{ID: s.ID, PhotoURI: s.PhotoURI})
	}

	for _, i := range snap.Instance.Nodes {
		desc := i.Description
		src.instances = append(src.instances, objectgraph.InstanceRecord{
			ID:            i.ID,
			Description:   &desc,
			Hashtags:      i.Hashtags,
			Prices:        i.Prices,
			IsRecommended: i.IsRecommended,
		})
		adj := snap.Instance.AdjacencyList[i.ID]
		for _, conceptID := range adj.Concept {
			src.instanceConcepts = append(src.instanceConcepts, objectgraph.InstanceConceptRecord{
				InstanceNode: ref(i.ID),
				ConceptNode:  objectgraph.ConceptRef{ID: conceptID, Name: names[conceptID]},
			})
		}
		for _, spacetimeID := range adj.Spacetime {
			src.instanceSpacetimes = append(src.instanceSpacetimes, objectgraph.InstanceSpacetimeRecord{
				InstanceNode:  ref(i.ID),
				SpacetimeNode: objectgraph.SpacetimeRef{ID: spacetimeID, PhotoURI: photos[spacetimeID]},
			})
		}
		for _, childID := range adj.Instance {
			src.children = append(src.children, objectgraph.InstanceChildRecord{
				ParentInstance: ref(i.ID),
				ChildInstance:  ref(childID),
			})
		}
	}

	for _, s := range snap.Spacetime.Nodes {
		for _, r := range snap.Spacetime.AdjacencyList[s.ID].Instance {
			src.spacetimeInstances = append(src.spacetimeInstances, objectgraph.SpacetimeInstanceRecord{
				SpacetimeNode:           objectgraph.SpacetimeRef{ID: s.ID, PhotoURI: s.PhotoURI},
				InstanceNode:            ref(r.ID),
				SpacetimeToInstanceEdge: r.Relationship,
			})
		}
	}
	return src
}

func sequentialIDs() func(objectgraph.NodeType) string {
	next := map[objectgraph.NodeType]int{}
	return func(t objectgraph.NodeType) string {
		next[t]++
		return fmt.Sprintf("%s-%d", t, next[t])
	}
}

func TestLoad_RestoresSavedSnapshot(t *testing.T) {
	saved := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newStore(
		objectgraph.WithClock(func() time.Time { return saved }),
		objectgraph.WithIDGenerator(sequentialIDs()),
	)

	tray, err := s.AddObjectNode()
	require.NoError(t, err)
	_, err = s.AddObjectNode() // no instances
	require.NoError(t, err)
	scoop, _ := s.AddInstanceNode()
	ball, _ := s.AddInstanceNode()
	named, _ := s.AddInstanceNode()
	_, _ = s.AddInstanceNode() // no edges
	first, _ := s.AddConceptNode("freezer tray")
	second, _ := s.AddConceptNode("ice cream ball")
	_, _ = s.AddConceptNode("unused")
	photo, _ := s.AddSpacetimeNode("https://example.com/tray.jpg")
	untagged, _ := s.AddSpacetimeNode("https://example.com/empty.jpg")

	// the same object edge twice
	for _, id := range []string{scoop, scoop, ball} {
		require.NoError(t, s.AddObjectAndInstanceEdge(objectgraph.ObjectInstanceEdge{ObjectID: tray, InstanceID: id}))
	}
	// an instance reachable only through its concepts
	require.NoError(t, s.AddConceptAndInstanceEdge(objectgraph.ConceptInstanceEdge{ConceptID: second, InstanceID: named}))
	require.NoError(t, s.AddConceptAndInstanceEdge(objectgraph.ConceptInstanceEdge{ConceptID: first, InstanceID: named}))
	// spacetime directions are independent
	require.NoError(t, s.AddSpacetimeToInstanceEdge(photo, scoop, &objectgraph.TagInfo{
		Name:       objectgraph.TagPoint,
		Coordinate: &objectgraph.Coordinate{X: 10, Y: 20},
	}))
	require.NoError(t, s.AddSpacetimeToInstanceEdge(photo, ball, nil))
	require.NoError(t, s.AddInstanceToSpacetimeEdge(scoop, photo))
	require.NoError(t, s.AddInstanceToSpacetimeEdge(named, untagged))
	require.NoError(t, s.AddInstanceToInstanceEdge(scoop, ball))
	require.NoError(t, s.AddInstanceToInstanceEdge(scoop, ball))

	desc := "double scoop"
	require.NoError(t, s.EditInstanceNode(scoop, objectgraph.InstanceDetail{
		Description:   &desc,
		Hashtags:      map[string][]string{"flavour": {"chocolate", "vanilla"}},
		Prices:        []objectgraph.Price{{Value: 48, Currency: "HKD", Description: "cup"}},
		IsRecommended: objectgraph.Recommend(false),
	}))
	require.NoError(t, s.EditInstanceNode(ball, objectgraph.InstanceDetail{IsRecommended: objectgraph.Recommend(true)}))

	want := s.Snapshot()

	later := saved.Add(48 * time.Hour)
	reloaded := newStore(objectgraph.WithClock(func() time.Time { return later }))
	stats, err := New(feedsFromSnapshot(want), zap.NewNop()).Load(context.Background(), reloaded)
	require.NoError(t, err)

	if diff := cmp.Diff(want, reloaded.Snapshot()); diff != "" {
		t.Errorf("reloaded snapshot mismatch (-saved +reloaded):\n%s", diff)
	}
	assert.Equal(t, 2, stats.Objects)
	assert.Equal(t, 4, stats.Instances)
	assert.Equal(t, 3, stats.Concepts)
	assert.Equal(t, 2, stats.Spacetimes)
	assert.Equal(t, 2, stats.ChildEdges)
}

func TestLoad_CreatesNodesNamedOnlyByEdges(t *testing.T) {
	src := &fakeSource{
		instanceConcepts: []objectgraph.InstanceConceptRecord{
			{InstanceNode: ref("scoop"), ConceptNode: objectgraph.ConceptRef{Name: "ice cream"}},
		},
		children: []objectgraph.InstanceChildRecord{
			{ParentInstance: ref("scoop"), ChildInstance: ref("cone")},
		},
	}

	store := newStore()
	stats, err := New(src, zap.NewNop()).Load(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Instances)
	assert.True(t, store.Has(objectgraph.InstanceType, "scoop"))
	assert.True(t, store.Has(objectgraph.InstanceType, "cone"))
	assert.Equal(t, []string{"cone"}, store.Snapshot().Instance.AdjacencyList["scoop"].Instance)
}

func TestLoad_RowsWithoutIDsAreNotMerged(t *testing.T) {
	src := &fakeSource{
		objectInstances: []objectgraph.ObjectInstanceRecord{
			{ObjectNode: ref("freezer_tray"), InstanceNode: ref("freezer_tray_0")},
			{ObjectNode: ref("freezer_tray"), InstanceNode: ref("freezer_tray_1")},
		},
		instanceConcepts: []objectgraph.InstanceConceptRecord{
			{InstanceNode: ref("freezer_tray_0"), ConceptNode: objectgraph.ConceptRef{Name: "freezer tray"}},
			{InstanceNode: ref("freezer_tray_1"), ConceptNode: objectgraph.ConceptRef{Name: "freezer tray"}},
		},
		spacetimeInstances: []objectgraph.SpacetimeInstanceRecord{
			{SpacetimeNode: objectgraph.SpacetimeRef{PhotoURI: "photo"}, InstanceNode: ref("freezer_tray_0")},
			{SpacetimeNode: objectgraph.SpacetimeRef{PhotoURI: "photo"}, InstanceNode: ref("freezer_tray_1")},
		},
	}

	store := newStore()
	stats, err := New(src, zap.NewNop()).Load(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Concepts)
	assert.Equal(t, 2, stats.Spacetimes)

	snap := store.Snapshot()
	require.Len(t, snap.Concept.Nodes, 2)
	assert.NotEqual(t, snap.Concept.Nodes[0].ID, snap.Concept.Nodes[1].ID)
	// rows for spacetimes without ids build both directions
	require.Len(t, snap.Spacetime.Nodes, 2)
	second := snap.Spacetime.Nodes[1].ID
	assert.Equal(t, []objectgraph.SpacetimeInstanceRef{{ID: "freezer_tray_1"}}, snap.Spacetime.AdjacencyList[second].Instance)
	assert.Equal(t, []string{second}, snap.Instance.AdjacencyList["freezer_tray_1"].Spacetime)
}

func TestLoad_FeedErrorLeavesStoreUntouched(t *testing.T) {
	src := sampleSource()
	boom := errors.New("connection reset")
	src.childrenErr = boom
	src.blockConcepts = true

	store := newStore()
	_, err := New(src, zap.NewNop()).Load(context.Background(), store)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "instance children feed")

	counts := store.Counts()
	for _, n := range counts.Nodes {
		assert.Zero(t, n)
	}
}

func TestLoad_EmptyIDSurfacesStoreError(t *testing.T) {
	src := sampleSource()
	src.children = append(src.children, objectgraph.InstanceChildRecord{
		ParentInstance: ref("freezer_tray_0"),
		ChildInstance:  ref(""),
	})

	_, err := New(src, zap.NewNop()).Load(context.Background(), newStore())
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Contains(t, err.Error(), "instance children feed")

	var notFound *apperrors.ErrNodeNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "instance", notFound.NodeType)
}

func TestLoad_IntoPopulatedStoreReusesNodes(t *testing.T) {
	store := newStore()
	_, err := store.AddObjectNode("freezer_tray")
	require.NoError(t, err)
	_, err = store.AddInstanceNode("freezer_tray_0")
	require.NoError(t, err)

	stats, err := New(sampleSource(), zap.NewNop()).Load(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Objects)
	assert.Equal(t, 3, stats.Instances)
	assert.Equal(t, 3, store.Counts().Nodes[objectgraph.ObjectType])
}

func TestLoad_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := newStore()
	_, err := New(sampleSource(), zap.NewNop()).Load(ctx, store)
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeContext))
	assert.Empty(t, store.Snapshot().Object.Nodes)
}
