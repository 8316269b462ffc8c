package objectgraph

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_JSONShape(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s := newTestStore(WithIDGenerator(sequentialIDs()), WithClock(func() time.Time { return fixed }))

	entry, err := s.CreateNewObjectAndInstance("ice cream")
	require.NoError(t, err)
	st, _ := s.AddSpacetimeNode("https://example.com/p.jpg")
	require.NoError(t, s.AddSpacetimeToInstanceEdge(st, entry.InstanceID, nil))
	require.NoError(t, s.AddSpacetimeToInstanceEdge(st, entry.InstanceID, &TagInfo{Name: TagPoint, TagDotPosition: "right", IconPosition: "top"}))
	require.NoError(t, s.AddInstanceToSpacetimeEdge(entry.InstanceID, st))

	raw, err := json.Marshal(s.Snapshot())
	require.NoError(t, err)

	want := `{
		"concept": {"nodes": [{"id": "concept-1", "name": "ice cream"}], "adjacencyList": {"concept-1": {"instance": ["instance-1"]}}},
		"object": {"nodes": [{"id": "object-1", "createdAt": "2024-01-02T03:04:05Z"}], "adjacencyList": {"object-1": {"instance": ["instance-1"], "location": []}}},
		"instance": {
			"nodes": [{"id": "instance-1", "description": "", "hashtags": {}, "prices": [{"value": 0, "currency": "HKD", "description": ""}], "isRecommended": null}],
			"adjacencyList": {"instance-1": {"concept": ["concept-1"], "spacetime": ["spacetime-1"], "object": ["object-1"], "instance": []}}
		},
		"spacetime": {
			"nodes": [{"id": "spacetime-1", "photoUri": "https://example.com/p.jpg"}],
			"adjacencyList": {"spacetime-1": {"instance": [
				{"id": "instance-1"},
				{"id": "instance-1", "relationship": {"name": "tag", "tagDotPosition": "right", "iconPosition": "top"}}
			]}}
		}
	}`
	assert.JSONEq(t, want, string(raw))
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	s := newTestStore()
	entry, _ := s.CreateNewObjectAndInstance("ice cream")
	st, _ := s.AddSpacetimeNode("photo")
	require.NoError(t, s.AddSpacetimeToInstanceEdge(st, entry.InstanceID, &TagInfo{Name: TagArea, Coordinate: &Coordinate{X: 1, Y: 2}}))
	require.NoError(t, s.EditInstanceNode(entry.InstanceID, InstanceDetail{
		Hashtags:      map[string][]string{"k": {"v"}},
		IsRecommended: Recommend(false),
	}))

	before := s.Snapshot()
	mutated := s.Snapshot()

	mutated.Concept.Nodes[0].Name = "changed"
	mutated.Concept.AdjacencyList[entry.ConceptID].Instance[0] = "changed"
	mutated.Instance.Nodes[0].Hashtags["k"][0] = "changed"
	mutated.Instance.Nodes[0].Prices[0].Currency = "USD"
	*mutated.Instance.Nodes[0].IsRecommended = true
	mutated.Spacetime.AdjacencyList[st].Instance[0].Relationship.Coordinate.X = 100

	if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
		t.Errorf("store changed through snapshot (-before +after):\n%s", diff)
	}
}

func TestInstanceDetail_JSONPresence(t *testing.T) {
	var absent InstanceDetail
	require.NoError(t, json.Unmarshal([]byte(`{"description":"scoop"}`), &absent))
	require.NotNil(t, absent.Description)
	assert.Equal(t, "scoop", *absent.Description)
	assert.False(t, absent.IsRecommended.Set)
	assert.Nil(t, absent.Hashtags)
	assert.Nil(t, absent.Prices)

	var explicitNull InstanceDetail
	require.NoError(t, json.Unmarshal([]byte(`{"isRecommended":null,"hashtags":{},"prices":[]}`), &explicitNull))
	assert.True(t, explicitNull.IsRecommended.Set)
	assert.Nil(t, explicitNull.IsRecommended.Value)
	assert.NotNil(t, explicitNull.Hashtags)
	assert.NotNil(t, explicitNull.Prices)

	var set InstanceDetail
	require.NoError(t, json.Unmarshal([]byte(`{"isRecommended":true}`), &set))
	require.True(t, set.IsRecommended.Set)
	require.NotNil(t, set.IsRecommended.Value)
	assert.True(t, *set.IsRecommended.Value)

	raw, err := json.Marshal(InstanceDetail{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := newTestStore()
	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				entry, err := s.CreateNewObjectAndInstance("item")
				if !assert.NoError(t, err) {
					return
				}
				desc := "edited"
				assert.NoError(t, s.EditInstanceNode(entry.InstanceID, InstanceDetail{Description: &desc}))
				_ = s.Snapshot()
			}
		}()
	}
	wg.Wait()

	counts := s.Counts()
	assert.Equal(t, workers*perWorker, counts.Nodes[InstanceType])
	assert.Equal(t, workers*perWorker, counts.Edges["concept_instance"])
	assert.Equal(t, workers*perWorker, counts.Edges["object_instance"])
}
