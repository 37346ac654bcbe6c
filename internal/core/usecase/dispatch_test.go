package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/talent-match-engine/internal/core/domain"
)

type vectorFake struct {
	hits     []domain.VectorHit
	err      error
	calls    int
	restrict []string
}

func (f *vectorFake) Search(_ context.Context, _ string, _ int, restrict []string) ([]domain.VectorHit, error) {
	f.calls++
	f.restrict = restrict
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

type graphFake struct {
	hits     []domain.GraphHit
	err      error
	calls    int
	radius   int
	restrict []string
}

func (f *graphFake) Traverse(_ context.Context, _ string, hopRadius int, restrict []string) ([]domain.GraphHit, error) {
	f.calls++
	f.radius = hopRadius
	f.restrict = restrict
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func onePath(entities []string, relations []string) domain.GraphPath {
	return domain.GraphPath{Entities: entities, Relations: relations}
}

func TestDispatchNaiveSkipsGraphProvider(t *testing.T) {
	vector := &vectorFake{hits: []domain.VectorHit{{CandidateID: "cv-1", Score: 0.8}}}
	graph := &graphFake{}
	d := NewDispatcher(vector, graph, DispatcherOptions{})

	criteria := domain.Criteria{RequiredSkills: []string{"Kubernetes"}}
	bundles, degraded, err := d.Dispatch(context.Background(), criteria, domain.ModeNaive)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if degraded {
		t.Fatalf("naive dispatch must not be degraded")
	}
	if graph.calls != 0 {
		t.Fatalf("naive dispatch must not call the graph provider, got %d calls", graph.calls)
	}
	bundle, ok := bundles["cv-1"]
	if !ok {
		t.Fatalf("expected bundle for cv-1")
	}
	if len(bundle.GraphPaths) != 0 {
		t.Fatalf("naive bundles must have empty graph paths, got %d", len(bundle.GraphPaths))
	}
}

func TestDispatchLocalRestrictsGraphToVectorCandidates(t *testing.T) {
	vector := &vectorFake{hits: []domain.VectorHit{
		{CandidateID: "cv-1", Score: 0.9},
		{CandidateID: "cv-2", Score: 0.5},
	}}
	graph := &graphFake{hits: []domain.GraphHit{
		{CandidateID: "cv-1", Path: onePath([]string{"Cloud Architect", "AWS"}, []string{"REQUIRES"})},
	}}
	d := NewDispatcher(vector, graph, DispatcherOptions{})

	criteria := domain.Criteria{ProfileName: "Cloud Architect"}
	bundles, degraded, err := d.Dispatch(context.Background(), criteria, domain.ModeLocal)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if degraded {
		t.Fatalf("unexpected degraded flag")
	}
	if graph.radius != 2 {
		t.Fatalf("local dispatch must use 2-hop radius, got %d", graph.radius)
	}
	if len(graph.restrict) != 2 {
		t.Fatalf("graph call must be restricted to the vector candidate set, got %v", graph.restrict)
	}
	if len(bundles["cv-1"].GraphPaths) != 1 {
		t.Fatalf("expected graph path on cv-1")
	}
	if len(bundles["cv-2"].GraphPaths) != 0 {
		t.Fatalf("cv-2 must keep a complete bundle with zero graph signal")
	}
}

func TestDispatchGlobalTraversesFirst(t *testing.T) {
	vector := &vectorFake{hits: []domain.VectorHit{{CandidateID: "cv-1", Score: 0.7}}}
	graph := &graphFake{hits: []domain.GraphHit{
		{CandidateID: "cv-1", Path: onePath([]string{"infrastructure", "Kubernetes", "cv-1"}, []string{"CONTAINS", "HAS_SKILL"})},
	}}
	d := NewDispatcher(vector, graph, DispatcherOptions{})

	criteria := domain.Criteria{Domain: "infrastructure"}
	bundles, degraded, err := d.Dispatch(context.Background(), criteria, domain.ModeGlobal)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if degraded {
		t.Fatalf("unexpected degraded flag")
	}
	if graph.radius != 3 {
		t.Fatalf("global dispatch must use 3-hop radius, got %d", graph.radius)
	}
	if len(vector.restrict) != 1 || vector.restrict[0] != "cv-1" {
		t.Fatalf("vector re-score must be restricted to graph candidates, got %v", vector.restrict)
	}
	if bundles["cv-1"].VectorScore != 0.7 {
		t.Fatalf("expected vector re-score merged into bundle")
	}
}

func TestDispatchHybridJoinsBothSources(t *testing.T) {
	vector := &vectorFake{hits: []domain.VectorHit{
		{CandidateID: "cv-1", Score: 0.9},
		{CandidateID: "cv-2", Score: 0.4},
	}}
	graph := &graphFake{hits: []domain.GraphHit{
		{CandidateID: "cv-2", Path: onePath([]string{"AWS", "cv-2"}, []string{"HAS_SKILL"})},
		{CandidateID: "cv-3", Path: onePath([]string{"AWS", "cv-3"}, []string{"HAS_SKILL"})},
	}}
	d := NewDispatcher(vector, graph, DispatcherOptions{})

	criteria := domain.Criteria{
		ProfileName:    "Cloud Architect",
		RequiredSkills: []string{"AWS", "Terraform"},
		Experience:     domain.ExperienceSenior,
	}
	bundles, degraded, err := d.Dispatch(context.Background(), criteria, domain.ModeHybrid)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if degraded {
		t.Fatalf("unexpected degraded flag")
	}
	if vector.calls != 1 || graph.calls != 1 {
		t.Fatalf("hybrid dispatch must call both providers, vector=%d graph=%d", vector.calls, graph.calls)
	}
	if len(bundles) != 3 {
		t.Fatalf("expected 3 joined candidates, got %d", len(bundles))
	}
	// Graph-only candidate keeps a zero vector contribution, not "no data".
	if bundles["cv-3"].VectorScore != 0 {
		t.Fatalf("graph-only candidate must score 0 for vector signal")
	}
}

func TestDispatchHybridDegradesOnSingleProviderFailure(t *testing.T) {
	vector := &vectorFake{hits: []domain.VectorHit{
		{CandidateID: "cv-1", Score: 0.9},
		{CandidateID: "cv-2", Score: 0.8},
		{CandidateID: "cv-3", Score: 0.7},
		{CandidateID: "cv-4", Score: 0.6},
		{CandidateID: "cv-5", Score: 0.5},
	}}
	graph := &graphFake{err: context.DeadlineExceeded}
	d := NewDispatcher(vector, graph, DispatcherOptions{})

	criteria := domain.Criteria{RequiredSkills: []string{"Go", "Rust"}}
	bundles, degraded, err := d.Dispatch(context.Background(), criteria, domain.ModeHybrid)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !degraded {
		t.Fatalf("expected degraded flag after graph timeout")
	}
	if len(bundles) != 5 {
		t.Fatalf("expected 5 surviving candidates, got %d", len(bundles))
	}
	for id, bundle := range bundles {
		if len(bundle.GraphPaths) != 0 {
			t.Fatalf("candidate %s must carry no graph paths in degraded mode", id)
		}
	}
}

func TestDispatchHybridBothProvidersFailed(t *testing.T) {
	vector := &vectorFake{err: errors.New("vector down")}
	graph := &graphFake{err: errors.New("graph down")}
	d := NewDispatcher(vector, graph, DispatcherOptions{})

	criteria := domain.Criteria{RequiredSkills: []string{"Go", "Rust"}}
	_, _, err := d.Dispatch(context.Background(), criteria, domain.ModeHybrid)
	if !domain.IsKind(err, domain.ErrRetrievalUnavailable) {
		t.Fatalf("expected ErrRetrievalUnavailable, got %v", err)
	}
}

func TestDispatchDropsZeroHopPaths(t *testing.T) {
	vector := &vectorFake{hits: []domain.VectorHit{{CandidateID: "cv-1", Score: 0.4}}}
	graph := &graphFake{hits: []domain.GraphHit{
		{CandidateID: "cv-1", Path: domain.GraphPath{Entities: []string{"solo"}}},
		{CandidateID: "cv-1", Path: onePath([]string{"AWS", "cv-1"}, []string{"HAS_SKILL"})},
	}}
	d := NewDispatcher(vector, graph, DispatcherOptions{})

	criteria := domain.Criteria{RequiredSkills: []string{"AWS"}, Domain: "cloud"}
	bundles, _, err := d.Dispatch(context.Background(), criteria, domain.ModeHybrid)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if got := len(bundles["cv-1"].GraphPaths); got != 1 {
		t.Fatalf("zero-hop path must be rejected, got %d paths", got)
	}
}
