package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/talent-match-engine/internal/core/domain"
	"github.com/kirillkom/talent-match-engine/internal/core/ports"
)

// DispatcherOptions bound a single retrieval fan-out. Zero values fall back
// to the documented defaults: 2-hop local radius, 3-hop global radius, a
// 30-candidate recall pool and an 8s per-provider timeout inside the
// 10-second end-to-end query budget.
type DispatcherOptions struct {
	ProviderTimeout time.Duration
	LocalHopRadius  int
	GlobalHopRadius int
	CandidatePool   int
}

func (o DispatcherOptions) normalize() DispatcherOptions {
	out := o
	if out.ProviderTimeout <= 0 {
		out.ProviderTimeout = 8 * time.Second
	}
	if out.LocalHopRadius <= 0 {
		out.LocalHopRadius = 2
	}
	if out.GlobalHopRadius <= 0 {
		out.GlobalHopRadius = 3
	}
	if out.CandidatePool <= 0 {
		out.CandidatePool = 30
	}
	return out
}

// Dispatcher fans a classified query out to the signal providers and fans
// the raw hits back in as complete per-candidate signal bundles. A candidate
// missing from one source scores zero for that source; it is never excluded
// for it.
type Dispatcher struct {
	vector ports.VectorSearcher
	graph  ports.GraphTraverser
	opts   DispatcherOptions
}

func NewDispatcher(vector ports.VectorSearcher, graph ports.GraphTraverser, opts DispatcherOptions) *Dispatcher {
	return &Dispatcher{
		vector: vector,
		graph:  graph,
		opts:   opts.normalize(),
	}
}

// Dispatch runs the strategy selected for the query and returns the bundle
// map plus a degraded flag. Partial provider failure degrades gracefully;
// total failure is ErrRetrievalUnavailable, never an empty success.
func (d *Dispatcher) Dispatch(ctx context.Context, criteria domain.Criteria, mode domain.RetrievalMode) (map[string]domain.SignalBundle, bool, error) {
	switch mode {
	case domain.ModeNaive:
		return d.dispatchNaive(ctx, criteria)
	case domain.ModeLocal:
		return d.dispatchLocal(ctx, criteria)
	case domain.ModeGlobal:
		return d.dispatchGlobal(ctx, criteria)
	case domain.ModeHybrid:
		return d.dispatchHybrid(ctx, criteria)
	default:
		return nil, false, domain.WrapError(domain.ErrInvalidInput, "dispatch", fmt.Errorf("unhandled retrieval mode %q", mode))
	}
}

// Naive: vector similarity only. Bundles never carry graph paths in this
// mode; that is the strategy's documented limitation.
func (d *Dispatcher) dispatchNaive(ctx context.Context, criteria domain.Criteria) (map[string]domain.SignalBundle, bool, error) {
	hits, err := d.searchVector(ctx, criteria.QueryText(), nil)
	if err != nil {
		return nil, false, domain.WrapError(domain.ErrRetrievalUnavailable, "naive dispatch", err)
	}
	bundles := make(map[string]domain.SignalBundle, len(hits))
	mergeVectorHits(bundles, hits)
	return bundles, false, nil
}

// Local: broad vector recall first, then a small-radius traversal around
// the anchor restricted to candidates the vector pass already surfaced.
func (d *Dispatcher) dispatchLocal(ctx context.Context, criteria domain.Criteria) (map[string]domain.SignalBundle, bool, error) {
	bundles := make(map[string]domain.SignalBundle, d.opts.CandidatePool)

	vectorHits, vectorErr := d.searchVector(ctx, criteria.QueryText(), nil)
	if vectorErr != nil {
		// Vector recall gone; fall back to an unrestricted traversal.
		graphHits, graphErr := d.traverseGraph(ctx, criteria.AnchorEntity(), d.opts.LocalHopRadius, nil)
		if graphErr != nil {
			return nil, false, bothProvidersFailed("local dispatch", vectorErr, graphErr)
		}
		mergeGraphHits(bundles, graphHits)
		return bundles, true, nil
	}
	mergeVectorHits(bundles, vectorHits)
	if len(bundles) == 0 {
		return bundles, false, nil
	}

	graphHits, graphErr := d.traverseGraph(ctx, criteria.AnchorEntity(), d.opts.LocalHopRadius, candidateIDs(bundles))
	if graphErr != nil {
		slog.Warn("graph provider failed, degrading to vector-only signals", "mode", domain.ModeLocal, "error", graphErr)
		return bundles, true, nil
	}
	mergeGraphHits(bundles, graphHits)
	return bundles, false, nil
}

// Global: domain-wide traversal first, then a vector pass over the
// discovered candidate set to order it by relevance.
func (d *Dispatcher) dispatchGlobal(ctx context.Context, criteria domain.Criteria) (map[string]domain.SignalBundle, bool, error) {
	bundles := make(map[string]domain.SignalBundle, d.opts.CandidatePool)

	graphHits, graphErr := d.traverseGraph(ctx, criteria.AnchorEntity(), d.opts.GlobalHopRadius, nil)
	if graphErr != nil {
		// Traversal gone; fall back to broad vector recall.
		vectorHits, vectorErr := d.searchVector(ctx, criteria.QueryText(), nil)
		if vectorErr != nil {
			return nil, false, bothProvidersFailed("global dispatch", vectorErr, graphErr)
		}
		mergeVectorHits(bundles, vectorHits)
		return bundles, true, nil
	}
	mergeGraphHits(bundles, graphHits)
	if len(bundles) == 0 {
		return bundles, false, nil
	}

	vectorHits, vectorErr := d.searchVector(ctx, criteria.QueryText(), candidateIDs(bundles))
	if vectorErr != nil {
		slog.Warn("vector provider failed, degrading to graph-only signals", "mode", domain.ModeGlobal, "error", vectorErr)
		return bundles, true, nil
	}
	mergeVectorHits(bundles, vectorHits)
	return bundles, false, nil
}

// Hybrid: both providers concurrently, joined on candidate id.
func (d *Dispatcher) dispatchHybrid(ctx context.Context, criteria domain.Criteria) (map[string]domain.SignalBundle, bool, error) {
	type vectorOutcome struct {
		hits []domain.VectorHit
		err  error
	}
	type graphOutcome struct {
		hits []domain.GraphHit
		err  error
	}

	vectorCh := make(chan vectorOutcome, 1)
	graphCh := make(chan graphOutcome, 1)

	go func() {
		hits, err := d.searchVector(ctx, criteria.QueryText(), nil)
		vectorCh <- vectorOutcome{hits: hits, err: err}
	}()
	go func() {
		hits, err := d.traverseGraph(ctx, criteria.AnchorEntity(), d.opts.GlobalHopRadius, nil)
		graphCh <- graphOutcome{hits: hits, err: err}
	}()

	vector := <-vectorCh
	graph := <-graphCh

	if vector.err != nil && graph.err != nil {
		return nil, false, bothProvidersFailed("hybrid dispatch", vector.err, graph.err)
	}

	bundles := make(map[string]domain.SignalBundle, len(vector.hits)+len(graph.hits))
	degraded := false
	if vector.err != nil {
		slog.Warn("vector provider failed, degrading to graph-only signals", "mode", domain.ModeHybrid, "error", vector.err)
		degraded = true
	} else {
		mergeVectorHits(bundles, vector.hits)
	}
	if graph.err != nil {
		slog.Warn("graph provider failed, degrading to vector-only signals", "mode", domain.ModeHybrid, "error", graph.err)
		degraded = true
	} else {
		mergeGraphHits(bundles, graph.hits)
	}
	return bundles, degraded, nil
}

func (d *Dispatcher) searchVector(ctx context.Context, queryText string, restrict []string) ([]domain.VectorHit, error) {
	callCtx, cancel := context.WithTimeout(ctx, d.opts.ProviderTimeout)
	defer cancel()
	hits, err := d.vector.Search(callCtx, queryText, d.opts.CandidatePool, restrict)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return hits, nil
}

func (d *Dispatcher) traverseGraph(ctx context.Context, anchor string, hopRadius int, restrict []string) ([]domain.GraphHit, error) {
	if anchor == "" {
		return nil, nil
	}
	callCtx, cancel := context.WithTimeout(ctx, d.opts.ProviderTimeout)
	defer cancel()
	hits, err := d.graph.Traverse(callCtx, anchor, hopRadius, restrict)
	if err != nil {
		return nil, fmt.Errorf("graph traverse: %w", err)
	}
	return hits, nil
}

func mergeVectorHits(bundles map[string]domain.SignalBundle, hits []domain.VectorHit) {
	for _, hit := range hits {
		if hit.CandidateID == "" {
			continue
		}
		bundle, ok := bundles[hit.CandidateID]
		if !ok {
			bundle = domain.SignalBundle{CandidateID: hit.CandidateID}
		}
		if hit.Score > bundle.VectorScore {
			bundle.VectorScore = clamp01(hit.Score)
		}
		if bundle.Snippet == "" {
			bundle.Snippet = hit.Snippet
		}
		bundles[hit.CandidateID] = bundle
	}
}

func mergeGraphHits(bundles map[string]domain.SignalBundle, hits []domain.GraphHit) {
	for _, hit := range hits {
		if hit.CandidateID == "" {
			continue
		}
		// Zero-hop paths are invalid input from the provider, not signals.
		if err := hit.Path.Validate(); err != nil {
			slog.Warn("dropping invalid graph path", "candidate_id", hit.CandidateID, "error", err)
			continue
		}
		bundle, ok := bundles[hit.CandidateID]
		if !ok {
			bundle = domain.SignalBundle{CandidateID: hit.CandidateID}
		}
		bundle.GraphPaths = append(bundle.GraphPaths, hit.Path)
		bundles[hit.CandidateID] = bundle
	}
}

func candidateIDs(bundles map[string]domain.SignalBundle) []string {
	out := make([]string, 0, len(bundles))
	for id := range bundles {
		out = append(out, id)
	}
	return out
}

func bothProvidersFailed(operation string, vectorErr, graphErr error) error {
	return domain.WrapError(domain.ErrRetrievalUnavailable, operation,
		fmt.Errorf("vector provider: %v; graph provider: %v", vectorErr, graphErr))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
