package bootstrap

import (
	"context"
	"time"

	"github.com/kirillkom/talent-match-engine/internal/core/domain"
	"github.com/kirillkom/talent-match-engine/internal/core/ports"
	"github.com/kirillkom/talent-match-engine/internal/observability/metrics"
)

const serviceLabel = "api"

type instrumentedVectorSearcher struct {
	next    ports.VectorSearcher
	metrics *metrics.HTTPServerMetrics
}

func (s *instrumentedVectorSearcher) Search(ctx context.Context, queryText string, limit int, restrict []string) ([]domain.VectorHit, error) {
	start := time.Now()
	hits, err := s.next.Search(ctx, queryText, limit, restrict)
	s.metrics.RecordProviderCall(serviceLabel, "vector", time.Since(start), err)
	return hits, err
}

type instrumentedGraphTraverser struct {
	next    ports.GraphTraverser
	metrics *metrics.HTTPServerMetrics
}

func (t *instrumentedGraphTraverser) Traverse(ctx context.Context, anchor string, hopRadius int, restrict []string) ([]domain.GraphHit, error) {
	start := time.Now()
	hits, err := t.next.Traverse(ctx, anchor, hopRadius, restrict)
	t.metrics.RecordProviderCall(serviceLabel, "graph", time.Since(start), err)
	return hits, err
}
