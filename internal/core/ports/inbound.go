package ports

import (
	"context"

	"github.com/kirillkom/talent-match-engine/internal/core/domain"
)

// MatchService is the inbound contract for the full retrieval pipeline:
// classify, dispatch, fuse, score, explain.
type MatchService interface {
	Match(ctx context.Context, req domain.MatchRequest) (*domain.MatchResult, error)
}
