package ports

import (
	"context"
	"time"

	"github.com/kirillkom/talent-match-engine/internal/core/domain"
)

// VectorSearcher is the vector-similarity signal provider. The backend's
// internal ranking is a black box; restrict limits results to the given
// candidate ids when non-empty.
type VectorSearcher interface {
	Search(ctx context.Context, queryText string, limit int, restrict []string) ([]domain.VectorHit, error)
}

// GraphTraverser is the graph-traversal signal provider. It returns
// relationship paths found within hopRadius edges of the anchor entity,
// restricted to the given candidate ids when non-empty.
type GraphTraverser interface {
	Traverse(ctx context.Context, anchor string, hopRadius int, restrict []string) ([]domain.GraphHit, error)
}

// SessionStore persists per-conversation accumulated criteria. Get returns
// ErrSessionNotFound for an unknown or expired session.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*domain.SessionContext, error)
	Put(ctx context.Context, session domain.SessionContext) error
	DeleteIdle(ctx context.Context, idleFor time.Duration) (int64, error)
}

// EventPublisher emits match audit events for downstream consumers.
type EventPublisher interface {
	PublishMatchCompleted(ctx context.Context, event domain.MatchEvent) error
}
