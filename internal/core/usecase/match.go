package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/talent-match-engine/internal/core/domain"
	"github.com/kirillkom/talent-match-engine/internal/core/ports"
)

const (
	defaultTopK = 5
	maxTopK     = 20
)

const noCandidatesHint = "No candidates matched the combined criteria. " +
	"Try broadening the search: remove some required skills, drop the experience filter, " +
	"or use a known variant spelling (e.g. 'Kubernetes' instead of 'K8s')."

// MatchLimits carries the tunable constants of the pipeline.
type MatchLimits struct {
	Weights            FusionWeights
	Thresholds         ConfidenceThresholds
	SessionIdleTimeout time.Duration
	DefaultTopK        int
}

func (l MatchLimits) normalize() MatchLimits {
	out := l
	out.Weights = l.Weights.normalize()
	out.Thresholds = l.Thresholds.normalize()
	if out.SessionIdleTimeout <= 0 {
		out.SessionIdleTimeout = 30 * time.Minute
	}
	if out.DefaultTopK <= 0 || out.DefaultTopK > maxTopK {
		out.DefaultTopK = defaultTopK
	}
	return out
}

// MatchUseCase runs the full retrieval pipeline: session merge, mode
// classification, dispatch, fusion, confidence scoring and explanation
// synthesis. It holds no mutable state across queries; everything is
// recomputed from fresh signal bundles.
type MatchUseCase struct {
	dispatcher *Dispatcher
	sessions   ports.SessionStore
	events     ports.EventPublisher
	synonyms   *domain.SynonymTable
	limits     MatchLimits
}

func NewMatchUseCase(
	dispatcher *Dispatcher,
	sessions ports.SessionStore,
	events ports.EventPublisher,
	synonyms *domain.SynonymTable,
	limits MatchLimits,
) *MatchUseCase {
	if synonyms == nil {
		synonyms = domain.DefaultSynonymTable()
	}
	return &MatchUseCase{
		dispatcher: dispatcher,
		sessions:   sessions,
		events:     events,
		synonyms:   synonyms,
		limits:     limits.normalize(),
	}
}

func (uc *MatchUseCase) Match(ctx context.Context, req domain.MatchRequest) (*domain.MatchResult, error) {
	started := time.Now()

	criteria, sessionID, err := uc.resolveCriteria(ctx, req)
	if err != nil {
		return nil, err
	}
	if criteria.IsEmpty() {
		return nil, domain.WrapError(domain.ErrEmptyCriteria, "match", fmt.Errorf("query has no usable criteria"))
	}

	mode := classifyMode(criteria)
	if override := strings.TrimSpace(req.ModeOverride); override != "" {
		mode, err = domain.ParseRetrievalMode(override)
		if err != nil {
			return nil, err
		}
	}

	bundles, degraded, err := uc.dispatcher.Dispatch(ctx, criteria, mode)
	if err != nil {
		return nil, err
	}

	candidates := fuseAndRank(criteria, bundles, uc.synonyms, uc.limits.Weights, degraded)
	for i := range candidates {
		candidates[i].Confidence, candidates[i].ConfidenceBand = scoreConfidence(candidates[i].MatchScore, uc.limits.Thresholds)
		candidates[i].Explanation = synthesizeExplanation(criteria, candidates[i], uc.limits.Weights)
	}
	candidates = trimCandidates(candidates, clampTopK(req.TopK, uc.limits.DefaultTopK))

	result := &domain.MatchResult{
		Candidates: candidates,
		Mode:       mode,
		Degraded:   degraded,
		SessionID:  sessionID,
	}
	if len(candidates) == 0 {
		result.Candidates = []domain.RankedCandidate{}
		result.Hint = noCandidatesHint
	}

	// A cancelled request must not mutate session context.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	uc.persistSession(ctx, sessionID, criteria, mode)
	uc.publishEvent(ctx, result, time.Since(started))

	return result, nil
}

// resolveCriteria validates the incoming criteria and layers them over the
// session's accumulated set. An unknown or expired session starts fresh.
func (uc *MatchUseCase) resolveCriteria(ctx context.Context, req domain.MatchRequest) (domain.Criteria, string, error) {
	incoming := req.Criteria.Normalize()
	level, err := domain.ParseExperienceLevel(string(incoming.Experience))
	if err != nil {
		return domain.Criteria{}, "", err
	}
	incoming.Experience = level

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return incoming, uuid.NewString(), nil
	}
	if uc.sessions == nil {
		return incoming, sessionID, nil
	}

	session, err := uc.sessions.Get(ctx, sessionID)
	switch {
	case err == nil:
		return session.Criteria.Merge(incoming), sessionID, nil
	case domain.IsKind(err, domain.ErrSessionNotFound):
		return incoming, sessionID, nil
	default:
		// Session storage trouble must not fail the query itself.
		slog.Warn("session load failed, continuing without accumulated criteria", "session_id", sessionID, "error", err)
		return incoming, sessionID, nil
	}
}

func (uc *MatchUseCase) persistSession(ctx context.Context, sessionID string, criteria domain.Criteria, mode domain.RetrievalMode) {
	if uc.sessions == nil {
		return
	}
	err := uc.sessions.Put(ctx, domain.SessionContext{
		SessionID: sessionID,
		Criteria:  criteria,
		LastMode:  mode,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		slog.Warn("session persist failed", "session_id", sessionID, "error", err)
	}
}

func (uc *MatchUseCase) publishEvent(ctx context.Context, result *domain.MatchResult, elapsed time.Duration) {
	if uc.events == nil {
		return
	}
	event := domain.MatchEvent{
		SessionID:  result.SessionID,
		Mode:       result.Mode,
		Degraded:   result.Degraded,
		Candidates: len(result.Candidates),
		DurationMS: float64(elapsed.Microseconds()) / 1000.0,
		OccurredAt: time.Now().UTC(),
	}
	if err := uc.events.PublishMatchCompleted(ctx, event); err != nil {
		slog.Warn("match event publish failed", "error", err)
	}
}

func clampTopK(topK, fallback int) int {
	if topK <= 0 {
		return fallback
	}
	if topK > maxTopK {
		return maxTopK
	}
	return topK
}
