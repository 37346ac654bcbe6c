package domain

import (
	"fmt"
	"time"
)

// VectorHit is one raw result from the vector-similarity provider.
type VectorHit struct {
	CandidateID string  `json:"candidate_id"`
	Score       float64 `json:"score"`
	Snippet     string  `json:"snippet,omitempty"`
}

// GraphPath is one relationship path between the anchor entity and a
// candidate entity: an ordered entity sequence with one relation label per
// edge. A valid path has at least one hop.
type GraphPath struct {
	Entities  []string `json:"entities"`
	Relations []string `json:"relations"`
}

func (p GraphPath) HopCount() int {
	return len(p.Relations)
}

func (p GraphPath) Validate() error {
	if len(p.Relations) < 1 {
		return WrapError(ErrInvalidInput, "validate graph path", fmt.Errorf("path must have at least one hop"))
	}
	if len(p.Entities) != len(p.Relations)+1 {
		return WrapError(ErrInvalidInput, "validate graph path",
			fmt.Errorf("path has %d entities for %d relations", len(p.Entities), len(p.Relations)))
	}
	return nil
}

// GraphHit is one raw result from the graph-traversal provider.
type GraphHit struct {
	CandidateID string    `json:"candidate_id"`
	Path        GraphPath `json:"path"`
}

// SignalBundle is the complete per-candidate signal container produced by
// the dispatcher. A candidate either has a complete bundle or is omitted; a
// signal source the candidate was absent from contributes zero, not "no
// data".
type SignalBundle struct {
	CandidateID string      `json:"candidate_id"`
	VectorScore float64     `json:"vector_score"`
	Snippet     string      `json:"snippet,omitempty"`
	GraphPaths  []GraphPath `json:"graph_paths,omitempty"`
}

// SkillMatch records how one criteria term matched a candidate's extracted
// entity evidence.
type SkillMatch struct {
	Term        string `json:"term"`
	MatchedForm string `json:"matched_form"`
	Required    bool   `json:"required"`
	Synonym     bool   `json:"synonym"`
}

type ConfidenceBand string

const (
	BandHigh   ConfidenceBand = "High"
	BandMedium ConfidenceBand = "Medium"
	BandLow    ConfidenceBand = "Low"
)

// Explanation is the structured, deterministic rationale for one ranked
// candidate. An inapplicable section is omitted, never rendered empty.
type Explanation struct {
	ProfileAlignment    []string `json:"profileAlignment,omitempty"`
	SkillMatches        []string `json:"skillMatches,omitempty"`
	GraphInsights       []string `json:"graphInsights,omitempty"`
	ConfidenceRationale []string `json:"confidenceRationale,omitempty"`
}

// RankedCandidate is a signal bundle plus the fused score, confidence and
// explanation derived from it. MatchScore and Confidence are always defined
// together; a candidate without signals is never ranked.
type RankedCandidate struct {
	CandidateID    string         `json:"candidate_id"`
	MatchScore     float64        `json:"match_score"`
	Confidence     int            `json:"confidence"`
	ConfidenceBand ConfidenceBand `json:"confidence_band"`
	Degraded       bool           `json:"degraded,omitempty"`
	Signals        SignalBundle   `json:"signals"`
	SkillMatches   []SkillMatch   `json:"skill_matches,omitempty"`
	Explanation    *Explanation   `json:"explanation,omitempty"`
}

// MatchResult is the caller-facing response: the ordered candidate list plus
// the mode actually used and the degraded flag. An empty list is a
// successful response carrying a hint, not an error.
type MatchResult struct {
	Candidates []RankedCandidate `json:"candidates"`
	Mode       RetrievalMode     `json:"retrieval_mode"`
	Degraded   bool              `json:"degraded"`
	SessionID  string            `json:"session_id,omitempty"`
	Hint       string            `json:"hint,omitempty"`
}

// SessionContext is the accumulated per-conversation criteria set. It is
// created on the first query of a session, merged on every following one and
// discarded after an idle timeout.
type SessionContext struct {
	SessionID string        `json:"session_id"`
	Criteria  Criteria      `json:"criteria"`
	LastMode  RetrievalMode `json:"last_mode,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// MatchEvent is the audit event published after a completed match request.
type MatchEvent struct {
	SessionID  string        `json:"session_id,omitempty"`
	Mode       RetrievalMode `json:"retrieval_mode"`
	Degraded   bool          `json:"degraded"`
	Candidates int           `json:"candidates"`
	DurationMS float64       `json:"duration_ms"`
	OccurredAt time.Time     `json:"occurred_at"`
}
