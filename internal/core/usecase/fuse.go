package usecase

import (
	"sort"
	"strings"

	"github.com/kirillkom/talent-match-engine/internal/core/domain"
)

// scoreEpsilon is the tolerance under which two fused scores count as a tie.
const scoreEpsilon = 1e-6

const (
	requiredTermWeight  = 2.0
	preferredTermWeight = 1.0
)

// FusionWeights are the fixed signal weights of the fusion formula. They are
// configurable but the 0.40/0.30/0.30 defaults are the documented contract.
type FusionWeights struct {
	Vector  float64
	Graph   float64
	Overlap float64
}

func DefaultFusionWeights() FusionWeights {
	return FusionWeights{Vector: 0.40, Graph: 0.30, Overlap: 0.30}
}

func (w FusionWeights) normalize() FusionWeights {
	if w.Vector <= 0 && w.Graph <= 0 && w.Overlap <= 0 {
		return DefaultFusionWeights()
	}
	return w
}

// fuseAndRank merges each candidate's heterogeneous signals into one match
// score and orders the result deterministically. Candidates whose bundle
// yields no signal at all are dropped before ranking; the degraded flag is
// propagated unchanged to every survivor.
func fuseAndRank(
	criteria domain.Criteria,
	bundles map[string]domain.SignalBundle,
	synonyms *domain.SynonymTable,
	weights FusionWeights,
	degraded bool,
) []domain.RankedCandidate {
	weights = weights.normalize()

	out := make([]domain.RankedCandidate, 0, len(bundles))
	for _, bundle := range bundles {
		matches := matchSkillTerms(criteria, bundle, synonyms)
		vectorScore := clamp01(bundle.VectorScore)
		graphScore := graphPathScore(bundle.GraphPaths)
		overlapScore := entityOverlapScore(criteria, matches)

		if vectorScore <= 0 && graphScore <= 0 && overlapScore <= 0 {
			continue
		}

		out = append(out, domain.RankedCandidate{
			CandidateID:  bundle.CandidateID,
			MatchScore:   weights.Vector*vectorScore + weights.Graph*graphScore + weights.Overlap*overlapScore,
			Degraded:     degraded,
			Signals:      bundle,
			SkillMatches: matches,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		di := out[i].MatchScore - out[j].MatchScore
		if di > scoreEpsilon {
			return true
		}
		if di < -scoreEpsilon {
			return false
		}
		if len(out[i].SkillMatches) != len(out[j].SkillMatches) {
			return len(out[i].SkillMatches) > len(out[j].SkillMatches)
		}
		return out[i].CandidateID < out[j].CandidateID
	})

	return out
}

// graphPathScore sums per-path contributions of 1/hopCount and caps the sum
// at 1.0 so noisy graphs with many paths cannot inflate the score without
// bound.
func graphPathScore(paths []domain.GraphPath) float64 {
	score := 0.0
	for _, path := range paths {
		hops := path.HopCount()
		if hops < 1 {
			continue
		}
		score += 1.0 / float64(hops)
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}

// entityOverlapScore weighs matched terms against the query's total term
// weight, with required terms counting double. A query without skill terms
// contributes zero overlap signal.
func entityOverlapScore(criteria domain.Criteria, matches []domain.SkillMatch) float64 {
	total := requiredTermWeight*float64(len(criteria.RequiredSkills)) +
		preferredTermWeight*float64(len(criteria.PreferredSkills))
	if total <= 0 {
		return 0
	}
	matched := 0.0
	for _, match := range matches {
		if match.Required {
			matched += requiredTermWeight
		} else {
			matched += preferredTermWeight
		}
	}
	return clamp01(matched / total)
}

// matchSkillTerms resolves each required and preferred term against the
// candidate's entity evidence (graph path entities and the matched content
// snippet), exactly or through the synonym table.
func matchSkillTerms(criteria domain.Criteria, bundle domain.SignalBundle, synonyms *domain.SynonymTable) []domain.SkillMatch {
	entities := bundleEntities(bundle)
	snippet := strings.ToLower(bundle.Snippet)

	out := make([]domain.SkillMatch, 0, len(criteria.RequiredSkills)+len(criteria.PreferredSkills))
	appendMatches := func(terms []string, required bool) {
		for _, term := range terms {
			if match, ok := matchTerm(term, entities, snippet, synonyms); ok {
				match.Required = required
				out = append(out, match)
			}
		}
	}
	appendMatches(criteria.RequiredSkills, true)
	appendMatches(criteria.PreferredSkills, false)
	if len(out) == 0 {
		return nil
	}
	return out
}

func matchTerm(term string, entities map[string]struct{}, snippet string, synonyms *domain.SynonymTable) (domain.SkillMatch, bool) {
	for i, form := range synonyms.Expand(term) {
		if !termInEvidence(form, entities, snippet) {
			continue
		}
		return domain.SkillMatch{
			Term:        term,
			MatchedForm: form,
			Synonym:     i > 0,
		}, true
	}
	return domain.SkillMatch{}, false
}

func termInEvidence(form string, entities map[string]struct{}, snippet string) bool {
	lower := strings.ToLower(strings.TrimSpace(form))
	if lower == "" {
		return false
	}
	if _, ok := entities[lower]; ok {
		return true
	}
	return snippet != "" && strings.Contains(snippet, lower)
}

func bundleEntities(bundle domain.SignalBundle) map[string]struct{} {
	out := make(map[string]struct{})
	for _, path := range bundle.GraphPaths {
		for _, entity := range path.Entities {
			entity = strings.ToLower(strings.TrimSpace(entity))
			if entity != "" {
				out[entity] = struct{}{}
			}
		}
	}
	return out
}

func trimCandidates(candidates []domain.RankedCandidate, limit int) []domain.RankedCandidate {
	if limit <= 0 || len(candidates) <= limit {
		return candidates
	}
	return candidates[:limit]
}
