package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/talent-match-engine/internal/core/domain"
)

// enumeratedHopLimit bounds which paths get their own explanation line;
// longer paths are summarized to keep explanations readable.
const enumeratedHopLimit = 2

// synthesizeExplanation builds the structured rationale for one ranked
// candidate from the signals that produced its score. It performs no
// retrieval and no random choice, so identical inputs always render
// identical explanations.
func synthesizeExplanation(
	criteria domain.Criteria,
	candidate domain.RankedCandidate,
	weights FusionWeights,
) *domain.Explanation {
	explanation := &domain.Explanation{
		ProfileAlignment:    profileAlignmentLines(criteria.AnchorEntity(), candidate.Signals.GraphPaths),
		SkillMatches:        skillMatchLines(candidate.SkillMatches),
		GraphInsights:       graphInsightLines(candidate.Signals.GraphPaths),
		ConfidenceRationale: confidenceRationaleLines(candidate, weights),
	}
	return explanation
}

func profileAlignmentLines(anchor string, paths []domain.GraphPath) []string {
	if anchor == "" || len(paths) == 0 {
		return nil
	}

	lines := make([]string, 0, len(paths))
	summarized := 0
	maxHops := 0
	for _, path := range paths {
		hops := path.HopCount()
		if hops > enumeratedHopLimit {
			summarized++
			if hops > maxHops {
				maxHops = hops
			}
			continue
		}
		lines = append(lines, fmt.Sprintf("%s relates to %s via %s",
			anchor, path.Entities[len(path.Entities)-1], strings.Join(path.Relations, " via ")))
	}
	if summarized > 0 {
		lines = append(lines, fmt.Sprintf("%d longer relationship path(s) within %d hops also connect this candidate", summarized, maxHops))
	}
	if len(lines) == 0 {
		return nil
	}
	return lines
}

func skillMatchLines(matches []domain.SkillMatch) []string {
	if len(matches) == 0 {
		return nil
	}
	lines := make([]string, 0, len(matches))
	for _, match := range matches {
		if match.Synonym {
			lines = append(lines, fmt.Sprintf("%s (synonym match: %s)", match.Term, match.MatchedForm))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s (exact match)", match.Term))
	}
	return lines
}

func graphInsightLines(paths []domain.GraphPath) []string {
	if countDistinctPaths(paths) < 2 {
		return nil
	}
	return []string{"multiple relationship paths reinforce this match"}
}

func confidenceRationaleLines(candidate domain.RankedCandidate, weights FusionWeights) []string {
	weights = weights.normalize()

	vector := weights.Vector * clamp01(candidate.Signals.VectorScore)
	graph := weights.Graph * graphPathScore(candidate.Signals.GraphPaths)
	overlap := candidate.MatchScore - vector - graph

	driver := "vector similarity"
	largest := vector
	if graph > largest {
		driver = "graph relationships"
		largest = graph
	}
	if overlap > largest {
		driver = "entity overlap"
	}

	return []string{fmt.Sprintf("%s confidence (%d/100), driven primarily by %s",
		candidate.ConfidenceBand, candidate.Confidence, driver)}
}

func countDistinctPaths(paths []domain.GraphPath) int {
	seen := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		key := strings.Join(path.Entities, ">") + "|" + strings.Join(path.Relations, ">")
		seen[key] = struct{}{}
	}
	return len(seen)
}
