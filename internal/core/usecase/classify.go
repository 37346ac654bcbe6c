package usecase

import (
	"github.com/kirillkom/talent-match-engine/internal/core/domain"
)

// classifyMode selects the retrieval strategy for a criteria set. Rules are
// evaluated in order, first match wins. The function is pure: identical
// criteria always yield the same mode, which keeps conversational
// re-classification stable as criteria accumulate.
func classifyMode(criteria domain.Criteria) domain.RetrievalMode {
	switch {
	case isExactEntityLookup(criteria):
		return domain.ModeNaive
	case isAnchoredLookup(criteria):
		return domain.ModeLocal
	case isDomainScan(criteria):
		return domain.ModeGlobal
	default:
		return domain.ModeHybrid
	}
}

// A single skill term with no qualifiers is an exact-entity lookup.
func isExactEntityLookup(criteria domain.Criteria) bool {
	if criteria.KeyCount() != 1 {
		return false
	}
	return len(criteria.RequiredSkills)+len(criteria.PreferredSkills) == 1
}

// A named profile with at most one auxiliary filter stays local to the
// anchor's graph neighborhood.
func isAnchoredLookup(criteria domain.Criteria) bool {
	return criteria.ProfileName != "" && criteria.KeyCount() <= 2
}

// A domain/category scan with no entity anchor spans the whole graph.
func isDomainScan(criteria domain.Criteria) bool {
	return criteria.Domain != "" &&
		criteria.ProfileName == "" &&
		len(criteria.RequiredSkills) == 0 &&
		len(criteria.PreferredSkills) == 0
}
