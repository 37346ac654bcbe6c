package domain

import "strings"

// SynonymTable maps skill/entity terms to their known variant spellings so
// that overlap matching can treat "K8s" and "Kubernetes" as the same term.
// Lookups are case-insensitive in both directions: a term matches any
// variant of its group and any group whose canonical form it is a variant
// of.
type SynonymTable struct {
	variants map[string][]string
}

// NewSynonymTable builds a table from canonical-term -> variants groups.
func NewSynonymTable(groups map[string][]string) *SynonymTable {
	variants := make(map[string][]string, len(groups))
	for canonical, forms := range groups {
		key := strings.ToLower(strings.TrimSpace(canonical))
		if key == "" {
			continue
		}
		group := make([]string, 0, len(forms)+1)
		group = append(group, strings.TrimSpace(canonical))
		for _, form := range forms {
			form = strings.TrimSpace(form)
			if form != "" {
				group = append(group, form)
			}
		}
		variants[key] = group
		for _, form := range group[1:] {
			variants[strings.ToLower(form)] = group
		}
	}
	return &SynonymTable{variants: variants}
}

// DefaultSynonymTable covers the common IT skill abbreviations the matcher
// ships with. A deployment can replace it with a YAML-loaded table.
func DefaultSynonymTable() *SynonymTable {
	return NewSynonymTable(map[string][]string{
		"Kubernetes":       {"K8s", "k8s"},
		"Amazon Web Services": {"AWS"},
		"Google Cloud Platform": {"GCP"},
		"Microsoft Azure":  {"Azure"},
		"JavaScript":       {"JS", "ECMAScript"},
		"TypeScript":       {"TS"},
		"PostgreSQL":       {"Postgres"},
		"Machine Learning": {"ML"},
		"Artificial Intelligence": {"AI"},
		"Continuous Integration": {"CI", "CI/CD"},
		"Infrastructure as Code": {"IaC"},
	})
}

// Expand returns the term followed by every known variant form. A term with
// no synonym group expands to itself.
func (t *SynonymTable) Expand(term string) []string {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	if t == nil || t.variants == nil {
		return []string{term}
	}
	group, ok := t.variants[strings.ToLower(term)]
	if !ok {
		return []string{term}
	}
	out := make([]string, 0, len(group)+1)
	out = append(out, term)
	for _, form := range group {
		if !strings.EqualFold(form, term) {
			out = append(out, form)
		}
	}
	return out
}
