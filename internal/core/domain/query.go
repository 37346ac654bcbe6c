package domain

import (
	"fmt"
	"strings"
)

// RetrievalMode is the closed set of retrieval strategies. A query always
// maps to exactly one mode; the mode is derived from the criteria shape and
// never stored.
type RetrievalMode string

const (
	ModeNaive  RetrievalMode = "naive"
	ModeLocal  RetrievalMode = "local"
	ModeGlobal RetrievalMode = "global"
	ModeHybrid RetrievalMode = "hybrid"
)

// ParseRetrievalMode validates an explicit mode override. An unrecognized
// value is ErrInvalidModeOverride, never a silent fallback.
func ParseRetrievalMode(raw string) (RetrievalMode, error) {
	switch RetrievalMode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeNaive:
		return ModeNaive, nil
	case ModeLocal:
		return ModeLocal, nil
	case ModeGlobal:
		return ModeGlobal, nil
	case ModeHybrid:
		return ModeHybrid, nil
	default:
		return "", WrapError(ErrInvalidModeOverride, "parse retrieval mode", fmt.Errorf("unknown mode %q", raw))
	}
}

type ExperienceLevel string

const (
	ExperienceJunior ExperienceLevel = "junior"
	ExperienceMid    ExperienceLevel = "mid"
	ExperienceSenior ExperienceLevel = "senior"
)

// ParseExperienceLevel accepts the empty string (no filter) or one of the
// three known levels.
func ParseExperienceLevel(raw string) (ExperienceLevel, error) {
	level := ExperienceLevel(strings.ToLower(strings.TrimSpace(raw)))
	switch level {
	case "", ExperienceJunior, ExperienceMid, ExperienceSenior:
		return level, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse experience level", fmt.Errorf("unknown experience level %q", raw))
	}
}

// Criteria is the typed constraint set of a query. Duplicate keys merge
// last-write-wins within a single query; list-valued keys are deduplicated
// case-insensitively preserving first appearance.
type Criteria struct {
	ProfileName     string          `json:"profile_name,omitempty"`
	RequiredSkills  []string        `json:"required_skills,omitempty"`
	PreferredSkills []string        `json:"preferred_skills,omitempty"`
	Experience      ExperienceLevel `json:"experience_level,omitempty"`
	Domain          string          `json:"domain,omitempty"`
	FreeText        string          `json:"free_text,omitempty"`
}

// Normalize trims all terms and drops empties and case-insensitive
// duplicates from list-valued keys.
func (c Criteria) Normalize() Criteria {
	out := c
	out.ProfileName = strings.TrimSpace(c.ProfileName)
	out.Domain = strings.TrimSpace(c.Domain)
	out.FreeText = strings.TrimSpace(c.FreeText)
	out.RequiredSkills = dedupeTerms(c.RequiredSkills)
	out.PreferredSkills = dedupeTerms(c.PreferredSkills)
	return out
}

// KeyCount is the number of distinct populated criteria keys. Free text is
// context, not a criterion.
func (c Criteria) KeyCount() int {
	count := 0
	if c.ProfileName != "" {
		count++
	}
	if len(c.RequiredSkills) > 0 {
		count++
	}
	if len(c.PreferredSkills) > 0 {
		count++
	}
	if c.Experience != "" {
		count++
	}
	if c.Domain != "" {
		count++
	}
	return count
}

// IsEmpty reports whether the criteria carry no usable constraint.
func (c Criteria) IsEmpty() bool {
	return c.KeyCount() == 0
}

// SkillTerms returns required then preferred terms in declaration order.
func (c Criteria) SkillTerms() []string {
	out := make([]string, 0, len(c.RequiredSkills)+len(c.PreferredSkills))
	out = append(out, c.RequiredSkills...)
	out = append(out, c.PreferredSkills...)
	return out
}

// Merge layers an incoming criteria set over an accumulated one. Scalar keys
// are replaced when the incoming query sets them; list keys are unioned with
// incoming terms appended last. Merge is additive and never partially
// applied.
func (c Criteria) Merge(incoming Criteria) Criteria {
	out := c
	if incoming.ProfileName != "" {
		out.ProfileName = incoming.ProfileName
	}
	if incoming.Experience != "" {
		out.Experience = incoming.Experience
	}
	if incoming.Domain != "" {
		out.Domain = incoming.Domain
	}
	if incoming.FreeText != "" {
		out.FreeText = incoming.FreeText
	}
	out.RequiredSkills = dedupeTerms(append(append([]string{}, c.RequiredSkills...), incoming.RequiredSkills...))
	out.PreferredSkills = dedupeTerms(append(append([]string{}, c.PreferredSkills...), incoming.PreferredSkills...))
	return out
}

// AnchorEntity is the entity a graph traversal starts from: the named
// profile when present, otherwise the first required skill, otherwise the
// domain.
func (c Criteria) AnchorEntity() string {
	if c.ProfileName != "" {
		return c.ProfileName
	}
	if len(c.RequiredSkills) > 0 {
		return c.RequiredSkills[0]
	}
	return c.Domain
}

// QueryText builds the natural-language query line handed to the vector
// provider.
func (c Criteria) QueryText() string {
	var b strings.Builder
	b.WriteString("Find ")
	if c.Experience != "" {
		b.WriteString(string(c.Experience))
		b.WriteString(" ")
	}
	b.WriteString("candidates")
	switch {
	case c.ProfileName != "":
		b.WriteString(" matching ")
		b.WriteString(c.ProfileName)
		b.WriteString(" profile")
	case len(c.RequiredSkills) > 0:
		b.WriteString(" with ")
		b.WriteString(strings.Join(c.RequiredSkills, " and "))
		b.WriteString(" experience")
	case c.Domain != "":
		b.WriteString(" in the ")
		b.WriteString(c.Domain)
		b.WriteString(" domain")
	}
	if c.ProfileName != "" && len(c.RequiredSkills) > 0 {
		b.WriteString(" with ")
		b.WriteString(strings.Join(c.RequiredSkills, " and "))
		b.WriteString(" experience")
	}
	if len(c.PreferredSkills) > 0 {
		b.WriteString(". Preferred skills include ")
		b.WriteString(strings.Join(c.PreferredSkills, ", "))
	}
	if c.FreeText != "" {
		b.WriteString(". ")
		b.WriteString(c.FreeText)
	}
	return b.String()
}

// MatchRequest is the caller-facing query: criteria plus an optional
// explicit mode override and an optional session identifier for
// conversational refinement.
type MatchRequest struct {
	Criteria     Criteria `json:"criteria"`
	ModeOverride string   `json:"mode,omitempty"`
	SessionID    string   `json:"session_id,omitempty"`
	TopK         int      `json:"top_k,omitempty"`
}

func dedupeTerms(terms []string) []string {
	if len(terms) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		key := strings.ToLower(term)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, term)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
