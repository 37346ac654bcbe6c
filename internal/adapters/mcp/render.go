package mcpadapter

import (
	"fmt"
	"strings"

	"github.com/kirillkom/talent-match-engine/internal/core/domain"
)

func renderSkillSearch(result *domain.MatchResult, args skillSearchArgs) string {
	if len(result.Candidates) == 0 {
		var b strings.Builder
		b.WriteString("## No Candidates Found\n\n")
		b.WriteString(fmt.Sprintf("No candidates found with required skill combination: %s",
			strings.Join(args.RequiredSkills, ", ")))
		if args.ExperienceLevel != "" {
			b.WriteString(fmt.Sprintf(" at %s level", args.ExperienceLevel))
		}
		b.WriteString(".\n\n")
		b.WriteString(noCandidatesSuggestions)
		return b.String()
	}

	var b strings.Builder
	b.WriteString("## Search Results: Skill-Based Search\n\n")
	b.WriteString(fmt.Sprintf("**Required Skills:** %s\n", strings.Join(args.RequiredSkills, ", ")))
	if len(args.PreferredSkills) > 0 {
		b.WriteString(fmt.Sprintf("**Preferred Skills:** %s\n", strings.Join(args.PreferredSkills, ", ")))
	}
	if args.ExperienceLevel != "" {
		b.WriteString(fmt.Sprintf("**Experience Level:** %s\n", args.ExperienceLevel))
	}
	writeCommonSections(&b, result)
	return b.String()
}

func renderProfileSearch(result *domain.MatchResult, args profileSearchArgs) string {
	if len(result.Candidates) == 0 {
		var b strings.Builder
		b.WriteString("## No Candidates Found\n\n")
		b.WriteString(fmt.Sprintf("No candidates found matching profile: %s", args.ProfileName))
		if args.ExperienceLevel != "" {
			b.WriteString(fmt.Sprintf(" at %s level", args.ExperienceLevel))
		}
		b.WriteString(".\n\n")
		b.WriteString(noCandidatesSuggestions)
		return b.String()
	}

	var b strings.Builder
	b.WriteString("## Search Results: Profile-Based Search\n\n")
	b.WriteString(fmt.Sprintf("**Profile:** %s\n", args.ProfileName))
	if args.ExperienceLevel != "" {
		b.WriteString(fmt.Sprintf("**Experience Level:** %s\n", args.ExperienceLevel))
	}
	writeCommonSections(&b, result)
	return b.String()
}

const noCandidatesSuggestions = "**Suggestions:**\n" +
	"- Try broadening criteria (remove some required skills)\n" +
	"- Remove experience level filter\n" +
	"- Check if CVs have been ingested into the knowledge base\n" +
	"- Try semantic variations (e.g., 'K8s' instead of 'Kubernetes')"

func writeCommonSections(b *strings.Builder, result *domain.MatchResult) {
	b.WriteString(fmt.Sprintf("**Retrieval Mode:** %s\n", result.Mode))
	if result.Degraded {
		b.WriteString("**Note:** one signal source was unavailable, results use partial signals\n")
	}
	if result.SessionID != "" {
		b.WriteString(fmt.Sprintf("**Session:** %s\n", result.SessionID))
	}
	b.WriteString("\n---\n")

	for i, candidate := range result.Candidates {
		b.WriteString(fmt.Sprintf("\n### %d. Candidate %s\n", i+1, candidate.CandidateID))
		b.WriteString(fmt.Sprintf("**Match Score:** %.2f | **Confidence:** %s (%d/100)\n",
			candidate.MatchScore, candidate.ConfidenceBand, candidate.Confidence))
		if candidate.Explanation == nil {
			continue
		}
		writeExplanationSection(b, "Profile Alignment", candidate.Explanation.ProfileAlignment)
		writeExplanationSection(b, "Skill Matches", candidate.Explanation.SkillMatches)
		writeExplanationSection(b, "Graph Insights", candidate.Explanation.GraphInsights)
		writeExplanationSection(b, "Confidence", candidate.Explanation.ConfidenceRationale)
	}

	b.WriteString("\n---\n")
	b.WriteString("*Results ranked by hybrid retrieval (vector similarity + graph traversal)*\n")
}

func writeExplanationSection(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("\n**%s:**\n", title))
	for _, line := range lines {
		b.WriteString(fmt.Sprintf("- %s\n", line))
	}
}
