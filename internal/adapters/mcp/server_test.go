package mcpadapter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/talent-match-engine/internal/core/domain"
)

type matchServiceFake struct {
	result *domain.MatchResult
	err    error
	last   domain.MatchRequest
}

func (f *matchServiceFake) Match(_ context.Context, req domain.MatchRequest) (*domain.MatchResult, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func callToolRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("expected tool result content")
	}
	text, ok := mcp.AsTextContent(result.Content[0])
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestSearchBySkillsRendersCandidates(t *testing.T) {
	fake := &matchServiceFake{result: &domain.MatchResult{
		Candidates: []domain.RankedCandidate{
			{
				CandidateID:    "cand-1",
				MatchScore:     0.82,
				Confidence:     82,
				ConfidenceBand: domain.BandHigh,
				Explanation: &domain.Explanation{
					SkillMatches:        []string{"Kubernetes (synonym match: K8s)"},
					ConfidenceRationale: []string{"High confidence (82/100), driven primarily by vector similarity"},
				},
			},
		},
		Mode:      domain.ModeHybrid,
		SessionID: "sess-9",
	}}
	srv := NewServer(fake, "1.0.0")

	result, err := srv.handleSearchBySkills(context.Background(), callToolRequest(map[string]any{
		"required_skills":  []string{"Kubernetes", "AWS"},
		"preferred_skills": []string{"Terraform"},
		"experience_level": "senior",
		"top_k":            3,
		"session_id":       "sess-9",
	}))
	if err != nil {
		t.Fatalf("handleSearchBySkills: %v", err)
	}

	if fake.last.Criteria.Experience != domain.ExperienceSenior {
		t.Fatalf("experience = %q", fake.last.Criteria.Experience)
	}
	if fake.last.TopK != 3 || fake.last.SessionID != "sess-9" {
		t.Fatalf("request = %+v", fake.last)
	}

	text := textContent(t, result)
	for _, want := range []string{
		"## Search Results: Skill-Based Search",
		"**Required Skills:** Kubernetes, AWS",
		"**Preferred Skills:** Terraform",
		"Candidate cand-1",
		"High (82/100)",
		"Kubernetes (synonym match: K8s)",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in rendered result:\n%s", want, text)
		}
	}
}

func TestSearchBySkillsRequiresSkills(t *testing.T) {
	srv := NewServer(&matchServiceFake{}, "1.0.0")

	result, err := srv.handleSearchBySkills(context.Background(), callToolRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handleSearchBySkills: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result for missing required_skills")
	}
}

func TestSearchBySkillsRendersNoCandidatesSuggestions(t *testing.T) {
	fake := &matchServiceFake{result: &domain.MatchResult{Mode: domain.ModeHybrid}}
	srv := NewServer(fake, "1.0.0")

	result, err := srv.handleSearchBySkills(context.Background(), callToolRequest(map[string]any{
		"required_skills": []string{"COBOL", "Kubernetes"},
	}))
	if err != nil {
		t.Fatalf("handleSearchBySkills: %v", err)
	}

	text := textContent(t, result)
	if !strings.Contains(text, "## No Candidates Found") {
		t.Fatalf("expected no-candidates heading:\n%s", text)
	}
	if !strings.Contains(text, "Try broadening criteria") {
		t.Fatalf("expected suggestions block:\n%s", text)
	}
}

func TestSearchByProfileBuildsProfileCriteria(t *testing.T) {
	fake := &matchServiceFake{result: &domain.MatchResult{
		Candidates: []domain.RankedCandidate{{CandidateID: "cand-2", MatchScore: 0.6, Confidence: 60, ConfidenceBand: domain.BandMedium}},
		Mode:       domain.ModeLocal,
	}}
	srv := NewServer(fake, "1.0.0")

	result, err := srv.handleSearchByProfile(context.Background(), callToolRequest(map[string]any{
		"profile_name": "Cloud Architect",
	}))
	if err != nil {
		t.Fatalf("handleSearchByProfile: %v", err)
	}

	if fake.last.Criteria.ProfileName != "Cloud Architect" {
		t.Fatalf("profile name = %q", fake.last.Criteria.ProfileName)
	}
	text := textContent(t, result)
	if !strings.Contains(text, "**Profile:** Cloud Architect") {
		t.Fatalf("expected profile line:\n%s", text)
	}
}

func TestToolHandlersReportFailuresAsToolErrors(t *testing.T) {
	fake := &matchServiceFake{err: errors.New("providers down")}
	srv := NewServer(fake, "1.0.0")

	result, err := srv.handleSearchByProfile(context.Background(), callToolRequest(map[string]any{
		"profile_name": "Data Engineer",
	}))
	if err != nil {
		t.Fatalf("handler should not return protocol error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool-level error result")
	}
}
