package usecase

import (
	"testing"

	"github.com/kirillkom/talent-match-engine/internal/core/domain"
)

func TestClassifyModeRules(t *testing.T) {
	tests := []struct {
		name     string
		criteria domain.Criteria
		want     domain.RetrievalMode
	}{
		{
			name:     "single skill is naive",
			criteria: domain.Criteria{RequiredSkills: []string{"Kubernetes"}},
			want:     domain.ModeNaive,
		},
		{
			name:     "single preferred skill is naive",
			criteria: domain.Criteria{PreferredSkills: []string{"Terraform"}},
			want:     domain.ModeNaive,
		},
		{
			name:     "profile alone is local",
			criteria: domain.Criteria{ProfileName: "Cloud Architect"},
			want:     domain.ModeLocal,
		},
		{
			name:     "profile plus one auxiliary filter is local",
			criteria: domain.Criteria{ProfileName: "Cloud Architect", Experience: domain.ExperienceSenior},
			want:     domain.ModeLocal,
		},
		{
			name:     "domain scan without anchor is global",
			criteria: domain.Criteria{Domain: "infrastructure"},
			want:     domain.ModeGlobal,
		},
		{
			name:     "domain plus experience stays global",
			criteria: domain.Criteria{Domain: "infrastructure", Experience: domain.ExperienceMid},
			want:     domain.ModeGlobal,
		},
		{
			name: "three distinct criteria keys are hybrid",
			criteria: domain.Criteria{
				ProfileName:    "Cloud Architect",
				RequiredSkills: []string{"AWS", "Terraform"},
				Experience:     domain.ExperienceSenior,
			},
			want: domain.ModeHybrid,
		},
		{
			name:     "skills plus domain is hybrid",
			criteria: domain.Criteria{RequiredSkills: []string{"Go"}, Domain: "backend"},
			want:     domain.ModeHybrid,
		},
		{
			name:     "multiple skills without profile is hybrid",
			criteria: domain.Criteria{RequiredSkills: []string{"Go", "Rust"}},
			want:     domain.ModeHybrid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyMode(tt.criteria.Normalize()); got != tt.want {
				t.Fatalf("classifyMode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyModeIsDeterministic(t *testing.T) {
	criteria := domain.Criteria{
		ProfileName:    "Data Engineer",
		RequiredSkills: []string{"Spark", "Python"},
		Domain:         "data",
	}.Normalize()

	first := classifyMode(criteria)
	for i := 0; i < 10; i++ {
		if got := classifyMode(criteria); got != first {
			t.Fatalf("classifyMode() not stable: got %s then %s", first, got)
		}
	}
}

func TestParseRetrievalModeRejectsUnknown(t *testing.T) {
	if _, err := domain.ParseRetrievalMode("semantic"); !domain.IsKind(err, domain.ErrInvalidModeOverride) {
		t.Fatalf("expected ErrInvalidModeOverride, got %v", err)
	}
	mode, err := domain.ParseRetrievalMode("Hybrid")
	if err != nil {
		t.Fatalf("ParseRetrievalMode() error = %v", err)
	}
	if mode != domain.ModeHybrid {
		t.Fatalf("expected hybrid, got %s", mode)
	}
}
