package config

import "testing"

func TestLoadIncludesRetrievalDefaults(t *testing.T) {
	t.Setenv("LOCAL_HOP_RADIUS", "")
	t.Setenv("GLOBAL_HOP_RADIUS", "")
	t.Setenv("CANDIDATE_POOL", "")
	t.Setenv("DEFAULT_TOP_K", "")
	t.Setenv("PROVIDER_TIMEOUT_SECONDS", "")

	cfg := Load()
	if cfg.LocalHopRadius != 2 {
		t.Fatalf("expected default local hop radius 2, got %d", cfg.LocalHopRadius)
	}
	if cfg.GlobalHopRadius != 3 {
		t.Fatalf("expected default global hop radius 3, got %d", cfg.GlobalHopRadius)
	}
	if cfg.CandidatePool != 30 {
		t.Fatalf("expected default candidate pool 30, got %d", cfg.CandidatePool)
	}
	if cfg.DefaultTopK != 5 {
		t.Fatalf("expected default top k 5, got %d", cfg.DefaultTopK)
	}
	if cfg.ProviderTimeoutSeconds != 8 {
		t.Fatalf("expected default provider timeout 8s, got %d", cfg.ProviderTimeoutSeconds)
	}
}

func TestLoadIncludesFusionDefaults(t *testing.T) {
	t.Setenv("FUSION_VECTOR_WEIGHT", "")
	t.Setenv("FUSION_GRAPH_WEIGHT", "")
	t.Setenv("FUSION_OVERLAP_WEIGHT", "")
	t.Setenv("CONFIDENCE_HIGH_THRESHOLD", "")
	t.Setenv("CONFIDENCE_MEDIUM_THRESHOLD", "")

	cfg := Load()
	if cfg.FusionVectorWeight != 0.40 || cfg.FusionGraphWeight != 0.30 || cfg.FusionOverlapWeight != 0.30 {
		t.Fatalf("unexpected fusion weight defaults %v/%v/%v",
			cfg.FusionVectorWeight, cfg.FusionGraphWeight, cfg.FusionOverlapWeight)
	}
	if cfg.ConfidenceHighThreshold != 70 || cfg.ConfidenceMediumThreshold != 40 {
		t.Fatalf("unexpected confidence threshold defaults %d/%d",
			cfg.ConfidenceHighThreshold, cfg.ConfidenceMediumThreshold)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("QDRANT_COLLECTION", "candidates_v2")
	t.Setenv("FUSION_VECTOR_WEIGHT", "0.5")
	t.Setenv("SESSION_IDLE_MINUTES", "15")
	t.Setenv("RATE_LIMIT_RPS", "5.5")

	cfg := Load()
	if cfg.QdrantCollection != "candidates_v2" {
		t.Fatalf("expected collection override, got %q", cfg.QdrantCollection)
	}
	if cfg.FusionVectorWeight != 0.5 {
		t.Fatalf("expected vector weight 0.5, got %v", cfg.FusionVectorWeight)
	}
	if cfg.SessionIdleMinutes != 15 {
		t.Fatalf("expected idle minutes 15, got %d", cfg.SessionIdleMinutes)
	}
	if cfg.RateLimitRPS != 5.5 {
		t.Fatalf("expected rate limit 5.5 rps, got %v", cfg.RateLimitRPS)
	}
}

func TestLoadFallsBackOnMalformedNumbers(t *testing.T) {
	t.Setenv("CANDIDATE_POOL", "lots")
	t.Setenv("FUSION_GRAPH_WEIGHT", "heavy")

	cfg := Load()
	if cfg.CandidatePool != 30 {
		t.Fatalf("expected fallback candidate pool, got %d", cfg.CandidatePool)
	}
	if cfg.FusionGraphWeight != 0.30 {
		t.Fatalf("expected fallback graph weight, got %v", cfg.FusionGraphWeight)
	}
}
