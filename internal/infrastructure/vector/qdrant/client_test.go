package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type embedderFake struct {
	vector []float32
	err    error
	texts  []string
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func TestSearchParsesHitsAndSendsRestrictFilter(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/candidate_profiles/points/search" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"result": [
				{"score": 0.91, "payload": {"candidate_id": "cand-1", "text": "Go and Kubernetes"}},
				{"score": 0.72, "payload": {"candidate_id": "cand-2", "text": "Python"}},
				{"score": 0.50, "payload": {"text": "orphan chunk"}}
			]
		}`))
	}))
	defer server.Close()

	embedder := &embedderFake{vector: []float32{0.1, 0.2, 0.3}}
	client := New(server.URL, "candidate_profiles", embedder)

	hits, err := client.Search(context.Background(), "senior golang engineer", 5, []string{"cand-1", "cand-2"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(embedder.texts) != 1 || embedder.texts[0] != "senior golang engineer" {
		t.Fatalf("embedded texts = %v", embedder.texts)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].CandidateID != "cand-1" || hits[0].Score != 0.91 || hits[0].Snippet != "Go and Kubernetes" {
		t.Fatalf("unexpected first hit %+v", hits[0])
	}

	if captured["limit"] != float64(5) {
		t.Fatalf("limit = %v", captured["limit"])
	}
	filter, ok := captured["filter"].(map[string]any)
	if !ok {
		t.Fatalf("expected restrict filter in request, got %v", captured["filter"])
	}
	must := filter["must"].([]any)
	cond := must[0].(map[string]any)
	if cond["key"] != "candidate_id" {
		t.Fatalf("filter key = %v", cond["key"])
	}
	match := cond["match"].(map[string]any)
	ids := match["any"].([]any)
	if len(ids) != 2 || ids[0] != "cand-1" || ids[1] != "cand-2" {
		t.Fatalf("filter ids = %v", ids)
	}
}

func TestSearchOmitsFilterWithoutRestrictSet(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"result": []}`))
	}))
	defer server.Close()

	client := New(server.URL, "candidate_profiles", &embedderFake{vector: []float32{0.5}})
	hits, err := client.Search(context.Background(), "data engineer", 0, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %d", len(hits))
	}
	if _, ok := captured["filter"]; ok {
		t.Fatalf("filter should be absent, got %v", captured["filter"])
	}
	if captured["limit"] != float64(10) {
		t.Fatalf("default limit = %v", captured["limit"])
	}
}

func TestSearchReturnsEmbedError(t *testing.T) {
	embedErr := errors.New("embedder offline")
	client := New("http://127.0.0.1:1", "candidate_profiles", &embedderFake{err: embedErr})

	_, err := client.Search(context.Background(), "query", 5, nil)
	if !errors.Is(err, embedErr) {
		t.Fatalf("expected wrapped embed error, got %v", err)
	}
}

func TestSearchSurfacesServerErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status": "collection is loading"}`))
	}))
	defer server.Close()

	client := New(server.URL, "candidate_profiles", &embedderFake{vector: []float32{0.5}})
	_, err := client.Search(context.Background(), "query", 5, nil)
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if got := err.Error(); !strings.Contains(got, "503") || !strings.Contains(got, "collection is loading") {
		t.Fatalf("error should carry status and body, got %q", got)
	}
}

func TestClassifyQdrantError(t *testing.T) {
	if c := classifyQdrantError(context.Canceled); c.RecordFailure {
		t.Fatal("cancellation must not count against the breaker")
	}
	if c := classifyQdrantError(errors.New("plain failure")); !c.RecordFailure || c.Retryable {
		t.Fatalf("plain failure classification = %+v", c)
	}
}
