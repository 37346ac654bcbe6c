package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/talent-match-engine/internal/core/domain"
	"github.com/kirillkom/talent-match-engine/internal/infrastructure/resilience"
)

// QueryEmbedder turns the natural-language query line into a vector for the
// similarity search.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Client implements the vector-similarity provider against a Qdrant
// collection of candidate profile chunks. The collection is indexed by an
// external ingestion pipeline; this client only reads.
type Client struct {
	baseURL    string
	collection string
	embedder   QueryEmbedder
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	// Executor guards search calls with a circuit breaker. Nil runs calls
	// directly.
	Executor *resilience.Executor
}

func New(baseURL, collection string, embedder QueryEmbedder) *Client {
	return NewWithOptions(baseURL, collection, embedder, Options{})
}

func NewWithOptions(baseURL, collection string, embedder QueryEmbedder, options Options) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		embedder:   embedder,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		executor:   options.Executor,
	}
}

// Search embeds the query text and runs a similarity search, optionally
// restricted to a candidate id set.
func (c *Client) Search(ctx context.Context, queryText string, limit int, restrict []string) ([]domain.VectorHit, error) {
	if limit <= 0 {
		limit = 10
	}

	queryVector, err := c.embedder.EmbedQuery(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var hits []domain.VectorHit
	call := func(callCtx context.Context) error {
		var searchErr error
		hits, searchErr = c.search(callCtx, queryVector, limit, restrict)
		return searchErr
	}

	if c.executor != nil {
		err = c.executor.Execute(ctx, "qdrant.search", call, classifyQdrantError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}

func (c *Client) search(ctx context.Context, queryVector []float32, limit int, restrict []string) ([]domain.VectorHit, error) {
	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
	}
	if len(restrict) > 0 {
		reqBody["filter"] = map[string]any{
			"must": []map[string]any{
				{
					"key": "candidate_id",
					"match": map[string]any{
						"any": restrict,
					},
				},
			},
		}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(raw)); msg != "" {
			return nil, fmt.Errorf("qdrant search status: %s: %s", resp.Status, msg)
		}
		return nil, fmt.Errorf("qdrant search status: %s", resp.Status)
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]domain.VectorHit, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		candidateID := getStringPayload(r.Payload, "candidate_id")
		if candidateID == "" {
			continue
		}
		out = append(out, domain.VectorHit{
			CandidateID: candidateID,
			Score:       r.Score,
			Snippet:     getStringPayload(r.Payload, "text"),
		})
	}
	return out, nil
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
