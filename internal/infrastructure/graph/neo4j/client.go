package neo4j

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/kirillkom/talent-match-engine/internal/core/domain"
	"github.com/kirillkom/talent-match-engine/internal/infrastructure/resilience"
)

const defaultMaxPaths = 200

// Client implements the graph-traversal provider against a Neo4j knowledge
// graph of candidate entities. The graph is populated by an external
// extraction pipeline; this client only reads.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	maxPaths int
	executor *resilience.Executor
}

type Options struct {
	// Database selects a named database. Empty uses the server default.
	Database string
	// MaxPaths bounds the number of paths collected per traversal.
	MaxPaths int
	// Executor guards traversal calls with a circuit breaker. Nil runs calls
	// directly.
	Executor *resilience.Executor
}

func New(uri, username, password string) (*Client, error) {
	return NewWithOptions(uri, username, password, Options{})
}

func NewWithOptions(uri, username, password string, options Options) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	maxPaths := options.MaxPaths
	if maxPaths <= 0 {
		maxPaths = defaultMaxPaths
	}
	return &Client{
		driver:   driver,
		database: options.Database,
		maxPaths: maxPaths,
		executor: options.Executor,
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// VerifyConnectivity checks the server is reachable. Used at startup.
func (c *Client) VerifyConnectivity(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

// Traverse collects relationship paths from the anchor entity to candidate
// nodes within hopRadius edges, restricted to the given candidate ids when
// non-empty.
func (c *Client) Traverse(ctx context.Context, anchor string, hopRadius int, restrict []string) ([]domain.GraphHit, error) {
	anchor = strings.TrimSpace(anchor)
	if anchor == "" {
		return nil, nil
	}
	if hopRadius < 1 {
		hopRadius = 1
	}

	var hits []domain.GraphHit
	call := func(callCtx context.Context) error {
		var traverseErr error
		hits, traverseErr = c.traverse(callCtx, anchor, hopRadius, restrict)
		return traverseErr
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "neo4j.traverse", call, classifyNeo4jError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}

func (c *Client) traverse(ctx context.Context, anchor string, hopRadius int, restrict []string) ([]domain.GraphHit, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: c.database,
	})
	defer session.Close(ctx)

	params := map[string]any{
		"anchor":   strings.ToLower(anchor),
		"restrict": restrict,
		"limit":    c.maxPaths,
	}
	if len(restrict) == 0 {
		params["restrict"] = []string{}
	}

	records, err := neo4j.ExecuteRead(ctx, session,
		func(tx neo4j.ManagedTransaction) ([]*neo4j.Record, error) {
			result, runErr := tx.Run(ctx, traversalQuery(hopRadius), params)
			if runErr != nil {
				return nil, runErr
			}
			return result.Collect(ctx)
		})
	if err != nil {
		return nil, fmt.Errorf("neo4j traversal: %w", err)
	}

	hits := make([]domain.GraphHit, 0, len(records))
	for _, record := range records {
		hit, ok := hitFromRecord(record)
		if !ok {
			continue
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// traversalQuery builds the variable-length path query. The hop bound cannot
// be a Cypher parameter, so it is interpolated from the validated radius.
func traversalQuery(hopRadius int) string {
	return fmt.Sprintf(`
MATCH (anchor:Entity) WHERE toLower(anchor.name) = $anchor
MATCH path = (anchor)-[*1..%d]-(candidate:Candidate)
WHERE size($restrict) = 0 OR candidate.id IN $restrict
RETURN candidate.id AS candidateID,
       [n IN nodes(path) | coalesce(n.name, n.id)] AS entities,
       [r IN relationships(path) | type(r)] AS relations
LIMIT $limit`, hopRadius)
}

func hitFromRecord(record *neo4j.Record) (domain.GraphHit, bool) {
	candidateID, ok := stringValue(record, "candidateID")
	if !ok || candidateID == "" {
		return domain.GraphHit{}, false
	}
	entities, ok := stringSliceValue(record, "entities")
	if !ok {
		return domain.GraphHit{}, false
	}
	relations, ok := stringSliceValue(record, "relations")
	if !ok {
		return domain.GraphHit{}, false
	}

	hit := domain.GraphHit{
		CandidateID: candidateID,
		Path: domain.GraphPath{
			Entities:  entities,
			Relations: relations,
		},
	}
	if err := hit.Path.Validate(); err != nil {
		return domain.GraphHit{}, false
	}
	return hit, true
}

func stringValue(record *neo4j.Record, key string) (string, bool) {
	raw, ok := record.Get(key)
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

func stringSliceValue(record *neo4j.Record, key string) ([]string, bool) {
	raw, ok := record.Get(key)
	if !ok {
		return nil, false
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
