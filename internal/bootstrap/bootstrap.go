package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/talent-match-engine/internal/config"
	"github.com/kirillkom/talent-match-engine/internal/core/ports"
	"github.com/kirillkom/talent-match-engine/internal/core/usecase"
	"github.com/kirillkom/talent-match-engine/internal/infrastructure/embedder/ollama"
	graphneo4j "github.com/kirillkom/talent-match-engine/internal/infrastructure/graph/neo4j"
	"github.com/kirillkom/talent-match-engine/internal/infrastructure/queue/nats"
	"github.com/kirillkom/talent-match-engine/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/talent-match-engine/internal/infrastructure/resilience"
	"github.com/kirillkom/talent-match-engine/internal/infrastructure/synonyms"
	"github.com/kirillkom/talent-match-engine/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/talent-match-engine/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Metrics *metrics.HTTPServerMetrics

	Sessions ports.SessionStore
	MatchUC  ports.MatchService

	// HealthChecks report backing-store reachability for /healthz.
	HealthChecks map[string]func(context.Context) error

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	return NewWithMetrics(ctx, cfg, nil)
}

func NewWithMetrics(ctx context.Context, cfg config.Config, m *metrics.HTTPServerMetrics) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sessionRepo := postgres.NewSessionRepository(db, time.Duration(cfg.SessionIdleMinutes)*time.Minute)
	if err := sessionRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	// Provider calls run once per request: the breaker protects the
	// backends, and partial failure degrades the response instead of
	// retrying inside the query budget.
	providerExecutor := resilience.NewExecutor(resilience.SingleAttemptPolicy())
	publishExecutor := resilience.NewExecutor(resilience.DefaultPolicy())

	publisher, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: publishExecutor,
	})
	if err != nil {
		return nil, fmt.Errorf("init event publisher: %w", err)
	}

	embedder := ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel)
	vectorDB := qdrant.NewWithOptions(cfg.QdrantURL, cfg.QdrantCollection, embedder, qdrant.Options{
		Executor: providerExecutor,
	})
	graphDB, err := graphneo4j.NewWithOptions(cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, graphneo4j.Options{
		Database: cfg.Neo4jDatabase,
		Executor: providerExecutor,
	})
	if err != nil {
		return nil, fmt.Errorf("init graph store: %w", err)
	}

	synonymTable, err := synonyms.Load(cfg.SynonymTablePath)
	if err != nil {
		return nil, fmt.Errorf("load synonym table: %w", err)
	}

	var vectorProvider ports.VectorSearcher = vectorDB
	var graphProvider ports.GraphTraverser = graphDB
	if m != nil {
		vectorProvider = &instrumentedVectorSearcher{next: vectorDB, metrics: m}
		graphProvider = &instrumentedGraphTraverser{next: graphDB, metrics: m}
	}

	dispatcher := usecase.NewDispatcher(vectorProvider, graphProvider, usecase.DispatcherOptions{
		ProviderTimeout: time.Duration(cfg.ProviderTimeoutSeconds) * time.Second,
		LocalHopRadius:  cfg.LocalHopRadius,
		GlobalHopRadius: cfg.GlobalHopRadius,
		CandidatePool:   cfg.CandidatePool,
	})

	matchUC := usecase.NewMatchUseCase(dispatcher, sessionRepo, publisher, synonymTable, usecase.MatchLimits{
		Weights: usecase.FusionWeights{
			Vector:  cfg.FusionVectorWeight,
			Graph:   cfg.FusionGraphWeight,
			Overlap: cfg.FusionOverlapWeight,
		},
		Thresholds: usecase.ConfidenceThresholds{
			High:   cfg.ConfidenceHighThreshold,
			Medium: cfg.ConfidenceMediumThreshold,
		},
		SessionIdleTimeout: time.Duration(cfg.SessionIdleMinutes) * time.Minute,
		DefaultTopK:        cfg.DefaultTopK,
	})

	return &App{
		Config:   cfg,
		Metrics:  m,
		Sessions: sessionRepo,
		MatchUC:  matchUC,

		HealthChecks: map[string]func(context.Context) error{
			"postgres": db.PingContext,
			"neo4j":    graphDB.VerifyConnectivity,
		},

		closeFn: func() {
			publisher.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = graphDB.Close(shutdownCtx)
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
