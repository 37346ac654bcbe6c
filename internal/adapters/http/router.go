package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/talent-match-engine/internal/core/domain"
	"github.com/kirillkom/talent-match-engine/internal/core/ports"
	"github.com/kirillkom/talent-match-engine/internal/observability/metrics"
)

type Router struct {
	matchUC ports.MatchService
	metrics *metrics.HTTPServerMetrics
	service string
	options RouterOptions
}

type RouterOptions struct {
	// RateLimitRPS and RateLimitBurst gate the whole API surface. Zero RPS
	// disables the limiter.
	RateLimitRPS   float64
	RateLimitBurst int
	// MaxConcurrentRequests bounds in-flight handlers. Zero disables the
	// backpressure gate.
	MaxConcurrentRequests int
	BackpressureWait      time.Duration
	// ValidateRequests enables OpenAPI request validation for /v1 routes.
	ValidateRequests bool
	// HealthChecks report dependency reachability on /healthz.
	HealthChecks map[string]func(context.Context) error
}

func NewRouter(matchUC ports.MatchService, m *metrics.HTTPServerMetrics, service string, options RouterOptions) *Router {
	return &Router{
		matchUC: matchUC,
		metrics: m,
		service: service,
		options: options,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/match/query", rt.matchQuery)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.options.ValidateRequests {
		validator, err := newOpenAPIValidator()
		if err != nil {
			slog.Warn("openapi validation disabled", "error", err)
		} else {
			handler = validator.middleware(handler)
		}
	}
	if rt.options.MaxConcurrentRequests > 0 {
		handler = backpressureMiddleware(handler, rt.options.MaxConcurrentRequests, rt.options.BackpressureWait)
	}
	if rt.options.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.options.RateLimitRPS, rt.options.RateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	if len(rt.options.HealthChecks) == 0 {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(rt.options.HealthChecks))
	for name, check := range rt.options.HealthChecks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	writeJSON(w, status, map[string]any{"status": overall, "checks": checks})
}

type matchQueryRequest struct {
	Criteria struct {
		ProfileName     string   `json:"profile_name"`
		RequiredSkills  []string `json:"required_skills"`
		PreferredSkills []string `json:"preferred_skills"`
		Experience      string   `json:"experience_level"`
		Domain          string   `json:"domain"`
		FreeText        string   `json:"free_text"`
	} `json:"criteria"`
	Mode      string `json:"mode"`
	SessionID string `json:"session_id"`
	TopK      int    `json:"top_k"`
}

func (rt *Router) matchQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req matchQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	start := time.Now()
	result, err := rt.matchUC.Match(r.Context(), domain.MatchRequest{
		Criteria: domain.Criteria{
			ProfileName:     strings.TrimSpace(req.Criteria.ProfileName),
			RequiredSkills:  req.Criteria.RequiredSkills,
			PreferredSkills: req.Criteria.PreferredSkills,
			Experience:      domain.ExperienceLevel(req.Criteria.Experience),
			Domain:          strings.TrimSpace(req.Criteria.Domain),
			FreeText:        strings.TrimSpace(req.Criteria.FreeText),
		},
		ModeOverride: req.Mode,
		SessionID:    strings.TrimSpace(req.SessionID),
		TopK:         req.TopK,
	})
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordMatchObservation(rt.service, string(result.Mode), len(result.Candidates), result.Degraded, time.Since(start))
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
