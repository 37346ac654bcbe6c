package mcpadapter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/talent-match-engine/internal/core/domain"
	"github.com/kirillkom/talent-match-engine/internal/core/ports"
)

// Server exposes the match pipeline as MCP tools over stdio so chat
// assistants can run candidate searches conversationally.
type Server struct {
	matchUC ports.MatchService
	mcp     *server.MCPServer
}

func NewServer(matchUC ports.MatchService, version string) *Server {
	s := &Server{matchUC: matchUC}

	s.mcp = server.NewMCPServer(
		"Talent Match Engine",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s.mcp.AddTool(mcp.NewTool("search_by_skills",
		mcp.WithDescription(
			"Find candidates with specific technical skills and expertise. "+
				"Searches the knowledge base using hybrid vector-graph retrieval "+
				"to find candidates matching required and preferred skills. "+
				"Supports semantic matching (e.g., 'Kubernetes' matches 'K8s').",
		),
		mcp.WithArray("required_skills",
			mcp.Required(),
			mcp.Description("Must-have skills (e.g., ['Kubernetes', 'AWS'])"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("preferred_skills",
			mcp.Description("Nice-to-have skills (optional)"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("experience_level",
			mcp.Description("Experience level filter (optional)"),
			mcp.Enum("junior", "mid", "senior"),
		),
		mcp.WithNumber("top_k",
			mcp.Description("Number of results to return (default: 5)"),
			mcp.Min(1),
			mcp.Max(20),
			mcp.DefaultNumber(5),
		),
		mcp.WithString("session_id",
			mcp.Description("Session id for refining a previous search (optional)"),
		),
	), s.handleSearchBySkills)

	s.mcp.AddTool(mcp.NewTool("search_by_profile",
		mcp.WithDescription(
			"Find candidates matching a specific job profile. "+
				"Searches the knowledge base using hybrid vector-graph retrieval "+
				"to find candidates aligned with standardized job requirements. "+
				"Example: 'Cloud Architect', 'Data Engineer', 'DevOps Engineer'.",
		),
		mcp.WithString("profile_name",
			mcp.Required(),
			mcp.Description("Job profile name (e.g., 'Cloud Architect', 'Data Engineer')"),
		),
		mcp.WithString("experience_level",
			mcp.Description("Experience level filter (optional)"),
			mcp.Enum("junior", "mid", "senior"),
		),
		mcp.WithNumber("top_k",
			mcp.Description("Number of results to return (default: 5)"),
			mcp.Min(1),
			mcp.Max(20),
			mcp.DefaultNumber(5),
		),
		mcp.WithString("session_id",
			mcp.Description("Session id for refining a previous search (optional)"),
		),
	), s.handleSearchByProfile)

	return s
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

type skillSearchArgs struct {
	RequiredSkills  []string `json:"required_skills"`
	PreferredSkills []string `json:"preferred_skills"`
	ExperienceLevel string   `json:"experience_level"`
	TopK            int      `json:"top_k"`
	SessionID       string   `json:"session_id"`
}

func (s *Server) handleSearchBySkills(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args skillSearchArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if len(args.RequiredSkills) == 0 {
		return mcp.NewToolResultError(
			"Parameter 'required_skills' is required and must contain at least one skill"), nil
	}

	result, err := s.matchUC.Match(ctx, domain.MatchRequest{
		Criteria: domain.Criteria{
			RequiredSkills:  args.RequiredSkills,
			PreferredSkills: args.PreferredSkills,
			Experience:      domain.ExperienceLevel(args.ExperienceLevel),
		},
		SessionID: args.SessionID,
		TopK:      args.TopK,
	})
	if err != nil {
		slog.Error("search_by_skills failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Search failed: %v. Please try again later.", err)), nil
	}

	return mcp.NewToolResultText(renderSkillSearch(result, args)), nil
}

type profileSearchArgs struct {
	ProfileName     string `json:"profile_name"`
	ExperienceLevel string `json:"experience_level"`
	TopK            int    `json:"top_k"`
	SessionID       string `json:"session_id"`
}

func (s *Server) handleSearchByProfile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args profileSearchArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.ProfileName == "" {
		return mcp.NewToolResultError("Parameter 'profile_name' is required"), nil
	}

	result, err := s.matchUC.Match(ctx, domain.MatchRequest{
		Criteria: domain.Criteria{
			ProfileName: args.ProfileName,
			Experience:  domain.ExperienceLevel(args.ExperienceLevel),
		},
		SessionID: args.SessionID,
		TopK:      args.TopK,
	})
	if err != nil {
		slog.Error("search_by_profile failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Search failed: %v. Please try again later.", err)), nil
	}

	return mcp.NewToolResultText(renderProfileSearch(result, args)), nil
}
