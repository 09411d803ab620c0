package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/arturoeanton/storyline/internal/domain"
	"github.com/arturoeanton/storyline/internal/middleware"
	"github.com/arturoeanton/storyline/internal/port"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Matcher runs retrieval for one question.
type Matcher interface {
	FindMatches(ctx context.Context, userID, question string, threshold float64, topK int) ([]domain.Match, error)
}

// Embeddings syncs and reports the user's embeddings.
type Embeddings interface {
	Sync(ctx context.Context, userID string) (*domain.SyncResult, error)
	Status(ctx context.Context, userID string) (*domain.EmbeddingStatus, error)
}

// Defaults are applied when a find_matches call leaves them out.
type Defaults struct {
	Threshold float64
	TopK      int
}

// Server exposes retrieval and embedding sync as MCP tools over streamable
// HTTP. Callers authenticate with the same bearer tokens as the REST API.
type Server struct {
	matcher    Matcher
	embeddings Embeddings
	audit      middleware.AuditWriter
	defaults   Defaults
	parser     *jwt.Parser
	key        []byte

	mcp  *mcpserver.MCPServer
	http *mcpserver.StreamableHTTPServer
}

type ctxKey struct{}

// NewServer creates a new MCP server. audit may be nil.
func NewServer(matcher Matcher, embeddings Embeddings, audit middleware.AuditWriter, jwtCfg middleware.JWTConfig, defaults Defaults, version string) *Server {
	s := &Server{
		matcher:    matcher,
		embeddings: embeddings,
		audit:      audit,
		defaults:   defaults,
		parser:     middleware.NewParser(jwtCfg),
		key:        []byte(jwtCfg.Secret),
	}

	s.mcp = mcpserver.NewMCPServer("storyline", version, mcpserver.WithToolCapabilities(false))
	s.registerTools()
	s.http = mcpserver.NewStreamableHTTPServer(s.mcp,
		mcpserver.WithEndpointPath("/mcp"),
		mcpserver.WithHTTPContextFunc(s.authenticate),
	)
	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.Tool{
		Name:        "find_matches",
		Description: "Find the caller's activity events that best fit an application question, most similar first.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Application question text",
				},
				"threshold": map[string]interface{}{
					"type":        "number",
					"description": "Minimum cosine similarity, between -1 and 1",
					"default":     s.defaults.Threshold,
				},
				"top_k": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of events to return",
					"default":     s.defaults.TopK,
				},
			},
			Required: []string{"question"},
		},
	}, s.FindMatches)

	s.mcp.AddTool(mcp.Tool{
		Name:        "sync_embeddings",
		Description: "Embed every new or edited event of the caller.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.SyncEmbeddings)

	s.mcp.AddTool(mcp.Tool{
		Name:        "embedding_status",
		Description: "Count the caller's events by embedding state.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.EmbeddingStatus)
}

// Start serves MCP on addr until Shutdown.
func (s *Server) Start(addr string) error {
	slog.Info("MCP server starting", "addr", addr)
	return s.http.Start(addr)
}

// Shutdown stops the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// authenticate stores the token subject in ctx. Tool handlers reject calls
// without one.
func (s *Server) authenticate(ctx context.Context, r *http.Request) context.Context {
	token := middleware.BearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return ctx
	}
	claims, err := middleware.ParseToken(s.parser, s.key, token)
	if err != nil {
		slog.Warn("MCP token rejected", "error", err)
		return ctx
	}
	return WithUser(ctx, claims.Subject)
}

// WithUser returns ctx carrying the authenticated user id.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

func userFrom(ctx context.Context) string {
	uid, _ := ctx.Value(ctxKey{}).(string)
	return uid
}

// FindMatches handles the find_matches tool.
func (s *Server) FindMatches(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := userFrom(ctx)
	if uid == "" {
		return mcp.NewToolResultError(port.ErrUnauthorized.Error()), nil
	}
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}
	threshold := req.GetFloat("threshold", s.defaults.Threshold)
	topK := req.GetInt("top_k", s.defaults.TopK)

	s.record(ctx, uid, req.Params.Name)
	matches, err := s.matcher.FindMatches(ctx, uid, question, threshold, topK)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("find matches: %v", err)), nil
	}
	return jsonResult(map[string]any{"matches": matches, "count": len(matches)})
}

// SyncEmbeddings handles the sync_embeddings tool.
func (s *Server) SyncEmbeddings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := userFrom(ctx)
	if uid == "" {
		return mcp.NewToolResultError(port.ErrUnauthorized.Error()), nil
	}

	s.record(ctx, uid, req.Params.Name)
	res, err := s.embeddings.Sync(ctx, uid)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sync embeddings: %v", err)), nil
	}
	return jsonResult(res)
}

// EmbeddingStatus handles the embedding_status tool.
func (s *Server) EmbeddingStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := userFrom(ctx)
	if uid == "" {
		return mcp.NewToolResultError(port.ErrUnauthorized.Error()), nil
	}
	st, err := s.embeddings.Status(ctx, uid)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("embedding status: %v", err)), nil
	}
	return jsonResult(st)
}

func (s *Server) record(ctx context.Context, userID, tool string) {
	if s.audit == nil {
		return
	}
	entry := domain.AuditLog{
		RequestID:  uuid.NewString(),
		UserID:     userID,
		Action:     domain.AuditActionMCPCall,
		Resource:   "tool",
		ResourceID: tool,
		Details:    "{}",
		CreatedAt:  time.Now(),
	}
	if err := s.audit.WriteAudit(context.WithoutCancel(ctx), entry); err != nil {
		slog.Warn("MCP audit write failed", "tool", tool, "error", err)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
