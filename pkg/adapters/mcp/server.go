package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/contentgraph"
	"github.com/aretw0/contentgraph/internal/logging"
	"github.com/aretw0/contentgraph/internal/presentation/graph"
	"github.com/aretw0/contentgraph/pkg/domain"
	"github.com/aretw0/contentgraph/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	// GraphResourceURI exposes the catalog as a Mermaid flowchart.
	GraphResourceURI = "contentgraph://graph"
	// DescriptorsResourceURI exposes the catalog as a JSON array.
	DescriptorsResourceURI = "contentgraph://descriptors"
)

// RefreshFunc runs one fetch-translate-register cycle.
type RefreshFunc func(ctx context.Context) (int, error)

// RefreshResponse is the structured result of the refresh tool.
type RefreshResponse struct {
	Registered int `json:"registered" jsonschema_description:"Number of descriptors registered"`
}

// Server exposes a descriptor catalog as an MCP Server.
type Server struct {
	catalog   ports.Catalog
	refresh   RefreshFunc
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithRefresh enables the refresh tool.
func WithRefresh(fn RefreshFunc) Option {
	return func(s *Server) {
		s.refresh = fn
	}
}

// WithLogger sets a custom structured logger for the server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(catalog ports.Catalog, opts ...Option) *Server {
	s := &Server{
		catalog:   catalog,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("contentgraph-mcp", strings.TrimSpace(contentgraph.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: list_descriptors
	s.mcpServer.AddTool(mcp.NewTool("list_descriptors",
		mcp.WithDescription("List registered descriptors in registration order (views first, then data sources)."),
		mcp.WithString("kind", mcp.Description("Optional filter: view or data_source")),
	), s.handleList)

	// TOOL: get_descriptor
	s.mcpServer.AddTool(mcp.NewTool("get_descriptor",
		mcp.WithDescription("Get one descriptor by its slash-separated key."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Descriptor key, e.g. tableau/view/<workbook>/<view>")),
	), s.handleGet)

	// TOOL: get_graph
	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Render the dependency graph as a Mermaid flowchart."),
		mcp.WithString("focus", mcp.Description("Optional key to highlight with its dependencies")),
	), s.handleGraph)

	if s.refresh != nil {
		// TOOL: refresh
		s.mcpServer.AddTool(mcp.NewTool("refresh",
			mcp.WithDescription("Re-fetch the site, rebuild every descriptor and register them."),
			mcp.WithOutputSchema[RefreshResponse](),
		), mcp.NewStructuredToolHandler(s.handleRefresh))
	}
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	descs, err := s.catalog.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}

	if kind := request.GetString("kind", ""); kind != "" {
		if !domain.ContentType(kind).Valid() {
			return mcp.NewToolResultError(fmt.Sprintf("unknown kind %q", kind)), nil
		}
		filtered := descs[:0]
		for _, d := range descs {
			if string(d.Kind) == kind {
				filtered = append(filtered, d)
			}
		}
		descs = filtered
	}

	jsonBytes, err := json.Marshal(descs)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	key, err := domain.ParseKey(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid key: %v", err)), nil
	}

	d, err := s.catalog.Get(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get failed: %v", err)), nil
	}
	jsonBytes, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	descs, err := s.catalog.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	var overlay *graph.Overlay
	if focus := request.GetString("focus", ""); focus != "" {
		overlay = &graph.Overlay{Focus: focus}
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(descs, overlay)), nil
}

func (s *Server) handleRefresh(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (RefreshResponse, error) {
	n, err := s.refresh(ctx)
	if err != nil {
		s.logger.Error("MCP refresh failed", "err", err, "registered", n)
		return RefreshResponse{}, fmt.Errorf("refresh failed: %w", err)
	}
	return RefreshResponse{Registered: n}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: contentgraph://graph
	s.mcpServer.AddResource(mcp.NewResource(GraphResourceURI, "Content Dependency Graph",
		mcp.WithMIMEType("text/vnd.mermaid"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		descs, err := s.catalog.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list descriptors: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphResourceURI,
				MIMEType: "text/vnd.mermaid",
				Text:     graph.GenerateMermaid(descs, nil),
			},
		}, nil
	})

	// EXPOSE: contentgraph://descriptors
	s.mcpServer.AddResource(mcp.NewResource(DescriptorsResourceURI, "Registered Descriptors",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		descs, err := s.catalog.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list descriptors: %w", err)
		}
		jsonBytes, err := json.Marshal(descs)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      DescriptorsResourceURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
