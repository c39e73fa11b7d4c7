package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/openltablets/dtinfer/pkg/project"
	"github.com/openltablets/dtinfer/pkg/version"
)

// LoadFunc loads the project at path.
type LoadFunc func(path string, opts ...project.Opt) (*project.Project, error)

// Server serves the dtinfer tools.
type Server struct {
	server  *mcp.Server
	tracer  trace.Tracer
	load    LoadFunc
	address string
	root    string
	opts    []project.Opt
}

// ServerOpt configures a [Server].
type ServerOpt func(*Server)

// WithAddress serves streamable HTTP on address instead of stdio.
func WithAddress(address string) ServerOpt {
	return func(s *Server) {
		s.address = address
	}
}

// WithRoot sets the directory relative project paths resolve against.
func WithRoot(root string) ServerOpt {
	return func(s *Server) {
		s.root = root
	}
}

// WithProjectOpts sets options applied to every loaded project.
func WithProjectOpts(opts ...project.Opt) ServerOpt {
	return func(s *Server) {
		s.opts = append(s.opts, opts...)
	}
}

// WithLoader replaces [project.LoadFile].
func WithLoader(load LoadFunc) ServerOpt {
	return func(s *Server) {
		s.load = load
	}
}

// WithTracer sets the tracer of tool calls.
func WithTracer(t trace.Tracer) ServerOpt {
	return func(s *Server) {
		s.tracer = t
	}
}

// NewServer creates a new [Server].
func NewServer(opts ...ServerOpt) *Server {
	s := &Server{
		root:   ".",
		load:   project.LoadFile,
		tracer: otel.Tracer("mcp"),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version.GetVersion(),
	}, &mcp.ServerOptions{
		Instructions: instructions,
	})

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_tables",
		Description: "List the decision tables of a dtinfer project with their method signatures and modes.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"project": projectProperty(),
			},
			Required: []string{"project"},
		},
	}, WithTracing(s.tracer, s.handleListTables))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "infer_header",
		Description: "Infer the virtual header of one decision table. You MUST use a table name from the list_tables output EXACTLY.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"project": projectProperty(),
				"table": {
					Type:        "string",
					Description: "The name of the table.",
				},
			},
			Required: []string{"project", "table"},
		},
	}, WithTracing(s.tracer, s.handleInferHeader))
}

func (s *Server) projectPath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(s.root, path)
}

// Server returns the underlying MCP server.
func (s *Server) Server() *mcp.Server {
	return s.server
}

// Serve runs the server until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	slog.InfoContext(ctx, "start MCP server", slog.String("address", s.address), slog.String("root", s.root))

	if s.address == "" {
		err := s.server.Run(ctx, mcp.NewLoggingTransport(mcp.NewStdioTransport(), os.Stderr))
		if err != nil {
			return fmt.Errorf("serve stdio: %w", err)
		}

		return nil
	}

	return s.serveHTTP(ctx)
}

func (s *Server) serveHTTP(ctx context.Context) error {
	srv := &http.Server{
		Addr: s.address,
		Handler: mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return s.server
		}, nil),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(ctx, "shut down MCP server", slog.Any("error", err))
		}
	}()

	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	return nil
}
