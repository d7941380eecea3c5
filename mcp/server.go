// Package mcp maps tool calls from an MCP client onto the source contexts.
// It is thin glue: arguments in, query out, human-readable text back. Source
// failures become polite retry messages, never protocol errors.
package mcp

import (
	"context"
	"log/slog"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/optnix/optnix"
)

const (
	serverName    = "optnix"
	serverVersion = "v0.1.0"
)

// Server exposes registered source contexts as MCP tools.
type Server struct {
	sources map[optnix.Source]optnix.SourceContext
	logger  *slog.Logger
}

// NewServer creates a Server over the given source contexts.
func NewServer(sources map[optnix.Source]optnix.SourceContext, logger *slog.Logger) *Server {
	return &Server{sources: sources, logger: logger}
}

// Run serves MCP over the given transport until ctx is cancelled or the
// client disconnects.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, &mcp.ServerOptions{
		Instructions: "Search NixOS, Home Manager and nix-darwin configuration options. " +
			"Use options_search to find options by keyword or dotted prefix, " +
			"options_info for one option's full documentation, " +
			"options_list to browse beneath a prefix, and options_stats for coverage.",
	})

	mcp.AddTool(srv, &mcp.Tool{
		Name: "options_search",
		Description: "Search configuration options by keyword, dotted prefix (e.g. 'programs.git') " +
			"or hierarchy segment. Returns ranked matches with type and description.",
	}, s.Search)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "options_info",
		Description: "Full documentation for one option path, with related sibling options.",
	}, s.Info)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "options_list",
		Description: "List every option beneath a dot-separated path prefix.",
	}, s.List)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "options_stats",
		Description: "Per-source readiness and top-level category statistics.",
	}, s.Stats)

	s.logger.Info("mcp server ready", "sources", len(s.sources))
	return srv.Run(ctx, transport)
}

// resolve picks the contexts a call addresses: the named source, or every
// registered source in stable order when the argument is empty.
func (s *Server) resolve(name string) ([]optnix.SourceContext, error) {
	if name != "" {
		src, ok := s.sources[optnix.Source(name)]
		if !ok {
			return nil, optnix.Errorf(optnix.EINVALID, "unknown source %q; valid sources: %v", name, s.sourceNames())
		}
		return []optnix.SourceContext{src}, nil
	}

	names := s.sourceNames()
	contexts := make([]optnix.SourceContext, 0, len(names))
	for _, n := range names {
		contexts = append(contexts, s.sources[n])
	}
	return contexts, nil
}

func (s *Server) sourceNames() []optnix.Source {
	names := make([]optnix.Source, 0, len(s.sources))
	for n := range s.sources {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
