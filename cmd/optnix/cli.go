package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/optnix/optnix"
	"github.com/optnix/optnix/source"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
	Cache   optnix.Cache
	Fetcher optnix.Fetcher
	Sources map[optnix.Source]optnix.SourceContext

	// Local holds the contexts that build an index in-process and need an
	// explicit lifecycle; the remote source is ready at construction.
	Local []*source.Context
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	CacheDir string `env:"OPTNIX_CACHE_DIR" help:"Cache directory (default: the user cache dir)"`
	Verbose  bool   `short:"v" help:"Enable debug logging"`

	Serve    ServeCmd    `cmd:"" help:"Serve option documentation over MCP stdio"`
	Precache PrecacheCmd `cmd:"" help:"Fetch and index every documentation source, then exit"`
	Search   SearchCmd   `cmd:"" help:"Run one query against a source and print the results"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct{}

// PrecacheCmd is the "precache" subcommand.
type PrecacheCmd struct{}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query  string `arg:"" help:"Search text or dotted option prefix"`
	Source string `short:"s" default:"home-manager" help:"Documentation source: home-manager, darwin or nixos"`
	Kind   string `short:"k" default:"term" help:"Query kind: term, prefix or hierarchical"`
	Limit  int    `short:"n" default:"20" help:"Maximum results"`
}
