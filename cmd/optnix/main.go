package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/optnix/optnix"
	"github.com/optnix/optnix/cache"
	"github.com/optnix/optnix/elastic"
	opthttp "github.com/optnix/optnix/http"
	optslog "github.com/optnix/optnix/slog"
	"github.com/optnix/optnix/source"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Cache root directory. Set before calling Run().
	CacheDir string

	// Sources for end-to-end testing.
	Sources map[optnix.Source]optnix.SourceContext
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("optnix"),
		kong.Description("Offline documentation server for NixOS, Home Manager and nix-darwin options."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'optnix --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// MCP serves stdout to the client, so diagnostics go to stderr.
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: logLevel(cli.Verbose),
	}))

	cacheDir := m.CacheDir
	if cacheDir == "" {
		cacheDir = cli.CacheDir
	}
	if cacheDir == "" {
		cacheDir, err = cache.DefaultDir()
		if err != nil {
			return err
		}
	}

	fs, err := cache.NewFilesystem(cacheDir)
	if err != nil {
		fmt.Fprintf(stderr, "Hint: set %s to use a writable cache directory\n", cache.EnvCacheDir)
		return fmt.Errorf("failed to open cache at %q: %w", cacheDir, err)
	}
	tiered := cache.NewTwoTier(cache.NewMemory(), fs)
	deps.Cache = tiered

	fetcher := optslog.NewFetcher(
		cache.NewFetcher(opthttp.NewFetcher(), tiered, optnix.LongTTL),
		deps.Logger,
	)
	deps.Fetcher = fetcher

	if m.Sources == nil {
		hm := source.NewHomeManager(fetcher, source.WithLogger(deps.Logger))
		dw := source.NewDarwin(fetcher, source.WithLogger(deps.Logger))
		deps.Local = []*source.Context{hm, dw}
		m.Sources = map[optnix.Source]optnix.SourceContext{
			optnix.SourceHomeManager: hm,
			optnix.SourceDarwin:      dw,
			optnix.SourceNixOS:       elastic.NewSource(tiered),
		}
	}

	deps.Sources = make(map[optnix.Source]optnix.SourceContext, len(m.Sources))
	for name, src := range m.Sources {
		deps.Sources[name] = optslog.NewSource(src, deps.Logger)
	}

	return kongCtx.Run(deps)
}

func logLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
