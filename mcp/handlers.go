package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/optnix/optnix"
)

// SearchArgs defines the arguments for the options_search tool.
type SearchArgs struct {
	Query  string `json:"query" jsonschema_description:"Search text: keywords ('enable git'), a dotted prefix ('programs.git'), or a single segment"`
	Source string `json:"source,omitempty" jsonschema_description:"Documentation source: home-manager, darwin or nixos (default: all)"`
	Kind   string `json:"kind,omitempty" jsonschema_description:"Query kind: term, prefix or hierarchical (default: inferred from the query)"`
	Limit  int    `json:"limit,omitempty" jsonschema_description:"Maximum results per source (default 20, cap 100)"`
}

// InfoArgs defines the arguments for the options_info tool.
type InfoArgs struct {
	Path   string `json:"path" jsonschema_description:"Exact option path, e.g. 'programs.git.enable'"`
	Source string `json:"source,omitempty" jsonschema_description:"Documentation source to consult (default: all, first match wins)"`
}

// ListArgs defines the arguments for the options_list tool.
type ListArgs struct {
	Prefix string `json:"prefix" jsonschema_description:"Dot-separated path prefix, e.g. 'programs.git'"`
	Source string `json:"source,omitempty" jsonschema_description:"Documentation source (default: all)"`
	Limit  int    `json:"limit,omitempty" jsonschema_description:"Maximum options per source (default 20, cap 100)"`
}

// StatsArgs defines the arguments for the options_stats tool.
type StatsArgs struct {
	Source string `json:"source,omitempty" jsonschema_description:"Documentation source (default: all)"`
}

// Search handles the options_search tool call.
func (s *Server) Search(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Query) == "" {
		return nil, nil, optnix.Errorf(optnix.EINVALID, "query is required")
	}

	contexts, err := s.resolve(args.Source)
	if err != nil {
		return nil, nil, err
	}

	q := optnix.Query{
		Raw:   strings.TrimSpace(args.Query),
		Kind:  queryKind(args.Kind, args.Query),
		Limit: args.Limit,
	}

	var sb strings.Builder
	for _, src := range contexts {
		res, err := src.Search(ctx, q)
		if err != nil {
			if msg, ok := friendly(src, err); ok {
				sb.WriteString(msg + "\n")
				continue
			}
			return nil, nil, err
		}
		renderResult(&sb, src.Status().Source, res)
	}

	s.logger.Info("options_search", "query", q.Raw, "kind", q.Kind, "source", args.Source)
	return textResult(sb.String()), nil, nil
}

// Info handles the options_info tool call.
func (s *Server) Info(ctx context.Context, req *mcp.CallToolRequest, args InfoArgs) (*mcp.CallToolResult, any, error) {
	path := strings.TrimSpace(args.Path)
	if path == "" {
		return nil, nil, optnix.Errorf(optnix.EINVALID, "path is required")
	}

	contexts, err := s.resolve(args.Source)
	if err != nil {
		return nil, nil, err
	}

	var notes []string
	for _, src := range contexts {
		o, related, err := src.Lookup(ctx, path)
		if err != nil {
			if optnix.ErrorCode(err) == optnix.ENOTFOUND {
				continue
			}
			if msg, ok := friendly(src, err); ok {
				notes = append(notes, msg)
				continue
			}
			return nil, nil, err
		}

		var sb strings.Builder
		renderOption(&sb, o)
		if len(related) > 0 {
			sb.WriteString("\nRelated options:\n")
			for _, r := range related {
				fmt.Fprintf(&sb, "- %s (%s)\n", r.Path, r.Type)
			}
		}
		s.logger.Info("options_info", "path", path, "source", o.Source)
		return textResult(sb.String()), nil, nil
	}

	msg := fmt.Sprintf("No option named %q was found.", path)
	if len(notes) > 0 {
		msg += " " + strings.Join(notes, " ")
	}
	return textResult(msg), nil, nil
}

// List handles the options_list tool call.
func (s *Server) List(ctx context.Context, req *mcp.CallToolRequest, args ListArgs) (*mcp.CallToolResult, any, error) {
	prefix := strings.TrimSpace(args.Prefix)
	if prefix == "" {
		return nil, nil, optnix.Errorf(optnix.EINVALID, "prefix is required")
	}

	contexts, err := s.resolve(args.Source)
	if err != nil {
		return nil, nil, err
	}

	var sb strings.Builder
	for _, src := range contexts {
		options, err := src.ByPrefix(ctx, prefix, args.Limit)
		if err != nil {
			if msg, ok := friendly(src, err); ok {
				sb.WriteString(msg + "\n")
				continue
			}
			return nil, nil, err
		}
		if len(options) == 0 {
			continue
		}

		fmt.Fprintf(&sb, "## %s (%d options under %s)\n", src.Status().Source, len(options), prefix)
		for _, o := range options {
			fmt.Fprintf(&sb, "- %s (%s): %s\n", o.Path, o.Type, summarize(o.Description))
		}
		sb.WriteString("\n")
	}

	if sb.Len() == 0 {
		return textResult(fmt.Sprintf("No options found under %q.", prefix)), nil, nil
	}
	s.logger.Info("options_list", "prefix", prefix, "source", args.Source)
	return textResult(sb.String()), nil, nil
}

// Stats handles the options_stats tool call.
func (s *Server) Stats(ctx context.Context, req *mcp.CallToolRequest, args StatsArgs) (*mcp.CallToolResult, any, error) {
	contexts, err := s.resolve(args.Source)
	if err != nil {
		return nil, nil, err
	}

	var sb strings.Builder
	for _, src := range contexts {
		st := src.Status()
		fmt.Fprintf(&sb, "## %s\nstate: %s", st.Source, st.State)
		if st.Options > 0 {
			fmt.Fprintf(&sb, ", options: %d", st.Options)
		}
		if !st.BuiltAt.IsZero() {
			fmt.Fprintf(&sb, ", built: %s", st.BuiltAt.Format("2006-01-02 15:04:05 MST"))
		}
		sb.WriteString("\n")

		stats, err := src.Categories(ctx)
		if err != nil {
			if msg, ok := friendly(src, err); ok {
				sb.WriteString(msg + "\n\n")
				continue
			}
			return nil, nil, err
		}
		for _, c := range stats {
			fmt.Fprintf(&sb, "- %s: %d\n", c.Name, c.Count)
		}
		sb.WriteString("\n")
	}

	return textResult(sb.String()), nil, nil
}

// queryKind resolves an explicit kind argument, inferring one from the query
// shape when absent: dotted paths are prefix queries, everything else a term
// query.
func queryKind(kind, query string) optnix.QueryKind {
	switch kind {
	case string(optnix.QueryTerm), string(optnix.QueryPrefix), string(optnix.QueryHierarchical):
		return optnix.QueryKind(kind)
	}
	if strings.Contains(query, ".") && !strings.ContainsAny(query, " \t") {
		return optnix.QueryPrefix
	}
	return optnix.QueryTerm
}

// friendly translates source lifecycle failures into retry guidance. The
// second return is false for errors that should surface to the client as-is.
func friendly(src optnix.SourceContext, err error) (string, bool) {
	name := src.Status().Source
	switch optnix.ErrorCode(err) {
	case optnix.ENOTREADY:
		return fmt.Sprintf("The %s documentation is still loading; try again in a few seconds.", name), true
	case optnix.EUNAVAILABLE:
		return fmt.Sprintf("The %s documentation source is currently unreachable and no cached copy exists yet; try again later.", name), true
	}
	return "", false
}

func textResult(text string) *mcp.CallToolResult {
	if strings.TrimSpace(text) == "" {
		text = "No results."
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: strings.TrimRight(text, "\n") + "\n"}},
	}
}

func renderResult(sb *strings.Builder, source optnix.Source, res *optnix.Result) {
	if len(res.Options) == 0 {
		return
	}

	fmt.Fprintf(sb, "## %s (%d matches)\n", source, res.Total)
	if res.Fallback {
		sb.WriteString("No option matched every word; showing options matching any of them.\n")
	}
	for _, ro := range res.Options {
		o := ro.Option
		fmt.Fprintf(sb, "- %s (%s): %s\n", o.Path, o.Type, summarize(o.Description))
	}
	if len(res.Groups) > 0 {
		sb.WriteString("\nMatches by group:\n")
		for _, c := range sortedGroups(res.Groups) {
			fmt.Fprintf(sb, "- %s: %d\n", c.Name, c.Count)
		}
	}
	sb.WriteString("\n")
}

func renderOption(sb *strings.Builder, o *optnix.Option) {
	fmt.Fprintf(sb, "# %s\n\n", o.Path)
	fmt.Fprintf(sb, "Source: %s\n", o.Source)
	fmt.Fprintf(sb, "Type: %s\n", o.Type)
	if o.Default != "" {
		fmt.Fprintf(sb, "Default: %s\n", o.Default)
	}
	if o.Example != "" {
		fmt.Fprintf(sb, "Example: %s\n", o.Example)
	}
	if o.Category != "" {
		fmt.Fprintf(sb, "Category: %s\n", o.Category)
	}
	if o.Description != "" {
		fmt.Fprintf(sb, "\n%s\n", o.Description)
	}
}

// summarize keeps option listings one line each.
func summarize(description string) string {
	s := strings.Join(strings.Fields(description), " ")
	const max = 120
	if len(s) > max {
		s = s[:max-1] + "…"
	}
	return s
}

func sortedGroups(groups map[string]int) []optnix.CategoryStat {
	stats := make([]optnix.CategoryStat, 0, len(groups))
	for name, count := range groups {
		stats = append(stats, optnix.CategoryStat{Name: name, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}
