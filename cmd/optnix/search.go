package main

import (
	"fmt"

	"github.com/optnix/optnix"
)

// Run executes the search command: a one-shot query against one source,
// printed to the terminal.
func (c *SearchCmd) Run(deps *Dependencies) error {
	src, ok := deps.Sources[optnix.Source(c.Source)]
	if !ok {
		return fmt.Errorf("unknown source %q (valid: home-manager, darwin, nixos)", c.Source)
	}

	// Local sources load synchronously so the one-shot query has data.
	for _, local := range deps.Local {
		if local.Status().Source != optnix.Source(c.Source) {
			continue
		}
		if err := local.Load(deps.Ctx); err != nil && local.Status().State != optnix.StateDegraded {
			fmt.Fprintf(deps.Stderr, "error: %s\n", optnix.ErrorMessage(err))
			return err
		}
	}

	res, err := src.Search(deps.Ctx, optnix.Query{
		Raw:   c.Query,
		Kind:  optnix.QueryKind(c.Kind),
		Limit: c.Limit,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", optnix.ErrorMessage(err))
		return err
	}

	if len(res.Options) == 0 {
		fmt.Fprintln(deps.Stdout, "No options matched.")
		return nil
	}

	if res.Fallback {
		fmt.Fprintln(deps.Stdout, "No option matched every word; showing partial matches.")
	}
	for _, ro := range res.Options {
		o := ro.Option
		fmt.Fprintf(deps.Stdout, "%s  (%s)\n", o.Path, o.Type)
	}
	fmt.Fprintf(deps.Stdout, "\n%d of %d matches shown\n", len(res.Options), res.Total)
	return nil
}
