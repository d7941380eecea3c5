package main

import (
	"fmt"

	"github.com/optnix/optnix/source"
)

// Run executes the precache command. It drives every local source to
// Ready (or Degraded, when only cached data is reachable) so a later
// serve run works without network access.
func (c *PrecacheCmd) Run(deps *Dependencies) error {
	if err := source.Precache(deps.Ctx, deps.Local); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", err)
		return err
	}

	for _, local := range deps.Local {
		st := local.Status()
		fmt.Fprintf(deps.Stdout, "%s  %s  %d options\n", st.Source, st.State, st.Options)
	}
	return nil
}
