package main

import (
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/optnix/optnix/mcp"
)

// Run executes the serve command: background-load the local sources and
// serve MCP on stdio until the client disconnects.
func (c *ServeCmd) Run(deps *Dependencies) error {
	for _, local := range deps.Local {
		local.Start(deps.Ctx)
	}

	srv := mcp.NewServer(deps.Sources, deps.Logger)
	return srv.Run(deps.Ctx, &sdk.StdioTransport{})
}
