package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/resultq/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can search results.

Tools:
  search_results         structured filters plus a metadata query
  parse_metadata_query   validate a query and show its clauses

Resources:
  resultq://statuses
  resultq://results/{id}/metadata

By default the server speaks JSON-RPC over stdio. Use --port to serve the
streamable HTTP transport instead.

Examples:
  resultq mcp serve
  resultq mcp serve --port 8081`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Search:  searchService,
		Results: resultService,
	})
	if err != nil {
		return err
	}
	server.SetPerPage(perPage(0))

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
