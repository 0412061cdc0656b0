package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/resultq/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Starts the HTTP API:

  GET /api/results?metadata_search=...&status_id=...&page=...
  GET /api/results/{id}
  GET /api/results/{id}/metadata?path=a:b
  GET /metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from settings)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := requireServices(); err != nil {
		return err
	}

	server, err := httpapi.NewServer(searchService, resultService)
	if err != nil {
		return err
	}
	server.SetPerPage(perPage(0))
	if metricsGatherer != nil {
		server.SetGatherer(metricsGatherer)
	}

	addr := serveAddr
	if addr == "" && settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			addr = s.HTTP.Addr
		}
	}
	if addr == "" {
		addr = ":8080"
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", displayAddr(addr))
	return server.Run(cmd.Context(), addr)
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
