package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	exportOutput string
	exportFilter filterFlags
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export results as CSV",
	Long: `Writes every result passing the structured filters as CSV, with the
columns id, title, url, status_id, created_at, updated_at, domain, user_id,
content and metadata.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
	exportFilter.register(exportCmd)
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	filter, err := exportFilter.filter(cmd)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("creating %s: %w", exportOutput, err)
		}
		defer f.Close()
		w = f
	}

	if err := resultService.ExportCSV(cmd.Context(), w, filter); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if exportOutput != "" {
		cmd.PrintErrf("Exported to %s\n", exportOutput)
	}
	return nil
}
