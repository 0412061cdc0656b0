package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statusesCmd = &cobra.Command{
	Use:   "statuses",
	Short: "List workflow statuses",
	Args:  cobra.NoArgs,
	RunE:  runStatuses,
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List known tags",
	Args:  cobra.NoArgs,
	RunE:  runTags,
}

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "List columns results can be filtered and sorted on",
	Args:  cobra.NoArgs,
	RunE:  runColumns,
}

func init() {
	rootCmd.AddCommand(statusesCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(columnsCmd)
}

func runStatuses(cmd *cobra.Command, _ []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	statuses, err := resultService.Statuses(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list statuses: %w", err)
	}

	for _, st := range statuses {
		var marks []string
		if st.IsDefault {
			marks = append(marks, "default")
		}
		if st.Closed {
			marks = append(marks, "closed")
		}
		line := fmt.Sprintf("  [%d] %s", st.ID, st.Name)
		if len(marks) > 0 {
			line += " (" + strings.Join(marks, ", ") + ")"
		}
		cmd.Println(line)
	}
	return nil
}

func runTags(cmd *cobra.Command, _ []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	tags, err := resultService.Tags(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list tags: %w", err)
	}
	if len(tags) == 0 {
		cmd.Println("No tags.")
		return nil
	}
	for _, tag := range tags {
		cmd.Printf("  [%d] %s\n", tag.ID, tag.Name)
	}
	return nil
}

func runColumns(cmd *cobra.Command, _ []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	cmd.Println(strings.Join(resultService.ValidColumnNames(), "\n"))
	return nil
}
