package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/resultq/internal/core/domain"
	"github.com/custodia-labs/resultq/internal/core/metaquery"
)

var (
	searchMetadata string
	searchPage     int
	searchPerPage  int
	searchJSON     bool
	searchFilter   filterFlags
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search results",
	Long: `Searches results with structured filters and an optional metadata query.

The structured filters run in the store first; the metadata query is then
checked against each candidate's metadata document. Closed statuses are
hidden unless --include-closed or --status is given.

Examples:
  resultq search --metadata 'a:b=="x",c==1'
  resultq search --tag 3 --metadata 'tags@>["critical"]' --page 2`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchMetadata, "metadata", "m", "", "metadata query")
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "page number")
	searchCmd.Flags().IntVarP(&searchPerPage, "per-page", "n", 0, "results per page (default from settings)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchFilter.register(searchCmd)
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, _ []string) error {
	if err := requireServices(); err != nil {
		return err
	}

	filter, err := searchFilter.filter(cmd)
	if err != nil {
		return err
	}

	opts := domain.SearchOptions{
		Filter:        filter,
		MetadataQuery: searchMetadata,
		Page:          searchPage,
		PageSize:      perPage(searchPerPage),
	}

	page, err := searchService.Search(cmd.Context(), opts)
	if err != nil {
		if se, ok := metaquery.AsSyntaxError(err); ok {
			return fmt.Errorf("invalid metadata query near %q: %s", se.Fragment, se.Reason)
		}
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, page)
	}
	return outputSearchTable(cmd, page)
}

// perPage resolves the page size: flag, then settings, then the default.
func perPage(flag int) int {
	if flag > 0 {
		return flag
	}
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil && s.Search.PerPage > 0 {
			return s.Search.PerPage
		}
	}
	return domain.DefaultPerPage
}

func outputSearchJSON(cmd *cobra.Command, page *domain.SearchPage) error {
	type searchJSONOutput struct {
		Results    []resultJSON `json:"results"`
		Total      int          `json:"total"`
		Page       int          `json:"page"`
		PerPage    int          `json:"per_page"`
		TotalPages int          `json:"total_pages"`
		Filter     string       `json:"filter"`
	}

	out := searchJSONOutput{
		Results:    make([]resultJSON, len(page.Results)),
		Total:      page.Total,
		Page:       page.Page,
		PerPage:    page.PageSize,
		TotalPages: page.TotalPages(),
		Filter:     page.Filter.Summary(),
	}
	for i := range page.Results {
		out.Results[i] = newResultJSON(&page.Results[i])
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, page *domain.SearchPage) error {
	cmd.Printf("Filter: %s\n", page.Filter.Summary())
	if len(page.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println()
	for i := range page.Results {
		r := &page.Results[i]
		title := r.Title
		if title == "" {
			title = r.URL
		}
		cmd.Printf("  [%d] %s\n", r.ID, title)
		cmd.Printf("      %s\n", r.URL)
	}
	cmd.Println()
	cmd.Printf("Page %d of %d (%d results)\n", page.Page, page.TotalPages(), page.Total)
	return nil
}
