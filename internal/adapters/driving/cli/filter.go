package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/resultq/internal/core/domain"
)

// filterFlags holds the structured filter flags shared by search and export.
type filterFlags struct {
	statusIDs     []int64
	tagIDs        []int64
	userID        int64
	urlContains   string
	titleContains string
	includeClosed bool
	sort          string
	descending    bool
}

func (f *filterFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Int64SliceVar(&f.statusIDs, "status", nil, "status ID (repeatable)")
	flags.Int64SliceVar(&f.tagIDs, "tag", nil, "tag ID, any of (repeatable)")
	flags.Int64Var(&f.userID, "user", 0, "owner user ID")
	flags.StringVar(&f.urlContains, "url", "", "URL substring (case-insensitive)")
	flags.StringVar(&f.titleContains, "title", "", "title substring (case-insensitive)")
	flags.BoolVar(&f.includeClosed, "include-closed", false, "include results in closed statuses")
	flags.StringVar(&f.sort, "sort", "", "sort column: id, created_at, updated_at or title")
	flags.BoolVar(&f.descending, "desc", false, "sort descending")
}

// filter builds the structured filter. --user only applies when given.
func (f *filterFlags) filter(cmd *cobra.Command) (domain.ResultFilter, error) {
	out := domain.ResultFilter{
		StatusIDs:     f.statusIDs,
		TagIDs:        f.tagIDs,
		URLContains:   f.urlContains,
		TitleContains: f.titleContains,
		IncludeClosed: f.includeClosed,
		Sort:          domain.SortField(f.sort),
		Descending:    f.descending,
	}
	if !out.Sort.IsValid() {
		return out, fmt.Errorf("%w: unknown sort column %q", domain.ErrInvalidInput, f.sort)
	}
	if cmd.Flags().Changed("user") {
		id := f.userID
		out.UserID = &id
	}
	return out, nil
}
