package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/resultq/internal/core/domain"
	"github.com/custodia-labs/resultq/internal/core/metaquery"
)

// resultJSON is the JSON shape of a result on the command line.
type resultJSON struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	URL       string          `json:"url"`
	Domain    string          `json:"domain"`
	StatusID  *int64          `json:"status_id"`
	UserID    *int64          `json:"user_id"`
	Content   string          `json:"content,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Tags      []string        `json:"tags,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func newResultJSON(r *domain.Result) resultJSON {
	out := resultJSON{
		ID:        r.ID,
		Title:     r.Title,
		URL:       r.URL,
		Domain:    r.Domain,
		StatusID:  r.StatusID,
		UserID:    r.UserID,
		Content:   r.Content,
		Tags:      r.Tags,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.HasMetadata() && json.Valid(r.Metadata) {
		out.Metadata = r.Metadata
	}
	return out
}

// resultFields are the flags of `result add` and `result update`.
type resultFields struct {
	url          string
	title        string
	domain       string
	statusID     int64
	userID       int64
	content      string
	metadata     string
	metadataFile string
	tags         string
	taskID       string
}

func (f *resultFields) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.url, "url", "", "absolute http(s) URL")
	flags.StringVar(&f.title, "title", "", "title")
	flags.StringVar(&f.domain, "domain", "", "domain (default: URL host)")
	flags.Int64Var(&f.statusID, "status", 0, "status ID (default: the default status)")
	flags.Int64Var(&f.userID, "user", 0, "owner user ID")
	flags.StringVar(&f.content, "content", "", "free-form content")
	flags.StringVar(&f.metadata, "metadata", "", "metadata JSON object")
	flags.StringVar(&f.metadataFile, "metadata-file", "", "read metadata JSON from file")
	flags.StringVar(&f.tags, "tags", "", "comma-separated tag list")
	flags.StringVar(&f.taskID, "task", "", "record an event for this task ID")
	cmd.MarkFlagsMutuallyExclusive("metadata", "metadata-file")
}

// apply copies the flags the user actually set onto r.
func (f *resultFields) apply(cmd *cobra.Command, r *domain.Result) error {
	changed := cmd.Flags().Changed
	if changed("url") {
		r.URL = f.url
	}
	if changed("title") {
		r.Title = f.title
	}
	if changed("domain") {
		r.Domain = f.domain
	}
	if changed("status") {
		id := f.statusID
		r.StatusID = &id
	}
	if changed("user") {
		id := f.userID
		r.UserID = &id
	}
	if changed("content") {
		r.Content = f.content
	}
	if changed("metadata") {
		r.Metadata = json.RawMessage(f.metadata)
	}
	if changed("metadata-file") {
		data, err := os.ReadFile(f.metadataFile)
		if err != nil {
			return fmt.Errorf("reading metadata file: %w", err)
		}
		r.Metadata = data
	}
	if changed("tags") {
		// An empty list clears the tags.
		r.Tags = append([]string{}, domain.ParseTagList(f.tags)...)
	}
	return nil
}

var (
	addFields    resultFields
	updateFields resultFields
	getJSON      bool
)

var resultCmd = &cobra.Command{
	Use:   "result",
	Short: "Manage results",
	Long:  `Add, inspect, update and delete individual results.`,
}

var resultAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a result",
	Long: `Adds a result. The URL is required and must be unique; the domain is
derived from it when not given. The metadata must be a JSON object.

Example:
  resultq result add --url https://example.com/x --metadata '{"severity":"high"}' --tags xss,reflected`,
	Args: cobra.NoArgs,
	RunE: runResultAdd,
}

var resultGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show a result",
	Args:  cobra.ExactArgs(1),
	RunE:  runResultGet,
}

var resultUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update a result",
	Long:  `Updates the fields given as flags and leaves the rest unchanged.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runResultUpdate,
}

var resultDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a result",
	Args:  cobra.ExactArgs(1),
	RunE:  runResultDelete,
}

var resultMetadataCmd = &cobra.Command{
	Use:   "metadata [id] [path]",
	Short: "Show a result's metadata",
	Long: `Prints the metadata document, or the value at a ':' separated key path.
Arrays along the path are searched element by element and several matches
are collected into one array.

Example:
  resultq result metadata 12 request:headers`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runResultMetadata,
}

var resultTagsCmd = &cobra.Command{
	Use:   "tags [id] [list]",
	Short: "Show or replace a result's tags",
	Long:  `Without a list, prints the tags. With a comma-separated list, replaces them.`,
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runResultTags,
}

var resultStatusCmd = &cobra.Command{
	Use:   "status [id]",
	Short: "Show a result's status, assigning the default when unset",
	Args:  cobra.ExactArgs(1),
	RunE:  runResultStatus,
}

func init() {
	addFields.register(resultAddCmd)
	_ = resultAddCmd.MarkFlagRequired("url")
	updateFields.register(resultUpdateCmd)
	resultGetCmd.Flags().BoolVar(&getJSON, "json", false, "output as JSON")

	resultCmd.AddCommand(resultAddCmd)
	resultCmd.AddCommand(resultGetCmd)
	resultCmd.AddCommand(resultUpdateCmd)
	resultCmd.AddCommand(resultDeleteCmd)
	resultCmd.AddCommand(resultMetadataCmd)
	resultCmd.AddCommand(resultTagsCmd)
	resultCmd.AddCommand(resultStatusCmd)
	rootCmd.AddCommand(resultCmd)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: result id %q", domain.ErrInvalidInput, arg)
	}
	return id, nil
}

func runResultAdd(cmd *cobra.Command, _ []string) error {
	if err := requireServices(); err != nil {
		return err
	}

	r := &domain.Result{}
	if err := addFields.apply(cmd, r); err != nil {
		return err
	}
	if err := resultService.Create(cmd.Context(), r, addFields.taskID); err != nil {
		return fmt.Errorf("failed to add result: %w", err)
	}

	cmd.Printf("Added result %d (%s)\n", r.ID, r.URL)
	return nil
}

func runResultGet(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	r, err := resultService.Get(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get result: %w", err)
	}

	if getJSON {
		data, err := json.MarshalIndent(newResultJSON(r), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("ID:      %d\n", r.ID)
	cmd.Printf("Title:   %s\n", r.Title)
	cmd.Printf("URL:     %s\n", r.URL)
	cmd.Printf("Domain:  %s\n", r.Domain)
	cmd.Printf("Status:  %s\n", optionalID(r.StatusID))
	cmd.Printf("User:    %s\n", optionalID(r.UserID))
	cmd.Printf("Tags:    %s\n", domain.FormatTagList(r.Tags))
	cmd.Printf("Created: %s\n", r.CreatedAt.Format(time.RFC3339))
	cmd.Printf("Updated: %s\n", r.UpdatedAt.Format(time.RFC3339))
	if r.Content != "" {
		cmd.Println()
		cmd.Println(r.Content)
	}
	return nil
}

func optionalID(id *int64) string {
	if id == nil {
		return "(none)"
	}
	return strconv.FormatInt(*id, 10)
}

func runResultUpdate(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	r, err := resultService.Get(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get result: %w", err)
	}
	// Tags are only rewritten when --tags is given.
	r.Tags = nil
	if err := updateFields.apply(cmd, r); err != nil {
		return err
	}
	if err := resultService.Update(cmd.Context(), r, updateFields.taskID); err != nil {
		return fmt.Errorf("failed to update result: %w", err)
	}

	cmd.Printf("Updated result %d\n", r.ID)
	return nil
}

func runResultDelete(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	if err := resultService.Delete(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to delete result: %w", err)
	}
	cmd.Printf("Deleted result %d\n", id)
	return nil
}

func runResultMetadata(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	var out any
	if len(args) == 1 {
		r, err := resultService.Get(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to get result: %w", err)
		}
		doc, err := metaquery.ParseDocument(r.Metadata)
		if err != nil {
			return fmt.Errorf("result %d: %w", id, err)
		}
		out = doc.Interface()
	} else {
		path, err := metaquery.ParsePath(args[1])
		if err != nil {
			return err
		}
		found, err := resultService.TraverseMetadata(cmd.Context(), id, path)
		if err != nil {
			return fmt.Errorf("failed to read metadata: %w", err)
		}
		out = found
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func runResultTags(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	if len(args) == 2 {
		if err := resultService.SetTagList(cmd.Context(), id, args[1]); err != nil {
			return fmt.Errorf("failed to set tags: %w", err)
		}
	}

	list, err := resultService.TagList(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get tags: %w", err)
	}
	if strings.TrimSpace(list) == "" {
		cmd.Println("(no tags)")
		return nil
	}
	cmd.Println(list)
	return nil
}

func runResultStatus(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	status, err := resultService.SetStatus(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to resolve status: %w", err)
	}
	cmd.Printf("Result %d: %s (id %d)\n", id, status.Name, status.ID)
	return nil
}
