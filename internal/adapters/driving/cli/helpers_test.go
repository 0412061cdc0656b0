package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/resultq/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/resultq/internal/core/domain"
	"github.com/custodia-labs/resultq/internal/core/services"
)

// setupTestServices wires in-memory services and returns a cleanup func.
func setupTestServices() func() {
	statuses := memory.NewStatusStore()
	tags := memory.NewTagStore()
	store := memory.NewResultStore(statuses, tags)

	SetServices(&Services{
		Search:   services.NewSearchService(store),
		Results:  services.NewResultService(store, statuses, tags, memory.NewEventSink()),
		Settings: services.NewSettingsService(memory.NewConfigStore()),
	})

	return func() {
		SetServices(nil)
		resetFlags(rootCmd)
	}
}

// resetFlags restores every flag to its default between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// addResult stores a result through the injected service.
func addResult(t *testing.T, rawURL, metadata string) int64 {
	t.Helper()
	r := &domain.Result{URL: rawURL, Title: rawURL, Metadata: json.RawMessage(metadata)}
	require.NoError(t, resultService.Create(context.Background(), r, ""))
	return r.ID
}
