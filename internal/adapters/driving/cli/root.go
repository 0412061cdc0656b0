// Package cli provides the resultq command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/resultq/internal/core/ports/driving"
	"github.com/custodia-labs/resultq/internal/logger"
)

// version is set at build time.
var version = "dev"

// Global flags.
var (
	verbose   bool
	ephemeral bool
	dataDir   string
	configDir string
)

// Services used by commands. Set by the bootstrap before a command runs.
var (
	searchService   driving.SearchService
	resultService   driving.ResultService
	settingsService driving.SettingsService
	metricsGatherer prometheus.Gatherer
)

// skipBootstrap marks commands that never touch storage.
const skipBootstrap = "skip-bootstrap"

// Options carries the global flags to the bootstrap.
type Options struct {
	DataDir   string
	ConfigDir string
	Ephemeral bool
	Verbose   bool
}

// Services are the driving ports a bootstrap provides.
type Services struct {
	Search   driving.SearchService
	Results  driving.ResultService
	Settings driving.SettingsService

	// Gatherer backs the /metrics route of `serve`. Optional.
	Gatherer prometheus.Gatherer
}

// Bootstrap builds services once flags are parsed. The returned close
// function runs after the command finishes.
type Bootstrap func(opts Options) (*Services, func() error, error)

var (
	bootstrap    Bootstrap
	closeStorage func() error
)

var rootCmd = &cobra.Command{
	Use:   "resultq",
	Short: "Track and search results by metadata",
	Long: `resultq stores results (URLs with a JSON metadata document) and
searches them with structured filters plus a small metadata query language:

  a:b=="x",c==1        nested key equals, all clauses must hold
  state!="done"        key differs or is missing
  tags@>["p","q"]      array contains every listed string`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep results in memory for this run only")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.resultq/data)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default ~/.resultq)")
}

// SetVersion sets the version reported by `resultq version`.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetBootstrap installs the function that builds services.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices injects services directly, bypassing the bootstrap.
func SetServices(s *Services) {
	if s == nil {
		searchService, resultService, settingsService, metricsGatherer = nil, nil, nil, nil
		return
	}
	searchService = s.Search
	resultService = s.Results
	settingsService = s.Settings
	metricsGatherer = s.Gatherer
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if cmd.Annotations[skipBootstrap] == "true" || searchService != nil || bootstrap == nil {
		return nil
	}

	svc, closeFn, err := bootstrap(Options{
		DataDir:   dataDir,
		ConfigDir: configDir,
		Ephemeral: ephemeral,
		Verbose:   verbose,
	})
	if err != nil {
		return fmt.Errorf("initialising: %w", err)
	}
	SetServices(svc)
	closeStorage = closeFn
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if closeStorage == nil {
		return nil
	}
	err := closeStorage()
	closeStorage = nil
	return err
}

// requireServices fails fast when a command runs without its services.
func requireServices() error {
	if searchService == nil || resultService == nil {
		return errors.New("result services not configured")
	}
	return nil
}
