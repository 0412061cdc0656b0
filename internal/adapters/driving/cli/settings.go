package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/resultq/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure search, logging and HTTP settings.

Settings live in ~/.resultq/config.toml and can be edited there directly.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsPerPageCmd = &cobra.Command{
	Use:   "per-page [n]",
	Short: "Set the default number of results per page",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsPerPage,
}

var settingsWorkersCmd = &cobra.Command{
	Use:   "workers [n]",
	Short: "Set the number of metadata evaluation workers",
	Long:  `Set how many candidates are checked against a metadata query at once. 0 uses one worker per CPU.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsWorkers,
}

var settingsLogLevelCmd = &cobra.Command{
	Use:   "log-level [level]",
	Short: "Set the log level",
	Long: `Set the log level used with --verbose.

Available levels:
  debug  - everything, including per-search details
  info   - search summaries
  warn   - problems only`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsLogLevel,
}

var settingsHTTPAddrCmd = &cobra.Command{
	Use:   "http-addr [addr]",
	Short: "Set the listen address of `resultq serve`",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsHTTPAddr,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsPerPageCmd)
	settingsCmd.AddCommand(settingsWorkersCmd)
	settingsCmd.AddCommand(settingsLogLevelCmd)
	settingsCmd.AddCommand(settingsHTTPAddrCmd)
	rootCmd.AddCommand(settingsCmd)
}

func requireSettings() error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return nil
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	workers := strconv.Itoa(settings.Search.Workers)
	if settings.Search.Workers <= 0 {
		workers = "auto"
	}
	dataDir := settings.Storage.DataDir
	if dataDir == "" {
		dataDir = "(default)"
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()
	cmd.Println("[Search]")
	cmd.Printf("  Per page: %d\n", settings.Search.PerPage)
	cmd.Printf("  Workers: %s\n", workers)
	cmd.Println()
	cmd.Println("[Storage]")
	cmd.Printf("  Data dir: %s\n", dataDir)
	cmd.Println()
	cmd.Println("[Log]")
	cmd.Printf("  Level: %s\n", settings.Log.Level)
	cmd.Println()
	cmd.Println("[HTTP]")
	cmd.Printf("  Address: %s\n", settings.HTTP.Addr)
	return nil
}

func runSettingsPerPage(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: per-page %q", domain.ErrInvalidInput, args[0])
	}
	if err := settingsService.SetPerPage(n); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Printf("Per page set to %d\n", n)
	return nil
}

func runSettingsWorkers(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: workers %q", domain.ErrInvalidInput, args[0])
	}
	if err := settingsService.SetWorkers(n); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Printf("Workers set to %d\n", n)
	return nil
}

func runSettingsLogLevel(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	level := domain.LogLevel(args[0])
	if err := settingsService.SetLogLevel(level); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Printf("Log level set to %s\n", level)
	return nil
}

func runSettingsHTTPAddr(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	if err := settingsService.SetHTTPAddr(args[0]); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Printf("HTTP address set to %s\n", args[0])
	return nil
}
