// Command resultq tracks results and searches them by metadata.
package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/custodia-labs/resultq/internal/adapters/driven/config/file"
	"github.com/custodia-labs/resultq/internal/adapters/driven/metrics"
	"github.com/custodia-labs/resultq/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/resultq/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/resultq/internal/adapters/driving/cli"
	"github.com/custodia-labs/resultq/internal/core/ports/driven"
	"github.com/custodia-labs/resultq/internal/core/services"
	"github.com/custodia-labs/resultq/internal/logger"
)

// version is set via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// stores groups the driven adapters a run uses.
type stores struct {
	results  driven.ResultStore
	statuses driven.StatusStore
	tags     driven.TagStore
	events   driven.EventSink
	close    func() error
}

func bootstrap(opts cli.Options) (*cli.Services, func() error, error) {
	var config driven.ConfigStore
	if opts.Ephemeral {
		config = memory.NewConfigStore()
	} else {
		fileConfig, err := file.NewConfigStore(opts.ConfigDir)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
		config = fileConfig
	}

	settingsService := services.NewSettingsService(config)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, err
	}
	if err := settingsService.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid settings in %s: %w", config.Path(), err)
	}
	logger.SetLevel(settings.Log.Level.String())

	st, err := openStores(opts, settings.Storage.DataDir)
	if err != nil {
		return nil, nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	searchService := services.NewSearchService(st.results)
	searchService.SetMetrics(metrics.New(reg))
	searchService.SetWorkers(settings.Search.Workers)

	return &cli.Services{
		Search:   searchService,
		Results:  services.NewResultService(st.results, st.statuses, st.tags, st.events),
		Settings: settingsService,
		Gatherer: reg,
	}, st.close, nil
}

// openStores opens SQLite storage, or in-memory storage for --ephemeral.
// --data-dir wins over storage.data_dir from the config.
func openStores(opts cli.Options, configuredDir string) (*stores, error) {
	if opts.Ephemeral {
		logger.Debug("Using in-memory storage")
		statuses := memory.NewStatusStore()
		tags := memory.NewTagStore()
		return &stores{
			results:  memory.NewResultStore(statuses, tags),
			statuses: statuses,
			tags:     tags,
			events:   memory.NewEventSink(),
			close:    func() error { return nil },
		}, nil
	}

	dir := opts.DataDir
	if dir == "" {
		dir = configuredDir
	}
	store, err := sqlite.NewStore(dir)
	if err != nil {
		return nil, fmt.Errorf("opening result store: %w", err)
	}
	logger.Debug("Using SQLite storage at %s", store.Path())

	return &stores{
		results:  store.ResultStore(),
		statuses: store.StatusStore(),
		tags:     store.TagStore(),
		events:   store.EventSink(),
		close:    store.Close,
	}, nil
}
