// Command sitepulse runs a website health audit over a list of domains.
//
// Each domain is assessed against three providers (business directory,
// performance lab, SEO authority) plus a direct reachability probe, then
// scored and written to a CSV or XLSX report. Provider API keys come from
// the environment; they never appear in the config file, logs or output.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sitepulse/sitepulse/internal/audit"
	"github.com/sitepulse/sitepulse/internal/config"
	"github.com/sitepulse/sitepulse/internal/export"
	"github.com/sitepulse/sitepulse/internal/httpcall"
	"github.com/sitepulse/sitepulse/internal/input"
	"github.com/sitepulse/sitepulse/internal/probe"
	"github.com/sitepulse/sitepulse/internal/source"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		inputPath  string
		outputPath string
		maxDomains int
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:          "sitepulse",
		Short:        "Audit website health across directory, performance and SEO providers",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)

			cfg, err := loadConfig(configPath)
			if err != nil {
				slog.Error("failed to load config", "path", configPath, "err", err)
				return err
			}
			if inputPath != "" {
				cfg.Audit.Input = inputPath
			}
			if outputPath != "" {
				cfg.Audit.Output = outputPath
			}
			if maxDomains > 0 {
				cfg.Audit.MaxDomains = maxDomains
			}

			// Setup failures are the only fatal errors. Once the batch
			// starts, per-domain problems degrade or fail that row only.
			if err := cfg.ValidateKeys(); err != nil {
				slog.Error("missing provider credential", "err", err)
				return err
			}

			// Watch the config file while the batch runs. A reload is
			// logged but takes effect on the next run; the in-flight
			// batch keeps the settings it started with.
			if configPath != "" {
				go func() {
					if err := config.Watch(cmd.Context(), configPath, func(updated *config.Config) {
						slog.Info("config changed on disk, new settings apply on next run",
							"input", updated.Audit.Input,
							"output", updated.Audit.Output,
						)
					}); err != nil {
						slog.Error("config watcher stopped", "err", err)
					}
				}()
			}

			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (optional; defaults apply without one)")
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "input CSV with the domain list (overrides config)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output report path, .csv or .xlsx (overrides config)")
	cmd.Flags().IntVar(&maxDomains, "max", 0, "process at most this many domains (overrides config)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	cobra.OnFinalize(cancel)
	cmd.SetContext(ctx)

	return cmd
}

// loadConfig reads the config file when one was given, otherwise runs on
// the built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Defaults(), nil
	}
	return config.Load(path)
}

func run(ctx context.Context, cfg *config.Config) error {
	slog.Info("sitepulse starting",
		"input", cfg.Audit.Input,
		"output", cfg.Audit.Output,
		"domain_timeout", cfg.Audit.DomainTimeout,
	)

	domains, err := input.Load(cfg.Audit.Input, input.Filters{
		Region:       cfg.Audit.Filters.Region,
		Tiers:        cfg.Audit.Filters.Tiers,
		Site:         cfg.Audit.Filters.Site,
		ExcludeTier0: cfg.Audit.Filters.ExcludeTier0,
		Max:          cfg.Audit.MaxDomains,
	})
	if err != nil {
		slog.Error("failed to load domain list", "path", cfg.Audit.Input, "err", err)
		return err
	}
	if len(domains) == 0 {
		slog.Warn("no domains matched the input filters, writing empty report")
	}

	policy := httpcall.RetryPolicy{
		Attempts:   cfg.Audit.Retry.Attempts,
		BaseDelay:  cfg.Audit.Retry.BaseDelay,
		Multiplier: cfg.Audit.Retry.Multiplier,
	}
	exec := httpcall.New(nil, policy, cfg.Audit.APIDelay)

	// The prober makes a single attempt per URL variant; retrying an
	// unreachable host just burns the domain budget.
	probeExec := httpcall.New(nil, httpcall.RetryPolicy{Attempts: 1}, 0)

	pipe := audit.NewPipeline(
		source.NewPlaces(exec, cfg.Providers.Places.Endpoint, cfg.Providers.Places.Key()),
		source.NewSemrush(exec, cfg.Providers.Semrush.Endpoint, cfg.Providers.Semrush.Key()),
		source.NewPageSpeed(exec, cfg.Providers.PageSpeed.Endpoint, cfg.Providers.PageSpeed.Key()),
		probe.New(probeExec),
		cfg.Audit.DomainTimeout,
	)

	results := audit.NewDriver(pipe).Run(ctx, domains)

	rows := make([][]string, 0, results.Len())
	for _, rec := range results.Rows() {
		rows = append(rows, rec.Row())
	}
	if err := export.Write(cfg.Audit.Output, rows); err != nil {
		slog.Error("failed to write report", "path", cfg.Audit.Output, "err", err)
		return err
	}

	slog.Info("report written",
		"path", cfg.Audit.Output,
		"domains", results.Len(),
		"ok", results.Count(audit.StatusOK),
		"degraded", results.Count(audit.StatusDegraded),
		"timed_out", results.Count(audit.StatusTimedOut),
		"failed", results.Count(audit.StatusFailed),
	)
	return nil
}
