package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"newshub/internal/app"
	"newshub/internal/cache"
	"newshub/internal/config"
	"newshub/internal/domain"
	"newshub/internal/logger"
	"newshub/internal/migrations"
	"newshub/internal/usecase"
)

var version = "dev"

type options struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "newshub",
		Short:        "News aggregation service",
		Long:         "newshub fans a query out to several news providers, merges the results and serves them over HTTP.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath(), "path to config file (.json, .toml, .yaml)")
	root.AddCommand(
		newServeCmd(opts),
		newHeadlinesCmd(opts),
		newSearchCmd(opts),
		newMigrateCmd(opts),
		newCacheCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the cache warm-up worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Logger)
			if err != nil {
				return fmt.Errorf("could not setup logger: %w", err)
			}
			slog.SetDefault(log)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			a, err := app.New(ctx, cfg, log)
			if err != nil {
				log.Error("Application init failed", slog.String("component", "app"), slog.Any("error", err))
				return err
			}
			return a.Run(ctx)
		},
	}
}

func newHeadlinesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "headlines",
		Short: "Fetch top headlines from all providers and print them as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return fetchAndPrint(cmd.Context(), opts, domain.QuerySpec{}, cmd.OutOrStdout())
		},
	}
}

func newSearchCmd(opts *options) *cobra.Command {
	var preferences []string
	cmd := &cobra.Command{
		Use:   "search [keyword]",
		Short: "Search all providers by keyword or preferences and print the result as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := domain.QuerySpec{Preferences: preferences}
			if len(args) == 1 {
				spec.Keyword = args[0]
			}
			if domain.Resolve(spec).Mode != domain.ModeSearch {
				return fmt.Errorf("keyword or --pref is required")
			}
			return fetchAndPrint(cmd.Context(), opts, spec, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringSliceVar(&preferences, "pref", nil, "preference terms joined with OR when no keyword is given")
	return cmd
}

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply Postgres migrations for the user store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			if cfg.Database.Driver != config.DatabasePostgres {
				return fmt.Errorf("migrate requires database.driver %q, got %q", config.DatabasePostgres, cfg.Database.Driver)
			}
			log := cliLogger(cmd.ErrOrStderr(), slog.LevelInfo)
			pool, err := app.OpenPostgres(cmd.Context(), cfg.Database, log)
			if err != nil {
				return err
			}
			defer pool.Close()
			return migrations.Apply(cmd.Context(), log, pool)
		},
	}
}

func newCacheCmd(opts *options) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the result cache",
	}
	cacheCmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Print result cache statistics",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withCache(opts, func(store cache.Store) error {
					stats, err := store.Stats(cmd.Context())
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), stats)
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every cached result",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withCache(opts, func(store cache.Store) error {
					if err := store.Clear(cmd.Context()); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
					return nil
				})
			},
		},
	)
	return cacheCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "newshub %s\n", version)
		},
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// cliLogger пишет логи разовых команд в stderr, чтобы не смешивать их с JSON в stdout.
func cliLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(logger.NewLevelDispatcherHandler(w, w, &slog.HandlerOptions{Level: level}))
}

// fetchAndPrint выполняет один запрос через кэш, чтобы повторные вызовы
// с SQLite-кэшем не ходили к провайдерам.
func fetchAndPrint(ctx context.Context, opts *options, spec domain.QuerySpec, out io.Writer) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	log := cliLogger(os.Stderr, slog.LevelWarn)
	aggregator, err := app.NewAggregator(cfg.App, log)
	if err != nil {
		return err
	}
	store, err := app.NewCache(cfg.Cache)
	if err != nil {
		return err
	}
	defer store.Close()
	news := usecase.NewNewsService(aggregator, store, nil, log)
	return printJSON(out, news.Articles(ctx, spec))
}

func withCache(opts *options, fn func(cache.Store) error) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	store, err := app.NewCache(cfg.Cache)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
