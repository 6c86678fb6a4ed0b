package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/epaper-dashboard/internal/api/http"
	"github.com/i474232898/epaper-dashboard/internal/config"
	"github.com/i474232898/epaper-dashboard/internal/dashboard"
	"github.com/i474232898/epaper-dashboard/internal/fetch"
	"github.com/i474232898/epaper-dashboard/internal/logging"
	"github.com/i474232898/epaper-dashboard/internal/provider"
	"github.com/i474232898/epaper-dashboard/internal/scheduler"
	"github.com/i474232898/epaper-dashboard/internal/store"
)

// app is built once per invocation in the root command's pre-run hook.
type app struct {
	cfg    *config.AppConfig
	log    zerolog.Logger
	runner *dashboard.Runner
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var debug bool

	cmd := &cobra.Command{
		Use:           "epaper-dashboard",
		Short:         "Render weather, calendar and alerts onto an e-paper SVG",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level := cfg.LogLevel
			if debug {
				level = "debug"
			}
			a.cfg = cfg
			a.log = logging.New(level, cmd.ErrOrStderr())

			cache, err := store.NewFileStore(cfg.CacheDir)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			fetcher := fetch.NewClient(cache,
				fetch.WithTimeout(cfg.HTTPTimeout),
				fetch.WithLogger(logging.Component(a.log, "fetch")),
			)
			a.runner = dashboard.NewRunner(cfg, fetcher, cache, dashboard.WithLogger(a.log))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	cmd.AddCommand(
		newRunCmd(a),
		newValuesCmd(a, provider.CategoryWeather),
		newValuesCmd(a, provider.CategoryCalendar),
		newValuesCmd(a, provider.CategoryAlert),
		newWatchCmd(a),
		newServeCmd(a),
	)
	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "run [calendar|weather|alert...]",
		Short:     "Render the given categories (all by default) into the output SVG",
		ValidArgs: []string{"calendar", "weather", "alert"},
		RunE: func(cmd *cobra.Command, args []string) error {
			categories := make([]provider.Category, 0, len(args))
			for _, arg := range args {
				c, err := provider.ParseCategory(arg)
				if err != nil {
					return err
				}
				categories = append(categories, c)
			}
			// failed categories are already logged and fall back to their last good values
			if err := a.runner.Run(cmd.Context(), categories...); err != nil {
				a.log.Warn().Err(err).Msg("run finished with errors")
			}
			return nil
		},
	}
}

func newValuesCmd(a *app, c provider.Category) *cobra.Command {
	return &cobra.Command{
		Use:   string(c),
		Short: fmt.Sprintf("Print the %s template values as KEY=value lines", c),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values, err := a.runner.Values(cmd.Context(), c)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), values.Lines())
			return err
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-render the dashboard every WATCH_INTERVAL until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sched := scheduler.New(a.cfg.WatchInterval, runAll(a.runner), a.log)
			if err := sched.Start(); err != nil {
				return fmt.Errorf("start scheduler: %w", err)
			}
			defer sched.Stop()

			<-cmd.Context().Done()
			a.log.Info().Msg("watch stopped")
			return nil
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve template values over HTTP for previewing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if watch {
				sched := scheduler.New(a.cfg.WatchInterval, runAll(a.runner), a.log)
				if err := sched.Start(); err != nil {
					return fmt.Errorf("start scheduler: %w", err)
				}
				defer sched.Stop()
			}

			srv := fiber.New(fiber.Config{
				AppName:               "epaper-dashboard",
				DisableStartupMessage: true,
				ReadTimeout:           10 * time.Second,
				WriteTimeout:          a.cfg.HTTPTimeout * 4,
				ErrorHandler:          httpapi.ErrorHandler,
			})
			srv.Use(logger.New())
			srv.Use(recover.New())
			httpapi.RegisterRoutes(srv, a.runner)

			go func() {
				a.log.Info().Str("port", a.cfg.Port).Msg("listening")
				if err := srv.Listen(":" + a.cfg.Port); err != nil {
					a.log.Error().Err(err).Msg("fiber server stopped")
				}
			}()

			<-cmd.Context().Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.ShutdownWithContext(shutdownCtx)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "also re-render the output SVG every WATCH_INTERVAL")
	return cmd
}

func runAll(r *dashboard.Runner) scheduler.Job {
	return func(ctx context.Context) error {
		return r.Run(ctx)
	}
}
