package cliapp

import (
	"context"
	"log/slog"
	"time"

	coreapp "serialguard/internal/core/app"
	"serialguard/internal/core/config"
	"serialguard/internal/core/ports"
	"serialguard/internal/notify"
	"serialguard/internal/shared/observability"

	"github.com/spf13/cobra"
)

type watchOptions struct {
	ui     bool
	notify bool
}

func (c *CLI) newWatchCmd() *cobra.Command {
	var opts watchOptions
	cmd := &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Watch sources and warn when serialization-sensitive classes change",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd, args, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.ui, "ui", false, "Enable terminal UI mode")
	cmd.Flags().BoolVar(&opts.notify, "notify", false, "Enable notifications for this session regardless of config")
	return cmd
}

func (c *CLI) runWatch(cmd *cobra.Command, args []string, opts watchOptions) error {
	cfg, cfgPath, err := c.loadConfig()
	if err != nil {
		return err
	}
	applyPathArgs(cfg, args)

	cleanupLogs := configureLogging(cmd.ErrOrStderr(), opts.ui, c.opts.verbose, cfg.Paths.StateDir)
	defer cleanupLogs()

	ctx := cmd.Context()
	var (
		sinks   []ports.NotificationSink
		channel *notify.ChannelSink
	)
	if opts.ui {
		channel = notify.NewChannelSink(256)
		sinks = append(sinks, channel, notify.LogSink{})
	} else {
		sinks = append(sinks, notify.LogSink{})
		if cfg.Alerts.Terminal {
			sinks = append(sinks, notify.NewTerminalSink(cmd.OutOrStdout(), cfg.Alerts.Beep))
		}
	}

	app, err := coreapp.New(cfg, coreapp.Options{Sinks: sinks})
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Warn("shutdown failed", "error", err)
		}
	}()
	if opts.notify {
		app.Settings.SetNotificationsEnabled(true)
	}

	stopObservability := startObservability(ctx, cfg, app)
	defer stopObservability()

	if _, err := app.InitialScan(ctx); err != nil {
		return err
	}
	if err := app.StartWatcher(); err != nil {
		return err
	}

	if cfgPath != "" {
		cw := config.NewWatcher(cfgPath, func(next *config.Config) {
			app.ApplyConfig(next)
			if opts.notify {
				app.Settings.SetNotificationsEnabled(true)
			}
		})
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config hot reload unavailable", "path", cfgPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	settings, _ := app.Settings.Snapshot()
	slog.Info("watching for changes",
		"roots", cfg.WatchPaths,
		"notifications_enabled", settings.NotificationsEnabled,
		"cooldown", settings.Cooldown,
		"debounce_mode", cfg.Debounce.Mode,
	)

	if opts.ui {
		return runUI(ctx, app, channel)
	}
	<-ctx.Done()
	return nil
}

// startObservability serves /metrics and /health and installs tracing when
// configured. The returned func shuts both down.
func startObservability(ctx context.Context, cfg *config.Config, app *coreapp.App) func() {
	var stops []func(context.Context) error

	if cfg.Observability.EnableTracing {
		shutdown, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint)
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			stops = append(stops, shutdown)
		}
	}

	if cfg.Observability.Enabled {
		server := observability.NewServer(cfg.Observability.Address, coreapp.NewHealthService(app))
		if err := server.Start(ctx); err != nil {
			slog.Warn("observability server unavailable", "error", err)
		} else {
			stops = append(stops, server.Stop)
		}
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, stop := range stops {
			if err := stop(shutdownCtx); err != nil {
				slog.Warn("observability shutdown failed", "error", err)
			}
		}
	}
}
