package cliapp

import (
	"fmt"
	"time"

	coreapp "serialguard/internal/core/app"
	"serialguard/internal/data/history"
	"serialguard/internal/ui/report"

	"github.com/spf13/cobra"
)

type historyOptions struct {
	since     string
	limit     int
	allScopes bool
	format    string
	prune     time.Duration
}

func (c *CLI) newHistoryCmd() *cobra.Command {
	var opts historyOptions
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded warnings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := report.ParseFormat(opts.format)
			if err != nil {
				return err
			}
			since, err := parseSince(opts.since)
			if err != nil {
				return err
			}
			cfg, _, err := c.loadConfig()
			if err != nil {
				return err
			}
			cleanupLogs := configureLogging(cmd.ErrOrStderr(), false, c.opts.verbose, cfg.Paths.StateDir)
			defer cleanupLogs()

			if !cfg.DBEnabled() {
				return fmt.Errorf("warning history is disabled ([db] enabled = false)")
			}
			store, err := history.Open(cfg.DBPath())
			if err != nil {
				return err
			}
			defer store.Close()

			if opts.prune > 0 {
				removed, err := store.Prune(time.Now().Add(-opts.prune))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d notification(s) older than %s.\n", removed, opts.prune)
				return nil
			}

			scope := coreapp.ProjectScope(cfg)
			if opts.allScopes {
				scope = ""
			}
			items, err := store.LoadNotifications(scope, since, opts.limit)
			if err != nil {
				return err
			}
			return report.WriteHistory(cmd.OutOrStdout(), format, items, coreapp.ProjectScope(cfg))
		},
	}
	cmd.Flags().StringVar(&opts.since, "since", "", "Only show warnings at/after this time (RFC3339, YYYY-MM-DD or a duration)")
	cmd.Flags().IntVar(&opts.limit, "limit", 50, "Maximum number of warnings to show")
	cmd.Flags().BoolVar(&opts.allScopes, "all", false, "Include warnings from every project sharing the database")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, tsv or json")
	cmd.Flags().DurationVar(&opts.prune, "prune", 0, "Delete warnings older than this duration and exit")
	return cmd
}
