package cliapp

import (
	"fmt"
	"text/tabwriter"

	coreapp "serialguard/internal/core/app"
	"serialguard/internal/core/ports"
	"serialguard/internal/notify"

	"github.com/spf13/cobra"
)

func (c *CLI) newCheckCmd() *cobra.Command {
	var details bool
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Check one Java file now and report its serialization-sensitive classes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := c.loadConfig()
			if err != nil {
				return err
			}
			cleanupLogs := configureLogging(cmd.ErrOrStderr(), false, c.opts.verbose, cfg.Paths.StateDir)
			defer cleanupLogs()

			out := cmd.OutOrStdout()
			app, err := coreapp.New(cfg, coreapp.Options{
				Sinks: []ports.NotificationSink{notify.NewTerminalSink(out, false)},
			})
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			if _, err := app.InitialScan(ctx); err != nil {
				return err
			}

			n := app.RunCheck(ctx, args[0])
			if details && n.Severity != ports.SeverityError && n.Title != notify.TitleNotJava {
				results, err := app.CheckFile(ctx, args[0])
				if err == nil {
					fmt.Fprintln(out)
					tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "CLASS\tQUALIFIES\tEVIDENCE\tVIA")
					for _, r := range results {
						fmt.Fprintf(tw, "%s\t%t\t%s\t%s\n", r.ClassName, r.Qualifies, r.Evidence, r.Via)
					}
					_ = tw.Flush()
				}
			}
			if n.Severity == ports.SeverityError {
				return exitError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&details, "details", false, "Also list every class with its evidence")
	return cmd
}
