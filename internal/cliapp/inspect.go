package cliapp

import (
	"io"
	"os"
	"path/filepath"

	coreapp "serialguard/internal/core/app"
	"serialguard/internal/ui/report"

	"github.com/spf13/cobra"
)

type inspectOptions struct {
	format         string
	output         string
	contextLines   int
	failOnFindings bool
}

func (c *CLI) newInspectCmd() *cobra.Command {
	var opts inspectOptions
	cmd := &cobra.Command{
		Use:   "inspect [paths...]",
		Short: "Report every serialization-sensitive class with its location",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(opts.format)
			if err != nil {
				return err
			}
			cfg, _, err := c.loadConfig()
			if err != nil {
				return err
			}
			applyPathArgs(cfg, args)
			cleanupLogs := configureLogging(cmd.ErrOrStderr(), false, c.opts.verbose, cfg.Paths.StateDir)
			defer cleanupLogs()

			app, err := coreapp.New(cfg, coreapp.Options{DisableHistory: true})
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			total, err := app.InitialScan(ctx)
			if err != nil {
				return err
			}
			findings, err := app.Inspect(ctx, args)
			if err != nil {
				return err
			}

			var out io.Writer = cmd.OutOrStdout()
			if opts.output != "" {
				if err := os.MkdirAll(filepath.Dir(opts.output), 0o755); err != nil {
					return err
				}
				f, err := os.Create(opts.output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			if err := report.WriteFindings(out, format, findings, report.Options{
				ProjectRoot:  app.Scope(),
				ProjectName:  filepath.Base(app.Scope()),
				TotalFiles:   total,
				ContextLines: opts.contextLines,
			}); err != nil {
				return err
			}
			if opts.failOnFindings && len(findings) > 0 {
				return exitError{code: 3}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, sarif, markdown or tsv")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the report to this file instead of stdout")
	cmd.Flags().IntVar(&opts.contextLines, "context", 0, "Source lines to show around each finding (text format)")
	cmd.Flags().BoolVar(&opts.failOnFindings, "fail-on-findings", false, "Exit with status 3 when any class is found")
	return cmd
}
