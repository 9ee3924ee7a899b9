// Package cliapp implements the serialguard command line.
package cliapp

import (
	"context"
	"fmt"
	"io"

	"serialguard/internal/shared/version"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "serialguard.toml"

type globalOptions struct {
	configPath string
	verbose    bool
}

// CLI is the cobra command tree.
type CLI struct {
	rootCmd *cobra.Command
	opts    globalOptions
}

func New() *CLI {
	c := &CLI{}
	rootCmd := &cobra.Command{
		Use:           "serialguard",
		Short:         "Warn when serialization-sensitive Java classes change",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		version.Commit,
		version.Date,
	))
	rootCmd.PersistentFlags().StringVarP(&c.opts.configPath, "config", "c", defaultConfigPath, "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&c.opts.verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newCheckCmd())
	rootCmd.AddCommand(c.newInspectCmd())
	rootCmd.AddCommand(c.newHistoryCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	c.rootCmd = rootCmd
	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// Run executes the CLI and maps the outcome to a process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cli := New()
	cli.SetArgs(args)
	cli.SetOutput(stdout, stderr)
	if err := cli.Execute(ctx); err != nil {
		if code, ok := exitCode(err); ok {
			return code
		}
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return 1
	}
	return 0
}

// exitError ends the process with a code but no extra message.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func exitCode(err error) (int, bool) {
	if e, ok := err.(exitError); ok {
		return e.code, true
	}
	return 0, false
}

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "serialguard version %s (commit: %s, date: %s)\n",
				version.Version, version.Commit, version.Date)
		},
	}
}
