package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mocks-server/mocks-server/pkg/admin"
	"github.com/mocks-server/mocks-server/pkg/core"
	"github.com/mocks-server/mocks-server/pkg/logging"
)

// BuildInfo is injected during build.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// newCore creates the application with the built-in plugins. Arguments are
// read as a configuration source.
func newCore(args []string, logOutput io.Writer) (*core.Core, error) {
	return core.New(
		core.WithArgs(args),
		core.WithPlugins(admin.New()),
		core.WithLogOutput(logOutput, logging.FormatText),
	)
}

func wantsHelp(args []string) bool {
	return slices.Contains(args, "-h") || slices.Contains(args, "--help")
}

// printOptions prints the flags of every declared option.
func printOptions(cmd *cobra.Command, args []string) error {
	c, err := newCore(nil, io.Discard)
	if err != nil {
		return err
	}
	if err := c.Register(); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n\nUsage:\n  %s\n\n", cmd.Short, cmd.UseLine())
	if cmd.HasAvailableSubCommands() {
		fmt.Fprint(out, "Commands:\n")
		for _, sub := range cmd.Commands() {
			if sub.IsAvailableCommand() {
				fmt.Fprintf(out, "  %-10s %s\n", sub.Name(), sub.Short)
			}
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "Options:\n%s", c.Config().ArgsUsage())
	return nil
}

// NewRootCommand returns the mocks-server command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	root := &cobra.Command{
		Use:   "mocks-server [options]",
		Short: "Mock HTTP APIs by serving collections of route variants",
		Long: `mocks-server serves the routes of the selected collection and exposes an
admin API to change them at runtime.

Options are read, from lowest to highest precedence, from the defaults, the
mocks.config.{yaml,yml,json} file, MOCKS_* environment variables and flags.`,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if wantsHelp(args) {
				return printOptions(cmd, args)
			}
			return runServer(cmd.Context(), args, cmd.ErrOrStderr())
		},
	}
	root.AddCommand(newConfigCommand(), newVersionCommand(info))
	return root
}

// runServer starts the server and blocks until ctx is done or the process
// receives an interrupt.
func runServer(ctx context.Context, args []string, logOutput io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := newCore(args, logOutput)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.Start(ctx); err != nil {
		return err
	}
	c.Logger().Info("mocks server listening", "url", c.Server().URL())

	<-ctx.Done()
	return c.Stop(context.Background())
}

// Execute runs the root command. This is called by main.main().
func Execute(info BuildInfo) {
	if err := NewRootCommand(info).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
