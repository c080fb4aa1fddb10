package cli

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:                "config [options]",
		Short:              "Print the effective configuration as YAML",
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if wantsHelp(args) {
				return printOptions(cmd, args)
			}
			c, err := newCore(args, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := c.Register(); err != nil {
				return err
			}
			if err := c.Config().Init(); err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(c.Config().Value()); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
