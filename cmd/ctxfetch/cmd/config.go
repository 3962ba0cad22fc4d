package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the context configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration as JSON",
	Long: `Print the configuration as JSON, keeping the declaration order of project
types and profiles. When the configuration could not be loaded, the empty
default is printed and the reason is reported on stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		res := d.service.ListConfig(cmd.Context())
		if res.Defaulted() {
			fmt.Fprintf(cmd.ErrOrStderr(), "Using empty configuration (%s): %s\n", res.Outcome, res.Reason)
		}

		data, err := res.Config.MarshalJSON()
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		var out bytes.Buffer
		if err := json.Indent(&out, data, "", "  "); err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.String())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an empty configuration file if none exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		if d.configs.IsRemote() {
			return fmt.Errorf("config %s is remote and read-only", d.configs.Source())
		}
		if err := d.configs.EnsureExists(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config: %s\n", d.configs.Source())
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print where the configuration is read from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), d.configs.Source())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configInitCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}
