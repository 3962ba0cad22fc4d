package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/remotecontext/ctxfetch/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ctxfetch tools over MCP stdio",
	Long: `Run an MCP server on stdin/stdout exposing five tools:

  get_workspace_context          detect project types, frameworks and git state
  fetch_and_setup_copilot_files  fetch files and update .vscode/settings.json
  list_context_config            show the configuration
  set_active_profile             switch the active profile of a project type
  get_available_profiles         list the profiles of a project type

Logs go to stderr. A missing local configuration file is created empty.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		if err := d.configs.EnsureExists(); err != nil {
			logger.Warn("could not create config file", zap.String("path", d.configs.Source()), zap.Error(err))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s := mcpserver.New(d.service, Version, logger)
		err = mcpserver.Serve(ctx, s, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
