package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Global flags.
var (
	configFlag  string
	workdirFlag string
	timeoutFlag time.Duration
	verbose     bool

	// logger is built in PersistentPreRunE and always writes to stderr.
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "ctxfetch",
	Short: "Fetch AI-assistant instruction files for your project",
	Long: `ctxfetch downloads instructions, chat modes and prompts for AI coding
assistants into .github/<profile>/ of a git repository and registers them in
.vscode/settings.json.

What gets fetched is described by a YAML configuration (context_config.yaml by
default, or CONTEXT_CONFIG_FILE) organised by project type and profile.
Run "ctxfetch serve" to expose the same operations as MCP tools over stdio.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		config.OutputPaths = []string{"stderr"}
		config.ErrorOutputPaths = []string{"stderr"}
		switch {
		case verbose:
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		case cmd.Name() == "serve":
			config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		default:
			// Keep interactive output clean.
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		l, err := config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ctxfetch %s (commit: %s, built: %s)\n", Version, Commit, Date)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFlag, "config", "", "Config file path or URL (overrides CONTEXT_CONFIG_FILE)")
	pf.StringVar(&workdirFlag, "workdir", "", "Default workspace directory (overrides CONTEXT_WORKDIR)")
	pf.DurationVar(&timeoutFlag, "http-timeout", 0, "Timeout for each HTTP request (default 30s)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
