package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remotecontext/ctxfetch/internal/core"
	"github.com/remotecontext/ctxfetch/internal/tui"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch context files into the repository and update editor settings",
	Long: `Fetch instructions, chat modes and prompts into .github/<profile>/ of the
git repository containing the workspace, then register every profile
directory in .vscode/settings.json.

By default the project type is detected and the URLs come from the active
profile of the configuration. URLs given with --instructions, --chatmodes or
--prompts replace the configured ones for that category.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		workspace, _ := cmd.Flags().GetString("workspace")
		instructions, _ := cmd.Flags().GetStringSlice("instructions")
		chatmodes, _ := cmd.Flags().GetStringSlice("chatmodes")
		prompts, _ := cmd.Flags().GetStringSlice("prompts")
		noDetect, _ := cmd.Flags().GetBool("no-detect")
		profile, _ := cmd.Flags().GetString("profile")

		resp, err := d.service.FetchAndSetup(cmd.Context(), core.FetchRequest{
			WorkspaceDir:     workspace,
			InstructionsURLs: instructions,
			ChatmodesURLs:    chatmodes,
			PromptsURLs:      prompts,
			AutoDetect:       !noDetect,
			ProfileName:      profile,
		})
		if err != nil {
			return err
		}

		if wantJSON(cmd) {
			return printJSON(cmd.OutOrStdout(), resp)
		}
		fmt.Fprint(cmd.OutOrStdout(), tui.RenderFetchSummary(resp))
		return nil
	},
}

func init() {
	f := fetchCmd.Flags()
	f.String("workspace", "", "Workspace directory (default: --workdir)")
	f.StringSlice("instructions", nil, "Instruction file URLs")
	f.StringSlice("chatmodes", nil, "Chat mode file URLs")
	f.StringSlice("prompts", nil, "Prompt file URLs")
	f.Bool("no-detect", false, "Do not detect the project type; use the default profile")
	f.String("profile", "", "Use this profile instead of the active one")
	addJSONFlag(fetchCmd)
	rootCmd.AddCommand(fetchCmd)
}
