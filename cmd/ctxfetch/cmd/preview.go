package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remotecontext/ctxfetch/internal/tui"
)

var previewCmd = &cobra.Command{
	Use:   "preview <url>",
	Short: "Download a file and render it as markdown without saving",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		content, err := d.service.Preview(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		raw, _ := cmd.Flags().GetBool("raw")
		if raw {
			fmt.Fprint(cmd.OutOrStdout(), content)
			return nil
		}
		width, _ := cmd.Flags().GetInt("width")
		out, err := tui.RenderMarkdown(content, width)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	previewCmd.Flags().Bool("raw", false, "Print the content as downloaded")
	previewCmd.Flags().Int("width", 80, "Wrap rendered markdown at this width")
	rootCmd.AddCommand(previewCmd)
}
