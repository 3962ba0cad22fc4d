package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/remotecontext/ctxfetch/internal/core"
)

var contextCmd = &cobra.Command{
	Use:   "context [path]",
	Short: "Show detected project types, frameworks and git state",
	Long: `Detect project types and framework conditions for a workspace.
If a path is given, inspects that directory. Otherwise uses the working directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		noGit, _ := cmd.Flags().GetBool("no-git")
		noFiles, _ := cmd.Flags().GetBool("no-files")
		req := core.WorkspaceRequest{IncludeGit: !noGit, IncludeFiles: !noFiles}
		if len(args) > 0 {
			req.Path = args[0]
		}

		wc, err := d.service.WorkspaceContext(cmd.Context(), req)
		if err != nil {
			return err
		}
		if wantJSON(cmd) {
			return printJSON(cmd.OutOrStdout(), wc)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Workspace: %s\n", wc.WorkspacePath)
		fmt.Fprintf(w, "  Project types: %s\n", joinOrNone(wc.ProjectTypes))

		var held []string
		for name, ok := range wc.DetectedConditions {
			if ok {
				held = append(held, name)
			}
		}
		sort.Strings(held)
		fmt.Fprintf(w, "  Conditions: %s\n", joinOrNone(held))
		for _, warning := range wc.DetectionWarnings {
			fmt.Fprintf(w, "  Warning: %s\n", warning)
		}

		if gi := wc.GitInfo; gi != nil {
			if !gi.IsGitRepo {
				fmt.Fprintln(w, "  Git: not a repository")
			} else {
				fmt.Fprintf(w, "  Git: branch %s", gi.CurrentBranch)
				if gi.OriginURL != "" {
					fmt.Fprintf(w, ", origin %s", gi.OriginURL)
				}
				fmt.Fprintln(w)
				for _, c := range gi.RecentCommits {
					fmt.Fprintf(w, "    %s %s\n", c.Hash, firstLine(c.Message))
				}
			}
		}

		if len(wc.KeyFiles) > 0 {
			names := make([]string, 0, len(wc.KeyFiles))
			for name := range wc.KeyFiles {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Fprintln(w, "  Key files:")
			for _, name := range names {
				kf := wc.KeyFiles[name]
				if kf.Error != "" {
					fmt.Fprintf(w, "    - %s (%s)\n", name, kf.Error)
					continue
				}
				fmt.Fprintf(w, "    - %s (%d lines)\n", name, kf.Lines)
			}
		}

		fmt.Fprintln(w, "Suggested:")
		for _, a := range wc.SuggestedActions {
			fmt.Fprintf(w, "  - %s\n", a)
		}
		return nil
	},
}

func init() {
	contextCmd.Flags().Bool("no-git", false, "Skip git repository information")
	contextCmd.Flags().Bool("no-files", false, "Skip key file analysis")
	addJSONFlag(contextCmd)
	rootCmd.AddCommand(contextCmd)
}
