package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remotecontext/ctxfetch/internal/core"
	"github.com/remotecontext/ctxfetch/internal/tui"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "List and switch profiles",
}

var profileListCmd = &cobra.Command{
	Use:   "list <project-type>",
	Short: "List the profiles of a project type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		infos, err := d.service.AvailableProfiles(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if wantJSON(cmd) {
			type profileJSON struct {
				Name string `json:"name"`
				core.ProfileInfo
			}
			out := make([]profileJSON, len(infos))
			for i, info := range infos {
				out[i] = profileJSON{Name: info.Name, ProfileInfo: info}
			}
			return printJSON(cmd.OutOrStdout(), out)
		}
		fmt.Fprint(cmd.OutOrStdout(), tui.RenderProfiles(args[0], infos))
		return nil
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set <project-type> <profile>",
	Short: "Activate a profile for a project type",
	Long: `Make a profile the only active one of its project type, save the
configuration and update .vscode/settings.json of the working directory's
repository.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		return activateProfile(cmd, d, args[0], args[1])
	},
}

var profilePickCmd = &cobra.Command{
	Use:   "pick <project-type>",
	Short: "Choose the active profile interactively",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		infos, err := d.service.AvailableProfiles(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		name, err := tui.PickProfile(args[0], infos)
		if errors.Is(err, tui.ErrCancelled) {
			fmt.Fprintln(cmd.OutOrStdout(), "No profile selected.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("running profile picker: %w", err)
		}
		return activateProfile(cmd, d, args[0], name)
	},
}

func activateProfile(cmd *cobra.Command, d *deps, projectType, name string) error {
	resp, err := d.service.SetActiveProfile(cmd.Context(), projectType, name)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Profile '%s' activated for project type '%s'\n", resp.Profile.Name, resp.Profile.ProjectType)
	if !resp.ConfigSaved {
		fmt.Fprintf(w, "  Warning: configuration %s was not saved\n", d.configs.Source())
	}
	if !resp.SettingsUpdated {
		fmt.Fprintln(w, "  Warning: editor settings were not updated")
	}
	return nil
}

func init() {
	addJSONFlag(profileListCmd)
	profileCmd.AddCommand(profileListCmd, profileSetCmd, profilePickCmd)
	rootCmd.AddCommand(profileCmd)
}
