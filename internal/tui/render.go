package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/remotecontext/ctxfetch/internal/core"
)

// RenderProfiles renders the profiles of a project type for non-interactive
// output.
func RenderProfiles(projectType string, profiles []core.ProfileInfo) string {
	var b strings.Builder
	b.WriteString(renderTitle(projectType) + "\n")
	b.WriteString(renderSectionHeader("PROFILES") + "\n")
	if len(profiles) == 0 {
		b.WriteString(mutedStyle.Render("  No profiles configured.") + "\n")
		return b.String()
	}
	for _, p := range profiles {
		b.WriteString(renderProfileLine(p, false) + "\n")
	}
	return b.String()
}

// RenderFetchSummary renders the outcome of a fetch run. Saved paths are
// shown relative to the repository root.
func RenderFetchSummary(resp *core.FetchResponse) string {
	var b strings.Builder
	b.WriteString(renderTitle(resp.Profile.Name+" ("+resp.Profile.ProjectType+")") + "\n")

	rel := func(p string) string {
		if r, err := filepath.Rel(resp.RepoRoot, p); err == nil {
			return filepath.ToSlash(r)
		}
		return p
	}

	groups := []struct {
		label string
		paths []string
	}{
		{"INSTRUCTIONS", resp.Results.Instructions},
		{"CHATMODES", resp.Results.Chatmodes},
		{"PROMPTS", resp.Results.Prompts},
	}
	for _, g := range groups {
		b.WriteString(renderSectionHeader(g.label) + " " + badgeStyle.Render(fmt.Sprintf("%d", len(g.paths))) + "\n")
		for _, p := range g.paths {
			b.WriteString("    " + normalItemStyle.Render(rel(p)) + "\n")
		}
	}

	if len(resp.Results.FailedURLs) > 0 {
		b.WriteString(renderSectionHeader("FAILED") + "\n")
		for _, u := range resp.Results.FailedURLs {
			b.WriteString("    " + errorStyle.Render(u) + "\n")
		}
	}
	for _, p := range resp.Results.Overwritten {
		b.WriteString("  " + warningStyle.Render("overwritten: "+rel(p)) + "\n")
	}

	if resp.SettingsUpdated {
		b.WriteString("  " + activeStyle.Render("updated "+filepath.ToSlash(core.SettingsRelPath)) + "\n")
	} else {
		b.WriteString("  " + errorStyle.Render("settings not updated: "+resp.SettingsError) + "\n")
	}
	return b.String()
}

// RenderMarkdown renders markdown for the terminal, wrapped at width.
func RenderMarkdown(content string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	return r.Render(content)
}
