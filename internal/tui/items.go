package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/remotecontext/ctxfetch/internal/core"
)

// profileItem wraps a ProfileInfo for the bubbles list.
type profileItem struct {
	info core.ProfileInfo
}

func (i profileItem) FilterValue() string { return i.info.Name }

// profileDelegate renders profiles as: name  always+conditional  .github/name  (active)
type profileDelegate struct{}

func (d profileDelegate) Height() int                             { return 1 }
func (d profileDelegate) Spacing() int                            { return 0 }
func (d profileDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d profileDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	pi, ok := item.(profileItem)
	if !ok {
		return
	}
	line := renderProfileLine(pi.info, index == m.Index())
	if width := m.Width(); width > 0 && lipgloss.Width(line) > width {
		line = ansi.Truncate(line, width, "…")
	}
	_, _ = fmt.Fprint(w, line)
}

func renderProfileLine(info core.ProfileInfo, selected bool) string {
	indicator := "    "
	name := normalItemStyle.Render(info.Name)
	if selected {
		indicator = "  > "
		name = selectedItemStyle.Render(info.Name)
	}

	parts := []string{indicator + name}
	if kinds := ruleKinds(info); kinds != "" {
		parts = append(parts, badgeStyle.Render(kinds))
	}
	parts = append(parts, mutedStyle.Render(profileRoot(info)))
	if info.Active {
		parts = append(parts, activeStyle.Render("(active)"))
	}
	return strings.Join(parts, "  ")
}

// ruleKinds summarizes which rule groups a profile declares.
func ruleKinds(info core.ProfileInfo) string {
	var kinds []string
	if info.HasAlwaysFetch {
		kinds = append(kinds, "always")
	}
	if info.HasConditional {
		kinds = append(kinds, "conditional")
	}
	return strings.Join(kinds, "+")
}

// profileRoot is the directory holding all context types of a profile.
func profileRoot(info core.ProfileInfo) string {
	return strings.TrimSuffix(info.Directories.Instructions, "/"+string(core.ContextInstructions))
}

// profilesToItems converts profile summaries to list items.
func profilesToItems(profiles []core.ProfileInfo) []list.Item {
	items := make([]list.Item, len(profiles))
	for i, p := range profiles {
		items[i] = profileItem{info: p}
	}
	return items
}
