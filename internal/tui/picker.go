package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/remotecontext/ctxfetch/internal/core"
)

// ErrCancelled is returned by PickProfile when the user leaves the picker
// without choosing.
var ErrCancelled = errors.New("profile selection cancelled")

// PickerModel lets the user choose the active profile of a project type.
type PickerModel struct {
	width  int
	height int

	projectType string
	profiles    []core.ProfileInfo

	list list.Model
	help help.Model

	chosen    string
	cancelled bool
}

// NewPicker creates a picker over profiles, with the cursor on the
// active profile.
func NewPicker(projectType string, profiles []core.ProfileInfo) PickerModel {
	l := list.New(profilesToItems(profiles), profileDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()
	l.SetShowPagination(false)

	for i, p := range profiles {
		if p.Active {
			l.Select(i)
			break
		}
	}

	h := help.New()
	h.Styles.ShortKey = helpStyle
	h.Styles.ShortDesc = helpStyle

	return PickerModel{
		projectType: projectType,
		profiles:    profiles,
		list:        l,
		help:        h,
	}.setSize(80, len(profiles)+4)
}

func (m PickerModel) setSize(width, height int) PickerModel {
	m.width = width
	m.height = height
	m.list.SetSize(width, max(1, height))
	m.help.Width = width
	return m
}

// Chosen returns the selected profile name; ok is false if nothing was
// chosen.
func (m PickerModel) Chosen() (name string, ok bool) {
	return m.chosen, m.chosen != ""
}

// Init implements tea.Model.
func (m PickerModel) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.setSize(msg.Width, msg.Height), nil

	case tea.KeyMsg:
		// Don't intercept keys while filtering.
		if m.list.SettingFilter() {
			break
		}

		switch {
		case key.Matches(msg, keys.Back) && m.list.FilterState() == list.FilterApplied:
			// Esc clears an applied filter first.
			break

		case key.Matches(msg, keys.Quit), key.Matches(msg, keys.Back):
			m.cancelled = true
			return m, tea.Quit

		case key.Matches(msg, keys.Enter):
			if pi, ok := m.list.SelectedItem().(profileItem); ok {
				m.chosen = pi.info.Name
				return m, tea.Quit
			}
			return m, nil
		}
	}

	// Forward to list for navigation + filtering.
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m PickerModel) View() string {
	if m.chosen != "" || m.cancelled {
		return ""
	}

	// --- Render-then-measure ---
	header := renderTitle(m.projectType) + "\n" + renderSectionHeader("SELECT PROFILE") + "\n"
	footer := "\n" + m.help.View(pickerHelpKeyMap{})

	if len(m.profiles) == 0 {
		return header + mutedStyle.Render("  No profiles configured.") + footer
	}

	listH := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	m.list.SetSize(m.width, max(1, listH))
	return header + m.list.View() + footer
}

// PickProfile runs the picker and returns the chosen profile name, or
// ErrCancelled.
func PickProfile(projectType string, profiles []core.ProfileInfo, opts ...tea.ProgramOption) (string, error) {
	final, err := tea.NewProgram(NewPicker(projectType, profiles), opts...).Run()
	if err != nil {
		return "", err
	}
	if name, ok := final.(PickerModel).Chosen(); ok {
		return name, nil
	}
	return "", ErrCancelled
}
