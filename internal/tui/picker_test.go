package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/remotecontext/ctxfetch/internal/core"
)

func testProfiles() []core.ProfileInfo {
	return []core.ProfileInfo{
		{Name: "minimal", Directories: core.DirectoriesFor("minimal"), HasAlwaysFetch: true},
		{Name: "full", Active: true, Directories: core.DirectoriesFor("full"), HasAlwaysFetch: true, HasConditional: true},
		{Name: "docs", Directories: core.DirectoriesFor("docs")},
	}
}

func send(m PickerModel, msgs ...tea.Msg) (PickerModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(PickerModel)
	}
	return m, cmd
}

func TestNewPicker_CursorOnActive(t *testing.T) {
	m := NewPicker("python", testProfiles())
	if got := m.list.Index(); got != 1 {
		t.Errorf("cursor = %d, want 1 (active profile)", got)
	}
	if _, ok := m.Chosen(); ok {
		t.Error("nothing should be chosen yet")
	}
}

func TestPicker_EnterChoosesSelected(t *testing.T) {
	m := NewPicker("python", testProfiles())
	m, cmd := send(m,
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	name, ok := m.Chosen()
	if !ok || name != "docs" {
		t.Errorf("Chosen() = %q, %v; want docs", name, ok)
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, isQuit := cmd().(tea.QuitMsg); !isQuit {
		t.Error("expected tea.QuitMsg")
	}
	if m.View() != "" {
		t.Error("view should be empty after choosing")
	}
}

func TestPicker_EscCancels(t *testing.T) {
	m := NewPicker("python", testProfiles())
	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyEsc})

	if !m.cancelled {
		t.Error("expected cancelled")
	}
	if _, ok := m.Chosen(); ok {
		t.Error("nothing should be chosen")
	}
	if cmd == nil {
		t.Error("expected quit command")
	}
}

func TestPicker_QuitKey(t *testing.T) {
	m := NewPicker("python", testProfiles())
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !m.cancelled {
		t.Error("q should cancel")
	}
}

func TestPicker_View(t *testing.T) {
	m := NewPicker("python", testProfiles())
	m, _ = send(m, tea.WindowSizeMsg{Width: 100, Height: 20})

	view := ansi.Strip(m.View())
	for _, want := range []string{"ctxfetch", "python", "SELECT PROFILE", "minimal", "full", "(active)", ".github/full"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestPicker_ViewEmpty(t *testing.T) {
	m := NewPicker("rust", nil)
	if view := ansi.Strip(m.View()); !strings.Contains(view, "No profiles configured.") {
		t.Errorf("view = %q", view)
	}
}

func TestRenderProfileLine(t *testing.T) {
	line := ansi.Strip(renderProfileLine(testProfiles()[1], true))
	want := "  > full  always+conditional  .github/full  (active)"
	if line != want {
		t.Errorf("renderProfileLine() = %q, want %q", line, want)
	}

	line = ansi.Strip(renderProfileLine(testProfiles()[2], false))
	if line != "    docs  .github/docs" {
		t.Errorf("renderProfileLine() = %q", line)
	}
}

func TestRenderProfiles(t *testing.T) {
	out := ansi.Strip(RenderProfiles("python", testProfiles()))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[2], "minimal") || !strings.Contains(lines[4], "docs") {
		t.Errorf("profiles out of order:\n%s", out)
	}
}

func TestRenderFetchSummary(t *testing.T) {
	resp := &core.FetchResponse{
		RepoRoot: "/repo",
		Profile:  core.ResolvedProfile{Name: "full", ProjectType: "python"},
		Results: &core.FetchResults{
			Instructions: []string{"/repo/.github/full/instructions/style.instructions.md"},
			FailedURLs:   []string{"https://docs.test/gone.md"},
		},
		SettingsUpdated: true,
	}

	out := ansi.Strip(RenderFetchSummary(resp))
	for _, want := range []string{
		"full (python)",
		".github/full/instructions/style.instructions.md",
		"FAILED",
		"https://docs.test/gone.md",
		"updated .vscode/settings.json",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
