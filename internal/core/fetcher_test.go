package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestProfileFilename(t *testing.T) {
	tests := []struct {
		url  string
		ct   ContextType
		want string
	}{
		{"https://example.com/docs/style.md", ContextInstructions, "style.instructions.md"},
		{"https://example.com/notes.txt", ContextPrompts, "notes.prompts.md"},
		{"https://example.com/a/review.chatmode.md", ContextChatmodes, "review.chatmode.chatmodes.md"},
		{"https://example.com/guide.md?ref=main", ContextInstructions, "guide.instructions.md"},
		{"https://example.com/readme", ContextInstructions, "readme.instructions.md"},
		{"https://example.com/", ContextInstructions, "index.instructions.md"},
		{"https://example.com", ContextPrompts, "index.prompts.md"},
		{"https://example.com/archive.md.md", ContextInstructions, "archive.md.instructions.md"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := ProfileFilename(tt.url, tt.ct); got != tt.want {
				t.Errorf("ProfileFilename(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

type fakeDownloader struct {
	pages map[string]string
	calls []string
}

func (f *fakeDownloader) Get(_ context.Context, rawURL string) (string, error) {
	f.calls = append(f.calls, rawURL)
	body, ok := f.pages[rawURL]
	if !ok {
		return "", errors.New("404 Not Found")
	}
	return body, nil
}

func TestContentFetcher_FetchAll(t *testing.T) {
	root := t.TempDir()
	dl := &fakeDownloader{pages: map[string]string{
		"https://a.test/style.md":       "# style",
		"https://a.test/review.md":      "# review",
		"https://b.test/other/style.md": "# other style",
		"https://a.test/debug.chatmode": "# debug",
	}}
	f := NewContentFetcher(dl, nil)

	plan := FetchPlan{
		Root:        root,
		Directories: DirectoriesFor("default"),
		URLs: map[ContextType][]string{
			ContextInstructions: {"https://a.test/style.md", "https://a.test/missing.md", "https://b.test/other/style.md"},
			ContextChatmodes:    {"https://a.test/debug.chatmode"},
			ContextPrompts:      {"https://a.test/review.md"},
		},
	}
	results := NewFetchResults()
	f.FetchAll(context.Background(), plan, results)

	if len(results.FailedURLs) != 1 || results.FailedURLs[0] != "https://a.test/missing.md" {
		t.Errorf("FailedURLs = %v", results.FailedURLs)
	}

	styleP := filepath.Join(root, ".github", "default", "instructions", "style.instructions.md")
	if len(results.Instructions) != 2 || results.Instructions[0] != styleP || results.Instructions[1] != styleP {
		t.Errorf("Instructions = %v", results.Instructions)
	}
	if len(results.Overwritten) != 1 || results.Overwritten[0] != styleP {
		t.Errorf("Overwritten = %v", results.Overwritten)
	}
	data, err := os.ReadFile(styleP)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "# other style" {
		t.Errorf("last writer should win, got %q", data)
	}

	modeP := filepath.Join(root, ".github", "default", "chatmodes", "debug.chatmode.chatmodes.md")
	if len(results.Chatmodes) != 1 || results.Chatmodes[0] != modeP {
		t.Errorf("Chatmodes = %v", results.Chatmodes)
	}
	promptP := filepath.Join(root, ".github", "default", "prompts", "review.prompts.md")
	if len(results.Prompts) != 1 || results.Prompts[0] != promptP {
		t.Errorf("Prompts = %v", results.Prompts)
	}

	// Processing order is instructions, chatmodes, prompts.
	wantOrder := []string{
		"https://a.test/style.md", "https://a.test/missing.md", "https://b.test/other/style.md",
		"https://a.test/debug.chatmode", "https://a.test/review.md",
	}
	if len(dl.calls) != len(wantOrder) {
		t.Fatalf("calls = %v", dl.calls)
	}
	for i := range wantOrder {
		if dl.calls[i] != wantOrder[i] {
			t.Errorf("call %d = %s, want %s", i, dl.calls[i], wantOrder[i])
		}
	}
}

func TestContentFetcher_FetchOneWithoutDir(t *testing.T) {
	dl := &fakeDownloader{pages: map[string]string{"https://a.test/x.md": "hello"}}
	got, err := NewContentFetcher(dl, nil).FetchOne(context.Background(), "https://a.test/x.md", "", ContextInstructions)
	if err != nil {
		t.Fatalf("FetchOne() error: %v", err)
	}
	if got != "hello" {
		t.Errorf("FetchOne() = %q, want content", got)
	}
}

func TestContentFetcher_FetchOneCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "deep", "dir")
	dl := &fakeDownloader{pages: map[string]string{"https://a.test/x.md": "hello"}}

	got, err := NewContentFetcher(dl, nil).FetchOne(context.Background(), "https://a.test/x.md", dir, ContextPrompts)
	if err != nil {
		t.Fatalf("FetchOne() error: %v", err)
	}
	if got != filepath.Join(dir, "x.prompts.md") {
		t.Errorf("FetchOne() = %q", got)
	}
	if _, err := os.Stat(got); err != nil {
		t.Errorf("file not written: %v", err)
	}
}
