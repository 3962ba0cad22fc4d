package core

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

// initRepo creates a git repository with one commit and returns its path.
func initRepo(t *testing.T) string {
	t.Helper()
	requireGit(t)
	dir := t.TempDir()
	ctx := context.Background()
	steps := [][]string{
		{"init", "-q", "-b", "main"},
		{"config", "user.name", "Test User"},
		{"config", "user.email", "test@example.com"},
		{"config", "commit.gpgsign", "false"},
		{"remote", "add", "origin", "https://github.com/octo/app.git"},
		{"commit", "-q", "--allow-empty", "-m", "initial commit"},
	}
	for _, args := range steps {
		if _, err := runGit(ctx, dir, args...); err != nil {
			t.Fatalf("git %v: %v", args, err)
		}
	}
	return dir
}

func TestGitRoot(t *testing.T) {
	dir := initRepo(t)
	sub := filepath.Join(dir, "a", "b")
	writeFiles(t, dir, map[string]string{"a/b/x.txt": "x"})

	root, err := GitRoot(context.Background(), sub)
	if err != nil {
		t.Fatalf("GitRoot() error: %v", err)
	}
	want, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(root)
	if got != want {
		t.Errorf("GitRoot() = %q, want %q", got, want)
	}
}

func TestGitRoot_NotARepo(t *testing.T) {
	requireGit(t)
	_, err := GitRoot(context.Background(), t.TempDir())
	if !errors.Is(err, ErrNotGitRepo) {
		t.Errorf("GitRoot() error = %v, want ErrNotGitRepo", err)
	}
}

func TestGitRoot_GitMissing(t *testing.T) {
	orig := gitCommand
	gitCommand = "ctxfetch-no-such-git"
	t.Cleanup(func() { gitCommand = orig })

	_, err := GitRoot(context.Background(), t.TempDir())
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, ErrNotGitRepo) {
		t.Errorf("GitRoot() error = %v, want an error other than ErrNotGitRepo", err)
	}
	if !strings.Contains(err.Error(), "ctxfetch-no-such-git") {
		t.Errorf("error %q does not name the missing executable", err)
	}
}

func TestAnalyzeGit(t *testing.T) {
	dir := initRepo(t)

	info := AnalyzeGit(context.Background(), dir)
	if !info.IsGitRepo {
		t.Fatal("expected IsGitRepo")
	}
	if info.OriginURL != "https://github.com/octo/app.git" {
		t.Errorf("OriginURL = %q", info.OriginURL)
	}
	if info.CurrentBranch != "main" {
		t.Errorf("CurrentBranch = %q", info.CurrentBranch)
	}
	if len(info.RecentCommits) != 1 {
		t.Fatalf("RecentCommits = %+v", info.RecentCommits)
	}
	c := info.RecentCommits[0]
	if len(c.Hash) != 8 || c.Message != "initial commit" {
		t.Errorf("commit = %+v", c)
	}
	if !strings.Contains(c.Author, "test@example.com") || c.Date == "" {
		t.Errorf("commit = %+v", c)
	}
}

func TestAnalyzeGit_NotARepo(t *testing.T) {
	requireGit(t)
	if info := AnalyzeGit(context.Background(), t.TempDir()); info.IsGitRepo {
		t.Errorf("AnalyzeGit() = %+v, want IsGitRepo=false", info)
	}
}
