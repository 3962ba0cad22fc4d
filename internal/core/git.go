package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

const gitTimeout = 10 * time.Second

// ErrNotGitRepo is returned when a workspace is not inside a git work tree.
var ErrNotGitRepo = errors.New("not a git repository")

// gitCommand is the git executable; tests replace it.
var gitCommand = "git"

// runGit runs a git command in dir and returns its trimmed stdout.
func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, gitCommand, append([]string{"-C", dir}, args...)...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "LC_ALL=C")

	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("git %s timed out after %s", args[0], gitTimeout)
	}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", args[0], msg)
	}
	return strings.TrimSpace(string(out)), nil
}

// GitRoot returns the top-level directory of the work tree containing dir.
func GitRoot(ctx context.Context, dir string) (string, error) {
	root, err := runGit(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not a git repository") {
			return "", fmt.Errorf("%s: %w", dir, ErrNotGitRepo)
		}
		return "", fmt.Errorf("locating git root of %s: %w", dir, err)
	}
	if root == "" {
		// Inside .git itself there is no work tree.
		return "", fmt.Errorf("%s: %w", dir, ErrNotGitRepo)
	}
	return root, nil
}

// AnalyzeGit collects repository information for dir. Each piece is
// best-effort; a directory outside any work tree yields IsGitRepo=false.
func AnalyzeGit(ctx context.Context, dir string) GitInfo {
	if _, err := GitRoot(ctx, dir); err != nil {
		return GitInfo{IsGitRepo: false}
	}

	info := GitInfo{IsGitRepo: true}
	if origin, err := runGit(ctx, dir, "remote", "get-url", "origin"); err == nil {
		info.OriginURL = origin
	}
	if branch, err := runGit(ctx, dir, "symbolic-ref", "--short", "-q", "HEAD"); err == nil {
		info.CurrentBranch = branch
	}
	info.RecentCommits = recentCommits(ctx, dir, 5)
	return info
}

// Fields of the log format are separated by the ASCII unit separator and
// records by the record separator, so messages may contain anything else.
const (
	unitSep   = "\x1f"
	recordSep = "\x1e"
)

func recentCommits(ctx context.Context, dir string, n int) []GitCommit {
	format := "--format=%H" + unitSep + "%B" + unitSep + "%an <%ae>" + unitSep + "%cI" + recordSep
	out, err := runGit(ctx, dir, "log", fmt.Sprintf("--max-count=%d", n), format)
	if err != nil {
		// Empty repositories have no HEAD yet.
		return nil
	}

	var commits []GitCommit
	for _, rec := range strings.Split(out, recordSep) {
		rec = strings.TrimSpace(rec)
		if rec == "" {
			continue
		}
		parts := strings.SplitN(rec, unitSep, 4)
		if len(parts) != 4 {
			continue
		}
		hash := parts[0]
		if len(hash) > 8 {
			hash = hash[:8]
		}
		commits = append(commits, GitCommit{
			Hash:    hash,
			Message: strings.TrimSpace(parts[1]),
			Author:  parts[2],
			Date:    parts[3],
		})
	}
	return commits
}
