package remote

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	DefaultAPIBase = "https://api.github.com"
	DefaultRawBase = "https://raw.githubusercontent.com"
)

// GitHub resolves repository references to raw-content URLs.
type GitHub struct {
	client  *Client
	apiBase string
	rawBase string
	logger  *zap.Logger
}

// GitHubOption customizes a GitHub.
type GitHubOption func(*GitHub)

// WithAPIBase points tree listings at another API host (tests, GHES).
func WithAPIBase(base string) GitHubOption {
	return func(g *GitHub) { g.apiBase = strings.TrimRight(base, "/") }
}

// WithRawBase points raw-content URLs at another host.
func WithRawBase(base string) GitHubOption {
	return func(g *GitHub) { g.rawBase = strings.TrimRight(base, "/") }
}

// NewGitHub creates a GitHub resolver on top of client.
func NewGitHub(client *Client, opts ...GitHubOption) *GitHub {
	g := &GitHub{
		client:  client,
		apiBase: DefaultAPIBase,
		rawBase: DefaultRawBase,
		logger:  client.logger,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// CanExpand reports whether wildcard expansion is possible. The tree API
// is only queried with a credential.
func (g *GitHub) CanExpand() bool {
	return g.client.HasToken()
}

// RawURL builds the raw-content URL of a file.
func (g *GitHub) RawURL(repo, branch, path string) string {
	return fmt.Sprintf("%s/%s/%s/%s", g.rawBase, repo, branch, strings.TrimPrefix(path, "/"))
}

// ListBlobs returns the paths of every file (blob) on branch.
func (g *GitHub) ListBlobs(ctx context.Context, repo, branch string) ([]string, error) {
	apiURL := fmt.Sprintf("%s/repos/%s/git/trees/%s?recursive=1", g.apiBase, repo, url.PathEscape(branch))
	body, err := g.client.Get(ctx, apiURL)
	if err != nil {
		return nil, fmt.Errorf("listing %s@%s: %w", repo, branch, err)
	}
	if !gjson.Valid(body) {
		return nil, fmt.Errorf("listing %s@%s: invalid JSON response", repo, branch)
	}
	if gjson.Get(body, "truncated").Bool() {
		g.logger.Warn("tree listing truncated by GitHub; some files may be missing",
			zap.String("repo", repo), zap.String("branch", branch))
	}

	var paths []string
	gjson.Get(body, `tree.#(type=="blob")#.path`).ForEach(func(_, v gjson.Result) bool {
		paths = append(paths, v.String())
		return true
	})
	return paths, nil
}

// ExpandWildcards turns path patterns into raw-content URLs. Patterns
// without a wildcard pass through unchanged. The tree is listed at most
// once per call.
//
// Without a token it returns no URLs and no error. If the listing fails,
// expansion stops and the URLs gathered so far are returned together with
// the error.
func (g *GitHub) ExpandWildcards(ctx context.Context, repo, branch string, patterns []string) ([]string, error) {
	if !g.CanExpand() {
		g.logger.Warn("GitHub token not available for wildcard expansion", zap.String("repo", repo))
		return nil, nil
	}

	var (
		urls  []string
		blobs []string
		have  bool
	)
	for _, pattern := range patterns {
		if !HasWildcard(pattern) {
			urls = append(urls, g.RawURL(repo, branch, pattern))
			continue
		}
		if !have {
			var err error
			blobs, err = g.ListBlobs(ctx, repo, branch)
			if err != nil {
				return urls, err
			}
			have = true
		}
		re := compilePattern(pattern)
		for _, p := range blobs {
			if re.MatchString(p) {
				urls = append(urls, g.RawURL(repo, branch, p))
			}
		}
	}
	return urls, nil
}
