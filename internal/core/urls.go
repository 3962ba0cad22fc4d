package core

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/remotecontext/ctxfetch/internal/remote"
)

// WildcardExpander expands repository path patterns against a remote
// file listing. *remote.GitHub satisfies it.
type WildcardExpander interface {
	CanExpand() bool
	ExpandWildcards(ctx context.Context, repo, branch string, patterns []string) ([]string, error)
}

// Resolver turns fetch rules into concrete URLs.
type Resolver struct {
	expander WildcardExpander
	logger   *zap.Logger
}

// NewResolver creates a Resolver. expander may be nil, in which case
// wildcard paths always use basic URL synthesis.
func NewResolver(expander WildcardExpander, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{expander: expander, logger: logger}
}

// ResolveItem returns the URLs a single fetch item stands for. It never
// fails: when wildcard expansion is unavailable it falls back to BasicURLs.
func (r *Resolver) ResolveItem(ctx context.Context, item FetchItem) []string {
	if item.URL != "" {
		return []string{item.URL}
	}
	if item.Repo == "" {
		return nil
	}

	branch := item.Branch
	if branch == "" {
		branch = defaultBranch
	}
	paths := item.Paths
	if len(paths) == 0 {
		paths = []string{defaultPathPattern}
	}

	if hasWildcards(paths) && r.expander != nil && r.expander.CanExpand() {
		urls, err := r.expander.ExpandWildcards(ctx, item.Repo, branch, paths)
		if err != nil {
			r.logger.Error("failed to expand GitHub wildcards",
				zap.String("repo", item.Repo),
				zap.Int("partial_urls", len(urls)),
				zap.Error(err))
		}
		return urls
	}
	return BasicURLs(item.Repo, branch, paths)
}

// BasicURLs builds raw-content URLs without listing the repository.
// Wildcard paths are approximated by dropping '*' and '.' characters.
func BasicURLs(repo, branch string, paths []string) []string {
	urls := make([]string, 0, len(paths))
	for _, p := range paths {
		if remote.HasWildcard(p) {
			p = strings.NewReplacer("*", "", ".", "").Replace(p)
		}
		urls = append(urls, remote.DefaultRawBase+"/"+repo+"/"+branch+"/"+p)
	}
	return urls
}

func hasWildcards(paths []string) bool {
	for _, p := range paths {
		if remote.HasWildcard(p) {
			return true
		}
	}
	return false
}

// ContextURLs collects the URLs of one context type for the given project
// types and conditions. For each configured project type it uses the
// profile named profileName, or the active profile when profileName is
// empty; types lacking a named profile are skipped. always_fetch items are
// always included, conditional items only when their condition is true.
// The result holds each URL once, in first-seen order.
func (r *Resolver) ContextURLs(ctx context.Context, cfg *Config, projectTypes []string, conds Conditions, ct ContextType, profileName string) []string {
	set := newURLSet()

	for _, name := range projectTypes {
		pt, ok := cfg.FindProjectType(name)
		if !ok {
			continue
		}

		var spec ProfileSpec
		if profileName != "" {
			p, ok := pt.FindProfile(profileName)
			if !ok {
				continue
			}
			spec = p.Spec
		} else {
			spec = ActiveProfile(cfg, name).Spec
		}

		for _, item := range spec.AlwaysFetch[ct] {
			set.add(r.ResolveItem(ctx, item)...)
		}
		for _, cond := range sortedKeys(spec.Conditional) {
			if !conds[cond] {
				continue
			}
			for _, item := range spec.Conditional[cond][ct] {
				set.add(r.ResolveItem(ctx, item)...)
			}
		}
	}
	return set.list()
}

// urlSet keeps unique URLs in insertion order.
type urlSet struct {
	seen  map[string]bool
	order []string
}

func newURLSet() *urlSet {
	return &urlSet{seen: make(map[string]bool), order: []string{}}
}

func (s *urlSet) add(urls ...string) {
	for _, u := range urls {
		if u == "" || s.seen[u] {
			continue
		}
		s.seen[u] = true
		s.order = append(s.order, u)
	}
}

func (s *urlSet) list() []string {
	return s.order
}
