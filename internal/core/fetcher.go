package core

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Downloader fetches the text behind a URL. *remote.Client satisfies it.
type Downloader interface {
	Get(ctx context.Context, rawURL string) (string, error)
}

// FetchPlan lists what to download and where to store it.
type FetchPlan struct {
	// Root is the directory the per-category directories are relative to.
	Root string
	// Directories are the per-category output directories, relative to Root.
	Directories Directories
	// URLs holds the URLs per category.
	URLs map[ContextType][]string
}

// ContentFetcher downloads URLs and stores them as markdown files.
type ContentFetcher struct {
	downloader Downloader
	logger     *zap.Logger
}

// NewContentFetcher creates a ContentFetcher.
func NewContentFetcher(d Downloader, logger *zap.Logger) *ContentFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentFetcher{downloader: d, logger: logger}
}

// NewFetchResults returns results with every list initialized, so the
// JSON shape does not depend on what was fetched.
func NewFetchResults() *FetchResults {
	return &FetchResults{
		Instructions: []string{},
		Chatmodes:    []string{},
		Prompts:      []string{},
		FailedURLs:   []string{},
	}
}

// FetchAll downloads every URL of the plan, one at a time, category by
// category. A failed URL is recorded and the run continues. When two URLs
// map to the same file the later one wins and the path is listed in
// Overwritten.
func (f *ContentFetcher) FetchAll(ctx context.Context, plan FetchPlan, results *FetchResults) {
	written := make(map[string]string)

	for _, ct := range ContextTypes {
		dir := filepath.Join(plan.Root, filepath.FromSlash(plan.Directories.For(ct)))
		for _, u := range plan.URLs[ct] {
			saved, err := f.FetchOne(ctx, u, dir, ct)
			if err != nil {
				f.logger.Error("failed to fetch content", zap.String("url", u), zap.Error(err))
				results.FailedURLs = append(results.FailedURLs, u)
				continue
			}
			if prev, ok := written[saved]; ok {
				f.logger.Warn("file overwritten by a later URL",
					zap.String("path", saved),
					zap.String("previous_url", prev),
					zap.String("url", u))
				results.Overwritten = append(results.Overwritten, saved)
			}
			written[saved] = u
			results.add(ct, saved)
		}
	}
}

// FetchOne downloads rawURL and, when dir is not empty, saves it as
// dir/<name>.<context type>.md and returns the path. With an empty dir the
// content itself is returned.
func (f *ContentFetcher) FetchOne(ctx context.Context, rawURL, dir string, ct ContextType) (string, error) {
	content, err := f.downloader.Get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	if dir == "" {
		f.logger.Info("fetched remote content", zap.String("url", rawURL))
		return content, nil
	}

	target := filepath.Join(dir, ProfileFilename(rawURL, ct))
	if err := writeContent(dir, target, content); err != nil {
		return "", err
	}
	f.logger.Info("saved content",
		zap.String("context_type", string(ct)),
		zap.String("path", target))
	return target, nil
}

// ProfileFilename derives the local file name of a URL: its last path
// segment without a .md or .txt extension, plus ".<context type>.md".
func ProfileFilename(rawURL string, ct ContextType) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	base := path.Base(strings.TrimRight(p, "/"))
	if base == "." || base == "/" || base == "" {
		base = "index"
	}
	for _, ext := range []string{".md", ".txt"} {
		if strings.HasSuffix(base, ext) {
			base = strings.TrimSuffix(base, ext)
			break
		}
	}
	return fmt.Sprintf("%s.%s.md", base, ct)
}

func writeContent(dir, target, content string) (err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	file, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", target, cerr)
		}
	}()
	if _, err := file.WriteString(content); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	return nil
}
