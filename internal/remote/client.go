// Package remote talks to the outside world: plain HTTP downloads and the
// GitHub tree API used to expand wildcard paths.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxBodySize caps a single download. Instruction files are small; anything
// larger is almost certainly a wrong URL.
const maxBodySize = 10 << 20

// DefaultTrustedHosts are the hosts that receive the GitHub token.
var DefaultTrustedHosts = []string{
	"github.com",
	"api.github.com",
	"raw.githubusercontent.com",
}

// Options configures a Client.
type Options struct {
	// Token is sent as "Authorization: token <Token>" to trusted hosts only.
	Token string
	// Timeout bounds each request. Zero means 30 seconds.
	Timeout time.Duration
	// TrustedHosts overrides DefaultTrustedHosts. Hosts are compared
	// without port.
	TrustedHosts []string
	// HTTPClient overrides the underlying client (tests).
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client performs GET requests with per-request timeouts and scoped
// credential injection.
type Client struct {
	http    *http.Client
	token   string
	timeout time.Duration
	trusted map[string]bool
	logger  *zap.Logger
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	hosts := opts.TrustedHosts
	if hosts == nil {
		hosts = DefaultTrustedHosts
	}
	trusted := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		trusted[strings.ToLower(h)] = true
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:    hc,
		token:   opts.Token,
		timeout: timeout,
		trusted: trusted,
		logger:  logger,
	}
}

// HasToken reports whether a credential is configured.
func (c *Client) HasToken() bool {
	return c.token != ""
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

// IsNotFound reports whether err is a 404 StatusError.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Get downloads rawURL and returns the body as text.
func (c *Client) Get(ctx context.Context, rawURL string) (string, error) {
	body, err := c.GetBytes(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetBytes downloads rawURL. The request is cancelled after the client
// timeout; redirects are followed.
func (c *Client) GetBytes(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported url scheme %q in %q", u.Scheme, rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if c.token != "" && c.isTrusted(u) {
		req.Header.Set("Authorization", "token "+c.token)
	}

	c.logger.Debug("http get", zap.String("url", rawURL))
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("GET %s: response larger than %d bytes", rawURL, maxBodySize)
	}
	return body, nil
}

// CloseIdleConnections releases pooled connections. Call it when a
// logical operation is done.
func (c *Client) CloseIdleConnections() {
	c.http.CloseIdleConnections()
}

func (c *Client) isTrusted(u *url.URL) bool {
	return c.trusted[strings.ToLower(u.Hostname())]
}
