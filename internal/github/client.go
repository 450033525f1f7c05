// SPDX-License-Identifier: MPL-2.0

package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAPIBaseURL = "https://api.github.com"
	defaultRawBaseURL = "https://raw.githubusercontent.com"

	// defaultMaxAttempts and defaultRetryDelay mirror the retry discipline
	// applied to every network call: fixed delay, bounded attempt count.
	defaultMaxAttempts = 10
	defaultRetryDelay  = time.Second

	// maxJSONResponseBytes is the upper bound on JSON API response size (10 MB).
	// Prevents unbounded memory consumption from malicious or malformed responses.
	maxJSONResponseBytes = 10 << 20
)

// ErrNotFound is returned when a branch, tree, or file does not exist on the
// remote side. It is an expected outcome, not a transport failure: callers use
// it to skip to the next candidate repository or to report "no data" cleanly.
var ErrNotFound = errors.New("resource not found")

type (
	// Branch binds a branch name to its commit: the tree URL to walk and the
	// committer timestamp used to pick the freshest candidate repository.
	Branch struct {
		Name        string
		TreeURL     string
		CommittedAt time.Time
	}

	// TreeEntry is a single (path, type) pair from a commit's tree listing.
	TreeEntry struct {
		Path string `json:"path"`
		Type string `json:"type"`
	}

	// Quota is the remaining API request allowance and its reset time.
	Quota struct {
		Remaining int
		Reset     time.Time
	}

	// branchResponse is the JSON wire format for the branch lookup endpoint.
	branchResponse struct {
		Name   string `json:"name"`
		Commit struct {
			Commit struct {
				Committer struct {
					Date time.Time `json:"date"`
				} `json:"committer"`
				Tree struct {
					URL string `json:"url"`
				} `json:"tree"`
			} `json:"commit"`
		} `json:"commit"`
	}

	// treeResponse is the JSON wire format for the tree listing endpoint.
	treeResponse struct {
		Tree []TreeEntry `json:"tree"`
	}

	// rateLimitResponse is the JSON wire format for the rate-limit endpoint.
	rateLimitResponse struct {
		Rate *struct {
			Remaining int   `json:"remaining"`
			Reset     int64 `json:"reset"`
		} `json:"rate"`
	}

	// Client queries the GitHub REST API and the raw content host.
	Client struct {
		httpClient  *http.Client
		apiBase     string // API base URL (default: "https://api.github.com", overridable for tests)
		rawBase     string // raw content base URL (default: "https://raw.githubusercontent.com")
		token       string // optional bearer token for authenticated API requests
		userAgent   string // User-Agent header value
		maxAttempts int
		retryDelay  time.Duration
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)
)

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(g *Client) {
		g.httpClient = c
	}
}

// WithBaseURL overrides the GitHub API base URL, primarily for test servers.
func WithBaseURL(base string) ClientOption {
	return func(g *Client) {
		g.apiBase = strings.TrimRight(base, "/")
	}
}

// WithRawBaseURL overrides the raw content base URL, primarily for test servers.
func WithRawBaseURL(base string) ClientOption {
	return func(g *Client) {
		g.rawBase = strings.TrimRight(base, "/")
	}
}

// WithToken sets a GitHub personal access token for authenticated requests.
// Authenticated requests have a higher rate limit (5000/hour vs 60/hour).
func WithToken(token string) ClientOption {
	return func(g *Client) {
		g.token = token
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(g *Client) {
		g.userAgent = ua
	}
}

// WithRetryPolicy overrides the attempt count and delay of the per-call retry
// loop. Tests use this to avoid sleeping through the production delay.
func WithRetryPolicy(maxAttempts int, delay time.Duration) ClientOption {
	return func(g *Client) {
		g.maxAttempts = maxAttempts
		g.retryDelay = delay
	}
}

// NewClient creates a Client with production defaults.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  http.DefaultClient,
		apiBase:     defaultAPIBaseURL,
		rawBase:     defaultRawBaseURL,
		userAgent:   "manifest/dev",
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Branch fetches the branch named branch in repo. Returns ErrNotFound when
// the repository has no such branch, or when a 200 response lacks the commit
// fields this tool needs (some mirrors serve stub branch objects).
func (c *Client) Branch(ctx context.Context, repo, branch string) (*Branch, error) {
	reqURL := fmt.Sprintf("%s/repos/%s/branches/%s", c.apiBase, repo, branch)

	var out *Branch
	err := c.getJSON(ctx, reqURL, func(body io.Reader) error {
		var br branchResponse
		if err := json.NewDecoder(body).Decode(&br); err != nil {
			return fmt.Errorf("decoding branch: %w", err)
		}
		if br.Commit.Commit.Tree.URL == "" || br.Commit.Commit.Committer.Date.IsZero() {
			return fmt.Errorf("branch %s in %s: %w", branch, repo, ErrNotFound)
		}
		out = &Branch{
			Name:        br.Name,
			TreeURL:     br.Commit.Commit.Tree.URL,
			CommittedAt: br.Commit.Commit.Committer.Date,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Tree fetches the full tree listing behind treeURL, as reported by a
// previous Branch call.
func (c *Client) Tree(ctx context.Context, treeURL string) ([]TreeEntry, error) {
	var out []TreeEntry
	err := c.getJSON(ctx, treeURL, func(body io.Reader) error {
		var tr treeResponse
		if err := json.NewDecoder(body).Decode(&tr); err != nil {
			return fmt.Errorf("decoding tree: %w", err)
		}
		if tr.Tree == nil {
			return fmt.Errorf("tree %s: %w", treeURL, ErrNotFound)
		}
		out = tr.Tree
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RawContent downloads the file at path on branch in repo from the raw
// content host, following redirects. The bearer token is never sent to the
// raw host to avoid leaking it to a CDN.
func (c *Client) RawContent(ctx context.Context, repo, branch, path string) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/%s/%s/%s", c.rawBase, repo, branch, path)

	var out []byte
	err := retryFixed(ctx, c.maxAttempts, c.retryDelay, func(int) (bool, error) {
		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			return ctx.Err() == nil, fmt.Errorf("fetching %s: %w", reqURL, err)
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return false, fmt.Errorf("%s: %w", reqURL, ErrNotFound)
		case resp.StatusCode != http.StatusOK:
			return true, fmt.Errorf("fetching %s: unexpected status %d", reqURL, resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return true, fmt.Errorf("reading %s: %w", reqURL, err)
		}
		out = body
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RateLimit queries the remaining API quota. A Quota with Remaining == 0
// means the caller must abort before issuing any bulk work.
func (c *Client) RateLimit(ctx context.Context) (Quota, error) {
	reqURL := c.apiBase + "/rate_limit"

	var out Quota
	err := c.getJSON(ctx, reqURL, func(body io.Reader) error {
		var rl rateLimitResponse
		if err := json.NewDecoder(body).Decode(&rl); err != nil {
			return fmt.Errorf("decoding rate limit: %w", err)
		}
		if rl.Rate == nil {
			return fmt.Errorf("rate limit response missing rate object")
		}
		out = Quota{
			Remaining: rl.Rate.Remaining,
			Reset:     time.Unix(rl.Rate.Reset, 0),
		}
		return nil
	})
	if err != nil {
		return Quota{}, err
	}
	return out, nil
}

// getJSON performs a GET against a JSON endpoint under the retry loop.
// decode is called with the (size-limited) response body on a 200 response;
// a decode error wrapping ErrNotFound marks the resource absent and is not
// retried, any other decode error counts as a flaky response and is.
func (c *Client) getJSON(ctx context.Context, reqURL string, decode func(io.Reader) error) error {
	return retryFixed(ctx, c.maxAttempts, c.retryDelay, func(int) (bool, error) {
		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			return ctx.Err() == nil, fmt.Errorf("fetching %s: %w", reqURL, err)
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return false, fmt.Errorf("%s: %w", reqURL, ErrNotFound)
		case resp.StatusCode != http.StatusOK:
			return true, fmt.Errorf("fetching %s: unexpected status %d", reqURL, resp.StatusCode)
		}

		if err := decode(io.LimitReader(resp.Body, maxJSONResponseBytes)); err != nil {
			if errors.Is(err, ErrNotFound) {
				return false, err
			}
			return true, fmt.Errorf("%s: %w", reqURL, err)
		}
		return false, nil
	})
}

// doRequest creates and executes a GET request with the common headers.
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	// API-specific headers and the auth token are only attached when the
	// request targets the API host. This prevents token leakage if a raw
	// content URL redirects to a third-party CDN.
	if isSameHost(req.URL, c.apiBase) {
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

// isSameHost reports whether reqURL targets the same host as baseURL.
func isSameHost(reqURL *url.URL, baseURL string) bool {
	base, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(reqURL.Host, base.Host)
}
