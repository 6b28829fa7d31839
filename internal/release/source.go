// SPDX-License-Identifier: MPL-2.0

package release

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/go-github/v75/github"

	"github.com/duckfetch/duckfetch/internal/issue"
)

const (
	// DefaultOwner and DefaultRepo name the DuckDB repository.
	DefaultOwner = "duckdb"
	DefaultRepo  = "duckdb"

	// DefaultAPIURL is the public GitHub REST endpoint.
	DefaultAPIURL = "https://api.github.com"

	// defaultPerPage is the GitHub maximum page size.
	defaultPerPage = 100

	// maxPages bounds pagination to avoid runaway requests.
	maxPages = 5
)

type (
	// Source retrieves a release catalog.
	Source interface {
		Fetch(ctx context.Context) (*Catalog, error)
	}

	// GitHubSource lists releases through the GitHub Releases API.
	GitHubSource struct {
		client             *github.Client
		owner              string
		repo               string
		includePrereleases bool
		perPage            int
		maxPages           int
		logger             *log.Logger
	}

	// StaticSource serves an already fetched catalog.
	StaticSource struct {
		Catalog *Catalog
	}

	sourceConfig struct {
		httpClient         *http.Client
		baseURL            string
		token              string
		userAgent          string
		owner              string
		repo               string
		includePrereleases bool
		perPage            int
		logger             *log.Logger
	}

	// SourceOption configures a GitHubSource during construction.
	SourceOption func(*sourceConfig)
)

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) SourceOption {
	return func(s *sourceConfig) {
		s.httpClient = c
	}
}

// WithBaseURL overrides the API base URL, for GitHub Enterprise or test servers.
func WithBaseURL(base string) SourceOption {
	return func(s *sourceConfig) {
		s.baseURL = base
	}
}

// WithToken authenticates API calls, raising the rate limit from 60 to 5000
// requests per hour.
func WithToken(token string) SourceOption {
	return func(s *sourceConfig) {
		s.token = token
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) SourceOption {
	return func(s *sourceConfig) {
		s.userAgent = ua
	}
}

// WithRepo overrides the repository to list.
func WithRepo(owner, repo string) SourceOption {
	return func(s *sourceConfig) {
		s.owner = owner
		s.repo = repo
	}
}

// WithPrereleases keeps prerelease entries in the catalog.
func WithPrereleases(include bool) SourceOption {
	return func(s *sourceConfig) {
		s.includePrereleases = include
	}
}

// WithPerPage sets the page size.
func WithPerPage(n int) SourceOption {
	return func(s *sourceConfig) {
		s.perPage = n
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *log.Logger) SourceOption {
	return func(s *sourceConfig) {
		s.logger = l
	}
}

// NewGitHubSource builds a GitHubSource. Defaults: the duckdb/duckdb
// repository on api.github.com, stable releases only.
func NewGitHubSource(opts ...SourceOption) (*GitHubSource, error) {
	cfg := sourceConfig{
		httpClient: http.DefaultClient,
		baseURL:    DefaultAPIURL,
		userAgent:  "duckfetch/dev",
		owner:      DefaultOwner,
		repo:       DefaultRepo,
		perPage:    defaultPerPage,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.New(io.Discard)
	}

	client := github.NewClient(cfg.httpClient)
	if cfg.token != "" {
		client = client.WithAuthToken(cfg.token)
	}

	base, err := url.Parse(strings.TrimRight(cfg.baseURL, "/") + "/")
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q", cfg.baseURL)
	}
	client.BaseURL = base
	client.UserAgent = cfg.userAgent

	return &GitHubSource{
		client:             client,
		owner:              cfg.owner,
		repo:               cfg.repo,
		includePrereleases: cfg.includePrereleases,
		perPage:            cfg.perPage,
		maxPages:           maxPages,
		logger:             cfg.logger,
	}, nil
}

// Fetch lists the repository's releases. Drafts are always dropped and
// prereleases unless configured otherwise.
func (s *GitHubSource) Fetch(ctx context.Context) (*Catalog, error) {
	opts := &github.ListOptions{PerPage: s.perPage}

	var (
		all  []Release
		next int
	)
	for page := 0; page < s.maxPages; page++ {
		rs, resp, err := s.client.Repositories.ListReleases(ctx, s.owner, s.repo, opts)
		if err != nil {
			return nil, classifyListError(err)
		}
		s.logger.Debug("listed releases", "repo", s.owner+"/"+s.repo, "page", opts.Page, "count", len(rs))

		for _, r := range rs {
			if r.GetTagName() == "" {
				return nil, fmt.Errorf("%w: release %d has no tag", issue.ErrParse, r.GetID())
			}
			if r.GetDraft() || (r.GetPrerelease() && !s.includePrereleases) {
				continue
			}
			all = append(all, toRelease(r))
		}

		next = 0
		if resp != nil {
			next = resp.NextPage
		}
		if next == 0 {
			break
		}
		opts.Page = next
	}
	if next != 0 {
		s.logger.Warn("release listing truncated, older releases are not offered",
			"repo", s.owner+"/"+s.repo, "pages", s.maxPages, "next_page", next)
	}

	return NewCatalog(all), nil
}

// Fetch returns the wrapped catalog.
func (s StaticSource) Fetch(context.Context) (*Catalog, error) {
	if s.Catalog == nil {
		return NewCatalog(nil), nil
	}
	return s.Catalog, nil
}

// classifyListError separates malformed responses from transport failures.
// Rate limiting and error statuses count as network failures.
func classifyListError(err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fmt.Errorf("%w: listing releases: %w", issue.ErrParse, err)
	}
	return fmt.Errorf("%w: listing releases: %w", issue.ErrNetwork, err)
}

func toRelease(r *github.RepositoryRelease) Release {
	assets := make([]Asset, 0, len(r.Assets))
	for _, a := range r.Assets {
		assets = append(assets, Asset{
			Name:        a.GetName(),
			URL:         a.GetBrowserDownloadURL(),
			Size:        int64(a.GetSize()),
			ContentType: a.GetContentType(),
		})
	}

	return Release{
		Tag:         r.GetTagName(),
		Name:        r.GetName(),
		Draft:       r.GetDraft(),
		Prerelease:  r.GetPrerelease(),
		PublishedAt: r.GetPublishedAt().Time,
		HTMLURL:     r.GetHTMLURL(),
		Assets:      assets,
	}
}
