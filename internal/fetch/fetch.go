// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/duckfetch/duckfetch/internal/issue"
	"github.com/duckfetch/duckfetch/internal/platform"
	"github.com/duckfetch/duckfetch/internal/release"
)

const (
	// defaultMaxArchiveBytes caps a single download (1 GiB).
	defaultMaxArchiveBytes = 1 << 30

	// maxChecksumBytes caps a checksums listing (1 MiB).
	maxChecksumBytes = 1 << 20
)

type (
	// Archive is a downloaded release archive inside a Scope.
	Archive struct {
		Path     string
		Asset    release.Asset
		Size     int64
		Verified bool // a published SHA-256 listing matched
	}

	// Fetcher downloads release archives over HTTP.
	Fetcher struct {
		httpClient *http.Client
		apiURL     string
		token      string
		userAgent  string
		tempRoot   string
		maxBytes   int64
		logger     *log.Logger
	}

	// Option configures a Fetcher during construction.
	Option func(*Fetcher)
)

// WithHTTPClient sets the HTTP client used for downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// WithToken attaches a GitHub token to requests whose host belongs to apiURL
// (and to github.com when apiURL is the public API).
func WithToken(token, apiURL string) Option {
	return func(f *Fetcher) {
		f.token = token
		f.apiURL = apiURL
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithTempRoot sets the directory under which scopes are created.
func WithTempRoot(dir string) Option {
	return func(f *Fetcher) {
		f.tempRoot = dir
	}
}

// WithMaxArchiveBytes overrides the per-download size cap.
func WithMaxArchiveBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBytes = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: http.DefaultClient,
		apiURL:     release.DefaultAPIURL,
		userAgent:  "duckfetch/dev",
		maxBytes:   defaultMaxArchiveBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = log.New(io.Discard)
	}
	return f
}

// Download selects the archive for p from rel, creates a fresh Scope and
// streams the archive into it. On failure the Scope is already removed and
// nil is returned for both values.
func (f *Fetcher) Download(ctx context.Context, rel *release.Release, p platform.Platform) (_ *Archive, _ *Scope, err error) {
	names := p.ArchiveNames()
	asset, ok := rel.FirstAsset(names...)
	if !ok {
		if len(names) == 0 {
			return nil, nil, fmt.Errorf("%w: %s is not a supported platform", issue.ErrAssetNotFound, p)
		}
		return nil, nil, fmt.Errorf("%w: %s has no %s", issue.ErrAssetNotFound, rel.Tag, strings.Join(names, " or "))
	}

	scope, err := NewScope(f.tempRoot)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err != nil {
			_ = scope.Close()
		}
	}()

	expected, err := f.expectedChecksum(ctx, rel, asset.Name)
	if err != nil {
		return nil, nil, err
	}

	path := filepath.Join(scope.Dir(), asset.Name)
	f.logger.Debug("downloading archive", "url", redactURL(asset.URL), "dest", path)

	n, err := f.downloadTo(ctx, asset.URL, path)
	if err != nil {
		return nil, nil, err
	}
	if asset.Size > 0 && n != asset.Size {
		return nil, nil, fmt.Errorf("%w: %s is %d bytes, expected %d", issue.ErrCorruptArchive, asset.Name, n, asset.Size)
	}

	archive := &Archive{Path: path, Asset: *asset, Size: n}
	if expected != "" {
		if err := VerifyFile(path, expected); err != nil {
			var ce *ChecksumError
			if errors.As(err, &ce) {
				ce.Filename = asset.Name
				return nil, nil, fmt.Errorf("%w: %w", issue.ErrCorruptArchive, ce)
			}
			return nil, nil, fmt.Errorf("%w: %w", issue.ErrIO, err)
		}
		archive.Verified = true
	}

	f.logger.Debug("archive downloaded", "asset", asset.Name, "bytes", n, "verified", archive.Verified)
	return archive, scope, nil
}

// expectedChecksum returns the published digest for name, or "" when the
// release publishes no usable listing that covers it. A listing that cannot
// be downloaded or parsed is skipped with a warning; only cancellation of
// ctx is returned as an error.
func (f *Fetcher) expectedChecksum(ctx context.Context, rel *release.Release, name string) (string, error) {
	sums, ok := rel.FirstAsset(checksumAssetNames...)
	if !ok {
		return "", nil
	}

	body, err := f.get(ctx, sums.URL)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		f.logger.Warn("checksum listing unavailable, archive will not be verified", "asset", sums.Name, "err", err)
		return "", nil
	}
	defer func() { _ = body.Close() }() // read-only HTTP response body

	entries, err := ParseChecksums(io.LimitReader(body, maxChecksumBytes))
	if err != nil {
		f.logger.Warn("ignoring unreadable checksum listing", "asset", sums.Name, "err", err)
		return "", nil
	}
	hash, err := FindChecksum(entries, name)
	if err != nil {
		f.logger.Debug("archive not in checksum listing", "asset", name, "listing", sums.Name)
		return "", nil
	}
	return hash, nil
}

// downloadTo streams rawURL into a new file at path and returns the byte
// count. A partially written file is removed.
func (f *Fetcher) downloadTo(ctx context.Context, rawURL, path string) (n int64, err error) {
	body, err := f.get(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer func() { _ = body.Close() }() // read-only HTTP response body

	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, fmt.Errorf("%w: creating %s: %w", issue.ErrIO, filepath.Base(path), err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("%w: closing %s: %w", issue.ErrIO, filepath.Base(path), closeErr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	w := &trackingWriter{w: out}
	n, err = io.Copy(w, io.LimitReader(body, f.maxBytes+1))
	switch {
	case w.err != nil:
		return n, fmt.Errorf("%w: writing %s: %w", issue.ErrIO, filepath.Base(path), w.err)
	case err != nil:
		return n, fmt.Errorf("%w: reading %s: %w", issue.ErrNetwork, redactURL(rawURL), err)
	case n > f.maxBytes:
		return n, fmt.Errorf("%w: %s exceeds %d bytes", issue.ErrCorruptArchive, filepath.Base(path), f.maxBytes)
	}
	return n, nil
}

// get issues a GET and returns the body of a 200 response.
func (f *Fetcher) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: building request for %s: %w", issue.ErrNetwork, redactURL(rawURL), err)
	}
	req.Header.Set("Accept", "application/octet-stream")
	req.Header.Set("User-Agent", f.userAgent)
	if f.token != "" && isGitHubHost(req.URL, f.apiURL) {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		// *url.Error repeats the full URL, query string included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("%w: downloading %s: %w", issue.ErrNetwork, redactURL(rawURL), err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: downloading %s: unexpected status %d", issue.ErrNetwork, redactURL(rawURL), resp.StatusCode)
	}
	return resp.Body, nil
}

// trackingWriter remembers the first write error so callers can tell local
// disk failures apart from read failures on the response body.
type trackingWriter struct {
	w   io.Writer
	err error
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil && t.err == nil {
		t.err = err
	}
	return n, err
}

// isGitHubHost reports whether reqURL may receive the token: the configured
// API host, plus github.com when the API is api.github.com.
func isGitHubHost(reqURL *url.URL, apiURL string) bool {
	base, err := url.Parse(apiURL)
	if err != nil {
		return false
	}
	if strings.EqualFold(reqURL.Host, base.Host) {
		return true
	}
	return strings.EqualFold(base.Host, "api.github.com") && strings.EqualFold(reqURL.Host, "github.com")
}

// redactURL strips the query and fragment, which may carry signed tokens.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.User = nil
	return u.String()
}
