// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-github/v75/github"

	"github.com/duckfetch/duckfetch/internal/platform"
	"github.com/duckfetch/duckfetch/internal/testutil"
)

// githubStub stands in for the GitHub releases API and the asset download
// host. It publishes v1.1.0 and v1.0.0 plus a v1.2.0-rc1 prerelease and a
// draft, each with an archive for the current platform.
type githubStub struct {
	*httptest.Server

	assetName string
	listCalls atomic.Int32
	downloads atomic.Int32

	mu       sync.Mutex
	archives map[string][]byte
}

func newGitHubStub(t testing.TB) *githubStub {
	t.Helper()

	p := platform.Current()
	names := p.ArchiveNames()
	if len(names) == 0 {
		t.Skipf("no DuckDB build for %s", p)
	}

	s := &githubStub{assetName: names[0], archives: make(map[string][]byte)}
	for _, tag := range []string{"v1.2.0-rc1", "v1.1.0", "v1.0.0", "v1.3.0-draft"} {
		s.archives[tag] = testutil.DuckDBZip(t, p.ExecutableName(), tag)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/duckdb/duckdb/releases", s.serveReleases)
	mux.HandleFunc("GET /download/{tag}/{name}", s.serveAsset)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// removeArchive makes downloads of tag answer 404.
func (s *githubStub) removeArchive(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archives[tag] = nil
}

func (s *githubStub) serveReleases(w http.ResponseWriter, _ *http.Request) {
	s.listCalls.Add(1)

	day := time.Date(2024, time.September, 9, 0, 0, 0, 0, time.UTC)
	releases := []*github.RepositoryRelease{
		s.release("v1.3.0-draft", day.AddDate(0, 2, 0), false, true),
		s.release("v1.2.0-rc1", day.AddDate(0, 1, 0), true, false),
		s.release("v1.0.0", day.AddDate(0, -3, 0), false, false),
		s.release("v1.1.0", day, false, false),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(releases)
}

func (s *githubStub) serveAsset(w http.ResponseWriter, r *http.Request) {
	s.downloads.Add(1)

	s.mu.Lock()
	data := s.archives[r.PathValue("tag")]
	s.mu.Unlock()

	if data == nil || r.PathValue("name") != s.assetName {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	_, _ = w.Write(data)
}

func (s *githubStub) release(tag string, published time.Time, prerelease, draft bool) *github.RepositoryRelease {
	s.mu.Lock()
	size := len(s.archives[tag])
	s.mu.Unlock()

	return &github.RepositoryRelease{
		TagName:     github.Ptr(tag),
		Name:        github.Ptr("DuckDB " + tag),
		Draft:       github.Ptr(draft),
		Prerelease:  github.Ptr(prerelease),
		PublishedAt: &github.Timestamp{Time: published},
		HTMLURL:     github.Ptr("https://github.com/duckdb/duckdb/releases/tag/" + tag),
		Assets: []*github.ReleaseAsset{{
			Name:               github.Ptr(s.assetName),
			BrowserDownloadURL: github.Ptr(s.URL + "/download/" + tag + "/" + s.assetName),
			Size:               github.Ptr(size),
			ContentType:        github.Ptr("application/zip"),
		}},
	}
}
