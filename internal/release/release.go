// SPDX-License-Identifier: MPL-2.0

package release

import (
	"fmt"
	"slices"
	"time"

	"golang.org/x/mod/semver"

	"github.com/duckfetch/duckfetch/internal/issue"
)

// ErrReleaseNotFound is returned by Catalog.Resolve for tags that are not
// published. It matches issue.ErrUnknownVersion.
var ErrReleaseNotFound = fmt.Errorf("release not found: %w", issue.ErrUnknownVersion)

type (
	// Release is one published version.
	Release struct {
		Tag         string // e.g. "v1.1.0"
		Name        string
		Draft       bool
		Prerelease  bool
		PublishedAt time.Time
		HTMLURL     string
		Assets      []Asset
	}

	// Asset is one downloadable file attached to a release.
	Asset struct {
		Name        string // e.g. "duckdb_cli-linux-amd64.zip"
		URL         string // browser download URL
		Size        int64
		ContentType string
	}

	// Catalog is an ordered, read-only set of releases, most recent first.
	Catalog struct {
		releases []Release
		index    map[string]int
	}
)

// Asset returns the asset with the given name.
func (r *Release) Asset(name string) (*Asset, bool) {
	for i := range r.Assets {
		if r.Assets[i].Name == name {
			return &r.Assets[i], true
		}
	}
	return nil, false
}

// FirstAsset returns the first asset matching any of names, trying names in
// order.
func (r *Release) FirstAsset(names ...string) (*Asset, bool) {
	for _, n := range names {
		if a, ok := r.Asset(n); ok {
			return a, true
		}
	}
	return nil, false
}

// NewCatalog orders releases by semantic version, newest first. Tags that are
// not valid semver sort after all valid ones and keep their input order.
// When a tag appears more than once the first occurrence wins.
func NewCatalog(releases []Release) *Catalog {
	c := &Catalog{
		releases: make([]Release, 0, len(releases)),
		index:    make(map[string]int, len(releases)),
	}

	seen := make(map[string]struct{}, len(releases))
	for _, r := range releases {
		if _, dup := seen[r.Tag]; dup {
			continue
		}
		seen[r.Tag] = struct{}{}
		c.releases = append(c.releases, r)
	}

	slices.SortStableFunc(c.releases, func(a, b Release) int {
		return semver.Compare(b.Tag, a.Tag)
	})

	for i, r := range c.releases {
		c.index[r.Tag] = i
	}
	return c
}

// Len returns the number of releases.
func (c *Catalog) Len() int {
	return len(c.releases)
}

// Contains reports whether tag is published. The match is exact and
// case-sensitive.
func (c *Catalog) Contains(tag string) bool {
	_, ok := c.index[tag]
	return ok
}

// List returns the tags, most recent first.
func (c *Catalog) List() []string {
	tags := make([]string, len(c.releases))
	for i := range c.releases {
		tags[i] = c.releases[i].Tag
	}
	return tags
}

// Resolve returns the release for tag, or ErrReleaseNotFound.
func (c *Catalog) Resolve(tag string) (*Release, error) {
	i, ok := c.index[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrReleaseNotFound, tag)
	}
	r := c.releases[i]
	return &r, nil
}

// Latest returns the most recent release.
func (c *Catalog) Latest() (*Release, bool) {
	if len(c.releases) == 0 {
		return nil, false
	}
	r := c.releases[0]
	return &r, true
}

// Releases returns a copy of the ordered releases.
func (c *Catalog) Releases() []Release {
	return slices.Clone(c.releases)
}
