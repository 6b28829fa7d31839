// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type (
	// MarkdownMsg is markdown text rendered for the terminal.
	MarkdownMsg string

	// Guide is a troubleshooting page for one failure kind.
	Guide struct {
		kind        Kind
		mdMsg       MarkdownMsg
		suggestions []string
	}
)

// render is swapped in tests to avoid depending on glamour's styling output.
var render = glamour.Render

// Kind returns the failure kind the guide documents.
func (g *Guide) Kind() Kind {
	return g.kind
}

// MarkdownMsg returns the raw markdown body.
func (g *Guide) MarkdownMsg() MarkdownMsg {
	return g.mdMsg
}

// Render renders the guide with the given glamour style ("dark", "light",
// "notty", ...).
func (g *Guide) Render(stylePath string) (string, error) {
	return render(strings.TrimSpace(string(g.mdMsg))+"\n", stylePath)
}

// GuideFor returns the guide for kind. Every kind, KindUnknown included, has one.
func GuideFor(kind Kind) *Guide {
	if g, ok := guides[kind]; ok {
		return g
	}
	return guides[KindUnknown]
}

// Suggestions returns the short remediation hints for kind.
func Suggestions(kind Kind) []string {
	return slices.Clone(GuideFor(kind).suggestions)
}

var guides = map[Kind]*Guide{
	KindUnknown: {
		kind: KindUnknown,
		mdMsg: `
# Something went wrong

The install did not complete. Nothing was written to the install directory.

## Things you can try
- Re-run with verbose output to see the full error chain:
~~~
$ duckfetch --verbose install
~~~`,
		suggestions: []string{"Re-run with --verbose for the full error chain"},
	},
	KindNetwork: {
		kind: KindNetwork,
		mdMsg: `
# Could not reach GitHub

The release list or the archive download failed in transit.

## Things you can try
- Check your network connection and proxy settings (HTTPS_PROXY).
- If you hit the API rate limit, authenticate:
~~~
$ export GITHUB_TOKEN=ghp_...
~~~
- Run ` + "`duckfetch check`" + ` to verify the environment.`,
		suggestions: []string{
			"Check your network connection and try again",
			"Set GITHUB_TOKEN to raise the GitHub API rate limit",
		},
	},
	KindParse: {
		kind: KindParse,
		mdMsg: `
# Unexpected response from the release API

The release listing could not be decoded.

## Things you can try
- Check that ` + "`api_url`" + ` in your config points at a GitHub API endpoint:
~~~
$ duckfetch config show
~~~`,
		suggestions: []string{"Check the api_url setting with 'duckfetch config show'"},
	},
	KindUnknownVersion: {
		kind: KindUnknownVersion,
		mdMsg: `
# Unknown DuckDB version

The requested tag is not among the published releases. Tags are matched
exactly, including the leading ` + "`v`" + `.

## Things you can try
~~~
$ duckfetch list
$ duckfetch install v1.1.0
~~~`,
		suggestions: []string{"Run 'duckfetch list' to see the available versions"},
	},
	KindAssetNotFound: {
		kind: KindAssetNotFound,
		mdMsg: `
# No build for this platform

The release does not publish a CLI archive for your operating system and
architecture.

## Things you can try
- Pick another release with ` + "`duckfetch install`" + `.
- Run ` + "`duckfetch check`" + ` to see the detected platform.`,
		suggestions: []string{
			"Choose a different release",
			"Run 'duckfetch check' to see the detected platform",
		},
	},
	KindCorruptArchive: {
		kind: KindCorruptArchive,
		mdMsg: `
# The downloaded archive is damaged

The zip could not be read or did not match the published checksum. The
download may have been truncated.

## Things you can try
- Run the install again.`,
		suggestions: []string{"Run the install again; the download may have been truncated"},
	},
	KindIO: {
		kind: KindIO,
		mdMsg: `
# Disk operation failed

A temporary file or the install directory could not be written.

## Things you can try
- Check free space with ` + "`duckfetch check`" + `.
- Check that the install directory exists and is a directory.`,
		suggestions: []string{
			"Check free disk space",
			"Check that the install directory exists and is writable",
		},
	},
	KindSourceMissing: {
		kind: KindSourceMissing,
		mdMsg: `
# The archive does not contain duckdb

The archive was unpacked but no ` + "`duckdb`" + ` executable was found in it.
Your existing installation was not touched.

## Things you can try
- Pick another release.`,
		suggestions: []string{"Choose a different release"},
	},
	KindHomeDirUnknown: {
		kind: KindHomeDirUnknown,
		mdMsg: `
# Home directory unknown

The install directory is derived from your home directory, which could not
be determined.

## Things you can try
- Set ` + "`HOME`" + ` (or ` + "`USERPROFILE`" + ` on Windows).
- Or set an explicit directory:
~~~
$ duckfetch install --install-dir /opt/bin
~~~`,
		suggestions: []string{
			"Set the HOME environment variable",
			"Or pass --install-dir",
		},
	},
	KindPermission: {
		kind: KindPermission,
		mdMsg: `
# Permission denied

The install directory is not writable by the current user.

## Things you can try
- Fix the directory ownership, or choose another directory with
  ` + "`--install-dir`" + `.`,
		suggestions: []string{
			"Check the ownership and permissions of the install directory",
			"Or pass --install-dir with a writable directory",
		},
	},
}
