// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestGuideForEveryKind(t *testing.T) {
	for k := KindUnknown; k <= KindPermission; k++ {
		g := GuideFor(k)
		if g == nil {
			t.Fatalf("no guide for %s", k)
		}
		if g.Kind() != k {
			t.Errorf("GuideFor(%s).Kind() = %s", k, g.Kind())
		}
		if strings.TrimSpace(string(g.MarkdownMsg())) == "" {
			t.Errorf("guide for %s has empty markdown", k)
		}
		if len(Suggestions(k)) == 0 {
			t.Errorf("no suggestions for %s", k)
		}
	}

	if GuideFor(Kind(42)).Kind() != KindUnknown {
		t.Error("out-of-range kinds should fall back to the generic guide")
	}
}

func TestSuggestionsAreCopies(t *testing.T) {
	s := Suggestions(KindNetwork)
	s[0] = "mutated"
	if Suggestions(KindNetwork)[0] == "mutated" {
		t.Error("Suggestions must return a copy")
	}
}

func TestGuideRender(t *testing.T) {
	original := render
	t.Cleanup(func() { render = original })

	var gotStyle, gotInput string
	render = func(in, stylePath string) (string, error) {
		gotInput, gotStyle = in, stylePath
		return "rendered", nil
	}

	out, err := GuideFor(KindSourceMissing).Render("notty")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "rendered" || gotStyle != "notty" {
		t.Errorf("Render = %q with style %q", out, gotStyle)
	}
	if !strings.HasPrefix(gotInput, "# The archive does not contain duckdb") {
		t.Errorf("markdown not trimmed: %q", gotInput[:40])
	}
}
