package core

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type fakeExpander struct {
	canExpand bool
	urls      []string
	err       error
	calls     int
}

func (f *fakeExpander) CanExpand() bool { return f.canExpand }

func (f *fakeExpander) ExpandWildcards(_ context.Context, _, _ string, _ []string) ([]string, error) {
	f.calls++
	return f.urls, f.err
}

func TestBasicURLs(t *testing.T) {
	got := BasicURLs("o/r", "main", []string{"*.md", "docs/guide.md"})
	want := []string{
		"https://raw.githubusercontent.com/o/r/main/md",
		"https://raw.githubusercontent.com/o/r/main/docs/guide.md",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BasicURLs() = %v, want %v", got, want)
	}
}

func TestResolver_ResolveItem(t *testing.T) {
	ctx := context.Background()

	t.Run("literal url", func(t *testing.T) {
		r := NewResolver(nil, nil)
		got := r.ResolveItem(ctx, FetchItem{URL: "https://example.com/a.md"})
		if !reflect.DeepEqual(got, []string{"https://example.com/a.md"}) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("no expander falls back", func(t *testing.T) {
		r := NewResolver(nil, nil)
		got := r.ResolveItem(ctx, FetchItem{Repo: "o/r"})
		want := []string{"https://raw.githubusercontent.com/o/r/main/md"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("expander without token falls back", func(t *testing.T) {
		fe := &fakeExpander{canExpand: false}
		got := NewResolver(fe, nil).ResolveItem(ctx, FetchItem{Repo: "o/r", Branch: "dev", Paths: []string{"*.md"}})
		if fe.calls != 0 {
			t.Error("expander should not be called")
		}
		if !reflect.DeepEqual(got, []string{"https://raw.githubusercontent.com/o/r/dev/md"}) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("expanded", func(t *testing.T) {
		fe := &fakeExpander{canExpand: true, urls: []string{"https://raw.githubusercontent.com/o/r/main/docs/a.md"}}
		got := NewResolver(fe, nil).ResolveItem(ctx, FetchItem{Repo: "o/r", Branch: "main", Paths: []string{"docs/*.md"}})
		if !reflect.DeepEqual(got, fe.urls) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("no wildcard skips expansion", func(t *testing.T) {
		fe := &fakeExpander{canExpand: true}
		got := NewResolver(fe, nil).ResolveItem(ctx, FetchItem{Repo: "o/r", Branch: "main", Paths: []string{"README.md"}})
		if fe.calls != 0 {
			t.Error("expander should not be called")
		}
		if !reflect.DeepEqual(got, []string{"https://raw.githubusercontent.com/o/r/main/README.md"}) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("expansion error keeps partial result", func(t *testing.T) {
		fe := &fakeExpander{canExpand: true, urls: []string{"https://x/1"}, err: errors.New("boom")}
		got := NewResolver(fe, nil).ResolveItem(ctx, FetchItem{Repo: "o/r", Branch: "main", Paths: []string{"*.md"}})
		if !reflect.DeepEqual(got, []string{"https://x/1"}) {
			t.Errorf("got %v", got)
		}
	})
}

const unionConfig = `project_types:
  python:
    base:
      active: true
      always_fetch:
        instructions:
          - https://example.com/shared.md
          - https://example.com/python.md
      conditional:
        has_django:
          instructions:
            - https://example.com/django.md
        has_flask:
          instructions:
            - https://example.com/flask.md
  javascript:
    web:
      always_fetch:
        instructions:
          - https://example.com/shared.md
        prompts:
          - https://example.com/review.prompt.md
      conditional:
        has_react:
          instructions:
            - https://example.com/react.md
`

func TestResolver_ContextURLs(t *testing.T) {
	cfg := mustParse(t, unionConfig)
	r := NewResolver(nil, nil)
	ctx := context.Background()

	conds := Conditions{"has_django": true, "has_react": true}
	got := r.ContextURLs(ctx, cfg, []string{"python", "javascript"}, conds, ContextInstructions, "")
	want := []string{
		"https://example.com/shared.md",
		"https://example.com/python.md",
		"https://example.com/django.md",
		"https://example.com/react.md",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ContextURLs() = %v, want %v", got, want)
	}

	// Same inputs, same output.
	again := r.ContextURLs(ctx, cfg, []string{"python", "javascript"}, conds, ContextInstructions, "")
	if !reflect.DeepEqual(got, again) {
		t.Errorf("ContextURLs() not deterministic: %v vs %v", got, again)
	}
}

func TestResolver_ContextURLs_AbsentConditionIsFalse(t *testing.T) {
	cfg := mustParse(t, unionConfig)
	r := NewResolver(nil, nil)
	ctx := context.Background()

	absent := r.ContextURLs(ctx, cfg, []string{"python"}, Conditions{}, ContextInstructions, "")
	explicit := r.ContextURLs(ctx, cfg, []string{"python"}, Conditions{"has_django": false, "has_flask": false}, ContextInstructions, "")
	if !reflect.DeepEqual(absent, explicit) {
		t.Errorf("absent = %v, explicit false = %v", absent, explicit)
	}
	if len(absent) != 2 {
		t.Errorf("expected only always_fetch URLs, got %v", absent)
	}
}

func TestResolver_ContextURLs_UnknownTypesAndEmpty(t *testing.T) {
	cfg := mustParse(t, unionConfig)
	r := NewResolver(nil, nil)

	got := r.ContextURLs(context.Background(), cfg, []string{"generic"}, nil, ContextInstructions, "")
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", got)
	}

	got = r.ContextURLs(context.Background(), cfg, []string{"python"}, nil, ContextChatmodes, "")
	if len(got) != 0 {
		t.Errorf("expected no chatmodes, got %v", got)
	}
}

func TestResolver_ContextURLs_NamedProfile(t *testing.T) {
	cfg := mustParse(t, sampleConfig)
	r := NewResolver(nil, nil)

	got := r.ContextURLs(context.Background(), cfg, []string{"python", "javascript"}, nil, ContextInstructions, "minimal")
	want := []string{"https://example.com/python/style.md"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ContextURLs() = %v, want %v", got, want)
	}
}

func TestResolver_ContextURLs_AlwaysAndConditionalOverlap(t *testing.T) {
	cfg := mustParse(t, `project_types:
  python:
    base:
      always_fetch:
        instructions:
          - https://example.com/python.md
          - https://example.com/django.md
      conditional:
        has_django:
          instructions:
            - https://example.com/django.md
            - https://example.com/orm.md
`)
	r := NewResolver(nil, nil)

	got := r.ContextURLs(context.Background(), cfg, []string{"python"}, Conditions{"has_django": true}, ContextInstructions, "")
	want := []string{
		"https://example.com/python.md",
		"https://example.com/django.md",
		"https://example.com/orm.md",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ContextURLs() = %v, want %v", got, want)
	}
}
