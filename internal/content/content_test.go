package content

import (
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helloWorld = `---
title: Hello World
date: 2024-02-01
tags: [go, web]
excerpt: A *short* introduction.
---

# Hello

Some words here.
`

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"posts/hello-world.mdx": {Data: []byte(helloWorld)},
		"posts/draft.md": {Data: []byte("---\ntitle: Draft\ndate: 2024-03-01\ndraft: true\n---\nWIP\n")},
		"posts/notes.txt":       {Data: []byte("ignored")},
		"_drafts/hidden.md":     {Data: []byte("not even parsed")},
	}

	articles, err := Load(fsys)
	require.NoError(t, err)
	require.Len(t, articles, 2)

	byPath := map[string]Article{}
	for _, a := range articles {
		byPath[a.Path] = a
	}

	hello, ok := byPath["/posts/hello-world"]
	require.True(t, ok)
	assert.Equal(t, "Hello World", hello.Title)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), hello.Date)
	assert.False(t, hello.Draft)
	assert.Equal(t, []string{"go", "web"}, hello.Tags)
	assert.Equal(t, "A <em>short</em> introduction.", hello.Excerpt)
	assert.Equal(t, "1 min read", hello.ReadingTime)
	assert.Contains(t, hello.Body, `<h1 id="hello">Hello</h1>`)
	assert.Equal(t, "posts/hello-world.mdx", hello.Source)

	draft := byPath["/posts/draft"]
	assert.True(t, draft.Draft)
	assert.Equal(t, "WIP", draft.Excerpt)
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]string{
		"no front matter": "# Just markdown\n",
		"unterminated":    "---\ntitle: x\n",
		"missing title":   "---\ndate: 2024-01-01\n---\n",
		"bad date":        "---\ntitle: x\ndate: yesterday\n---\n",
		"bad yaml":        "---\ntitle: [unclosed\n---\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(fstest.MapFS{"post.md": {Data: []byte(src)}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "post.md")
		})
	}
}

func TestLoadDuplicatePath(t *testing.T) {
	fsys := fstest.MapFS{
		"a/index.md": {Data: []byte("---\ntitle: A\ndate: 2024-01-01\n---\n")},
		"a.md":       {Data: []byte("---\ntitle: B\ndate: 2024-01-01\n---\n")},
	}
	_, err := Load(fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/a")
}

func TestExcerptFallsBackToFirstParagraph(t *testing.T) {
	src := "---\ntitle: T\ndate: 2024-01-01T10:00:00Z\n---\n" +
		"import Thing from './thing'\n\n# Heading\n\nFirst **para**\ncontinues.\n\nSecond para.\n"
	articles, err := Load(fstest.MapFS{"t.mdx": {Data: []byte(src)}})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "First <strong>para</strong> continues.", articles[0].Excerpt)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), articles[0].Date)
}

func TestSplitFrontMatterCRLF(t *testing.T) {
	head, body, err := splitFrontMatter([]byte("---\r\ntitle: x\r\n---\r\nbody\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "title: x\n", string(head))
	assert.Equal(t, "body\n", string(body))
}

func TestFormatPath(t *testing.T) {
	tests := map[string]string{
		"posts/hello-world.mdx":  "/posts/hello-world",
		"pages/posts/intro.mdx":  "/posts/intro",
		"pages/index.mdx":        "/",
		"index.md":               "/",
		"posts/series/index.md":  "/posts/series",
		"about.md":               "/about",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatPath(in), in)
	}
}

func TestReadingTime(t *testing.T) {
	assert.Equal(t, "1 min read", ReadingTime(""))
	assert.Equal(t, "1 min read", ReadingTime(strings.Repeat("word ", 200)))
	assert.Equal(t, "2 min read", ReadingTime(strings.Repeat("word ", 201)))
	assert.Equal(t, "5 min read", ReadingTime(strings.Repeat("word ", 1000)))
}

func TestBundle(t *testing.T) {
	fsys := fstest.MapFS{
		"posts/hello-world.md": {Data: []byte(helloWorld)},
	}
	b := NewBundle(fsys, nil)
	assert.Empty(t, b.Articles())

	require.NoError(t, b.Reload())
	assert.Len(t, b.Articles(), 1)
	assert.False(t, b.LoadedAt().IsZero())

	a, ok := b.Get("/posts/hello-world")
	require.True(t, ok)
	assert.Equal(t, "Hello World", a.Title)

	_, ok = b.Get("/missing")
	assert.False(t, ok)

	// A broken file keeps the previous content.
	fsys["posts/broken.md"] = &fstest.MapFile{Data: []byte("nope")}
	require.Error(t, b.Reload())
	assert.Len(t, b.Articles(), 1)
}

func TestBundleArticlesIsCopy(t *testing.T) {
	b := NewBundle(fstest.MapFS{"a.md": {Data: []byte(helloWorld)}}, nil)
	require.NoError(t, b.Reload())

	got := b.Articles()
	got[0].Title = "changed"
	assert.Equal(t, "Hello World", b.Articles()[0].Title)
}
