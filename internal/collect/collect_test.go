package collect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/harrisjose/homepage/internal/config"
	"github.com/harrisjose/homepage/internal/database"
)

const bookmarksRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Bookmarks</title>
  <link>https://bookmarks.example.com/</link>
  <item>
    <title>  Designing Data-Intensive Apps  </title>
    <link>https://example.com/ddia</link>
    <pubDate>Tue, 06 Feb 2024 10:00:00 GMT</pubDate>
    <description>&lt;p&gt;A &lt;b&gt;great&lt;/b&gt; read&lt;/p&gt;</description>
  </item>
  <item>
    <title>No link, GUID only</title>
    <guid>https://example.com/guid-only</guid>
  </item>
  <item>
    <title></title>
    <link>https://example.com/untitled</link>
  </item>
</channel>
</rss>`

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func feedServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rss" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestParseAll(t *testing.T) {
	srv := feedServer(t, bookmarksRSS)
	fp := NewFeedParser([]FeedConfig{{URL: srv.URL + "/rss", Name: "Bookmarks"}}, nil)

	entries := fp.ParseAll(context.Background())
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.Title != "Designing Data-Intensive Apps" {
		t.Errorf("expected trimmed title, got %q", first.Title)
	}
	if first.PublishedDate != "2024-02-06" {
		t.Errorf("expected date 2024-02-06, got %q", first.PublishedDate)
	}
	if first.Content != "A great read" {
		t.Errorf("expected stripped content, got %q", first.Content)
	}
	if first.Source != "Bookmarks" {
		t.Errorf("expected source 'Bookmarks', got %q", first.Source)
	}

	if entries[1].URL != "https://example.com/guid-only" {
		t.Errorf("expected GUID fallback, got %q", entries[1].URL)
	}
}

func TestParseAllSkipsBrokenFeed(t *testing.T) {
	srv := feedServer(t, bookmarksRSS)
	fp := NewFeedParser([]FeedConfig{
		{URL: srv.URL + "/missing"},
		{URL: srv.URL + "/rss"},
	}, nil)

	entries := fp.ParseAll(context.Background())
	if len(entries) != 2 {
		t.Errorf("expected entries from the working feed, got %d", len(entries))
	}
}

func TestCollect(t *testing.T) {
	srv := feedServer(t, bookmarksRSS)
	db := openTestDB(t)
	cfg := &config.Config{Notes: config.Notes{Feeds: []config.Feed{{URL: srv.URL + "/rss", Name: "Bookmarks"}}}}

	c := NewCollector(cfg, db, nil)
	r := c.Collect(context.Background())
	if r.TotalFound != 2 || r.NewNotes != 2 || r.Duplicates != 0 {
		t.Errorf("unexpected first run: %+v", r)
	}
	if r.Sources["Bookmarks"] != 2 {
		t.Errorf("expected 2 from Bookmarks, got %d", r.Sources["Bookmarks"])
	}

	r = c.Collect(context.Background())
	if r.NewNotes != 0 || r.Duplicates != 2 {
		t.Errorf("expected duplicates on second run: %+v", r)
	}

	notes, _ := db.GetNotes(0)
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes stored, got %d", len(notes))
	}
}

func TestCollectWithoutFeeds(t *testing.T) {
	db := openTestDB(t)
	r := NewCollector(&config.Config{}, db, nil).Collect(context.Background())
	if r.TotalFound != 0 {
		t.Errorf("expected nothing collected, got %+v", r)
	}
}

func TestStripHTML(t *testing.T) {
	got := stripHTML("<p>Tom &amp; Jerry&nbsp;&lt;3</p>\n<p>again</p>")
	if got != "Tom & Jerry <3 again" {
		t.Errorf("unexpected stripped text: %q", got)
	}
}

func TestExtractSourceName(t *testing.T) {
	tests := map[string]string{
		"https://feeds.pinboard.in/rss/u:someone/": "Pinboard",
		"https://www.example.com/feed":             "Example",
		"https://blog.golang.org/feed.atom":        "Golang",
		"https://localhost/feed":                   "Localhost",
		"http://.com/feed":                         "http://.com/feed",
		"http://www./feed":                         "http://www./feed",
		"https://über.example/rss":                 "Über",
	}
	for in, want := range tests {
		if got := extractSourceName(in); got != want {
			t.Errorf("extractSourceName(%q) = %q, want %q", in, got, want)
		}
	}
}
