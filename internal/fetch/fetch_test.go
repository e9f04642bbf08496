package fetch

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/harrisjose/homepage/internal/database"
)

const articlePage = `<!doctype html>
<html><head><title>Interesting</title>
<meta name="description" content="An interesting page about Go.">
</head>
<body><article><h1>Interesting</h1>
<p>Go is a programming language designed at Google. It is statically typed and compiled,
with memory safety, garbage collection, structural typing and CSP-style concurrency.</p>
<p>It is often used for network services, command line tools and infrastructure software,
where its simple deployment story and fast builds are appreciated by its users.</p>
</article></body></html>`

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestFetchMissingContent(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articlePage))
	}))
	defer good.Close()
	gone := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer gone.Close()

	db := openTestDB(t)
	okID, _ := db.InsertNote(good.URL+"/article", "Interesting", nil, nil, nil)
	db.InsertNote(gone.URL+"/gone-1", "Gone 1", nil, nil, nil)
	db.InsertNote(gone.URL+"/gone-2", "Gone 2", nil, nil, nil)

	f := NewContentFetcher(db, 5*time.Second, nil)
	r := f.FetchMissingContent(context.Background())

	if r.Fetched != 1 {
		t.Errorf("expected 1 fetched, got %d", r.Fetched)
	}
	if r.Failed != 2 {
		t.Errorf("expected 2 failed, got %d", r.Failed)
	}

	note, _ := db.GetNote(okID)
	if note.Content == nil || *note.Content == "" {
		t.Fatal("expected content for the working page")
	}

	needing, _ := db.GetNotesNeedingFetch()
	if len(needing) != 0 {
		t.Errorf("expected all notes marked as attempted, got %d", len(needing))
	}
}

func TestFetchSkipsFailedDomain(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	db := openTestDB(t)
	db.InsertNote(srv.URL+"/a", "A", nil, nil, nil)
	db.InsertNote(srv.URL+"/b", "B", nil, nil, nil)
	db.InsertNote(srv.URL+"/c", "C", nil, nil, nil)

	r := NewContentFetcher(db, time.Second, nil).FetchMissingContent(context.Background())
	if r.Failed != 3 {
		t.Errorf("expected 3 failed, got %d", r.Failed)
	}
	if hits.Load() != 1 {
		t.Errorf("expected a single request to the failing domain, got %d", hits.Load())
	}
}

func TestFetchCountsOnlyStoredContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articlePage))
	}))
	defer srv.Close()

	db := openTestDB(t)
	id, _ := db.InsertNote(srv.URL+"/article", "Interesting", nil, nil, nil)

	// Reject every write to notes from a second connection.
	raw, err := sql.Open("sqlite", db.Path())
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer raw.Close()
	if _, err := raw.Exec(`CREATE TRIGGER notes_read_only BEFORE UPDATE ON notes
		BEGIN SELECT RAISE(ABORT, 'notes are read-only'); END`); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	r := NewContentFetcher(db, 5*time.Second, nil).FetchMissingContent(context.Background())
	if r.Fetched != 0 {
		t.Errorf("expected nothing counted as fetched, got %d", r.Fetched)
	}
	if r.Failed != 1 {
		t.Errorf("expected 1 failed, got %d", r.Failed)
	}

	note, _ := db.GetNote(id)
	if note.Content != nil {
		t.Errorf("expected no stored content, got %q", *note.Content)
	}
	needing, _ := db.GetNotesNeedingFetch()
	if len(needing) != 1 {
		t.Errorf("expected the note to stay eligible for the next run, got %d", len(needing))
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("unexpected truncation: %q", got)
	}

	long := strings.Repeat("word ", 100)
	got := truncate(long, 50)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("expected ellipsis, got %q", got)
	}
	if utf8.RuneCountInString(got) > 51 {
		t.Errorf("expected at most 51 runes, got %d", utf8.RuneCountInString(got))
	}
}

func TestHTTPError(t *testing.T) {
	err := &HTTPError{Code: http.StatusNotFound}
	if err.Error() != "404 Not Found" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}
