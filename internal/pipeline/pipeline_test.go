package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/harrisjose/homepage/internal/config"
	"github.com/harrisjose/homepage/internal/database"
)

func newTestPipeline(t *testing.T) (*Pipeline, *database.DB) {
	t.Helper()

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/rss", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>B</title>
<item><title>Page</title><link>` + srv.URL + `/page</link></item>
</channel></rss>`))
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Page</title></head><body><article>
<p>A page with enough words in it to be worth extracting as the excerpt of a note.
Readability needs a paragraph or two of real text before it is willing to call it content.</p>
</article></body></html>`))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{Notes: config.Notes{
		Feeds:        []config.Feed{{URL: srv.URL + "/rss", Name: "Bookmarks"}},
		FetchTimeout: "5s",
	}}
	return New(cfg, db, nil), db
}

func TestSync(t *testing.T) {
	p, db := newTestPipeline(t)

	r := p.Sync(context.Background())
	require.NoError(t, r.Err())
	require.Len(t, r.Steps, 2)
	assert.Equal(t, "Collect", r.Steps[0].Name)
	assert.Contains(t, r.Steps[0].Summary, "Found 1 new notes")
	assert.Equal(t, "Fetch", r.Steps[1].Name)

	last, err := db.GetLastSync()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, 1, last.NotesFound)
	assert.Equal(t, 1, last.NotesNew)
}

func TestSyncCancelled(t *testing.T) {
	p, db := newTestPipeline(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := p.Sync(ctx)
	assert.ErrorIs(t, r.Err(), context.Canceled)

	last, _ := db.GetLastSync()
	assert.Nil(t, last)
}

func TestDryRun(t *testing.T) {
	p, db := newTestPipeline(t)
	db.InsertNote("https://example.com/a", "A", nil, nil, nil)

	r := p.DryRun()
	require.Len(t, r.Steps, 3)
	assert.Equal(t, "[dry-run] Would read 1 feeds", r.Steps[0].Summary)
	assert.Equal(t, "[dry-run] 1 notes need content fetching", r.Steps[1].Summary)
	assert.True(t, strings.HasPrefix(r.Steps[2].Summary, "[dry-run] No sync"))

	notes, _ := db.GetNotes(0)
	assert.Len(t, notes, 1, "dry run must not import")
}

func TestSchedulerInvalidSpec(t *testing.T) {
	_, err := NewScheduler(context.Background(), "every now and then", New(&config.Config{}, nil, nil), nil)
	assert.Error(t, err)
}

func TestSchedulerNext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s, err := NewScheduler(context.Background(), "0 */6 * * *", New(&config.Config{}, nil, nil), nil)
	require.NoError(t, err)

	now := time.Date(2024, 2, 6, 7, 30, 0, 0, time.Local)
	want := time.Date(2024, 2, 6, 12, 0, 0, 0, time.Local)
	assert.True(t, want.Equal(s.Next(now)), "next run %v", s.Next(now))

	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
}
