package collect

import (
	"context"

	"go.uber.org/zap"

	"github.com/harrisjose/homepage/internal/config"
	"github.com/harrisjose/homepage/internal/database"
)

// Result holds the results of a collection run.
type Result struct {
	TotalFound int
	NewNotes   int
	Duplicates int
	Sources    map[string]int
}

// Collector imports notes from the configured bookmark feeds.
type Collector struct {
	db         *database.DB
	feedParser *FeedParser
	logger     *zap.Logger
}

// NewCollector creates a new notes collector.
func NewCollector(cfg *config.Config, db *database.DB, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{db: db, logger: logger}

	if len(cfg.Notes.Feeds) > 0 {
		feeds := make([]FeedConfig, len(cfg.Notes.Feeds))
		for i, f := range cfg.Notes.Feeds {
			feeds[i] = FeedConfig{URL: f.URL, Name: f.Name}
		}
		c.feedParser = NewFeedParser(feeds, logger)
	}

	return c
}

// Collect stores every new feed entry as a note.
func (c *Collector) Collect(ctx context.Context) *Result {
	r := &Result{Sources: make(map[string]int)}
	if c.feedParser == nil {
		c.logger.Info("no note feeds configured")
		return r
	}

	entries := c.feedParser.ParseAll(ctx)
	r.TotalFound = len(entries)

	for _, entry := range entries {
		var source, created, content *string
		if entry.Source != "" {
			source = &entry.Source
		}
		if entry.PublishedDate != "" {
			created = &entry.PublishedDate
		}
		if entry.Content != "" {
			content = &entry.Content
		}

		id, err := c.db.InsertNote(entry.URL, entry.Title, source, created, content)
		if err != nil {
			c.logger.Warn("storing note", zap.String("url", entry.URL), zap.Error(err))
			continue
		}
		if id > 0 {
			r.NewNotes++
			r.Sources[entry.Source]++
		} else {
			r.Duplicates++
		}
	}

	c.logger.Info("collection complete",
		zap.Int("found", r.TotalFound), zap.Int("new", r.NewNotes), zap.Int("duplicates", r.Duplicates))
	return r
}
