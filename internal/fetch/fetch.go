package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"

	"github.com/harrisjose/homepage/internal/database"
)

// excerptRunes caps the length of a fetched note excerpt.
const excerptRunes = 280

// maxBodyBytes caps how much of a page is read for extraction.
const maxBodyBytes = 5 << 20

// Result holds the results of a content fetch run.
type Result struct {
	Fetched int
	Failed  int
}

// ContentFetcher fills in note excerpts via HTTP + readability extraction.
type ContentFetcher struct {
	db     *database.DB
	client *http.Client
	logger *zap.Logger
}

// NewContentFetcher creates a new content fetcher.
func NewContentFetcher(db *database.DB, timeout time.Duration, logger *zap.Logger) *ContentFetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentFetcher{
		db:     db,
		logger: logger,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// FetchMissingContent fetches content for notes that have none.
// A domain that answers with an HTTP error is skipped for the rest of the run.
func (f *ContentFetcher) FetchMissingContent(ctx context.Context) *Result {
	notes, err := f.db.GetNotesNeedingFetch()
	if err != nil {
		f.logger.Error("getting notes needing fetch", zap.Error(err))
		return &Result{}
	}

	if len(notes) == 0 {
		f.logger.Debug("no notes need content fetching")
		return &Result{}
	}

	result := &Result{}
	failedDomains := make(map[string]struct{})

	for _, note := range notes {
		if ctx.Err() != nil {
			break
		}

		domain := ""
		if u, err := url.Parse(note.URL); err == nil {
			domain = strings.ToLower(u.Host)
		}

		if _, failed := failedDomains[domain]; failed {
			f.markAttempted(note)
			result.Failed++
			continue
		}

		content, httpErr := f.fetchContent(ctx, note.URL)
		if httpErr != nil {
			f.markAttempted(note)
			result.Failed++
			if domain != "" {
				failedDomains[domain] = struct{}{}
			}
			f.logger.Warn("HTTP error, skipping domain",
				zap.String("url", note.URL), zap.String("domain", domain), zap.Error(httpErr))
			continue
		}

		if content == "" {
			f.markAttempted(note)
			result.Failed++
			f.logger.Debug("no extractable content", zap.String("url", note.URL))
			continue
		}
		if err := f.db.UpdateNoteContent(note.ID, &content); err != nil {
			result.Failed++
			f.logger.Warn("storing fetched content",
				zap.Int64("note_id", note.ID), zap.String("url", note.URL), zap.Error(err))
			continue
		}
		result.Fetched++
		f.logger.Debug("fetched content", zap.String("title", note.Title))
	}

	f.logger.Info("content fetch complete", zap.Int("fetched", result.Fetched), zap.Int("failed", result.Failed))
	return result
}

// markAttempted flags note so later runs skip it. A failed write is logged
// and the note stays eligible for the next run.
func (f *ContentFetcher) markAttempted(note database.Note) {
	if err := f.db.MarkNoteFetchAttempted(note.ID); err != nil {
		f.logger.Warn("marking note as attempted",
			zap.Int64("note_id", note.ID), zap.String("url", note.URL), zap.Error(err))
	}
}

// fetchContent returns the extracted excerpt. Only HTTP status errors are
// returned as errors; connection and extraction failures yield "".
func (f *ContentFetcher) fetchContent(ctx context.Context, noteURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, noteURL, nil)
	if err != nil {
		return "", nil
	}
	req.Header.Set("User-Agent", "homepage/1.0 (notes)")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &HTTPError{Code: resp.StatusCode}
	}

	parsedURL, _ := url.Parse(noteURL)
	article, err := readability.FromReader(io.LimitReader(resp.Body, maxBodyBytes), parsedURL)
	if err != nil {
		return "", nil
	}

	text := strings.TrimSpace(article.Excerpt)
	if text == "" {
		text = strings.TrimSpace(article.TextContent)
	}
	return truncate(strings.Join(strings.Fields(text), " "), excerptRunes), nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	cut := strings.TrimSpace(string(runes[:n]))
	if i := strings.LastIndexByte(cut, ' '); i > n/2 {
		cut = cut[:i]
	}
	return cut + "…"
}

// HTTPError is an HTTP status failure.
type HTTPError struct {
	Code int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s", e.Code, http.StatusText(e.Code))
}
