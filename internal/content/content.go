// Package content loads the article bundle: Markdown files with YAML front
// matter, rendered to HTML at load time.
package content

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Article is a single entry of the content bundle. Articles are immutable
// once loaded.
type Article struct {
	Title       string
	Date        time.Time
	Draft       bool
	Tags        []string
	Excerpt     string // HTML fragment
	Path        string // route, e.g. "/posts/hello-world"
	ReadingTime string // e.g. "4 min read"
	Body        string // rendered HTML
	Source      string // bundle-relative file name
}

// Load reads every article in fsys.
func Load(fsys fs.FS) ([]Article, error) {
	r := newRenderer()
	var articles []Article
	seen := make(map[string]string)

	err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name != "." && isHidden(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if !isArticleFile(name) || isHidden(d.Name()) {
			return nil
		}

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		a, err := r.parse(name, data)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", name, err)
		}
		if prev, ok := seen[a.Path]; ok {
			return fmt.Errorf("%s and %s both map to %s", prev, name, a.Path)
		}
		seen[a.Path] = name
		articles = append(articles, *a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return articles, nil
}

func isArticleFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".mdx":
		return true
	}
	return false
}

func isHidden(base string) bool {
	return strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_")
}

// Bundle is the loaded content, reloadable in place.
type Bundle struct {
	fsys   fs.FS
	logger *zap.Logger

	mu       sync.RWMutex
	articles []Article
	byPath   map[string]int
	loadedAt time.Time
}

// NewBundle creates a bundle reading from fsys. Call Reload to load it.
func NewBundle(fsys fs.FS, logger *zap.Logger) *Bundle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bundle{fsys: fsys, logger: logger, byPath: map[string]int{}}
}

// Reload re-reads the bundle. On error the previous content is kept.
func (b *Bundle) Reload() error {
	articles, err := Load(b.fsys)
	if err != nil {
		return err
	}

	byPath := make(map[string]int, len(articles))
	for i, a := range articles {
		byPath[a.Path] = i
	}

	b.mu.Lock()
	b.articles = articles
	b.byPath = byPath
	b.loadedAt = time.Now()
	b.mu.Unlock()

	b.logger.Info("content loaded", zap.Int("articles", len(articles)))
	return nil
}

// Articles returns a copy of the loaded articles in bundle order.
func (b *Bundle) Articles() []Article {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Article, len(b.articles))
	copy(out, b.articles)
	return out
}

// Get returns the article served at route p.
func (b *Bundle) Get(p string) (Article, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	i, ok := b.byPath[p]
	if !ok {
		return Article{}, false
	}
	return b.articles[i], true
}

// LoadedAt returns the time of the last successful reload.
func (b *Bundle) LoadedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loadedAt
}
