package content

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"path"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"gopkg.in/yaml.v3"
)

// wordsPerMinute is the reading speed used for ReadingTime.
const wordsPerMinute = 200

var errNoFrontMatter = errors.New("missing front matter")

type frontMatter struct {
	Title   string   `yaml:"title"`
	Date    string   `yaml:"date"`
	Draft   bool     `yaml:"draft"`
	Tags    []string `yaml:"tags"`
	Excerpt string   `yaml:"excerpt"`
}

type renderer struct {
	md goldmark.Markdown
}

func newRenderer() *renderer {
	return &renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Typographer),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

func (r *renderer) parse(name string, data []byte) (*Article, error) {
	head, body, err := splitFrontMatter(data)
	if err != nil {
		return nil, err
	}

	var fm frontMatter
	if err := yaml.Unmarshal(head, &fm); err != nil {
		return nil, fmt.Errorf("front matter: %w", err)
	}
	if strings.TrimSpace(fm.Title) == "" {
		return nil, errors.New("front matter: title is required")
	}
	date, err := parseDate(fm.Date)
	if err != nil {
		return nil, fmt.Errorf("front matter: %w", err)
	}

	html, err := r.render(body)
	if err != nil {
		return nil, fmt.Errorf("rendering body: %w", err)
	}

	excerptSrc := fm.Excerpt
	if strings.TrimSpace(excerptSrc) == "" {
		excerptSrc = firstParagraph(body)
	}
	excerpt, err := r.renderInline(excerptSrc)
	if err != nil {
		return nil, fmt.Errorf("rendering excerpt: %w", err)
	}

	return &Article{
		Title:       strings.TrimSpace(fm.Title),
		Date:        date,
		Draft:       fm.Draft,
		Tags:        fm.Tags,
		Excerpt:     excerpt,
		Path:        FormatPath(name),
		ReadingTime: ReadingTime(string(body)),
		Body:        html,
		Source:      name,
	}, nil
}

func (r *renderer) render(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// renderInline renders src and unwraps a lone paragraph so the result can
// sit inside another block element.
func (r *renderer) renderInline(src string) (string, error) {
	out, err := r.render([]byte(strings.TrimSpace(src)))
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if strings.HasPrefix(out, "<p>") && strings.HasSuffix(out, "</p>") &&
		strings.Count(out, "<p>") == 1 {
		out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
	}
	return out, nil
}

// splitFrontMatter separates the leading "---" delimited YAML block from
// the Markdown body.
func splitFrontMatter(data []byte) (head, body []byte, err error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(data, []byte("---\n")) {
		return nil, nil, errNoFrontMatter
	}
	rest := data[len("---\n"):]

	for off := 0; off < len(rest); {
		end := bytes.IndexByte(rest[off:], '\n')
		var line []byte
		if end < 0 {
			line = rest[off:]
			end = len(rest) - off
		} else {
			line = rest[off : off+end]
		}
		if string(bytes.TrimRight(line, " \t")) == "---" {
			head = rest[:off]
			next := off + end + 1
			if next > len(rest) {
				next = len(rest)
			}
			return head, rest[next:], nil
		}
		off += end + 1
	}
	return nil, nil, errors.New("unterminated front matter")
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("date is required")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// firstParagraph returns the first block of prose in a Markdown body,
// skipping headings, code fences, HTML and import/export lines.
func firstParagraph(body []byte) string {
	var para []string
	inFence := false
	for _, line := range strings.Split(string(body), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if trimmed == "" {
			if len(para) > 0 {
				break
			}
			continue
		}
		if len(para) == 0 && skipLine(trimmed) {
			continue
		}
		para = append(para, trimmed)
	}
	return strings.Join(para, " ")
}

func skipLine(s string) bool {
	for _, prefix := range []string{"#", "<", "import ", "export ", "![", "---", "|"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// ReadingTime estimates the time to read a Markdown text.
func ReadingTime(text string) string {
	words := len(strings.Fields(text))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}

// FormatPath maps a bundle file name to its route: the extension and a
// leading "pages/" are dropped and an index file maps to its directory.
func FormatPath(name string) string {
	p := strings.TrimPrefix(path.Clean("/"+name), "/")
	p = strings.TrimSuffix(p, path.Ext(p))
	p = strings.TrimPrefix(p, "pages/")
	if p == "index" {
		return "/"
	}
	p = strings.TrimSuffix(p, "/index")
	return "/" + p
}
