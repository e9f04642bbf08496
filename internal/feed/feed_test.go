package feed

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/harrisjose/homepage/internal/content"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dates(articles []content.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Date.Format("2006-01-02")
	}
	return out
}

func TestSelectDropsDraftsAndOrders(t *testing.T) {
	in := []content.Article{
		{Title: "a", Date: day("2024-01-01")},
		{Title: "b", Date: day("2024-03-01"), Draft: true},
		{Title: "c", Date: day("2024-02-01")},
	}
	got := Recent(in)
	if diff := cmp.Diff([]string{"2024-02-01", "2024-01-01"}, dates(got)); diff != "" {
		t.Errorf("Recent() dates mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectKeepsLatestThree(t *testing.T) {
	in := []content.Article{
		{Date: day("2024-01-05")},
		{Date: day("2024-01-01")},
		{Date: day("2024-01-04")},
		{Date: day("2024-01-02")},
		{Date: day("2024-01-03")},
	}
	got := Recent(in)
	assert.Len(t, got, 3)
	assert.Equal(t, []string{"2024-01-05", "2024-01-04", "2024-01-03"}, dates(got))
}

func TestSelectEmpty(t *testing.T) {
	assert.Empty(t, Recent(nil))
	assert.Empty(t, Recent([]content.Article{}))
	assert.Empty(t, Recent([]content.Article{{Draft: true}}))
}

func TestSelectDoesNotMutateInput(t *testing.T) {
	in := []content.Article{
		{Title: "old", Date: day("2023-01-01"), Tags: []string{"x"}},
		{Title: "draft", Date: day("2025-01-01"), Draft: true},
		{Title: "new", Date: day("2024-01-01"), Tags: []string{"y", "z"}},
	}
	before := make([]content.Article, len(in))
	for i, a := range in {
		before[i] = a
		before[i].Tags = append([]string(nil), a.Tags...)
	}

	_ = Select(in, 1)
	_ = Select(in, 0)

	if diff := cmp.Diff(before, in); diff != "" {
		t.Errorf("input mutated (-before +after):\n%s", diff)
	}
}

func TestSelectStableOnEqualDates(t *testing.T) {
	in := []content.Article{
		{Title: "first", Date: day("2024-01-01")},
		{Title: "second", Date: day("2024-01-01")},
		{Title: "third", Date: day("2024-01-01")},
	}
	got := Select(in, 0)
	assert.Equal(t, "first", got[0].Title)
	assert.Equal(t, "second", got[1].Title)
	assert.Equal(t, "third", got[2].Title)
}

func TestSelectNoLimit(t *testing.T) {
	in := make([]content.Article, 10)
	for i := range in {
		in[i].Date = day("2024-01-01").AddDate(0, 0, i)
	}
	assert.Len(t, Select(in, 0), 10)
	assert.Len(t, Select(in, -1), 10)
	assert.Len(t, Select(in, 20), 10)
}

func TestTags(t *testing.T) {
	in := []content.Article{
		{Date: day("2024-01-01"), Tags: []string{"go", "web"}},
		{Date: day("2024-02-01"), Tags: []string{"css", "go"}},
		{Date: day("2024-03-01"), Tags: []string{"secret"}, Draft: true},
	}
	assert.Equal(t, []string{"css", "go", "web"}, Tags(in))

	tagged := Tagged(in, "go")
	assert.Equal(t, []string{"2024-02-01", "2024-01-01"}, dates(tagged))
	assert.Empty(t, Tagged(in, "secret"))
}
