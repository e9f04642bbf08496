package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/harrisjose/homepage/internal/collect"
	"github.com/harrisjose/homepage/internal/config"
	"github.com/harrisjose/homepage/internal/database"
	"github.com/harrisjose/homepage/internal/fetch"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a notes sync.
type Result struct {
	Steps []StepResult
}

// Err returns the first step error, if any.
func (r *Result) Err() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return fmt.Errorf("%s: %w", s.Name, s.Err)
		}
	}
	return nil
}

// Pipeline imports notes: collect from feeds, then fetch missing content.
type Pipeline struct {
	cfg    *config.Config
	db     *database.DB
	logger *zap.Logger
}

// New creates a new pipeline.
func New(cfg *config.Config, db *database.DB, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, db: db, logger: logger}
}

// Sync runs collect and fetch, then records the run.
func (p *Pipeline) Sync(ctx context.Context) *Result {
	r := &Result{}

	p.logger.Info("step 1/2: collecting notes")
	collected := collect.NewCollector(p.cfg, p.db, p.logger).Collect(ctx)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("Found %d new notes (%d total, %d duplicates)", collected.NewNotes, collected.TotalFound, collected.Duplicates),
	})
	if err := ctx.Err(); err != nil {
		r.Steps[len(r.Steps)-1].Err = err
		return r
	}

	p.logger.Info("step 2/2: fetching note content")
	timeout, err := p.cfg.GetFetchTimeout()
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Fetch", Err: err})
		return r
	}
	fetched := fetch.NewContentFetcher(p.db, timeout, p.logger).FetchMissingContent(ctx)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Fetch",
		Summary: fmt.Sprintf("Fetched %d notes, %d failed", fetched.Fetched, fetched.Failed),
	})

	if _, err := p.db.InsertSyncRun(collected.TotalFound, collected.NewNotes, fetched.Fetched); err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Record", Err: fmt.Errorf("recording sync run: %w", err)})
	}
	return r
}

// DryRun shows what would be done without executing.
func (p *Pipeline) DryRun() *Result {
	r := &Result{}

	r.Steps = append(r.Steps, StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("[dry-run] Would read %d feeds", len(p.cfg.Notes.Feeds)),
	})

	needing, err := p.db.GetNotesNeedingFetch()
	r.Steps = append(r.Steps, StepResult{
		Name:    "Fetch",
		Summary: fmt.Sprintf("[dry-run] %d notes need content fetching", len(needing)),
		Err:     err,
	})

	last, _ := p.db.GetLastSync()
	if last != nil {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Record",
			Summary: fmt.Sprintf("[dry-run] Last sync at %s", last.StartedAt),
		})
	} else {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Record",
			Summary: "[dry-run] No sync has run yet",
		})
	}

	return r
}

// RunWithTimeout runs Sync bounded by d. Used by scheduled runs.
func (p *Pipeline) RunWithTimeout(ctx context.Context, d time.Duration) *Result {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return p.Sync(ctx)
}
