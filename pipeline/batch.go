package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Item is one input article file.
type Item struct {
	Name string
	Data []byte
}

// Batch runs a Pipeline over many files with partial-failure semantics: a
// failing article is recorded and the run continues.
type Batch struct {
	pipeline *Pipeline
}

// NewBatch creates a batch runner.
func NewBatch(p *Pipeline) *Batch {
	return &Batch{pipeline: p}
}

// Run processes items in lexicographic name order and returns the collection of
// every successful article with a report of the run. Cancelling ctx stops the
// run before the next item; the partial collection and report are returned
// together with the context error.
func (b *Batch) Run(ctx context.Context, items []Item) (*Collection, *Report, error) {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Total:     len(sorted),
		Succeeded: []string{},
		Failed:    []Failure{},
	}
	coll := NewCollection()
	logger := b.pipeline.logger.With().Str("run_id", report.RunID).Logger()
	logger.Info().Int("files", len(sorted)).Msg("batch started")

	var runErr error
	for _, item := range sorted {
		if err := ctx.Err(); err != nil {
			report.Cancelled = true
			runErr = err
			break
		}

		res, err := b.pipeline.transform(ctx, logger, item.Name, item.Data)
		if err != nil {
			report.addFailure(item.Name, err)
			continue
		}

		n, err := coll.Add(res.XML)
		if err != nil {
			report.addFailure(item.Name, articleError(item.Name, err))
			continue
		}
		report.Articles += n
		report.Succeeded = append(report.Succeeded, item.Name)
		if len(res.Dropped) > 0 {
			if report.Dropped == nil {
				report.Dropped = make(map[string][]string)
			}
			report.Dropped[item.Name] = res.Dropped
		}
	}

	report.Duration = time.Since(report.StartedAt)
	logger.Info().
		Int("succeeded", len(report.Succeeded)).
		Int("failed", len(report.Failed)).
		Int("articles", report.Articles).
		Dur("duration", report.Duration).
		Msg("batch finished")

	if b.pipeline.observer != nil {
		b.pipeline.observer.BatchCompleted(report)
	}
	return coll, report, runErr
}
