// Package batch runs the per-chapter pipeline over a whole story. Chapters
// are processed concurrently and a failing chapter never stops the others.
package batch

import (
	"context"
	"fmt"

	"github.com/daikw/tapread/internal/reconcile"
	"github.com/daikw/tapread/internal/sentence"
	"github.com/daikw/tapread/internal/tokenizer"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent chapters when no limit is given.
const DefaultWorkers = 4

// ChapterError ties a failure to the chapter it happened in. The chapter's
// stored data is left as it was.
type ChapterError struct {
	Index int
	ID    string
	Err   error
}

func (e *ChapterError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("chapter %d (id %s): %v", e.Index+1, e.ID, e.Err)
	}
	return fmt.Sprintf("chapter %d: %v", e.Index+1, e.Err)
}

func (e *ChapterError) Unwrap() error {
	return e.Err
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers limits how many chapters run at once.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithTokenizer sets the tokenizer used for raw episode text.
func WithTokenizer(t *tokenizer.Tokenizer) Option {
	return func(r *Runner) {
		r.tok = t
	}
}

// WithThreshold sets the fuzzy matching threshold.
func WithThreshold(threshold float64) Option {
	return func(r *Runner) {
		r.rec = reconcile.NewReconciler(threshold)
	}
}

// WithSentenceOptions sets how candidates are enumerated.
func WithSentenceOptions(opts sentence.Options) Option {
	return func(r *Runner) {
		r.sentences = opts
	}
}

// Runner holds the shared, read-only pipeline pieces.
type Runner struct {
	workers   int
	tok       *tokenizer.Tokenizer
	rec       *reconcile.Reconciler
	sentences sentence.Options
}

// NewRunner creates a Runner with default settings.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		workers:   DefaultWorkers,
		rec:       reconcile.NewReconciler(reconcile.DefaultThreshold),
		sentences: sentence.Options{Window: sentence.DefaultWindow},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.tok == nil {
		r.tok = tokenizer.New()
	}
	return r
}

// each calls fn for 0..n-1 with at most r.workers calls in flight. fn
// reports per-item failures in its own result slot; the only error returned
// is the context's.
func (r *Runner) each(ctx context.Context, n int, fn func(i int)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("batch cancelled: %w", err)
	}
	return nil
}
