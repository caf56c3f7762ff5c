package worker

import "context"

// Outcome classifies the terminal result of processing one file.
type Outcome string

const (
	OutcomeSuccess    Outcome = "Success"
	OutcomeUpdated    Outcome = "Updated"
	OutcomeSkipped    Outcome = "Skipped"
	OutcomeError      Outcome = "Error"
	OutcomeMissing    Outcome = "Missing"
	OutcomeNotFound   Outcome = "Not Found"
	OutcomeNotMatched Outcome = "Not Matched"
)

// Events is the callback contract between a worker and its caller. Every
// callback may be nil. Finished fires exactly once per run, whether the
// run completed, failed, or was cancelled.
type Events struct {
	Progress func(done, total int)
	Result   func(path string, outcome Outcome, detail string)
	Finished func()
}

func (e Events) progress(done, total int) {
	if e.Progress != nil {
		e.Progress(done, total)
	}
}

func (e Events) result(path string, outcome Outcome, detail string) {
	if e.Result != nil {
		e.Result(path, outcome, detail)
	}
}

func (e Events) finished() {
	if e.Finished != nil {
		e.Finished()
	}
}

// Worker is one batch operation over a list of audio files.
type Worker interface {
	Name() string
	Run(ctx context.Context)
}

// runBatch drives the shared per-item loop. Results come out in input
// order, cancellation is checked between items only, and Finished is
// emitted unconditionally.
func runBatch[T any](ctx context.Context, items []T, ev Events, pathOf func(T) string, fn func(T) (Outcome, string)) {
	defer ev.finished()

	total := len(items)
	ev.progress(0, total)
	for i, item := range items {
		if ctx.Err() != nil {
			return
		}
		outcome, detail := fn(item)
		ev.result(pathOf(item), outcome, detail)
		ev.progress(i+1, total)
	}
}

func runFiles(ctx context.Context, files []string, ev Events, fn func(path string) (Outcome, string)) {
	runBatch(ctx, files, ev, func(p string) string { return p }, fn)
}
