package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"

	"tagfix/internal/core/worker"
	"tagfix/internal/shared"
)

type resultLine struct {
	path    string
	outcome worker.Outcome
	detail  string
}

// runner drives one worker: progress bar while running, per-file report
// and summary afterwards.
type runner struct {
	bar      *pb.ProgressBar
	results  []resultLine
	counts   map[worker.Outcome]int
	warnings *shared.WarningCollector
}

func newRunner(total int, warnings *shared.WarningCollector) *runner {
	return &runner{
		bar:      pb.New(total),
		counts:   make(map[worker.Outcome]int),
		warnings: warnings,
	}
}

func (r *runner) events() worker.Events {
	return worker.Events{
		Progress: func(done, total int) { r.bar.SetCurrent(int64(done)) },
		Result: func(path string, outcome worker.Outcome, detail string) {
			r.results = append(r.results, resultLine{path, outcome, detail})
			r.counts[outcome]++
		},
		Finished: func() { r.bar.Finish() },
	}
}

// run executes the worker with Ctrl-C mapped onto context cancellation,
// then prints the report.
func (r *runner) run(w worker.Worker) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)
	go func() {
		<-sig
		shared.ColorWarning.Println("\nCancelling after the current file...")
		cancel()
	}()

	r.bar.Start()
	w.Run(ctx)
	r.report()
}

func (r *runner) report() {
	for _, line := range r.results {
		outcomeColor(line.outcome).Printf("%-12s", line.outcome)
		fmt.Printf(" %s", filepath.Base(line.path))
		if line.detail != "" {
			fmt.Printf("  (%s)", line.detail)
		}
		fmt.Println()
	}

	var parts []string
	for _, outcome := range []worker.Outcome{
		worker.OutcomeSuccess, worker.OutcomeUpdated, worker.OutcomeSkipped,
		worker.OutcomeNotFound, worker.OutcomeNotMatched, worker.OutcomeMissing,
		worker.OutcomeError,
	} {
		if n := r.counts[outcome]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, strings.ToLower(string(outcome))))
		}
	}
	if r.warnings != nil && r.warnings.HasWarnings() {
		parts = append(parts, fmt.Sprintf("%d warnings", r.warnings.GetWarningCount()))
	}
	if len(parts) > 0 {
		fmt.Println()
		shared.ColorInfo.Println(strings.Join(parts, ", "))
	}

	if r.warnings != nil {
		r.warnings.PrintSummary()
	}
}

func outcomeColor(outcome worker.Outcome) *color.Color {
	switch outcome {
	case worker.OutcomeSuccess, worker.OutcomeUpdated:
		return shared.ColorSuccess
	case worker.OutcomeSkipped:
		return shared.ColorInfo
	case worker.OutcomeError:
		return shared.ColorError
	default:
		return shared.ColorWarning
	}
}
