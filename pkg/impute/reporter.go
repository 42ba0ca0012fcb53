package impute

import (
	"context"

	"github.com/rs/zerolog"
)

// Reporter receives progress of a run. Errors from a reporter are logged and
// never abort the run. Reporters shared by Multiple must be safe for
// concurrent use.
type Reporter interface {
	Iteration(ctx context.Context, rep IterationReport) error
	Finish(ctx context.Context, res *Result) error
}

// LogReporter writes every pass and the final result to a zerolog logger,
// independently of the engine's own logger.
type LogReporter struct {
	Logger zerolog.Logger
	Level  zerolog.Level
}

func (l LogReporter) Iteration(_ context.Context, rep IterationReport) error {
	l.Logger.WithLevel(l.Level).Str("run", rep.RunID).Object("pass", rep).Msg("progress")
	return nil
}

func (l LogReporter) Finish(_ context.Context, res *Result) error {
	ev := l.Logger.WithLevel(l.Level).Object("result", res)
	for _, c := range lastColumns(res) {
		ev = ev.Float64("err_"+c.Column, c.Normalized)
	}
	ev.Msg("done")
	return nil
}

func lastColumns(res *Result) []ColumnError {
	if res.Best == 0 || res.Best > len(res.Iterations) {
		return nil
	}
	return res.Iterations[res.Best-1].Columns
}

// History collects reports in memory. It is not safe for use by Multiple.
type History struct {
	Reports []IterationReport
	Results []*Result
}

func (h *History) Iteration(_ context.Context, rep IterationReport) error {
	h.Reports = append(h.Reports, rep)
	return nil
}

func (h *History) Finish(_ context.Context, res *Result) error {
	h.Results = append(h.Results, res)
	return nil
}
