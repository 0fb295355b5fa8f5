package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kaveh8866/SemantIQ/internal/models"
	"github.com/kaveh8866/SemantIQ/internal/orchestration"
	"github.com/kaveh8866/SemantIQ/internal/reporting"
	"github.com/mattn/go-runewidth"
)

// formatDuration formats a duration in a consistent, human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(10 * time.Millisecond).String()
}

// printTable writes rows as left-aligned columns. Widths are measured in
// terminal cells so wide characters in model names line up.
func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); i < len(widths) && cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	writeRow := func(cells []string) {
		var b strings.Builder
		for i, cell := range cells {
			if i == len(cells)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			b.WriteString("  ")
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " ")) //nolint:errcheck
	}

	writeRow(headers)
	sep := make([]string, len(headers))
	for i := range headers {
		sep[i] = strings.Repeat("-", widths[i])
	}
	writeRow(sep)
	for _, row := range rows {
		writeRow(row)
	}
}

func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, width, "...")
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

func entryLabel(rc models.RunConfig) string {
	label := rc.BenchmarkID + " " + rc.Provider + "/" + rc.Model
	if len(rc.Params) > 0 {
		label += " " + rc.Params.String()
	}
	return label
}

// newProgressPrinter returns a listener printing one line per finished
// matrix entry.
func newProgressPrinter(w io.Writer) orchestration.ProgressListener {
	return func(event orchestration.ProgressEvent) {
		prefix := fmt.Sprintf("[%d/%d]", event.Index, event.Total)
		switch event.EventType {
		case orchestration.EventPipelineStart:
			fmt.Fprintf(w, "Running %d entries with %v worker(s), cache policy %v\n", //nolint:errcheck
				event.Total, event.Details["workers"], event.Details["cache_policy"])
		case orchestration.EventEntryComplete:
			fmt.Fprintf(w, "%s %s %s score=%.3f (%s)\n", prefix, event.Status, entryLabel(event.RunConfig), //nolint:errcheck
				event.Details["mean_score"], formatDuration(time.Duration(event.DurationMs)*time.Millisecond))
		case orchestration.EventEntryCached:
			fmt.Fprintf(w, "%s cached %s -> %s\n", prefix, entryLabel(event.RunConfig), event.RunID) //nolint:errcheck
		case orchestration.EventEntryPlanned:
			fmt.Fprintf(w, "%s planned %s\n", prefix, entryLabel(event.RunConfig)) //nolint:errcheck
		case orchestration.EventEntryFailed:
			fmt.Fprintf(w, "%s failed %s: %v\n", prefix, entryLabel(event.RunConfig), event.Err) //nolint:errcheck
		case orchestration.EventPipelineStopped:
			fmt.Fprintf(w, "Pipeline stopped, %v entries not attempted\n", event.Details["not_attempted"]) //nolint:errcheck
		}
	}
}

func printSummary(w io.Writer, s *orchestration.Summary) {
	fmt.Fprintln(w) //nolint:errcheck
	if s.DryRun {
		fmt.Fprintln(w, "Dry run, nothing was executed") //nolint:errcheck
	}

	rows := make([][]string, 0, len(s.Entries))
	for _, e := range s.Entries {
		score := "-"
		if e.Status == orchestration.StatusExecuted || e.Status == orchestration.StatusRefreshed || e.Status == orchestration.StatusCached {
			score = fmt.Sprintf("%.3f", e.MeanScore)
		}
		runID := e.RunID
		if runID == "" {
			runID = "-"
		}
		rows = append(rows, []string{
			string(e.Status),
			e.RunConfig.BenchmarkID,
			e.RunConfig.Provider + "/" + e.RunConfig.Model,
			e.RunConfig.Params.String(),
			score,
			runID,
		})
	}
	printTable(w, []string{"STATUS", "BENCHMARK", "MODEL", "PARAMS", "SCORE", "RUN"}, rows)

	fmt.Fprintf(w, "\nTotal: %d  Succeeded: %d  Failed: %d  Cached: %d", s.Total, s.Succeeded, s.Failed, s.Cached) //nolint:errcheck
	if s.DryRun {
		fmt.Fprintf(w, "  Planned: %d", s.Planned) //nolint:errcheck
	}
	if s.NotAttempted > 0 {
		fmt.Fprintf(w, "  Not attempted: %d", s.NotAttempted) //nolint:errcheck
	}
	fmt.Fprintln(w) //nolint:errcheck
	if !s.DryRun {
		fmt.Fprintln(w, reporting.InterpretCacheRate(s)) //nolint:errcheck
	}

	for _, warning := range s.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning) //nolint:errcheck
	}
}

func printRunResult(w io.Writer, r *models.RunResult) {
	fmt.Fprintf(w, "Run %s\n", r.RunID)                                                                 //nolint:errcheck
	fmt.Fprintf(w, "  Benchmark: %s v%s (prompt v%s)\n", r.Spec.ID, r.Spec.Version, r.Spec.PromptVersion) //nolint:errcheck
	fmt.Fprintf(w, "  Model:     %s/%s\n", r.ModelInfo.Provider, r.ModelInfo.Model)                      //nolint:errcheck
	fmt.Fprintf(w, "  Params:    %s\n\n", r.RunConfig.String())                                         //nolint:errcheck

	rows := make([][]string, 0, len(r.Cases))
	for _, c := range r.Cases {
		rows = append(rows, []string{
			c.CaseID,
			fmt.Sprintf("%.3f", c.Scores.Score),
			formatDuration(time.Duration(c.Timings.LatencyMs) * time.Millisecond),
			truncate(c.ModelOutput, 60),
		})
	}
	printTable(w, []string{"CASE", "SCORE", "LATENCY", "OUTPUT"}, rows)

	s := r.Summary
	fmt.Fprintf(w, "\nMean score: %.3f %s (σ=%.3f, min %.3f, max %.3f) over %d cases in %s\n", //nolint:errcheck
		s.MeanScore, reporting.InterpretScore(s.MeanScore), s.StdDev, s.MinScore, s.MaxScore, s.TotalCases,
		formatDuration(time.Duration(s.DurationMs)*time.Millisecond))
	if s.CI95 != nil {
		fmt.Fprintf(w, "95%% CI: [%.3f, %.3f]\n", s.CI95.Lower, s.CI95.Upper) //nolint:errcheck
	}
}
