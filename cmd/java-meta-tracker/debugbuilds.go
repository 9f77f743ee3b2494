package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/jaydeluca/java-meta-tracker/internal/application"
	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	headerStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle      = lipgloss.NewStyle().Padding(0, 1)
	cancelledStyle = cellStyle.Foreground(lipgloss.Color("9"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// renderBuildReport prints the shortest runs, per-conclusion statistics and
// the effect of the cancelled-run filter.
func renderBuildReport(w io.Writer, rep application.BuildReport, top int) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Build runs of %s since %s", rep.Repo, rep.Since.UTC().Format("2006-01-02 15:04 MST"))))
	fmt.Fprintf(w, "Total completed runs found: %d\n\n", len(rep.Runs))

	if len(rep.Runs) == 0 {
		return
	}

	shown := rep.Runs
	if top > 0 && len(shown) > top {
		shown = shown[:top]
	}

	runs := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Run #", "Conclusion", "Minutes", "Workflow", "Event", "Branch", "URL").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if shown[row].Run.Conclusion == model.ConclusionCancelled {
				return cancelledStyle
			}
			return cellStyle
		})
	for _, r := range shown {
		runs.Row(
			strconv.Itoa(r.Run.RunNumber),
			string(r.Run.Conclusion.OrUnknown()),
			fmt.Sprintf("%.1f", r.Minutes),
			r.Workflow,
			string(r.Run.Event),
			r.Run.Branch,
			r.Run.URL,
		)
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Shortest runs (first %d)", len(shown))))
	fmt.Fprintln(w, runs.String())
	fmt.Fprintln(w)

	stats := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Conclusion", "Runs", "Avg min", "Min min", "Max min").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, s := range rep.Stats {
		stats.Row(
			string(s.Conclusion),
			strconv.Itoa(s.Count),
			fmt.Sprintf("%.1f", s.AvgMinutes),
			fmt.Sprintf("%.1f", s.MinMinutes),
			fmt.Sprintf("%.1f", s.MaxMinutes),
		)
	}
	fmt.Fprintln(w, titleStyle.Render("Duration by conclusion"))
	fmt.Fprintln(w, stats.String())
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Cancelled runs (filtered):    %d\n", rep.Cancelled)
	fmt.Fprintf(w, "Runs that would be processed: %d\n", rep.WouldProcess())
	if rep.Cancelled > 0 {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("Cancelled runs average %.1f minutes and are excluded from the duration histograms.", rep.CancelledAvgMinutes())))
	}
}
