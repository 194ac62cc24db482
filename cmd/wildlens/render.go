package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"wildlens/internal/recognition"
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func renderDecision(out io.Writer, decision *recognition.Decision, debug bool) {
	colorize := shouldColorize(out)

	switch decision.Mode {
	case recognition.ModePick:
		fmt.Fprintln(out, colored(ansiGreen, colorize, "Identified: "+candidateLine(*decision.Pick)))
	case recognition.ModeDisambiguate:
		fmt.Fprintln(out, colored(ansiYellow, colorize, "Multiple close matches:"))
		for i, candidate := range decision.Top3 {
			fmt.Fprintf(out, "  %d. %s\n", i+1, candidateLine(candidate))
		}
	default:
		fmt.Fprintln(out, colored(ansiYellow, colorize, "No confident match"))
	}

	if decision.Wiki != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, colored(ansiBlue, colorize, decision.Wiki.Title))
		if extract := strings.TrimSpace(decision.Wiki.Extract); extract != "" {
			fmt.Fprintln(out, extract)
		}
		if decision.Wiki.URL != "" {
			fmt.Fprintln(out, decision.Wiki.URL)
		}
	}

	if debug && decision.Debug != nil {
		renderDebug(out, decision.Debug)
	}
}

func candidateLine(candidate recognition.Candidate) string {
	name := candidate.DisplayName()
	if candidate.ScientificName != "" && !strings.EqualFold(candidate.ScientificName, name) {
		name = fmt.Sprintf("%s (%s)", name, candidate.ScientificName)
	}
	return fmt.Sprintf("%s  score %.2f", name, candidate.TotalScore)
}

func renderDebug(out io.Writer, debug *recognition.Debug) {
	fmt.Fprintln(out)
	if debug.RecognitionID != "" {
		fmt.Fprintf(out, "Recognition: %s\n", debug.RecognitionID)
	}

	if len(debug.Candidates) > 0 {
		rows := make([][]string, 0, len(debug.Candidates))
		for _, candidate := range debug.Candidates {
			rows = append(rows, []string{
				candidate.DisplayName(),
				candidate.ScientificName,
				fmt.Sprintf("%.2f", candidate.Scores.Vision),
				fmt.Sprintf("%.2f", candidate.Scores.Provider),
				fmt.Sprintf("%.2f", candidate.TotalScore),
			})
		}
		fmt.Fprintln(out, renderTable([]tableColumn{
			{Title: "Name"},
			{Title: "Scientific"},
			{Title: "Vision", Numeric: true},
			{Title: "Provider", Numeric: true},
			{Title: "Total", Numeric: true},
		}, rows))
	}

	for _, timing := range debug.StageTimings {
		fmt.Fprintf(out, "  %-10s %s\n", timing.Stage, timing.Duration.Round(time.Millisecond))
	}
	if debug.Elapsed > 0 {
		fmt.Fprintf(out, "  %-10s %s\n", "total", debug.Elapsed.Round(time.Millisecond))
	}
	if debug.Costs != nil && debug.Costs.Total > 0 {
		fmt.Fprintf(out, "Spend: $%.4f (traditional $%.4f, model $%.4f)\n",
			debug.Costs.Total, debug.Costs.Traditional, debug.Costs.AI)
	}
}

func colored(color string, colorize bool, text string) string {
	if !colorize {
		return text
	}
	return color + text + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
