// Package main provides UI utilities for the footprint CLI.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/spherical-ai/footprint/internal/engine"
)

// UI provides user-friendly output utilities.
type UI struct {
	out      io.Writer
	errOut   io.Writer
	noColor  bool
	jsonMode bool
}

// NewUI creates a new UI instance writing to stdout and stderr.
func NewUI(jsonMode, noColor bool) *UI {
	return &UI{
		out:      os.Stdout,
		errOut:   os.Stderr,
		noColor:  noColor || !IsTerminal(),
		jsonMode: jsonMode,
	}
}

func (ui *UI) line(w io.Writer, attr color.Attribute, symbol, format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	msg := fmt.Sprintf("%s %s\n", symbol, fmt.Sprintf(format, args...))
	if ui.noColor {
		fmt.Fprint(w, msg)
		return
	}
	color.New(attr).Fprint(w, msg)
}

// Success prints a success message.
func (ui *UI) Success(format string, args ...interface{}) {
	ui.line(ui.out, color.FgGreen, "✓", format, args...)
}

// Error prints an error message.
func (ui *UI) Error(format string, args ...interface{}) {
	ui.line(ui.errOut, color.FgRed, "✗", format, args...)
}

// Warning prints a warning message.
func (ui *UI) Warning(format string, args ...interface{}) {
	ui.line(ui.out, color.FgYellow, "⚠", format, args...)
}

// Info prints an info message.
func (ui *UI) Info(format string, args ...interface{}) {
	ui.line(ui.out, color.FgCyan, "ℹ", format, args...)
}

// Step prints a step message.
func (ui *UI) Step(format string, args ...interface{}) {
	ui.line(ui.out, color.FgBlue, "→", format, args...)
}

// Section prints a section header.
func (ui *UI) Section(title string) {
	if ui.jsonMode {
		return
	}
	fmt.Fprintln(ui.out)
	header := fmt.Sprintf("━━━ %s ━━━\n", strings.ToUpper(title))
	if ui.noColor {
		fmt.Fprint(ui.out, header)
	} else {
		color.New(color.FgMagenta, color.Bold).Fprint(ui.out, header)
	}
}

// KeyValue prints a key-value pair.
func (ui *UI) KeyValue(key string, value interface{}) {
	if ui.jsonMode {
		return
	}
	if ui.noColor {
		fmt.Fprintf(ui.out, "  %s: %v\n", key, value)
		return
	}
	color.New(color.FgYellow).Fprintf(ui.out, "  %s: ", key)
	fmt.Fprintf(ui.out, "%v\n", value)
}

// Newline prints a newline.
func (ui *UI) Newline() {
	if !ui.jsonMode {
		fmt.Fprintln(ui.out)
	}
}

// Table prints a plain aligned table.
func (ui *UI) Table(headers []string, rows [][]string) {
	if ui.jsonMode || len(headers) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = len([]rune(header))
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len([]rune(cell)) > widths[i] {
				widths[i] = len([]rune(cell))
			}
		}
	}

	border := func() {
		fmt.Fprint(ui.out, "+")
		for _, width := range widths {
			fmt.Fprint(ui.out, strings.Repeat("-", width+2)+"+")
		}
		fmt.Fprintln(ui.out)
	}
	printRow := func(cells []string) {
		fmt.Fprint(ui.out, "|")
		for i, width := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			fmt.Fprintf(ui.out, " %-*s |", width, cell)
		}
		fmt.Fprintln(ui.out)
	}

	border()
	printRow(headers)
	border()
	for _, row := range rows {
		printRow(row)
	}
	border()
}

// ProgressBar creates a query progress bar on stderr. It returns nil in JSON
// mode.
func (ui *UI) ProgressBar(description string, total int) *progressbar.ProgressBar {
	if ui.jsonMode {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(ui.errOut),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(ui.errOut)
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Spinner creates a stopped spinner on stderr. It returns nil in JSON mode.
func (ui *UI) Spinner(message string) *spinner.Spinner {
	if ui.jsonMode {
		return nil
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(ui.errOut))
	s.Suffix = " " + message
	return s
}

// Report renders a search report grouped by category in the given order.
func (ui *UI) Report(report *engine.Report, categories []string) {
	if ui.jsonMode {
		return
	}

	meta := report.Meta
	ui.Section("Search")
	ui.KeyValue("Name", meta.Name)
	if meta.ExtraInfo != "" {
		ui.KeyValue("Extra info", meta.ExtraInfo)
	}
	ui.KeyValue("Queries", fmt.Sprintf("%d (%d ok, %d failed, %d timed out)",
		meta.TotalQueries, meta.Succeeded, meta.Failed, meta.TimedOut))
	ui.KeyValue("Results", fmt.Sprintf("%d (%d duplicates dropped)", meta.TotalResults, meta.Duplicates))
	ui.KeyValue("Elapsed", FormatDuration(time.Duration(meta.ElapsedMS)*time.Millisecond))
	if meta.Cached {
		ui.Info("served from cache")
	}
	if meta.Partial {
		ui.Warning("partial results: the batch deadline passed before every query finished")
	}

	for _, category := range categories {
		results := report.Results[category]
		ui.Section(fmt.Sprintf("%s (%d)", category, len(results)))
		if len(results) == 0 {
			fmt.Fprintln(ui.out, "  no results")
			continue
		}
		for i, r := range results {
			fmt.Fprintf(ui.out, "%2d. [%3d] %s\n", i+1, r.Score, r.Title)
			fmt.Fprintf(ui.out, "     %s\n", r.URL)
			fmt.Fprintf(ui.out, "     %s\n", r.MatchContext)
		}
	}
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// IsTerminal checks if stdout is a terminal.
func IsTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
