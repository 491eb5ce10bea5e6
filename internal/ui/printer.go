package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	runewidth "github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Printer renders rich terminal UI fragments used by the CLI.
type Printer struct {
	colorEnabled bool
	success      *color.Color
	info         *color.Color
	warn         *color.Color
	error        *color.Color
}

// NewPrinter constructs a Printer with colour automatically enabled for TTY outputs.
func NewPrinter() *Printer {
	enabled := supportsColor(os.Stdout) && os.Getenv("NO_COLOR") == ""

	p := &Printer{
		colorEnabled: enabled,
		success:      color.New(color.FgGreen, color.Bold),
		info:         color.New(color.FgBlue, color.Bold),
		warn:         color.New(color.FgYellow, color.Bold),
		error:        color.New(color.FgRed, color.Bold),
	}

	if !enabled {
		p.success.DisableColor()
		p.info.DisableColor()
		p.warn.DisableColor()
		p.error.DisableColor()
	}

	return p
}

// PrintBanner renders the application banner.
func (p *Printer) PrintBanner() {
	lines := []string{
		"=========================================================",
		"        NordVPN Indicator Uninstaller",
		"",
		"Removes the indicator autostart entry, its installation",
		"directory and, on request, the packages it depends on.",
		"=========================================================",
	}

	for _, line := range lines {
		p.success.Println(line)
	}
}

// PrintSeparator prints a repeated character separator.
func (p *Printer) PrintSeparator(char string, length int) {
	if length <= 0 {
		return
	}
	fmt.Println(strings.Repeat(char, length))
}

// SummaryRow is a single line of the final run summary.
type SummaryRow struct {
	Step    string
	Outcome string
	Detail  string
}

// PrintSummary renders the final per-step outcome table.
func (p *Printer) PrintSummary(rows []SummaryRow) {
	p.PrintSeparator("-", 57)
	p.info.Println("Uninstall summary")
	fmt.Println()

	maxStepWidth := 0
	for _, row := range rows {
		if width := runewidth.StringWidth(row.Step); width > maxStepWidth {
			maxStepWidth = width
		}
	}

	for _, row := range rows {
		padding := strings.Repeat(" ", maxStepWidth-runewidth.StringWidth(row.Step))

		var mark string
		switch row.Outcome {
		case "completed":
			mark = p.success.Sprint("✓")
		case "failed":
			mark = p.error.Sprint("✕")
		case "skipped":
			mark = p.warn.Sprint("-")
		default:
			mark = "?"
		}

		line := fmt.Sprintf("[ %s ] %s%s  %s", mark, row.Step, padding, row.Outcome)
		if row.Detail != "" {
			line += fmt.Sprintf(" (%s)", row.Detail)
		}
		fmt.Println(line)
	}

	p.PrintSeparator("-", 57)
}

func supportsColor(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
