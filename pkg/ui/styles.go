// Package ui renders snugglec's CLI output with lipgloss.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary   = lipgloss.Color("#7D56F4")
	colorSecondary = lipgloss.Color("#56C3F4")
	colorSuccess   = lipgloss.Color("#5AF78E")
	colorWarning   = lipgloss.Color("#F7DC6F")
	colorError     = lipgloss.Color("#FF6B9D")
	colorMuted     = lipgloss.Color("#6C7086")

	colorText      = lipgloss.Color("#CDD6F4")
	colorSubtle    = lipgloss.Color("#7F849C")
	colorBorder    = lipgloss.Color("#45475A")
	colorHighlight = lipgloss.Color("#F5E0DC")
	colorNormal    = lipgloss.Color("#FFFFFF")
)

var (
	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 2).
			MarginBottom(1)

	styleVersion = lipgloss.NewStyle().
			Foreground(colorSubtle).
			Italic(true)

	styleSection = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSecondary).
			MarginTop(1)

	styleFilePath = lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true)

	styleFileInput = lipgloss.NewStyle().
			Foreground(colorText)

	styleFileOutput = lipgloss.NewStyle().
				Foreground(colorSuccess)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	styleError = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	styleStepLabel = lipgloss.NewStyle().
			Foreground(colorText).
			Width(10).
			Align(lipgloss.Left)

	styleStepTime = lipgloss.NewStyle().
			Foreground(colorSubtle).
			Italic(true)

	styleSummary = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(colorBorder).
			MarginTop(1).
			PaddingTop(1)

	styleIndent = lipgloss.NewStyle().
			PaddingLeft(2)

	styleNormalText = lipgloss.NewStyle().
				Foreground(colorNormal)
)

// BuildOutput renders one `snugglec build` invocation's progress: a
// header, one line per step the caller reports (the CLI reports "compile"
// and "write"), and a final summary line with elapsed time.
type BuildOutput struct {
	startTime time.Time
	fileCount int
}

func NewBuildOutput() *BuildOutput {
	return &BuildOutput{startTime: time.Now()}
}

func (b *BuildOutput) PrintHeader(version string) {
	header := styleHeader.Render("🧶 snugglec")
	badge := styleVersion.Render("v" + version)
	fmt.Println(header + " " + badge)
}

func (b *BuildOutput) PrintBuildStart(fileCount int) {
	b.fileCount = fileCount
	msg := fmt.Sprintf("Compiling %d file", fileCount)
	if fileCount != 1 {
		msg += "s"
	}
	fmt.Println(styleSection.Render(msg))
	fmt.Println()
}

func (b *BuildOutput) PrintFileStart(inputPath, outputPath string) {
	input := styleFileInput.Render(inputPath)
	arrow := styleMuted.Render("→")
	output := styleFileOutput.Render(outputPath)
	fmt.Printf("  %s %s %s\n", input, arrow, output)
	fmt.Println()
}

// Step is one pipeline stage's outcome (spec §4's lex/parse/resolve/
// check/lower/write pipeline).
type Step struct {
	Name     string
	Status   StepStatus
	Duration time.Duration
	Message  string
}

type StepStatus int

const (
	StepSuccess StepStatus = iota
	StepSkipped
	StepWarning
	StepError
)

func (b *BuildOutput) PrintStep(step Step) {
	var icon, rendered string
	switch step.Status {
	case StepSuccess:
		icon, rendered = "✓", styleSuccess.Render("done")
	case StepSkipped:
		icon, rendered = "○", styleMuted.Render("skipped")
	case StepWarning:
		icon, rendered = "⚠", styleWarning.Render("warning")
	case StepError:
		icon, rendered = "✗", styleError.Render("failed")
	}

	line := fmt.Sprintf("  %s %s %s", icon, styleStepLabel.Render(step.Name), rendered)
	if step.Duration > 0 {
		line += " " + styleStepTime.Render("("+formatDuration(step.Duration)+")")
	}
	fmt.Println(line)

	if step.Message != "" {
		fmt.Println(styleMuted.Render("    " + step.Message))
	}
}

func (b *BuildOutput) PrintSummary(success bool, errMsg string) {
	elapsed := time.Since(b.startTime)
	fmt.Println()

	var line string
	if success {
		line = fmt.Sprintf("%s %s %s", "✨", styleSuccess.Render("Build succeeded"), styleStepTime.Render("in "+formatDuration(elapsed)))
	} else {
		line = fmt.Sprintf("%s %s", "✗", styleError.Render("Build failed"))
		if errMsg != "" {
			line += "\n" + styleError.Render("   ") + errMsg
		}
	}
	fmt.Println(styleSummary.Render(line))
}

func (b *BuildOutput) PrintError(msg string) {
	fmt.Println(styleIndent.Render(styleError.Render("✗ error: ") + msg))
}

func (b *BuildOutput) PrintWarning(msg string) {
	fmt.Println(styleIndent.Render(styleWarning.Render("⚠ warning: ") + msg))
}

func (b *BuildOutput) PrintInfo(msg string) {
	fmt.Println(styleIndent.Render(styleMuted.Render("ℹ " + msg)))
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

func PrintVersionInfo(version string) {
	fmt.Println(styleHeader.Render("🧶 snugglec"))
	fmt.Println()
	fmt.Printf("  %s %s\n", styleMuted.Render("Version:"), styleSuccess.Render(version))
	fmt.Printf("  %s %s\n", styleMuted.Render("Target:"), styleNormalText.Render("JVM-family bytecode (stub container)"))
	fmt.Println()
}

// Table renders a two-column, left-aligned key/value listing (diagnostic
// counts, `check` summaries).
func Table(rows [][]string) string {
	maxWidth := 0
	for _, row := range rows {
		if len(row) > 0 && len(row[0]) > maxWidth {
			maxWidth = len(row[0])
		}
	}
	var lines []string
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		label := styleMuted.Render(fmt.Sprintf("%-*s", maxWidth, row[0]))
		value := styleNormalText.Render(row[1])
		lines = append(lines, fmt.Sprintf("  %s  %s", label, value))
	}
	return strings.Join(lines, "\n")
}

func Divider() string {
	return styleMuted.Render(strings.Repeat("─", 60))
}
