package reporter

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/five82/avctc/internal/util"
)

// TerminalReporter outputs human-friendly text to the terminal.
type TerminalReporter struct {
	mu        sync.Mutex
	progress  *progressbar.ProgressBar
	lastStage string
	verbose   bool
	cyan      *color.Color
	green     *color.Color
	yellow    *color.Color
	red       *color.Color
	magenta   *color.Color
	bold      *color.Color
}

// NewTerminalReporter creates a new terminal reporter. Verbose messages are
// printed only when verbose is set.
func NewTerminalReporter(verbose bool) *TerminalReporter {
	return &TerminalReporter{
		verbose: verbose,
		cyan:    color.New(color.FgCyan, color.Bold),
		green:   color.New(color.FgGreen),
		yellow:  color.New(color.FgYellow, color.Bold),
		red:     color.New(color.FgRed, color.Bold),
		magenta: color.New(color.FgMagenta),
		bold:    color.New(color.Bold),
	}
}

func (r *TerminalReporter) finishProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		_ = r.progress.Finish()
		r.progress = nil
	}
}

func (r *TerminalReporter) Hardware(summary HardwareSummary) {
	fmt.Println()
	_, _ = r.cyan.Println("HARDWARE")
	r.printLabel(10, "Hostname:", summary.Hostname)
	r.printLabel(10, "CPUs:", fmt.Sprintf("%d (%s/%s)", summary.NumCPU, summary.OS, summary.Arch))
}

// printLabel prints a bold label with fixed width padding followed by a value.
// Width is applied to the plain text before styling to ensure proper alignment.
func (r *TerminalReporter) printLabel(width int, label, value string) {
	paddedLabel := fmt.Sprintf("%-*s", width, label)
	fmt.Printf("  %s %s\n", r.bold.Sprint(paddedLabel), value)
}

func (r *TerminalReporter) RunConfig(summary RunConfigSummary) {
	fmt.Println()
	_, _ = r.cyan.Println("TEST CONDITIONS")
	const w = 13
	r.printLabel(w, "Mode:", summary.Mode)
	r.printLabel(w, "Work path:", summary.WorkPath)
	r.printLabel(w, "Encoder:", fmt.Sprintf("%s (preset %s)", summary.Encoder, summary.Preset))
	r.printLabel(w, "Configs:", strings.Join(summary.TestConfigs, ", "))
	r.printLabel(w, "QPs:", joinInts(summary.QPs))
	if len(summary.ScaleRatios) > 0 {
		r.printLabel(w, "Ratios:", joinFloats(summary.ScaleRatios))
		r.printLabel(w, "Algorithms:", strings.Join(summary.ScaleAlgos, ", "))
	}
	r.printLabel(w, "Metrics:", strings.Join(summary.Metrics, ", "))
	r.printLabel(w, "Clips:", fmt.Sprintf("%d", summary.Clips))
	if summary.CmdOnly {
		r.printLabel(w, "Commands:", r.yellow.Sprint("logged only, nothing is executed"))
	}
}

func (r *TerminalReporter) StageProgress(update StageProgress) {
	r.mu.Lock()
	if r.lastStage != update.Stage {
		r.mu.Unlock()
		fmt.Println()
		_, _ = r.cyan.Println(strings.ToUpper(update.Stage))
		r.mu.Lock()
		r.lastStage = update.Stage
	}
	r.mu.Unlock()
	fmt.Printf("  %s %s\n", r.magenta.Sprint("›"), update.Message)
}

func (r *TerminalReporter) SweepStarted(info SweepStartInfo) {
	r.finishProgress()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.progress = progressbar.NewOptions(
		info.TotalJobs,
		progressbar.OptionSetDescription(""),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      info.Name + " [",
			BarEnd:        "]",
		}),
	)
}

func (r *TerminalReporter) JobProgress(progress JobProgress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.progress == nil {
		return
	}

	completed := min(max(progress.Completed, 0), progress.Total)
	_ = r.progress.Set(completed)

	desc := fmt.Sprintf("%s %s QP %d", progress.Content, progress.TestCfg, progress.QP)
	if progress.Resolution != "" {
		desc += " @ " + progress.Resolution
	}
	r.progress.Describe(desc)
}

func (r *TerminalReporter) SweepComplete(summary SweepSummary) {
	r.finishProgress()

	fmt.Println()
	_, _ = r.cyan.Println(strings.ToUpper(summary.Name))
	fmt.Printf("  %s\n", r.bold.Sprintf("%d jobs finished", summary.Jobs))
	if summary.Skipped > 0 {
		fmt.Printf("  %s\n", r.yellow.Sprintf("%d skipped", summary.Skipped))
	}
	r.printLabel(8, "Time:", util.FormatDurationFromSecs(int64(summary.Duration.Seconds())))
	for _, out := range summary.Outputs {
		fmt.Printf("  - %s\n", r.green.Sprint(out))
	}
}

func (r *TerminalReporter) BDRateSummary(summary BDRateSummary) {
	fmt.Println()
	_, _ = r.cyan.Println("BD-RATE")
	r.printLabel(9, "Workbook:", summary.Workbook)

	maxLen := 0
	for _, line := range summary.Lines {
		maxLen = max(maxLen, len(line.Metric))
	}
	lastAlgo := ""
	for _, line := range summary.Lines {
		if line.Algo != lastAlgo {
			fmt.Printf("  %s\n", r.bold.Sprint(line.Algo))
			lastAlgo = line.Algo
		}
		fmt.Printf("    %.2f  %-*s  mean %s  median %s  BD-quality %+.3f  (%d contents, %s .. %s)\n",
			line.Ratio, maxLen, line.Metric,
			r.colorRate(line.Mean), r.colorRate(line.Median), line.QualityMean, line.Contents,
			util.FormatPercent(line.Min), util.FormatPercent(line.Max))
	}
}

// colorRate shows savings in green and losses in red.
func (r *TerminalReporter) colorRate(v float64) string {
	s := util.FormatPercent(v)
	if v < 0 {
		return r.green.Sprint(s)
	}
	return r.red.Sprint(s)
}

func (r *TerminalReporter) Warning(message string) {
	fmt.Println()
	_, _ = r.yellow.Printf("WARN: %s\n", message)
}

func (r *TerminalReporter) Error(err ReporterError) {
	_, _ = fmt.Fprintln(os.Stderr)
	_, _ = r.red.Fprintf(os.Stderr, "ERROR %s\n", err.Title)
	_, _ = fmt.Fprintf(os.Stderr, "  %s\n", err.Message)
	if err.Context != "" {
		_, _ = fmt.Fprintf(os.Stderr, "  Context: %s\n", err.Context)
	}
	if err.Suggestion != "" {
		_, _ = fmt.Fprintf(os.Stderr, "  Suggestion: %s\n", err.Suggestion)
	}
}

func (r *TerminalReporter) OperationComplete(message string) {
	fmt.Println()
	fmt.Printf("%s %s\n", r.green.Add(color.Bold).Sprint("✓"), r.bold.Sprint(message))
}

func (r *TerminalReporter) Verbose(message string) {
	if !r.verbose {
		return
	}
	fmt.Printf("  %s\n", color.New(color.Faint).Sprint(message))
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ")
}

func joinFloats(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%.2f", v)
	}
	return strings.Join(parts, ", ")
}
