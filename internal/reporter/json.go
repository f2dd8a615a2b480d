package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// JSONReporter outputs NDJSON events for machine consumers.
type JSONReporter struct {
	writer           io.Writer
	mu               sync.Mutex
	lastProgressTime time.Time
}

// NewJSONReporter creates a new JSON reporter that writes to stdout.
func NewJSONReporter() *JSONReporter {
	return &JSONReporter{writer: os.Stdout}
}

// NewJSONReporterWithWriter creates a JSON reporter with a custom writer.
func NewJSONReporterWithWriter(w io.Writer) *JSONReporter {
	return &JSONReporter{writer: w}
}

func (r *JSONReporter) timestamp() int64 {
	return time.Now().Unix()
}

func (r *JSONReporter) write(v interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintln(r.writer, string(data))
}

func (r *JSONReporter) Hardware(summary HardwareSummary) {
	r.write(map[string]interface{}{
		"type":      "hardware",
		"hostname":  summary.Hostname,
		"num_cpu":   summary.NumCPU,
		"os":        summary.OS,
		"arch":      summary.Arch,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) RunConfig(summary RunConfigSummary) {
	r.write(map[string]interface{}{
		"type":         "run_config",
		"mode":         summary.Mode,
		"work_path":    summary.WorkPath,
		"encoder":      summary.Encoder,
		"preset":       summary.Preset,
		"test_configs": summary.TestConfigs,
		"qps":          summary.QPs,
		"scale_ratios": summary.ScaleRatios,
		"scale_algos":  summary.ScaleAlgos,
		"metrics":      summary.Metrics,
		"clips":        summary.Clips,
		"cmd_only":     summary.CmdOnly,
		"timestamp":    r.timestamp(),
	})
}

func (r *JSONReporter) StageProgress(update StageProgress) {
	event := map[string]interface{}{
		"type":      "stage_progress",
		"stage":     update.Stage,
		"percent":   update.Percent,
		"message":   update.Message,
		"timestamp": r.timestamp(),
	}
	if update.ETA != nil {
		event["eta_seconds"] = int64(update.ETA.Seconds())
	}
	r.write(event)
}

func (r *JSONReporter) SweepStarted(info SweepStartInfo) {
	r.mu.Lock()
	r.lastProgressTime = time.Time{}
	r.mu.Unlock()

	r.write(map[string]interface{}{
		"type":       "sweep_started",
		"name":       info.Name,
		"total_jobs": info.TotalJobs,
		"timestamp":  r.timestamp(),
	})
}

func (r *JSONReporter) JobProgress(progress JobProgress) {
	const minInterval = 5 * time.Second

	now := time.Now()
	r.mu.Lock()
	last := progress.Completed >= progress.Total
	if !last && !r.lastProgressTime.IsZero() && now.Sub(r.lastProgressTime) < minInterval {
		r.mu.Unlock()
		return
	}
	r.lastProgressTime = now
	r.mu.Unlock()

	r.write(map[string]interface{}{
		"type":       "job_progress",
		"completed":  progress.Completed,
		"total":      progress.Total,
		"content":    progress.Content,
		"test_cfg":   progress.TestCfg,
		"qp":         progress.QP,
		"resolution": progress.Resolution,
		"timestamp":  r.timestamp(),
	})
}

func (r *JSONReporter) SweepComplete(summary SweepSummary) {
	r.write(map[string]interface{}{
		"type":             "sweep_complete",
		"name":             summary.Name,
		"jobs":             summary.Jobs,
		"skipped":          summary.Skipped,
		"duration_seconds": int64(summary.Duration.Seconds()),
		"outputs":          summary.Outputs,
		"timestamp":        r.timestamp(),
	})
}

func (r *JSONReporter) BDRateSummary(summary BDRateSummary) {
	lines := make([]map[string]interface{}, len(summary.Lines))
	for i, l := range summary.Lines {
		lines[i] = map[string]interface{}{
			"algo":         l.Algo,
			"ratio":        l.Ratio,
			"metric":       l.Metric,
			"contents":     l.Contents,
			"mean":         l.Mean,
			"median":       l.Median,
			"min":          l.Min,
			"max":          l.Max,
			"quality_mean": l.QualityMean,
		}
	}
	r.write(map[string]interface{}{
		"type":      "bdrate_summary",
		"workbook":  summary.Workbook,
		"lines":     lines,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) Warning(message string) {
	r.write(map[string]interface{}{
		"type":      "warning",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) Error(err ReporterError) {
	r.write(map[string]interface{}{
		"type":       "error",
		"title":      err.Title,
		"message":    err.Message,
		"context":    err.Context,
		"suggestion": err.Suggestion,
		"timestamp":  r.timestamp(),
	})
}

func (r *JSONReporter) OperationComplete(message string) {
	r.write(map[string]interface{}{
		"type":      "operation_complete",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) Verbose(message string) {
	r.write(map[string]interface{}{
		"type":      "verbose",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}
