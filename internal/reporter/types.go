// Package reporter provides progress reporting interfaces and implementations.
package reporter

import "time"

// HardwareSummary contains hardware information.
type HardwareSummary struct {
	Hostname string
	NumCPU   int
	OS       string
	Arch     string
}

// RunConfigSummary describes the test conditions of a run.
type RunConfigSummary struct {
	Mode        string
	WorkPath    string
	Encoder     string
	Preset      string
	TestConfigs []string
	QPs         []int
	ScaleRatios []float64
	ScaleAlgos  []string
	Metrics     []string
	Clips       int
	CmdOnly     bool
}

// SweepStartInfo announces a sweep of external tool jobs.
type SweepStartInfo struct {
	Name      string
	TotalJobs int
}

// JobProgress reports a finished job within a sweep.
type JobProgress struct {
	Completed  int
	Total      int
	Content    string
	TestCfg    string
	QP         int
	Resolution string
}

// SweepSummary contains sweep completion information.
type SweepSummary struct {
	Name     string
	Jobs     int
	Skipped  int
	Duration time.Duration
	Outputs  []string
}

// BDRateSummary contains per-algorithm BD-rate statistics across contents.
type BDRateSummary struct {
	Workbook string
	Lines    []BDRateLine
}

// BDRateLine is the spread of one metric's BD-rate at one scaling ratio.
type BDRateLine struct {
	Algo     string
	Ratio    float64
	Metric   string
	Contents int
	Mean     float64
	Median   float64
	Min      float64
	Max      float64
	// QualityMean is the mean quality delta at equal rate, in metric units.
	QualityMean float64
}

// ReporterError contains error information.
type ReporterError struct {
	Title      string
	Message    string
	Context    string
	Suggestion string
}

// StageProgress represents a generic stage update.
type StageProgress struct {
	Stage   string
	Percent float32
	Message string
	ETA     *time.Duration
}
