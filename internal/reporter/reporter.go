package reporter

// Reporter defines the interface for progress reporting.
type Reporter interface {
	Hardware(summary HardwareSummary)
	RunConfig(summary RunConfigSummary)
	StageProgress(update StageProgress)
	SweepStarted(info SweepStartInfo)
	JobProgress(progress JobProgress)
	SweepComplete(summary SweepSummary)
	BDRateSummary(summary BDRateSummary)
	Warning(message string)
	Error(err ReporterError)
	OperationComplete(message string)
	Verbose(message string)
}

// NullReporter is a no-op reporter that discards all updates.
type NullReporter struct{}

func (NullReporter) Hardware(HardwareSummary)    {}
func (NullReporter) RunConfig(RunConfigSummary)  {}
func (NullReporter) StageProgress(StageProgress) {}
func (NullReporter) SweepStarted(SweepStartInfo) {}
func (NullReporter) JobProgress(JobProgress)     {}
func (NullReporter) SweepComplete(SweepSummary)  {}
func (NullReporter) BDRateSummary(BDRateSummary) {}
func (NullReporter) Warning(string)              {}
func (NullReporter) Error(ReporterError)         {}
func (NullReporter) OperationComplete(string)    {}
func (NullReporter) Verbose(string)              {}
