package reporter

// CompositeReporter fans out events to multiple reporters.
type CompositeReporter struct {
	reporters []Reporter
}

// NewCompositeReporter creates a composite reporter.
func NewCompositeReporter(reporters ...Reporter) *CompositeReporter {
	return &CompositeReporter{reporters: reporters}
}

func (c *CompositeReporter) Hardware(summary HardwareSummary) {
	for _, r := range c.reporters {
		r.Hardware(summary)
	}
}

func (c *CompositeReporter) RunConfig(summary RunConfigSummary) {
	for _, r := range c.reporters {
		r.RunConfig(summary)
	}
}

func (c *CompositeReporter) StageProgress(update StageProgress) {
	for _, r := range c.reporters {
		r.StageProgress(update)
	}
}

func (c *CompositeReporter) SweepStarted(info SweepStartInfo) {
	for _, r := range c.reporters {
		r.SweepStarted(info)
	}
}

func (c *CompositeReporter) JobProgress(progress JobProgress) {
	for _, r := range c.reporters {
		r.JobProgress(progress)
	}
}

func (c *CompositeReporter) SweepComplete(summary SweepSummary) {
	for _, r := range c.reporters {
		r.SweepComplete(summary)
	}
}

func (c *CompositeReporter) BDRateSummary(summary BDRateSummary) {
	for _, r := range c.reporters {
		r.BDRateSummary(summary)
	}
}

func (c *CompositeReporter) Warning(message string) {
	for _, r := range c.reporters {
		r.Warning(message)
	}
}

func (c *CompositeReporter) Error(err ReporterError) {
	for _, r := range c.reporters {
		r.Error(err)
	}
}

func (c *CompositeReporter) OperationComplete(message string) {
	for _, r := range c.reporters {
		r.OperationComplete(message)
	}
}

func (c *CompositeReporter) Verbose(message string) {
	for _, r := range c.reporters {
		r.Verbose(message)
	}
}
