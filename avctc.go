// Package avctc runs AV1 common test condition sweeps with external encoder,
// decoder, resampler and quality tools, and aggregates the results into CSV
// files and rate-distortion summary workbooks.
//
// Basic usage:
//
//	cfg := avctc.NewConfig("work")
//	cfg.ContentPath = "/data/ctc"
//
//	h, err := avctc.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := h.Run(ctx, avctc.ModeEncode); err != nil {
//	    log.Fatal(err)
//	}
package avctc

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/five82/avctc/internal/clip"
	"github.com/five82/avctc/internal/config"
	"github.com/five82/avctc/internal/convexhull"
	"github.com/five82/avctc/internal/ctc"
	"github.com/five82/avctc/internal/logging"
	"github.com/five82/avctc/internal/quality"
	"github.com/five82/avctc/internal/reporter"
	"github.com/five82/avctc/internal/runner"
	"github.com/five82/avctc/internal/summary"
	"github.com/five82/avctc/internal/util"
	"github.com/five82/avctc/internal/workspace"
)

// Re-export configuration types
type (
	Config            = config.Config
	TestConfiguration = config.TestConfiguration
	Reporter          = reporter.Reporter
	Runner            = runner.Runner
)

const (
	TestCfgRA = config.TestCfgRA
	TestCfgLD = config.TestCfgLD
	TestCfgAI = config.TestCfgAI
)

// NewConfig returns the default configuration rooted at workPath.
func NewConfig(workPath string) *Config {
	return config.NewConfig(workPath)
}

// LoadConfig reads a YAML configuration over the defaults.
func LoadConfig(path, workPath string) (*Config, error) {
	return config.Load(path, workPath)
}

// Mode selects what a run does.
type Mode string

const (
	// ModeClean empties the generated artifact folders.
	ModeClean Mode = "clean"
	// ModeEncode runs the encode/decode/quality sweep.
	ModeEncode Mode = "encode"
	// ModeSummary exports the sweep results to CSV.
	ModeSummary Mode = "summary"
	// ModeConvexHull runs the per-content scaling sweep.
	ModeConvexHull Mode = "convexhull"
	// ModeAggregate writes the cross-content summary workbooks.
	ModeAggregate Mode = "aggregate"
)

// ParseMode parses a run mode, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(s)); m {
	case ModeClean, ModeEncode, ModeSummary, ModeConvexHull, ModeAggregate:
		return m, nil
	default:
		return "", fmt.Errorf("invalid run mode '%s', valid options: clean, encode, summary, convexhull, aggregate", s)
	}
}

// Harness runs the test modes over one work folder.
type Harness struct {
	cfg    *Config
	fs     afero.Fs
	ws     *workspace.Workspace
	run    Runner
	cmdLog *logging.CmdLog
	rep    Reporter

	clips []clip.Clip
}

// AggregateResult holds the workbooks written by Aggregate.
type AggregateResult struct {
	RDSummary      string
	ConvexHullData string
}

// Option configures the harness.
type Option func(*Harness)

// WithFs sets the file system holding contents and the work folder.
func WithFs(fs afero.Fs) Option {
	return func(h *Harness) {
		h.fs = fs
	}
}

// WithRunner sets how external tools are run.
func WithRunner(r Runner) Option {
	return func(h *Harness) {
		h.run = r
	}
}

// WithReporter sets the progress reporter.
func WithReporter(r Reporter) Option {
	return func(h *Harness) {
		h.rep = r
	}
}

// WithCmdLog sets the command log every tool invocation is recorded in.
func WithCmdLog(l *logging.CmdLog) Option {
	return func(h *Harness) {
		h.cmdLog = l
	}
}

// New validates cfg and creates a harness. Tools run through an os/exec
// executor on the OS file system unless options say otherwise.
func New(cfg *Config, opts ...Option) (*Harness, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, m := range cfg.QualityList {
		if !quality.ValidMetric(m) {
			return nil, fmt.Errorf("%w: %s", quality.ErrUnknownMetric, m)
		}
	}

	h := &Harness{cfg: cfg}
	for _, opt := range opts {
		opt(h)
	}
	if h.fs == nil {
		h.fs = afero.NewOsFs()
	}
	if h.run == nil {
		h.run = runner.NewExecutor(h.fs, h.cmdLog, cfg.LogCmdOnly)
	}
	if h.rep == nil {
		h.rep = reporter.NullReporter{}
	}
	h.ws = workspace.New(h.fs, cfg.WorkPath)
	return h, nil
}

// Run executes one mode.
func (h *Harness) Run(ctx context.Context, mode Mode) error {
	switch mode {
	case ModeClean:
		return h.Clean()
	case ModeEncode:
		return h.Encode(ctx)
	case ModeSummary:
		_, err := h.Summary()
		return err
	case ModeConvexHull:
		_, err := h.ConvexHull(ctx)
		return err
	case ModeAggregate:
		_, err := h.Aggregate()
		return err
	default:
		return fmt.Errorf("invalid run mode '%s'", mode)
	}
}

// Clips returns the number of clips the run covers, loading them on first use.
func (h *Harness) Clips() (int, error) {
	clips, err := h.loadClips()
	return len(clips), err
}

func (h *Harness) loadClips() ([]clip.Clip, error) {
	if h.clips != nil {
		return h.clips, nil
	}
	var (
		clips []clip.Clip
		err   error
	)
	if h.cfg.ClipListFile != "" {
		clips, err = clip.LoadClipList(h.fs, h.cfg.ClipListFile)
	} else {
		if !util.DirectoryExists(h.fs, h.cfg.ContentPath) {
			return nil, fmt.Errorf("content path %s does not exist", h.cfg.ContentPath)
		}
		clips, err = clip.CreateClipList(h.fs, h.cfg.ContentPath, h.cfg.ContentClasses)
	}
	if err != nil {
		return nil, err
	}
	if len(clips) == 0 {
		return nil, fmt.Errorf("no clips found in %s", h.cfg.ContentPath)
	}
	h.clips = clips
	return clips, nil
}

// Clean empties the generated artifact folders.
func (h *Harness) Clean() error {
	logging.Info("cleaning work folders", "path", h.cfg.WorkPath)
	if err := h.ws.Clean(); err != nil {
		return err
	}
	h.rep.OperationComplete("Work folders cleaned")
	return nil
}

// Encode runs the encode, decode and quality sweep of every test
// configuration and clip.
func (h *Harness) Encode(ctx context.Context) error {
	clips, err := h.loadClips()
	if err != nil {
		return err
	}
	if err := h.ws.Setup(); err != nil {
		return err
	}
	tester := ctc.NewTester(h.cfg, h.ws, h.run, h.cmdLog, h.rep)
	if err := tester.RunEncodeSweep(ctx, clips); err != nil {
		return err
	}
	return h.cleanIntermediate()
}

// cleanIntermediate drops decoded outputs and generated tool configs once a
// sweep has finished in save-memory mode.
func (h *Harness) cleanIntermediate() error {
	if !h.cfg.SaveMemory {
		return nil
	}
	logging.Info("removing intermediate files")
	return h.ws.CleanIntermediate()
}

// Summary writes one RD result CSV per test configuration and returns their
// paths.
func (h *Harness) Summary() ([]string, error) {
	clips, err := h.loadClips()
	if err != nil {
		return nil, err
	}
	tester := ctc.NewTester(h.cfg, h.ws, h.run, h.cmdLog, h.rep)

	var paths []string
	for _, testCfg := range h.cfg.TestConfigurations {
		path, err := tester.GenerateSummaryRDDataFile(h.cfg.EncodeMethod, h.cfg.CodecName, h.cfg.EncodePreset, testCfg, clips)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	h.rep.OperationComplete(fmt.Sprintf("%d RD result files written", len(paths)))
	return paths, nil
}

// ConvexHull runs the scaling sweep of every clip under the first test
// configuration and returns the per-content result workbooks.
func (h *Harness) ConvexHull(ctx context.Context) ([]string, error) {
	clips, err := h.loadClips()
	if err != nil {
		return nil, err
	}
	if err := h.ws.Setup(); err != nil {
		return nil, err
	}
	testCfg := config.TestCfgRA
	if len(h.cfg.TestConfigurations) > 0 {
		testCfg = h.cfg.TestConfigurations[0]
	}
	tester := convexhull.NewTester(h.cfg, h.ws, h.run, h.cmdLog, h.rep)
	paths, err := tester.RunSweep(ctx, testCfg, clips)
	if err != nil {
		return paths, err
	}
	return paths, h.cleanIntermediate()
}

// Aggregate writes the RD summary and convex hull data workbooks from the
// per-content results.
func (h *Harness) Aggregate() (*AggregateResult, error) {
	clips, err := h.loadClips()
	if err != nil {
		return nil, err
	}
	groups := clip.GroupByClass(clips)
	s := summary.New(h.fs, h.cfg, h.rep)

	h.rep.StageProgress(reporter.StageProgress{Stage: "Aggregate", Message: fmt.Sprintf("RD summary of %d clips", len(clips))})
	rd, err := s.GenerateRDSummary(h.cfg.EncodeMethod, h.cfg.CodecName, h.cfg.EncodePreset, h.ws.Summary, h.ws.ConvexHullResults, groups)
	if err != nil {
		return nil, err
	}
	h.rep.StageProgress(reporter.StageProgress{Stage: "Aggregate", Percent: 50, Message: "Convex hull data"})
	hull, err := s.GenerateConvexHullSummary(h.cfg.EncodeMethod, h.cfg.CodecName, h.cfg.EncodePreset, h.ws.Summary, h.ws.ConvexHullResults, groups)
	if err != nil {
		return nil, err
	}
	h.rep.OperationComplete("Summary workbooks written")
	return &AggregateResult{RDSummary: rd, ConvexHullData: hull}, nil
}
