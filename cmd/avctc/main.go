// Package main provides the CLI entry point for avctc.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/five82/avctc"
	"github.com/five82/avctc/internal/config"
	ctcerrors "github.com/five82/avctc/internal/errors"
	"github.com/five82/avctc/internal/logging"
	"github.com/five82/avctc/internal/reporter"
	"github.com/five82/avctc/internal/util"
	"github.com/five82/avctc/internal/workspace"
)

const (
	appName    = "avctc"
	appVersion = "0.1.0"
)

// runArgs holds the flags shared by every mode.
type runArgs struct {
	configPath  string
	workPath    string
	contentPath string
	clipList    string
	mode        string
	preset      string
	saveMemory  bool
	cmdOnly     bool
	logLevel    int
	jsonOutput  bool
	skipMissing bool
	excelBDRate bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var ra runArgs

	root := &cobra.Command{
		Use:   appName,
		Short: "AV1 common test condition encode and convex hull harness",
		Long: `avctc drives aomenc, aomdec, a resampler (HDRConvert or ffmpeg) and a
quality tool (vmaf) over a test matrix of clips, test configurations, QPs and
scaling ratios, and summarizes the results into CSV files and workbooks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ra.mode == "" {
				return cmd.Help()
			}
			mode, err := avctc.ParseMode(ra.mode)
			if err != nil {
				return err
			}
			return execute(cmd, ra, mode)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&ra.configPath, "config", "", "YAML configuration file")
	pf.StringVarP(&ra.workPath, "work-path", "w", "work", "Work folder holding every generated artifact")
	pf.StringVar(&ra.contentPath, "content-path", "", "Folder with one sub-folder of y4m clips per content class")
	pf.StringVar(&ra.clipList, "clip-list", "", "YAML clip list used instead of scanning the content path")
	pf.StringVarP(&ra.preset, "preset", "p", config.DefaultEncodePreset, "Encoder preset (aomenc --cpu-used)")
	pf.BoolVarP(&ra.saveMemory, "save-memory", "s", false, "Delete decoded files once their quality is measured")
	pf.BoolVar(&ra.cmdOnly, "cmd-only", false, "Only write the command log, run no tool")
	pf.IntVarP(&ra.logLevel, "log-level", "l", config.DefaultLogLevel, "Log level: 0 none, 1 critical, 2 error, 3 warning, 4 info, 5 debug")
	pf.BoolVar(&ra.jsonOutput, "json", false, "Emit NDJSON progress events instead of terminal output")
	pf.BoolVar(&ra.skipMissing, "skip-missing", false, "Aggregate: skip contents without a result workbook instead of failing")
	pf.BoolVar(&ra.excelBDRate, "excel-bdrate", false, "Aggregate: compute BD-rates with workbook formulas and the VBA macro (xlsm)")
	root.Flags().StringVarP(&ra.mode, "mode", "f", "", "Run mode: clean, encode, summary, convexhull or aggregate")

	modes := []struct {
		mode  avctc.Mode
		short string
	}{
		{avctc.ModeClean, "Empty the generated artifact folders"},
		{avctc.ModeEncode, "Encode, decode and measure every clip at every QP"},
		{avctc.ModeSummary, "Export the encode sweep results to RD result CSV files"},
		{avctc.ModeConvexHull, "Run the scaling sweep and write per-content convex hull workbooks"},
		{avctc.ModeAggregate, "Write the cross-content RD summary and convex hull data workbooks"},
	}
	for _, m := range modes {
		mode := m.mode
		sub := &cobra.Command{
			Use:   string(mode),
			Short: m.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return execute(cmd, ra, mode)
			},
		}
		root.AddCommand(sub)
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(*cobra.Command, []string) {
			fmt.Printf("%s version %s\n", appName, appVersion)
		},
	})
	return root
}

// buildConfig applies, in order, defaults, the config file and the flags the
// user set explicitly.
func buildConfig(cmd *cobra.Command, ra runArgs) (*config.Config, error) {
	cfg, err := config.Load(ra.configPath, ra.workPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("work-path") {
		cfg.WorkPath = ra.workPath
	}
	if flags.Changed("content-path") {
		cfg.ContentPath = ra.contentPath
	}
	if flags.Changed("clip-list") {
		cfg.ClipListFile = ra.clipList
	}
	if flags.Changed("preset") {
		cfg.EncodePreset = ra.preset
	}
	if ra.skipMissing {
		cfg.SkipMissingResults = true
	}
	if ra.excelBDRate {
		cfg.CalcBDRateInExcel = true
	}
	cfg.SaveMemory = ra.saveMemory
	cfg.LogCmdOnly = ra.cmdOnly
	cfg.LogLevel = ra.logLevel

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func execute(cmd *cobra.Command, ra runArgs, mode avctc.Mode) error {
	cfg, err := buildConfig(cmd, ra)
	if err != nil {
		return err
	}

	ws := workspace.New(afero.NewOsFs(), cfg.WorkPath)
	if err := ws.Setup(); err != nil {
		return err
	}

	runLog, err := setupRunLog(mode, ws.TestLogs, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer func() { _ = runLog.Close() }()

	var cmdLog *logging.CmdLog
	if mode == avctc.ModeEncode || mode == avctc.ModeConvexHull {
		cmdLog, err = logging.OpenCmdLog(ws.TestLogs)
		if err != nil {
			return err
		}
		defer func() { _ = cmdLog.Close() }()
		runLog.Info("Command log: %s", cmdLog.FilePath())
	}

	var events io.Writer
	if mode != avctc.ModeClean {
		f, err := openEventLog(ws.TestLogs)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		events = f
		runLog.Info("Event log: %s", f.Name())
	}
	rep := newReporter(ra.jsonOutput, cfg.LogLevel >= 4, events)

	h, err := avctc.New(cfg, avctc.WithReporter(rep), avctc.WithCmdLog(cmdLog))
	if err != nil {
		return err
	}
	clips := 0
	if mode != avctc.ModeClean {
		if clips, err = h.Clips(); err != nil {
			return err
		}
	}

	sys := util.GetSystemInfo()
	rep.Hardware(reporter.HardwareSummary{Hostname: sys.Hostname, NumCPU: sys.NumCPU, OS: sys.OS, Arch: sys.Arch})
	rep.RunConfig(runConfigSummary(cfg, mode, clips))
	runLog.Info("Mode: %s", mode)
	runLog.Info("Log level: %s", logLevelName(cfg.LogLevel))
	runLog.Info("Work path: %s", cfg.WorkPath)
	runLog.Info("Encoder: %s preset %s", cfg.EncoderPath, cfg.EncodePreset)
	runLog.Info("QPs: %v", cfg.QPs)
	runLog.Info("Scaling ratios: %v", cfg.DnScaleRatio)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := h.Run(ctx, mode); err != nil {
		rep.Error(reporter.ReporterError{
			Title:      fmt.Sprintf("%s failed", mode),
			Message:    err.Error(),
			Context:    "work path " + cfg.WorkPath,
			Suggestion: suggestion(err),
		})
		runLog.Error("%s failed: %v", mode, err)
		return err
	}
	runLog.Info("%s finished", mode)
	return nil
}

// setupRunLog opens the run log file. Clean mode empties testLogs, so it
// logs to stderr only.
func setupRunLog(mode avctc.Mode, logDir string, level int) (*logging.RunLog, error) {
	if mode == avctc.ModeClean {
		logging.Init(level, os.Stderr)
		return nil, nil
	}
	return logging.Setup(logDir, level)
}

func openEventLog(logDir string) (*os.File, error) {
	path := filepath.Join(logDir, fmt.Sprintf("avctc_events_%s.ndjson", time.Now().Format("20060102_150405")))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log %s: %w", path, err)
	}
	return f, nil
}

// newReporter returns the JSON or terminal reporter. With events set every
// event is also written there as NDJSON.
func newReporter(jsonOutput, verbose bool, events io.Writer) reporter.Reporter {
	var rep reporter.Reporter
	if jsonOutput {
		rep = reporter.NewJSONReporter()
	} else {
		rep = reporter.NewTerminalReporter(verbose)
	}
	if events == nil {
		return rep
	}
	return reporter.NewCompositeReporter(rep, reporter.NewJSONReporterWithWriter(events))
}

func suggestion(err error) string {
	switch {
	case ctcerrors.IsResultNotFound(err):
		return "Run the convexhull mode for every clip first, or pass --skip-missing"
	case ctcerrors.IsKind(err, ctcerrors.KindCommand):
		return "Check the tool paths in the config and the command log in testLogs"
	}
	return ""
}

func runConfigSummary(cfg *config.Config, mode avctc.Mode, clips int) reporter.RunConfigSummary {
	testCfgs := make([]string, len(cfg.TestConfigurations))
	for i, tc := range cfg.TestConfigurations {
		testCfgs[i] = tc.String()
	}
	algos := make([]string, len(cfg.DnScaleAlgos))
	for i, dn := range cfg.DnScaleAlgos {
		algos[i] = dn + "--" + cfg.UpScaleAlgos[i]
	}
	return reporter.RunConfigSummary{
		Mode:        string(mode),
		WorkPath:    cfg.WorkPath,
		Encoder:     cfg.EncoderPath,
		Preset:      cfg.EncodePreset,
		TestConfigs: testCfgs,
		QPs:         cfg.QPs,
		ScaleRatios: cfg.DnScaleRatio,
		ScaleAlgos:  algos,
		Metrics:     cfg.QualityList,
		Clips:       clips,
		CmdOnly:     cfg.LogCmdOnly,
	}
}

// logLevelName names a 0-5 log level.
func logLevelName(level int) string {
	names := []string{"none", "critical", "error", "warning", "info", "debug"}
	if level < 0 || level >= len(names) {
		return strconv.Itoa(level)
	}
	return names[level]
}
