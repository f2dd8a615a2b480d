// Package ctc runs the common test condition encode sweep and exports its
// rate-distortion results.
package ctc

import (
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/five82/avctc/internal/clip"
	"github.com/five82/avctc/internal/config"
	"github.com/five82/avctc/internal/encdec"
	ctcerrors "github.com/five82/avctc/internal/errors"
	"github.com/five82/avctc/internal/logging"
	"github.com/five82/avctc/internal/quality"
	"github.com/five82/avctc/internal/reporter"
	"github.com/five82/avctc/internal/runner"
	"github.com/five82/avctc/internal/util"
	"github.com/five82/avctc/internal/workspace"
)

// csvHeader holds the fixed leading columns of an RD result CSV.
var csvHeader = []string{
	"File", "Class", "Width", "Height", "TestCfg", "EncodeMethod",
	"CodecName", "EncodePreset", "QP", "Bitrate(kbps)",
}

// Tester drives encode, decode and quality measurement for every QP.
type Tester struct {
	cfg    *config.Config
	ws     *workspace.Workspace
	driver *encdec.Driver
	calc   *quality.Calculator
	cmdLog *logging.CmdLog
	rep    reporter.Reporter

	done, total int
}

// NewTester wires a tester to the workspace and runner.
func NewTester(cfg *config.Config, ws *workspace.Workspace, run runner.Runner, cmdLog *logging.CmdLog, rep reporter.Reporter) *Tester {
	if rep == nil {
		rep = reporter.NullReporter{}
	}
	return &Tester{
		cfg:    cfg,
		ws:     ws,
		driver: encdec.NewDriver(run, ws, cmdLog, cfg),
		calc:   quality.NewCalculator(run, ws, cmdLog, cfg.QualityToolPath),
		cmdLog: cmdLog,
		rep:    rep,
	}
}

// EncodeID returns the artifact naming key for a test configuration.
func (t *Tester) EncodeID(testCfg config.TestConfiguration, preset string) workspace.EncodeID {
	return workspace.EncodeID{
		Method:  t.cfg.EncodeMethod,
		Codec:   t.cfg.CodecName,
		Preset:  preset,
		TestCfg: testCfg,
	}
}

// RunEncodeSweep runs RunEncodeTest for every test configuration and clip.
func (t *Tester) RunEncodeSweep(ctx context.Context, clips []clip.Clip) error {
	start := time.Now()
	t.done = 0
	t.total = len(t.cfg.TestConfigurations) * len(clips) * len(t.cfg.QPs)
	t.rep.SweepStarted(reporter.SweepStartInfo{Name: "Encode", TotalJobs: t.total})

	for _, testCfg := range t.cfg.TestConfigurations {
		for _, c := range clips {
			if err := t.RunEncodeTest(ctx, testCfg, c, t.cfg.EncodePreset); err != nil {
				return err
			}
		}
	}

	t.rep.SweepComplete(reporter.SweepSummary{
		Name:     "Encode",
		Jobs:     t.done,
		Duration: time.Since(start),
	})
	return nil
}

// RunEncodeTest encodes, decodes and measures c at every QP.
func (t *Tester) RunEncodeTest(ctx context.Context, testCfg config.TestConfiguration, c clip.Clip, preset string) error {
	logging.Info("start running encode tests", "test_cfg", testCfg, "clip", c.FileName)
	id := t.EncodeID(testCfg, preset)

	for _, qp := range t.cfg.QPs {
		if err := ctx.Err(); err != nil {
			return ctcerrors.NewCancelledError()
		}
		logging.Info("start encode", "qp", qp)
		t.cmdLog.JobStart()

		bs, err := t.driver.Encode(ctx, id, c, qp, t.cfg.FrameNum)
		if err != nil {
			return err
		}
		logging.Info("start decode", "bitstream", bs)
		dec, err := t.driver.Decode(ctx, id, c, qp)
		if err != nil {
			return err
		}

		logging.Info("start quality metric calculation")
		if _, err := t.calc.Calculate(ctx, c, dec, t.cfg.FrameNum); err != nil {
			return err
		}
		if t.cfg.SaveMemory {
			if err := t.ws.CleanDecoded(); err != nil {
				return ctcerrors.NewIOError("cleaning decoded files", err)
			}
		}

		logging.Info("finish running encode", "qp", qp)
		t.cmdLog.JobEnd()

		t.done++
		if t.total > 0 {
			t.rep.JobProgress(reporter.JobProgress{
				Completed: t.done,
				Total:     t.total,
				Content:   c.ShortName(),
				TestCfg:   string(testCfg),
				QP:        qp,
			})
		}
	}
	return nil
}

// Bitrate returns the average bitrate in kbps of a bitstream of size bytes
// holding frames frames at fpsNum/fpsDenom.
func Bitrate(size uint64, fpsNum, fpsDenom, frames int) float64 {
	return float64(size) * 8 * (float64(fpsNum) / float64(fpsDenom)) / float64(frames) / 1000.0
}

// GenerateSummaryRDDataFile writes one CSV row per clip and QP with the
// bitrate and every configured quality metric. It returns the CSV path.
func (t *Tester) GenerateSummaryRDDataFile(method, codec, preset string, testCfg config.TestConfiguration, clips []clip.Clip) (string, error) {
	logging.Info("start saving RD results to csv file")
	fs := t.ws.Fs()
	if err := fs.MkdirAll(t.ws.RDResults, 0755); err != nil {
		return "", ctcerrors.NewIOError("creating RD results folder", err)
	}

	id := workspace.EncodeID{Method: method, Codec: codec, Preset: preset, TestCfg: testCfg}
	path := t.ws.RDResultCSVPath(id)

	records := [][]string{append(append([]string(nil), csvHeader...), t.cfg.QualityList...)}
	for _, c := range clips {
		for _, qp := range t.cfg.QPs {
			size, err := util.FileSize(fs, t.ws.BitstreamPath(id, c, qp))
			if err != nil {
				return "", ctcerrors.NewIOError(fmt.Sprintf("bitstream of %s at QP %d", c.FileName, qp), err)
			}
			metrics, err := t.calc.Gather(t.ws.DecodedPath(id, c, qp), t.cfg.QualityList)
			if err != nil {
				return "", err
			}

			row := []string{
				c.FileName, c.Class,
				fmt.Sprintf("%d", c.Width), fmt.Sprintf("%d", c.Height),
				string(testCfg), method, codec, preset,
				fmt.Sprintf("%d", qp),
				fmt.Sprintf("%.4f", Bitrate(size, c.FPSNum, c.FPSDenom, t.cfg.FrameNum)),
			}
			for _, v := range metrics {
				row = append(row, fmt.Sprintf("%.4f", v))
			}
			records = append(records, row)
		}
	}

	f, err := fs.Create(path)
	if err != nil {
		return "", ctcerrors.NewIOError(fmt.Sprintf("creating %s", path), err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		_ = f.Close()
		return "", ctcerrors.NewIOError(fmt.Sprintf("writing %s", path), err)
	}
	if err := f.Close(); err != nil {
		return "", ctcerrors.NewIOError(fmt.Sprintf("closing %s", path), err)
	}

	logging.Info("finish export RD results to file", "path", path)
	return path, nil
}
