package convexhull

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/five82/avctc/internal/clip"
	"github.com/five82/avctc/internal/config"
	"github.com/five82/avctc/internal/ctc"
	"github.com/five82/avctc/internal/encdec"
	ctcerrors "github.com/five82/avctc/internal/errors"
	"github.com/five82/avctc/internal/logging"
	"github.com/five82/avctc/internal/quality"
	"github.com/five82/avctc/internal/reporter"
	"github.com/five82/avctc/internal/runner"
	"github.com/five82/avctc/internal/scaler"
	"github.com/five82/avctc/internal/util"
	"github.com/five82/avctc/internal/workspace"
)

// Tester runs the scaling sweep of every content.
type Tester struct {
	cfg    *config.Config
	ws     *workspace.Workspace
	scaler *scaler.Scaler
	driver *encdec.Driver
	calc   *quality.Calculator
	cmdLog *logging.CmdLog
	rep    reporter.Reporter

	// points already measured in this run, keyed by upscaled path
	measured    map[string]RDPoint
	done, total int
}

// NewTester wires a convex hull tester to the workspace and runner.
func NewTester(cfg *config.Config, ws *workspace.Workspace, run runner.Runner, cmdLog *logging.CmdLog, rep reporter.Reporter) *Tester {
	if rep == nil {
		rep = reporter.NullReporter{}
	}
	return &Tester{
		cfg:      cfg,
		ws:       ws,
		scaler:   scaler.New(ws.Fs(), run, cmdLog, cfg, ws.CfgFiles),
		driver:   encdec.NewDriver(run, ws, cmdLog, cfg),
		calc:     quality.NewCalculator(run, ws, cmdLog, cfg.QualityToolPath),
		cmdLog:   cmdLog,
		rep:      rep,
		measured: make(map[string]RDPoint),
	}
}

// ScaledSize returns the downscaled size of w x h at ratio, rounded down to
// even dimensions for chroma subsampling.
func ScaledSize(w, h int, ratio float64) (int, int) {
	if ratio == 1.0 {
		return w, h
	}
	sw := int(float64(w)/ratio) / 2 * 2
	sh := int(float64(h)/ratio) / 2 * 2
	return sw, sh
}

// RunSweep runs RunContent for every clip and writes each content's result
// workbook. It returns the written paths.
func (t *Tester) RunSweep(ctx context.Context, testCfg config.TestConfiguration, clips []clip.Clip) ([]string, error) {
	start := time.Now()
	t.done = 0
	t.total = len(clips) * len(t.cfg.DnScaleAlgos) * len(t.cfg.DnScaleRatio) * len(t.cfg.QPs)
	t.rep.SweepStarted(reporter.SweepStartInfo{Name: "ConvexHull", TotalJobs: t.total})

	id := t.EncodeID(testCfg)
	var outputs []string
	skipped := 0
	for _, c := range clips {
		results, err := t.RunContent(ctx, testCfg, c)
		if err != nil {
			return outputs, err
		}
		if t.cfg.LogCmdOnly {
			continue
		}
		if len(results) == 0 {
			skipped++
			t.rep.Warning("no scaling algorithm pair produced results for " + c.FileName)
			continue
		}
		path := t.ws.ContentResultPath(id, c)
		if err := WriteContentResult(t.ws.Fs(), path, t.cfg, results); err != nil {
			return outputs, err
		}
		outputs = append(outputs, path)
	}

	t.rep.SweepComplete(reporter.SweepSummary{
		Name:     "ConvexHull",
		Jobs:     t.done,
		Skipped:  skipped,
		Duration: time.Since(start),
		Outputs:  outputs,
	})
	return outputs, nil
}

// EncodeID returns the artifact naming key of the sweep.
func (t *Tester) EncodeID(testCfg config.TestConfiguration) workspace.EncodeID {
	return workspace.EncodeID{
		Method:  t.cfg.EncodeMethod,
		Codec:   t.cfg.CodecName,
		Preset:  t.cfg.EncodePreset,
		TestCfg: testCfg,
	}
}

// RunContent measures c at every scaling ratio and QP for each algorithm
// pair. Pairs naming an unsupported algorithm are reported and left out.
func (t *Tester) RunContent(ctx context.Context, testCfg config.TestConfiguration, c clip.Clip) ([]AlgoResult, error) {
	logging.Info("start convex hull test", "clip", c.FileName, "test_cfg", testCfg)
	var results []AlgoResult

	for i, dn := range t.cfg.DnScaleAlgos {
		up := t.cfg.UpScaleAlgos[i]
		before := t.done
		t.rep.Verbose(fmt.Sprintf("%s: %s", c.ShortName(), SheetName(dn, up)))
		r, err := t.runPair(ctx, testCfg, c, dn, up)
		if errors.Is(err, scaler.ErrUnsupportedAlgo) {
			logging.Warn("skipping scaling algorithm pair", "dn", dn, "up", up, "error", err)
			t.rep.Warning("skipping unsupported scaling algorithm pair " + SheetName(dn, up))
			t.done = before + len(t.cfg.DnScaleRatio)*len(t.cfg.QPs)
			continue
		}
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func (t *Tester) runPair(ctx context.Context, testCfg config.TestConfiguration, c clip.Clip, dn, up string) (AlgoResult, error) {
	id := t.EncodeID(testCfg)
	res := AlgoResult{DnAlgo: dn, UpAlgo: up, Points: make([][]RDPoint, len(t.cfg.DnScaleRatio))}

	for i, ratio := range t.cfg.DnScaleRatio {
		if err := ctx.Err(); err != nil {
			return res, ctcerrors.NewCancelledError()
		}
		w, h := ScaledSize(c.Width, c.Height, ratio)
		logging.Info("start downscaling", "ratio", ratio, "width", w, "height", h, "algo", dn)
		dnPath, err := t.scaler.DownScaling(ctx, c, t.cfg.FrameNum, w, h, t.ws.ScaledYUVs, dn)
		if err != nil {
			return res, err
		}
		scaled := c
		scaled.FilePath = dnPath
		scaled.FileName = filepath.Base(dnPath)
		scaled.Width, scaled.Height = w, h

		for _, qp := range t.cfg.QPs {
			p, err := t.measure(ctx, id, c, scaled, up, ratio, qp)
			if err != nil {
				return res, err
			}
			res.Points[i] = append(res.Points[i], p)

			t.done++
			t.rep.JobProgress(reporter.JobProgress{
				Completed:  t.done,
				Total:      t.total,
				Content:    c.ShortName(),
				TestCfg:    string(testCfg),
				QP:         qp,
				Resolution: p.Resolution(),
			})
		}
	}
	return res, nil
}

// measure encodes scaled at qp, upscales the reconstruction back to the size
// of src and measures it against src.
func (t *Tester) measure(ctx context.Context, id workspace.EncodeID, src, scaled clip.Clip, up string, ratio float64, qp int) (RDPoint, error) {
	decPath := t.ws.DecodedPath(id, scaled, qp)
	decoded := scaled
	decoded.FilePath = decPath
	decoded.FileName = filepath.Base(decPath)
	upPath := scaler.UpScaledPath(decoded, src.Width, src.Height, t.ws.DecodedYUVs, up)
	if p, ok := t.measured[upPath]; ok {
		return p, nil
	}

	p := RDPoint{Ratio: ratio, Width: scaled.Width, Height: scaled.Height, QP: qp}
	if err := ctx.Err(); err != nil {
		return p, ctcerrors.NewCancelledError()
	}
	t.cmdLog.JobStart()
	defer t.cmdLog.JobEnd()

	bs, err := t.driver.Encode(ctx, id, scaled, qp, t.cfg.FrameNum)
	if err != nil {
		return p, err
	}
	if _, err := t.driver.Decode(ctx, id, scaled, qp); err != nil {
		return p, err
	}
	if _, err := t.scaler.UpScaling(ctx, decoded, t.cfg.FrameNum, src.Width, src.Height, t.ws.DecodedYUVs, up); err != nil {
		return p, err
	}
	if _, err := t.calc.Calculate(ctx, src, upPath, t.cfg.FrameNum); err != nil {
		return p, err
	}
	if t.cfg.LogCmdOnly {
		return p, nil
	}

	size, err := util.FileSize(t.ws.Fs(), bs)
	if err != nil {
		return p, ctcerrors.NewIOError("reading bitstream size", err)
	}
	p.Bitrate = ctc.Bitrate(size, scaled.FPSNum, scaled.FPSDenom, t.cfg.FrameNum)
	logging.Debug("measured point", "resolution", p.Resolution(), "qp", qp, "size", util.FormatBytes(size), "kbps", p.Bitrate)
	if p.Quality, err = t.calc.Gather(upPath, t.cfg.QualityList); err != nil {
		return p, err
	}
	if t.cfg.SaveMemory {
		if err := t.ws.CleanDecoded(); err != nil {
			return p, ctcerrors.NewIOError("cleaning decoded files", err)
		}
	}

	t.measured[upPath] = p
	return p, nil
}
