// Package quality runs the external quality metric tool and reads back its
// pooled results.
package quality

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/spf13/afero"

	"github.com/five82/avctc/internal/clip"
	ctcerrors "github.com/five82/avctc/internal/errors"
	"github.com/five82/avctc/internal/logging"
	"github.com/five82/avctc/internal/runner"
	"github.com/five82/avctc/internal/workspace"
)

// ErrUnknownMetric is returned for metric names the quality log cannot provide.
var ErrUnknownMetric = errors.New("unknown quality metric")

// maxSSIMdB caps the dB value of a perfect SSIM score.
const maxSSIMdB = 100.0

type metricSource struct {
	key string
	dB  bool
}

// metricSources maps report column names to pooled metric keys.
var metricSources = map[string]metricSource{
	"PSNR_Y":        {key: "psnr_y"},
	"PSNR_U":        {key: "psnr_cb"},
	"PSNR_V":        {key: "psnr_cr"},
	"SSIM_Y":        {key: "float_ssim"},
	"SSIM_Y(dB)":    {key: "float_ssim", dB: true},
	"MS-SSIM_Y":     {key: "float_ms_ssim"},
	"MS-SSIM_Y(dB)": {key: "float_ms_ssim", dB: true},
	"VMAF_Y":        {key: "vmaf"},
	"VMAF_Y-NEG":    {key: "vmaf_neg"},
}

// ValidMetric reports whether name can be gathered from a quality log.
func ValidMetric(name string) bool {
	_, ok := metricSources[name]
	return ok
}

// Calculator runs the quality tool for decoded outputs.
type Calculator struct {
	run    runner.Runner
	ws     *workspace.Workspace
	cmdLog *logging.CmdLog
	tool   string
}

// NewCalculator creates a calculator writing logs into the workspace.
func NewCalculator(run runner.Runner, ws *workspace.Workspace, cmdLog *logging.CmdLog, tool string) *Calculator {
	return &Calculator{run: run, ws: ws, cmdLog: cmdLog, tool: tool}
}

// Args builds the quality tool command line comparing dec against src.
func Args(src clip.Clip, dec string, frames int, logPath string) []string {
	return []string{
		"--reference", src.FilePath,
		"--distorted", dec,
		"--width", fmt.Sprintf("%d", src.Width),
		"--height", fmt.Sprintf("%d", src.Height),
		"--pixel_format", src.Format,
		"--bitdepth", fmt.Sprintf("%d", src.BitDepth),
		"--frame_cnt", fmt.Sprintf("%d", frames),
		"--feature", "psnr",
		"--feature", "float_ssim",
		"--feature", "float_ms_ssim",
		"--model", "version=vmaf_v0.6.1:name=vmaf",
		"--model", "version=vmaf_v0.6.1neg:name=vmaf_neg",
		"--json",
		"--output", logPath,
	}
}

// Calculate measures dec against src and returns the log path.
func (c *Calculator) Calculate(ctx context.Context, src clip.Clip, dec string, frames int) (string, error) {
	logPath := c.ws.QualityLogPath(dec)
	c.cmdLog.Section("Quality Metrics Calculation")
	if err := c.run.Run(ctx, c.tool, Args(src, dec, frames, logPath)...); err != nil {
		return "", err
	}
	return logPath, nil
}

// Gather returns the pooled metrics of dec in the order of metrics.
func (c *Calculator) Gather(dec string, metrics []string) ([]float64, error) {
	return Gather(c.ws.Fs(), c.ws.QualityLogPath(dec), metrics)
}

type pooled struct {
	Mean float64 `json:"mean"`
}

type vmafLog struct {
	PooledMetrics map[string]pooled `json:"pooled_metrics"`
}

// Gather reads the quality log at logPath and returns the requested metrics in
// order. SSIM metrics named with a (dB) suffix are converted to decibels.
func Gather(fs afero.Fs, logPath string, metrics []string) ([]float64, error) {
	data, err := afero.ReadFile(fs, logPath)
	if err != nil {
		return nil, ctcerrors.NewQualityError(fmt.Sprintf("reading %s", logPath), err)
	}
	return parseLog(data, metrics)
}

func parseLog(data []byte, metrics []string) ([]float64, error) {
	var log vmafLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, ctcerrors.NewQualityError("failed to parse quality log", err)
	}

	values := make([]float64, len(metrics))
	for i, name := range metrics {
		src, ok := metricSources[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, name)
		}
		p, ok := log.PooledMetrics[src.key]
		if !ok {
			return nil, ctcerrors.NewQualityError(fmt.Sprintf("metric %s missing from log", src.key), nil)
		}
		if src.dB {
			values[i] = ssimToDB(p.Mean)
		} else {
			values[i] = p.Mean
		}
	}
	return values, nil
}

func ssimToDB(v float64) float64 {
	if v >= 1 {
		return maxSSIMdB
	}
	return math.Min(-10*math.Log10(1-v), maxSSIMdB)
}
