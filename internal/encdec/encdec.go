// Package encdec builds and runs the encoder and decoder command lines.
package encdec

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/five82/avctc/internal/clip"
	"github.com/five82/avctc/internal/config"
	"github.com/five82/avctc/internal/logging"
	"github.com/five82/avctc/internal/runner"
	"github.com/five82/avctc/internal/workspace"
)

// Driver encodes and decodes clips into the workspace.
type Driver struct {
	run     runner.Runner
	ws      *workspace.Workspace
	cmdLog  *logging.CmdLog
	encoder string
	decoder string
}

// NewDriver creates a driver using the configured encoder and decoder.
func NewDriver(run runner.Runner, ws *workspace.Workspace, cmdLog *logging.CmdLog, cfg *config.Config) *Driver {
	return &Driver{
		run:     run,
		ws:      ws,
		cmdLog:  cmdLog,
		encoder: cfg.EncoderPath,
		decoder: cfg.DecoderPath,
	}
}

// EncodeArgs builds the aomenc command line for one QP.
func EncodeArgs(c clip.Clip, testCfg config.TestConfiguration, preset string, qp, frames int, out string) []string {
	args := []string{
		"--codec=av1",
		"--ivf",
		"--passes=1",
		"--cpu-used=" + preset,
		fmt.Sprintf("--limit=%d", frames),
		fmt.Sprintf("--fps=%d/%d", c.FPSNum, c.FPSDenom),
		"--threads=1",
		"--tile-columns=0",
		"--end-usage=q",
		fmt.Sprintf("--cq-level=%d", qp),
	}

	switch testCfg {
	case config.TestCfgLD:
		args = append(args, "--lag-in-frames=0", "--auto-alt-ref=0", "--min-gf-interval=16", "--max-gf-interval=16")
	case config.TestCfgAI:
		args = append(args, "--kf-max-dist=0", "--lag-in-frames=0")
	default:
		args = append(args, "--lag-in-frames=19", "--auto-alt-ref=1")
	}

	if !strings.EqualFold(filepath.Ext(c.FilePath), ".y4m") {
		args = append(args,
			fmt.Sprintf("--width=%d", c.Width),
			fmt.Sprintf("--height=%d", c.Height),
			rawFormatFlag(c.Format),
		)
	}
	if c.BitDepth > 8 {
		args = append(args,
			fmt.Sprintf("--input-bit-depth=%d", c.BitDepth),
			fmt.Sprintf("--bit-depth=%d", c.BitDepth),
		)
	}

	return append(args, "-o", out, c.FilePath)
}

func rawFormatFlag(format string) string {
	switch format {
	case "422":
		return "--i422"
	case "444":
		return "--i444"
	default:
		return "--i420"
	}
}

// DecodeArgs builds the aomdec command line writing a y4m reconstruction.
func DecodeArgs(bitDepth int, bs, out string) []string {
	args := []string{"--codec=av1", "--rawvideo=0"}
	if bitDepth > 8 {
		args = append(args, fmt.Sprintf("--output-bit-depth=%d", bitDepth))
	}
	return append(args, "-o", out, bs)
}

// Encode encodes c at qp and returns the bitstream path.
func (d *Driver) Encode(ctx context.Context, id workspace.EncodeID, c clip.Clip, qp, frames int) (string, error) {
	bs := d.ws.BitstreamPath(id, c, qp)
	d.cmdLog.Section("Encoding")
	if err := d.run.Run(ctx, d.encoder, EncodeArgs(c, id.TestCfg, id.Preset, qp, frames, bs)...); err != nil {
		return "", err
	}
	return bs, nil
}

// Decode decodes the bitstream of c at qp and returns the reconstruction path.
func (d *Driver) Decode(ctx context.Context, id workspace.EncodeID, c clip.Clip, qp int) (string, error) {
	bs := d.ws.BitstreamPath(id, c, qp)
	dec := d.ws.DecodedPath(id, c, qp)
	d.cmdLog.Section("Decoding")
	if err := d.run.Run(ctx, d.decoder, DecodeArgs(c.BitDepth, bs, dec)...); err != nil {
		return "", err
	}
	return dec, nil
}
