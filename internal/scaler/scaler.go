// Package scaler produces down- and up-scaled variants of a clip with an
// external resampler.
package scaler

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/five82/avctc/internal/clip"
	"github.com/five82/avctc/internal/config"
	ctcerrors "github.com/five82/avctc/internal/errors"
	"github.com/five82/avctc/internal/logging"
	"github.com/five82/avctc/internal/runner"
)

// NoScaling is the algorithm name recorded when source and target sizes match.
const NoScaling = "None"

// ErrUnsupportedAlgo is returned for algorithm names no backend implements.
// Callers report it and continue.
var ErrUnsupportedAlgo = errors.New("unsupported scaling algorithm")

//go:embed HDRConvScalerY4MFile.cfg
var defaultTemplate []byte

var ffmpegAlgos = map[string]bool{
	"bicubic":  true,
	"lanczos":  true,
	"sinc":     true,
	"bilinear": true,
	"spline":   true,
	"gauss":    true,
	"bicublin": true,
	"neighbor": true,
}

// ValidAlgo reports whether algo is one of the ffmpeg scale filter names.
func ValidAlgo(algo string) bool {
	return ffmpegAlgos[algo]
}

// Scaler runs the configured resampling backend.
type Scaler struct {
	fs       afero.Fs
	run      runner.Runner
	cmdLog   *logging.CmdLog
	backend  string
	ffmpeg   string
	hdrconv  string
	template string
	cfgDir   string
}

// New creates a scaler writing generated config files to cfgDir.
func New(fs afero.Fs, run runner.Runner, cmdLog *logging.CmdLog, cfg *config.Config, cfgDir string) *Scaler {
	return &Scaler{
		fs:       fs,
		run:      run,
		cmdLog:   cmdLog,
		backend:  cfg.ScalerBackend,
		ffmpeg:   cfg.FFmpegPath,
		hdrconv:  cfg.HDRConvertPath,
		template: cfg.HDRToolsTemplate,
		cfgDir:   cfgDir,
	}
}

// ScaledPath returns the output path of c scaled to w x h. A same-size target
// is named with NoScaling whatever algo is requested.
func ScaledPath(c clip.Clip, w, h int, dir, algo string) string {
	if c.Width == w && c.Height == h {
		algo = NoScaling
	}
	name := fmt.Sprintf("%s_Scaled_%s_%dx%d.y4m", c.BaseName(), algo, w, h)
	return filepath.Join(dir, name)
}

// DownScaledPath returns the downscaling output path.
func DownScaledPath(c clip.Clip, w, h int, dir, algo string) string {
	return ScaledPath(c, w, h, dir, algo)
}

// UpScaledPath returns the upscaling output path.
func UpScaledPath(c clip.Clip, w, h int, dir, algo string) string {
	return ScaledPath(c, w, h, dir, algo)
}

// DownScaling scales c down to w x h and returns the output path.
func (s *Scaler) DownScaling(ctx context.Context, c clip.Clip, frames, w, h int, dir, algo string) (string, error) {
	out := DownScaledPath(c, w, h, dir, algo)
	s.cmdLog.Section("Downscaling")
	return out, s.scale(ctx, c, frames, w, h, out, algo)
}

// UpScaling scales c up to w x h and returns the output path.
func (s *Scaler) UpScaling(ctx context.Context, c clip.Clip, frames, w, h int, dir, algo string) (string, error) {
	out := UpScaledPath(c, w, h, dir, algo)
	s.cmdLog.Section("Upscaling")
	return out, s.scale(ctx, c, frames, w, h, out, algo)
}

func (s *Scaler) scale(ctx context.Context, c clip.Clip, frames, w, h int, out, algo string) error {
	if c.Width == w && c.Height == h {
		return s.run.Copy(ctx, c.FilePath, out)
	}
	return s.Rescale(ctx, c, w, h, out, algo, frames)
}

// Rescale resamples c into out with the configured backend.
func (s *Scaler) Rescale(ctx context.Context, c clip.Clip, w, h int, out, algo string, frames int) error {
	if !ValidAlgo(algo) {
		logging.Error("unsupported scaling algorithm", "algo", algo, "clip", c.FileName)
		return fmt.Errorf("%w: %s", ErrUnsupportedAlgo, algo)
	}

	if s.backend == "ffmpeg" {
		return s.run.Run(ctx, s.ffmpeg, FfmpegArgs(c, w, h, algo, out, frames)...)
	}

	cfgFile, err := s.GenerateCfgFile(c, w, h, algo, out, frames)
	if err != nil {
		return err
	}
	return s.run.Run(ctx, s.hdrconv, "-f", cfgFile)
}

// FfmpegArgs builds the ffmpeg rescale command line for 8-bit 4:2:0 input.
func FfmpegArgs(c clip.Clip, w, h int, algo, out string, frames int) []string {
	args := []string{
		"-y",
		"-s:v", fmt.Sprintf("%dx%d", c.Width, c.Height),
		"-i", c.FilePath,
		"-vf", fmt.Sprintf("scale=%dx%d", w, h),
		"-c:v", "rawvideo",
		"-pix_fmt", "yuv420p",
		"-sws_flags", algo + "+accurate_rnd+full_chroma_int+full_chroma_inp+bitexact+print_info",
		"-sws_dither", "none",
	}
	if algo == "lanczos" {
		args = append(args, "-param0", "5")
	}
	return append(args, "-frames", fmt.Sprintf("%d", frames), out)
}

// chromaFormat maps a pixel format to the HDRTools chroma format index.
func chromaFormat(format string) int {
	switch format {
	case "400":
		return 0
	case "422":
		return 2
	case "444":
		return 3
	default:
		return 1
	}
}

// GenerateCfgFile writes an HDRConvert config for scaling c to w x h and
// returns its path. The configured template is used when present, the built-in
// one otherwise.
func (s *Scaler) GenerateCfgFile(c clip.Clip, w, h int, algo, out string, frames int) (string, error) {
	tmpl, err := s.loadTemplate()
	if err != nil {
		return "", err
	}

	fps := fmt.Sprintf("%4.4f", c.FPS())
	fmtIdx := fmt.Sprintf("%d", chromaFormat(c.Format))
	depth := fmt.Sprintf("%d", c.BitDepth)
	subs := []struct{ key, value string }{
		{"SourceFile=", `"` + c.FilePath + `"`},
		{"OutputFile=", `"` + out + `"`},
		{"SourceWidth=", fmt.Sprintf("%d", c.Width)},
		{"SourceHeight=", fmt.Sprintf("%d", c.Height)},
		{"OutputWidth=", fmt.Sprintf("%d", w)},
		{"OutputHeight=", fmt.Sprintf("%d", h)},
		{"ScalingMode=", "3"},
		{"LanczosLobes=", "5"},
		{"SourceRate=", fps},
		{"SourceChromaFormat=", fmtIdx},
		{"SourceBitDepthCmp0=", depth},
		{"SourceBitDepthCmp1=", depth},
		{"SourceBitDepthCmp2=", depth},
		{"OutputRate=", fps},
		{"OutputChromaFormat=", fmtIdx},
		{"OutputBitDepthCmp0=", depth},
		{"OutputBitDepthCmp1=", depth},
		{"OutputBitDepthCmp2=", depth},
		{"NumberOfFrames=", fmt.Sprintf("%d", frames)},
	}

	var buf bytes.Buffer
	sc := bufio.NewScanner(bytes.NewReader(tmpl))
	for sc.Scan() {
		line := sc.Text()
		for _, sub := range subs {
			if strings.Contains(line, sub.key) {
				line = sub.key + sub.value
				break
			}
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return "", ctcerrors.NewScalingError("reading HDRTools template", err)
	}

	name := fmt.Sprintf("%s_Scaled_%s_%dx%d.cfg", c.BaseName(), algo, w, h)
	cfgFile := filepath.Join(s.cfgDir, name)
	if err := s.fs.MkdirAll(s.cfgDir, 0755); err != nil {
		return "", ctcerrors.NewIOError(fmt.Sprintf("creating %s", s.cfgDir), err)
	}
	if err := afero.WriteFile(s.fs, cfgFile, buf.Bytes(), 0644); err != nil {
		return "", ctcerrors.NewIOError(fmt.Sprintf("writing %s", cfgFile), err)
	}
	return cfgFile, nil
}

func (s *Scaler) loadTemplate() ([]byte, error) {
	if s.template == "" {
		return defaultTemplate, nil
	}
	data, err := afero.ReadFile(s.fs, s.template)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("HDRTools template not found, using built-in", "path", s.template)
			return defaultTemplate, nil
		}
		return nil, ctcerrors.NewScalingError(fmt.Sprintf("reading template %s", s.template), err)
	}
	return data, nil
}
