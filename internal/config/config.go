// Package config provides configuration types and defaults for avctc.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default constants
const (
	// DefaultEncodeMethod names the encoder family used in file names.
	DefaultEncodeMethod = "aom"

	// DefaultCodecName names the codec used in file names.
	DefaultCodecName = "av1"

	// DefaultEncodePreset is the aomenc --cpu-used value.
	DefaultEncodePreset = "6"

	// DefaultFrameNum is the number of frames encoded per clip.
	DefaultFrameNum = 60

	// DefaultScalerBackend selects HDRTools for resampling.
	DefaultScalerBackend = "hdrtools"

	// MaxQP is the maximum valid aomenc --cq-level value.
	MaxQP = 63

	// MaxPreset is the maximum valid aomenc --cpu-used value.
	MaxPreset = 9

	// DefaultLogLevel is "warning" on the 0-5 scale.
	DefaultLogLevel = 3
)

// Workbook layout of each per-content convex hull result file. Column 0 holds the
// QP; each scaling ratio gets a bitrate column followed by one column per metric.
const (
	ContentStartRow    = 2
	ContentStartCol    = 1
	ContentColInterval = 2
)

// TestConfiguration is a named encoder test condition preset.
type TestConfiguration string

const (
	// TestCfgRA is random access.
	TestCfgRA TestConfiguration = "RA"
	// TestCfgLD is low delay.
	TestCfgLD TestConfiguration = "LD"
	// TestCfgAI is all intra.
	TestCfgAI TestConfiguration = "AI"
)

// ParseTestConfiguration parses a string into a TestConfiguration.
func ParseTestConfiguration(s string) (TestConfiguration, error) {
	switch strings.ToUpper(s) {
	case "RA":
		return TestCfgRA, nil
	case "LD":
		return TestCfgLD, nil
	case "AI":
		return TestCfgAI, nil
	default:
		return "", fmt.Errorf("%w: '%s', valid options: RA, LD, AI", ErrInvalidTestConfig, s)
	}
}

// String returns the string representation of the test configuration.
func (t TestConfiguration) String() string {
	return string(t)
}

// Config holds all configuration for a CTC run.
type Config struct {
	// Paths
	WorkPath         string `yaml:"work_path"`
	ContentPath      string `yaml:"content_path"`
	ClipListFile     string `yaml:"clip_list"`
	HDRToolsTemplate string `yaml:"hdrtools_template"`
	VbaBinFile       string `yaml:"vba_bin_file"`

	// External tools
	EncoderPath     string `yaml:"encoder"`
	DecoderPath     string `yaml:"decoder"`
	FFmpegPath      string `yaml:"ffmpeg"`
	HDRConvertPath  string `yaml:"hdrconvert"`
	QualityToolPath string `yaml:"quality_tool"`
	ScalerBackend   string `yaml:"scaler_backend"`

	// Test matrix
	EncodeMethod       string              `yaml:"encode_method"`
	CodecName          string              `yaml:"codec_name"`
	EncodePreset       string              `yaml:"encode_preset"`
	FrameNum           int                 `yaml:"frame_num"`
	ContentClasses     []string            `yaml:"content_classes"`
	TestConfigurations []TestConfiguration `yaml:"test_configurations"`
	QPs                []int               `yaml:"qps"`
	DnScaleRatio       []float64           `yaml:"dn_scale_ratio"`
	DnScaleAlgos       []string            `yaml:"dn_scale_algos"`
	UpScaleAlgos       []string            `yaml:"up_scale_algos"`
	QualityList        []string            `yaml:"quality_list"`

	// Summary options
	CalcBDRateInExcel  bool `yaml:"calc_bdrate_in_excel"`
	SkipMissingResults bool `yaml:"skip_missing_results"`

	// Run options (command line only)
	SaveMemory bool `yaml:"-"`
	LogCmdOnly bool `yaml:"-"`
	LogLevel   int  `yaml:"-"`
}

// DefaultQualityList is the ordered list of metrics reported for every result row.
var DefaultQualityList = []string{
	"PSNR_Y", "PSNR_U", "PSNR_V", "SSIM_Y(dB)", "MS-SSIM_Y(dB)", "VMAF_Y", "VMAF_Y-NEG",
}

// NewConfig creates a new Config with default values.
func NewConfig(workPath string) *Config {
	return &Config{
		WorkPath:           workPath,
		HDRToolsTemplate:   "HDRConvScalerY4MFile.cfg",
		VbaBinFile:         "vbaProject-AV2.bin",
		EncoderPath:        "aomenc",
		DecoderPath:        "aomdec",
		FFmpegPath:         "ffmpeg",
		HDRConvertPath:     "HDRConvert",
		QualityToolPath:    "vmaf",
		ScalerBackend:      DefaultScalerBackend,
		EncodeMethod:       DefaultEncodeMethod,
		CodecName:          DefaultCodecName,
		EncodePreset:       DefaultEncodePreset,
		FrameNum:           DefaultFrameNum,
		TestConfigurations: []TestConfiguration{TestCfgRA},
		QPs:                []int{23, 31, 39, 47, 55, 63},
		DnScaleRatio:       []float64{1.0, 1.5, 2.0, 3.0, 4.0, 6.0},
		DnScaleAlgos:       []string{"lanczos"},
		UpScaleAlgos:       []string{"lanczos"},
		QualityList:        append([]string(nil), DefaultQualityList...),
		LogLevel:           DefaultLogLevel,
	}
}

// Load reads config from a YAML file over the defaults. A missing file yields
// the defaults.
func Load(path, workPath string) (*Config, error) {
	cfg := NewConfig(workPath)
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if cfg.WorkPath == "" {
		cfg.WorkPath = workPath
	}
	if cfg.FrameNum == 0 {
		cfg.FrameNum = DefaultFrameNum
	}
	if cfg.ScalerBackend == "" {
		cfg.ScalerBackend = DefaultScalerBackend
	}

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if len(c.QPs) == 0 {
		return fmt.Errorf("%w: empty QP sweep", ErrInvalidQP)
	}
	for _, qp := range c.QPs {
		if qp < 0 || qp > MaxQP {
			return fmt.Errorf("%w: must be 0-%d, got %d", ErrInvalidQP, MaxQP, qp)
		}
	}

	if len(c.DnScaleRatio) == 0 || c.DnScaleRatio[0] != 1.0 {
		return fmt.Errorf("%w: first ratio must be the unscaled reference 1.0", ErrInvalidScaleRatio)
	}
	for _, r := range c.DnScaleRatio {
		if r < 1.0 {
			return fmt.Errorf("%w: ratio %.2f is an upscale", ErrInvalidScaleRatio, r)
		}
	}

	if len(c.QualityList) == 0 {
		return ErrNoQualityMetrics
	}

	if len(c.DnScaleAlgos) == 0 || len(c.DnScaleAlgos) != len(c.UpScaleAlgos) {
		return fmt.Errorf("%w: %d down vs %d up", ErrAlgoMismatch, len(c.DnScaleAlgos), len(c.UpScaleAlgos))
	}

	for _, tc := range c.TestConfigurations {
		if _, err := ParseTestConfiguration(string(tc)); err != nil {
			return err
		}
	}

	if c.FrameNum <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidFrameNum, c.FrameNum)
	}

	if c.EncodePreset != "" {
		p, err := strconv.Atoi(c.EncodePreset)
		if err != nil || p < 0 || p > MaxPreset {
			return fmt.Errorf("%w: must be 0-%d, got %q", ErrInvalidPreset, MaxPreset, c.EncodePreset)
		}
	}

	switch c.ScalerBackend {
	case "hdrtools", "ffmpeg":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.ScalerBackend)
	}

	return nil
}

// ContentLayout returns the layout of the per-content result workbooks.
func (c *Config) ContentLayout() ContentLayout {
	return ContentLayout{
		NumQPs:     len(c.QPs),
		NumRatios:  len(c.DnScaleRatio),
		NumMetrics: len(c.QualityList),
	}
}

// ContentLayout addresses cells of a per-content convex hull result sheet.
// Rows and columns are 0-based.
type ContentLayout struct {
	NumQPs     int
	NumRatios  int
	NumMetrics int
}

// WriteRows returns the row holding each QP's results.
func (l ContentLayout) WriteRows() []int {
	rows := make([]int, l.NumQPs)
	for i := range rows {
		rows[i] = ContentStartRow + i
	}
	return rows
}

// WriteCols returns the bitrate column of each scaling ratio block.
func (l ContentLayout) WriteCols() []int {
	step := ContentColInterval + 1 + l.NumMetrics
	cols := make([]int, l.NumRatios)
	for i := range cols {
		cols[i] = ContentStartCol + step*i
	}
	return cols
}

// LastCol returns the last column written in the QP rows.
func (l ContentLayout) LastCol() int {
	cols := l.WriteCols()
	return cols[len(cols)-1] + l.NumMetrics
}

// HullDataStartRow is the row holding the convex hull section title.
func (l ContentLayout) HullDataStartRow() int {
	return ContentStartRow + l.NumQPs + 1
}

// HullDataRows returns, per metric, the first of the four convex hull data rows
// (quality, bitrate, QP, resolution).
func (l ContentLayout) HullDataRows() []int {
	rows := make([]int, l.NumMetrics)
	for i := range rows {
		rows[i] = l.HullDataStartRow() + 1 + 4*i
	}
	return rows
}
