package avctc

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/five82/avctc/internal/quality"
	"github.com/five82/avctc/internal/runner"
	"github.com/five82/avctc/internal/util"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{input: "clean", want: ModeClean},
		{input: "Encode", want: ModeEncode},
		{input: "SUMMARY", want: ModeSummary},
		{input: "convexhull", want: ModeConvexHull},
		{input: "aggregate", want: ModeAggregate},
		{input: "decode", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := NewConfig("/work")
	cfg.QPs = nil
	if _, err := New(cfg); err == nil {
		t.Error("expected validation error for an empty QP sweep")
	}

	cfg = NewConfig("/work")
	cfg.QualityList = []string{"PSNR_Y", "BOGUS"}
	if _, err := New(cfg); !errors.Is(err, quality.ErrUnknownMetric) {
		t.Errorf("expected unknown metric error, got %v", err)
	}
}

func TestMissingContentPath(t *testing.T) {
	h, _ := newTestHarness(t, func(cfg *Config) {
		cfg.ContentPath = "/elsewhere"
	})
	if _, err := h.Clips(); err == nil {
		t.Error("expected an error for a missing content path")
	}
}

var qpInName = regexp.MustCompile(`_QP_(\d+)_`)

func argAfter(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

// fakeTools writes the outputs each external tool would create. Quality falls
// with QP and bitstreams shrink with it.
func fakeTools(fs afero.Fs) *runner.Recorder {
	return &runner.Recorder{OnRun: func(name string, args []string) error {
		switch name {
		case "copy", "ffmpeg":
			return afero.WriteFile(fs, args[len(args)-1], []byte("YUV4MPEG2"), 0644)
		case "aomenc":
			qp := 0
			for _, a := range args {
				if v, ok := strings.CutPrefix(a, "--cq-level="); ok {
					qp, _ = strconv.Atoi(v)
				}
			}
			return afero.WriteFile(fs, argAfter(args, "-o"), make([]byte, (64-qp)*100), 0644)
		case "aomdec":
			return afero.WriteFile(fs, argAfter(args, "-o"), []byte("YUV4MPEG2"), 0644)
		case "vmaf":
			m := qpInName.FindStringSubmatch(argAfter(args, "--distorted"))
			if m == nil {
				return fmt.Errorf("no QP in %v", args)
			}
			qp, _ := strconv.Atoi(m[1])
			log := fmt.Sprintf(`{"pooled_metrics":{"psnr_y":{"mean":%g}}}`, 50-float64(qp)/4)
			return afero.WriteFile(fs, argAfter(args, "--output"), []byte(log), 0644)
		}
		return nil
	}}
}

func newTestHarness(t *testing.T, mutate func(*Config)) (*Harness, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	header := "YUV4MPEG2 W64 H32 F30:1 Ip A1:1 C420jpeg\nFRAME\n"
	for _, p := range []string{"/content/A1/Foo_64x32.y4m", "/content/A1/Bar_64x32.y4m", "/content/B1/Baz_64x32.y4m"} {
		if err := afero.WriteFile(fs, p, []byte(header), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := NewConfig("/work")
	cfg.ContentPath = "/content"
	cfg.QPs = []int{23, 55}
	cfg.FrameNum = 10
	cfg.DnScaleRatio = []float64{1, 2}
	cfg.QualityList = []string{"PSNR_Y"}
	cfg.ScalerBackend = "ffmpeg"
	if mutate != nil {
		mutate(cfg)
	}

	h, err := New(cfg, WithFs(fs), WithRunner(fakeTools(fs)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return h, fs
}

func TestEncodeThenSummary(t *testing.T) {
	h, fs := newTestHarness(t, nil)
	ctx := context.Background()

	if n, err := h.Clips(); err != nil || n != 3 {
		t.Fatalf("Clips() = %d, %v", n, err)
	}
	if err := h.Run(ctx, ModeEncode); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	paths, err := h.Summary()
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if len(paths) != 1 || !util.FileExists(fs, paths[0]) {
		t.Errorf("expected one CSV, got %v", paths)
	}

	if err := h.Run(ctx, ModeClean); err != nil {
		t.Fatalf("clean failed: %v", err)
	}
	entries, _ := afero.ReadDir(fs, "/work/bistreams")
	if len(entries) != 0 {
		t.Errorf("bitstreams should be cleaned, found %d", len(entries))
	}
	if !util.FileExists(fs, paths[0]) {
		t.Error("RD results must survive cleaning")
	}
}

func TestConvexHullThenAggregate(t *testing.T) {
	h, fs := newTestHarness(t, nil)

	outputs, err := h.ConvexHull(context.Background())
	if err != nil {
		t.Fatalf("convex hull failed: %v", err)
	}
	if len(outputs) != 3 {
		t.Fatalf("expected 3 content workbooks, got %v", outputs)
	}

	res, err := h.Aggregate()
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if res.RDSummary != "/work/summary/ConvexHullRDSummary_ScaleAlgosNum_2_aom_av1_6.xlsx" {
		t.Errorf("unexpected RD summary %s", res.RDSummary)
	}
	if res.ConvexHullData != "/work/summary/ConvexHullData_ScaleAlgosNum_2_aom_av1_6.xlsx" {
		t.Errorf("unexpected convex hull data %s", res.ConvexHullData)
	}
	for _, p := range []string{res.RDSummary, res.ConvexHullData} {
		if !util.FileExists(fs, p) {
			t.Errorf("%s not written", p)
		}
	}
}

func TestAggregateWithoutResults(t *testing.T) {
	h, _ := newTestHarness(t, nil)
	if _, err := h.Aggregate(); err == nil {
		t.Error("expected an error when no result workbook exists")
	}
}
