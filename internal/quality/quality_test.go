package quality

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/afero"

	"github.com/five82/avctc/internal/clip"
	"github.com/five82/avctc/internal/config"
	ctcerrors "github.com/five82/avctc/internal/errors"
	"github.com/five82/avctc/internal/runner"
	"github.com/five82/avctc/internal/workspace"
)

// loadTestData loads a fixture from the testdata directory.
func loadTestData(t *testing.T, filename string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", filename))
	if err != nil {
		t.Fatalf("failed to load test data %s: %v", filename, err)
	}
	return data
}

func TestParseLog(t *testing.T) {
	data := loadTestData(t, "vmaf_log.json")

	got, err := parseLog(data, config.DefaultQualityList)
	if err != nil {
		t.Fatalf("parseLog() error = %v", err)
	}

	want := []float64{40.125, 44.0, 45.2, 20.0, 30.0, 91.5, 90.1}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("metrics mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLogOrderFollowsRequest(t *testing.T) {
	data := loadTestData(t, "vmaf_log.json")
	got, err := parseLog(data, []string{"VMAF_Y", "PSNR_Y", "SSIM_Y"})
	if err != nil {
		t.Fatalf("parseLog() error = %v", err)
	}
	if diff := cmp.Diff([]float64{91.5, 40.125, 0.99}, got); diff != "" {
		t.Errorf("metrics mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLogErrors(t *testing.T) {
	data := loadTestData(t, "vmaf_log.json")

	if _, err := parseLog(data, []string{"BUTTERAUGLI"}); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("expected ErrUnknownMetric, got %v", err)
	}
	if _, err := parseLog([]byte(`{"pooled_metrics":{}}`), []string{"PSNR_Y"}); !ctcerrors.IsKind(err, ctcerrors.KindQuality) {
		t.Errorf("expected quality error for missing metric, got %v", err)
	}
	if _, err := parseLog([]byte("not json"), []string{"PSNR_Y"}); !ctcerrors.IsKind(err, ctcerrors.KindQuality) {
		t.Errorf("expected quality error for bad json, got %v", err)
	}
}

func TestSSIMToDB(t *testing.T) {
	if got := ssimToDB(0.9); math.Abs(got-10) > 1e-9 {
		t.Errorf("ssimToDB(0.9) = %v, want 10", got)
	}
	if got := ssimToDB(1); got != maxSSIMdB {
		t.Errorf("ssimToDB(1) = %v, want cap", got)
	}
}

func TestCalculateAndGather(t *testing.T) {
	fs := afero.NewMemMapFs()
	ws := workspace.New(fs, "/work")
	fixture := loadTestData(t, "vmaf_log.json")

	rec := &runner.Recorder{OnRun: func(name string, args []string) error {
		return afero.WriteFile(fs, args[len(args)-1], fixture, 0644)
	}}
	calc := NewCalculator(rec, ws, nil, "vmaf")

	src := clip.Clip{FilePath: "/c/A.y4m", FileName: "A.y4m", Format: "420", Width: 64, Height: 32, BitDepth: 8}
	dec := "/work/decodedYUVs/A_aom_av1_RA_Preset_6_QP_23_Decoded.y4m"

	logPath, err := calc.Calculate(context.Background(), src, dec, 10)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if logPath != "/work/qualityLogs/A_aom_av1_RA_Preset_6_QP_23_Decoded_quality.json" {
		t.Errorf("unexpected log path %s", logPath)
	}

	vals, err := calc.Gather(dec, []string{"PSNR_Y"})
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if vals[0] != 40.125 {
		t.Errorf("PSNR_Y = %v", vals[0])
	}
}

func TestArgsCarryGeometry(t *testing.T) {
	src := clip.Clip{FilePath: "/c/A.yuv", Format: "422", Width: 1280, Height: 720, BitDepth: 10}
	args := Args(src, "/d.y4m", 30, "/l.json")
	pairs := map[string]string{}
	for i := 0; i+1 < len(args); i++ {
		pairs[args[i]] = args[i+1]
	}
	for k, v := range map[string]string{"--width": "1280", "--height": "720", "--pixel_format": "422", "--bitdepth": "10", "--frame_cnt": "30", "--output": "/l.json"} {
		if pairs[k] != v {
			t.Errorf("%s = %q, want %q", k, pairs[k], v)
		}
	}
}
