package ctc

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/five82/avctc/internal/clip"
	"github.com/five82/avctc/internal/config"
	ctcerrors "github.com/five82/avctc/internal/errors"
	"github.com/five82/avctc/internal/runner"
	"github.com/five82/avctc/internal/workspace"
)

func TestBitrate(t *testing.T) {
	got := Bitrate(120000, 30000, 1001, 64)
	want := 120000.0 * 8 * (30000.0 / 1001.0) / 64 / 1000
	if got != want {
		t.Errorf("Bitrate() = %v, want %v", got, want)
	}
	if s := fmt.Sprintf("%.4f", got); s != "449.5504" {
		t.Errorf("formatted bitrate = %s, want 449.5504", s)
	}
}

const qualityLog = `{"pooled_metrics":{"psnr_y":{"mean":40.5},"vmaf":{"mean":95.25}}}`

// fakeTools returns a recorder that writes the outputs each tool would create.
func fakeTools(fs afero.Fs) *runner.Recorder {
	return &runner.Recorder{OnRun: func(name string, args []string) error {
		out := ""
		for i := 0; i+1 < len(args); i++ {
			if args[i] == "-o" || args[i] == "--output" {
				out = args[i+1]
			}
		}
		switch name {
		case "aomenc":
			return afero.WriteFile(fs, out, make([]byte, 1000), 0644)
		case "aomdec":
			return afero.WriteFile(fs, out, []byte("YUV4MPEG2"), 0644)
		case "vmaf":
			return afero.WriteFile(fs, out, []byte(qualityLog), 0644)
		}
		return nil
	}}
}

func newTestTester(t *testing.T) (*Tester, *runner.Recorder, afero.Fs, *config.Config) {
	t.Helper()
	fs := afero.NewMemMapFs()
	ws := workspace.New(fs, "/work")
	if err := ws.Setup(); err != nil {
		t.Fatal(err)
	}
	cfg := config.NewConfig("/work")
	cfg.QPs = []int{23, 55}
	cfg.FrameNum = 10
	cfg.QualityList = []string{"PSNR_Y", "VMAF_Y"}
	rec := fakeTools(fs)
	return NewTester(cfg, ws, rec, nil, nil), rec, fs, cfg
}

var testClips = []clip.Clip{
	{FilePath: "/c/A1/Foo_64x32.y4m", FileName: "Foo_64x32.y4m", Class: "A1", Format: "420", Width: 64, Height: 32, BitDepth: 8, FPSNum: 30, FPSDenom: 1},
	{FilePath: "/c/B1/Bar_32x16.y4m", FileName: "Bar_32x16.y4m", Class: "B1", Format: "420", Width: 32, Height: 16, BitDepth: 8, FPSNum: 25, FPSDenom: 1},
}

func TestRunEncodeSweepAndCSV(t *testing.T) {
	tester, rec, fs, cfg := newTestTester(t)

	if err := tester.RunEncodeSweep(context.Background(), testClips); err != nil {
		t.Fatalf("RunEncodeSweep failed: %v", err)
	}

	var wantNames []string
	for range testClips {
		for range cfg.QPs {
			wantNames = append(wantNames, "aomenc", "aomdec", "vmaf")
		}
	}
	if diff := cmp.Diff(wantNames, rec.Names()); diff != "" {
		t.Errorf("command order mismatch (-want +got):\n%s", diff)
	}

	path, err := tester.GenerateSummaryRDDataFile("aom", "av1", "6", config.TestCfgRA, testClips)
	if err != nil {
		t.Fatalf("GenerateSummaryRDDataFile failed: %v", err)
	}
	if path != "/work/RDResults/RDResults_aom_av1_RA_Preset_6.csv" {
		t.Errorf("unexpected csv path %s", path)
	}

	f, err := fs.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}

	wantHeader := []string{"File", "Class", "Width", "Height", "TestCfg", "EncodeMethod", "CodecName", "EncodePreset", "QP", "Bitrate(kbps)", "PSNR_Y", "VMAF_Y"}
	if diff := cmp.Diff(wantHeader, records[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if len(records) != 1+len(testClips)*len(cfg.QPs) {
		t.Fatalf("got %d records", len(records))
	}

	// 1000 bytes * 8 * 25 fps / 10 frames / 1000
	wantRow := []string{"Bar_32x16.y4m", "B1", "32", "16", "RA", "aom", "av1", "6", "55", "20.0000", "40.5000", "95.2500"}
	if diff := cmp.Diff(wantRow, records[4]); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveMemoryRemovesDecoded(t *testing.T) {
	tester, _, fs, cfg := newTestTester(t)
	cfg.SaveMemory = true

	if err := tester.RunEncodeTest(context.Background(), config.TestCfgRA, testClips[0], "6"); err != nil {
		t.Fatalf("RunEncodeTest failed: %v", err)
	}
	entries, err := afero.ReadDir(fs, "/work/decodedYUVs")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("decoded files should be removed, found %d", len(entries))
	}
	logs, _ := afero.ReadDir(fs, "/work/qualityLogs")
	if len(logs) != len(cfg.QPs) {
		t.Errorf("expected %d quality logs, found %d", len(cfg.QPs), len(logs))
	}
}

func TestRunEncodeTestCancelled(t *testing.T) {
	tester, rec, _, _ := newTestTester(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tester.RunEncodeTest(ctx, config.TestCfgRA, testClips[0], "6")
	if !ctcerrors.IsCancelled(err) {
		t.Errorf("expected cancelled error, got %v", err)
	}
	if len(rec.Commands) != 0 {
		t.Error("no command should run after cancellation")
	}
}

func TestSummaryMissingBitstream(t *testing.T) {
	tester, _, _, _ := newTestTester(t)
	_, err := tester.GenerateSummaryRDDataFile("aom", "av1", "6", config.TestCfgRA, testClips)
	if !ctcerrors.IsKind(err, ctcerrors.KindIO) {
		t.Errorf("expected I/O error, got %v", err)
	}
}

func TestBitrateZeroSize(t *testing.T) {
	if got := Bitrate(0, 30, 1, 10); got != 0 || math.IsNaN(got) {
		t.Errorf("Bitrate(0) = %v", got)
	}
}
