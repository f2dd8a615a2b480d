package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	ctcerrors "github.com/five82/avctc/internal/errors"
	"github.com/five82/avctc/internal/logging"
)

func TestExecutorLogCmdOnly(t *testing.T) {
	var log bytes.Buffer
	e := NewExecutor(nil, logging.NewCmdLog(&log), true)

	if err := e.Run(context.Background(), "definitely-not-a-tool", "-x", "1"); err != nil {
		t.Fatalf("command-only mode should not execute: %v", err)
	}
	dst := filepath.Join(t.TempDir(), "out.y4m")
	if err := e.Copy(context.Background(), "/missing/src.y4m", dst); err != nil {
		t.Fatalf("command-only copy should not touch files: %v", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("copy destination should not exist in command-only mode")
	}

	want := "definitely-not-a-tool -x 1\ncopy /missing/src.y4m " + dst + "\n"
	if got := log.String(); got != want {
		t.Errorf("command log = %q, want %q", got, want)
	}
}

func TestExecutorRunFailure(t *testing.T) {
	e := NewExecutor(nil, nil, false)
	err := e.Run(context.Background(), "sh", "-c", "echo bad input >&2; exit 3")
	if err == nil {
		t.Fatal("expected error")
	}
	if !ctcerrors.IsKind(err, ctcerrors.KindCommand) {
		t.Errorf("expected command error, got %v", err)
	}
	if !strings.Contains(err.Error(), "exit code 3") || !strings.Contains(err.Error(), "bad input") {
		t.Errorf("error should carry exit code and stderr: %v", err)
	}
}

func TestExecutorRunMissingTool(t *testing.T) {
	e := NewExecutor(nil, nil, false)
	err := e.Run(context.Background(), "definitely-not-a-tool-avctc")
	if !ctcerrors.IsKind(err, ctcerrors.KindCommand) {
		t.Errorf("expected command error, got %v", err)
	}
}

func TestExecutorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := NewExecutor(nil, nil, false)
	if err := e.Run(ctx, "sleep", "5"); !ctcerrors.IsCancelled(err) {
		t.Errorf("expected cancelled error, got %v", err)
	}
}

func TestExecutorCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.y4m")
	dst := filepath.Join(dir, "dst.y4m")
	data := []byte("YUV4MPEG2 W2 H2\nFRAME\n\x00\x01\x02\x03\x04\x05")
	if err := os.WriteFile(src, data, 0644); err != nil {
		t.Fatal(err)
	}

	e := NewExecutor(nil, nil, false)
	if err := e.Copy(context.Background(), src, dst); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("copy is not byte-identical")
	}
}

func TestExecutorCopyOnInjectedFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := []byte("YUV4MPEG2 W2 H2\nFRAME\n\x00\x01\x02\x03\x04\x05")
	if err := afero.WriteFile(fs, "/mem/src.y4m", data, 0644); err != nil {
		t.Fatal(err)
	}

	e := NewExecutor(fs, nil, false)
	if err := e.Copy(context.Background(), "/mem/src.y4m", "/mem/dst.y4m"); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	got, err := afero.ReadFile(fs, "/mem/dst.y4m")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("copy is not byte-identical")
	}
	if _, err := os.Stat("/mem/dst.y4m"); !os.IsNotExist(err) {
		t.Error("copy must not write to the OS file system")
	}
}

func TestTailBuffer(t *testing.T) {
	var tb tailBuffer
	_, _ = tb.Write(bytes.Repeat([]byte("a"), maxStderrTail))
	_, _ = tb.Write([]byte("END"))
	s := tb.String()
	if len(s) != maxStderrTail || !strings.HasSuffix(s, "END") {
		t.Errorf("tail buffer kept %d bytes, suffix %q", len(s), s[len(s)-3:])
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	_ = r.Run(context.Background(), "aomenc", "-o", "a.ivf")
	_ = r.Copy(context.Background(), "a", "b")

	if got := strings.Join(r.Names(), ","); got != "aomenc,copy" {
		t.Errorf("Names() = %s", got)
	}
	if got := r.Commands[1].String(); got != "copy a b" {
		t.Errorf("String() = %s", got)
	}
}
