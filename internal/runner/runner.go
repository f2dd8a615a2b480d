// Package runner executes external tools synchronously and records every
// command line in the command log.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/spf13/afero"

	ctcerrors "github.com/five82/avctc/internal/errors"
	"github.com/five82/avctc/internal/logging"
)

// maxStderrTail bounds how much tool stderr is kept for error messages.
const maxStderrTail = 4096

// Runner runs external tools and copies files.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
	Copy(ctx context.Context, src, dst string) error
}

// Executor runs commands with os/exec. With LogCmdOnly set nothing is executed
// and the command log is the only output.
type Executor struct {
	// Fs holds the files Copy reads and writes.
	Fs         afero.Fs
	CmdLog     *logging.CmdLog
	LogCmdOnly bool
	// Stdout receives tool stdout; nil discards it.
	Stdout io.Writer
}

// NewExecutor creates an executor copying files on fs and writing to the
// given command log. A nil fs means the OS file system.
func NewExecutor(fs afero.Fs, cmdLog *logging.CmdLog, logCmdOnly bool) *Executor {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Executor{Fs: fs, CmdLog: cmdLog, LogCmdOnly: logCmdOnly}
}

// Run executes name with args and waits for it to exit.
func (e *Executor) Run(ctx context.Context, name string, args ...string) error {
	e.CmdLog.Command(name, args...)
	if e.LogCmdOnly {
		return nil
	}

	logging.Debug("running command", "cmd", name, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)
	var stderr tailBuffer
	cmd.Stderr = &stderr
	if e.Stdout != nil {
		cmd.Stdout = e.Stdout
	}

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctcerrors.NewCancelledError()
		}
		return ctcerrors.WrapExecError(name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Copy makes a byte-identical copy of src at dst.
func (e *Executor) Copy(ctx context.Context, src, dst string) error {
	e.CmdLog.Command("copy", src, dst)
	if e.LogCmdOnly {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return ctcerrors.NewCancelledError()
	}
	return copyFile(e.Fs, src, dst)
}

func copyFile(fs afero.Fs, src, dst string) error {
	in, err := fs.Open(src)
	if err != nil {
		return ctcerrors.NewIOError(fmt.Sprintf("cannot open %s", src), err)
	}
	defer func() { _ = in.Close() }()

	out, err := fs.Create(dst)
	if err != nil {
		return ctcerrors.NewIOError(fmt.Sprintf("cannot create %s", dst), err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return ctcerrors.NewIOError(fmt.Sprintf("copying %s to %s", src, dst), err)
	}
	if err := out.Close(); err != nil {
		return ctcerrors.NewIOError(fmt.Sprintf("closing %s", dst), err)
	}
	return nil
}

// tailBuffer keeps the last maxStderrTail bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	t.buf.Write(p)
	if extra := t.buf.Len() - maxStderrTail; extra > 0 {
		t.buf.Next(extra)
	}
	return n, nil
}

func (t *tailBuffer) String() string {
	return t.buf.String()
}

// Command is one recorded invocation.
type Command struct {
	Name string
	Args []string
}

// String renders the command line.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Recorder is a Runner that records commands instead of running them. OnRun,
// when set, is called for every command and may create the expected outputs.
type Recorder struct {
	mu       sync.Mutex
	Commands []Command
	OnRun    func(name string, args []string) error
}

// Run records the command.
func (r *Recorder) Run(_ context.Context, name string, args ...string) error {
	r.mu.Lock()
	r.Commands = append(r.Commands, Command{Name: name, Args: append([]string(nil), args...)})
	hook := r.OnRun
	r.mu.Unlock()
	if hook != nil {
		return hook(name, args)
	}
	return nil
}

// Copy records the copy as a "copy" command.
func (r *Recorder) Copy(ctx context.Context, src, dst string) error {
	return r.Run(ctx, "copy", src, dst)
}

// Names returns the recorded command names in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.Commands))
	for i, c := range r.Commands {
		names[i] = c.Name
	}
	return names
}
