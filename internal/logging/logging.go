// Package logging provides file logging for the avctc CLI.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// RunLog writes a timestamped run log into the test log folder.
type RunLog struct {
	verbosity int
	logger    *log.Logger
	file      *os.File
	filePath  string
}

// Setup creates the run log file and points the global logger at it as well as
// stderr. Returns nil if logging is disabled (verbosity 0).
func Setup(logDir string, verbosity int) (*RunLog, error) {
	if verbosity <= 0 {
		Init(0, nil)
		return nil, nil
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}

	timestamp := time.Now().Format("20060102_150405")
	filePath := filepath.Join(logDir, fmt.Sprintf("avctc_run_%s.log", timestamp))

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file %s: %w", filePath, err)
	}

	Init(verbosity, io.MultiWriter(os.Stderr, file))

	l := &RunLog{
		verbosity: verbosity,
		logger:    log.New(file, "", log.LstdFlags),
		file:      file,
		filePath:  filePath,
	}

	l.Info("avctc starting")
	l.Info("Log file: %s", filePath)

	return l, nil
}

// Close closes the log file.
func (l *RunLog) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// FilePath returns the path to the log file.
func (l *RunLog) FilePath() string {
	if l == nil {
		return ""
	}
	return l.filePath
}

// Info logs an info-level message.
func (l *RunLog) Info(format string, args ...any) {
	if l == nil || l.verbosity < 4 {
		return
	}
	l.logger.Printf("[INFO] "+format, args...)
}

// Debug logs a debug-level message.
func (l *RunLog) Debug(format string, args ...any) {
	if l == nil || l.verbosity < 5 {
		return
	}
	l.logger.Printf("[DEBUG] "+format, args...)
}

// Warn logs a warning message.
func (l *RunLog) Warn(format string, args ...any) {
	if l == nil || l.verbosity < 3 {
		return
	}
	l.logger.Printf("[WARN] "+format, args...)
}

// Error logs an error message.
func (l *RunLog) Error(format string, args ...any) {
	if l == nil || l.verbosity < 2 {
		return
	}
	l.logger.Printf("[ERROR] "+format, args...)
}

// CmdLog records every external command line of a run. In command-only mode it
// is the only output of an encode sweep.
type CmdLog struct {
	mu       sync.Mutex
	w        io.Writer
	file     *os.File
	filePath string
}

// NewCmdLog creates a command log writing to w.
func NewCmdLog(w io.Writer) *CmdLog {
	return &CmdLog{w: w}
}

// OpenCmdLog creates a timestamped command log file in logDir.
func OpenCmdLog(logDir string) (*CmdLog, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}
	timestamp := time.Now().Format("20060102_150405")
	filePath := filepath.Join(logDir, fmt.Sprintf("TestCmd_%s.log", timestamp))
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create command log %s: %w", filePath, err)
	}
	return &CmdLog{w: file, file: file, filePath: filePath}, nil
}

// Command records one command line.
func (c *CmdLog) Command(name string, args ...string) {
	if c == nil {
		return
	}
	line := strings.Join(append([]string{name}, args...), " ")
	c.write(line + "\n")
}

// Section records a section marker such as "::Downscaling".
func (c *CmdLog) Section(title string) {
	if c == nil {
		return
	}
	c.write("::" + title + "\n")
}

// JobStart marks the beginning of one QP job.
func (c *CmdLog) JobStart() {
	if c == nil {
		return
	}
	c.write("============== Job Start =================\n")
}

// JobEnd marks the end of one QP job.
func (c *CmdLog) JobEnd() {
	if c == nil {
		return
	}
	c.write("============== Job End ===================\n\n")
}

func (c *CmdLog) write(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.w != nil {
		_, _ = io.WriteString(c.w, s)
	}
}

// FilePath returns the path of the command log file, if any.
func (c *CmdLog) FilePath() string {
	if c == nil {
		return ""
	}
	return c.filePath
}

// Close closes the command log file.
func (c *CmdLog) Close() error {
	if c == nil || c.file == nil {
		return nil
	}
	return c.file.Close()
}
