package vm

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// PathKind tells the host how to resolve a path handed to ReadFile.
type PathKind uint8

const (
	// PathRelative resolves against the host's base directory.
	PathRelative PathKind = iota
	// PathAbsolute is used as given.
	PathAbsolute
)

// Host is the I/O adapter injected into the interpreter. All calls are
// synchronous and block the single thread of execution.
type Host interface {
	Print(text string)
	Input(prompt string) (string, bool)
	Flush()
	ReadFile(path string, kind PathKind) (string, bool)
	ExecuteForeignCode(code string, bindings map[string]Value) (Value, error)
}

// ForeignFunc runs host-language code on behalf of the foreign native.
type ForeignFunc func(code string, bindings map[string]Value) (Value, error)

// ErrForeignUnsupported is returned when no foreign-code hook is installed.
var ErrForeignUnsupported = errors.New("foreign code execution is not supported by this host")

// StdHost is the default Host backed by an output writer, an input reader
// and the local filesystem.
type StdHost struct {
	out     *bufio.Writer
	in      *bufio.Reader
	BaseDir string
	Foreign ForeignFunc
}

// NewStdHost creates a host writing to w and reading from r.
func NewStdHost(w io.Writer, r io.Reader) *StdHost {
	return &StdHost{out: bufio.NewWriter(w), in: bufio.NewReader(r), BaseDir: "."}
}

// DefaultHost creates a host on the process's standard streams.
func DefaultHost() *StdHost {
	return NewStdHost(os.Stdout, os.Stdin)
}

// Print writes text without a trailing newline.
func (h *StdHost) Print(text string) {
	h.out.WriteString(text)
}

// Input writes prompt, flushes, and reads one line. It returns false at
// end of input.
func (h *StdHost) Input(prompt string) (string, bool) {
	h.out.WriteString(prompt)
	h.out.Flush()
	line, err := h.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimRight(line, "\r\n"), true
}

// Flush writes buffered output.
func (h *StdHost) Flush() {
	h.out.Flush()
}

// ReadFile returns the contents of path, or false if it cannot be read.
func (h *StdHost) ReadFile(path string, kind PathKind) (string, bool) {
	if kind == PathRelative && !filepath.IsAbs(path) {
		path = filepath.Join(h.BaseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// ExecuteForeignCode delegates to the Foreign hook.
func (h *StdHost) ExecuteForeignCode(code string, bindings map[string]Value) (Value, error) {
	if h.Foreign == nil {
		return nil, ErrForeignUnsupported
	}
	return h.Foreign(code, bindings)
}
