// SPDX-License-Identifier: AGPL-3.0-or-later

// Package execx runs external programs (git and the agent CLIs) with a
// timeout, captured output and structured logging.
package execx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/bartekus/gencommit/internal/logging"
)

// DefaultTimeout applies when Options.Timeout is zero.
const DefaultTimeout = 2 * time.Minute

// waitDelay bounds how long output pipes are drained after the process is
// killed on timeout.
const waitDelay = time.Second

// ErrNotFound marks a command whose executable is not on PATH.
var ErrNotFound = errors.New("executable not found")

// Options describes one invocation.
type Options struct {
	Name    string
	Args    []string
	Dir     string
	Stdin   string
	Timeout time.Duration
	// Interactive connects the child to the terminal instead of capturing
	// output. Used for login flows.
	Interactive bool
}

// String renders the command line for logs and errors.
func (o Options) String() string {
	if len(o.Args) == 0 {
		return o.Name
	}
	return o.Name + " " + strings.Join(o.Args, " ")
}

// Result is the captured outcome of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// ExitError reports a command that ran but did not succeed.
type ExitError struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Command)
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("%s (exit %d)", msg, e.ExitCode)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg = fmt.Sprintf("%s: %s", msg, s)
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

// Runner executes commands. Providers and the git layer depend on this so
// tests can substitute canned output.
type Runner interface {
	Run(ctx context.Context, opts Options) (Result, error)
}

// Exec is the os/exec backed Runner.
type Exec struct {
	// Stdout and Stderr receive output of interactive commands. Nil means
	// the process's own streams.
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
}

// New returns an Exec bound to the process's standard streams.
func New() *Exec { return &Exec{} }

// Run executes opts and returns the captured result. A non-zero exit yields
// both a Result and an *ExitError.
func (x *Exec) Run(ctx context.Context, opts Options) (Result, error) {
	log := logging.FromContext(ctx).With(zap.String("command", opts.String()))

	if _, err := exec.LookPath(opts.Name); err != nil {
		log.Debug("executable lookup failed", zap.Error(err))
		return Result{ExitCode: -1}, errors.Mark(
			errors.Wrapf(err, "%s", opts.Name), ErrNotFound)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rc, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(rc, opts.Name, opts.Args...)
	cmd.Dir = opts.Dir
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	if opts.Interactive {
		cmd.Stdin = orReader(x.Stdin, os.Stdin)
		cmd.Stdout = orWriter(x.Stdout, os.Stdout)
		cmd.Stderr = orWriter(x.Stderr, os.Stderr)
	} else {
		if opts.Stdin != "" {
			cmd.Stdin = strings.NewReader(opts.Stdin)
		}
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	log.Debug("starting", zap.String("dir", opts.Dir), zap.Int("stdin_bytes", len(opts.Stdin)))
	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err == nil {
		log.Debug("finished", zap.Duration("duration", res.Duration), zap.Int("stdout_bytes", len(res.Stdout)))
		return res, nil
	}

	if errors.Is(rc.Err(), context.DeadlineExceeded) {
		err = errors.Wrapf(rc.Err(), "timed out after %s", timeout)
	}
	log.Debug("failed",
		zap.Int("exit_code", res.ExitCode),
		zap.Duration("duration", res.Duration),
		zap.String("stderr", summarize(res.Stderr)),
		zap.Error(err))
	return res, &ExitError{
		Command:  opts.String(),
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Err:      err,
	}
}

// ExitCode extracts the exit status from an error returned by Run, or -1.
func ExitCode(err error) int {
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode
	}
	return -1
}

func summarize(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const limit = 200
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return s
}

func orWriter(w io.Writer, def io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return def
}

func orReader(r io.Reader, def io.Reader) io.Reader {
	if r != nil {
		return r
	}
	return def
}
