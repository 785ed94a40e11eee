// SPDX-License-Identifier: AGPL-3.0-or-later

// Package fakeexec provides a scripted execx.Runner for tests.
package fakeexec

import (
	"context"
	"strings"
	"sync"

	"github.com/bartekus/gencommit/internal/execx"
)

// Reply is the canned outcome for one matching invocation.
type Reply struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// Runner answers invocations from a queue of replies per command prefix and
// records every call.
type Runner struct {
	mu      sync.Mutex
	replies map[string][]Reply
	Calls   []execx.Options
}

// New creates an empty Runner.
func New() *Runner {
	return &Runner{replies: make(map[string][]Reply)}
}

// On queues r for the next call whose command line starts with prefix.
// The last queued reply for a prefix repeats once the queue is drained.
func (f *Runner) On(prefix string, r Reply) *Runner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[prefix] = append(f.replies[prefix], r)
	return f
}

// Run implements execx.Runner.
func (f *Runner) Run(_ context.Context, opts execx.Options) (execx.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, opts)

	line := opts.String()
	best := ""
	for prefix := range f.replies {
		if strings.HasPrefix(line, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	queue, ok := f.replies[best]
	if !ok || len(queue) == 0 {
		return execx.Result{ExitCode: -1}, &execx.ExitError{Command: line, ExitCode: -1, Err: execx.ErrNotFound}
	}
	r := queue[0]
	if len(queue) > 1 {
		f.replies[best] = queue[1:]
	}

	res := execx.Result{Stdout: r.Stdout, Stderr: r.Stderr, ExitCode: r.ExitCode}
	if r.Err != nil || r.ExitCode != 0 {
		return res, &execx.ExitError{
			Command:  line,
			ExitCode: r.ExitCode,
			Stdout:   r.Stdout,
			Stderr:   r.Stderr,
			Err:      r.Err,
		}
	}
	return res, nil
}

// Last returns the most recent call, or the zero Options.
func (f *Runner) Last() execx.Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Calls) == 0 {
		return execx.Options{}
	}
	return f.Calls[len(f.Calls)-1]
}
