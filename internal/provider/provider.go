// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider drives the agent CLIs that turn a brief into commit
// proposals.
package provider

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/bartekus/gencommit/internal/commit"
	"github.com/bartekus/gencommit/internal/execx"
	"github.com/bartekus/gencommit/internal/parser"
	"github.com/bartekus/gencommit/internal/prompt"
)

// Kind identifies an agent CLI.
type Kind string

const (
	ClaudeCode Kind = "claude-code"
	CursorCLI  Kind = "cursor-cli"
)

// Kinds lists every supported provider.
func Kinds() []Kind { return []Kind{ClaudeCode, CursorCLI} }

var (
	// ErrUnknownProvider is returned for a provider name that is not in Kinds.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrAgentFailed marks a failed or unusable agent invocation.
	ErrAgentFailed = errors.New("agent invocation failed")
)

// loginTimeout bounds interactive login flows.
const loginTimeout = 2 * time.Minute

// statusTimeout bounds version checks.
const statusTimeout = 10 * time.Second

// ParseKind validates a provider name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	names := make([]string, 0, len(Kinds()))
	for _, k := range Kinds() {
		names = append(names, string(k))
	}
	return "", errors.WithHint(errors.Wrapf(ErrUnknownProvider, "%q", s),
		"available providers: "+strings.Join(names, ", "))
}

// Response is one raw agent reply.
type Response struct {
	Raw       string
	SessionID string
}

// Status describes whether the agent CLI can be used.
type Status struct {
	Available bool   `json:"available" yaml:"available"`
	Version   string `json:"version,omitempty" yaml:"version,omitempty"`
	Details   string `json:"details" yaml:"details"`
}

// Provider is one agent CLI.
type Provider interface {
	Kind() Kind
	// Format is the reply grammar this agent produces.
	Format() parser.Format
	// Model is the model the agent is asked to use.
	Model() string
	Generate(ctx context.Context, input string, t prompt.Type) (Response, error)
	Parse(r Response) (commit.Result, error)
	Status(ctx context.Context) Status
	Login(ctx context.Context) error
	// SessionID is the conversation to resume on the next Generate, if the
	// agent supports it.
	SessionID() string
	ClearSession()
}

// Options configure New.
type Options struct {
	// Model overrides the provider default when non-empty.
	Model   string
	Timeout time.Duration
	Runner  execx.Runner
}

// New builds the provider for kind.
func New(kind Kind, opts Options) (Provider, error) {
	if opts.Runner == nil {
		opts.Runner = execx.New()
	}
	if opts.Model == "" {
		opts.Model = DefaultModel(kind)
	}
	switch kind {
	case ClaudeCode:
		return &claude{opts: opts}, nil
	case CursorCLI:
		return &cursor{opts: opts}, nil
	default:
		_, err := ParseKind(string(kind))
		return nil, err
	}
}

// decode parses r with the grammar of p.
func decode(p Provider, r Response) (commit.Result, error) {
	return parser.Parse(p.Format(), r.Raw)
}

func agentError(err error, kind Kind) error {
	if errors.Is(err, execx.ErrNotFound) {
		return errors.WithHint(errors.Mark(errors.Wrapf(err, "%s", kind), ErrAgentFailed),
			"install the agent CLI and make sure it is on PATH, then run `gencommit status "+string(kind)+"`")
	}
	return errors.Mark(errors.Wrapf(err, "%s", kind), ErrAgentFailed)
}
