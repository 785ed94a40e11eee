// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/bartekus/gencommit/internal/commit"
	"github.com/bartekus/gencommit/internal/execx"
	"github.com/bartekus/gencommit/internal/logging"
	"github.com/bartekus/gencommit/internal/parser"
	"github.com/bartekus/gencommit/internal/prompt"
)

const binClaude = "claude"

// claude drives the Claude Code CLI in print mode with a JSON schema, and
// resumes the same session for follow-up prompts.
type claude struct {
	opts      Options
	sessionID string
}

// claudeOutput is the envelope printed by `claude -p --output-format json`.
type claudeOutput struct {
	SessionID        string          `json:"session_id"`
	Result           string          `json:"result"`
	StructuredOutput json.RawMessage `json:"structured_output"`
	IsError          bool            `json:"is_error"`
}

func (c *claude) Kind() Kind { return ClaudeCode }
func (c *claude) Format() parser.Format { return parser.FormatJSON }
func (c *claude) Model() string { return c.opts.Model }
func (c *claude) SessionID() string { return c.sessionID }
func (c *claude) ClearSession() { c.sessionID = "" }
func (c *claude) Parse(r Response) (commit.Result, error) { return decode(c, r) }

func (c *claude) Generate(ctx context.Context, input string, t prompt.Type) (Response, error) {
	instructions, err := prompt.Template(prompt.FlavorClaude, t)
	if err != nil {
		return Response{}, err
	}

	args := []string{
		"-p",
		"--model", c.opts.Model,
		"--output-format", "json",
		"--json-schema", prompt.JSONSchema(),
		"--append-system-prompt", instructions,
	}
	if c.sessionID != "" {
		args = append(args, "--resume", c.sessionID)
	}

	logging.FromContext(ctx).Debug("calling agent",
		zap.String("provider", string(ClaudeCode)),
		zap.String("model", c.opts.Model),
		zap.String("prompt", string(t)),
		zap.Bool("resume", c.sessionID != ""))

	res, err := c.opts.Runner.Run(ctx, execx.Options{
		Name:    binClaude,
		Args:    args,
		Stdin:   input,
		Timeout: c.opts.Timeout,
	})
	if err != nil {
		return Response{}, agentError(err, ClaudeCode)
	}

	var out claudeOutput
	if err := json.Unmarshal([]byte(strings.TrimSpace(res.Stdout)), &out); err != nil {
		return Response{}, errors.Mark(
			errors.Wrapf(err, "claude printed an unreadable envelope: %.200q", res.Stdout),
			ErrAgentFailed)
	}
	if out.IsError {
		return Response{}, errors.Mark(errors.Newf("claude reported an error: %s", out.Result), ErrAgentFailed)
	}
	if out.SessionID != "" {
		c.sessionID = out.SessionID
	}

	raw := out.Result
	if len(out.StructuredOutput) > 0 && string(out.StructuredOutput) != "null" {
		raw = string(out.StructuredOutput)
	}
	return Response{Raw: raw, SessionID: c.sessionID}, nil
}

func (c *claude) Status(ctx context.Context) Status {
	res, err := c.opts.Runner.Run(ctx, execx.Options{Name: binClaude, Args: []string{"--version"}, Timeout: statusTimeout})
	if err != nil {
		return Status{Details: "Claude Code CLI not found. Install it first."}
	}
	return Status{Available: true, Version: strings.TrimSpace(res.Stdout), Details: "Claude Code CLI is available"}
}

func (c *claude) Login(ctx context.Context) error {
	_, err := c.opts.Runner.Run(ctx, execx.Options{
		Name:        binClaude,
		Args:        []string{"setup-token"},
		Timeout:     loginTimeout,
		Interactive: true,
	})
	if err != nil {
		return agentError(err, ClaudeCode)
	}
	return nil
}
