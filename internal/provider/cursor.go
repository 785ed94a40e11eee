// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/bartekus/gencommit/internal/commit"
	"github.com/bartekus/gencommit/internal/execx"
	"github.com/bartekus/gencommit/internal/logging"
	"github.com/bartekus/gencommit/internal/parser"
	"github.com/bartekus/gencommit/internal/prompt"
)

const binCursor = "agent"

// cursor drives the Cursor agent CLI in text mode. It has no sessions, so
// every call carries the full instructions.
type cursor struct {
	opts Options
}

func (c *cursor) Kind() Kind { return CursorCLI }
func (c *cursor) Format() parser.Format { return parser.FormatDelimited }
func (c *cursor) Model() string { return c.opts.Model }
func (c *cursor) SessionID() string { return "" }
func (c *cursor) ClearSession() {}
func (c *cursor) Parse(r Response) (commit.Result, error) { return decode(c, r) }

func (c *cursor) Generate(ctx context.Context, input string, t prompt.Type) (Response, error) {
	instructions, err := prompt.Template(prompt.FlavorCursor, t)
	if err != nil {
		return Response{}, err
	}

	logging.FromContext(ctx).Debug("calling agent",
		zap.String("provider", string(CursorCLI)),
		zap.String("model", c.opts.Model),
		zap.String("prompt", string(t)))

	res, err := c.opts.Runner.Run(ctx, execx.Options{
		Name:    binCursor,
		Args:    []string{"-p", "--model", c.opts.Model, "--output-format", "text"},
		Stdin:   instructions + "\n\n---\n\n" + input,
		Timeout: c.opts.Timeout,
	})
	if err != nil {
		return Response{}, agentError(err, CursorCLI)
	}
	return Response{Raw: res.Stdout}, nil
}

func (c *cursor) Status(ctx context.Context) Status {
	res, err := c.opts.Runner.Run(ctx, execx.Options{Name: binCursor, Args: []string{"--version"}, Timeout: statusTimeout})
	if err != nil {
		return Status{Details: "Cursor CLI not available. Install it first."}
	}
	v := strings.TrimSpace(res.Stdout)
	return Status{Available: true, Version: v, Details: "Cursor CLI is available"}
}

func (c *cursor) Login(ctx context.Context) error {
	_, err := c.opts.Runner.Run(ctx, execx.Options{
		Name:        binCursor,
		Args:        []string{"login"},
		Timeout:     loginTimeout,
		Interactive: true,
	})
	if err != nil {
		return agentError(err, CursorCLI)
	}
	return nil
}
