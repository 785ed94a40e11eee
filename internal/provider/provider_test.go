package provider

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/gencommit/internal/execx"
	"github.com/bartekus/gencommit/internal/parser"
	"github.com/bartekus/gencommit/internal/prompt"
	"github.com/bartekus/gencommit/internal/testutil/fakeexec"
)

const claudeEnvelope = `{"type":"result","is_error":false,"session_id":"sess-1","result":"done",` +
	`"structured_output":{"commits":[{"files":["src/index.ts"],"title":"feat: add feature","message":"details"}]}}`

func TestParseKind(t *testing.T) {
	k, err := ParseKind("claude-code")
	require.NoError(t, err)
	assert.Equal(t, ClaudeCode, k)

	_, err = ParseKind("copilot")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownProvider))
	assert.Contains(t, strings.Join(errors.GetAllHints(err), " "), "cursor-cli")
}

func TestNew_Defaults(t *testing.T) {
	p, err := New(ClaudeCode, Options{Runner: fakeexec.New()})
	require.NoError(t, err)
	assert.Equal(t, "haiku", p.Model())
	assert.Equal(t, parser.FormatJSON, p.Format())

	p, err = New(CursorCLI, Options{Runner: fakeexec.New(), Model: "gpt-4.1"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1", p.Model())
	assert.Equal(t, parser.FormatDelimited, p.Format())

	_, err = New(Kind("nope"), Options{})
	assert.True(t, errors.Is(err, ErrUnknownProvider))
}

func TestClaude_GenerateAndResume(t *testing.T) {
	run := fakeexec.New().On("claude -p", fakeexec.Reply{Stdout: claudeEnvelope})
	p, err := New(ClaudeCode, Options{Runner: run, Timeout: time.Minute})
	require.NoError(t, err)
	ctx := context.Background()

	resp, err := p.Generate(ctx, "BRIEF", prompt.Commit)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Equal(t, "sess-1", p.SessionID())

	call := run.Last()
	assert.Equal(t, "BRIEF", call.Stdin)
	assert.Equal(t, time.Minute, call.Timeout)
	assert.Equal(t, []string{"-p", "--model", "haiku", "--output-format", "json", "--json-schema", prompt.JSONSchema()}, call.Args[:7])
	assert.NotContains(t, call.Args, "--resume")

	result, err := p.Parse(resp)
	require.NoError(t, err)
	require.Len(t, result.Commits, 1)
	assert.Equal(t, "feat: add feature", result.Commits[0].Title)

	_, err = p.Generate(ctx, "FEEDBACK: smaller commits", prompt.Feedback)
	require.NoError(t, err)
	args := run.Last().Args
	assert.Equal(t, []string{"--resume", "sess-1"}, args[len(args)-2:])

	p.ClearSession()
	assert.Empty(t, p.SessionID())
}

func TestClaude_FallsBackToResultText(t *testing.T) {
	run := fakeexec.New().On("claude -p", fakeexec.Reply{Stdout: `{"session_id":"s","result":"{\"commits\":[]}"}`})
	p, _ := New(ClaudeCode, Options{Runner: run})

	resp, err := p.Generate(context.Background(), "x", prompt.Commit)
	require.NoError(t, err)
	assert.Equal(t, `{"commits":[]}`, resp.Raw)

	_, err = p.Parse(resp)
	assert.True(t, errors.Is(err, parser.ErrMissingCommits))
}

func TestClaude_Failures(t *testing.T) {
	tests := []struct {
		name  string
		reply fakeexec.Reply
	}{
		{name: "non-zero exit", reply: fakeexec.Reply{ExitCode: 1, Stderr: "not logged in"}},
		{name: "garbage envelope", reply: fakeexec.Reply{Stdout: "Error: rate limited"}},
		{name: "error envelope", reply: fakeexec.Reply{Stdout: `{"is_error":true,"result":"quota exceeded"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := New(ClaudeCode, Options{Runner: fakeexec.New().On("claude -p", tt.reply)})
			_, err := p.Generate(context.Background(), "x", prompt.Commit)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrAgentFailed))
			assert.Empty(t, p.SessionID())
		})
	}
}

func TestCursor_Generate(t *testing.T) {
	reply := "===COMMIT===\nFILES: a.go\nTITLE: fix: a\nMESSAGE: body\n"
	run := fakeexec.New().On("agent -p", fakeexec.Reply{Stdout: reply})
	p, _ := New(CursorCLI, Options{Runner: run})

	resp, err := p.Generate(context.Background(), "BRIEF", prompt.Commit)
	require.NoError(t, err)
	assert.Equal(t, reply, resp.Raw)
	assert.Empty(t, resp.SessionID)

	call := run.Last()
	assert.Equal(t, []string{"-p", "--model", "claude-4.5-sonnet", "--output-format", "text"}, call.Args)
	instructions, _ := prompt.Template(prompt.FlavorCursor, prompt.Commit)
	assert.Equal(t, instructions+"\n\n---\n\nBRIEF", call.Stdin)

	result, err := p.Parse(resp)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go"}, result.Commits[0].Files)
}

func TestStatus(t *testing.T) {
	run := fakeexec.New().On("claude --version", fakeexec.Reply{Stdout: "2.0.1 (Claude Code)\n"})
	p, _ := New(ClaudeCode, Options{Runner: run})
	st := p.Status(context.Background())
	assert.True(t, st.Available)
	assert.Equal(t, "2.0.1 (Claude Code)", st.Version)

	p, _ = New(CursorCLI, Options{Runner: fakeexec.New()})
	st = p.Status(context.Background())
	assert.False(t, st.Available)
	assert.Contains(t, st.Details, "not available")
}

func TestLogin_IsInteractive(t *testing.T) {
	run := fakeexec.New().On("agent login", fakeexec.Reply{})
	p, _ := New(CursorCLI, Options{Runner: run})
	require.NoError(t, p.Login(context.Background()))
	assert.True(t, run.Last().Interactive)

	p, _ = New(ClaudeCode, Options{Runner: fakeexec.New()})
	err := p.Login(context.Background())
	assert.True(t, errors.Is(err, ErrAgentFailed))
	assert.True(t, errors.Is(err, execx.ErrNotFound))
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestModels(t *testing.T) {
	ms, err := Models(CursorCLI)
	require.NoError(t, err)
	assert.Equal(t, "claude-4.5-sonnet", ms[0].Name)
	assert.Len(t, ms, 8)

	ms[0].Name = "mutated"
	assert.Equal(t, "claude-4.5-sonnet", DefaultModel(CursorCLI))

	_, err = Models("x")
	assert.Error(t, err)
}
