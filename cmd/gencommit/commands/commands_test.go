package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/gencommit/cmd/gencommit/internal/clierr"
	"github.com/bartekus/gencommit/internal/commit"
	"github.com/bartekus/gencommit/internal/interactive"
	"github.com/bartekus/gencommit/internal/parser"
	"github.com/bartekus/gencommit/internal/session"
	"github.com/bartekus/gencommit/internal/testutil/fakeexec"
)

type result struct {
	stdout string
	stderr string
	err    error
}

func (r result) code() int { return clierr.ExitCodeOf(clierr.Classify(r.err)) }

func execute(t *testing.T, runner *fakeexec.Runner, stdin string, args ...string) result {
	t.Helper()
	if runner == nil {
		runner = fakeexec.New()
	}
	cmd := newRootCmd(deps{AgentRunner: runner, IsTerminal: func() bool { return false }})
	var out, errb bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errb)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return result{stdout: out.String(), stderr: errb.String(), err: err}
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "GENCOMMIT_") {
			t.Setenv(kv[:strings.IndexByte(kv, '=')], "")
			os.Unsetenv(kv[:strings.IndexByte(kv, '=')])
		}
	}
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %s: %s", strings.Join(args, " "), out)
	return strings.TrimSpace(string(out))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// dirtyRepo returns a repository on main with one modified and one untracked
// file.
func dirtyRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	isolate(t)
	dir := t.TempDir()
	runGit(t, dir, "init", "-q")
	runGit(t, dir, "symbolic-ref", "HEAD", "refs/heads/main")
	runGit(t, dir, "config", "user.email", "dev@example.com")
	runGit(t, dir, "config", "user.name", "Dev")
	runGit(t, dir, "config", "commit.gpgsign", "false")
	writeFile(t, dir, "src/app.go", "package app\n")
	runGit(t, dir, "add", "-A")
	runGit(t, dir, "commit", "-q", "-m", "init")

	writeFile(t, dir, "src/app.go", "package app\n\nfunc Run() {}\n")
	writeFile(t, dir, "docs/guide.md", "# Guide\n")
	return dir
}

func agentReply(commits ...commit.Proposal) *fakeexec.Runner {
	return fakeexec.New().On("agent -p", fakeexec.Reply{Stdout: parser.FormatDelimiter(commit.Result{Commits: commits})})
}

var twoCommits = []commit.Proposal{
	{Files: []string{"src/app.go"}, Title: "feat(app): add Run", Message: "Adds the entry point."},
	{Files: []string{"docs/guide.md"}, Title: "docs: add guide"},
}

func readLast(t *testing.T, dir string) *session.LastRun {
	t.Helper()
	last, err := session.ForGitDir(filepath.Join(dir, ".git")).Read()
	require.NoError(t, err)
	require.NotNil(t, last)
	return last
}

func TestGenerate_YesAppliesProposal(t *testing.T) {
	dir := dirtyRepo(t)
	runner := agentReply(twoCommits...)

	res := execute(t, runner, "", "cursor-cli", "-C", dir, "--yes", "--lang", "en")
	require.NoError(t, res.err, res.stderr)

	assert.Equal(t, "3", runGit(t, dir, "rev-list", "--count", "HEAD"))
	assert.Equal(t, "docs: add guide", runGit(t, dir, "log", "-1", "--format=%s"))
	assert.Equal(t, "feat(app): add Run", runGit(t, dir, "log", "-1", "--skip=1", "--format=%s"))
	assert.Empty(t, runGit(t, dir, "status", "--porcelain"))
	assert.Contains(t, res.stdout, "Created 2 commit(s).")

	require.Len(t, runner.Calls, 1)
	call := runner.Calls[0]
	assert.Contains(t, call.Stdin, "TITLE_LANG: en\nMESSAGE_LANG: en\n")
	assert.Contains(t, call.Stdin, "BRANCH: main")

	last := readLast(t, dir)
	assert.Equal(t, session.StatusApplied, last.Status)
	assert.Equal(t, "cursor-cli", last.Provider)
	assert.Len(t, last.Applied, 2)
	assert.Len(t, last.Attempts, 1)
}

func TestGenerate_DryRunLeavesTreeAlone(t *testing.T) {
	dir := dirtyRepo(t)

	res := execute(t, agentReply(twoCommits...), "", "cursor-cli", "-C", dir, "--dry-run")
	require.NoError(t, res.err, res.stderr)

	assert.Equal(t, "1", runGit(t, dir, "rev-list", "--count", "HEAD"))
	assert.Contains(t, res.stdout, "Proposed commits (2)")
	assert.Contains(t, res.stdout, "feat(app): add Run")
	assert.Equal(t, session.StatusDryRun, readLast(t, dir).Status)

	res = execute(t, nil, "", "last", "-C", dir)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Status:   dry-run")
	assert.Contains(t, res.stdout, "docs: add guide")
}

// behindUpstream gives dir an origin that has one commit the local clone
// has not fetched yet.
func behindUpstream(t *testing.T, dir string) {
	t.Helper()
	base := t.TempDir()
	origin := filepath.Join(base, "origin.git")
	runGit(t, base, "init", "-q", "--bare", origin)
	runGit(t, dir, "remote", "add", "origin", origin)
	runGit(t, dir, "push", "-q", "-u", "origin", "main")

	other := filepath.Join(base, "other")
	runGit(t, base, "clone", "-q", "-b", "main", origin, other)
	runGit(t, other, "-c", "user.email=o@example.com", "-c", "user.name=Other", "-c", "commit.gpgsign=false",
		"commit", "-q", "--allow-empty", "-m", "upstream")
	runGit(t, other, "push", "-q", "origin", "main")
}

func TestGenerate_FetchBeforeRemoteWarning(t *testing.T) {
	dir := dirtyRepo(t)
	behindUpstream(t, dir)

	res := execute(t, agentReply(twoCommits...), "", "cursor-cli", "-C", dir, "--dry-run")
	require.NoError(t, res.err, res.stderr)
	assert.NotContains(t, res.stderr, "behind")

	res = execute(t, agentReply(twoCommits...), "", "cursor-cli", "-C", dir, "--dry-run", "--fetch")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stderr, "warning: HEAD is 1 commit(s) behind origin/main\n")

	res = execute(t, agentReply(twoCommits...), "", "cursor-cli", "-C", dir, "--dry-run")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stderr, "behind origin/main (as of the last fetch; pass --fetch to refresh)")
}

func TestGenerate_RefusesWithoutTerminal(t *testing.T) {
	dir := dirtyRepo(t)

	res := execute(t, agentReply(twoCommits...), "y\n", "cursor-cli", "-C", dir)
	require.Error(t, res.err)
	assert.True(t, errors.Is(res.err, interactive.ErrNotInteractive))
	assert.Equal(t, clierr.CodeUsage, res.code())
	assert.Equal(t, "1", runGit(t, dir, "rev-list", "--count", "HEAD"))
	assert.Equal(t, session.StatusFailed, readLast(t, dir).Status)
}

func TestGenerate_UnusableRepliesExitWithReplyCode(t *testing.T) {
	dir := dirtyRepo(t)
	runner := agentReply(commit.Proposal{Files: []string{"ghost.go"}, Title: "feat: ghost"})

	res := execute(t, runner, "", "cursor-cli", "-C", dir, "--yes", "--max-retries", "1")
	require.Error(t, res.err)
	assert.Equal(t, clierr.CodeReply, res.code())
	assert.Len(t, runner.Calls, 2)

	last := readLast(t, dir)
	assert.Equal(t, session.StatusFailed, last.Status)
	assert.Len(t, last.Attempts, 2)
	assert.NotEmpty(t, last.Attempts[1].Error)
}

func TestGenerate_CleanTree(t *testing.T) {
	dir := dirtyRepo(t)
	runGit(t, dir, "add", "-A")
	runGit(t, dir, "commit", "-q", "-m", "everything")

	runner := fakeexec.New()
	res := execute(t, runner, "", "claude-code", "-C", dir, "--yes")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Nothing to commit")
	assert.Empty(t, runner.Calls)
}

func TestGenerate_Errors(t *testing.T) {
	dir := dirtyRepo(t)

	res := execute(t, nil, "", "gemini", "-C", dir)
	require.Error(t, res.err)
	assert.Equal(t, clierr.CodeUsage, res.code())

	res = execute(t, nil, "", "cursor-cli", "-C", t.TempDir())
	require.Error(t, res.err)
	assert.Equal(t, clierr.CodeGit, res.code())

	res = execute(t, nil, "", "cursor-cli", "-C", dir, "--max-diff-size", "50000")
	require.Error(t, res.err)
	assert.Equal(t, clierr.CodeUsage, res.code())
	assert.Contains(t, res.err.Error(), "max_diff_size")

	res = execute(t, nil, "", "cursor-cli", "-C", dir, "--yes", "--dry-run")
	require.Error(t, res.err)
}

func TestSummarize(t *testing.T) {
	dir := dirtyRepo(t)

	res := execute(t, nil, "", "summarize", "-C", dir)
	require.NoError(t, res.err)
	assert.True(t, strings.HasPrefix(res.stdout, "TITLE_LANG: en\nMESSAGE_LANG: ko\n\nBRANCH: main\n"), res.stdout)
	assert.Contains(t, res.stdout, "=== M src/app.go ===")
	assert.Contains(t, res.stderr, "from 2 file(s)")

	res = execute(t, nil, "", "summarize", "-C", dir, "--format", "json")
	require.NoError(t, res.err)
	var doc struct {
		Branch  string `json:"branch"`
		Changes struct {
			Counts struct {
				Total     int `json:"total"`
				Modified  int `json:"modified"`
				Untracked int `json:"untracked"`
			} `json:"counts"`
		} `json:"changes"`
		Diff struct {
			Included []string `json:"included"`
		} `json:"diff"`
		Brief struct {
			Truncated bool `json:"truncated"`
		} `json:"brief"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &doc))
	assert.Equal(t, "main", doc.Branch)
	assert.Equal(t, 2, doc.Changes.Counts.Total)
	assert.Equal(t, 1, doc.Changes.Counts.Modified)
	assert.Equal(t, 1, doc.Changes.Counts.Untracked)
	assert.ElementsMatch(t, []string{"src/app.go", "docs/guide.md"}, doc.Diff.Included)
	assert.False(t, doc.Brief.Truncated)

	res = execute(t, nil, "", "summarize", "-C", dir, "--format", "yaml", "--exclude-dir", "docs")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "branch: main")
	assert.NotContains(t, res.stdout, "docs/guide.md")

	res = execute(t, nil, "", "summarize", "-C", dir, "--format", "xml")
	require.Error(t, res.err)
	assert.Equal(t, clierr.CodeUsage, res.code())
}

func TestModels(t *testing.T) {
	res := execute(t, nil, "", "models", "cursor-cli")
	require.NoError(t, res.err)
	assert.True(t, strings.HasPrefix(res.stdout, "| Model | Description | Default |\n| --- | --- | --- |\n"))
	assert.Contains(t, res.stdout, "| claude-4.5-sonnet | Claude 4.5 Sonnet (default) | * |")

	res = execute(t, nil, "", "models")
	require.Error(t, res.err)
	assert.Equal(t, clierr.CodeUsage, res.code())
}

func TestStatus(t *testing.T) {
	runner := fakeexec.New().On("claude --version", fakeexec.Reply{Stdout: "2.0.1 (Claude Code)\n"})
	res := execute(t, runner, "", "status", "claude-code")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Available: true")
	assert.Contains(t, res.stdout, "Version:   2.0.1 (Claude Code)")

	res = execute(t, fakeexec.New(), "", "status", "cursor-cli")
	require.Error(t, res.err)
	assert.Contains(t, res.stdout, "Available: false")
}

func TestLogin(t *testing.T) {
	runner := fakeexec.New().On("agent login", fakeexec.Reply{})
	res := execute(t, runner, "", "login", "cursor-cli")
	require.NoError(t, res.err)
	assert.True(t, runner.Last().Interactive)
	assert.Contains(t, res.stdout, "Logged in to cursor-cli.")
}

func TestConfigShow(t *testing.T) {
	dir := dirtyRepo(t)
	writeFile(t, dir, ".gencommit.yaml", "title_lang: ko\nmax_retries: 1\n")

	res := execute(t, nil, "", "config", "show", "-C", dir, "--max-retries", "4")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "# source: "+filepath.Join(dir, ".gencommit.yaml"))
	assert.Contains(t, res.stdout, "title_lang: ko")
	assert.Contains(t, res.stdout, "max_retries: 4")

	res = execute(t, nil, "", "config", "show", "-C", t.TempDir())
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "# source: defaults")
	assert.Contains(t, res.stdout, "max_input_size: 30000")
}

func TestLast_Empty(t *testing.T) {
	dir := dirtyRepo(t)
	res := execute(t, nil, "", "last", "-C", dir)
	require.NoError(t, res.err)
	assert.Equal(t, "No previous run found.\n", res.stdout)
}

func TestVersion(t *testing.T) {
	t.Setenv("GENCOMMIT_VERSION", "1.2.3")
	res := execute(t, nil, "", "version")
	require.NoError(t, res.err)
	assert.Equal(t, "gencommit version 1.2.3\n", res.stdout)
}
