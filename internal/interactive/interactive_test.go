package interactive

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/gencommit/internal/changeset"
	"github.com/bartekus/gencommit/internal/commit"
	"github.com/bartekus/gencommit/internal/gitrepo"
	"github.com/bartekus/gencommit/internal/pipeline"
	"github.com/bartekus/gencommit/internal/prompt"
	"github.com/bartekus/gencommit/internal/session"
)

type proposeCall struct {
	t        prompt.Type
	extra    string
	previous string
}

type fakeProposer struct {
	calls []proposeCall
	next  []*pipeline.Proposal
	err   error
}

func (f *fakeProposer) Propose(_ context.Context, _ *pipeline.Snapshot, t prompt.Type, extra, previous string) (*pipeline.Proposal, error) {
	f.calls = append(f.calls, proposeCall{t, extra, previous})
	if f.err != nil {
		return nil, f.err
	}
	p := f.next[0]
	f.next = f.next[1:]
	return p, nil
}

type fakeApplier struct {
	got [][]commit.Proposal
	err error
}

func (f *fakeApplier) Apply(_ context.Context, commits []commit.Proposal, _ changeset.ChangeSet) ([]gitrepo.Applied, error) {
	f.got = append(f.got, commits)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]gitrepo.Applied, len(commits))
	for i, c := range commits {
		out[i] = gitrepo.Applied{Index: i, Title: c.Title, Hash: "abc123" + string(rune('0'+i))}
	}
	return out, nil
}

func fixture() (*pipeline.Snapshot, *pipeline.Proposal) {
	cs := changeset.Classify(changeset.Raw{UnstagedModified: []string{"a.go", "b.go"}})
	snap := &pipeline.Snapshot{ChangeSet: cs, ValidFiles: cs.PathSet()}
	prop := &pipeline.Proposal{
		Raw:    "RAW-1",
		Result: commit.Result{Commits: []commit.Proposal{{Files: []string{"a.go", "b.go"}, Title: "feat: both"}}},
	}
	return snap, prop
}

func split() *pipeline.Proposal {
	return &pipeline.Proposal{
		Raw: "RAW-2",
		Result: commit.Result{Commits: []commit.Proposal{
			{Files: []string{"a.go"}, Title: "PROJ-1 feat: a"},
			{Files: []string{"b.go"}, Title: "PROJ-2 fix: b"},
		}},
	}
}

func newLoop(input string, mode Mode) (*Loop, *fakeProposer, *fakeApplier, *bytes.Buffer) {
	out := &bytes.Buffer{}
	p := &fakeProposer{}
	a := &fakeApplier{}
	return &Loop{
		Proposer:   p,
		Applier:    a,
		In:         strings.NewReader(input),
		Out:        out,
		Mode:       mode,
		IsTerminal: func() bool { return true },
	}, p, a, out
}

func TestRun_Apply(t *testing.T) {
	l, p, a, out := newLoop("y\n", Ask)
	snap, prop := fixture()

	res, err := l.Run(context.Background(), snap, prop)
	require.NoError(t, err)
	assert.Equal(t, session.StatusApplied, res.Status)
	assert.Len(t, res.Applied, 1)
	assert.Empty(t, p.calls)
	assert.Len(t, a.got, 1)
	assert.Contains(t, out.String(), "feat: both")
	assert.Contains(t, out.String(), "Created 1 commit(s).")
}

func TestRun_Cancel(t *testing.T) {
	for _, input := range []string{"n\n", "", "q\n"} {
		l, _, a, _ := newLoop(input, Ask)
		snap, prop := fixture()

		res, err := l.Run(context.Background(), snap, prop)
		require.NoError(t, err)
		assert.Equal(t, session.StatusCancelled, res.Status, "input %q", input)
		assert.Empty(t, a.got)
	}
}

func TestRun_FeedbackThenApply(t *testing.T) {
	l, p, a, _ := newLoop("f\nsplit them\ny\n", Ask)
	p.next = []*pipeline.Proposal{split()}
	snap, prop := fixture()

	res, err := l.Run(context.Background(), snap, prop)
	require.NoError(t, err)
	require.Len(t, p.calls, 1)
	assert.Equal(t, proposeCall{prompt.Feedback, "split them", "RAW-1"}, p.calls[0])
	assert.Equal(t, "RAW-2", res.Proposal.Raw)
	require.Len(t, a.got, 1)
	assert.Len(t, a.got[0], 2)
}

func TestRun_JiraKeys(t *testing.T) {
	l, p, _, out := newLoop("t\nnothing here\nt\nhttps://x.atlassian.net/browse/PROJ-1 PROJ-2\nn\n", Ask)
	p.next = []*pipeline.Proposal{split()}
	snap, prop := fixture()

	res, err := l.Run(context.Background(), snap, prop)
	require.NoError(t, err)
	assert.Equal(t, session.StatusCancelled, res.Status)
	assert.Contains(t, out.String(), "No Jira keys found")
	require.Len(t, p.calls, 1)
	assert.Equal(t, proposeCall{prompt.Jira, "PROJ-1, PROJ-2", "RAW-1"}, p.calls[0])
}

func TestRun_RegenerationFailureKeepsProposal(t *testing.T) {
	l, p, a, out := newLoop("f\nmore\ny\n", Ask)
	p.err = errors.New("agent exploded")
	snap, prop := fixture()

	res, err := l.Run(context.Background(), snap, prop)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Regeneration failed: agent exploded")
	assert.Equal(t, "RAW-1", res.Proposal.Raw)
	assert.Len(t, a.got, 1)
}

func TestRun_UnknownChoiceReprompts(t *testing.T) {
	l, _, _, out := newLoop("maybe\ny\n", Ask)
	snap, prop := fixture()

	_, err := l.Run(context.Background(), snap, prop)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `Unknown choice "maybe".`)
}

func TestRun_Modes(t *testing.T) {
	snap, prop := fixture()

	l, _, a, _ := newLoop("", DryRun)
	res, err := l.Run(context.Background(), snap, prop)
	require.NoError(t, err)
	assert.Equal(t, session.StatusDryRun, res.Status)
	assert.Empty(t, a.got)

	l, _, a, _ = newLoop("", Yes)
	l.IsTerminal = func() bool { return false }
	res, err = l.Run(context.Background(), snap, prop)
	require.NoError(t, err)
	assert.Equal(t, session.StatusApplied, res.Status)
	assert.Len(t, a.got, 1)
}

func TestRun_RefusesWithoutTerminal(t *testing.T) {
	l, _, a, _ := newLoop("y\n", Ask)
	l.IsTerminal = func() bool { return false }
	snap, prop := fixture()

	_, err := l.Run(context.Background(), snap, prop)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotInteractive))
	assert.Empty(t, a.got)
}

func TestRun_ApplyFailure(t *testing.T) {
	l, _, a, _ := newLoop("y\n", Ask)
	a.err = errors.New("hook rejected commit")
	snap, prop := fixture()

	res, err := l.Run(context.Background(), snap, prop)
	require.Error(t, err)
	assert.Equal(t, session.StatusFailed, res.Status)
}
