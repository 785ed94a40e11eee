// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pipeline wires the change-set core to an agent: classify, summarize,
// extract diffs, compose the brief, then generate, parse and validate
// proposals.
package pipeline

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/bartekus/gencommit/internal/changeset"
	"github.com/bartekus/gencommit/internal/commit"
	"github.com/bartekus/gencommit/internal/config"
	"github.com/bartekus/gencommit/internal/diff"
	"github.com/bartekus/gencommit/internal/gitrepo"
	"github.com/bartekus/gencommit/internal/logging"
	"github.com/bartekus/gencommit/internal/parser"
	"github.com/bartekus/gencommit/internal/prompt"
	"github.com/bartekus/gencommit/internal/provider"
	"github.com/bartekus/gencommit/internal/tree"
	"github.com/bartekus/gencommit/internal/validate"
)

// ErrNothingToCommit is returned by Prepare for a clean working tree.
var ErrNothingToCommit = errors.New("no changes to commit")

// Repository is the version-control surface the pipeline needs.
type Repository interface {
	diff.Source
	Branch() (string, error)
	ChangeSet(ctx context.Context, f gitrepo.Filter) (changeset.ChangeSet, error)
}

// Snapshot is everything derived from the working tree for one run.
type Snapshot struct {
	Branch     string              `json:"branch" yaml:"branch"`
	ChangeSet  changeset.ChangeSet `json:"changes" yaml:"changes"`
	Summary    string              `json:"summary" yaml:"summary"`
	Extraction diff.Extraction     `json:"diff" yaml:"diff"`
	Brief      prompt.Brief        `json:"brief" yaml:"brief"`
	ValidFiles map[string]struct{} `json:"-" yaml:"-"`
}

// Proposal is a validated agent answer.
type Proposal struct {
	Result commit.Result
	Raw    string
	// Attempts counts agent calls, including failed ones.
	Attempts int
	// Unassigned lists changed paths that no commit covers.
	Unassigned []string
}

// AttemptFunc observes every agent round trip.
type AttemptFunc func(t prompt.Type, raw string, err error)

// Pipeline runs one repository against one provider.
type Pipeline struct {
	Repo      Repository
	Provider  provider.Provider
	Config    *config.Config
	OnAttempt AttemptFunc
}

// Prepare snapshots the working tree and builds the brief.
func (p *Pipeline) Prepare(ctx context.Context) (*Snapshot, error) {
	log := logging.FromContext(ctx)
	cfg := p.Config

	budget := cfg.Budget()
	if err := budget.Validate(); err != nil {
		return nil, errors.Mark(err, config.ErrInvalidConfig)
	}

	branch, err := p.Repo.Branch()
	if err != nil {
		return nil, err
	}
	cs, err := p.Repo.ChangeSet(ctx, gitrepo.Filter{ExcludeDirs: cfg.ExcludeDirs})
	if err != nil {
		return nil, err
	}
	if cs.Empty() {
		return nil, ErrNothingToCommit
	}

	summary := tree.FullSummary(branch, cs, cfg.TreeOptions())
	ext, err := diff.NewExtractor(p.Repo).Extract(ctx, summary, cs, budget)
	if err != nil {
		return nil, err
	}
	brief := prompt.Compose(cfg.Languages(), summary, ext, cfg.MaxInputSize)

	log.Info("brief ready",
		zap.String("branch", branch),
		zap.Int("files", cs.Counts.Total),
		zap.Int("summary_bytes", len(summary)),
		zap.Int("diff_bytes", ext.Size()),
		zap.Bool("diff_skipped", ext.Skipped),
		zap.Int("brief_bytes", brief.Size()),
		zap.Bool("brief_truncated", brief.Truncated))
	if brief.Truncated {
		log.Warn("input exceeds max_input_size and was truncated",
			zap.Int("original_bytes", brief.OriginalSize), zap.Int("max_input_size", cfg.MaxInputSize))
	}

	return &Snapshot{
		Branch:     branch,
		ChangeSet:  cs,
		Summary:    summary,
		Extraction: ext,
		Brief:      brief,
		ValidFiles: cs.PathSet(),
	}, nil
}

// Propose asks the agent for commits. Feedback and Jira rounds carry extra
// and the previous raw reply. Replies that fail to parse or validate are
// retried up to Config.MaxRetries more times; agent failures are not.
func (p *Pipeline) Propose(ctx context.Context, snap *Snapshot, t prompt.Type, extra, previous string) (*Proposal, error) {
	log := logging.FromContext(ctx)

	input := snap.Brief.Text
	if t != prompt.Commit {
		input = prompt.Followup(t, extra, previous, snap.Brief)
	}

	attempts := 1 + p.Config.MaxRetries
	var lastErr error
	for i := 1; i <= attempts; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := p.Provider.Generate(ctx, input, t)
		if err != nil {
			p.observe(t, "", err)
			return nil, err
		}

		result, err := p.Provider.Parse(resp)
		if err == nil {
			err = validate.Proposals(result, snap.ValidFiles, p.Config.MaxTitleLength)
		}
		p.observe(t, resp.Raw, err)
		if err == nil {
			unassigned := validate.Unassigned(result.Commits, snap.ChangeSet)
			if len(unassigned) > 0 {
				log.Warn("changed files not covered by any commit", zap.Strings("paths", unassigned))
			}
			return &Proposal{Result: result, Raw: resp.Raw, Attempts: i, Unassigned: unassigned}, nil
		}

		lastErr = err
		if !IsReplyError(err) {
			return nil, err
		}
		log.Warn("agent reply rejected",
			zap.Int("attempt", i),
			zap.Int("of", attempts),
			zap.Error(err))
	}
	return nil, errors.Wrapf(lastErr, "after %d attempts", attempts)
}

func (p *Pipeline) observe(t prompt.Type, raw string, err error) {
	if p.OnAttempt != nil {
		p.OnAttempt(t, raw, err)
	}
}

// IsReplyError reports whether err comes from an unusable agent reply rather
// than from running the agent.
func IsReplyError(err error) bool {
	for _, kind := range []error{
		parser.ErrMalformedPayload,
		parser.ErrMissingCommits,
		parser.ErrEmptyResponse,
		parser.ErrNoCommitBlocks,
		parser.ErrMalformedBlock,
		validate.ErrUnknownFileReference,
		validate.ErrTitleTooLong,
		validate.ErrEmptyTitle,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
