// SPDX-License-Identifier: AGPL-3.0-or-later

package gitrepo

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/bartekus/gencommit/internal/changeset"
	"github.com/bartekus/gencommit/internal/commit"
	"github.com/bartekus/gencommit/internal/logging"
)

// Applied describes one commit created by Apply.
type Applied struct {
	Index int    `json:"index" yaml:"index"`
	Title string `json:"title" yaml:"title"`
	Hash  string `json:"hash" yaml:"hash"`
}

// Apply creates one git commit per proposal, in order. Each commit contains
// exactly the proposal's files (plus the source side of renames) regardless
// of what else is staged. It stops at the first failure and returns the
// commits made so far.
func (r *Repo) Apply(ctx context.Context, commits []commit.Proposal, cs changeset.ChangeSet) ([]Applied, error) {
	log := logging.FromContext(ctx)
	var done []Applied

	for i, c := range commits {
		if err := r.stage(ctx, c.Files, cs); err != nil {
			return done, errors.Wrapf(err, "staging commit %d", i+1)
		}

		args := []string{"commit", "-m", c.Title}
		if msg := strings.TrimSpace(c.Message); msg != "" {
			args = append(args, "-m", msg)
		}
		args = append(args, "--")
		args = append(args, pathspec(c.Files, cs)...)
		if _, err := r.git(ctx, args); err != nil {
			return done, errors.Wrapf(err, "creating commit %d %q", i+1, c.Title)
		}

		hash, err := r.git(ctx, []string{"rev-parse", "--short", "HEAD"})
		if err != nil {
			return done, err
		}
		a := Applied{Index: i, Title: c.Title, Hash: strings.TrimSpace(hash)}
		log.Info("committed", zap.String("hash", a.Hash), zap.String("title", a.Title), zap.Int("files", len(c.Files)))
		done = append(done, a)
	}
	return done, nil
}

// stage brings files into the index. Deletions go through `git rm --cached`
// because a path already removed with `git rm` no longer matches a pathspec
// for `git add`.
func (r *Repo) stage(ctx context.Context, files []string, cs changeset.ChangeSet) error {
	var add, remove []string
	for _, f := range files {
		if rec, ok := cs.Lookup(f); ok && rec.Status == changeset.StatusDeleted {
			remove = append(remove, f)
			continue
		}
		add = append(add, f)
	}
	if len(remove) > 0 {
		if _, err := r.git(ctx, append([]string{"rm", "--cached", "-q", "--ignore-unmatch", "--"}, remove...)); err != nil {
			return err
		}
	}
	if len(add) > 0 {
		if _, err := r.git(ctx, append([]string{"add", "-A", "--"}, add...)); err != nil {
			return err
		}
	}
	return nil
}

func pathspec(files []string, cs changeset.ChangeSet) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f)
		if rec, ok := cs.Lookup(f); ok && rec.Status == changeset.StatusRenamed && rec.OldPath != "" {
			out = append(out, rec.OldPath)
		}
	}
	return out
}
