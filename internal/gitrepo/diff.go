// SPDX-License-Identifier: AGPL-3.0-or-later

package gitrepo

import (
	"context"

	"github.com/bartekus/gencommit/internal/changeset"
)

// FileDiff returns the unified diff of one record against HEAD, covering
// staged and unstaged edits together. Untracked files are diffed against
// /dev/null. Deletions return an empty diff.
func (r *Repo) FileDiff(ctx context.Context, rec changeset.Record) (string, error) {
	switch rec.Status {
	case changeset.StatusDeleted:
		return "", nil
	case changeset.StatusUntracked:
		// --no-index exits 1 when the files differ, which they always do.
		return r.git(ctx, []string{"diff", "--no-color", "--no-index", "--", "/dev/null", rec.Path}, 1)
	}

	base := "HEAD"
	if !r.hasCommits() {
		base = emptyTree
	}
	args := []string{"diff", "--no-color", "-M", base, "--"}
	if rec.Status == changeset.StatusRenamed && rec.OldPath != "" {
		args = append(args, rec.OldPath)
	}
	args = append(args, rec.Path)
	return r.git(ctx, args)
}
