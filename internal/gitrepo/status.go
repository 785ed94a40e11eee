// SPDX-License-Identifier: AGPL-3.0-or-later

package gitrepo

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/bartekus/gencommit/internal/changeset"
)

// ParsePorcelain reads `git status --porcelain=v1 -z` output.
//
// Entries are "XY path" separated by NUL; renames and copies carry their
// source path as the following NUL field.
func ParsePorcelain(out string) (changeset.Raw, error) {
	var raw changeset.Raw
	fields := strings.Split(strings.TrimSuffix(out, "\x00"), "\x00")

	for i := 0; i < len(fields); i++ {
		entry := fields[i]
		if entry == "" {
			continue
		}
		if len(entry) < 4 || entry[2] != ' ' {
			return changeset.Raw{}, errors.Newf("malformed status entry %q", entry)
		}
		x, y, path := entry[0], entry[1], entry[3:]

		switch {
		case x == '?' && y == '?':
			raw.Untracked = append(raw.Untracked, path)
			continue
		case x == '!' && y == '!':
			continue
		case isUnmerged(x, y):
			raw.UnstagedModified = append(raw.UnstagedModified, path)
			continue
		}

		switch x {
		case 'A', 'C':
			raw.StagedAdded = append(raw.StagedAdded, path)
		case 'M', 'T':
			raw.StagedModified = append(raw.StagedModified, path)
		case 'D':
			raw.StagedDeleted = append(raw.StagedDeleted, path)
		case 'R':
			from := ""
			if i+1 < len(fields) {
				i++
				from = fields[i]
			}
			raw.StagedRenamed = append(raw.StagedRenamed, changeset.Rename{From: from, To: path})
		}
		if x == 'C' && i+1 < len(fields) {
			i++
		}

		switch y {
		case 'M', 'T':
			raw.UnstagedModified = append(raw.UnstagedModified, path)
		case 'D':
			raw.StagedDeleted = append(raw.StagedDeleted, path)
		case 'A':
			raw.StagedAdded = append(raw.StagedAdded, path)
		}
	}
	return raw, nil
}

func isUnmerged(x, y byte) bool {
	return x == 'U' || y == 'U' || (x == 'A' && y == 'A') || (x == 'D' && y == 'D')
}

// Status reports the working tree as raw categories.
func (r *Repo) Status(ctx context.Context) (changeset.Raw, error) {
	out, err := r.git(ctx, []string{"status", "--porcelain=v1", "-z", "--untracked-files=all"})
	if err != nil {
		return changeset.Raw{}, err
	}
	return ParsePorcelain(out)
}

// ChangeSet classifies the current status, dropping paths excluded by f.
func (r *Repo) ChangeSet(ctx context.Context, f Filter) (changeset.ChangeSet, error) {
	raw, err := r.Status(ctx)
	if err != nil {
		return changeset.ChangeSet{}, err
	}
	return changeset.Classify(f.Apply(raw)), nil
}
