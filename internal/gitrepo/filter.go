// SPDX-License-Identifier: AGPL-3.0-or-later

package gitrepo

import (
	"strings"

	"github.com/bartekus/gencommit/internal/changeset"
)

// Filter removes paths from a status report before classification.
type Filter struct {
	// ExcludeDirs lists directory names to drop. Matching is segment-aware:
	// "vendor" drops "vendor/foo" and "pkg/vendor/bar" but not
	// "vendor_stuff/foo".
	ExcludeDirs []string
}

// Excludes reports whether path lies under an excluded directory.
func (f Filter) Excludes(path string) bool {
	if len(f.ExcludeDirs) == 0 {
		return false
	}
	parts := strings.Split(path, "/")
	// The last segment is the file name.
	for _, part := range parts[:len(parts)-1] {
		for _, exclude := range f.ExcludeDirs {
			if part == exclude {
				return true
			}
		}
	}
	return false
}

// Apply returns raw without excluded paths. Renames are recorded under their
// destination, so a rename is kept only when the destination survives.
func (f Filter) Apply(raw changeset.Raw) changeset.Raw {
	if len(f.ExcludeDirs) == 0 {
		return raw
	}
	keep := func(in []string) []string {
		var out []string
		for _, p := range in {
			if !f.Excludes(p) {
				out = append(out, p)
			}
		}
		return out
	}
	var renames []changeset.Rename
	for _, rn := range raw.StagedRenamed {
		if !f.Excludes(rn.To) {
			renames = append(renames, rn)
		}
	}
	return changeset.Raw{
		StagedAdded:      keep(raw.StagedAdded),
		StagedModified:   keep(raw.StagedModified),
		StagedDeleted:    keep(raw.StagedDeleted),
		StagedRenamed:    renames,
		UnstagedModified: keep(raw.UnstagedModified),
		Untracked:        keep(raw.Untracked),
	}
}
