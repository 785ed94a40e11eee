// SPDX-License-Identifier: AGPL-3.0-or-later

// Package changeset normalizes raw git status categories into a single ordered
// list of changed paths with one status per path.
package changeset

import "sort"

// Status is the single-character status code of a changed path.
type Status string

const (
	StatusAdded     Status = "A"
	StatusModified  Status = "M"
	StatusDeleted   Status = "D"
	StatusRenamed   Status = "R"
	StatusUntracked Status = "?"
)

// Order is the canonical status order used for sections and counting.
var Order = []Status{StatusAdded, StatusModified, StatusDeleted, StatusRenamed, StatusUntracked}

// Label returns a human readable name for the status.
func (s Status) Label() string {
	switch s {
	case StatusAdded:
		return "Added"
	case StatusModified:
		return "Modified"
	case StatusDeleted:
		return "Deleted"
	case StatusRenamed:
		return "Renamed"
	case StatusUntracked:
		return "Untracked"
	default:
		return "Unknown"
	}
}

// Record is one changed path.
type Record struct {
	Path   string `json:"path" yaml:"path"`
	Status Status `json:"status" yaml:"status"`
	// OldPath is the rename source; empty for every other status.
	OldPath string `json:"old_path,omitempty" yaml:"old_path,omitempty"`
}

// Counts aggregates records per status.
type Counts struct {
	Added     int `json:"added" yaml:"added"`
	Modified  int `json:"modified" yaml:"modified"`
	Deleted   int `json:"deleted" yaml:"deleted"`
	Renamed   int `json:"renamed" yaml:"renamed"`
	Untracked int `json:"untracked" yaml:"untracked"`
	Total     int `json:"total" yaml:"total"`
}

// Of returns the count for a single status.
func (c Counts) Of(s Status) int {
	switch s {
	case StatusAdded:
		return c.Added
	case StatusModified:
		return c.Modified
	case StatusDeleted:
		return c.Deleted
	case StatusRenamed:
		return c.Renamed
	case StatusUntracked:
		return c.Untracked
	default:
		return 0
	}
}

func (c *Counts) add(s Status) {
	switch s {
	case StatusAdded:
		c.Added++
	case StatusModified:
		c.Modified++
	case StatusDeleted:
		c.Deleted++
	case StatusRenamed:
		c.Renamed++
	case StatusUntracked:
		c.Untracked++
	default:
		return
	}
	c.Total++
}

// ChangeSet is the ordered, de-duplicated list of changed paths.
type ChangeSet struct {
	Records []Record `json:"records" yaml:"records"`
	Counts  Counts   `json:"counts" yaml:"counts"`
}

// Empty reports whether the working tree is clean.
func (cs ChangeSet) Empty() bool {
	return len(cs.Records) == 0
}

// Paths returns every path in change-set order.
func (cs ChangeSet) Paths() []string {
	out := make([]string, 0, len(cs.Records))
	for _, r := range cs.Records {
		out = append(out, r.Path)
	}
	return out
}

// PathsWithStatus returns the paths carrying status s, in change-set order.
func (cs ChangeSet) PathsWithStatus(s Status) []string {
	var out []string
	for _, r := range cs.Records {
		if r.Status == s {
			out = append(out, r.Path)
		}
	}
	return out
}

// PathSet returns the set of paths, used to validate agent proposals.
func (cs ChangeSet) PathSet() map[string]struct{} {
	set := make(map[string]struct{}, len(cs.Records))
	for _, r := range cs.Records {
		set[r.Path] = struct{}{}
	}
	return set
}

// Lookup returns the record for path.
func (cs ChangeSet) Lookup(path string) (Record, bool) {
	for _, r := range cs.Records {
		if r.Path == path {
			return r, true
		}
	}
	return Record{}, false
}

// Rename is a staged rename from one path to another.
type Rename struct {
	From string
	To   string
}

// Raw holds paths as git reports them, one slice per raw category.
// A path may appear in more than one slice.
type Raw struct {
	StagedAdded      []string
	StagedModified   []string
	StagedDeleted    []string
	StagedRenamed    []Rename
	UnstagedModified []string
	Untracked        []string
}

// Classify collapses raw categories into a ChangeSet.
//
// Categories are consumed in priority order Added > Modified > Deleted >
// Renamed > Untracked and the first category that claims a path wins.
// Unstaged modifications share the Modified rank with staged ones.
func Classify(raw Raw) ChangeSet {
	var cs ChangeSet
	seen := make(map[string]struct{})

	claim := func(path string, s Status, oldPath string) {
		if path == "" {
			return
		}
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		cs.Records = append(cs.Records, Record{Path: path, Status: s, OldPath: oldPath})
		cs.Counts.add(s)
	}

	for _, p := range raw.StagedAdded {
		claim(p, StatusAdded, "")
	}
	for _, p := range raw.StagedModified {
		claim(p, StatusModified, "")
	}
	for _, p := range raw.UnstagedModified {
		claim(p, StatusModified, "")
	}
	for _, p := range raw.StagedDeleted {
		claim(p, StatusDeleted, "")
	}
	for _, r := range raw.StagedRenamed {
		claim(r.To, StatusRenamed, r.From)
	}
	for _, p := range raw.Untracked {
		claim(p, StatusUntracked, "")
	}

	return cs
}

// Sorted returns a copy of cs ordered by path. Used for stable display only;
// budget allocation always follows the classification order.
func (cs ChangeSet) Sorted() ChangeSet {
	out := ChangeSet{Records: make([]Record, len(cs.Records)), Counts: cs.Counts}
	copy(out.Records, cs.Records)
	sort.SliceStable(out.Records, func(i, j int) bool {
		return out.Records[i].Path < out.Records[j].Path
	})
	return out
}
