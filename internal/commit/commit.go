// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commit holds the provider-agnostic commit proposal model.
package commit

// Proposal is one commit the agent suggests.
type Proposal struct {
	Files   []string `json:"files" yaml:"files"`
	Title   string   `json:"title" yaml:"title"`
	Message string   `json:"message" yaml:"message"`
}

// Result is the decoded agent reply. A successfully parsed Result always has
// at least one commit.
type Result struct {
	Commits []Proposal `json:"commits" yaml:"commits"`
}

// Files returns every referenced file in proposal order, without duplicates.
func (r Result) Files() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range r.Commits {
		for _, f := range c.Files {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}

// FileCount is the total number of file references across all commits.
func (r Result) FileCount() int {
	n := 0
	for _, c := range r.Commits {
		n += len(c.Files)
	}
	return n
}
