// SPDX-License-Identifier: AGPL-3.0-or-later

// Package validate checks parsed commit proposals against the real change set
// and the title policy.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"

	"github.com/bartekus/gencommit/internal/changeset"
	"github.com/bartekus/gencommit/internal/commit"
)

// DefaultMaxTitleLength is the title limit applied when none is configured.
const DefaultMaxTitleLength = 72

var (
	ErrUnknownFileReference = errors.New("commit references a file outside the change set")
	ErrTitleTooLong         = errors.New("commit title too long")
	ErrEmptyTitle           = errors.New("commit title is empty")
)

// UnknownFileError names the first offending path.
type UnknownFileError struct {
	Path        string
	CommitIndex int
}

func (e *UnknownFileError) Error() string {
	return fmt.Sprintf("commit %d: %q is not part of the change set", e.CommitIndex+1, e.Path)
}

// TitleError reports a title over the limit. Length and Max count runes.
type TitleError struct {
	CommitIndex int
	Length      int
	Max         int
}

func (e *TitleError) Error() string {
	return fmt.Sprintf("commit %d: title is %d characters, limit is %d", e.CommitIndex+1, e.Length, e.Max)
}

// FilesExist fails on the first file, in commit then file order, that is not
// in valid.
func FilesExist(commits []commit.Proposal, valid map[string]struct{}) error {
	for i, c := range commits {
		for _, f := range c.Files {
			if _, ok := valid[f]; ok {
				continue
			}
			return errors.WithHint(
				errors.Mark(&UnknownFileError{Path: f, CommitIndex: i}, ErrUnknownFileReference),
				"only files listed in the summary may appear in a commit")
		}
	}
	return nil
}

// TitleLength fails on the first empty title or the first title longer than
// maxLen runes. A non-positive maxLen selects DefaultMaxTitleLength.
func TitleLength(commits []commit.Proposal, maxLen int) error {
	if maxLen <= 0 {
		maxLen = DefaultMaxTitleLength
	}
	for i, c := range commits {
		if strings.TrimSpace(c.Title) == "" {
			return errors.Wrapf(ErrEmptyTitle, "commit %d", i+1)
		}
		if n := utf8.RuneCountInString(c.Title); n > maxLen {
			return errors.Mark(&TitleError{CommitIndex: i, Length: n, Max: maxLen}, ErrTitleTooLong)
		}
	}
	return nil
}

// Proposals runs FilesExist then TitleLength.
func Proposals(r commit.Result, valid map[string]struct{}, maxTitle int) error {
	if err := FilesExist(r.Commits, valid); err != nil {
		return err
	}
	return TitleLength(r.Commits, maxTitle)
}

var conventional = regexp.MustCompile(`^[a-z]+(\([^()\s]+\))?!?: \S`)

// IsConventional reports whether title looks like "type(scope): subject".
func IsConventional(title string) bool {
	return conventional.MatchString(title)
}

// Unassigned lists change-set paths that no commit references, in change-set
// order.
func Unassigned(commits []commit.Proposal, cs changeset.ChangeSet) []string {
	used := make(map[string]struct{})
	for _, c := range commits {
		for _, f := range c.Files {
			used[f] = struct{}{}
		}
	}
	var out []string
	for _, p := range cs.Paths() {
		if _, ok := used[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}
