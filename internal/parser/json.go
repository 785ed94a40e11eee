// SPDX-License-Identifier: AGPL-3.0-or-later

package parser

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/bartekus/gencommit/internal/commit"
)

type jsonPayload struct {
	Commits []jsonCommit `json:"commits"`
}

type jsonCommit struct {
	Files   []string `json:"files"`
	Title   string   `json:"title"`
	Message string   `json:"message"`
}

// ParseJSON decodes {"commits":[{"files":[...],"title":"...","message":"..."}]}.
//
// Field types are not coerced: files must already be an array of strings.
// A single surrounding Markdown code fence is tolerated.
func ParseJSON(raw string) (commit.Result, error) {
	text := stripFence(strings.TrimSpace(raw))

	var p jsonPayload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		wrapped := errors.Wrap(err, "decoding commit payload")
		return commit.Result{}, errors.WithHint(errors.Mark(wrapped, ErrMalformedPayload), regenerateHint)
	}
	if len(p.Commits) == 0 {
		return commit.Result{}, fail(ErrMissingCommits, "commits missing or empty")
	}

	out := commit.Result{Commits: make([]commit.Proposal, 0, len(p.Commits))}
	for i, c := range p.Commits {
		if len(c.Files) == 0 {
			return commit.Result{}, fail(ErrMalformedPayload, "commit %d lists no files", i+1)
		}
		for _, f := range c.Files {
			if strings.TrimSpace(f) == "" {
				return commit.Result{}, fail(ErrMalformedPayload, "commit %d has an empty file entry", i+1)
			}
		}
		out.Commits = append(out.Commits, commit.Proposal{
			Files:   dedupe(c.Files),
			Title:   c.Title,
			Message: c.Message,
		})
	}
	return out, nil
}

// stripFence removes one ```lang ... ``` wrapper if the whole text is fenced.
func stripFence(s string) string {
	if !strings.HasPrefix(s, fence) || !strings.HasSuffix(s, fence) || len(s) < 2*len(fence) {
		return s
	}
	body := strings.TrimSuffix(s, fence)
	nl := strings.IndexByte(body, '\n')
	if nl < 0 {
		return s
	}
	return strings.TrimSpace(body[nl+1:])
}
