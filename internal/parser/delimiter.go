// SPDX-License-Identifier: AGPL-3.0-or-later

package parser

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/bartekus/gencommit/internal/commit"
)

// Marker opens every commit block.
const Marker = "===COMMIT==="

const (
	labelFiles   = "FILES:"
	labelTitle   = "TITLE:"
	labelMessage = "MESSAGE:"

	// fence opens and closes a Markdown code block.
	fence = "```"
)

// ParseDelimiter decodes a sequence of blocks of the form
//
//	===COMMIT===
//	FILES: a.go, b.go
//	TITLE: feat(x): subject
//	MESSAGE: body that may continue
//	over several lines
//
// Text before the first marker is ignored. A block that lacks any label,
// or lists them out of order, fails the whole parse.
func ParseDelimiter(raw string) (commit.Result, error) {
	if strings.TrimSpace(raw) == "" {
		return commit.Result{}, fail(ErrEmptyResponse, "nothing to parse")
	}

	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	var blocks [][]string
	var cur []string
	open, fenced := false, false
	for _, line := range lines {
		if !open && strings.HasPrefix(strings.TrimSpace(line), fence) {
			fenced = true
		}
		if strings.TrimSpace(line) == Marker {
			if open {
				blocks = append(blocks, cur)
			}
			cur = nil
			open = true
			continue
		}
		if open {
			cur = append(cur, line)
		}
	}
	if open {
		if fenced {
			cur = dropClosingFence(cur)
		}
		blocks = append(blocks, cur)
	}

	if len(blocks) == 0 {
		return commit.Result{}, fail(ErrNoCommitBlocks, "expected at least one %s line", Marker)
	}

	out := commit.Result{Commits: make([]commit.Proposal, 0, len(blocks))}
	for i, b := range blocks {
		p, err := parseBlock(b)
		if err != nil {
			return commit.Result{}, errors.WithHint(
				errors.Mark(errors.Wrapf(err, "commit block %d", i+1), ErrMalformedBlock),
				regenerateHint)
		}
		out.Commits = append(out.Commits, p)
	}
	return out, nil
}

type blockReader struct {
	lines []string
	pos   int
}

// field consumes the next non-blank line, which must start with label.
func (r *blockReader) field(label string) (string, error) {
	for r.pos < len(r.lines) && strings.TrimSpace(r.lines[r.pos]) == "" {
		r.pos++
	}
	if r.pos >= len(r.lines) {
		return "", errors.Newf("missing %s line", label)
	}
	line := strings.TrimSpace(r.lines[r.pos])
	if !strings.HasPrefix(line, label) {
		return "", errors.Newf("expected %s line, got %q", label, line)
	}
	r.pos++
	return strings.TrimSpace(line[len(label):]), nil
}

func parseBlock(lines []string) (commit.Proposal, error) {
	r := &blockReader{lines: lines}

	filesValue, err := r.field(labelFiles)
	if err != nil {
		return commit.Proposal{}, err
	}
	files := splitFiles(filesValue)
	if len(files) == 0 {
		return commit.Proposal{}, errors.New("FILES line lists no paths")
	}

	title, err := r.field(labelTitle)
	if err != nil {
		return commit.Proposal{}, err
	}

	first, err := r.field(labelMessage)
	if err != nil {
		return commit.Proposal{}, err
	}
	rest := append([]string{first}, r.lines[r.pos:]...)
	message := strings.TrimSpace(strings.Join(rest, "\n"))

	return commit.Proposal{Files: files, Title: title, Message: message}, nil
}

// dropClosingFence removes the fence line that closes a reply wrapped in a
// code block, along with blank lines after it.
func dropClosingFence(lines []string) []string {
	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	if end > 0 && strings.TrimSpace(lines[end-1]) == fence {
		return lines[:end-1]
	}
	return lines
}

func splitFiles(v string) []string {
	var out []string
	for _, f := range strings.Split(v, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return dedupe(out)
}

// FormatDelimiter renders r in the block grammar read by ParseDelimiter.
func FormatDelimiter(r commit.Result) string {
	var b strings.Builder
	for i, c := range r.Commits {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(Marker + "\n")
		b.WriteString(labelFiles + " " + strings.Join(c.Files, ", ") + "\n")
		b.WriteString(labelTitle + " " + c.Title + "\n")
		b.WriteString(labelMessage + " " + c.Message + "\n")
	}
	return b.String()
}
