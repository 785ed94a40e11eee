// SPDX-License-Identifier: AGPL-3.0-or-later

// Package diff collects per-file diffs for the agent brief under two nested
// byte budgets: the global input budget left over after the tree summary, and
// the dedicated diff budget.
package diff

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/bartekus/gencommit/internal/changeset"
	"github.com/bartekus/gencommit/internal/logging"
)

// Budget holds the two cooperating caps, in bytes of UTF-8 text.
type Budget struct {
	MaxInputSize int `json:"max_input_size" yaml:"max_input_size"`
	MaxDiffSize  int `json:"max_diff_size" yaml:"max_diff_size"`
}

// ErrInvalidBudget is returned when the diff cap exceeds the input cap.
var ErrInvalidBudget = errors.New("invalid budget")

// Validate checks MaxDiffSize <= MaxInputSize and both positive.
func (b Budget) Validate() error {
	if b.MaxInputSize <= 0 || b.MaxDiffSize <= 0 {
		return errors.Wrapf(ErrInvalidBudget, "sizes must be positive (input=%d diff=%d)", b.MaxInputSize, b.MaxDiffSize)
	}
	if b.MaxDiffSize > b.MaxInputSize {
		return errors.Wrapf(ErrInvalidBudget, "max diff size %d exceeds max input size %d", b.MaxDiffSize, b.MaxInputSize)
	}
	return nil
}

// Source returns the unified diff text for one changed path.
type Source interface {
	FileDiff(ctx context.Context, rec changeset.Record) (string, error)
}

// Extraction is the outcome of one extraction pass.
type Extraction struct {
	Text string `json:"-" yaml:"-"`
	// Skipped is set when the summary alone consumed the input budget and
	// no diff was requested at all.
	Skipped  bool     `json:"skipped" yaml:"skipped"`
	Cap      int      `json:"cap" yaml:"cap"`
	Included []string `json:"included" yaml:"included"`
	Omitted  []string `json:"omitted,omitempty" yaml:"omitted,omitempty"`
}

// Size is the byte length of the extracted text.
func (e Extraction) Size() int { return len(e.Text) }

// Truncated reports whether any file was left out for lack of budget.
func (e Extraction) Truncated() bool { return len(e.Omitted) > 0 }

// Header is the line that introduces one file's diff.
func Header(rec changeset.Record) string {
	return fmt.Sprintf("=== %s %s ===\n", rec.Status, rec.Path)
}

// Extractor pulls diffs from a Source.
type Extractor struct {
	Source Source
}

// NewExtractor creates an Extractor over src.
func NewExtractor(src Source) *Extractor {
	return &Extractor{Source: src}
}

// Extract builds the diff text that follows summary in the agent brief.
//
// When the summary already fills MaxInputSize the result is Skipped and the
// source is never consulted. Otherwise records are visited in change-set
// order; the first file whose chunk would overflow min(remaining,
// MaxDiffSize) is dropped whole and every later file is dropped with it.
func (x *Extractor) Extract(ctx context.Context, summary string, cs changeset.ChangeSet, budget Budget) (Extraction, error) {
	log := logging.FromContext(ctx)

	remaining := budget.MaxInputSize - len(summary)
	if remaining <= 0 {
		log.Debug("diff extraction skipped, summary fills input budget",
			zap.Int("summary_bytes", len(summary)),
			zap.Int("max_input_size", budget.MaxInputSize))
		return Extraction{Skipped: true}, nil
	}

	limit := min(remaining, budget.MaxDiffSize)
	out := Extraction{Cap: limit, Included: []string{}}
	buf := make([]byte, 0, limit)

	for i, rec := range cs.Records {
		chunk := Header(rec)
		if rec.Status != changeset.StatusDeleted {
			body, err := x.Source.FileDiff(ctx, rec)
			if err != nil {
				return Extraction{}, errors.Wrapf(err, "reading diff for %s", rec.Path)
			}
			chunk += body
			if body != "" && body[len(body)-1] != '\n' {
				chunk += "\n"
			}
		}

		if len(buf)+len(chunk) > limit {
			for _, r := range cs.Records[i:] {
				out.Omitted = append(out.Omitted, r.Path)
			}
			log.Debug("diff budget reached",
				zap.String("path", rec.Path),
				zap.Int("chunk_bytes", len(chunk)),
				zap.Int("used_bytes", len(buf)),
				zap.Int("cap", limit),
				zap.Int("omitted", len(out.Omitted)))
			break
		}

		buf = append(buf, chunk...)
		out.Included = append(out.Included, rec.Path)
	}

	out.Text = string(buf)
	return out, nil
}
