// SPDX-License-Identifier: AGPL-3.0-or-later

// Package parser decodes agent replies into commit.Result.
//
// Two grammars are supported: a JSON payload produced by agents that honour a
// JSON schema, and a plain-text format made of ===COMMIT=== blocks. The caller
// picks the grammar from the provider that produced the reply; the two shapes
// are never sniffed from content.
package parser

import (
	"github.com/cockroachdb/errors"

	"github.com/bartekus/gencommit/internal/commit"
)

// Error kinds. Every parse failure is marked with exactly one of these so
// callers can match with errors.Is.
var (
	ErrMalformedPayload = errors.New("malformed commit payload")
	ErrMissingCommits   = errors.New("payload has no commits")
	ErrEmptyResponse    = errors.New("empty agent response")
	ErrNoCommitBlocks   = errors.New("no commit blocks in agent response")
	ErrMalformedBlock   = errors.New("malformed commit block")
)

const regenerateHint = "the agent reply could not be used as-is; regenerate to get a well-formed answer"

// Format names a reply grammar.
type Format string

const (
	FormatJSON      Format = "json"
	FormatDelimited Format = "delimiter"
)

// DecodeFunc turns a raw reply into a Result.
type DecodeFunc func(raw string) (commit.Result, error)

// Decoder returns the decoder for f.
func Decoder(f Format) (DecodeFunc, error) {
	switch f {
	case FormatJSON:
		return ParseJSON, nil
	case FormatDelimited:
		return ParseDelimiter, nil
	default:
		return nil, errors.Newf("unknown reply format %q", f)
	}
}

// Parse decodes raw with the grammar named by f.
func Parse(f Format, raw string) (commit.Result, error) {
	dec, err := Decoder(f)
	if err != nil {
		return commit.Result{}, err
	}
	return dec(raw)
}

func fail(kind error, format string, args ...any) error {
	return errors.WithHint(errors.Wrapf(kind, format, args...), regenerateHint)
}

func dedupe(files []string) []string {
	seen := make(map[string]struct{}, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
