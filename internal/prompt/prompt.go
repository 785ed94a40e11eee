// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt holds the agent instructions and composes the brief sent to
// an agent.
package prompt

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/bartekus/gencommit/internal/diff"
)

//go:embed templates/prompts.yaml
var promptsYAML []byte

//go:embed templates/schema.json
var schemaJSON []byte

// Type selects which instruction set an agent receives.
type Type string

const (
	Commit   Type = "commit"
	Feedback Type = "feedback"
	Jira     Type = "jira"
)

// Flavor selects the instruction dialect. Claude replies are schema-bound,
// cursor replies use the delimiter grammar.
type Flavor string

const (
	FlavorClaude Flavor = "claude"
	FlavorCursor Flavor = "cursor"
)

type templateSet map[Flavor]map[Type]string

var (
	loadOnce  sync.Once
	templates templateSet
	loadErr   error
)

func load() (templateSet, error) {
	loadOnce.Do(func() {
		var ts templateSet
		if err := yaml.Unmarshal(promptsYAML, &ts); err != nil {
			loadErr = errors.Wrap(err, "parsing embedded prompts")
			return
		}
		templates = ts
	})
	return templates, loadErr
}

// Template returns the instructions for flavor f and prompt type t.
func Template(f Flavor, t Type) (string, error) {
	ts, err := load()
	if err != nil {
		return "", err
	}
	text, ok := ts[f][t]
	if !ok {
		return "", errors.Newf("no %s prompt for %s", t, f)
	}
	return strings.TrimRight(text, "\n"), nil
}

// JSONSchema returns the commits schema in compact form, suitable for a
// single command-line argument.
func JSONSchema() string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, schemaJSON); err != nil {
		panic(fmt.Sprintf("embedded schema is invalid: %v", err))
	}
	return buf.String()
}

// Languages are the natural languages requested for titles and bodies.
type Languages struct {
	Title   string `json:"title_lang" yaml:"title_lang"`
	Message string `json:"message_lang" yaml:"message_lang"`
}

// TruncationMarker is appended to a brief that was cut to fit.
const TruncationMarker = "\n\n[INPUT TRUNCATED - Original size: %d bytes]"

// Brief is the text handed to an agent.
type Brief struct {
	Text         string `json:"-" yaml:"-"`
	OriginalSize int    `json:"original_size" yaml:"original_size"`
	Truncated    bool   `json:"truncated" yaml:"truncated"`
}

// Size is the byte length of the final text.
func (b Brief) Size() int { return len(b.Text) }

// Compose builds
//
//	TITLE_LANG: <title>
//	MESSAGE_LANG: <message>
//
//	<summary><diff>
//
// and, when the result exceeds maxInputSize bytes, keeps the longest valid
// UTF-8 prefix within the limit followed by TruncationMarker.
func Compose(langs Languages, summary string, ext diff.Extraction, maxInputSize int) Brief {
	var b strings.Builder
	fmt.Fprintf(&b, "TITLE_LANG: %s\nMESSAGE_LANG: %s\n\n", langs.Title, langs.Message)
	b.WriteString(summary)
	if !ext.Skipped && ext.Text != "" {
		if summary != "" && !strings.HasSuffix(summary, "\n") {
			b.WriteString("\n")
		}
		b.WriteString(ext.Text)
	}

	text := b.String()
	brief := Brief{Text: text, OriginalSize: len(text)}
	if maxInputSize > 0 && len(text) > maxInputSize {
		brief.Text = cut(text, maxInputSize) + fmt.Sprintf(TruncationMarker, len(text))
		brief.Truncated = true
	}
	return brief
}

// cut returns the longest prefix of s of at most n bytes that does not split
// a rune.
func cut(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Followup builds the input for a feedback or jira round. previous is the raw
// reply being revised and may be empty.
func Followup(t Type, extra, previous string, brief Brief) string {
	var b strings.Builder
	switch t {
	case Feedback:
		fmt.Fprintf(&b, "FEEDBACK: %s\n\n", strings.TrimSpace(extra))
	case Jira:
		fmt.Fprintf(&b, "JIRA_KEYS: %s\n\n", strings.TrimSpace(extra))
	}
	if previous != "" {
		fmt.Fprintf(&b, "PREVIOUS_RESPONSE:\n%s\n\n", strings.TrimSpace(previous))
	}
	b.WriteString(brief.Text)
	return b.String()
}
