// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

// Model is one selectable model of an agent CLI.
type Model struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

var catalogue = map[Kind][]Model{
	ClaudeCode: {
		{Name: "haiku", Description: "Claude Haiku (default, fast)"},
		{Name: "sonnet", Description: "Claude Sonnet (balanced)"},
		{Name: "opus", Description: "Claude Opus (powerful)"},
	},
	CursorCLI: {
		{Name: "claude-4.5-sonnet", Description: "Claude 4.5 Sonnet (default)"},
		{Name: "claude-4-opus", Description: "Claude 4 Opus"},
		{Name: "gpt-4.1", Description: "GPT-4.1"},
		{Name: "gpt-4o", Description: "GPT-4o"},
		{Name: "o3", Description: "OpenAI o3"},
		{Name: "o4-mini", Description: "OpenAI o4-mini"},
		{Name: "gemini-2.5-pro", Description: "Gemini 2.5 Pro"},
		{Name: "gemini-2.5-flash", Description: "Gemini 2.5 Flash"},
	},
}

// Models lists the known models for kind, default first.
func Models(kind Kind) ([]Model, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	out := make([]Model, len(catalogue[kind]))
	copy(out, catalogue[kind])
	return out, nil
}

// DefaultModel is the model used when none is configured.
func DefaultModel(kind Kind) string {
	if ms := catalogue[kind]; len(ms) > 0 {
		return ms[0].Name
	}
	return ""
}
