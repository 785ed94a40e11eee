// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bartekus/gencommit/internal/changeset"
	"github.com/bartekus/gencommit/internal/commit"
	"github.com/bartekus/gencommit/internal/validate"
)

var (
	colorPrimary = lipgloss.Color("#00afff")
	colorSuccess = lipgloss.Color("#00d75f")
	colorWarning = lipgloss.Color("#ffaf00")
	colorError   = lipgloss.Color("#ff5f5f")
	colorMuted   = lipgloss.Color("#8a8a8a")
)

// Styles are bound to one output so colour is only emitted to terminals.
type Styles struct {
	Heading lipgloss.Style
	Title   lipgloss.Style
	File    lipgloss.Style
	Message lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// NewStyles detects the colour profile of w.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Heading: r.NewStyle().Bold(true).Foreground(colorPrimary),
		Title:   r.NewStyle().Bold(true),
		File:    r.NewStyle().Foreground(colorMuted),
		Message: r.NewStyle(),
		Muted:   r.NewStyle().Foreground(colorMuted),
		Success: r.NewStyle().Foreground(colorSuccess),
		Warning: r.NewStyle().Foreground(colorWarning),
		Error:   r.NewStyle().Foreground(colorError),
	}
}

// Proposals writes a numbered listing of commits. Each file is prefixed with
// its status code from cs when known.
func Proposals(w io.Writer, s Styles, commits []commit.Proposal, cs changeset.ChangeSet) {
	fmt.Fprintln(w, s.Heading.Render(fmt.Sprintf("Proposed commits (%d)", len(commits))))
	for i, c := range commits {
		fmt.Fprintln(w)
		title := s.Title.Render(c.Title)
		if !validate.IsConventional(c.Title) {
			title += " " + s.Warning.Render("(not conventional)")
		}
		fmt.Fprintf(w, "%d. %s\n", i+1, title)
		for _, f := range c.Files {
			code := " "
			if rec, ok := cs.Lookup(f); ok {
				code = string(rec.Status)
			}
			fmt.Fprintf(w, "   %s\n", s.File.Render(code+" "+f))
		}
		if msg := strings.TrimSpace(c.Message); msg != "" {
			for _, line := range strings.Split(msg, "\n") {
				fmt.Fprintln(w, "    "+s.Message.Render(line))
			}
		}
	}
}

// Unassigned warns about changed files no commit covers.
func Unassigned(w io.Writer, s Styles, paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, s.Warning.Render(fmt.Sprintf("%d changed file(s) are not in any commit and stay uncommitted:", len(paths))))
	fmt.Fprint(w, List(paths, "  "))
}
