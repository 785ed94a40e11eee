// SPDX-License-Identifier: AGPL-3.0-or-later

// Package interactive shows proposals and asks the user what to do with them.
package interactive

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/bartekus/gencommit/internal/changeset"
	"github.com/bartekus/gencommit/internal/commit"
	"github.com/bartekus/gencommit/internal/gitrepo"
	"github.com/bartekus/gencommit/internal/jira"
	"github.com/bartekus/gencommit/internal/logging"
	"github.com/bartekus/gencommit/internal/pipeline"
	"github.com/bartekus/gencommit/internal/prompt"
	"github.com/bartekus/gencommit/internal/render"
	"github.com/bartekus/gencommit/internal/session"
)

// ErrNotInteractive is returned when a choice is needed but stdin is not a
// terminal.
var ErrNotInteractive = errors.New("stdin is not a terminal")

// Mode selects how the loop resolves proposals.
type Mode int

const (
	// Ask prompts for a choice.
	Ask Mode = iota
	// Yes applies the first valid proposal without asking.
	Yes
	// DryRun prints proposals and stops.
	DryRun
)

// Proposer regenerates proposals.
type Proposer interface {
	Propose(ctx context.Context, snap *pipeline.Snapshot, t prompt.Type, extra, previous string) (*pipeline.Proposal, error)
}

// Applier turns proposals into commits.
type Applier interface {
	Apply(ctx context.Context, commits []commit.Proposal, cs changeset.ChangeSet) ([]gitrepo.Applied, error)
}

// Loop holds the collaborators of one interactive session.
type Loop struct {
	Proposer Proposer
	Applier  Applier
	In       io.Reader
	Out      io.Writer
	Mode     Mode
	// IsTerminal reports whether In is attached to a terminal.
	IsTerminal func() bool
}

// Outcome is how the loop ended.
type Outcome struct {
	Status   session.Status
	Proposal *pipeline.Proposal
	Applied  []gitrepo.Applied
}

// StdinIsTerminal reports whether the process's stdin is a terminal.
func StdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Run shows prop and acts on the user's choice until the proposals are
// applied or the user cancels. Failed regenerations keep the previous
// proposal on screen.
func (l *Loop) Run(ctx context.Context, snap *pipeline.Snapshot, prop *pipeline.Proposal) (Outcome, error) {
	log := logging.FromContext(ctx)
	styles := render.NewStyles(l.Out)
	in := bufio.NewReader(l.In)

	for {
		render.Proposals(l.Out, styles, prop.Result.Commits, snap.ChangeSet)
		render.Unassigned(l.Out, styles, prop.Unassigned)
		fmt.Fprintln(l.Out)

		switch l.Mode {
		case DryRun:
			return Outcome{Status: session.StatusDryRun, Proposal: prop}, nil
		case Yes:
			return l.apply(ctx, snap, prop, styles)
		}
		if l.IsTerminal != nil && !l.IsTerminal() {
			return Outcome{Proposal: prop}, errors.WithHint(ErrNotInteractive,
				"pass --yes to apply the proposal or --dry-run to only print it")
		}

		choice, ok := ask(in, l.Out, "Apply these commits? [y]es / [n]o / [f]eedback / [t]icket: ")
		if !ok {
			return Outcome{Status: session.StatusCancelled, Proposal: prop}, nil
		}

		var t prompt.Type
		var extra string
		switch strings.ToLower(choice) {
		case "y", "yes":
			return l.apply(ctx, snap, prop, styles)
		case "n", "no", "q":
			fmt.Fprintln(l.Out, styles.Muted.Render("Cancelled. Nothing was committed."))
			return Outcome{Status: session.StatusCancelled, Proposal: prop}, nil
		case "f", "feedback":
			text, ok := ask(in, l.Out, "Feedback: ")
			if !ok {
				return Outcome{Status: session.StatusCancelled, Proposal: prop}, nil
			}
			if text == "" {
				continue
			}
			t, extra = prompt.Feedback, text
		case "t", "ticket", "jira":
			text, ok := ask(in, l.Out, "Jira issue URLs or keys: ")
			if !ok {
				return Outcome{Status: session.StatusCancelled, Proposal: prop}, nil
			}
			keys := jira.ExtractKeys(text)
			if len(keys) == 0 {
				fmt.Fprintln(l.Out, styles.Warning.Render("No Jira keys found in that input."))
				continue
			}
			t, extra = prompt.Jira, jira.FormatKeys(keys)
		default:
			fmt.Fprintln(l.Out, styles.Warning.Render(fmt.Sprintf("Unknown choice %q.", choice)))
			continue
		}

		fmt.Fprintln(l.Out, styles.Muted.Render("Regenerating..."))
		next, err := l.Proposer.Propose(ctx, snap, t, extra, prop.Raw)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return Outcome{Status: session.StatusCancelled, Proposal: prop}, err
			}
			log.Debug("regeneration failed", zap.Error(err))
			fmt.Fprintln(l.Out, styles.Error.Render("Regeneration failed: "+err.Error()))
			continue
		}
		prop = next
	}
}

func (l *Loop) apply(ctx context.Context, snap *pipeline.Snapshot, prop *pipeline.Proposal, styles render.Styles) (Outcome, error) {
	applied, err := l.Applier.Apply(ctx, prop.Result.Commits, snap.ChangeSet)
	for _, a := range applied {
		fmt.Fprintln(l.Out, styles.Success.Render(fmt.Sprintf("[%s] %s", a.Hash, a.Title)))
	}
	out := Outcome{Status: session.StatusApplied, Proposal: prop, Applied: applied}
	if err != nil {
		out.Status = session.StatusFailed
		return out, err
	}
	fmt.Fprintln(l.Out, styles.Success.Render(fmt.Sprintf("Created %d commit(s).", len(applied))))
	return out, nil
}

// ask prints label and reads one trimmed line. ok is false at end of input
// with nothing read.
func ask(in *bufio.Reader, out io.Writer, label string) (string, bool) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return "", false
	}
	return strings.TrimSpace(line), true
}
