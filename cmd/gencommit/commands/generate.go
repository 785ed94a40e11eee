// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bartekus/gencommit/internal/interactive"
	"github.com/bartekus/gencommit/internal/logging"
	"github.com/bartekus/gencommit/internal/pipeline"
	"github.com/bartekus/gencommit/internal/prompt"
	"github.com/bartekus/gencommit/internal/session"
)

// runGenerate is the root command: summarize, ask the agent, let the user
// decide and apply.
func (a *app) runGenerate(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	ctx := cmd.Context()
	log := logging.FromContext(ctx)
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	repo, err := a.openRepo()
	if err != nil {
		return err
	}
	cfg, err := a.loadConfig(cmd, repo.Root())
	if err != nil {
		return err
	}
	p, err := a.newProvider(args[0], cfg)
	if err != nil {
		return err
	}
	defer p.ClearSession()

	warnRemote(ctx, errOut, repo, a.fetch)

	branch, err := repo.Branch()
	if err != nil {
		return err
	}
	run := session.NewRun(string(p.Kind()), p.Model(), branch)
	store := session.ForGitDir(repo.GitDir())

	pl := &pipeline.Pipeline{
		Repo:     repo,
		Provider: p,
		Config:   cfg,
		OnAttempt: func(t prompt.Type, raw string, err error) {
			run.Record(string(t), raw, err)
		},
	}

	snap, err := pl.Prepare(ctx)
	if errors.Is(err, pipeline.ErrNothingToCommit) {
		fmt.Fprintln(out, "Nothing to commit, working tree clean.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(errOut, "Asking %s (%s) to group %d changed file(s)...\n", p.Kind(), p.Model(), snap.ChangeSet.Counts.Total)
	prop, err := pl.Propose(ctx, snap, prompt.Commit, "", "")
	if err != nil {
		run.Fail(err)
		a.save(cmd, store, run)
		return err
	}

	mode := interactive.Ask
	switch {
	case a.dryRun:
		mode = interactive.DryRun
	case a.yes:
		mode = interactive.Yes
	}
	loop := &interactive.Loop{
		Proposer:   pl,
		Applier:    repo,
		In:         cmd.InOrStdin(),
		Out:        out,
		Mode:       mode,
		IsTerminal: a.IsTerminal,
	}
	outcome, err := loop.Run(ctx, snap, prop)

	run.Status = outcome.Status
	if outcome.Proposal != nil {
		run.Commits = outcome.Proposal.Result.Commits
	}
	for _, ap := range outcome.Applied {
		run.Applied = append(run.Applied, ap.Hash)
	}
	if err != nil {
		run.Fail(err)
	}
	a.save(cmd, store, run)
	log.Debug("run finished", zap.String("run_id", run.RunID), zap.String("status", string(run.Status)))
	return err
}

// save records run; a failure to persist never fails the command.
func (a *app) save(cmd *cobra.Command, store *session.Store, run *session.LastRun) {
	if err := store.Write(run); err != nil {
		logging.FromContext(cmd.Context()).Warn("could not save last run", zap.String("path", store.Path()), zap.Error(err))
	}
}
