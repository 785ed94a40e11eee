// SPDX-License-Identifier: AGPL-3.0-or-later

/*
gencommit - turns a dirty git working tree into a set of proposed commits.
It summarizes the change set, asks a local agent CLI to group the files into
commits and applies the accepted proposal.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package commands contains the Cobra commands of the gencommit CLI.
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bartekus/gencommit/internal/config"
	"github.com/bartekus/gencommit/internal/execx"
	"github.com/bartekus/gencommit/internal/interactive"
	"github.com/bartekus/gencommit/internal/logging"
	"github.com/bartekus/gencommit/internal/provider"
)

// deps are the process-level collaborators of the commands.
type deps struct {
	// AgentRunner runs the agent CLIs. Git always uses the real binary.
	AgentRunner execx.Runner
	IsTerminal  func() bool
}

// NewRootCmd constructs the gencommit root Cobra command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(deps{
		AgentRunner: execx.New(),
		IsTerminal:  interactive.StdinIsTerminal,
	})
}

func newRootCmd(d deps) *cobra.Command {
	version := os.Getenv("GENCOMMIT_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	a := &app{deps: d}
	cmd := &cobra.Command{
		Use:   "gencommit <provider>",
		Short: "Propose and create commits for the current changes with an agent CLI",
		Long: `gencommit summarizes the working tree, asks an agent CLI to group the
changed files into commits and applies the proposal you accept.

Providers: ` + providerList() + `.`,
		Example: `  gencommit claude-code
  gencommit cursor-cli --lang en --dry-run
  gencommit summarize --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New(logging.Options{Verbose: a.verbose, Writer: cmd.ErrOrStderr()})
			cmd.SetContext(logging.WithLogger(cmd.Context(), log))
			return nil
		},
		RunE: a.runGenerate,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default: "+config.FileName+" in the repository root, then $HOME)")
	cmd.PersistentFlags().StringVarP(&a.dir, "dir", "C", ".", "run as if started in this directory")
	addConfigFlags(cmd.PersistentFlags())

	cmd.Flags().BoolVarP(&a.yes, "yes", "y", false, "apply the first valid proposal without asking")
	cmd.Flags().BoolVar(&a.dryRun, "dry-run", false, "print the proposal and exit without committing")
	cmd.Flags().BoolVar(&a.fetch, "fetch", false, "fetch from the remote before checking whether HEAD is behind its upstream")
	cmd.MarkFlagsMutuallyExclusive("yes", "dry-run")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of gencommit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "gencommit version %s\n", version)
		},
	})
	cmd.AddCommand(newSummarizeCommand(a))
	cmd.AddCommand(newStatusCommand(a))
	cmd.AddCommand(newLoginCommand(a))
	cmd.AddCommand(newModelsCommand(a))
	cmd.AddCommand(newLastCommand(a))
	cmd.AddCommand(newConfigCommand(a))

	return cmd
}

// addConfigFlags registers the flags that override configuration keys.
func addConfigFlags(fs *pflag.FlagSet) {
	d := config.Defaults()
	fs.String("lang", "", "language for both titles and messages (en, ko)")
	fs.String("title-lang", d.TitleLang, "language of commit titles (en, ko)")
	fs.String("message-lang", d.MessageLang, "language of commit messages (en, ko)")
	fs.String("model", d.Model, "agent model (default: the provider's default model)")
	fs.StringSlice("exclude-dir", nil, "directory to leave out of the change set (repeatable)")
	fs.Int("max-input-size", d.MaxInputSize, "byte limit of the brief sent to the agent")
	fs.Int("max-diff-size", d.MaxDiffSize, "byte limit of the diff part of the brief")
	fs.Int("tree-depth", d.TreeDepth, "directory depth used to group files in the summary")
	fs.Int("compression-threshold", d.CompressionThreshold, "files per status above which the summary is compressed")
	fs.Int("max-title-length", d.MaxTitleLength, "longest accepted commit title, in characters")
	fs.Duration("timeout", d.Timeout, "timeout of one agent call")
	fs.Int("max-retries", d.MaxRetries, "extra agent calls after an unusable reply")
}

func providerList() string {
	kinds := provider.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
