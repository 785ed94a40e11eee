// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bartekus/gencommit/internal/changeset"
	"github.com/bartekus/gencommit/internal/config"
	"github.com/bartekus/gencommit/internal/diff"
	"github.com/bartekus/gencommit/internal/pipeline"
	"github.com/bartekus/gencommit/internal/prompt"
)

// summaryReport is the machine-readable form of a snapshot.
type summaryReport struct {
	Branch    string              `json:"branch" yaml:"branch"`
	Languages prompt.Languages    `json:"languages" yaml:"languages"`
	Changes   changeset.ChangeSet `json:"changes" yaml:"changes"`
	Summary   string              `json:"summary" yaml:"summary"`
	Diff      diffReport          `json:"diff" yaml:"diff"`
	Brief     prompt.Brief        `json:"brief" yaml:"brief"`
	Budget    diff.Budget         `json:"budget" yaml:"budget"`
}

type diffReport struct {
	diff.Extraction `yaml:",inline"`
	Size            int `json:"size" yaml:"size"`
}

// newSummarizeCommand returns the `gencommit summarize` command.
func newSummarizeCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Print the brief that would be sent to an agent",
		Long:  "Summarizes the working tree and extracts diffs within the configured budget without calling an agent.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			repo, err := a.openRepo()
			if err != nil {
				return err
			}
			cfg, err := a.loadConfig(cmd, repo.Root())
			if err != nil {
				return err
			}
			pl := &pipeline.Pipeline{Repo: repo, Config: cfg}
			snap, err := pl.Prepare(cmd.Context())
			if errors.Is(err, pipeline.ErrNothingToCommit) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Nothing to commit, working tree clean.")
				return nil
			}
			if err != nil {
				return err
			}

			switch format {
			case "text":
				_, err := fmt.Fprintln(out, snap.Brief.Text)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "brief: %d bytes, diff: %d bytes from %d file(s), %d omitted\n",
					snap.Brief.Size(), snap.Extraction.Size(), len(snap.Extraction.Included), len(snap.Extraction.Omitted))
				return nil
			case "json":
				data, err := json.MarshalIndent(report(snap, cfg), "", "  ")
				if err != nil {
					return errors.Wrap(err, "marshaling JSON")
				}
				_, err = out.Write(append(data, '\n'))
				return err
			case "yaml":
				data, err := yaml.Marshal(report(snap, cfg))
				if err != nil {
					return errors.Wrap(err, "marshaling YAML")
				}
				_, err = out.Write(data)
				return err
			default:
				return errors.Mark(errors.Newf("unknown format %q (use text, json or yaml)", format), config.ErrInvalidConfig)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json or yaml")
	return cmd
}

func report(snap *pipeline.Snapshot, cfg *config.Config) summaryReport {
	return summaryReport{
		Branch:    snap.Branch,
		Languages: cfg.Languages(),
		Changes:   snap.ChangeSet,
		Summary:   snap.Summary,
		Diff:      diffReport{Extraction: snap.Extraction, Size: snap.Extraction.Size()},
		Brief:     snap.Brief,
		Budget:    cfg.Budget(),
	}
}
