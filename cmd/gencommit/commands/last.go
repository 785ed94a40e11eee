// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bartekus/gencommit/internal/changeset"
	"github.com/bartekus/gencommit/internal/render"
)

// newLastCommand returns the `gencommit last` command.
func newLastCommand(a *app) *cobra.Command {
	var asJSON, raw, reset bool
	cmd := &cobra.Command{
		Use:   "last",
		Short: "Show the last run in this repository",
		Long:  "Shows the record of the last gencommit run, kept in the repository's git directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			store, err := a.store()
			if err != nil {
				return err
			}
			if reset {
				return store.Reset()
			}

			last, err := store.Read()
			if err != nil {
				return err
			}

			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(last)
			}

			if last == nil {
				fmt.Fprintln(out, "No previous run found.")
				return nil
			}

			if raw {
				fmt.Fprintln(out, last.Raw())
				return nil
			}

			fmt.Fprintf(out, "Run:      %s\n", last.RunID)
			fmt.Fprintf(out, "Started:  %s\n", last.StartedAt.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Provider: %s (%s)\n", last.Provider, last.Model)
			fmt.Fprintf(out, "Branch:   %s\n", last.Branch)
			fmt.Fprintf(out, "Status:   %s\n", last.Status)
			fmt.Fprintf(out, "Attempts: %d\n", len(last.Attempts))
			if last.Error != "" {
				fmt.Fprintf(out, "Error:    %s\n", last.Error)
			}
			if len(last.Applied) > 0 {
				fmt.Fprintln(out, "Applied:")
				fmt.Fprint(out, render.List(last.Applied, "  "))
			}
			if len(last.Commits) > 0 {
				fmt.Fprintln(out)
				render.Proposals(out, render.NewStyles(out), last.Commits, changeset.ChangeSet{})
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full record as JSON")
	cmd.Flags().BoolVar(&raw, "raw", false, "print only the last agent reply")
	cmd.Flags().BoolVar(&reset, "clear", false, "delete the stored record")
	cmd.MarkFlagsMutuallyExclusive("json", "raw", "clear")
	return cmd
}
