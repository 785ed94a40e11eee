// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bartekus/gencommit/cmd/gencommit/internal/clierr"
	"github.com/bartekus/gencommit/internal/provider"
	"github.com/bartekus/gencommit/internal/render"
)

// newStatusCommand returns the `gencommit status <provider>` command.
func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <provider>",
		Short: "Check that a provider's agent CLI is installed",
		Args:  requireProvider,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.newProvider(args[0], nil)
			if err != nil {
				return err
			}
			st := p.Status(cmd.Context())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Provider:  %s\n", p.Kind())
			fmt.Fprintf(out, "Available: %t\n", st.Available)
			if st.Version != "" {
				fmt.Fprintf(out, "Version:   %s\n", st.Version)
			}
			fmt.Fprintf(out, "Details:   %s\n", st.Details)
			if !st.Available {
				return clierr.Newf(clierr.CodeFailure, "%s is not available", p.Kind())
			}
			return nil
		},
	}
}

// newLoginCommand returns the `gencommit login <provider>` command.
func newLoginCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login <provider>",
		Short: "Run the provider's own login flow",
		Args:  requireProvider,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.newProvider(args[0], nil)
			if err != nil {
				return err
			}
			if err := p.Login(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s.\n", p.Kind())
			return nil
		},
	}
}

// newModelsCommand returns the `gencommit models <provider>` command.
func newModelsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models <provider>",
		Short: "List the models a provider accepts",
		Args:  requireProvider,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := provider.ParseKind(args[0])
			if err != nil {
				return err
			}
			models, err := provider.Models(kind)
			if err != nil {
				return err
			}
			def := provider.DefaultModel(kind)
			rows := make([][]string, 0, len(models))
			for _, m := range models {
				mark := ""
				if m.Name == def {
					mark = "*"
				}
				rows = append(rows, []string{m.Name, m.Description, mark})
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), render.Table([]string{"Model", "Description", "Default"}, rows))
			return err
		},
	}
}
