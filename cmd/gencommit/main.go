// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"os"

	"github.com/bartekus/gencommit/cmd/gencommit/commands"
	"github.com/bartekus/gencommit/cmd/gencommit/internal/clierr"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		err = clierr.Classify(err)
		clierr.Print(os.Stderr, err)
		os.Exit(clierr.ExitCodeOf(err))
	}
}
