// SPDX-License-Identifier: AGPL-3.0-or-later

package clierr

import (
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/bartekus/gencommit/internal/config"
	"github.com/bartekus/gencommit/internal/gitrepo"
	"github.com/bartekus/gencommit/internal/interactive"
	"github.com/bartekus/gencommit/internal/pipeline"
	"github.com/bartekus/gencommit/internal/provider"
)

var usageKinds = []error{
	config.ErrInvalidConfig,
	provider.ErrUnknownProvider,
	interactive.ErrNotInteractive,
}

var gitKinds = []error{
	gitrepo.ErrNotRepository,
	gitrepo.ErrGit,
}

// Classify attaches the exit code for err's kind. Errors that already carry
// a code are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var ec ExitCoder
	if errors.As(err, &ec) {
		return err
	}
	code := CodeFailure
	switch {
	case errors.IsAny(err, usageKinds...):
		code = CodeUsage
	case pipeline.IsReplyError(err):
		code = CodeReply
	case errors.IsAny(err, gitKinds...):
		code = CodeGit
	}
	return Wrap(code, "", err)
}

// Print writes err and its hints the way main reports failures.
func Print(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	for _, h := range errors.GetAllHints(err) {
		for _, line := range strings.Split(strings.TrimSpace(h), "\n") {
			fmt.Fprintf(w, "Hint: %s\n", line)
		}
	}
}
