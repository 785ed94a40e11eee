// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bartekus/gencommit/internal/config"
	"github.com/bartekus/gencommit/internal/gitrepo"
	"github.com/bartekus/gencommit/internal/logging"
	"github.com/bartekus/gencommit/internal/provider"
	"github.com/bartekus/gencommit/internal/session"
)

// app holds flag values shared across commands.
type app struct {
	deps

	verbose    bool
	configFile string
	dir        string
	yes        bool
	dryRun     bool
	fetch      bool
}

func (a *app) openRepo() (*gitrepo.Repo, error) {
	return gitrepo.Open(a.dir, gitrepo.Options{})
}

// loadConfig resolves configuration for cmd. root is the repository root and
// may be empty outside a repository.
func (a *app) loadConfig(cmd *cobra.Command, root string) (*config.Config, error) {
	var dirs []string
	if root != "" {
		dirs = append(dirs, root)
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}
	cfg, err := config.Load(config.LoadOptions{File: a.configFile, SearchDirs: dirs, Flags: cmd.Flags()})
	if err != nil {
		return nil, err
	}
	if cfg.Source != "" {
		logging.FromContext(cmd.Context()).Debug("configuration loaded", zap.String("file", cfg.Source))
	}
	return cfg, nil
}

// loadConfigAnywhere loads configuration with the enclosing repository's
// config file when there is one.
func (a *app) loadConfigAnywhere(cmd *cobra.Command) (*config.Config, error) {
	root := ""
	if repo, err := a.openRepo(); err == nil {
		root = repo.Root()
	}
	return a.loadConfig(cmd, root)
}

func (a *app) newProvider(name string, cfg *config.Config) (provider.Provider, error) {
	kind, err := provider.ParseKind(name)
	if err != nil {
		return nil, err
	}
	opts := provider.Options{Runner: a.AgentRunner}
	if cfg != nil {
		opts.Model = cfg.Model
		opts.Timeout = cfg.Timeout
	}
	return provider.New(kind, opts)
}

func (a *app) store() (*session.Store, error) {
	repo, err := a.openRepo()
	if err != nil {
		return nil, err
	}
	return session.ForGitDir(repo.GitDir()), nil
}

// warnRemote notes when the branch is behind or has diverged from its
// upstream, fetching first when fetch is set. Failures only reach the log.
func warnRemote(ctx context.Context, w io.Writer, repo *gitrepo.Repo, fetch bool) {
	log := logging.FromContext(ctx)
	stale := " (as of the last fetch; pass --fetch to refresh)"
	if fetch {
		if err := repo.Fetch(ctx); err != nil {
			log.Warn("fetch failed, using last fetched state", zap.Error(err))
		} else {
			stale = ""
		}
	}
	st, err := repo.Remote(ctx)
	if err != nil {
		log.Debug("remote status unavailable", zap.Error(err))
		return
	}
	switch {
	case st.Diverged():
		fmt.Fprintf(w, "warning: HEAD has diverged from %s (%d ahead, %d behind)%s\n", st.Upstream, st.Ahead, st.Behind, stale)
	case st.Behind > 0:
		fmt.Fprintf(w, "warning: HEAD is %d commit(s) behind %s%s\n", st.Behind, st.Upstream, stale)
	}
}

// requireProvider is the positional-argument check of provider commands.
func requireProvider(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.WithHint(
			errors.Mark(errors.Newf("%s needs exactly one provider argument", cmd.CommandPath()), provider.ErrUnknownProvider),
			"providers: "+providerList())
	}
	return nil
}
