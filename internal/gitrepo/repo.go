// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gitrepo is the version-control boundary: repository discovery,
// working-tree status, per-file diffs and commit execution.
//
// Discovery and ref lookups use go-git. Status, diff and commit shell out to
// the git binary so rename detection, hooks and signing behave exactly as
// they do for the user.
package gitrepo

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"go.uber.org/zap"

	"github.com/bartekus/gencommit/internal/execx"
	"github.com/bartekus/gencommit/internal/logging"
)

var (
	// ErrNotRepository is returned when no repository encloses the start path.
	ErrNotRepository = errors.New("not a git repository")
	// ErrGit marks failures of the git binary.
	ErrGit = errors.New("git command failed")
)

// emptyTree is the well-known id of git's empty tree, used as the diff base
// before the first commit.
const emptyTree = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// Repo is an opened working tree.
type Repo struct {
	root    string
	gitDir  string
	repo    *git.Repository
	runner  execx.Runner
	timeout time.Duration
}

// Options configures Open.
type Options struct {
	Runner  execx.Runner
	Timeout time.Duration
}

// Open finds the repository enclosing path, walking up like git does.
func Open(path string, opts Options) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "resolving path")
	}
	r, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true, EnableDotGitCommonDir: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, errors.WithHint(errors.Wrapf(ErrNotRepository, "%s", abs),
				"run gencommit inside a git working tree")
		}
		return nil, errors.Wrap(err, "opening repository")
	}
	wt, err := r.Worktree()
	if err != nil {
		return nil, errors.Wrap(err, "bare repositories have no working tree")
	}

	repo := &Repo{
		root:    wt.Filesystem.Root(),
		repo:    r,
		runner:  opts.Runner,
		timeout: opts.Timeout,
	}
	if st, ok := r.Storer.(*filesystem.Storage); ok {
		repo.gitDir = st.Filesystem().Root()
	} else {
		repo.gitDir = filepath.Join(repo.root, ".git")
	}
	if repo.runner == nil {
		repo.runner = execx.New()
	}
	return repo, nil
}

// Root is the absolute working-tree root.
func (r *Repo) Root() string { return r.root }

// GitDir is the absolute path of the repository's git directory.
func (r *Repo) GitDir() string { return r.gitDir }

// Branch returns the short name of the checked-out branch, the branch HEAD
// points at before the first commit, or "HEAD" when detached.
func (r *Repo) Branch() (string, error) {
	head, err := r.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", errors.Wrap(err, "reading HEAD")
	}
	if head.Type() == plumbing.SymbolicReference {
		return head.Target().Short(), nil
	}
	return "HEAD", nil
}

// hasCommits reports whether HEAD resolves to a commit.
func (r *Repo) hasCommits() bool {
	_, err := r.repo.Head()
	return err == nil
}

// git runs the git binary in the working-tree root. Exit codes listed in ok
// are not treated as failures.
func (r *Repo) git(ctx context.Context, args []string, ok ...int) (string, error) {
	res, err := r.runner.Run(ctx, execx.Options{
		Name:    "git",
		Args:    args,
		Dir:     r.root,
		Timeout: r.timeout,
	})
	if err == nil {
		return res.Stdout, nil
	}
	for _, code := range ok {
		if res.ExitCode == code {
			return res.Stdout, nil
		}
	}
	logging.FromContext(ctx).Debug("git failed", zap.Strings("args", args), zap.Error(err))
	return "", errors.Mark(errors.Wrapf(err, "git %s", strings.Join(args, " ")), ErrGit)
}
