// SPDX-License-Identifier: AGPL-3.0-or-later

package gitrepo

import (
	"context"
	"strconv"
	"strings"
)

// RemoteStatus compares the current branch with its upstream as last fetched.
type RemoteStatus struct {
	Upstream string `json:"upstream,omitempty" yaml:"upstream,omitempty"`
	Ahead    int    `json:"ahead" yaml:"ahead"`
	Behind   int    `json:"behind" yaml:"behind"`
}

// HasRemote reports whether an upstream is configured.
func (s RemoteStatus) HasRemote() bool { return s.Upstream != "" }

// Diverged reports commits on both sides.
func (s RemoteStatus) Diverged() bool { return s.Ahead > 0 && s.Behind > 0 }

// Fetch updates remote-tracking branches of the default remote.
func (r *Repo) Fetch(ctx context.Context) error {
	_, err := r.git(ctx, []string{"fetch", "--quiet"})
	return err
}

// Remote reports ahead/behind counts against the upstream branch as of the
// last fetch; call Fetch first for current numbers. A branch without
// upstream yields the zero RemoteStatus and no error.
func (r *Repo) Remote(ctx context.Context) (RemoteStatus, error) {
	up, err := r.git(ctx, []string{"rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{upstream}"})
	if err != nil {
		return RemoteStatus{}, nil
	}
	st := RemoteStatus{Upstream: strings.TrimSpace(up)}
	if st.Upstream == "" {
		return RemoteStatus{}, nil
	}

	counts, err := r.git(ctx, []string{"rev-list", "--left-right", "--count", "HEAD..." + st.Upstream})
	if err != nil {
		return st, err
	}
	st.Ahead, st.Behind = parseLeftRight(counts)
	return st, nil
}

func parseLeftRight(s string) (int, int) {
	f := strings.Fields(s)
	if len(f) != 2 {
		return 0, 0
	}
	a, _ := strconv.Atoi(f[0])
	b, _ := strconv.Atoi(f[1])
	return a, b
}
