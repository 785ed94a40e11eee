// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tree renders changed paths as a compact, deterministic report
// suitable for an LLM prompt.
package tree

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/bartekus/gencommit/internal/changeset"
)

const (
	DefaultCompressionThreshold = 10
	DefaultTreeDepth            = 3

	// maxBreakdown is how many extensions a mixed group lists before
	// folding the rest into "+N other".
	maxBreakdown = 3

	noExtension = "(none)"
	rootPrefix  = "."
)

// Options controls when and how grouping activates.
type Options struct {
	CompressionThreshold int
	TreeDepth            int
}

// DefaultOptions returns the stock summarizer options.
func DefaultOptions() Options {
	return Options{
		CompressionThreshold: DefaultCompressionThreshold,
		TreeDepth:            DefaultTreeDepth,
	}
}

func (o Options) normalized() Options {
	if o.CompressionThreshold <= 0 {
		o.CompressionThreshold = DefaultCompressionThreshold
	}
	if o.TreeDepth <= 0 {
		o.TreeDepth = DefaultTreeDepth
	}
	return o
}

// group is the aggregate for one truncated directory prefix.
type group struct {
	prefix string
	count  int
	exts   map[string]int
}

type extCount struct {
	ext   string
	count int
}

// Summarize renders paths that share one status code.
//
// Up to CompressionThreshold paths are listed one per line as "<code> <path>"
// in input order. Above the threshold paths are grouped by their directory
// truncated to TreeDepth segments and each group is emitted as a single line.
// The output never depends on map iteration order.
func Summarize(paths []string, code changeset.Status, opts Options) string {
	if len(paths) == 0 {
		return ""
	}
	opts = opts.normalized()

	if len(paths) <= opts.CompressionThreshold {
		lines := make([]string, 0, len(paths))
		for _, p := range paths {
			lines = append(lines, fmt.Sprintf("%s %s", code, p))
		}
		return strings.Join(lines, "\n")
	}

	groups := groupPaths(paths, opts.TreeDepth)
	lines := make([]string, 0, len(groups))
	for _, g := range groups {
		lines = append(lines, fmt.Sprintf("%s %s/ (%d files: %s)", code, g.prefix, g.count, pattern(g)))
	}
	return strings.Join(lines, "\n")
}

func groupPaths(paths []string, depth int) []*group {
	index := make(map[string]*group)
	var groups []*group

	for _, p := range paths {
		key := groupKey(p, depth)
		g, ok := index[key]
		if !ok {
			g = &group{prefix: key, exts: make(map[string]int)}
			index[key] = g
			groups = append(groups, g)
		}
		g.count++
		g.exts[extension(p)]++
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].prefix < groups[j].prefix
	})
	return groups
}

// groupKey truncates the directory of p to at most depth segments.
// Files at the repository root share the "." group.
func groupKey(p string, depth int) string {
	p = strings.Trim(p, "/")
	dir := path.Dir(p)
	if dir == "." || dir == "" {
		return rootPrefix
	}
	segs := strings.Split(dir, "/")
	if len(segs) > depth {
		segs = segs[:depth]
	}
	return strings.Join(segs, "/")
}

// extension is the text after the last '.' of the file name, case preserved.
func extension(p string) string {
	base := path.Base(p)
	i := strings.LastIndex(base, ".")
	if i < 0 || i == len(base)-1 {
		return noExtension
	}
	return base[i+1:]
}

func pattern(g *group) string {
	exts := make([]extCount, 0, len(g.exts))
	for e, c := range g.exts {
		exts = append(exts, extCount{ext: e, count: c})
	}
	sort.Slice(exts, func(i, j int) bool {
		if exts[i].count != exts[j].count {
			return exts[i].count > exts[j].count
		}
		return exts[i].ext < exts[j].ext
	})

	if len(exts) == 1 {
		return glob(exts[0].ext)
	}

	shown := exts
	if len(shown) > maxBreakdown {
		shown = exts[:maxBreakdown]
	}
	parts := make([]string, 0, len(shown)+1)
	for _, e := range shown {
		parts = append(parts, fmt.Sprintf("%s %d", glob(e.ext), e.count))
	}
	if rest := len(exts) - len(shown); rest > 0 {
		parts = append(parts, fmt.Sprintf("+%d other", rest))
	}
	return strings.Join(parts, ", ")
}

func glob(ext string) string {
	if ext == noExtension {
		return noExtension
	}
	return "*." + ext
}

// FullSummary renders the branch header, the per-status counts and one
// section per non-empty status in canonical order.
func FullSummary(branch string, cs changeset.ChangeSet, opts Options) string {
	var b strings.Builder

	fmt.Fprintf(&b, "BRANCH: %s\n", branch)
	c := cs.Counts
	fmt.Fprintf(&b, "CHANGES: %d files (A:%d M:%d D:%d R:%d ?:%d)\n",
		c.Total, c.Added, c.Modified, c.Deleted, c.Renamed, c.Untracked)

	for _, s := range changeset.Order {
		paths := cs.PathsWithStatus(s)
		if len(paths) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n[%s] %d\n", s.Label(), len(paths))
		b.WriteString(Summarize(paths, s, opts))
		b.WriteString("\n")
	}

	return b.String()
}
