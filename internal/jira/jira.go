// SPDX-License-Identifier: AGPL-3.0-or-later

// Package jira finds issue keys in free text such as pasted browse URLs.
package jira

import (
	"regexp"
	"strings"
)

var (
	keyPattern   = regexp.MustCompile(`[A-Za-z0-9]+-\d+`)
	validPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]*-\d+$`)
)

// ExtractKeys returns every issue key in input, deduplicated, in order of
// first appearance.
func ExtractKeys(input string) []string {
	matches := keyPattern.FindAllString(input, -1)
	seen := make(map[string]struct{}, len(matches))
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		keys = append(keys, m)
	}
	return keys
}

// FormatKeys joins keys with ", ".
func FormatKeys(keys []string) string {
	return strings.Join(keys, ", ")
}

// HasKeys reports whether input contains at least one key.
func HasKeys(input string) bool {
	return keyPattern.MatchString(input)
}

// IsValidKey reports whether key is a canonical PROJECT-123 key.
func IsValidKey(key string) bool {
	return validPattern.MatchString(key)
}
