// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/bartekus/gencommit/internal/commit"
)

// Status is the outcome of a run.
type Status string

const (
	StatusProposed  Status = "proposed"
	StatusApplied   Status = "applied"
	StatusCancelled Status = "cancelled"
	StatusDryRun    Status = "dry-run"
	StatusFailed    Status = "failed"
)

// Attempt records one agent round trip.
type Attempt struct {
	Prompt string `json:"prompt"`
	Raw    string `json:"raw"`
	Error  string `json:"error,omitempty"`
}

// LastRun is the record kept at <git-dir>/gencommit/last-run.json.
type LastRun struct {
	RunID     string            `json:"run_id"`
	StartedAt time.Time         `json:"started_at"`
	Provider  string            `json:"provider"`
	Model     string            `json:"model"`
	Branch    string            `json:"branch"`
	Status    Status            `json:"status"`
	Attempts  []Attempt         `json:"attempts"`
	Commits   []commit.Proposal `json:"commits,omitempty"`
	Applied   []string          `json:"applied,omitempty"` // short hashes, in commit order
	Error     string            `json:"error,omitempty"`
}

// NewRun starts a record with a fresh id.
func NewRun(provider, model, branch string) *LastRun {
	return &LastRun{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Provider:  provider,
		Model:     model,
		Branch:    branch,
		Status:    StatusProposed,
	}
}

// Record appends an attempt.
func (r *LastRun) Record(prompt, raw string, err error) {
	a := Attempt{Prompt: prompt, Raw: raw}
	if err != nil {
		a.Error = err.Error()
	}
	r.Attempts = append(r.Attempts, a)
}

// Raw is the reply of the latest attempt.
func (r *LastRun) Raw() string {
	if len(r.Attempts) == 0 {
		return ""
	}
	return r.Attempts[len(r.Attempts)-1].Raw
}

// Fail marks the run failed with err.
func (r *LastRun) Fail(err error) {
	r.Status = StatusFailed
	if err != nil {
		r.Error = err.Error()
	}
}
