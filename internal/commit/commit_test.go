package commit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult_Files(t *testing.T) {
	r := Result{Commits: []Proposal{
		{Files: []string{"a.go", "b.go"}, Title: "feat: a"},
		{Files: []string{"b.go", "c.go"}, Title: "fix: c"},
	}}

	assert.Equal(t, []string{"a.go", "b.go", "c.go"}, r.Files())
	assert.Equal(t, 4, r.FileCount())
	assert.Nil(t, Result{}.Files())
}
