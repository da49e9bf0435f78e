package types

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextRevision(t *testing.T) {
	format := regexp.MustCompile(`^\d+-[0-9a-f]{32}$`)

	first := NextRevision("")
	assert.Regexp(t, format, first)
	assert.Equal(t, 1, RevisionGeneration(first))

	second := NextRevision(first)
	assert.Regexp(t, format, second)
	assert.Equal(t, 2, RevisionGeneration(second))
	assert.NotEqual(t, first, second)
}

func TestRevisionGeneration(t *testing.T) {
	tests := map[string]int{
		"":          0,
		"garbage":   0,
		"x-abc":     0,
		"-1-abc":    0,
		"7-abcdef":  7,
		"12-0a0b0c": 12,
	}
	for rev, want := range tests {
		assert.Equal(t, want, RevisionGeneration(rev), rev)
	}
}

func TestNewDocumentIDIsUUIDv7(t *testing.T) {
	id := NewDocumentID()
	assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[0-9a-f]{4}-[0-9a-f]{12}$`, id)
}
