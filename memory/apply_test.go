package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyUpdateConcatenates(t *testing.T) {
	facts := []string{"my favorite color is blue"}
	d := Delta{Update: []Update{{Old: "my favorite", New: "pizza"}}}

	got := Apply(facts, d)
	assert.Equal(t, []string{"my favorite color is blue pizza"}, got)
	assert.NotContains(t, got, "my favorite pizza")
	assert.Equal(t, []string{"my favorite color is blue"}, facts, "input must not be modified")
}

func TestApplyAddIsIdempotent(t *testing.T) {
	d := Delta{Add: []string{"I like tea"}}

	once := Apply(nil, d)
	twice := Apply(once, d)

	assert.Equal(t, []string{"I like tea"}, twice)
}

func TestApplyNearDuplicatesAreKept(t *testing.T) {
	got := Apply([]string{"I like tea"}, Delta{Add: []string{"I like Tea", "I like tea "}})

	assert.Equal(t, []string{"I like tea", "I like Tea", "I like tea "}, got)
}

func TestApplyOrderRemoveUpdateAdd(t *testing.T) {
	facts := []string{"my name is Alex", "I live in Rome"}
	d := Delta{
		Remove: []string{"MY NAME"},
		Update: []Update{{Old: "i live in", New: "now Paris"}},
		Add:    []string{"my name is Sam"},
	}

	assert.Equal(t, []string{"I live in Rome now Paris", "my name is Sam"}, Apply(facts, d))
}

func TestApplyUpdateCollapsesDuplicates(t *testing.T) {
	facts := []string{"I want x", "I want x"}
	got := Apply(facts, Delta{Update: []Update{{Old: "I want", New: "y"}}})

	assert.Equal(t, []string{"I want x y"}, got)
}

func TestApplyEmptyDeltaReturnsEmptyList(t *testing.T) {
	got := Apply(nil, Delta{})

	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.True(t, Delta{}.Empty())
}
