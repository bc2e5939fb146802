package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggest(t *testing.T) {
	known := []string{"std::vector", "std::map", "std::unordered_map", "Task", "Task::TaskStatus", "Priority"}

	assert.Equal(t, []string{"std::vector"}, Suggest("std::vectr", known, 3))
	assert.Equal(t, []string{"Task::TaskStatus"}, Suggest("TaskStatos", known, 3))
	assert.Equal(t, []string{"Priority"}, Suggest("priorty", known, 3))
	assert.Empty(t, Suggest("Zebra", known, 3))

	// Exact matches are not suggestions.
	assert.NotContains(t, Suggest("Task", known, 0), "Task")
}

func TestRank_Order(t *testing.T) {
	ranked := Rank("Holdr", []string{"Holder", "Folder", "Holders"}, 0.5)
	require.NotEmpty(t, ranked)

	assert.Equal(t, "Holder", ranked[0].Name)

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}

	assert.Len(t, Suggest("Holdr", []string{"Holder", "Holders", "Holderz"}, 1), 1)
}
