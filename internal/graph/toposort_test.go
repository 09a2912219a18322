package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modmap/modmap/internal/model"
)

func TestSequenceRespectsEdges(t *testing.T) {
	t.Parallel()

	g := testGraph([]string{"a", "b", "c", "d"}, [][2]string{
		{"c", "a"}, {"d", "b"}, {"a", "b"},
	})
	order, err := Sequence(Condense(g))
	require.NoError(t, err)

	pos := make(map[int]int, len(order))
	for i, gi := range order {
		pos[gi] = i
	}
	// c before a, a before b, d before b.
	assert.Less(t, pos[2], pos[0])
	assert.Less(t, pos[0], pos[1])
	assert.Less(t, pos[3], pos[1])
}

func TestSequenceTieBreakIsCanonicalOrder(t *testing.T) {
	t.Parallel()

	// No edges at all: the sequence must be exactly canonical group order.
	g := testGraph([]string{"a", "b", "c", "d"}, nil)
	c := Condense(g)

	order, err := Sequence(c)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, order)
}

func TestSequenceCollapsedCycle(t *testing.T) {
	t.Parallel()

	g := testGraph([]string{"a", "b", "c"}, [][2]string{
		{"a", "b"}, {"b", "a"}, {"b", "c"},
	})
	c := Condense(g)

	order, err := Sequence(c)
	require.NoError(t, err)
	groups := OrderedGroups(c, order)
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"a", "b"}, groups[0].EntityIDs)
	assert.Equal(t, []string{"c"}, groups[1].EntityIDs)
}

func TestSequenceRejectsCyclicInput(t *testing.T) {
	t.Parallel()

	// Hand-built condensed graph with a cycle, which a real condensation
	// can never produce.
	c := &Condensed{
		Groups: []model.Group{{ID: "a"}, {ID: "b"}},
		Edges:  [][]int{{1}, {0}},
	}
	_, err := Sequence(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvariant)
}

func TestSequenceDeterministic(t *testing.T) {
	t.Parallel()

	g := testGraph([]string{"a", "b", "c", "d", "e"}, [][2]string{
		{"a", "c"}, {"b", "c"}, {"c", "d"}, {"c", "e"},
	})
	c := Condense(g)

	first, err := Sequence(c)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		order, err := Sequence(c)
		require.NoError(t, err)
		assert.Equal(t, first, order)
	}
}
