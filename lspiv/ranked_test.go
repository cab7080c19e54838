package lspiv

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankedListOrder(t *testing.T) {
	var l rankedList[string]
	l.Insert("c", 1.0, 0)
	l.Insert("a", 5.0, 1)
	l.Insert("b", 3.0, 2)
	l.Insert("a2", 5.0, 3)
	assert.Equal(t, []string{"a", "a2", "b", "c"}, l.Values())
	assert.Equal(t, []float64{5, 5, 3, 1}, l.Scores())

	best, ok := l.Best()
	require.True(t, ok)
	assert.Equal(t, "a", best.value)

	worst, ok := l.PopWorst()
	require.True(t, ok)
	assert.Equal(t, "c", worst.value)
	assert.Equal(t, 3, l.Len())
}

func TestRankedListTieEvictsLatest(t *testing.T) {
	var l rankedList[int]
	for i := 0; i < 4; i++ {
		l.Insert(i, 2.0, uint64(i))
	}
	worst, _ := l.PopWorst()
	assert.Equal(t, 3, worst.value)
	assert.Equal(t, []int{0, 1, 2}, l.Values())
}

func TestRankedListTruncate(t *testing.T) {
	var l rankedList[int]
	scores := []float64{4, 8, 1, 9, 7, 3}
	for i, s := range scores {
		l.Insert(i, s, uint64(i))
	}
	removed := l.Truncate(3)
	require.Len(t, removed, 3)
	assert.Equal(t, []float64{9, 8, 7}, l.Scores())
	assert.Equal(t, 4.0, removed[0].score)
	assert.True(t, sort.SliceIsSorted(removed, func(i, j int) bool { return removed[i].score > removed[j].score }))

	assert.Nil(t, l.Truncate(10))
	assert.Len(t, l.Truncate(-1), 3)
	assert.Equal(t, 0, l.Len())

	_, ok := l.Best()
	assert.False(t, ok)
	_, ok = l.PopWorst()
	assert.False(t, ok)
}
