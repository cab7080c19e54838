package lspiv

import (
	"math"
	"sort"
)

type rankedItem[T any] struct {
	value T
	score float64
	seq   uint64
}

// rankedList keeps items in descending score order, so index 0 is the best one.
// Equal scores keep insertion order: earlier items rank first and are evicted last.
type rankedList[T any] []rankedItem[T]

func (l rankedList[T]) Len() int { return len(l) }

func (l rankedList[T]) less(a, b rankedItem[T]) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.seq < b.seq
}

// Insert puts item into its sorted position and returns that position.
// The complexity of the search is O(log n) where n = l.Len().
func (l *rankedList[T]) Insert(value T, score float64, seq uint64) int {
	if math.IsNaN(score) {
		score = math.Inf(-1)
	}
	item := rankedItem[T]{value: value, score: score, seq: seq}
	h := *l
	idx := sort.Search(len(h), func(i int) bool {
		return l.less(item, h[i])
	})
	h = append(h, rankedItem[T]{})
	copy(h[idx+1:], h[idx:])
	h[idx] = item
	*l = h
	return idx
}

// Best returns the highest ranked item
func (l rankedList[T]) Best() (rankedItem[T], bool) {
	if len(l) == 0 {
		return rankedItem[T]{}, false
	}
	return l[0], true
}

// PopWorst removes and returns the lowest ranked item
func (l *rankedList[T]) PopWorst() (rankedItem[T], bool) {
	h := *l
	n := len(h)
	if n == 0 {
		return rankedItem[T]{}, false
	}
	last := h[n-1]
	h[n-1] = rankedItem[T]{}
	*l = h[:n-1]
	return last, true
}

// Truncate keeps the n best items and returns removed ones (best first)
func (l *rankedList[T]) Truncate(n int) []rankedItem[T] {
	h := *l
	if n < 0 {
		n = 0
	}
	if n >= len(h) {
		return nil
	}
	removed := make([]rankedItem[T], len(h)-n)
	copy(removed, h[n:])
	for i := n; i < len(h); i++ {
		h[i] = rankedItem[T]{}
	}
	*l = h[:n]
	return removed
}

// Values returns underlying values in rank order
func (l rankedList[T]) Values() []T {
	values := make([]T, len(l))
	for i := range l {
		values[i] = l[i].value
	}
	return values
}

// Scores returns scores in rank order
func (l rankedList[T]) Scores() []float64 {
	scores := make([]float64, len(l))
	for i := range l {
		scores[i] = l[i].score
	}
	return scores
}
