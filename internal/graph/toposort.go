package graph

import (
	"container/heap"
	"fmt"

	"github.com/modmap/modmap/internal/model"
)

// Sequence produces a deterministic linear ordering of the condensed
// graph: for every edge u→v, u precedes v. Groups with no ordering
// constraint between them come out in canonical group order, which is
// (file path, declaration order) of their first member — independent of
// map iteration order.
//
// A cycle in the condensed graph cannot occur after a correct
// condensation; if one is detected anyway the run must abort, so the
// error wraps model.ErrInvariant.
func Sequence(c *Condensed) ([]int, error) {
	n := len(c.Groups)
	indegree := make([]int, n)
	for _, succs := range c.Edges {
		for _, v := range succs {
			indegree[v]++
		}
	}

	ready := &intHeap{}
	heap.Init(ready)
	for v := 0; v < n; v++ {
		if indegree[v] == 0 {
			heap.Push(ready, v)
		}
	}

	order := make([]int, 0, n)
	for ready.Len() > 0 {
		u := heap.Pop(ready).(int)
		order = append(order, u)
		for _, v := range c.Edges[u] {
			indegree[v]--
			if indegree[v] == 0 {
				heap.Push(ready, v)
			}
		}
	}

	if len(order) != n {
		return nil, fmt.Errorf("%w: cycle survives condensation (%d of %d groups ordered)",
			model.ErrInvariant, len(order), n)
	}
	return order, nil
}

// OrderedGroups returns the groups of c in the given sequence order.
func OrderedGroups(c *Condensed, order []int) []model.Group {
	groups := make([]model.Group, len(order))
	for i, gi := range order {
		groups[i] = c.Groups[gi]
	}
	return groups
}

type intHeap []int

func (h intHeap) Len() int            { return len(h) }
func (h intHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h intHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *intHeap) Push(x interface{}) { *h = append(*h, x.(int)) }
func (h *intHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
