package graph

import (
	"sort"
	"strings"
)

// FindCycles walks a from -> []to adjacency map and returns the dependency
// cycles it finds, each as an ordered id path (without repeating the first
// id at the end). Cycles are normalized to start at their smallest id and
// deduplicated, so output is deterministic for a given graph.
//
// DFS with coloring: white (unvisited), gray (on the current path),
// black (done). Hitting a gray node closes a cycle. One pass reports each
// distinct cycle once; it does not enumerate every rotation of overlapping
// cycles.
func FindCycles(adj map[string][]string) [][]string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int)
	var stack []string
	onStack := make(map[string]int) // id -> index in stack

	var cycles [][]string
	seen := make(map[string]bool)

	record := func(cycle []string) {
		norm := normalizeCycle(cycle)
		key := strings.Join(norm, " -> ")
		if !seen[key] {
			seen[key] = true
			cycles = append(cycles, norm)
		}
	}

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		onStack[node] = len(stack)
		stack = append(stack, node)

		for _, next := range adj[node] {
			switch color[next] {
			case gray:
				start := onStack[next]
				cycle := make([]string, len(stack)-start)
				copy(cycle, stack[start:])
				record(cycle)
			case white:
				dfs(next)
			}
		}

		stack = stack[:len(stack)-1]
		delete(onStack, node)
		color[node] = black
	}

	// Sort roots for deterministic detection order.
	ids := make([]string, 0, len(adj))
	for id := range adj {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if color[id] == white {
			dfs(id)
		}
	}
	return cycles
}

// normalizeCycle rotates a cycle so it starts at its lexicographically
// smallest id, preserving edge direction. Makes equal cycles comparable
// regardless of where detection entered them.
func normalizeCycle(cycle []string) []string {
	if len(cycle) == 0 {
		return cycle
	}

	minIdx := 0
	for i, id := range cycle {
		if id < cycle[minIdx] {
			minIdx = i
		}
	}

	norm := make([]string, 0, len(cycle))
	norm = append(norm, cycle[minIdx:]...)
	norm = append(norm, cycle[:minIdx]...)
	return norm
}
