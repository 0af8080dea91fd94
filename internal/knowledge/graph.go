package knowledge

import (
	"errors"
)

// ErrCycleBudgetExceeded reports that simple-cycle enumeration hit its
// bound before finishing. Callers degrade to the neutral analysis.
var ErrCycleBudgetExceeded = errors.New("cycle enumeration budget exceeded")

// DiGraph is a small directed graph keyed by account identifier. Edge
// weights accumulate the total amount moved per (source, destination)
// pair. It replaces the dynamic-typing-friendly graph library the
// analysis was originally built on.
type DiGraph struct {
	out map[string]map[string]float64
	in  map[string]map[string]bool
}

// NewDiGraph creates an empty directed graph.
func NewDiGraph() *DiGraph {
	return &DiGraph{
		out: make(map[string]map[string]float64),
		in:  make(map[string]map[string]bool),
	}
}

// AddEdge inserts or accumulates a weighted edge from src to dst.
func (g *DiGraph) AddEdge(src, dst string, weight float64) {
	if g.out[src] == nil {
		g.out[src] = make(map[string]float64)
	}
	g.out[src][dst] += weight
	if g.in[dst] == nil {
		g.in[dst] = make(map[string]bool)
	}
	g.in[dst][src] = true

	// Register both endpoints as nodes even if they never appear on the
	// other side of an edge.
	if g.out[dst] == nil {
		g.out[dst] = make(map[string]float64)
	}
	if g.in[src] == nil {
		g.in[src] = make(map[string]bool)
	}
}

// HasNode reports whether the account appears in the graph.
func (g *DiGraph) HasNode(node string) bool {
	_, ok := g.out[node]
	return ok
}

// NodeCount returns the number of nodes.
func (g *DiGraph) NodeCount() int {
	return len(g.out)
}

// EdgeCount returns the number of distinct (source, destination) pairs.
func (g *DiGraph) EdgeCount() int {
	count := 0
	for _, targets := range g.out {
		count += len(targets)
	}
	return count
}

// DegreeCentrality returns the node's in-neighbor plus out-neighbor count
// normalized by (n - 1). Returns 0 for unknown nodes and trivial graphs.
func (g *DiGraph) DegreeCentrality(node string) float64 {
	n := g.NodeCount()
	if n <= 1 || !g.HasNode(node) {
		return 0
	}
	degree := len(g.out[node]) + len(g.in[node])
	return float64(degree) / float64(n-1)
}

// WeaklyConnectedComponents counts components ignoring edge direction.
func (g *DiGraph) WeaklyConnectedComponents() int {
	visited := make(map[string]bool, len(g.out))
	components := 0

	for start := range g.out {
		if visited[start] {
			continue
		}
		components++

		stack := []string{start}
		visited[start] = true
		for len(stack) > 0 {
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for next := range g.out[node] {
				if !visited[next] {
					visited[next] = true
					stack = append(stack, next)
				}
			}
			for prev := range g.in[node] {
				if !visited[prev] {
					visited[prev] = true
					stack = append(stack, prev)
				}
			}
		}
	}

	return components
}

// CyclesThrough counts the simple directed cycles that pass through the
// focus node. Every simple cycle containing the focus corresponds to
// exactly one simple path focus -> ... -> focus, so a depth-first walk
// from the focus enumerates them without a full Johnson traversal.
//
// The walk is bounded: paths longer than maxLen edges are not explored,
// and exceeding maxCycles aborts with ErrCycleBudgetExceeded.
func (g *DiGraph) CyclesThrough(focus string, maxLen, maxCycles int) (int, error) {
	if !g.HasNode(focus) {
		return 0, nil
	}
	if maxLen <= 0 {
		maxLen = 8
	}
	if maxCycles <= 0 {
		maxCycles = 64
	}

	cycles := 0
	onPath := map[string]bool{focus: true}

	var walk func(node string, depth int) error
	walk = func(node string, depth int) error {
		if depth >= maxLen {
			return nil
		}
		for next := range g.out[node] {
			if next == focus {
				cycles++
				if cycles > maxCycles {
					return ErrCycleBudgetExceeded
				}
				continue
			}
			if onPath[next] {
				continue
			}
			onPath[next] = true
			if err := walk(next, depth+1); err != nil {
				return err
			}
			delete(onPath, next)
		}
		return nil
	}

	if err := walk(focus, 0); err != nil {
		return 0, err
	}
	return cycles, nil
}
