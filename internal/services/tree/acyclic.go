// Package tree implements the recursive fund look-through: acyclicity
// validation, frontier expansion, value accumulation, and text enrichment.
package tree

import (
	"fmt"
	"strings"

	"github.com/fundops/lookthrough/internal/models"
)

// CycleError reports a cycle in the fund ownership graph. Expansion over a
// cycle would never terminate, so the run aborts before any expansion.
type CycleError struct {
	Cycle []string // fund ids in ownership order, first id repeated last
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("fund ownership graph contains a cycle: %s", strings.Join(e.Cycle, " -> "))
}

// ValidateAcyclic confirms the investor→investee fund relation forms a DAG
// by attempting a topological sort of the deduplicated edge set. On failure
// it extracts one concrete cycle and returns it as a *CycleError.
func ValidateAcyclic(funds *models.FundTable) error {
	edges := funds.Edges()
	if len(edges) == 0 {
		return nil
	}

	succ := make(map[string][]string)
	pred := make(map[string][]string)
	indeg := make(map[string]int)
	var nodes []string
	addNode := func(id string) {
		if _, ok := indeg[id]; !ok {
			indeg[id] = 0
			nodes = append(nodes, id)
		}
	}
	for _, e := range edges {
		addNode(e.Investor)
		addNode(e.Investee)
		succ[e.Investor] = append(succ[e.Investor], e.Investee)
		pred[e.Investee] = append(pred[e.Investee], e.Investor)
		indeg[e.Investee]++
	}

	// Kahn's algorithm
	remaining := make(map[string]int, len(indeg))
	for id, d := range indeg {
		remaining[id] = d
	}
	var queue []string
	for _, id := range nodes {
		if remaining[id] == 0 {
			queue = append(queue, id)
		}
	}
	sorted := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		sorted++
		for _, next := range succ[id] {
			remaining[next]--
			if remaining[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	if sorted == len(nodes) {
		return nil
	}

	return &CycleError{Cycle: findCycle(nodes, pred, remaining)}
}

// findCycle walks predecessor edges through the residual graph (nodes whose
// in-degree never reached zero) until a node repeats. A residual node always
// keeps at least one residual predecessor, so the walk cannot stall, and a
// repeat closes a cycle. The path follows edges backwards, so the extracted
// cycle is reversed into investor→investee order.
func findCycle(nodes []string, pred map[string][]string, remaining map[string]int) []string {
	residual := func(id string) bool { return remaining[id] > 0 }

	var start string
	for _, id := range nodes {
		if residual(id) {
			start = id
			break
		}
	}

	var path []string
	seen := make(map[string]int)
	current := start
	for {
		if at, ok := seen[current]; ok {
			cycle := append([]string{}, path[at:]...)
			cycle = append(cycle, current)
			for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
				cycle[i], cycle[j] = cycle[j], cycle[i]
			}
			return cycle
		}
		seen[current] = len(path)
		path = append(path, current)

		for _, cand := range pred[current] {
			if residual(cand) {
				current = cand
				break
			}
		}
	}
}
