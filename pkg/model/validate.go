package model

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// DanglingLinks returns every link whose source or target id is not present
// among the graph's nodes. A well-formed graph returns an empty slice; a
// non-empty result means referential integrity is violated.
func DanglingLinks(g Graph) []Link {
	ids := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = true
	}

	var dangling []Link
	for _, l := range g.Links {
		if !ids[l.Source] || !ids[l.Target] {
			dangling = append(dangling, l)
		}
	}
	return dangling
}

// Validate reports whether the graph satisfies its structural invariants:
// unique node ids, unique ordered link pairs, and no dangling links.
func Validate(g Graph) bool {
	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if seen[n.ID] {
			return false
		}
		seen[n.ID] = true
	}

	pairs := make(map[[2]string]bool, len(g.Links))
	for _, l := range g.Links {
		pair := [2]string{l.Source, l.Target}
		if pairs[pair] {
			return false
		}
		pairs[pair] = true
	}

	return len(DanglingLinks(g)) == 0
}

// Cycles returns groups of node ids that form cycles, found via strongly
// connected components. Dangling links are skipped so the query is safe on a
// transiently inconsistent graph.
func Cycles(g Graph) [][]string {
	dg := simple.NewDirectedGraph()

	idToNum := make(map[string]int64, len(g.Nodes))
	numToID := make(map[int64]string, len(g.Nodes))
	for i, n := range g.Nodes {
		num := int64(i)
		idToNum[n.ID] = num
		numToID[num] = n.ID
		dg.AddNode(simple.Node(num))
	}

	for _, l := range g.Links {
		from, okF := idToNum[l.Source]
		to, okT := idToNum[l.Target]
		if !okF || !okT || from == to {
			continue
		}
		dg.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
	}

	var cycles [][]string
	for _, scc := range topo.TarjanSCC(dg) {
		if len(scc) < 2 {
			continue
		}
		ids := make([]string, len(scc))
		for i, n := range scc {
			ids[i] = numToID[n.ID()]
		}
		cycles = append(cycles, ids)
	}
	return cycles
}
