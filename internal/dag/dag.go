// Package dag maintains the directed dependency graph implied by relation
// formulas: an edge A -> B means parameter B's forward relation reads a
// value that parameter A settles. The graph offers cycle detection over the
// whole table and ordered walks of the part affected by a change.
package dag

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// CycleError reports a circular relation dependency. Cycles are authoring
// bugs in the definition file, not runtime transients, so they are surfaced
// to the operator rather than retried.
type CycleError struct {
	Node string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("relation cycle detected involving %q", e.Node)
}

// node is a single parameter in the graph. Ids are case-folded; parameter
// names in the source data appear in mixed case.
type node struct {
	id         string
	deps       map[string]*node
	dependents map[string]*node
}

// Graph is a mutex-guarded dependency graph. The resolver mutates it only
// while building; afterwards it is read-only, but display layers may query
// it concurrently with a resolution pass.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]*node
}

// New returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*node)}
}

func canon(id string) string {
	return strings.ToUpper(id)
}

// AddNode adds a node with the given id. Adding an existing id is a no-op.
func (g *Graph) AddNode(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := canon(id)
	if _, ok := g.nodes[key]; ok {
		return
	}
	g.nodes[key] = &node{
		id:         key,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
}

// AddEdge records that toID depends on fromID. Both nodes must exist, and a
// node may not depend on itself.
func (g *Graph) AddEdge(fromID, toID string) error {
	from, to := canon(fromID), canon(toID)
	if from == to {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", from, from)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	fromNode, ok := g.nodes[from]
	if !ok {
		return fmt.Errorf("source node not found: %s", from)
	}
	toNode, ok := g.nodes[to]
	if !ok {
		return fmt.Errorf("destination node not found: %s", to)
	}

	toNode.deps[from] = fromNode
	fromNode.dependents[to] = toNode
	return nil
}

// Dependencies returns the ids the given node depends on, sorted.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[canon(id)]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", canon(id))
	}
	return sortedKeys(n.deps), nil
}

// Dependents returns the ids that depend on the given node, sorted.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[canon(id)]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", canon(id))
	}
	return sortedKeys(n.dependents), nil
}

// DetectCycles checks the whole graph and returns a *CycleError naming the
// first node found on a cycle, or nil.
func (g *Graph) DetectCycles() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	// Classic depth-first search with three node sets: permanent nodes are
	// fully visited and known safe, temporary nodes are on the current
	// recursion stack, everything else is unvisited.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil
		}
		if temporary[n.id] {
			return &CycleError{Node: n.id}
		}

		temporary[n.id] = true
		for _, dep := range sortedNodes(n.dependents) {
			if err := visit(dep); err != nil {
				return err
			}
		}
		delete(temporary, n.id)
		permanent[n.id] = true
		return nil
	}

	for _, id := range sortedKeys(g.nodes) {
		if !permanent[id] {
			if err := visit(g.nodes[id]); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolution states for the Affected walk.
const (
	unresolved = iota
	resolving
	resolved
)

// Affected returns every node strictly downstream of the changed set, in an
// order where each node appears only after all of its in-closure
// dependencies. The changed nodes themselves are excluded: they were set
// externally and do not need recomputing. Re-entering a node that is still
// resolving signals a cycle.
func (g *Graph) Affected(changed ...string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seed := make(map[string]bool, len(changed))
	for _, id := range changed {
		key := canon(id)
		if _, ok := g.nodes[key]; !ok {
			return nil, fmt.Errorf("node not found: %s", key)
		}
		seed[key] = true
	}

	state := make(map[string]int)
	var order []string

	var visit func(n *node) error
	visit = func(n *node) error {
		switch state[n.id] {
		case resolved:
			return nil
		case resolving:
			return &CycleError{Node: n.id}
		}

		state[n.id] = resolving
		for _, dep := range sortedNodes(n.dependents) {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[n.id] = resolved
		if !seed[n.id] {
			order = append(order, n.id)
		}
		return nil
	}

	roots := make([]string, 0, len(seed))
	for id := range seed {
		roots = append(roots, id)
	}
	sort.Strings(roots)
	for _, id := range roots {
		if err := visit(g.nodes[id]); err != nil {
			return nil, err
		}
	}

	// The post-order walk emits dependents before the nodes they depend on;
	// reverse it to get recomputation order.
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}

// Order returns a full topological order of the graph, dependencies first.
func (g *Graph) Order() ([]string, error) {
	g.mu.RLock()
	all := sortedKeys(g.nodes)
	g.mu.RUnlock()

	// Roots are nodes with no dependencies; walking Affected from them
	// covers the whole graph but skips the roots, so prepend them.
	var roots []string
	for _, id := range all {
		deps, err := g.Dependencies(id)
		if err != nil {
			return nil, err
		}
		if len(deps) == 0 {
			roots = append(roots, id)
		}
	}
	rest, err := g.Affected(roots...)
	if err != nil {
		return nil, err
	}
	return append(roots, rest...), nil
}

func sortedKeys(m map[string]*node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedNodes(m map[string]*node) []*node {
	out := make([]*node, 0, len(m))
	for _, k := range sortedKeys(m) {
		out = append(out, m[k])
	}
	return out
}
