// Package resolver plans and applies recomputation passes over the
// relation graph of a parameter table: which parameters must be recomputed
// after a change, in what order, and what happens when a relation cannot be
// evaluated.
package resolver

import (
	"fmt"
	"sort"

	"github.com/vk/acqparamgo/internal/dag"
	"github.com/vk/acqparamgo/internal/schema"
)

// AliasCollision flags a raw array slot targeted by the INV_REL of more
// than one parameter. The sample vendor data contains such a pair; it is
// almost certainly an authoring defect, so it is reported to the operator
// instead of being guessed at. No dependency edge is derived from the
// colliding writers.
type AliasCollision struct {
	Slot   string
	Params []string
}

// Resolver owns the dependency graph derived from a parameter table. The
// table is read-only for the resolver's lifetime.
type Resolver struct {
	table      *schema.Table
	graph      *dag.Graph
	slotOwner  map[string]string
	collisions []AliasCollision
}

// New builds the relation graph for a table and verifies it is acyclic.
// A *dag.CycleError here is fatal: it marks a configuration authoring bug.
func New(table *schema.Table) (*Resolver, error) {
	r := &Resolver{
		table:     table,
		graph:     dag.New(),
		slotOwner: make(map[string]string),
	}

	for _, def := range table.Defs() {
		if !def.Alias {
			r.graph.AddNode(def.Name)
		}
	}

	r.indexSlotOwners()

	for _, def := range table.Defs() {
		if def.Alias || def.Rel == nil {
			continue
		}
		if err := r.linkRefs(def); err != nil {
			return nil, err
		}
	}

	if err := r.graph.DetectCycles(); err != nil {
		return nil, err
	}
	return r, nil
}

// indexSlotOwners records, for every raw slot written by an INV_REL, the
// parameter that owns it. The first writer in table order wins; later
// writers are collected as collisions.
func (r *Resolver) indexSlotOwners() {
	writers := make(map[string][]string)
	for _, def := range r.table.Defs() {
		if def.Alias || def.InvRel == nil || !def.InvRel.Target.Indexed {
			continue
		}
		key := slotKey(def.InvRel.Target.Name, def.InvRel.Target.Index)
		writers[key] = append(writers[key], def.Name)
		if _, ok := r.slotOwner[key]; !ok {
			r.slotOwner[key] = def.Name
		}
	}

	for key, names := range writers {
		if len(names) > 1 {
			r.collisions = append(r.collisions, AliasCollision{Slot: key, Params: names})
		}
	}
	sort.Slice(r.collisions, func(i, j int) bool {
		return r.collisions[i].Slot < r.collisions[j].Slot
	})
}

// linkRefs adds an edge for every reference in def's forward relation that
// settles through another parameter: either directly by name, or through a
// raw slot owned by that parameter's inverse relation.
func (r *Resolver) linkRefs(def *schema.Definition) error {
	for _, ref := range def.Rel.Refs {
		var source string
		if ref.Indexed {
			owner, ok := r.slotOwner[slotKey(ref.Root, ref.Index)]
			if !ok {
				continue // raw store value, settles outside the graph
			}
			source = owner
		} else {
			src, ok := r.table.Lookup(ref.Root)
			if !ok || src.Alias {
				continue
			}
			source = src.Name
		}
		if schema.Key(source) == schema.Key(def.Name) {
			// A parameter aliasing its own raw slot is the normal
			// pattern, not a cycle.
			continue
		}
		if err := r.graph.AddEdge(source, def.Name); err != nil {
			return fmt.Errorf("resolver: linking %s: %w", def.Name, err)
		}
	}
	return nil
}

// Collisions returns the alias-collision warnings found while building.
func (r *Resolver) Collisions() []AliasCollision {
	return r.collisions
}

// Plan returns the parameters to recompute after the given set changes, in
// an order where each one follows everything its forward relation reads.
// The changed parameters themselves are excluded: their values were set
// externally. Display aliases are not graph nodes — nothing depends on
// them — so changing one recomputes nothing.
func (r *Resolver) Plan(changed ...string) ([]string, error) {
	seeds := make([]string, 0, len(changed))
	for _, name := range changed {
		def, ok := r.table.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("resolver: unknown parameter %q", name)
		}
		if def.Alias {
			continue
		}
		seeds = append(seeds, name)
	}
	if len(seeds) == 0 {
		return nil, nil
	}
	order, err := r.graph.Affected(seeds...)
	if err != nil {
		return nil, err
	}
	return r.displayNames(order), nil
}

// displayNames maps canonical graph ids back to the names used in the
// definition file.
func (r *Resolver) displayNames(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		if def, ok := r.table.Lookup(id); ok {
			out[i] = def.Name
		} else {
			out[i] = id
		}
	}
	return out
}

func slotKey(root string, idx int) string {
	return fmt.Sprintf("%s[%d]", schema.Key(root), idx)
}
