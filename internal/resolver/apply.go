package resolver

import (
	"fmt"
	"sort"

	"github.com/vk/acqparamgo/internal/relation"
	"github.com/vk/acqparamgo/internal/schema"
	"github.com/vk/acqparamgo/internal/validate"
	"github.com/vk/acqparamgo/internal/values"
)

// Stale marks a parameter whose relation could not be evaluated during a
// pass. The parameter keeps its last known value.
type Stale struct {
	Param  string
	Reason string
}

// Result describes one completed resolution pass.
type Result struct {
	// Order lists the successfully recomputed parameters in settlement
	// order. Parameters left stale do not appear; see Stale.
	Order []string
	// Updated holds the values written by the pass, keyed by display name.
	Updated map[string]float64
	// Stale lists parameters left at their previous value.
	Stale []Stale
}

// Apply runs one resolution pass: the changed values are validated and
// written, each changed parameter's inverse relation pushes into the raw
// values it aliases, and every affected forward relation is recomputed in
// dependency order.
//
// Constraint violations reject the whole change set before any mutation.
// Evaluation failures do not abort the pass; the affected parameter is
// reported stale instead.
func (r *Resolver) Apply(store *values.Store, funcs relation.Funcs, changes map[string]float64) (*Result, error) {
	names := make([]string, 0, len(changes))
	for name := range changes {
		names = append(names, name)
	}
	sort.Strings(names)

	// Validate everything up front so a rejected change never leaves the
	// store half-written.
	for _, name := range names {
		def, ok := r.table.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("resolver: unknown parameter %q", name)
		}
		if !def.Editable {
			return nil, fmt.Errorf("resolver: parameter %s is not editable", def.Name)
		}
		if err := validate.Check(def, changes[name]); err != nil {
			return nil, err
		}
	}

	res := &Result{Updated: make(map[string]float64)}

	// Inverse pushes write values the change set never named. Those
	// targets are settled too, so they join the seeds instead of being
	// recomputed from a forward relation.
	seeds := append([]string(nil), names...)
	seeded := make(map[string]bool, len(names))
	for _, name := range names {
		seeded[schema.Key(name)] = true
	}

	for _, name := range names {
		def, _ := r.table.Lookup(name)
		store.SetScalar(def.Name, changes[name])
		res.Updated[def.Name] = changes[name]
		if def.InvRel == nil {
			continue
		}
		r.pushInverse(def, store, funcs, res)
		if target := def.InvRel.Target; !target.Indexed {
			if tdef, ok := r.table.Lookup(target.Name); ok && !tdef.Alias && !seeded[schema.Key(tdef.Name)] {
				seeds = append(seeds, tdef.Name)
				seeded[schema.Key(tdef.Name)] = true
			}
		}
	}

	plan, err := r.Plan(seeds...)
	if err != nil {
		return nil, err
	}
	r.recompute(plan, store, funcs, res)
	return res, nil
}

// Refresh recomputes every forward relation in the table against the
// current store contents, in full dependency order. Used to settle a
// freshly seeded value set before any edits arrive.
func (r *Resolver) Refresh(store *values.Store, funcs relation.Funcs) (*Result, error) {
	order, err := r.graph.Order()
	if err != nil {
		return nil, err
	}
	res := &Result{Updated: make(map[string]float64)}
	r.recompute(r.displayNames(order), store, funcs, res)
	return res, nil
}

func (r *Resolver) recompute(plan []string, store *values.Store, funcs relation.Funcs, res *Result) {
	for _, name := range plan {
		def, ok := r.table.Lookup(name)
		if !ok || def.Rel == nil {
			continue
		}

		v, err := def.Rel.Evaluate(store, funcs)
		if err != nil {
			res.Stale = append(res.Stale, Stale{Param: def.Name, Reason: err.Error()})
			continue
		}
		if cerr := validate.Check(def, v); cerr != nil {
			res.Stale = append(res.Stale, Stale{Param: def.Name, Reason: cerr.Error()})
			continue
		}
		store.SetScalar(def.Name, v)
		res.Updated[def.Name] = v
		res.Order = append(res.Order, def.Name)
	}
}

// pushInverse evaluates def's INV_REL and writes the result to its target,
// either a raw array slot or another named parameter.
func (r *Resolver) pushInverse(def *schema.Definition, store *values.Store, funcs relation.Funcs, res *Result) {
	v, err := def.InvRel.Evaluate(store, funcs)
	if err != nil {
		res.Stale = append(res.Stale, Stale{Param: def.InvRel.Target.String(), Reason: err.Error()})
		return
	}

	target := def.InvRel.Target
	if target.Indexed {
		if err := store.SetSlot(target.Name, target.Index, v); err != nil {
			res.Stale = append(res.Stale, Stale{Param: target.String(), Reason: err.Error()})
		}
		return
	}

	if tdef, ok := r.table.Lookup(target.Name); ok {
		if cerr := validate.Check(tdef, v); cerr != nil {
			res.Stale = append(res.Stale, Stale{Param: tdef.Name, Reason: cerr.Error()})
			return
		}
		store.SetScalar(tdef.Name, v)
		res.Updated[tdef.Name] = v
		return
	}
	store.SetScalar(target.Name, v)
	res.Updated[target.Name] = v
}
