// Package extfunc provides the registry of named external calculation
// functions that relation formulas may call (aqcalc, tdcalc, ...). The
// registry is an injected capability: the engine never hard-codes paths to
// instrument-side executables, so evaluation stays testable without the
// real spectrometer environment.
package extfunc

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty/function"
)

// Registry maps case-insensitive function names to cty functions. It
// implements relation.Funcs.
type Registry struct {
	funcs map[string]function.Function
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]function.Function)}
}

// Builtins returns a registry preloaded with the standard acquisition
// calculations.
func Builtins() *Registry {
	r := NewRegistry()
	r.funcs["aqcalc"] = aqCalc
	r.funcs["tdcalc"] = tdCalc
	r.funcs["dwcalc"] = dwCalc
	r.funcs["grpdly"] = grpDly
	return r
}

// Register adds or replaces a function. Replacing is deliberate: a caller
// embedding the engine may shadow a builtin with an instrument-specific
// implementation.
func (r *Registry) Register(name string, fn function.Function) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("extfunc: empty function name")
	}
	r.funcs[strings.ToLower(name)] = fn
	return nil
}

// Lookup resolves a function by name, case-insensitively.
func (r *Registry) Lookup(name string) (function.Function, bool) {
	fn, ok := r.funcs[strings.ToLower(name)]
	return fn, ok
}

// Names returns the registered function names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
