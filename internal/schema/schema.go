// Package schema defines the in-memory model of a spectrometer
// parameter-definition file: typed parameter definitions collected into an
// insertion-ordered table.
package schema

import (
	"fmt"
	"strings"

	"github.com/vk/acqparamgo/internal/relation"
)

// Kind enumerates the storage types a parameter can declare.
type Kind int

const (
	KindReal32 Kind = iota
	KindInt32
	KindEnumerated
)

// String returns the terse vendor token for the kind.
func (k Kind) String() string {
	switch k {
	case KindReal32:
		return "R32"
	case KindInt32:
		return "I32"
	case KindEnumerated:
		return "E32"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts both the terse vendor tokens (R32, I32, E32) and the
// long names (real32, int32, enumerated), case-insensitively.
func ParseKind(tok string) (Kind, error) {
	switch strings.ToUpper(tok) {
	case "R32", "REAL32":
		return KindReal32, nil
	case "I32", "INT32":
		return KindInt32, nil
	case "E32", "ENUMERATED":
		return KindEnumerated, nil
	}
	return 0, fmt.Errorf("unknown parameter type %q", tok)
}

// Definition describes a single named acquisition parameter.
//
// A Definition with Alias set came from a bare NAME block: a display-only
// override carrying at most FORMAT, TEXT and NONEDIT. It declares no type,
// range or relations of its own and inherits everything else from the
// underlying system parameter of the same name.
type Definition struct {
	Name  string
	Alias bool

	Kind  Kind
	Class string

	// Min and Max are the inclusive subrange bounds; only meaningful when
	// HasRange is set.
	Min, Max float64
	HasRange bool

	Unit     string
	Format   string
	Text     string
	ExtFunct string

	// Editable is true unless the block carried NONEDIT.
	Editable bool

	Rel    *relation.Expression
	InvRel *relation.Expression

	// Section is the HEADER label in force when the block was read. Purely
	// cosmetic; kept so the table can be rendered back faithfully.
	Section string
}

// Key returns the canonical case-folded identity of a parameter name.
func Key(name string) string {
	return strings.ToUpper(name)
}

// Table is an insertion-ordered collection of definitions keyed by
// case-insensitive name. Insertion order is significant: it defines the
// display and edit order of the parameter form.
type Table struct {
	defs  []*Definition
	index map[string]int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Add appends a definition. Names must be unique case-insensitively.
func (t *Table) Add(def *Definition) error {
	key := Key(def.Name)
	if prev, ok := t.index[key]; ok {
		return fmt.Errorf("duplicate parameter %q (already defined as %q)", def.Name, t.defs[prev].Name)
	}
	t.index[key] = len(t.defs)
	t.defs = append(t.defs, def)
	return nil
}

// Lookup finds a definition by name, case-insensitively.
func (t *Table) Lookup(name string) (*Definition, bool) {
	i, ok := t.index[Key(name)]
	if !ok {
		return nil, false
	}
	return t.defs[i], true
}

// Defs returns the definitions in insertion order. The slice is shared;
// callers must not mutate it.
func (t *Table) Defs() []*Definition {
	return t.defs
}

// Len returns the number of definitions.
func (t *Table) Len() int {
	return len(t.defs)
}

// MissingInverses returns the definitions that declare a REL but no
// INV_REL. A well-authored file pairs every forward relation with an
// inverse for round-trip consistency, but real vendor data is known to
// violate this, so it is reported rather than rejected.
func (t *Table) MissingInverses() []*Definition {
	var out []*Definition
	for _, def := range t.defs {
		if def.Rel != nil && def.InvRel == nil {
			out = append(out, def)
		}
	}
	return out
}
