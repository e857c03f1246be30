// Package relation implements the formula language used by the REL and
// INV_REL attributes of a parameter definition: arithmetic over named
// parameters, calls to registered external functions, and indexed references
// into the raw arrays (D[n], L[n], P[n], PL[n]).
//
// The grammar is a strict subset of HCL's native expression syntax, so
// parsing and evaluation are delegated to hclsyntax rather than a
// hand-rolled interpreter.
package relation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// Target identifies where a formula's result is written: either a named
// parameter (`SW=...`) or a single slot of a raw array (`D[0]=...`).
type Target struct {
	Name    string
	Index   int
	Indexed bool
}

func (t Target) String() string {
	if t.Indexed {
		return fmt.Sprintf("%s[%d]", t.Name, t.Index)
	}
	return t.Name
}

// Ref is one reference found in a formula body. Indexed refs point into a
// raw array slot; plain refs name another parameter or store value.
type Ref struct {
	Root    string
	Index   int
	Indexed bool
}

func (r Ref) String() string {
	if r.Indexed {
		return fmt.Sprintf("%s[%d]", r.Root, r.Index)
	}
	return r.Root
}

// Expression is a parsed REL or INV_REL formula.
//
// Refs and Funcs are extracted once at parse time so the dependency
// resolver can build its graph without evaluating anything.
type Expression struct {
	// Raw is the original formula text, e.g. `SWH=SW*SFO1`.
	Raw    string
	Target Target
	Refs   []Ref
	Funcs  []string

	expr hclsyntax.Expression
}

// Equal reports whether two expressions were parsed from identical source
// text. Used by go-cmp in round-trip tests.
func (e *Expression) Equal(o *Expression) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.Raw == o.Raw
}

// Parse splits a formula into its target and body, compiles the body, and
// extracts the references and function calls it contains.
func Parse(src string) (*Expression, error) {
	eq := strings.IndexByte(src, '=')
	if eq < 0 {
		return nil, fmt.Errorf("relation %q: missing '='", src)
	}

	target, err := parseTarget(strings.TrimSpace(src[:eq]))
	if err != nil {
		return nil, fmt.Errorf("relation %q: %w", src, err)
	}

	body := strings.TrimSpace(src[eq+1:])
	if body == "" {
		return nil, fmt.Errorf("relation %q: empty formula body", src)
	}

	expr, diags := hclsyntax.ParseExpression([]byte(padMinus(body)), "", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("relation %q: %s", src, diags.Error())
	}

	e := &Expression{
		Raw:    src,
		Target: target,
		expr:   expr,
	}
	e.analyze()
	return e, nil
}

// padMinus surrounds every minus sign with spaces before the body reaches
// hclsyntax. HCL's identifier grammar admits '-' inside identifiers, so an
// un-spaced `d1-AQ` would otherwise scan as a single variable instead of a
// subtraction; the formula grammar has no dashed identifiers, so every
// minus is an operator. The one exception is a numeric exponent (1e-6).
func padMinus(s string) string {
	if !strings.ContainsRune(s, '-') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		if s[i] == '-' && !exponentMinus(s, i) {
			b.WriteString(" - ")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// exponentMinus reports whether the minus at position i sits inside a
// floating-point exponent: a digit, then e or E, then the minus, then a
// digit.
func exponentMinus(s string, i int) bool {
	if i < 2 || i+1 >= len(s) {
		return false
	}
	digit := func(c byte) bool { return c >= '0' && c <= '9' }
	return (s[i-1] == 'e' || s[i-1] == 'E') && digit(s[i-2]) && digit(s[i+1])
}

// parseTarget accepts `NAME` or `ROOT[idx]` with a non-negative integer index.
func parseTarget(s string) (Target, error) {
	if s == "" {
		return Target{}, fmt.Errorf("empty target")
	}

	open := strings.IndexByte(s, '[')
	if open < 0 {
		if !validIdent(s) {
			return Target{}, fmt.Errorf("invalid target %q", s)
		}
		return Target{Name: s}, nil
	}

	if !strings.HasSuffix(s, "]") {
		return Target{}, fmt.Errorf("invalid indexed target %q", s)
	}
	root := s[:open]
	idxStr := s[open+1 : len(s)-1]
	idx, err := strconv.Atoi(strings.TrimSpace(idxStr))
	if err != nil || idx < 0 || !validIdent(root) {
		return Target{}, fmt.Errorf("invalid indexed target %q", s)
	}
	return Target{Name: root, Index: idx, Indexed: true}, nil
}

func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// analyze collects variable references via the expression's own Variables()
// method and walks the syntax tree for function calls, which Variables()
// does not report.
func (e *Expression) analyze() {
	seenRefs := make(map[string]struct{})
	for _, traversal := range e.expr.Variables() {
		ref := refFromTraversal(traversal)
		key := ref.String()
		if _, ok := seenRefs[key]; ok {
			continue
		}
		seenRefs[key] = struct{}{}
		e.Refs = append(e.Refs, ref)
	}
	sort.Slice(e.Refs, func(i, j int) bool {
		return e.Refs[i].String() < e.Refs[j].String()
	})

	funcs := make(map[string]struct{})
	walkForCalls(e.expr, funcs)
	for name := range funcs {
		e.Funcs = append(e.Funcs, name)
	}
	sort.Strings(e.Funcs)
}

// refFromTraversal turns `D[1]` into an indexed ref and `SFO1` into a plain
// one. Indices beyond the first step are not part of the formula grammar and
// are folded down to the root reference.
func refFromTraversal(traversal hcl.Traversal) Ref {
	root := traversal.RootName()
	if len(traversal) > 1 {
		if step, ok := traversal[1].(hcl.TraverseIndex); ok {
			if idx, acc := step.Key.AsBigFloat().Int64(); acc == 0 && idx >= 0 {
				return Ref{Root: root, Index: int(idx), Indexed: true}
			}
		}
	}
	return Ref{Root: root}
}

// walkForCalls recursively visits the node kinds the formula grammar can
// produce, recording every called function name.
func walkForCalls(expr hclsyntax.Expression, funcs map[string]struct{}) {
	switch n := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		funcs[n.Name] = struct{}{}
		for _, arg := range n.Args {
			walkForCalls(arg, funcs)
		}
	case *hclsyntax.BinaryOpExpr:
		walkForCalls(n.LHS, funcs)
		walkForCalls(n.RHS, funcs)
	case *hclsyntax.UnaryOpExpr:
		walkForCalls(n.Val, funcs)
	case *hclsyntax.ParenthesesExpr:
		walkForCalls(n.Expression, funcs)
	case *hclsyntax.ConditionalExpr:
		walkForCalls(n.Condition, funcs)
		walkForCalls(n.TrueResult, funcs)
		walkForCalls(n.FalseResult, funcs)
	case *hclsyntax.IndexExpr:
		walkForCalls(n.Collection, funcs)
		walkForCalls(n.Key, funcs)
	}
}
