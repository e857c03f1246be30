package relation

import (
	"fmt"
	"math"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Values supplies parameter scalars and raw arrays during evaluation.
// Lookups must be case-insensitive.
type Values interface {
	Scalar(name string) (float64, bool)
	Array(root string) ([]float64, bool)
}

// Funcs resolves named external functions, case-insensitively.
type Funcs interface {
	Lookup(name string) (function.Function, bool)
}

// EvalError reports a failed evaluation: an undefined reference, an
// unregistered external function, a division by zero, or a non-numeric
// result. All of these stem from configuration defects, so the caller is
// expected to keep the target parameter's last known value and flag it
// as stale rather than abort.
type EvalError struct {
	Expr   string
	Detail string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluate %q: %s", e.Expr, e.Detail)
}

// Evaluate computes the formula body against the supplied values and
// function registry and returns the numeric result.
func (e *Expression) Evaluate(vals Values, funcs Funcs) (_ float64, err error) {
	vars := make(map[string]cty.Value, len(e.Refs))
	for _, ref := range e.Refs {
		if arr, ok := vals.Array(ref.Root); ok {
			vars[ref.Root] = tupleOf(arr)
			continue
		}
		if v, ok := vals.Scalar(ref.Root); ok {
			vars[ref.Root] = cty.NumberFloatVal(v)
			continue
		}
		return 0, &EvalError{Expr: e.Raw, Detail: fmt.Sprintf("undefined reference %q", ref.String())}
	}

	fns := make(map[string]function.Function, len(e.Funcs))
	for _, name := range e.Funcs {
		if funcs == nil {
			return 0, &EvalError{Expr: e.Raw, Detail: fmt.Sprintf("external function %q is not registered", name)}
		}
		fn, ok := funcs.Lookup(name)
		if !ok {
			return 0, &EvalError{Expr: e.Raw, Detail: fmt.Sprintf("external function %q is not registered", name)}
		}
		fns[name] = fn
	}

	// cty's big.Float arithmetic panics on 0/0.
	defer func() {
		if r := recover(); r != nil {
			err = &EvalError{Expr: e.Raw, Detail: "division by zero"}
		}
	}()

	v, diags := e.expr.Value(&hcl.EvalContext{Variables: vars, Functions: fns})
	if diags.HasErrors() {
		return 0, &EvalError{Expr: e.Raw, Detail: diagDetail(diags)}
	}

	if v.IsNull() || !v.Type().Equals(cty.Number) {
		return 0, &EvalError{Expr: e.Raw, Detail: fmt.Sprintf("result is not a number (got %s)", v.Type().FriendlyName())}
	}

	f, _ := v.AsBigFloat().Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &EvalError{Expr: e.Raw, Detail: "division by zero"}
	}
	return f, nil
}

func tupleOf(arr []float64) cty.Value {
	if len(arr) == 0 {
		return cty.EmptyTupleVal
	}
	elems := make([]cty.Value, len(arr))
	for i, f := range arr {
		elems[i] = cty.NumberFloatVal(f)
	}
	return cty.TupleVal(elems)
}

// diagDetail flattens hcl diagnostics into a single line.
func diagDetail(diags hcl.Diagnostics) string {
	parts := make([]string, 0, len(diags))
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		if d.Detail != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", d.Summary, d.Detail))
		} else {
			parts = append(parts, d.Summary)
		}
	}
	return strings.Join(parts, "; ")
}
