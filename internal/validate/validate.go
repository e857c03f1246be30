// Package validate checks candidate parameter values against their declared
// type and subrange. Checks are side-effect-free.
package validate

import (
	"fmt"
	"math"

	"github.com/vk/acqparamgo/internal/schema"
)

// ConstraintError reports a candidate value rejected by a definition.
type ConstraintError struct {
	Param  string
	Value  float64
	Reason string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("value %v rejected for %s: %s", e.Value, e.Param, e.Reason)
}

// Check returns nil when value is acceptable for def, or a
// *ConstraintError naming the violated constraint. Alias definitions
// declare no constraints of their own and accept anything finite.
func Check(def *schema.Definition, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return &ConstraintError{Param: def.Name, Value: value, Reason: "value is not finite"}
	}
	if def.Alias {
		return nil
	}

	switch def.Kind {
	case schema.KindInt32:
		if value != math.Trunc(value) {
			return &ConstraintError{Param: def.Name, Value: value, Reason: "int32 parameter requires an integer value"}
		}
		if value < math.MinInt32 || value > math.MaxInt32 {
			return &ConstraintError{Param: def.Name, Value: value, Reason: "value overflows int32"}
		}
	case schema.KindEnumerated:
		if value != math.Trunc(value) || value < 0 {
			return &ConstraintError{Param: def.Name, Value: value, Reason: "enumerated parameter requires a non-negative integer index"}
		}
	}

	if def.HasRange && (value < def.Min || value > def.Max) {
		return &ConstraintError{
			Param: def.Name, Value: value,
			Reason: fmt.Sprintf("outside subrange [%v, %v]", def.Min, def.Max),
		}
	}
	return nil
}
