package extfunc

import (
	"fmt"
	"math"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// The builtin formulas are the standard acquisition identities:
//
//	AQ = TD / (2 * SWH)      acquisition time from time-domain size
//	TD = 2 * AQ * SWH        time-domain size, rounded to the nearest point
//	DW = 1e6 / (2 * SWH)     dwell time in microseconds
//
// plus the digital-filter group delay lookup (see groupdelay.go).

var aqCalc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "td", Type: cty.Number},
		{Name: "swh", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		td := asFloat(args[0])
		swh := asFloat(args[1])
		if swh == 0 {
			return cty.NilVal, fmt.Errorf("aqcalc: spectral width is zero")
		}
		return cty.NumberFloatVal(td / (2 * swh)), nil
	},
})

var tdCalc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "aq", Type: cty.Number},
		{Name: "swh", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		aq := asFloat(args[0])
		swh := asFloat(args[1])
		return cty.NumberFloatVal(math.Round(2 * aq * swh)), nil
	},
})

var dwCalc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "swh", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		swh := asFloat(args[0])
		if swh == 0 {
			return cty.NilVal, fmt.Errorf("dwcalc: spectral width is zero")
		}
		return cty.NumberFloatVal(1e6 / (2 * swh)), nil
	},
})

var grpDly = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "decim", Type: cty.Number},
		{Name: "dspfvs", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		decim := asFloat(args[0])
		dspfvs := asFloat(args[1])
		gd, err := GroupDelay(int(decim), int(dspfvs))
		if err != nil {
			return cty.NilVal, err
		}
		return cty.NumberFloatVal(gd), nil
	},
})

func asFloat(v cty.Value) float64 {
	f, _ := v.AsBigFloat().Float64()
	return f
}
