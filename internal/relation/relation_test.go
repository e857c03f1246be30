package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_TargetForms(t *testing.T) {
	t.Parallel()

	t.Run("named target", func(t *testing.T) {
		e, err := Parse("SWH=SW*SFO1")
		require.NoError(t, err)
		assert.Equal(t, Target{Name: "SWH"}, e.Target)
		assert.Equal(t, "SWH=SW*SFO1", e.Raw)
	})

	t.Run("indexed target", func(t *testing.T) {
		e, err := Parse("D[0]=d1-aq")
		require.NoError(t, err)
		assert.Equal(t, Target{Name: "D", Index: 0, Indexed: true}, e.Target)
	})

	t.Run("missing equals", func(t *testing.T) {
		_, err := Parse("SW*SFO1")
		require.Error(t, err)
		assert.ErrorContains(t, err, "missing '='")
	})

	t.Run("empty body", func(t *testing.T) {
		_, err := Parse("SWH=")
		require.Error(t, err)
		assert.ErrorContains(t, err, "empty formula body")
	})

	t.Run("bad target", func(t *testing.T) {
		_, err := Parse("D[x]=1")
		require.Error(t, err)

		_, err = Parse("2SWH=1")
		require.Error(t, err)
	})

	t.Run("bad body", func(t *testing.T) {
		_, err := Parse("SWH=SW**")
		require.Error(t, err)
	})
}

func TestParse_Analysis(t *testing.T) {
	t.Parallel()

	e, err := Parse("AQ=aqcalc(TD,SWH) + D[1]/l21")
	require.NoError(t, err)

	assert.Equal(t, []Ref{
		{Root: "D", Index: 1, Indexed: true},
		{Root: "SWH"},
		{Root: "TD"},
		{Root: "l21"},
	}, e.Refs)
	assert.Equal(t, []string{"aqcalc"}, e.Funcs)
}

func TestParse_UnspacedSubtraction(t *testing.T) {
	t.Parallel()

	// Vendor formulas write subtraction without spaces; the dash must not
	// be swallowed into the identifier.
	e, err := Parse("d3=d1-AQ")
	require.NoError(t, err)
	assert.Equal(t, []Ref{{Root: "AQ"}, {Root: "d1"}}, e.Refs)

	got, err := e.Evaluate(fakeValues{
		scalars: map[string]float64{"d1": 3, "AQ": 1.024},
	}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.976, got, 1e-12)

	t.Run("exponent minus survives", func(t *testing.T) {
		e, err := Parse("X=1e-6*SW")
		require.NoError(t, err)
		assert.Equal(t, []Ref{{Root: "SW"}}, e.Refs)

		got, err := e.Evaluate(fakeValues{scalars: map[string]float64{"SW": 2e6}}, nil)
		require.NoError(t, err)
		assert.InDelta(t, 2.0, got, 1e-12)
	})

	t.Run("unary minus", func(t *testing.T) {
		e, err := Parse("X=-SW")
		require.NoError(t, err)

		got, err := e.Evaluate(fakeValues{scalars: map[string]float64{"SW": 1000}}, nil)
		require.NoError(t, err)
		assert.Equal(t, -1000.0, got)
	})
}

func TestParse_DuplicateRefsCollapse(t *testing.T) {
	t.Parallel()

	e, err := Parse("X=SW + SW*2")
	require.NoError(t, err)
	assert.Len(t, e.Refs, 1)
}

type fakeValues struct {
	scalars map[string]float64
	arrays  map[string][]float64
}

func (f fakeValues) Scalar(name string) (float64, bool) {
	v, ok := f.scalars[name]
	return v, ok
}

func (f fakeValues) Array(root string) ([]float64, bool) {
	arr, ok := f.arrays[root]
	return arr, ok
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	vals := fakeValues{
		scalars: map[string]float64{"SW": 1000, "SFO1": 400, "SWH": 400000},
		arrays:  map[string][]float64{"D": {0.001, 4.0, 0.03}},
	}

	t.Run("arithmetic over named parameters", func(t *testing.T) {
		e, err := Parse("SWH=SW*SFO1")
		require.NoError(t, err)

		got, err := e.Evaluate(vals, nil)
		require.NoError(t, err)
		assert.InDelta(t, 400000.0, got, 1e-9)
	})

	t.Run("forward then inverse recovers the input", func(t *testing.T) {
		fwd, err := Parse("SWH=SW*SFO1")
		require.NoError(t, err)
		inv, err := Parse("SW=SWH/SFO1")
		require.NoError(t, err)

		swh, err := fwd.Evaluate(vals, nil)
		require.NoError(t, err)

		back, err := inv.Evaluate(fakeValues{
			scalars: map[string]float64{"SWH": swh, "SFO1": 400},
		}, nil)
		require.NoError(t, err)
		assert.InDelta(t, 1000.0, back, 1e-9)
	})

	t.Run("array indexing", func(t *testing.T) {
		e, err := Parse("d1=D[1]")
		require.NoError(t, err)

		got, err := e.Evaluate(vals, nil)
		require.NoError(t, err)
		assert.InDelta(t, 4.0, got, 1e-12)
	})

	t.Run("undefined reference", func(t *testing.T) {
		e, err := Parse("X=NOPE*2")
		require.NoError(t, err)

		_, err = e.Evaluate(vals, nil)
		var evalErr *EvalError
		require.ErrorAs(t, err, &evalErr)
		assert.Contains(t, evalErr.Detail, `undefined reference "NOPE"`)
	})

	t.Run("unregistered external function", func(t *testing.T) {
		e, err := Parse("X=mystery(SW)")
		require.NoError(t, err)

		_, err = e.Evaluate(vals, nil)
		var evalErr *EvalError
		require.ErrorAs(t, err, &evalErr)
		assert.Contains(t, evalErr.Detail, `"mystery" is not registered`)
	})

	t.Run("division by zero fails instead of producing infinity", func(t *testing.T) {
		e, err := Parse("X=SW/ZERO")
		require.NoError(t, err)

		_, err = e.Evaluate(fakeValues{
			scalars: map[string]float64{"SW": 1000, "ZERO": 0},
		}, nil)
		var evalErr *EvalError
		require.ErrorAs(t, err, &evalErr)
	})

	t.Run("zero over zero fails too", func(t *testing.T) {
		e, err := Parse("X=ZERO/ZERO")
		require.NoError(t, err)

		_, err = e.Evaluate(fakeValues{
			scalars: map[string]float64{"ZERO": 0},
		}, nil)
		require.Error(t, err)
	})

	t.Run("index out of range", func(t *testing.T) {
		e, err := Parse("x=D[99]")
		require.NoError(t, err)

		_, err = e.Evaluate(vals, nil)
		var evalErr *EvalError
		require.ErrorAs(t, err, &evalErr)
	})
}
