package extfunc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func callNumber(t *testing.T, r *Registry, name string, args ...float64) (float64, error) {
	t.Helper()
	fn, ok := r.Lookup(name)
	require.True(t, ok, "function %s should be registered", name)

	ctyArgs := make([]cty.Value, len(args))
	for i, a := range args {
		ctyArgs[i] = cty.NumberFloatVal(a)
	}
	v, err := fn.Call(ctyArgs)
	if err != nil {
		return 0, err
	}
	f, _ := v.AsBigFloat().Float64()
	return f, nil
}

func TestBuiltins(t *testing.T) {
	t.Parallel()
	r := Builtins()

	t.Run("aqcalc", func(t *testing.T) {
		got, err := callNumber(t, r, "aqcalc", 16384, 4000)
		require.NoError(t, err)
		assert.InDelta(t, 2.048, got, 1e-12)

		_, err = callNumber(t, r, "aqcalc", 16384, 0)
		assert.Error(t, err, "zero spectral width is a configuration error")
	})

	t.Run("tdcalc rounds to whole points", func(t *testing.T) {
		got, err := callNumber(t, r, "tdcalc", 2.048, 4000)
		require.NoError(t, err)
		assert.Equal(t, 16384.0, got)

		got, err = callNumber(t, r, "tdcalc", 2.0481, 4000)
		require.NoError(t, err)
		assert.Equal(t, 16385.0, got)
	})

	t.Run("dwcalc", func(t *testing.T) {
		got, err := callNumber(t, r, "dwcalc", 10000)
		require.NoError(t, err)
		assert.InDelta(t, 50.0, got, 1e-12)
	})

	t.Run("grpdly", func(t *testing.T) {
		got, err := callNumber(t, r, "grpdly", 32, 12)
		require.NoError(t, err)
		assert.InDelta(t, 72.138, got, 1e-9)
	})

	t.Run("lookup is case-insensitive", func(t *testing.T) {
		_, ok := r.Lookup("AQCALC")
		assert.True(t, ok)
	})
}

func TestGroupDelay(t *testing.T) {
	t.Parallel()

	t.Run("bypassed filter has zero delay", func(t *testing.T) {
		gd, err := GroupDelay(1, 12)
		require.NoError(t, err)
		assert.Zero(t, gd)
	})

	t.Run("table lookup", func(t *testing.T) {
		gd, err := GroupDelay(2048, 11)
		require.NoError(t, err)
		assert.InDelta(t, 72.0313, gd, 1e-9)
	})

	t.Run("unknown firmware version", func(t *testing.T) {
		_, err := GroupDelay(32, 99)
		assert.ErrorContains(t, err, "unknown DSP firmware version")
	})

	t.Run("unknown decimation factor", func(t *testing.T) {
		_, err := GroupDelay(5, 12)
		assert.ErrorContains(t, err, "no entry for decimation factor")
	})

	t.Run("firmware 13 stops at decim 96", func(t *testing.T) {
		_, err := GroupDelay(128, 13)
		assert.Error(t, err)
	})
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	assert.Empty(t, r.Names())

	require.NoError(t, r.Register("MyFunc", grpDly))
	_, ok := r.Lookup("myfunc")
	assert.True(t, ok)
	assert.Equal(t, []string{"myfunc"}, r.Names())

	assert.Error(t, r.Register("  ", grpDly))
}
