package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDefs = `
HEADER "Acquisition"
T_NAME TD
  TYPE I32
  SUBRANGE 0 16777216
  FORMAT "%14d"
END
T_NAME SW
  TYPE R32
  SUBRANGE 0 10000
  UNIT "ppm"
END
T_NAME SFO1
  TYPE R32
  UNIT "MHz"
END
T_NAME SWH
  TYPE R32
  REL "SWH=SW*SFO1"
  INV_REL "SW=SWH/SFO1"
  UNIT "Hz"
  FORMAT "%14.2f"
END
T_NAME DW
  TYPE R32
  REL "DW=1e6/(2*SWH)"
  UNIT "usec"
  NONEDIT
END
HEADER "Delays and loops"
T_NAME d1
  TYPE R32
  REL "d1=D[1]"
  INV_REL "D[1]=d1"
  UNIT "sec"
END
T_NAME l22
  TYPE I32
  REL "l22=TD/l21"
  INV_REL "D[0]=l22"
END
NAME RG
  FORMAT "%14.7f"
END
`

const testAcqus = `##TITLE= Parameter file
##$TD= 16384
##$SW= 20
##$SFO1= 400
##$D= (0..1) 0.05 3
`

type fixture struct {
	parPath    string
	valuesPath string
}

func writeFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()

	parPath := filepath.Join(dir, "acqu.pdef")
	require.NoError(t, os.WriteFile(parPath, []byte(testDefs), 0600))

	valuesPath := filepath.Join(dir, "acqus")
	require.NoError(t, os.WriteFile(valuesPath, []byte(testAcqus), 0600))

	return fixture{parPath: parPath, valuesPath: valuesPath}
}

func newTestApp(t *testing.T, cfg *Config) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	engine, err := New(out, errOut, cfg)
	require.NoError(t, err)
	return engine, out, errOut
}

func TestNew(t *testing.T) {
	t.Parallel()
	fx := writeFixture(t)

	cfg, err := NewConfig(Config{ParPath: fx.parPath, LogFormat: "text", LogLevel: "warn"})
	require.NoError(t, err)

	engine, _, errOut := newTestApp(t, cfg)
	assert.Equal(t, 8, engine.Table().Len())

	// DW derives without an inverse, so edits to it cannot round-trip.
	assert.Contains(t, errOut.String(), "REL without INV_REL")
	assert.Contains(t, errOut.String(), "DW")
}

func TestNew_RequiresParPath(t *testing.T) {
	t.Parallel()
	_, err := NewConfig(Config{})
	assert.ErrorContains(t, err, "parameter-definition path is required")
}

func TestRun_CheckOnly(t *testing.T) {
	t.Parallel()
	fx := writeFixture(t)

	cfg, err := NewConfig(Config{ParPath: fx.parPath, CheckOnly: true, LogFormat: "text", LogLevel: "error"})
	require.NoError(t, err)

	engine, out, _ := newTestApp(t, cfg)
	require.NoError(t, engine.Run(context.Background(), cfg))
	assert.Contains(t, out.String(), "OK: 8 parameters, relations acyclic")
}

func TestRun_SeedAndSettle(t *testing.T) {
	t.Parallel()
	fx := writeFixture(t)

	cfg, err := NewConfig(Config{
		ParPath:    fx.parPath,
		ValuesPath: fx.valuesPath,
		LogFormat:  "text",
		LogLevel:   "error",
	})
	require.NoError(t, err)

	engine, out, _ := newTestApp(t, cfg)
	require.NoError(t, engine.Run(context.Background(), cfg))

	report := out.String()
	assert.Contains(t, report, "--- Acquisition ---")
	assert.Contains(t, report, "--- Delays and loops ---")
	assert.Contains(t, report, "8000.00", "SWH settles from the seeded SW and SFO1")
	assert.Contains(t, report, "62.5", "DW settles from SWH")
	assert.Contains(t, report, "STALE", "l22 cannot settle without l21")
	assert.Contains(t, report, "alias")
}

func TestRun_AppliesChanges(t *testing.T) {
	t.Parallel()
	fx := writeFixture(t)

	cfg, err := NewConfig(Config{
		ParPath:    fx.parPath,
		ValuesPath: fx.valuesPath,
		Sets:       []string{"SWH=4000"},
		LogFormat:  "text",
		LogLevel:   "error",
	})
	require.NoError(t, err)

	engine, out, _ := newTestApp(t, cfg)
	require.NoError(t, engine.Run(context.Background(), cfg))

	report := out.String()
	assert.Contains(t, report, "4000.00")
	assert.Contains(t, report, "125", "DW follows the narrowed spectral width")
	assert.Contains(t, report, "10 ", "the inverse relation pushes SW back to 10 ppm")
}

func TestRun_ProfileSetsMergeUnderFlags(t *testing.T) {
	t.Parallel()
	fx := writeFixture(t)

	cfg, err := NewConfig(Config{
		ParPath:    fx.parPath,
		ValuesPath: fx.valuesPath,
		Sets:       []string{"SW=40"},
		LogFormat:  "text",
		LogLevel:   "error",
	})
	require.NoError(t, err)
	cfg.profileSets = map[string]float64{"SW": 10, "SFO1": 500}

	engine, out, _ := newTestApp(t, cfg)
	require.NoError(t, engine.Run(context.Background(), cfg))

	// SW comes from the flag, SFO1 from the profile: SWH = 40 * 500.
	assert.Contains(t, out.String(), "20000.00")
}

func TestRun_SeedsVDList(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	parPath := filepath.Join(dir, "delays.pdef")
	require.NoError(t, os.WriteFile(parPath, []byte(`
T_NAME vd2
  TYPE R32
  REL "vd2=VD[1]"
  INV_REL "VD[1]=vd2"
  UNIT "sec"
END
`), 0600))

	vdPath := filepath.Join(dir, "vdlist")
	require.NoError(t, os.WriteFile(vdPath, []byte("100n\n50u\n10m\n"), 0600))

	cfg, err := NewConfig(Config{
		ParPath:    parPath,
		VDListPath: vdPath,
		LogFormat:  "text",
		LogLevel:   "error",
	})
	require.NoError(t, err)

	engine, out, _ := newTestApp(t, cfg)
	require.NoError(t, engine.Run(context.Background(), cfg))

	assert.Contains(t, out.String(), "5e-05", "vd2 settles from the second vdlist delay")
}

func TestRun_RejectsMalformedSet(t *testing.T) {
	t.Parallel()
	fx := writeFixture(t)

	cfg, err := NewConfig(Config{
		ParPath:   fx.parPath,
		Sets:      []string{"SW"},
		LogFormat: "text",
		LogLevel:  "error",
	})
	require.NoError(t, err)

	engine, _, _ := newTestApp(t, cfg)
	err = engine.Run(context.Background(), cfg)
	assert.ErrorContains(t, err, "malformed -set")
}

func TestParseSets(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		got, err := parseSets([]string{"SW=20", " TD = 1024 "})
		require.NoError(t, err)
		assert.Equal(t, map[string]float64{"SW": 20, "TD": 1024}, got)
	})

	t.Run("empty input", func(t *testing.T) {
		got, err := parseSets(nil)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("missing value", func(t *testing.T) {
		_, err := parseSets([]string{"SW="})
		assert.Error(t, err)
	})

	t.Run("non-numeric value", func(t *testing.T) {
		_, err := parseSets([]string{"SW=wide"})
		assert.Error(t, err)
	})
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "8000", formatValue("", 8000))
	assert.Equal(t, "       8000.00", formatValue("%14.2f", 8000))
	assert.Equal(t, "         16384", formatValue("%14d", 16384))
}
