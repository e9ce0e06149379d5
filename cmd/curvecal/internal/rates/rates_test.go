package rates

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/curvecal/config"
)

const twoUnitJob = `
solver:
  method: newton
  parallelJacobian: true
logging:
  level: error
units:
  - curves:
      - name: OIS
        instruments:
          - {type: deposit, end: 1, rate: 0.020}
          - {type: deposit, end: 2, rate: 0.022}
  - curves:
      - name: LIBOR
        instruments:
          - {type: fra, start: 0, end: 1, rate: 0.025}
          - {type: swap, tenor: 2, rate: 0.027, fixedFrequency: 1, floatFrequency: 1, discountCurve: OIS}
`

func writeJob(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRun(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	code := Run([]string{"-config", writeJob(t, twoUnitJob)}, &stdout, &stderr)
	require.Equal(t, 0, code, stdout.String())

	var out Output
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	require.Empty(t, out.Error)
	require.Equal(t, []string{"OIS", "LIBOR"}, out.Blocks)
	require.Len(t, out.Units, 2)
	require.Len(t, out.Curves, 2)
	require.Equal(t, "OIS", out.Curves[0].Name)
	require.Equal(t, []float64{1, 2}, out.Curves[0].Times)
	for _, u := range out.Units {
		require.LessOrEqual(t, u.Residual, 1e-10)
	}
}

func TestRun_YAMLOutput(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	code := Run([]string{"-config", writeJob(t, twoUnitJob), "-format", "yaml"}, &stdout, &stderr)
	require.Equal(t, 0, code, stdout.String())

	var out Output
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &out))
	require.Equal(t, []string{"OIS", "LIBOR"}, out.Blocks)
	require.Len(t, out.Curves, 2)

	require.Equal(t, 2, Run([]string{"-config", "job.yml", "-format", "csv"}, &stdout, &stderr))
}

func TestRun_Usage(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	require.Equal(t, 2, Run(nil, &stdout, &stderr))
	require.Contains(t, stderr.String(), "Usage")

	stderr.Reset()
	require.Equal(t, 0, Run([]string{"-h"}, &stdout, &stderr))
	require.Equal(t, 2, Run([]string{"-bogus"}, &stdout, &stderr))
}

func TestRun_ReportsErrorsAsJSON(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	code := Run([]string{"-config", filepath.Join(t.TempDir(), "missing.yml")}, &stdout, &stderr)
	require.Equal(t, 1, code)
	var out Output
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	require.Contains(t, out.Error, "failed to load configuration")

	stdout.Reset()
	code = Run([]string{"-config", writeJob(t, "solver:\n  method: secant\n")}, &stdout, &stderr)
	require.Equal(t, 1, code)
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	require.Contains(t, out.Error, "invalid configuration")
}

func TestBuildUnits(t *testing.T) {
	t.Parallel()

	_, err := BuildUnits(nil)
	require.Error(t, err)

	_, err = BuildUnits([]config.UnitConfig{{Curves: []config.CurveConfig{{
		Name:        "OIS",
		Instruments: []config.InstrumentConfig{{Type: "bond", End: 1}},
	}}}})
	require.ErrorContains(t, err, "unknown instrument type")

	units, err := BuildUnits([]config.UnitConfig{{Curves: []config.CurveConfig{{
		Name: "OIS",
		Instruments: []config.InstrumentConfig{
			{Type: "DEP", End: 0.5, Rate: 0.01},
			{Type: "irs", Tenor: 2, Rate: 0.02, FixedFrequency: 1, FloatFrequency: 2},
		},
	}}}})
	require.NoError(t, err)
	require.Len(t, units, 1)
	b, err := units[0].CurveBundle(0)
	require.NoError(t, err)
	require.Equal(t, []float64{config.DefaultStartingRate, config.DefaultStartingRate}, b.StartingPoint())
}
