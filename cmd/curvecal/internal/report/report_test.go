package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type sample struct {
	Name  string    `json:"name" yaml:"name"`
	Rates []float64 `json:"rates" yaml:"rates"`
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{"": FormatJSON, "JSON": FormatJSON, "yml": FormatYAML, " yaml ": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		require.Equal(t, want, got, in)
	}
	_, err := ParseFormat("csv")
	require.Error(t, err)
}

func TestWrite(t *testing.T) {
	t.Parallel()

	v := sample{Name: "ACME", Rates: []float64{0.01, 0.02}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, v))
	require.Equal(t, "{\"name\":\"ACME\",\"rates\":[0.01,0.02]}\n", buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, FormatYAML, v))
	var back sample
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	require.Equal(t, v, back)
}
