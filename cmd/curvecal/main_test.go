package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_Dispatch(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	require.Equal(t, 2, run(nil, &stdout, &stderr))
	require.Contains(t, stderr.String(), "Commands:")

	stderr.Reset()
	require.Equal(t, 2, run([]string{"bonds"}, &stdout, &stderr))
	require.Contains(t, stderr.String(), `unknown command "bonds"`)

	require.Equal(t, 0, run([]string{"help"}, &stdout, &stderr))
	require.Contains(t, stdout.String(), "hazard")

	require.Equal(t, 2, run([]string{"rates"}, &stdout, &stderr))
	require.Equal(t, 2, run([]string{"HAZARD"}, &stdout, &stderr))
}
