package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunCommandPrintsRowCounts(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"run"})

	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "columns=2")
	require.Contains(t, out.String(), "rows=3")
}
