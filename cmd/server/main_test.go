package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "wardbudget version")
}

func TestDashboardCommand_LocalSeed(t *testing.T) {
	t.Setenv("WARDBUDGET_DB_PATH", filepath.Join(t.TempDir(), "wardbudget.db"))
	t.Setenv("WARDBUDGET_SYNC_ENABLED", "false")

	cmd := rootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"dashboard", "--ward", "ward-12", "--config", ""})
	require.NoError(t, cmd.Execute())

	text := out.String()
	require.Contains(t, text, "Ward ward-12 (local)")
	require.Contains(t, text, "₹ 4.28 Cr")
	require.Contains(t, text, "4.9% Used")
	require.Contains(t, text, "899")
	require.Contains(t, text, "1st")
}

func TestDashboardCommand_RequiresWard(t *testing.T) {
	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"dashboard"})
	require.Error(t, cmd.Execute())
}
