package main

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRootChoice(t *testing.T) {
	useTeam, err := parseRootChoice("team")
	require.NoError(t, err)
	assert.True(t, useTeam)

	useTeam, err = parseRootChoice("user")
	require.NoError(t, err)
	assert.False(t, useTeam)

	_, err = parseRootChoice("shared")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shared")
}

func TestResolveZipPath_Explicit(t *testing.T) {
	explicit := filepath.Join(t.TempDir(), "custom.zip")

	got, err := resolveZipPath("/some/source", explicit)
	require.NoError(t, err)
	assert.Equal(t, explicit, got)
}

func TestResolveZipPath_FromSourceStem(t *testing.T) {
	got, err := resolveZipPath("/home/user/projects/18-AK", "")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(got, "18-AK.zip"), "got %s", got)
	assert.True(t, filepath.IsAbs(got))
}

func TestResolveZipPath_TrailingSlash(t *testing.T) {
	got, err := resolveZipPath("/home/user/projects/18-AK/", "")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got, "18-AK.zip"), "got %s", got)
}

func TestNewRootCmd_RegistersCommands(t *testing.T) {
	cmd := newRootCmd()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	for _, want := range []string{"login", "put", "get", "history"} {
		assert.Contains(t, names, want)
	}
}

func TestPutCmd_RejectsMissingSource(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"--config", filepath.Join(t.TempDir(), "none.toml"),
		"put", filepath.Join(t.TempDir(), "missing.txt"), "/dest.txt",
	})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
