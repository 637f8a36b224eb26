package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEnvFile(t *testing.T, p *testProject) map[string]string {
	t.Helper()
	vars, err := godotenv.Read(filepath.Join(p.dir, ".env"))
	require.NoError(t, err)
	return vars
}

func TestSetKey_WritesKey(t *testing.T) {
	p := newTestProject(t, "")

	code := p.run("set-key", "dp_new_key_1234567")

	require.Equal(t, ExitSuccess, code, p.stderr.String())
	assert.Equal(t, "dp_new_key_1234567", readEnvFile(t, p)[testKeyVar])
	assert.Contains(t, p.stdout.String(), "dp_new_...4567")
	assert.NotContains(t, p.stdout.String(), "dp_new_key_1234567")
	assert.Empty(t, p.stderr.String())
}

func TestSetKey_KeepsOtherVariables(t *testing.T) {
	p := newTestProject(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(p.dir, ".env"), []byte("OTHER=1\n"), 0o600))

	require.Equal(t, ExitSuccess, p.run("set-key", "dp_new_key_1234567"))
	vars := readEnvFile(t, p)
	assert.Equal(t, "1", vars["OTHER"])
	assert.Equal(t, "dp_new_key_1234567", vars[testKeyVar])
}

func TestSetKey_RefusesOverwriteWithoutForce(t *testing.T) {
	p := newTestProject(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(p.dir, ".env"), []byte(testKeyVar+"=dp_old_key_1234567\n"), 0o600))

	code := p.run("set-key", "dp_new_key_1234567")

	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, p.stderr.String(), "--force")
	assert.Equal(t, "dp_old_key_1234567", readEnvFile(t, p)[testKeyVar])

	require.Equal(t, ExitSuccess, p.run("set-key", "--force", "dp_new_key_1234567"))
	assert.Equal(t, "dp_new_key_1234567", readEnvFile(t, p)[testKeyVar])
}

func TestSetKey_PlaceholderIsReplacedWithoutForce(t *testing.T) {
	p := newTestProject(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(p.dir, ".env"), []byte(testKeyVar+"=your_api_key_here\n"), 0o600))

	require.Equal(t, ExitSuccess, p.run("set-key", "dp_new_key_1234567"))
}

func TestSetKey_ReadsStdin(t *testing.T) {
	p := newTestProject(t, "")
	p.env.Stdin = strings.NewReader("  dp_piped_key_99999  \n")

	require.Equal(t, ExitSuccess, p.run("set-key"))
	assert.Contains(t, p.stdout.String(), "Paste your API key: ")
	assert.Equal(t, "dp_piped_key_99999", readEnvFile(t, p)[testKeyVar])
}

func TestSetKey_EmptyInput(t *testing.T) {
	p := newTestProject(t, "")
	assert.Equal(t, ExitUsage, p.run("set-key"))
	assert.NoFileExists(t, filepath.Join(p.dir, ".env"))
}

func TestSetKey_WarnsOnUnexpectedPrefix(t *testing.T) {
	p := newTestProject(t, "")
	require.Equal(t, ExitSuccess, p.run("set-key", "sk_other_vendor_123"))
	assert.Contains(t, p.stderr.String(), `does not start with "dp_"`)
}

func TestSetKey_TooManyArgs(t *testing.T) {
	p := newTestProject(t, "")
	assert.Equal(t, ExitUsage, p.run("set-key", "a", "b"))
}
