package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureSource = `
contract Token {
    uint256 balance;

    function setBalance(uint256 amount) public {
        balance = amount;
    }
}
`

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "token.sol")
	require.NoError(t, os.WriteFile(path, []byte(fixtureSource), 0o644))
	return path
}

func TestLowerFileParsesAndLowers(t *testing.T) {
	path := writeFixture(t)
	contract, diags, err := lowerFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0, diags.Len())
	assert.Equal(t, "Token", contract.Name)
	require.Len(t, contract.Storage, 1)
	_, ok := contract.Function("setBalance_uint256")
	assert.True(t, ok)
}

func TestLowerFileMissingReturnsError(t *testing.T) {
	_, _, err := lowerFile(filepath.Join(t.TempDir(), "missing.sol"))
	assert.Error(t, err)
}

func TestCompileCmdRunProducesOutput(t *testing.T) {
	path := writeFixture(t)
	cmd := &compileCmd{File: path, Obfuscate: "none"}
	require.NoError(t, cmd.Run())
}

func TestCompileCmdWithStandardObfuscationWritesMapping(t *testing.T) {
	path := writeFixture(t)
	mappingPath := filepath.Join(t.TempDir(), "mapping.json")
	cmd := &compileCmd{
		File:       path,
		Obfuscate:  "standard",
		Salt:       "test-salt",
		MappingOut: mappingPath,
	}
	require.NoError(t, cmd.Run())

	data, err := os.ReadFile(mappingPath)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestCompileCmdAnnotatedMode(t *testing.T) {
	path := writeFixture(t)
	cmd := &compileCmd{File: path, Obfuscate: "none", Annotated: true, ASCII: true}
	require.NoError(t, cmd.Run())
}

func TestValidateCmdRunsCleanly(t *testing.T) {
	path := writeFixture(t)
	cmd := &validateCmd{File: path}
	require.NoError(t, cmd.Run())
}

func TestDebugCmdComputesAnalyses(t *testing.T) {
	path := writeFixture(t)
	cmd := &debugCmd{File: path}
	require.NoError(t, cmd.Run())
}

func TestDeobfuscateCmdRoundTrips(t *testing.T) {
	path := writeFixture(t)
	dir := t.TempDir()
	mappingPath := filepath.Join(dir, "mapping.json")

	compile := &compileCmd{
		File:       path,
		Obfuscate:  "standard",
		Salt:       "test-salt",
		MappingOut: mappingPath,
	}
	require.NoError(t, compile.Run())

	reportPath := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(reportPath, []byte("finding in function setBalance"), 0o644))

	deob := &deobfuscateCmd{Mapping: mappingPath, Report: reportPath}
	require.NoError(t, deob.Run())
}

func TestDeobfuscateCmdMissingMappingFileErrors(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(reportPath, []byte("report"), 0o644))

	cmd := &deobfuscateCmd{Mapping: filepath.Join(dir, "missing.json"), Report: reportPath}
	assert.Error(t, cmd.Run())
}
