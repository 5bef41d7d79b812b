package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/qgenie"
	"github.com/meigma/qgenie/internal/testutil"
)

var cliConfig = []byte(`{"dialog":{"version":1}}`)

func cliBundle(t *testing.T) string {
	t.Helper()
	b := &testutil.Bundle{
		Config: cliConfig,
		Sections: []testutil.Section{
			{Name: "model.bin", Data: testutil.RandomBytes(7, 64<<10)},
			{Name: "htp/ext.json", Data: []byte(`{}`)},
		},
	}
	return b.Write(t, t.TempDir())
}

// execute runs the CLI with an empty config file so the host's
// qgenie.yaml cannot leak in.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "qgenie.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("no_progress: true\n"), 0o600))

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", cfg}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestUnpackCommand(t *testing.T) {
	t.Parallel()

	bundle := cliBundle(t)
	out := filepath.Join(t.TempDir(), "out")

	stdout, _, err := execute(t, "unpack", bundle, out, "--workers", "2", "--strict", "--print-config")
	require.NoError(t, err)
	assert.Contains(t, stdout, "extracted 3, skipped 0")
	assert.Contains(t, stdout, string(cliConfig))

	got, err := os.ReadFile(filepath.Join(out, "htp", "ext.json"))
	require.NoError(t, err)
	assert.Equal(t, []byte(`{}`), got)

	stdout, _, err = execute(t, "unpack", bundle, out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "extracted 0, skipped 3")
}

func TestUnpackCommandErrors(t *testing.T) {
	t.Parallel()

	data := (&testutil.Bundle{Config: cliConfig}).Build(t)
	data[len(data)/2] ^= 0xff
	corrupt := testutil.WriteFile(t, t.TempDir(), data)

	_, _, err := execute(t, "unpack", corrupt, t.TempDir())
	require.ErrorIs(t, err, qgenie.ErrIntegrity)

	_, _, err = execute(t, "unpack", corrupt)
	require.Error(t, err)

	_, _, err = execute(t, "unpack", cliBundle(t), t.TempDir(), "--workers", "-3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid workers")
}

func TestInspectCommand(t *testing.T) {
	t.Parallel()

	bundle := cliBundle(t)

	stdout, _, err := execute(t, "inspect", bundle)
	require.NoError(t, err)
	assert.Contains(t, stdout, "sha256:")
	assert.Contains(t, stdout, "NAME")
	assert.Contains(t, stdout, "htp/ext.json")
	assert.Contains(t, stdout, "64 KiB")

	stdout, _, err = execute(t, "inspect", bundle, "--json")
	require.NoError(t, err)

	var v inspectJSON
	require.NoError(t, json.Unmarshal([]byte(stdout), &v))
	assert.Equal(t, bundle, v.Path)
	assert.Equal(t, uint16(1), v.Version)
	require.Len(t, v.Entries, 3)
	assert.Equal(t, qgenie.ConfigName, v.Entries[0].Name)
	assert.Empty(t, v.Entries[0].CRC32)
	require.NotNil(t, v.Entries[1].RawLength)
	assert.Equal(t, uint64(64<<10), *v.Entries[1].RawLength)
}

func TestVerifyCommand(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "verify", cliBundle(t), "--strict")
	require.NoError(t, err)
	assert.Contains(t, stdout, ": ok")

	b := &testutil.Bundle{
		Config:   cliConfig,
		Sections: []testutil.Section{{Name: "a.bin", Data: []byte("a"), BadCRC: true}},
	}
	path := b.Write(t, t.TempDir())

	_, _, err = execute(t, "verify", path)
	require.NoError(t, err)

	_, _, err = execute(t, "verify", path, "--strict")
	require.ErrorIs(t, err, qgenie.ErrIntegrity)
}

func TestLogFlags(t *testing.T) {
	t.Parallel()

	bundle := cliBundle(t)

	_, stderr, err := execute(t, "--log-level", "debug", "--log-format", "json", "unpack", bundle, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"unpacked bundle"`)

	_, stderr, err = execute(t, "--log-level", "error", "unpack", bundle, t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, stderr)

	_, _, err = execute(t, "--log-format", "xml", "verify", bundle)
	require.Error(t, err)
}
