package pathcheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geomantic/tilepress/internal/faults"
)

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("PAR1"), 0o644))
	return path
}

func TestValidate_EmptyPath(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t"} {
		_, err := Validate(raw, RoleInput)
		var pe *faults.PathError
		require.ErrorAs(t, err, &pe, "raw=%q", raw)
		assert.Contains(t, pe.Rule, "empty")
	}
}

func TestValidate_ShellMetacharacters(t *testing.T) {
	cases := []string{
		"data.parquet; rm -rf /",
		"data|tee x.parquet",
		"data`whoami`.parquet",
		"a && b.parquet",
		"$HOME/data.parquet",
		"out > tricked.parquet",
		"line\nbreak.parquet",
	}
	for _, raw := range cases {
		t.Run(raw, func(t *testing.T) {
			_, err := Validate(raw, RoleInput)
			var pe *faults.PathError
			require.ErrorAs(t, err, &pe)
			assert.Contains(t, pe.Rule, "metacharacter")
			assert.NotEmpty(t, pe.Hint())
		})
	}
}

func TestValidate_RemoteInputPassesThrough(t *testing.T) {
	for _, uri := range []string{
		"s3://bucket/data.parquet",
		"gs://bucket/data.parquet",
		"az://container/data.parquet",
		"https://example.com/data.parquet?version=2&rev=1",
		"S3://Bucket/Data.parquet",
	} {
		v, err := Validate(uri, RoleInput)
		require.NoError(t, err, uri)
		assert.Equal(t, uri, v.String(), "remote URIs must pass through unaltered")
	}
}

func TestValidate_RemoteOutputRejected(t *testing.T) {
	_, err := Validate("s3://bucket/out.pmtiles", RoleOutput)
	var pe *faults.PathError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Rule, "local")
}

func TestValidate_InputMustExist(t *testing.T) {
	_, err := Validate(filepath.Join(t.TempDir(), "missing.parquet"), RoleInput)
	var pe *faults.PathError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Rule, "does not exist")
}

func TestValidate_InputDirectoryRejected(t *testing.T) {
	_, err := Validate(t.TempDir(), RoleInput)
	var pe *faults.PathError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Rule, "regular file")
}

func TestValidate_InputOK(t *testing.T) {
	path := writeFile(t, t.TempDir(), "data.parquet")
	v, err := Validate(path, RoleInput)
	require.NoError(t, err)
	assert.Equal(t, path, v.String())
}

func TestValidate_InputNormalized(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "data.parquet")
	v, err := Validate(dir+"//./data.parquet", RoleInput)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data.parquet"), v.String())
}

func TestValidate_OutputParentMissing(t *testing.T) {
	_, err := Validate(filepath.Join(t.TempDir(), "nope", "out.pmtiles"), RoleOutput)
	var pe *faults.PathError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Rule, "parent directory")
}

func TestValidate_OutputOverwriteAllowed(t *testing.T) {
	dir := t.TempDir()
	existing := writeFile(t, dir, "out.pmtiles")
	v, err := Validate(existing, RoleOutput)
	require.NoError(t, err, "existing output file must be accepted for overwrite")
	assert.Equal(t, existing, v.String())
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("s3://b/k"))
	assert.True(t, IsRemote("https://host/p"))
	assert.False(t, IsRemote("/tmp/data.parquet"))
	assert.False(t, IsRemote("ftp://host/p"))
}
