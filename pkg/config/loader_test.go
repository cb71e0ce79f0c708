package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mkulik-rh/rpm/pkg/errors"
	"github.com/mkulik-rh/rpm/pkg/paths"
	"github.com/mkulik-rh/rpm/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(paths.EnvConfigDir, filepath.Join(dir, "config"))
	t.Setenv(paths.EnvDataDir, filepath.Join(dir, "data"))
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/", cfg.Root)
	assert.Equal(t, types.TransNone, cfg.Flags())
	assert.Equal(t, filepath.Join(dir, "data", paths.DBFileName), cfg.Database.Path)
	assert.Equal(t, "/usr/lib/rpm-plugins", cfg.Macros["_plugindir"])
	assert.Empty(t, cfg.Keyring.Trusted)
}

func TestLoadUserFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.toml")
	content := `
root = "/srv/root"

[transaction]
test = true
noscripts = true

[keyring]
trusted = ["abc", "def"]

[macros]
__collection_sql = "sql --vacuum"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/root", cfg.Root)
	assert.Equal(t, types.TransTest|types.TransNoScripts, cfg.Flags())
	assert.Equal(t, []string{"abc", "def"}, cfg.Keyring.Trusted)
	assert.Equal(t, "sql --vacuum", cfg.Macros["__collection_sql"])
	assert.Equal(t, "/usr/lib/rpm-plugins", cfg.Macros["_plugindir"])

	got, err := cfg.MacroContext().Expand("%{?__collection_sql}")
	require.NoError(t, err)
	assert.Equal(t, "sql --vacuum", got)
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("RPMTE_TRANSACTION_JUSTDB", "true")
	t.Setenv("RPMTE_DATABASE_PATH", "/tmp/x.db")
	t.Setenv("RPMTE_KEYRING_TRUSTED", "k1,k2")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Flags().Has(types.TransJustDB))
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Keyring.Trusted)
}

func TestLoadErrors(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "missing.toml"))
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigLoad))

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("root = ["), 0644))
	_, err = Load(bad)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigParse))
}

func TestFromMap(t *testing.T) {
	isolate(t)
	cfg, err := FromMap(map[string]interface{}{
		"transaction.nocollections": true,
		"root":                      "/mnt",
	})
	require.NoError(t, err)
	assert.Equal(t, types.TransNoCollections, cfg.Flags())
	assert.Equal(t, "/mnt", cfg.Root)
}
