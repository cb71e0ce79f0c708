package testutil

import (
	"path/filepath"
	"testing"

	"github.com/mkulik-rh/rpm/pkg/filesystem"
	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/mkulik-rh/rpm/pkg/paths"
	"github.com/mkulik-rh/rpm/pkg/rpmdb"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// EnvType defines the type of test environment
type EnvType int

const (
	EnvMemoryOnly EnvType = iota // In-memory root
	EnvIsolated                  // Real root in a temp directory
)

// PackageDir is where Env.Package stores package files on the root
const PackageDir = "/var/cache/rpmte"

// TestEnvironment is a root filesystem plus an open package database
type TestEnvironment struct {
	Root afero.Fs
	DB   *rpmdb.DB
	Type EnvType

	// RootDir is the host directory behind Root for EnvIsolated
	RootDir string

	t testing.TB
}

// NewTestEnvironment creates an environment. The XDG directories of the
// process point into a temp directory for the duration of the test.
func NewTestEnvironment(t testing.TB, envType EnvType) *TestEnvironment {
	t.Helper()

	tempDir := t.TempDir()
	t.Setenv(paths.EnvDataDir, filepath.Join(tempDir, "data"))
	t.Setenv(paths.EnvConfigDir, filepath.Join(tempDir, "config"))
	t.Setenv(paths.EnvStateDir, filepath.Join(tempDir, "state"))

	env := &TestEnvironment{Type: envType, t: t}
	switch envType {
	case EnvIsolated:
		env.RootDir = filepath.Join(tempDir, "root")
		require.NoError(t, afero.NewOsFs().MkdirAll(env.RootDir, 0755))
		env.Root = filesystem.NewRoot(env.RootDir)
	default:
		env.Root = filesystem.NewMemory()
	}

	db, err := rpmdb.Open(paths.DBPath())
	require.NoError(t, err)
	env.DB = db
	t.Cleanup(func() {
		_ = db.Close()
	})
	return env
}

// Package writes a package file for h holding files and returns its key
func (env *TestEnvironment) Package(h *header.Header, files map[string]string) string {
	env.t.Helper()
	key := filepath.Join(PackageDir, h.GetString(header.TagNEVRA)+".rpm")
	WritePackage(env.t, env.Root, key, h, files)
	return key
}

// Installed stores h in the database and returns its instance
func (env *TestEnvironment) Installed(h *header.Header) uint32 {
	env.t.Helper()
	instance, err := env.DB.Add(h)
	require.NoError(env.t, err)
	return instance
}

// ReadFile returns a file from the root, failing the test if it is missing
func (env *TestEnvironment) ReadFile(path string) string {
	env.t.Helper()
	data, err := afero.ReadFile(env.Root, path)
	require.NoError(env.t, err)
	return string(data)
}

// Exists reports whether path exists on the root
func (env *TestEnvironment) Exists(path string) bool {
	ok, err := afero.Exists(env.Root, path)
	require.NoError(env.t, err)
	return ok
}
