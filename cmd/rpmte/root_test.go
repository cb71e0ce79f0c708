package rpmte

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/mkulik-rh/rpm/pkg/errors"
	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/mkulik-rh/rpm/pkg/paths"
	"github.com/mkulik-rh/rpm/pkg/rpmdb"
	"github.com/mkulik-rh/rpm/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cliEnv is a throwaway root, database and package directory
type cliEnv struct {
	root string
	db   string
	pkgs string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(paths.EnvDataDir, filepath.Join(dir, "data"))
	t.Setenv(paths.EnvConfigDir, filepath.Join(dir, "config"))
	t.Setenv(paths.EnvStateDir, filepath.Join(dir, "state"))

	env := &cliEnv{
		root: filepath.Join(dir, "root"),
		db:   filepath.Join(dir, "packages.db"),
		pkgs: filepath.Join(dir, "pkgs"),
	}
	require.NoError(t, os.MkdirAll(env.root, 0755))
	require.NoError(t, os.MkdirAll(env.pkgs, 0755))
	return env
}

func (env *cliEnv) execute(args ...string) (string, error) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--root", env.root, "--db", env.db, "--format", "text"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (env *cliEnv) pkg(t *testing.T, h *header.Header, files map[string]string) string {
	t.Helper()
	path := filepath.Join(env.pkgs, h.GetString(header.TagNEVRA)+".rpm")
	require.NoError(t, os.WriteFile(path, testutil.PackageFile(t, h, files), 0644))
	return path
}

func (env *cliEnv) installed(t *testing.T, name string) int {
	t.Helper()
	db, err := rpmdb.Open(env.db)
	require.NoError(t, err)
	defer db.Close()
	ids, err := db.FindByName(name)
	require.NoError(t, err)
	return len(ids)
}

var toolFiles = map[string]string{
	"/usr/bin/tool":                 "#!/bin/sh\n",
	"/usr/share/doc/tool/README.md": "docs\n",
}

func toolHeader(t *testing.T) *header.Header {
	return testutil.NewHeader("tool").
		Files("/usr/bin/tool", "/usr/share/doc/tool/README.md").
		Prefixes("/usr").
		Script(header.TagPostIn, header.TagPostInProg, `echo "post $1" >> /var/log/tool`).
		Build(t)
}

func TestVersionCmd(t *testing.T) {
	env := newCLIEnv(t)
	out, err := env.execute("version")
	require.NoError(t, err)
	assert.Equal(t, "rpmte dev (commit unknown, built unknown)\n", out)
}

func TestNoCommand(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.execute()
	assert.EqualError(t, err, MsgErrNoCommand)
}

func TestInvalidFormat(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.execute("--format", "yaml", "version")
	assert.ErrorContains(t, err, "unknown format")
}

func TestInspect(t *testing.T) {
	env := newCLIEnv(t)
	path := env.pkg(t, toolHeader(t), toolFiles)

	out, err := env.execute("inspect", "--relocate", "/usr=/opt", "--excludepath", "/usr/share/doc", path)
	require.NoError(t, err)

	assert.Contains(t, out, "tool-1.0-1.x86_64 install\n")
	assert.Contains(t, out, "  key        "+path+"\n")
	assert.Contains(t, out, "  files      2\n")
	assert.Contains(t, out, "  relocate   /usr -> /opt\n")
	assert.Contains(t, out, "  relocate   /usr/share/doc -> (excluded)\n")
	assert.NotContains(t, out, "problem")
	assert.Equal(t, 0, env.installed(t, "tool"), "inspect changes nothing")
}

func TestInspectReportsProblems(t *testing.T) {
	env := newCLIEnv(t)
	path := env.pkg(t, testutil.NewHeader("app").Requires("libmissing").Build(t), nil)

	out, err := env.execute("inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "  problem    libmissing is needed by app-1.0-1.x86_64\n")
}

func TestInspectXML(t *testing.T) {
	env := newCLIEnv(t)
	path := env.pkg(t, toolHeader(t), toolFiles)

	out, err := env.execute("inspect", "--format", "xml", path)
	require.NoError(t, err)
	assert.Contains(t, out, `<rpmTag name="NAME">`)
	assert.Contains(t, out, "<string>tool</string>")
}

func TestInspectNotAPackage(t *testing.T) {
	env := newCLIEnv(t)
	path := filepath.Join(env.pkgs, "junk.rpm")
	require.NoError(t, os.WriteFile(path, []byte("not a package"), 0644))

	_, err := env.execute("inspect", path)
	assert.True(t, errors.IsErrorCode(err, errors.ErrHeaderRead), "got %v", err)

	_, err = env.execute("inspect", filepath.Join(env.pkgs, "missing.rpm"))
	assert.True(t, errors.IsErrorCode(err, errors.ErrPackageOpen), "got %v", err)
}

func TestRunInstallThenErase(t *testing.T) {
	env := newCLIEnv(t)
	path := env.pkg(t, toolHeader(t), toolFiles)

	out, err := env.execute("run", path)
	require.NoError(t, err)
	assert.Contains(t, out, "installing tool-1.0-1.x86_64\n")
	assert.Contains(t, out, "install  tool-1.0-1.x86_64 ok\n")
	assert.Contains(t, out, "1 element(s), 0 failed (flags: none)\n")

	data, err := os.ReadFile(filepath.Join(env.root, "usr/bin/tool"))
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\n", string(data))
	assert.Equal(t, 1, env.installed(t, "tool"))

	out, err = env.execute("run", "--erase", "tool")
	require.NoError(t, err)
	assert.Contains(t, out, "erasing tool-1.0-1.x86_64\n")
	assert.Contains(t, out, "erase    tool-1.0-1.x86_64 ok\n")

	assert.NoFileExists(t, filepath.Join(env.root, "usr/bin/tool"))
	assert.Equal(t, 0, env.installed(t, "tool"))

	log, err := os.ReadFile(filepath.Join(env.root, "var/log/tool"))
	require.NoError(t, err)
	assert.Equal(t, "post 1\n", string(log))
}

func TestRunRelocated(t *testing.T) {
	env := newCLIEnv(t)
	path := env.pkg(t, toolHeader(t), toolFiles)

	_, err := env.execute("run", "--relocate", "/usr=/opt", "--excludepath", "/usr/share/doc", path)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(env.root, "opt/bin/tool"))
	assert.NoFileExists(t, filepath.Join(env.root, "usr/bin/tool"))
	assert.NoFileExists(t, filepath.Join(env.root, "opt/share/doc/tool/README.md"))
}

func TestRunFlags(t *testing.T) {
	t.Run("test changes nothing", func(t *testing.T) {
		env := newCLIEnv(t)
		path := env.pkg(t, toolHeader(t), toolFiles)

		out, err := env.execute("run", "--test", path)
		require.NoError(t, err)
		assert.Contains(t, out, "(flags: test)")
		assert.NoFileExists(t, filepath.Join(env.root, "usr/bin/tool"))
		assert.Equal(t, 0, env.installed(t, "tool"))
	})

	t.Run("justdb skips files and scriptlets", func(t *testing.T) {
		env := newCLIEnv(t)
		path := env.pkg(t, toolHeader(t), toolFiles)

		_, err := env.execute("run", "--justdb", path)
		require.NoError(t, err)
		assert.NoFileExists(t, filepath.Join(env.root, "usr/bin/tool"))
		assert.NoFileExists(t, filepath.Join(env.root, "var/log/tool"))
		assert.Equal(t, 1, env.installed(t, "tool"))
	})

	t.Run("noscripts", func(t *testing.T) {
		env := newCLIEnv(t)
		path := env.pkg(t, toolHeader(t), toolFiles)

		_, err := env.execute("run", "--noscripts", path)
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(env.root, "usr/bin/tool"))
		assert.NoFileExists(t, filepath.Join(env.root, "var/log/tool"))
	})
}

func TestRunRefusesProblems(t *testing.T) {
	env := newCLIEnv(t)
	path := env.pkg(t, testutil.NewHeader("app").Requires("libmissing").Build(t), nil)

	out, err := env.execute("run", path)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	assert.Contains(t, out, "problem: libmissing is needed by app-1.0-1.x86_64\n")
	assert.Equal(t, 0, env.installed(t, "app"))

	_, err = env.execute("run", "--nodeps", path)
	require.NoError(t, err)
	assert.Equal(t, 1, env.installed(t, "app"))
}

func TestRunFailedElement(t *testing.T) {
	env := newCLIEnv(t)
	h := testutil.NewHeader("broken").
		Script(header.TagPreIn, header.TagPreInProg, "exit 2").
		Build(t)
	path := env.pkg(t, h, nil)

	out, err := env.execute("run", path)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrElementFailed))
	assert.Contains(t, out, "prein scriptlet of broken-1.0-1.x86_64 failed with status 2\n")
	assert.Contains(t, out, "install  broken-1.0-1.x86_64 failed\n")
	assert.Equal(t, 0, env.installed(t, "broken"))
}

func TestRunArguments(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.execute("run")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	_, err = env.execute("run", "--erase", "ghost")
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))

	_, err = env.execute("run", "--relocate", "/usr", "x.rpm")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestHelpTopics(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.execute("help", "topics")
	require.NoError(t, err)
	for _, name := range []string{"collections", "relocations", "scriptlets", "--root"} {
		assert.Contains(t, out, name)
	}

	out, err = env.execute("help", "root")
	require.NoError(t, err)
	assert.Contains(t, out, "Install packages under DIR")
}
