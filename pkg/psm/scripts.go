package psm

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mkulik-rh/rpm/pkg/errors"
	"github.com/mkulik-rh/rpm/pkg/filesystem"
	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/mkulik-rh/rpm/pkg/te"
	"github.com/mkulik-rh/rpm/pkg/types"
	"github.com/spf13/afero"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// DefaultProg is the only scriptlet interpreter supported
const DefaultProg = "/bin/sh"

type scriptlet struct {
	name string
	body header.Tag
	prog header.Tag
}

var (
	preIn     = scriptlet{"%pre", header.TagPreIn, header.TagPreInProg}
	postIn    = scriptlet{"%post", header.TagPostIn, header.TagPostInProg}
	preUn     = scriptlet{"%preun", header.TagPreUn, header.TagPreUnProg}
	postUn    = scriptlet{"%postun", header.TagPostUn, header.TagPostUnProg}
	preTrans  = scriptlet{"%pretrans", header.TagPreTrans, header.TagPreTransProg}
	postTrans = scriptlet{"%posttrans", header.TagPostTrans, header.TagPostTransProg}
)

// runScript runs one scriptlet of h. Missing scriptlets and transactions
// without scripts succeed immediately.
func (e *Engine) runScript(ctx context.Context, ts Transaction, el *te.Element, h *header.Header, s scriptlet, goal types.Goal) error {
	if ts.Flags().Any(types.TransNoScripts | types.TransJustDB) {
		return nil
	}
	body := h.GetString(s.body)
	if body == "" {
		return nil
	}

	prog := h.GetString(s.prog)
	if prog == "" {
		prog = DefaultProg
	}
	if prog != DefaultProg {
		return errors.Newf(errors.ErrScriptUnsupported, "%s scriptlet of %s uses unsupported interpreter %s", s.name, el.NEVRA(), prog).
			WithDetail("prog", prog)
	}

	file, err := syntax.NewParser().Parse(strings.NewReader(body), s.name)
	if err != nil {
		return errors.Wrapf(err, errors.ErrScriptFailed, "failed to parse %s scriptlet of %s", s.name, el.NEVRA())
	}

	count, err := instanceCount(ts.DB(), el, goal)
	if err != nil {
		return err
	}

	root := ts.Root()
	runner, err := interp.New(
		interp.Dir("/"),
		interp.Env(expand.ListEnviron(scriptEnv(h)...)),
		interp.Params("--", strconv.Itoa(count)),
		interp.StdIO(nil, e.stdout, e.stderr),
		interp.OpenHandler(openHandler(root)),
		interp.StatHandler(statHandler(root)),
		interp.ExecHandlers(execHandler(root, e.stderr)),
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrScriptFailed, "failed to create scriptlet interpreter")
	}

	log.Debug().Str("nevra", el.NEVRA()).Str("scriptlet", s.name).Int("arg", count).Msg("Running scriptlet")
	if err := runner.Run(ctx, file); err != nil {
		status := 1
		var exit interp.ExitStatus
		if stderrors.As(err, &exit) {
			status = int(exit)
		}
		notifyScriptError(el, s.body, status)
		return errors.Wrapf(err, errors.ErrScriptFailed, "%s scriptlet of %s failed", s.name, el.NEVRA()).
			WithDetail("status", status)
	}
	return nil
}

func notifyScriptError(el *te.Element, tag header.Tag, status int) {
	ts := el.Transaction()
	if ts == nil {
		return
	}
	if rc := ts.Notify(el, types.CallbackScriptError, uint64(tag), uint64(status)); rc != nil {
		_ = rc.Close()
	}
}

func scriptEnv(h *header.Header) []string {
	env := []string{
		"PATH=/usr/sbin:/usr/bin:/sbin:/bin",
		"RPM_PACKAGE_NAME=" + h.GetString(header.TagName),
		"RPM_PACKAGE_VERSION=" + h.GetString(header.TagVersion),
		"RPM_PACKAGE_RELEASE=" + h.GetString(header.TagRelease),
	}
	for i, prefix := range h.GetStrings(header.TagInstPrefixes) {
		if i == 0 {
			env = append(env, "RPM_INSTALL_PREFIX="+prefix)
		}
		env = append(env, fmt.Sprintf("RPM_INSTALL_PREFIX%d=%s", i, prefix))
	}
	return env
}

func absPath(ctx context.Context, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(interp.HandlerCtx(ctx).Dir, path)
}

type discard struct{}

func (discard) Read([]byte) (int, error)    { return 0, io.EOF }
func (discard) Write(p []byte) (int, error) { return len(p), nil }
func (discard) Close() error                { return nil }

// openHandler resolves redirections against root
func openHandler(root afero.Fs) interp.OpenHandlerFunc {
	return func(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
		if path == "/dev/null" {
			return discard{}, nil
		}
		path = absPath(ctx, path)
		if flag&os.O_CREATE != 0 {
			if err := root.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, err
			}
		}
		return root.OpenFile(path, flag, perm)
	}
}

func statHandler(root afero.Fs) interp.StatHandlerFunc {
	return func(_ context.Context, name string, followSymlinks bool) (fs.FileInfo, error) {
		name = filepath.Clean(name)
		if lstater, ok := root.(afero.Lstater); ok && !followSymlinks {
			info, _, err := lstater.LstatIfPossible(name)
			return info, err
		}
		return root.Stat(name)
	}
}

// execHandler refuses external commands unless root is the host
func execHandler(root afero.Fs, stderr io.Writer) func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			if filesystem.IsHost(root) {
				return next(ctx, args)
			}
			fmt.Fprintf(stderr, "%s: command not available outside the host root\n", args[0])
			return interp.ExitStatus(127)
		}
	}
}
