package rpmte

import (
	"io"
	"os"
	"strings"

	"github.com/mkulik-rh/rpm/pkg/collections"
	"github.com/mkulik-rh/rpm/pkg/config"
	"github.com/mkulik-rh/rpm/pkg/errors"
	"github.com/mkulik-rh/rpm/pkg/filesystem"
	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/mkulik-rh/rpm/pkg/problems"
	"github.com/mkulik-rh/rpm/pkg/psm"
	"github.com/mkulik-rh/rpm/pkg/relocation"
	"github.com/mkulik-rh/rpm/pkg/rpmdb"
	"github.com/mkulik-rh/rpm/pkg/te"
	"github.com/mkulik-rh/rpm/pkg/ts"
	"github.com/mkulik-rh/rpm/pkg/types"
	"github.com/mkulik-rh/rpm/pkg/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// session is the configuration, database and transaction of one command
type session struct {
	cfg *config.Config
	db  *rpmdb.DB
	ts  *ts.Transaction
	out *ui.Renderer
}

// openSession loads the configuration and opens the database. extra is
// or'ed into the configured transaction flags.
func openSession(cmd *cobra.Command, opts *globalOptions, extra types.TransFlags) (*session, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.root != "" {
		cfg.Root = opts.root
	}
	if opts.dbPath != "" {
		cfg.Database.Path = opts.dbPath
	}

	format, err := ui.ParseFormat(opts.format)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "invalid output format")
	}
	out := ui.NewRenderer(format, cmd.OutOrStdout())

	db, err := rpmdb.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	flags := cfg.Flags() | extra
	log.Info().Str("root", cfg.Root).Str("db", cfg.Database.Path).Str("flags", flags.String()).Msg("Session opened")

	s := &session{cfg: cfg, db: db, out: out}
	s.ts = ts.New(ts.Options{
		Flags:       flags,
		Root:        filesystem.NewRoot(cfg.Root),
		DB:          db,
		Keyring:     header.NewKeyring(cfg.Keyring.Trusted...),
		Collections: collections.NewDispatcher(collections.PluginLoader{}, cfg.MacroContext()),
		Engine:      psm.New(psm.Options{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}),
		Notify:      s.notify,
	})
	return s, nil
}

// notify opens package files from the host filesystem, keys are the paths
// given on the command line, and reports progress through the renderer.
func (s *session) notify(e *te.Element, what types.CallbackType, amount, total uint64) io.ReadCloser {
	if what == types.CallbackInstOpenFile {
		f, err := os.Open(e.Key())
		if err != nil {
			log.Error().Err(err).Str("key", e.Key()).Msg("Failed to open package file")
			return nil
		}
		return f
	}
	s.out.Event(ui.Event{NEVRA: e.NEVRA(), What: what, Amount: amount, Total: total})
	return nil
}

func (s *session) Close() error {
	s.ts.Free()
	return s.db.Close()
}

// addPackage reads the header of a package file and adds an install
// element keyed by its path. The caller owns the returned header.
func (s *session) addPackage(path string, upgrade bool, relocs []relocation.Relocation) (*te.Element, *header.Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, errors.ErrPackageOpen, "failed to open %s", path).WithDetail("path", path)
	}
	defer f.Close()

	h, rc, err := s.ts.ReadPackage(f)
	if !rc.Usable() {
		if err == nil {
			err = errors.New(errors.ErrHeaderRead, rc.String())
		}
		return nil, nil, errors.Wrapf(err, errors.ErrHeaderRead, MsgErrNotAPackage, path, rc).WithDetail("path", path)
	}
	if rc != types.RCOK {
		log.Warn().Str("path", path).Str("rc", rc.String()).Msg("Package signature not verified")
	}

	e, err := s.ts.AddInstall(h, path, upgrade, relocs)
	if err != nil {
		h.Free()
		return nil, nil, err
	}
	return e, h, nil
}

// addErasures adds an erase element for every installed package named name
func (s *session) addErasures(name string) error {
	ids, err := s.db.FindByName(name)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return errors.Newf(errors.ErrNotFound, MsgErrNotInstalled, name).WithDetail("name", name)
	}
	for _, id := range ids {
		if _, err := s.ts.AddErase(id, nil); err != nil {
			return err
		}
	}
	return nil
}

// parseRelocations turns OLD=NEW pairs and excluded paths into relocations
func parseRelocations(pairs, excludes []string) ([]relocation.Relocation, error) {
	var relocs []relocation.Relocation
	for _, pair := range pairs {
		oldPath, newPath, ok := strings.Cut(pair, "=")
		if !ok || oldPath == "" || newPath == "" {
			return nil, errors.Newf(errors.ErrInvalidInput, MsgErrBadRelocation, pair)
		}
		relocs = append(relocs, relocation.Relocation{OldPath: oldPath, NewPath: newPath})
	}
	for _, path := range excludes {
		relocs = append(relocs, relocation.Relocation{OldPath: path})
	}
	return relocs, nil
}

// problemStrings formats the problems of a set and releases it
func problemStrings(set *problems.Set) []string {
	defer set.Free()
	var out []string
	for _, p := range set.All() {
		out = append(out, p.String())
	}
	return out
}
