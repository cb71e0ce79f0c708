package psm

import (
	"archive/tar"
	"io"
	"path"
	"strings"

	"github.com/mkulik-rh/rpm/pkg/errors"
	"github.com/mkulik-rh/rpm/pkg/fi"
	"github.com/mkulik-rh/rpm/pkg/filesystem"
	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/mkulik-rh/rpm/pkg/rpmdb"
	"github.com/mkulik-rh/rpm/pkg/te"
	"github.com/spf13/afero"
)

// archivePath maps a payload member name to the path it is listed under
// in the header.
func archivePath(name string) string {
	return path.Clean("/" + strings.TrimPrefix(name, "./"))
}

// extract unpacks the payload of el into root. Members land on the
// relocated path of their manifest entry; entries marked skip are left
// out. Regular files missing from the manifest fail the install.
func extract(root afero.Fs, el *te.Element) error {
	m := el.FI()
	if m == nil {
		return errors.Newf(errors.ErrInvalidInput, "%s has no file manifest", el.NEVRA())
	}
	states := el.FileStates()

	index := make(map[string]int, m.Count())
	for i, f := range m.Files() {
		index[f.OrigPath] = i
	}

	payload, err := el.Payload()
	if err != nil {
		return err
	}
	defer payload.Close()

	var written, skipped int
	tr := tar.NewReader(payload)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrapf(err, errors.ErrPayload, "corrupt payload in %s", el.NEVRA())
		}

		name := archivePath(hdr.Name)
		i, listed := index[name]
		if !listed {
			if hdr.Typeflag == tar.TypeDir {
				continue
			}
			return errors.Newf(errors.ErrPayload, "payload of %s has unlisted file %s", el.NEVRA(), name).
				WithDetail("path", name)
		}
		if states.Get(i) == fi.StateSkip {
			skipped++
			continue
		}

		dest := m.File(i).Path
		if err := writeMember(root, tr, hdr, dest); err != nil {
			return errors.Wrapf(err, errors.ErrPayload, "failed to unpack %s", dest).WithDetail("path", dest)
		}
		written++
	}

	log.Debug().Str("nevra", el.NEVRA()).Int("written", written).Int("skipped", skipped).Msg("Unpacked payload")
	return nil
}

func writeMember(root afero.Fs, r io.Reader, hdr *tar.Header, dest string) error {
	mode := hdr.FileInfo().Mode().Perm()
	switch hdr.Typeflag {
	case tar.TypeDir:
		return root.MkdirAll(dest, mode)
	case tar.TypeSymlink:
		return filesystem.Symlink(root, hdr.Linkname, dest)
	case tar.TypeReg:
		f, err := filesystem.Create(root, dest, mode)
		if err != nil {
			return err
		}
		if _, err := io.Copy(f, r); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	default:
		log.Debug().Str("path", dest).Str("type", string(hdr.Typeflag)).Msg("Skipping unsupported payload member")
		return nil
	}
}

// sharedFiles returns the paths other installed packages own
func sharedFiles(db *rpmdb.DB, self uint32) (map[string]bool, error) {
	shared := make(map[string]bool)
	err := db.Iterate(func(h *header.Header) error {
		if h.Instance() == self {
			return nil
		}
		m := fi.New(h, fi.FlagsQuery)
		for _, f := range m.Files() {
			shared[f.Path] = true
		}
		m.Free()
		return nil
	})
	return shared, err
}

// removeFiles deletes the manifest of el from root, deepest paths first
// so owned directories can go once emptied. Files another installed
// package owns are kept.
func removeFiles(root afero.Fs, db *rpmdb.DB, el *te.Element) error {
	m := el.FI()
	if m == nil {
		return nil
	}
	states := el.FileStates()
	files := m.Files()

	shared, err := sharedFiles(db, el.DBInstance())
	if err != nil {
		return err
	}

	var removed int
	for i := len(files) - 1; i >= 0; i-- {
		if states.Get(i) == fi.StateSkip || shared[files[i].Path] {
			continue
		}
		ok, err := filesystem.Remove(root, files[i].Path)
		if err != nil {
			return errors.Wrapf(err, errors.ErrInternal, "failed to remove %s", files[i].Path)
		}
		if ok {
			removed++
		}
	}
	log.Debug().Str("nevra", el.NEVRA()).Int("removed", removed).Msg("Removed files")
	return nil
}
