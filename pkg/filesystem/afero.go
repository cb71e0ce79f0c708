package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// NewRoot returns the filesystem rooted at dir. "/" and "" give the host
// filesystem; any other directory is a chroot-like view of it.
func NewRoot(dir string) afero.Fs {
	if dir == "" || filepath.Clean(dir) == "/" {
		return afero.NewOsFs()
	}
	return afero.NewBasePathFs(afero.NewOsFs(), dir)
}

// IsHost reports whether root is the unrestricted host filesystem
func IsHost(root afero.Fs) bool {
	_, ok := root.(*afero.OsFs)
	return ok
}

// NewMemory returns an empty in-memory root
func NewMemory() afero.Fs {
	return afero.NewMemMapFs()
}

// WriteFile writes data to name, creating missing parent directories
func WriteFile(root afero.Fs, name string, data []byte, perm fs.FileMode) error {
	if err := root.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return err
	}
	return afero.WriteFile(root, name, data, perm)
}

// Create opens name for writing, truncating it and creating missing
// parent directories.
func Create(root afero.Fs, name string, perm fs.FileMode) (afero.File, error) {
	if err := root.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return nil, err
	}
	return root.OpenFile(name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
}

// Symlink creates newname pointing at oldname. Filesystems without link
// support (MemMapFs) get a file holding the target instead.
func Symlink(root afero.Fs, oldname, newname string) error {
	if err := root.MkdirAll(filepath.Dir(newname), 0755); err != nil {
		return err
	}
	if linker, ok := root.(afero.Linker); ok {
		return linker.SymlinkIfPossible(oldname, newname)
	}
	return afero.WriteFile(root, newname, []byte(oldname), 0777|os.ModeSymlink)
}

// Remove deletes name. Missing paths and non-empty directories are not
// errors: removed reports whether anything was deleted.
func Remove(root afero.Fs, name string) (removed bool, err error) {
	info, err := root.Stat(name)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		entries, err := afero.ReadDir(root, name)
		if err != nil {
			return false, err
		}
		if len(entries) > 0 {
			return false, nil
		}
	}
	if err := root.Remove(name); err != nil {
		return false, err
	}
	return true, nil
}
