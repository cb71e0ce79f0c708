package testutil

import (
	"archive/tar"
	"bytes"
	"sort"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/mkulik-rh/rpm/pkg/filesystem"
	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// Payload builds a gzip compressed tar payload. Keys are absolute paths;
// a key ending in "/" is a directory.
func Payload(t testing.TB, files map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var archive bytes.Buffer
	tw := tar.NewWriter(&archive)
	for _, name := range names {
		member := "." + name
		if strings.HasSuffix(name, "/") {
			require.NoError(t, tw.WriteHeader(&tar.Header{
				Name:     member,
				Typeflag: tar.TypeDir,
				Mode:     0755,
			}))
			continue
		}
		content := files[name]
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     member,
			Typeflag: tar.TypeReg,
			Mode:     0644,
			Size:     int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())

	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	_, err := zw.Write(archive.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return compressed.Bytes()
}

// PackageFile returns a complete package file for h with the given
// payload files.
func PackageFile(t testing.TB, h *header.Header, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, header.WritePackage(&buf, h, bytes.NewReader(Payload(t, files))))
	return buf.Bytes()
}

// WritePackage stores a package file for h at path on root
func WritePackage(t testing.TB, root afero.Fs, path string, h *header.Header, files map[string]string) {
	t.Helper()
	require.NoError(t, filesystem.WriteFile(root, path, PackageFile(t, h, files), 0644))
}
