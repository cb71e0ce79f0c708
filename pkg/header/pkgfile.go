package header

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/mkulik-rh/rpm/pkg/errors"
	"github.com/mkulik-rh/rpm/pkg/types"
	"github.com/spaolacci/murmur3"
)

const (
	leadSize   = 8
	digestSize = 8

	// MaxHeaderSize bounds the header blob accepted by ReadPackage
	MaxHeaderSize = 32 << 20
)

var leadMagic = [4]byte{0xed, 0xab, 0xee, 0xdb}

// Keyring is the set of trusted signing key ids
type Keyring map[string]struct{}

// NewKeyring returns a keyring trusting the given key ids
func NewKeyring(ids ...string) Keyring {
	k := make(Keyring, len(ids))
	for _, id := range ids {
		k[id] = struct{}{}
	}
	return k
}

// Has reports whether id is trusted
func (k Keyring) Has(id string) bool {
	_, ok := k[id]
	return ok
}

// WritePackage writes a package file: lead, header, header digest, then the
// already compressed payload.
func WritePackage(w io.Writer, h *Header, payload io.Reader) error {
	blob, err := h.Marshal()
	if err != nil {
		return err
	}

	var lead [leadSize]byte
	copy(lead[:4], leadMagic[:])
	binary.BigEndian.PutUint32(lead[4:], uint32(len(blob)))

	var digest [digestSize]byte
	binary.BigEndian.PutUint64(digest[:], murmur3.Sum64(blob))

	for _, chunk := range [][]byte{lead[:], blob, digest[:]} {
		if _, err := w.Write(chunk); err != nil {
			return errors.Wrap(err, errors.ErrPackageOpen, "failed to write package")
		}
	}
	if payload != nil {
		if _, err := io.Copy(w, payload); err != nil {
			return errors.Wrap(err, errors.ErrPayload, "failed to write payload")
		}
	}
	return nil
}

// ReadPackage reads the header of a package file and checks its signature
// against keyring. On return r is positioned at the start of the payload.
// The header is returned for every usable RC.
func ReadPackage(r io.Reader, keyring Keyring) (*Header, types.RC, error) {
	var lead [leadSize]byte
	if _, err := io.ReadFull(r, lead[:]); err != nil {
		return nil, types.RCNotFound, errors.Wrap(err, errors.ErrHeaderRead, "failed to read lead")
	}
	if !bytes.Equal(lead[:4], leadMagic[:]) {
		return nil, types.RCNotFound, errors.New(errors.ErrHeaderRead, "not a package file")
	}

	size := binary.BigEndian.Uint32(lead[4:])
	if size > MaxHeaderSize {
		return nil, types.RCFail, errors.Newf(errors.ErrHeaderRead, "header size %d too large", size)
	}

	blob := make([]byte, size)
	if _, err := io.ReadFull(r, blob); err != nil {
		return nil, types.RCFail, errors.Wrap(err, errors.ErrHeaderRead, "short header")
	}
	var digest [digestSize]byte
	if _, err := io.ReadFull(r, digest[:]); err != nil {
		return nil, types.RCFail, errors.Wrap(err, errors.ErrHeaderRead, "short header digest")
	}
	if binary.BigEndian.Uint64(digest[:]) != murmur3.Sum64(blob) {
		return nil, types.RCFail, errors.New(errors.ErrHeaderRead, "header digest mismatch")
	}

	h, err := Unmarshal(blob)
	if err != nil {
		return nil, types.RCFail, err
	}

	sig := h.GetString(TagSignature)
	switch {
	case sig == "":
		return h, types.RCNoKey, nil
	case !keyring.Has(sig):
		return h, types.RCNotTrusted, nil
	}
	return h, types.RCOK, nil
}
