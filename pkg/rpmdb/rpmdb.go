// Package rpmdb is the installed package database. Headers are stored by
// instance number, a bucket sequence that starts at 1 and is never reused.
package rpmdb

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	rpmerrors "github.com/mkulik-rh/rpm/pkg/errors"
	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/mkulik-rh/rpm/pkg/logging"
	"go.etcd.io/bbolt"
)

var (
	headersBucket = []byte("headers")
	namesBucket   = []byte("names")
)

const mode = 0644

var log = logging.GetLogger("rpmdb")

// DB is an open package database
type DB struct {
	bolt *bbolt.DB
	path string
}

// Open opens or creates the database at path
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, rpmerrors.Wrapf(errors.WithStack(err), rpmerrors.ErrDBAccess, "failed to create database directory")
	}
	b, err := bbolt.Open(path, mode, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, rpmerrors.Wrapf(errors.WithStack(err), rpmerrors.ErrDBAccess, "failed to open database %s", path).
			WithDetail("path", path)
	}

	err = b.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{headersBucket, namesBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	})
	if err != nil {
		_ = b.Close()
		return nil, rpmerrors.Wrap(err, rpmerrors.ErrDBAccess, "failed to initialise database")
	}

	log.Debug().Str("path", path).Msg("Opened package database")
	return &DB{bolt: b, path: path}, nil
}

// Path returns the database file location
func (db *DB) Path() string { return db.path }

// Close closes the database
func (db *DB) Close() error {
	return errors.WithStack(db.bolt.Close())
}

func instanceKey(instance uint32) []byte {
	var k [4]byte
	binary.BigEndian.PutUint32(k[:], instance)
	return k[:]
}

func nameKey(name string, instance uint32) []byte {
	return append([]byte(name+"\x00"), instanceKey(instance)...)
}

// Add stores h under a new instance number, records the number on h and
// returns it.
func (db *DB) Add(h *header.Header) (uint32, error) {
	name := h.GetString(header.TagName)
	if name == "" {
		return 0, rpmerrors.New(rpmerrors.ErrInvalidInput, "header has no name")
	}
	blob, err := h.Marshal()
	if err != nil {
		return 0, err
	}

	var instance uint32
	err = db.bolt.Update(func(tx *bbolt.Tx) error {
		headers := tx.Bucket(headersBucket)
		seq, err := headers.NextSequence()
		if err != nil {
			return errors.WithStack(err)
		}
		if seq > 0xffffffff {
			return errors.AssertionFailedf("instance sequence overflow: %d", seq)
		}
		instance = uint32(seq)
		if err := headers.Put(instanceKey(instance), blob); err != nil {
			return errors.WithStack(err)
		}
		return errors.WithStack(tx.Bucket(namesBucket).Put(nameKey(name, instance), nil))
	})
	if err != nil {
		return 0, rpmerrors.Wrapf(err, rpmerrors.ErrDBAccess, "failed to add %s", h.GetString(header.TagNEVRA))
	}

	h.SetInstance(instance)
	log.Debug().Uint32("instance", instance).Str("nevra", h.GetString(header.TagNEVRA)).Msg("Added header")
	return instance, nil
}

// Get loads the header stored under instance
func (db *DB) Get(instance uint32) (*header.Header, error) {
	var blob []byte
	err := db.bolt.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(headersBucket).Get(instanceKey(instance)); v != nil {
			blob = bytes.Clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, rpmerrors.Wrap(errors.WithStack(err), rpmerrors.ErrDBAccess, "failed to read header")
	}
	if blob == nil {
		return nil, rpmerrors.Newf(rpmerrors.ErrNotFound, "no header with instance %d", instance).
			WithDetail("instance", instance)
	}

	h, err := header.Unmarshal(blob)
	if err != nil {
		return nil, err
	}
	h.SetInstance(instance)
	return h, nil
}

// Remove deletes the header stored under instance
func (db *DB) Remove(instance uint32) error {
	h, err := db.Get(instance)
	if err != nil {
		return err
	}
	defer h.Free()

	err = db.bolt.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(headersBucket).Delete(instanceKey(instance)); err != nil {
			return errors.WithStack(err)
		}
		return errors.WithStack(tx.Bucket(namesBucket).Delete(nameKey(h.GetString(header.TagName), instance)))
	})
	if err != nil {
		return rpmerrors.Wrapf(err, rpmerrors.ErrDBAccess, "failed to remove instance %d", instance)
	}
	log.Debug().Uint32("instance", instance).Msg("Removed header")
	return nil
}

// FindByName returns the instances of every installed package named name
// in ascending order.
func (db *DB) FindByName(name string) ([]uint32, error) {
	prefix := []byte(name + "\x00")
	var out []uint32
	err := db.bolt.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(namesBucket).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			if len(k) != len(prefix)+4 {
				continue
			}
			out = append(out, binary.BigEndian.Uint32(k[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, rpmerrors.Wrap(errors.WithStack(err), rpmerrors.ErrDBAccess, "failed to search names")
	}
	return out, nil
}

// Iterate calls fn for every stored header in instance order. The header
// passed to fn is released after fn returns unless fn links it.
func (db *DB) Iterate(fn func(h *header.Header) error) error {
	var instances []uint32
	err := db.bolt.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(headersBucket).ForEach(func(k, _ []byte) error {
			instances = append(instances, binary.BigEndian.Uint32(k))
			return nil
		})
	})
	if err != nil {
		return rpmerrors.Wrap(errors.WithStack(err), rpmerrors.ErrDBAccess, "failed to iterate headers")
	}

	for _, instance := range instances {
		h, err := db.Get(instance)
		if err != nil {
			return err
		}
		err = fn(h)
		h.Free()
		if err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of stored headers
func (db *DB) Count() (int, error) {
	var n int
	err := db.bolt.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(headersBucket).Stats().KeyN
		return nil
	})
	return n, errors.WithStack(err)
}
