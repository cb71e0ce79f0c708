package te

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/mkulik-rh/rpm/pkg/ds"
	rpmerrors "github.com/mkulik-rh/rpm/pkg/errors"
	"github.com/mkulik-rh/rpm/pkg/fi"
	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/mkulik-rh/rpm/pkg/logging"
	"github.com/mkulik-rh/rpm/pkg/problems"
	"github.com/mkulik-rh/rpm/pkg/relocation"
	"github.com/mkulik-rh/rpm/pkg/types"
)

var log = logging.GetLogger("te")

// Trans script presence bits
const (
	havePreTrans  = 1 << 0
	havePostTrans = 1 << 1
)

// Estimated size of the lead and signature header of a package file
const pkgFileOverhead = 96 + 256

// Element is one package install or erase within a transaction
type Element struct {
	ts  Transaction
	typ types.ElementType

	name     string
	epoch    string
	version  string
	release  string
	arch     string
	os       string
	nevr     string
	nevra    string
	isSource bool

	// dependsOn and parent are non-owning references
	dependsOn *Element
	parent    *Element

	h      *header.Header
	fi     *fi.Manifest
	fs     fi.States
	fd     io.ReadCloser
	key    string
	relocs relocation.Table

	this      *ds.Set
	provides  *ds.Set
	requires  *ds.Set
	conflicts *ds.Set
	obsoletes *ds.Set

	color        types.Color
	pkgFileSize  uint64
	headerSize   uint32
	dbInstance   uint32
	transScripts int
	failed       int
	probs        *problems.Set

	collections          []string
	lastInCollectionAdd  []string
	lastInCollectionAny  []string
	firstInCollectionRem []string
}

// New builds an element for h. key is the retrieval key of an install
// element, normally the package file path. relocs are the requested
// relocations; moves naming an undeclared prefix are recorded as
// BadRelocate problems. New links ts and does not keep h.
func New(ts Transaction, h *header.Header, typ types.ElementType, key string, relocs []relocation.Relocation) (*Element, error) {
	if h == nil {
		return nil, rpmerrors.New(rpmerrors.ErrInvalidInput, "element needs a header")
	}
	if typ != types.Added && typ != types.Removed {
		return nil, rpmerrors.Newf(rpmerrors.ErrInvalidInput, "invalid element type %d", typ)
	}

	e := &Element{typ: typ}
	if ts != nil {
		ts.Link()
		e.ts = ts
	}
	e.init(h, key, relocs)

	if typ == types.Added {
		e.pkgFileSize = h.GetNumber(header.TagLongSigSize) + pkgFileOverhead
	}

	for _, tag := range []header.Tag{header.TagProvideName, header.TagRequireName} {
		if err := e.ColorDS(tag); err != nil {
			e.Free()
			return nil, err
		}
	}

	log.Debug().
		Str("nevra", e.nevra).
		Str("type", e.TypeString()).
		Uint32("color", uint32(e.color)).
		Int("relocations", len(e.relocs)).
		Msg("Created transaction element")
	return e, nil
}

func (e *Element) init(h *header.Header, key string, relocs []relocation.Relocation) {
	e.name = h.GetAsString(header.TagName)
	e.version = h.GetAsString(header.TagVersion)
	e.release = h.GetAsString(header.TagRelease)
	e.epoch = h.GetAsString(header.TagEpoch)
	e.arch = h.GetAsString(header.TagArch)
	e.os = h.GetAsString(header.TagOS)
	e.isSource = h.IsSource()
	e.nevr = h.GetAsString(header.TagNEVR)
	e.nevra = h.GetAsString(header.TagNEVRA)

	e.key = key
	if relocs != nil {
		e.buildRelocs(h, relocs)
	}

	e.dbInstance = h.Instance()
	e.headerSize = h.SizeOf()

	e.this = ds.This(h, ds.SenseEqual)
	e.provides = ds.New(h, header.TagProvideName)
	e.requires = ds.New(h, header.TagRequireName)
	e.conflicts = ds.New(h, header.TagConflictName)
	e.obsoletes = ds.New(h, header.TagObsoleteName)

	e.fs = fi.NewStates(h.Count(header.TagBaseNames))
	e.fi = e.loadManifest(h, false)

	if h.IsEntry(header.TagPreTrans) && h.IsEntry(header.TagPreTransProg) {
		e.transScripts |= havePreTrans
	}
	if h.IsEntry(header.TagPostTrans) && h.IsEntry(header.TagPostTransProg) {
		e.transScripts |= havePostTrans
	}

	e.collections = h.GetStrings(header.TagCollections)
}

func (e *Element) buildRelocs(h *header.Header, relocs []relocation.Relocation) {
	table, bad := relocation.Build(h.GetStrings(header.TagPrefixes), relocs)
	for _, path := range bad {
		e.AddProblem(problems.BadRelocate, "", path, 0)
	}
	e.relocs = table
}

// loadManifest builds the file manifest, relocating the file list of an
// install element first. With inPlace false the relocation is applied to
// a copy so the caller's header is left untouched.
func (e *Element) loadManifest(h *header.Header, inPlace bool) *fi.Manifest {
	flags := fi.FlagsErase
	if e.typ == types.Added {
		flags = fi.FlagsInstall
	}

	if e.typ != types.Added || len(e.relocs) == 0 || len(e.fs) == 0 ||
		h.IsSource() || h.IsEntry(header.TagOrigBaseNames) {
		return fi.New(h, flags)
	}

	target := h
	if !inPlace {
		target = h.Copy()
		defer target.Free()
	}
	if err := fi.RelocateFileList(e.relocs, e.fs, target); err != nil {
		log.Warn().Err(err).Str("nevra", e.nevra).Msg("Failed to relocate file list")
		return fi.New(h, flags)
	}
	return fi.New(target, flags)
}

// ColorDS computes the color of every entry of the provides or requires
// set from the files contributing to it and ORs them into the element
// color. Other sets are left alone. An index outside the set is an
// assertion failure: manifest and set came from different headers.
func (e *Element) ColorDS(tag header.Tag) error {
	var (
		set     *ds.Set
		deptype byte
	)
	switch tag {
	case header.TagProvideName:
		set, deptype = e.provides, byte(ds.KindProvides)
	case header.TagRequireName:
		set, deptype = e.requires, byte(ds.KindRequires)
	default:
		return nil
	}

	count := set.Count()
	if count == 0 || e.fi.Count() == 0 {
		return nil
	}

	colors := make([]types.Color, count)
	for _, f := range e.fi.Files() {
		for _, packed := range f.Depends {
			kind, ix := fi.UnpackDepend(packed)
			if kind != deptype {
				continue
			}
			if int(ix) >= count {
				return errors.AssertionFailedf(
					"%s: %s index %d out of range, set has %d entries", e.nevra, tag, ix, count)
			}
			colors[ix] |= f.Color
		}
	}

	for i, c := range colors {
		e.color |= c
		set.SetColor(i, c)
	}
	return nil
}

// Free releases everything the element owns and its transaction reference.
// It always returns nil.
func (e *Element) Free() *Element {
	if e == nil {
		return nil
	}
	e.relocs = nil
	e.name, e.epoch, e.version, e.release = "", "", "", ""
	e.arch, e.os, e.nevr, e.nevra = "", "", "", ""
	if e.fd != nil {
		_ = e.fd.Close()
		e.fd = nil
	}
	e.fi = e.fi.Free()
	e.h = e.h.Free()
	e.fs = nil
	e.probs = e.probs.Free()
	e.CleanDS()
	if e.ts != nil {
		e.ts.Unlink()
		e.ts = nil
	}
	return nil
}

// CleanDS releases the dependency sets
func (e *Element) CleanDS() {
	e.this = e.this.Free()
	e.provides = e.provides.Free()
	e.requires = e.requires.Free()
	e.conflicts = e.conflicts.Free()
	e.obsoletes = e.obsoletes.Free()
}
