package te

import (
	"io"
	"slices"
	"strings"

	"github.com/mkulik-rh/rpm/pkg/ds"
	"github.com/mkulik-rh/rpm/pkg/fi"
	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/mkulik-rh/rpm/pkg/relocation"
	"github.com/mkulik-rh/rpm/pkg/types"
)

// Type returns the element disposition
func (e *Element) Type() types.ElementType { return e.typ }

// TypeString returns "install" or "erase"
func (e *Element) TypeString() string { return e.typ.String() }

func (e *Element) Name() string    { return e.name }
func (e *Element) Epoch() string   { return e.epoch }
func (e *Element) Version() string { return e.version }
func (e *Element) Release() string { return e.release }
func (e *Element) Arch() string    { return e.arch }
func (e *Element) OS() string      { return e.os }
func (e *Element) NEVR() string    { return e.nevr }
func (e *Element) NEVRA() string   { return e.nevra }
func (e *Element) IsSource() bool  { return e.isSource }

// EVR returns the NEVR without the leading name
func (e *Element) EVR() string {
	return strings.TrimPrefix(e.nevr, e.name+"-")
}

// Key returns the retrieval key of an install element
func (e *Element) Key() string { return e.key }

// Transaction returns the owning transaction
func (e *Element) Transaction() Transaction { return e.ts }

// Header returns a new reference to the held header, nil when closed.
// The caller must Free it.
func (e *Element) Header() *header.Header {
	if e.h == nil {
		return nil
	}
	return e.h.Link()
}

// SetHeader replaces the held header, dropping the previous one
func (e *Element) SetHeader(h *header.Header) {
	e.h = e.h.Free()
	if h != nil {
		e.h = h.Link()
	}
}

// FI returns the file manifest without taking a reference
func (e *Element) FI() *fi.Manifest { return e.fi }

// SetFI replaces the file manifest, dropping the previous one
func (e *Element) SetFI(m *fi.Manifest) {
	e.fi = e.fi.Free()
	if m != nil {
		e.fi = m.Link()
	}
}

// Fd returns the open package stream, nil when closed
func (e *Element) Fd() io.ReadCloser { return e.fd }

// SetFd replaces the package stream. The previous stream is closed unless
// it is the one being set.
func (e *Element) SetFd(fd io.ReadCloser) {
	if e.fd != nil && e.fd != fd {
		if err := e.fd.Close(); err != nil {
			log.Debug().Err(err).Str("nevra", e.nevra).Msg("Failed to close replaced package stream")
		}
	}
	e.fd = fd
}

// FileStates returns the planned per-file actions
func (e *Element) FileStates() fi.States { return e.fs }

// DS returns the dependency set for a name tag; TagName selects the
// self-identity provide.
func (e *Element) DS(tag header.Tag) *ds.Set {
	switch tag {
	case header.TagName:
		return e.this
	case header.TagProvideName:
		return e.provides
	case header.TagRequireName:
		return e.requires
	case header.TagConflictName:
		return e.conflicts
	case header.TagObsoleteName:
		return e.obsoletes
	default:
		return nil
	}
}

// Relocations returns a copy of the validated relocation table
func (e *Element) Relocations() relocation.Table { return slices.Clone(e.relocs) }

func (e *Element) Color() types.Color { return e.color }

// SetColor replaces the element color and returns the previous one
func (e *Element) SetColor(c types.Color) types.Color {
	prev := e.color
	e.color = c
	return prev
}

// PkgFileSize returns the approximate package file size
func (e *Element) PkgFileSize() uint64 { return e.pkgFileSize }

// HeaderSize returns the header size in bytes
func (e *Element) HeaderSize() uint32 { return e.headerSize }

// DBInstance returns the database instance, 0 when not in the database
func (e *Element) DBInstance() uint32 { return e.dbInstance }

func (e *Element) SetDBInstance(instance uint32) { e.dbInstance = instance }

// DBOffset is DBInstance under its historical name
func (e *Element) DBOffset() uint32 { return e.dbInstance }

// Parent returns the element this one was created for
func (e *Element) Parent() *Element { return e.parent }

// SetParent replaces the parent and returns the previous one
func (e *Element) SetParent(p *Element) *Element {
	prev := e.parent
	e.parent = p
	return prev
}

// DependsOn returns the install element an erase element is paired with
func (e *Element) DependsOn() *Element { return e.dependsOn }

func (e *Element) SetDependsOn(other *Element) { e.dependsOn = other }

// Failed returns the failure count
func (e *Element) Failed() int { return e.failed }

// HasTransScript reports whether the package has a scriptlet for the
// pre or post transaction stage.
func (e *Element) HasTransScript(goal types.Goal) bool {
	switch goal {
	case types.GoalPreTrans:
		return e.transScripts&havePreTrans != 0
	case types.GoalPostTrans:
		return e.transScripts&havePostTrans != 0
	default:
		return false
	}
}
