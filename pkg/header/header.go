package header

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/mkulik-rh/rpm/pkg/errors"
)

// Header is package metadata addressed by tag. It is reference counted:
// holders take a reference with Link and drop it with Free. Dropping the
// last reference releases the entries.
type Header struct {
	entries  map[Tag]interface{}
	instance uint32
	refs     int
}

// New returns an empty header holding one reference
func New() *Header {
	return &Header{
		entries: make(map[Tag]interface{}),
		refs:    1,
	}
}

// Link takes another reference to h
func (h *Header) Link() *Header {
	if h != nil {
		h.refs++
	}
	return h
}

// Free drops one reference and always returns nil, so callers can write
// h = h.Free().
func (h *Header) Free() *Header {
	if h == nil {
		return nil
	}
	h.refs--
	if h.refs <= 0 {
		h.refs = 0
		h.entries = nil
	}
	return nil
}

// Refs returns the number of live references
func (h *Header) Refs() int {
	if h == nil {
		return 0
	}
	return h.refs
}

// Instance returns the database instance the header was loaded from, 0 if none
func (h *Header) Instance() uint32 {
	if h == nil {
		return 0
	}
	return h.instance
}

// SetInstance records the database instance of the header
func (h *Header) SetInstance(instance uint32) {
	h.instance = instance
}

// IsEntry reports whether the tag is present
func (h *Header) IsEntry(tag Tag) bool {
	if h == nil {
		return false
	}
	_, ok := h.entries[tag]
	return ok
}

// IsSource reports whether the header describes a source package.
// Binary packages always name the source package they were built from.
func (h *Header) IsSource() bool {
	return !h.IsEntry(TagSourceRPM)
}

// Get returns the raw value stored under tag
func (h *Header) Get(tag Tag) (interface{}, bool) {
	if h == nil {
		return nil, false
	}
	v, ok := h.entries[tag]
	return v, ok
}

// GetString returns a string entry, "" when absent or of another type
func (h *Header) GetString(tag Tag) string {
	switch tag {
	case TagNEVR:
		return h.nevr()
	case TagNEVRA:
		return h.nevra()
	}
	v, _ := h.Get(tag)
	s, _ := v.(string)
	return s
}

// GetAsString formats scalar entries as strings. Absent entries yield "".
func (h *Header) GetAsString(tag Tag) string {
	v, ok := h.Get(tag)
	if !ok {
		return h.GetString(tag)
	}
	switch val := v.(type) {
	case string:
		return val
	case uint64:
		return strconv.FormatUint(val, 10)
	case []string:
		if len(val) > 0 {
			return val[0]
		}
	case []uint32:
		if len(val) > 0 {
			return strconv.FormatUint(uint64(val[0]), 10)
		}
	}
	return ""
}

// GetStrings returns a copy of a string array entry
func (h *Header) GetStrings(tag Tag) []string {
	v, _ := h.Get(tag)
	s, _ := v.([]string)
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// GetNumber returns a numeric entry, 0 when absent
func (h *Header) GetNumber(tag Tag) uint64 {
	v, _ := h.Get(tag)
	n, _ := v.(uint64)
	return n
}

// GetUint32s returns a copy of a numeric array entry
func (h *Header) GetUint32s(tag Tag) []uint32 {
	v, _ := h.Get(tag)
	n, _ := v.([]uint32)
	if n == nil {
		return nil
	}
	return append([]uint32(nil), n...)
}

// Count returns the number of values stored under tag
func (h *Header) Count(tag Tag) int {
	v, ok := h.Get(tag)
	if !ok {
		return 0
	}
	switch val := v.(type) {
	case []string:
		return len(val)
	case []uint32:
		return len(val)
	default:
		return 1
	}
}

// Put stores a value, replacing any existing entry. The value must match
// the tag's declared type.
func (h *Header) Put(tag Tag, value interface{}) error {
	if h == nil || h.entries == nil {
		return errors.New(errors.ErrInvalidInput, "header is released")
	}
	if tag == TagNEVR || tag == TagNEVRA {
		return errors.Newf(errors.ErrInvalidInput, "tag %s is synthesised", tag)
	}
	want := tag.Type()
	ok := false
	switch value.(type) {
	case string:
		ok = want == TypeString
	case []string:
		ok = want == TypeStringArray
	case uint64:
		ok = want == TypeNumber
	case []uint32:
		ok = want == TypeNumberArray
	}
	if !ok {
		return errors.Newf(errors.ErrInvalidInput, "value of type %T does not fit tag %s", value, tag)
	}
	h.entries[tag] = value
	return nil
}

// Delete removes a tag
func (h *Header) Delete(tag Tag) {
	if h != nil {
		delete(h.entries, tag)
	}
}

// Tags returns the present tags in ascending order
func (h *Header) Tags() []Tag {
	if h == nil {
		return nil
	}
	tags := make([]Tag, 0, len(h.entries))
	for tag := range h.entries {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Copy returns a deep copy holding one reference and no database instance
func (h *Header) Copy() *Header {
	c := New()
	if h == nil {
		return c
	}
	for tag, v := range h.entries {
		switch val := v.(type) {
		case []string:
			c.entries[tag] = append([]string(nil), val...)
		case []uint32:
			c.entries[tag] = append([]uint32(nil), val...)
		default:
			c.entries[tag] = val
		}
	}
	return c
}

// SizeOf returns the on-disk size of the header including its lead
func (h *Header) SizeOf() uint32 {
	blob, err := h.Marshal()
	if err != nil {
		return 0
	}
	return uint32(leadSize + len(blob) + digestSize)
}

func (h *Header) nevr() string {
	name := h.GetString(TagName)
	if name == "" {
		return ""
	}
	evr := h.GetString(TagVersion) + "-" + h.GetString(TagRelease)
	if h.IsEntry(TagEpoch) {
		evr = fmt.Sprintf("%d:%s", h.GetNumber(TagEpoch), evr)
	}
	return name + "-" + evr
}

func (h *Header) nevra() string {
	nevr := h.nevr()
	if nevr == "" {
		return ""
	}
	if arch := h.GetString(TagArch); arch != "" {
		return nevr + "." + arch
	}
	return nevr
}
