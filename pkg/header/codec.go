package header

import (
	"fmt"

	"github.com/mkulik-rh/rpm/pkg/errors"
	toml "github.com/pelletier/go-toml/v2"
)

// Marshal encodes the header as a TOML document keyed by tag name
func (h *Header) Marshal() ([]byte, error) {
	doc := make(map[string]interface{}, len(h.entries))
	for tag, v := range h.entries {
		doc[tag.Name()] = v
	}
	data, err := toml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrHeaderRead, "failed to encode header")
	}
	return data, nil
}

// Unmarshal decodes a TOML header document into a new header
func Unmarshal(data []byte) (*Header, error) {
	var doc map[string]interface{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrHeaderRead, "failed to parse header")
	}

	h := New()
	for key, raw := range doc {
		tag := TagByName(key)
		if tag == TagNotFound || tag == TagNEVR || tag == TagNEVRA {
			return nil, errors.Newf(errors.ErrHeaderRead, "unknown header tag %q", key)
		}
		v, err := convert(tag, raw)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrHeaderRead, "bad value for tag %s", tag)
		}
		h.entries[tag] = v
	}
	return h, nil
}

func convert(tag Tag, raw interface{}) (interface{}, error) {
	switch tag.Type() {
	case TypeString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", raw)
		}
		return s, nil
	case TypeNumber:
		return toUint64(raw)
	case TypeStringArray:
		items, ok := raw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("expected array, got %T", raw)
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string element, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	case TypeNumberArray:
		items, ok := raw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("expected array, got %T", raw)
		}
		out := make([]uint32, 0, len(items))
		for _, item := range items {
			n, err := toUint64(item)
			if err != nil {
				return nil, err
			}
			if n > 0xffffffff {
				return nil, fmt.Errorf("value %d overflows 32 bits", n)
			}
			out = append(out, uint32(n))
		}
		return out, nil
	}
	return nil, fmt.Errorf("tag has no declared type")
}

func toUint64(raw interface{}) (uint64, error) {
	n, ok := raw.(int64)
	if !ok {
		return 0, fmt.Errorf("expected integer, got %T", raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d", n)
	}
	return uint64(n), nil
}
