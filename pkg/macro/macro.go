// Package macro expands %-style configuration macros.
//
// Supported forms:
//
//	%%               literal percent
//	%name %{name}    value of name, left as is when undefined
//	%{?name}         value of name, empty when undefined
//	%{?name:text}    text when name is defined
//	%{!?name:text}   text when name is undefined
//
// Values are expanded recursively.
package macro

import (
	"strings"

	"github.com/mkulik-rh/rpm/pkg/errors"
	"github.com/mkulik-rh/rpm/pkg/logging"
)

// MaxDepth bounds recursive expansion
const MaxDepth = 64

var log = logging.GetLogger("macro")

// Context holds macro definitions. Defining a name again shadows the
// previous value until it is undefined.
type Context struct {
	macros map[string][]string
}

// NewContext returns an empty context
func NewContext() *Context {
	return &Context{macros: make(map[string][]string)}
}

// Define pushes a value for name
func (c *Context) Define(name, body string) {
	c.macros[name] = append(c.macros[name], body)
}

// Undefine pops the most recent value of name
func (c *Context) Undefine(name string) {
	stack := c.macros[name]
	if len(stack) <= 1 {
		delete(c.macros, name)
		return
	}
	c.macros[name] = stack[:len(stack)-1]
}

// Get returns the current unexpanded value of name
func (c *Context) Get(name string) (string, bool) {
	stack := c.macros[name]
	if len(stack) == 0 {
		return "", false
	}
	return stack[len(stack)-1], true
}

// Expand expands every macro reference in s
func (c *Context) Expand(s string) (string, error) {
	out, err := c.expand(s, 0)
	if err != nil {
		log.Debug().Err(err).Str("input", s).Msg("Macro expansion failed")
		return "", err
	}
	return out, nil
}

func (c *Context) expand(s string, depth int) (string, error) {
	if depth > MaxDepth {
		return "", errors.Newf(errors.ErrInvalidInput, "macro recursion deeper than %d", MaxDepth)
	}
	if !strings.Contains(s, "%") {
		return s, nil
	}

	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '%' || i+1 == len(s) {
			b.WriteByte(s[i])
			i++
			continue
		}
		switch next := s[i+1]; {
		case next == '%':
			b.WriteByte('%')
			i += 2
		case next == '{':
			end := closingBrace(s, i+2)
			if end < 0 {
				return "", errors.Newf(errors.ErrInvalidInput, "unterminated macro in %q", s)
			}
			text, err := c.expandBraced(s[i+2:end], s[i:end+1], depth)
			if err != nil {
				return "", err
			}
			b.WriteString(text)
			i = end + 1
		case isNameStart(next):
			j := i + 1
			for j < len(s) && isNameChar(s[j]) {
				j++
			}
			text, err := c.lookup(s[i+1:j], s[i:j], depth)
			if err != nil {
				return "", err
			}
			b.WriteString(text)
			i = j
		default:
			b.WriteByte('%')
			i++
		}
	}
	return b.String(), nil
}

// expandBraced handles the body of %{...}
func (c *Context) expandBraced(body, literal string, depth int) (string, error) {
	negate, conditional := false, false
	for len(body) > 0 && (body[0] == '!' || body[0] == '?') {
		if body[0] == '!' {
			negate = true
		} else {
			conditional = true
		}
		body = body[1:]
	}

	name, text, hasText := strings.Cut(body, ":")
	if !conditional {
		return c.lookup(name, literal, depth)
	}

	_, defined := c.Get(name)
	if negate {
		defined = !defined
	}
	switch {
	case !defined:
		return "", nil
	case hasText:
		return c.expand(text, depth+1)
	case negate:
		return "", nil
	default:
		return c.lookup(name, "", depth)
	}
}

func (c *Context) lookup(name, literal string, depth int) (string, error) {
	value, ok := c.Get(name)
	if !ok {
		return literal, nil
	}
	return c.expand(value, depth+1)
}

func closingBrace(s string, from int) int {
	level := 1
	for j := from; j < len(s); j++ {
		switch s[j] {
		case '{':
			level++
		case '}':
			level--
			if level == 0 {
				return j
			}
		}
	}
	return -1
}

func isNameStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isNameChar(c byte) bool {
	return isNameStart(c) || c >= '0' && c <= '9'
}
