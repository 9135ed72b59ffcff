// Package markup renders the receipt template micro-language.
//
// The grammar has two constructs. A placeholder {name} is replaced by the
// context value for name, or removed when the context has no such key. A
// conditional block {name:if}...{name:endif} keeps its inner text when the
// value for name is truthy and is dropped otherwise. Names consist of word
// characters [A-Za-z0-9_]. Blocks do not nest: an open marker pairs with the
// nearest following close marker of the same name, and the kept inner text
// is not scanned for further blocks.
package markup

import (
	"fmt"
	"strings"
)

const (
	suffixIf    = ":if"
	suffixEndif = ":endif"
)

func isWord(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// marker is a brace-delimited token: {name}, {name:if} or {name:endif}.
type marker struct {
	name   string
	suffix string
	end    int // index just past the closing brace
}

// readMarker parses a marker starting at src[i], which must be '{'.
func readMarker(src string, i int) (marker, bool) {
	j := i + 1
	for j < len(src) && isWord(src[j]) {
		j++
	}
	if j == i+1 {
		return marker{}, false
	}
	name := src[i+1 : j]
	rest := src[j:]
	for _, suffix := range []string{"", suffixIf, suffixEndif} {
		if strings.HasPrefix(rest, suffix+"}") {
			return marker{name: name, suffix: suffix, end: j + len(suffix) + 1}, true
		}
	}
	return marker{}, false
}

func closeMarker(name string) string {
	return "{" + name + suffixEndif + "}"
}

// Render evaluates src against ctx: conditional blocks first, then
// placeholders. The result depends only on its inputs.
func Render(src string, ctx Context) string {
	return substitute(resolveBlocks(src, ctx), ctx)
}

func resolveBlocks(src string, ctx Context) string {
	var b strings.Builder
	b.Grow(len(src))

	for i := 0; i < len(src); {
		if src[i] != '{' {
			b.WriteByte(src[i])
			i++
			continue
		}
		m, ok := readMarker(src, i)
		if !ok || m.suffix != suffixIf {
			b.WriteByte('{')
			i++
			continue
		}
		rel := strings.Index(src[m.end:], closeMarker(m.name))
		if rel < 0 {
			b.WriteByte('{')
			i++
			continue
		}
		inner := src[m.end : m.end+rel]
		if v, ok := ctx[m.name]; ok && v.Truthy() {
			b.WriteString(inner)
		}
		i = m.end + rel + len(closeMarker(m.name))
	}
	return b.String()
}

func substitute(src string, ctx Context) string {
	var b strings.Builder
	b.Grow(len(src))

	for i := 0; i < len(src); {
		if src[i] != '{' {
			b.WriteByte(src[i])
			i++
			continue
		}
		m, ok := readMarker(src, i)
		if !ok || m.suffix != "" {
			b.WriteByte('{')
			i++
			continue
		}
		if v, ok := ctx[m.name]; ok {
			b.WriteString(v.String())
		}
		i = m.end
	}
	return b.String()
}

// HasConditional reports whether src contains both an open and a close
// conditional marker, of any names.
func HasConditional(src string) bool {
	var open, closed bool
	for i := 0; i < len(src); i++ {
		if src[i] != '{' {
			continue
		}
		m, ok := readMarker(src, i)
		if !ok {
			continue
		}
		switch m.suffix {
		case suffixIf:
			open = true
		case suffixEndif:
			closed = true
		}
		if open && closed {
			return true
		}
	}
	return false
}

// NestedBlockError reports a conditional block opened inside another.
type NestedBlockError struct {
	Outer  string
	Inner  string
	Offset int
}

func (e *NestedBlockError) Error() string {
	return fmt.Sprintf("conditional block %q opened inside %q at offset %d", e.Inner, e.Outer, e.Offset)
}

// CheckBlocks rejects markup with a conditional block opened inside
// another block, which Render would not evaluate.
func CheckBlocks(src string) error {
	for i := 0; i < len(src); {
		if src[i] != '{' {
			i++
			continue
		}
		m, ok := readMarker(src, i)
		if !ok || m.suffix != suffixIf {
			i++
			continue
		}
		rel := strings.Index(src[m.end:], closeMarker(m.name))
		if rel < 0 {
			i++
			continue
		}
		inner := src[m.end : m.end+rel]
		for j := 0; j < len(inner); j++ {
			if inner[j] != '{' {
				continue
			}
			if im, ok := readMarker(inner, j); ok && im.suffix == suffixIf {
				return &NestedBlockError{Outer: m.name, Inner: im.name, Offset: m.end + j}
			}
		}
		i = m.end + rel + len(closeMarker(m.name))
	}
	return nil
}

// Info lists the names a piece of markup refers to, each once, in order of
// first appearance.
type Info struct {
	Placeholders []string `json:"placeholders"`
	Blocks       []string `json:"conditionalBlocks"`
}

// Scan collects placeholder and conditional block names from src.
func Scan(src string) Info {
	info := Info{Placeholders: []string{}, Blocks: []string{}}
	seenP := map[string]bool{}
	seenB := map[string]bool{}

	for i := 0; i < len(src); i++ {
		if src[i] != '{' {
			continue
		}
		m, ok := readMarker(src, i)
		if !ok {
			continue
		}
		switch m.suffix {
		case "":
			if !seenP[m.name] {
				seenP[m.name] = true
				info.Placeholders = append(info.Placeholders, m.name)
			}
		case suffixIf:
			if !seenB[m.name] {
				seenB[m.name] = true
				info.Blocks = append(info.Blocks, m.name)
			}
		}
		i = m.end - 1
	}
	return info
}
