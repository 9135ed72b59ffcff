package printer

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Charset pairs a text encoding with the printer code page that renders it.
type Charset struct {
	Name     string
	CodePage byte
	encoding *charmap.Charmap
}

var charsets = map[string]Charset{
	"cp866":  {Name: "cp866", CodePage: 17, encoding: charmap.CodePage866},
	"cp1251": {Name: "cp1251", CodePage: 46, encoding: charmap.Windows1251},
	"cp437":  {Name: "cp437", CodePage: 0, encoding: charmap.CodePage437},
}

// CharsetFor looks up a charset by name, case-insensitively.
func CharsetFor(name string) (Charset, bool) {
	cs, ok := charsets[strings.ToLower(name)]
	return cs, ok
}

// Encoder returns an encoder that substitutes unsupported runes.
func (c Charset) Encoder() *encoding.Encoder {
	return encoding.ReplaceUnsupported(c.encoding.NewEncoder())
}
