package shapefile

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// ErrUnknownCodePage is returned for a .cpg naming an unsupported encoding.
var ErrUnknownCodePage = errors.New("shapefile: unknown code page")

var codePages = map[string]*charmap.Charmap{
	"437":       charmap.CodePage437,
	"850":       charmap.CodePage850,
	"852":       charmap.CodePage852,
	"866":       charmap.CodePage866,
	"1250":      charmap.Windows1250,
	"1251":      charmap.Windows1251,
	"1252":      charmap.Windows1252,
	"1253":      charmap.Windows1253,
	"1254":      charmap.Windows1254,
	"1257":      charmap.Windows1257,
	"88591":     charmap.ISO8859_1,
	"88592":     charmap.ISO8859_2,
	"88595":     charmap.ISO8859_5,
	"88597":     charmap.ISO8859_7,
	"88599":     charmap.ISO8859_9,
	"885915":    charmap.ISO8859_15,
	"LATIN1":    charmap.ISO8859_1,
	"ANSI1252":  charmap.Windows1252,
	"OEM":       charmap.CodePage437,
	"MACINTOSH": charmap.Macintosh,
	"KOI8R":     charmap.KOI8R,
	"KOI8U":     charmap.KOI8U,
}

// readCpg returns the decoder named by a .cpg file. A missing file yields
// nil, meaning values are decoded with decodeDefault.
func readCpg(path string) (*encoding.Decoder, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	name := normalizeCodePage(string(data))
	switch name {
	case "", "UTF8", "65001":
		return encoding.Nop.NewDecoder(), nil
	}
	cm, ok := codePages[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodePage, strings.TrimSpace(string(data)))
	}
	return cm.NewDecoder(), nil
}

// normalizeCodePage upper-cases name and strips separators and the usual
// prefixes, so "ISO-8859-1", "iso_8859_1" and "88591" compare equal.
func normalizeCodePage(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	name = strings.NewReplacer("-", "", "_", "", " ", "").Replace(name)
	for _, prefix := range []string{"WINDOWS", "ISO", "CP", "IBM"} {
		if rest := strings.TrimPrefix(name, prefix); rest != name && rest != "" {
			name = rest
			break
		}
	}
	return name
}

// decode converts a raw DBF string to UTF-8.
func (l *Layer) decode(s string) string {
	if l.dec == nil {
		return decodeDefault(s)
	}
	out, err := l.dec.String(s)
	if err != nil {
		return s
	}
	return out
}

// decodeDefault keeps valid UTF-8 and reads anything else as ISO-8859-1.
func decodeDefault(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	out, err := charmap.ISO8859_1.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return out
}
