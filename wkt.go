package geometa

import (
	"strings"
)

// prettyKeywords lists the WKT node names that start an output line, with
// the number of following comma-split tokens that belong on the same line.
var prettyKeywords = []struct {
	name  string
	extra int
}{
	{"PROJCS", 0},
	{"GEOGCS", 0},
	{"DATUM", 0},
	{"SPHEROID", 2},
	{"AUTHORITY", 1},
	{"PRIMEM", 1},
	{"UNIT", 1},
	{"PROJECTION", 0},
	{"PARAMETER", 1},
	{"AXIS", 1},
	{"VERT_CS", 0},
	{"VERT_DATUM", 0},
	{"COMPD_CS", 0},
	{"TOWGS84", 0},
	{"FITTED_CS", 0},
	{"LOCAL_CS", 0},
	{"LOCAL_DATUM", 0},
}

// PrettyWKT splits a flat WKT1 CRS definition into indented lines.
//
// The input is split on every comma and scanned left to right. Tokens that
// start with a known node name become lines, indented by two spaces per
// bracket level below the root; numeric arguments the split tore away from
// SPHEROID, AUTHORITY, PRIMEM, UNIT, PARAMETER and AXIS are rejoined.
// Every line keeps a trailing comma. Tokens are matched as written, so a
// node preceded by whitespace is dropped; run multi-line input through
// FlattenWKT first. The output is for display only and is not valid WKT.
func PrettyWKT(s string) ([]string, error) {
	tokens := strings.Split(s, ",")

	var lines []string
	depth := 0
	for i, tok := range tokens {
		depth += strings.Count(tok, "[") - strings.Count(tok, "]")

		extra := -1
		for _, kw := range prettyKeywords {
			if strings.HasPrefix(tok, kw.name) {
				extra = kw.extra
				break
			}
		}
		if extra < 0 {
			continue
		}
		if i+extra >= len(tokens) {
			return nil, Errorf(KindMalformedWKT, "pretty wkt",
				"%s at token %d needs %d continuation token(s), %d left", tok, i, extra, len(tokens)-i-1)
		}

		var b strings.Builder
		if depth > 1 {
			b.WriteString(strings.Repeat("  ", depth-1))
		}
		b.WriteString(tok)
		b.WriteByte(',')
		for _, cont := range tokens[i+1 : i+1+extra] {
			b.WriteString(cont)
			b.WriteByte(',')
		}
		lines = append(lines, b.String())
	}
	return lines, nil
}

// FlattenWKT removes line breaks and the indentation that follows them, as
// found in multi-line WKT written by GDAL or hand-edited .prj files. Other
// whitespace is kept.
func FlattenWKT(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	skip := false
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			skip = true
		case skip && (r == ' ' || r == '\t'):
		default:
			skip = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatWKT returns PrettyWKT's lines joined by newlines.
func FormatWKT(s string) (string, error) {
	lines, err := PrettyWKT(s)
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}
