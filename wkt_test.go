package geometa

import (
	"errors"
	"strings"
	"testing"
)

const utm14NWKT = `PROJCS["WGS 84 / UTM zone 14N",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]],PROJECTION["Transverse_Mercator"],PARAMETER["latitude_of_origin",0],PARAMETER["central_meridian",-99],PARAMETER["scale_factor",0.9996],PARAMETER["false_easting",500000],PARAMETER["false_northing",0],UNIT["metre",1,AUTHORITY["EPSG","9001"]],AXIS["Easting",EAST],AXIS["Northing",NORTH],AUTHORITY["EPSG","32614"]]`

type wktLine struct {
	indent  int
	keyword string
}

func checkPretty(t *testing.T, lines []string, want []wktLine) {
	t.Helper()
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d:\n%s", len(want), len(lines), strings.Join(lines, "\n"))
	}
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		indent := len(line) - len(trimmed)
		if indent != want[i].indent {
			t.Errorf("line %d %q: expected indent %d, got %d", i, line, want[i].indent, indent)
		}
		if !strings.HasPrefix(trimmed, want[i].keyword+"[") {
			t.Errorf("line %d %q: expected keyword %s", i, line, want[i].keyword)
		}
		if !strings.HasSuffix(line, ",") {
			t.Errorf("line %d %q: expected trailing comma", i, line)
		}
	}
}

func TestPrettyWKT_Geographic(t *testing.T) {
	lines, err := PrettyWKT(WGS84WKT)
	if err != nil {
		t.Fatalf("PrettyWKT failed: %v", err)
	}

	checkPretty(t, lines, []wktLine{
		{0, "GEOGCS"},
		{2, "DATUM"},
		{4, "SPHEROID"},
		{6, "AUTHORITY"},
		{4, "AUTHORITY"},
		{2, "PRIMEM"},
		{4, "AUTHORITY"},
		{2, "UNIT"},
		{4, "AUTHORITY"},
		{2, "AUTHORITY"},
	})

	if lines[2] != `    SPHEROID["WGS 84",6378137,298.257223563,` {
		t.Errorf("unexpected SPHEROID line %q", lines[2])
	}
	if lines[3] != `      AUTHORITY["EPSG","7030"]],` {
		t.Errorf("unexpected AUTHORITY line %q", lines[3])
	}
	if lines[5] != `  PRIMEM["Greenwich",0,` {
		t.Errorf("unexpected PRIMEM line %q", lines[5])
	}
	if lines[7] != `  UNIT["degree",0.0174532925199433,` {
		t.Errorf("unexpected UNIT line %q", lines[7])
	}
}

func TestPrettyWKT_Projected(t *testing.T) {
	lines, err := PrettyWKT(utm14NWKT)
	if err != nil {
		t.Fatalf("PrettyWKT failed: %v", err)
	}

	checkPretty(t, lines, []wktLine{
		{0, "PROJCS"},
		{2, "GEOGCS"},
		{4, "DATUM"},
		{6, "SPHEROID"},
		{8, "AUTHORITY"},
		{6, "AUTHORITY"},
		{4, "PRIMEM"},
		{6, "AUTHORITY"},
		{4, "UNIT"},
		{6, "AUTHORITY"},
		{4, "AUTHORITY"},
		{0, "PROJECTION"},
		{2, "PARAMETER"},
		{2, "PARAMETER"},
		{2, "PARAMETER"},
		{2, "PARAMETER"},
		{2, "PARAMETER"},
		{2, "UNIT"},
		{4, "AUTHORITY"},
		{2, "AXIS"},
		{2, "AXIS"},
		{2, "AUTHORITY"},
	})

	if lines[13] != `  PARAMETER["central_meridian",-99],` {
		t.Errorf("unexpected PARAMETER line %q", lines[13])
	}
	if lines[19] != `  AXIS["Easting",EAST],` {
		t.Errorf("unexpected AXIS line %q", lines[19])
	}
}

func TestPrettyWKT_MultilineInput(t *testing.T) {
	multi := strings.ReplaceAll(WGS84WKT, ",", ",\r\n    ") + "\n"
	lines, err := PrettyWKT(FlattenWKT(multi))
	if err != nil {
		t.Fatalf("PrettyWKT failed: %v", err)
	}
	flat, _ := PrettyWKT(WGS84WKT)
	if strings.Join(lines, "\n") != strings.Join(flat, "\n") {
		t.Errorf("multi-line input rendered differently:\n%s", strings.Join(lines, "\n"))
	}
}

func TestPrettyWKT_TokensMatchedAsWritten(t *testing.T) {
	lines, err := PrettyWKT(`GEOGCS["WGS 84", DATUM["x",SPHEROID["a", 1, 2]], AUTHORITY["EPSG","4326"]]`)
	if err != nil {
		t.Fatalf("PrettyWKT failed: %v", err)
	}
	want := []string{
		`GEOGCS["WGS 84",`,
		`    SPHEROID["a", 1, 2]],`,
	}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Errorf("got:\n%s\nwant:\n%s", strings.Join(lines, "\n"), strings.Join(want, "\n"))
	}
}

func TestFlattenWKT(t *testing.T) {
	tests := map[string]string{
		"GEOGCS[\"a b\",\n    DATUM[\"d\"]]":   `GEOGCS["a b",DATUM["d"]]`,
		"UNIT[\"m\",1],\r\n\tAXIS[\"E\",EAST]": `UNIT["m",1],AXIS["E",EAST]`,
		`PARAMETER["k", 0.9996]`:               `PARAMETER["k", 0.9996]`,
	}
	for in, want := range tests {
		if got := FlattenWKT(in); got != want {
			t.Errorf("FlattenWKT(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPrettyWKT_Malformed(t *testing.T) {
	tests := []struct {
		name string
		wkt  string
	}{
		{"spheroid without args", `GEOGCS["x",DATUM["d",SPHEROID["s"`},
		{"spheroid with one arg", `GEOGCS["x",DATUM["d",SPHEROID["s",6378137`},
		{"authority at end", `GEOGCS["x",AUTHORITY["EPSG"`},
		{"parameter at end", `PROJCS["p",PARAMETER["k"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PrettyWKT(tt.wkt)
			if !errors.Is(err, ErrMalformedWKT) {
				t.Fatalf("expected ErrMalformedWKT, got %v", err)
			}
			if KindOf(err) != KindMalformedWKT {
				t.Errorf("expected kind %v, got %v", KindMalformedWKT, KindOf(err))
			}
		})
	}
}

func TestPrettyWKT_DropsUnknownNodes(t *testing.T) {
	lines, err := PrettyWKT(`GEOGCS["x",EXTENSION["PROJ4","+proj=longlat"],AUTHORITY["EPSG","4326"]]`)
	if err != nil {
		t.Fatalf("PrettyWKT failed: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %v", lines)
	}
}

func TestFormatWKT(t *testing.T) {
	out, err := FormatWKT(WGS84WKT)
	if err != nil {
		t.Fatalf("FormatWKT failed: %v", err)
	}
	if got := strings.Count(out, "\n"); got != 9 {
		t.Errorf("expected 9 newlines, got %d", got)
	}
}
