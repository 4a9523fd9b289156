package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	geometa "github.com/tingold/orb-geometa"
	"github.com/tingold/orb-geometa/fgb"
	"github.com/tingold/orb-geometa/shapefile"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("GEOMETA_GDAL", "false")
	t.Setenv("GEOMETA_CACHE", "none")

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func extentShapefile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "extent.shp")
	ring := geometa.RingFromBounds(geometa.BoundingBox{XMin: -100, XMax: -98, YMin: 18, YMax: 20})
	if err := (shapefile.ExtentWriter{}).WriteExtent(path, ring, 1, 4326, geometa.WGS84WKT); err != nil {
		t.Fatalf("WriteExtent: %v", err)
	}
	return path
}

func TestVectorCmd(t *testing.T) {
	out, err := run(t, "", "vector", "--kind", "standard", extentShapefile(t))
	if err != nil {
		t.Fatalf("vector failed: %v", err)
	}
	var rec geometa.MetadataRecord
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("output is not a record: %v\n%s", err, out)
	}
	if rec.FeatureCount != 1 || rec.BBoxWKT != "POLYGON((-100 18,-98 18,-98 20,-100 20,-100 18))" {
		t.Errorf("unexpected record %+v", rec)
	}
	if !strings.Contains(out, `"members":null`) {
		t.Errorf("standard layer should report null members: %s", out)
	}
}

func TestVectorCmd_Features(t *testing.T) {
	out, err := run(t, "", "vector", "--features", "--pretty", extentShapefile(t))
	if err != nil {
		t.Fatalf("vector --features failed: %v", err)
	}
	if !strings.Contains(out, "\n  {") || !strings.Contains(out, `"geometry": "POLYGON((`) {
		t.Errorf("unexpected output %s", out)
	}
}

func TestVectorCmd_Errors(t *testing.T) {
	if _, err := run(t, "", "vector", "--kind", "mixed", "a.shp"); err == nil {
		t.Error("expected error for unknown kind")
	}
	_, err := run(t, "", "vector", filepath.Join(t.TempDir(), "nada.shp"))
	if !errors.Is(err, geometa.ErrSourceOpen) {
		t.Errorf("expected ErrSourceOpen, got %v", err)
	}
	if _, err := run(t, "", "vector"); err == nil {
		t.Error("expected error without a path")
	}
	if _, err := run(t, "", "--log-level", "loud", "version"); err == nil {
		t.Error("expected error for an invalid log level")
	}
}

func TestPGCmd_IncompleteConnection(t *testing.T) {
	t.Setenv("GEOMETA_PG_HOST", "")
	_, err := run(t, "", "pg", "--table", "indice")
	if !errors.Is(err, geometa.ErrSourceOpen) {
		t.Errorf("expected ErrSourceOpen, got %v", err)
	}
}

func TestRasterCmd_WritesExtent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapa.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = png.Encode(f, image.NewGray(image.Rect(0, 0, 4, 2)))
	_ = f.Close()
	_ = os.WriteFile(filepath.Join(dir, "mapa.pgw"), []byte("1\n0\n0\n-1\n0.5\n1.5\n"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "mapa.prj"), []byte(geometa.WGS84WKT), 0o644)

	outPath := filepath.Join(dir, "raster_extent.fgb")
	out, err := run(t, "", "raster", "--out", outPath, path)
	if err != nil {
		t.Fatalf("raster failed: %v", err)
	}
	if !strings.Contains(out, `"wkt":"POLYGON((0 2,0 0,4 0,4 2,0 2))"`) {
		t.Errorf("unexpected output %s", out)
	}

	layer, err := fgb.Open(outPath)
	if err != nil {
		t.Fatalf("extent file unreadable: %v", err)
	}
	defer func() { _ = layer.Close() }()
	ids, err := layer.Values("id")
	if err != nil || len(ids) != 1 || ids[0] != "1" {
		t.Errorf("unexpected ids %v, %v", ids, err)
	}

	if _, err := run(t, "", "raster", "--out", filepath.Join(dir, "x.gpkg"), path); err == nil {
		t.Error("expected error for unsupported output format")
	}
}

func TestWKTCmd(t *testing.T) {
	out, err := run(t, geometa.WGS84WKT, "wkt", "--text")
	if err != nil {
		t.Fatalf("wkt failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 3 || !strings.HasPrefix(lines[0], `GEOGCS["WGS 84"`) {
		t.Errorf("unexpected lines %q", lines)
	}

	path := filepath.Join(t.TempDir(), "crs.prj")
	_ = os.WriteFile(path, []byte(geometa.WGS84WKT), 0o644)
	out, err = run(t, "", "wkt", path)
	if err != nil || !strings.HasPrefix(out, `{"lines":[`) {
		t.Errorf("file input: %v %s", err, out)
	}

	_, err = run(t, `GEOGCS["x",AUTHORITY["EPSG"`, "wkt", "-")
	if !errors.Is(err, geometa.ErrMalformedWKT) {
		t.Errorf("expected ErrMalformedWKT, got %v", err)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "", "version")
	if err != nil || !strings.HasPrefix(out, "geometa ") {
		t.Errorf("version: %v %q", err, out)
	}
}
